package runtime

import (
	"context"
	"direct-chat/contract"
	"direct-chat/domain"
	"direct-chat/domain/event"
	"direct-chat/errors"
	"fmt"
	"log/slog"
	"time"
)

var _ contract.IRouter = (*Router)(nil)

// Router turns a send event into a stored message, then pushes it to the receiver when bound.
// A message is never pushed before its append succeeded.
type Router struct {
	log             *slog.Logger
	repository      contract.IMessageRepository
	registry        contract.IRegistry
	publisher       contract.EventPublisher
	deliveryTimeout time.Duration
	maxBodyLength   int
}

func NewRouter(log *slog.Logger, repository contract.IMessageRepository, registry contract.IRegistry,
	publisher contract.EventPublisher, deliveryTimeout time.Duration, maxBodyLength int) *Router {
	return &Router{
		log:             log,
		repository:      repository,
		registry:        registry,
		publisher:       publisher,
		deliveryTimeout: deliveryTimeout,
		maxBodyLength:   maxBodyLength,
	}
}

// HandleSend runs Received -> Persisted -> {Delivered | Queued}.
// Only validation and persistence failures are returned; a failed push still
// ends in Queued because the message is safe in the store.
func (r *Router) HandleSend(ctx context.Context, cmd domain.SendMessageCommand) (domain.DeliveryReport, error) {
	if err := cmd.Validate(r.maxBodyLength); err != nil {
		r.reject(cmd, err)
		return domain.DeliveryReport{}, err
	}

	stored, err := r.repository.Append(ctx, cmd.ToMessage())
	if err != nil {
		r.reject(cmd, err)
		return domain.DeliveryReport{}, err
	}
	r.publisher.Publish(event.MessageStored{Message: stored})

	conn, ok := r.registry.Lookup(stored.ReceiverID)
	if !ok {
		r.log.Debug("Receiver not bound, message queued",
			"message_id", stored.ID, "receiver", stored.ReceiverID, "reason", errors.ErrNotBound)
		r.publisher.Publish(event.MessageQueued{Message: stored})
		return domain.DeliveryReport{Message: stored, State: domain.Queued}, nil
	}

	if err = r.push(ctx, conn, stored); err != nil {
		r.log.Warn("Live delivery failed, message queued",
			"message_id", stored.ID, "receiver", stored.ReceiverID, "connection", conn.ID(), "error", err)
		r.publisher.Publish(event.MessageQueued{Message: stored, Reason: err})
		return domain.DeliveryReport{Message: stored, State: domain.Queued}, nil
	}
	r.publisher.Publish(event.MessageDelivered{Message: stored})
	return domain.DeliveryReport{Message: stored, State: domain.Delivered}, nil
}

// push is bounded by deliveryTimeout. It keeps running after the sender went away:
// the message is stored, so the receiver still deserves it.
func (r *Router) push(ctx context.Context, conn contract.Connection, message domain.Message) error {
	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.deliveryTimeout)
	defer cancel()

	err := conn.Push(pushCtx, message)
	if err != nil && pushCtx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%w after %s: %v", errors.ErrDeliveryTimeout, r.deliveryTimeout, err)
	}
	return err
}

func (r *Router) reject(cmd domain.SendMessageCommand, err error) {
	r.log.Warn("Send rejected", "sender", cmd.SenderID, "receiver", cmd.ReceiverID, "error", err)
	r.publisher.Publish(event.MessageRejected{
		SenderID:   cmd.SenderID,
		ReceiverID: cmd.ReceiverID,
		Reason:     err,
	})
}
