package workers

import (
	"context"
	"direct-chat/contract"
	"direct-chat/domain/event"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var _ contract.Worker = (*EventFanout)(nil)

// EventFanout broadcasts domain events to multiple in-process consumers.
//
// It provides best-effort fan-out with no guarantees regarding delivery,
// durability, or retries. EventFanout is not a message broker.
// Every sink sees events in the order they were published.
//
// It is intended for side effects (search indexing, metrics),
// never for the delivery path itself.
type EventFanout struct {
	log         *slog.Logger
	domainEvent chan event.DomainEvent
	sinks       []contract.EventSink
	sinkTimeout time.Duration
}

func NewEventFanout(log *slog.Logger, domainEvent chan event.DomainEvent,
	sinkTimeout time.Duration, sinks ...contract.EventSink) *EventFanout {
	return &EventFanout{log: log, domainEvent: domainEvent, sinkTimeout: sinkTimeout, sinks: sinks}
}

func (w *EventFanout) Run(ctx context.Context) error {
	for {
		select {
		case evt, ok := <-w.domainEvent:
			if !ok {
				w.log.Debug("Domain event channel closed")
				return nil
			}
			w.Fanout(ctx, evt)
		case <-ctx.Done():
			w.log.Debug("Context done, stopping fanout")
			return nil
		}
	}
}

// Fanout hands the event to every sink concurrently and waits for all of them.
// A sink slower than sinkTimeout gets its context canceled.
func (w *EventFanout) Fanout(ctx context.Context, evt event.DomainEvent) {
	var wg sync.WaitGroup
	for _, sink := range w.sinks {
		wg.Add(1)
		go func(sink contract.EventSink) {
			defer wg.Done()
			sinkCtx, cancel := context.WithTimeout(ctx, w.sinkTimeout)
			defer cancel()
			if err := sink.Consume(sinkCtx, evt); err != nil {
				w.log.Warn("Sink failed to consume event",
					"sink", fmt.Sprintf("%T", sink),
					"event", fmt.Sprintf("%T", evt),
					"error", err)
			}
		}(sink)
	}
	wg.Wait()
}
