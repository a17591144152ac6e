package sink

import (
	"context"
	"direct-chat/contract"
	"direct-chat/domain/event"
	"log/slog"
)

var _ contract.EventSink = (*SearchSink)(nil)

// SearchSink feeds stored messages into the full-text index.
// The index lags the store by the fanout latency.
type SearchSink struct {
	log   *slog.Logger
	index contract.ISearchIndex
}

func NewSearchSink(log *slog.Logger, index contract.ISearchIndex) *SearchSink {
	return &SearchSink{log: log, index: index}
}

func (s *SearchSink) Consume(ctx context.Context, e event.DomainEvent) error {
	evt, ok := e.(event.MessageStored)
	if !ok {
		return nil
	}
	if err := s.index.Index(ctx, evt.Message); err != nil {
		return err
	}
	s.log.Debug("Message indexed", "message_id", evt.Message.ID)
	return nil
}
