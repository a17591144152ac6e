package sink

import (
	"context"
	"direct-chat/contract"
	"direct-chat/domain/event"
)

var _ contract.EventSink = (*TelemetrySink)(nil)

type DeliveryCounter interface {
	IncrStored()
	IncrDelivered()
	IncrQueued()
	IncrRejected()
}

// TelemetrySink counts delivery outcomes
type TelemetrySink struct {
	counter DeliveryCounter
}

func NewTelemetrySink(counter DeliveryCounter) *TelemetrySink {
	return &TelemetrySink{counter: counter}
}

func (s *TelemetrySink) Consume(_ context.Context, e event.DomainEvent) error {
	switch e.(type) {
	case event.MessageStored:
		s.counter.IncrStored()
	case event.MessageDelivered:
		s.counter.IncrDelivered()
	case event.MessageQueued:
		s.counter.IncrQueued()
	case event.MessageRejected:
		s.counter.IncrRejected()
	}
	return nil
}
