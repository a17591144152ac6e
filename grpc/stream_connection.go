package grpc

import (
	"context"
	"direct-chat/contract"
	"direct-chat/domain"
	"direct-chat/errors"
	"sync"

	"github.com/google/uuid"
)

var _ contract.Connection = (*StreamConnection)(nil)

// StreamConnection buffers pushes for one Connect stream.
// The gRPC handler owning the stream drains Messages.
type StreamConnection struct {
	id        string
	Messages  chan domain.Message
	done      chan struct{}
	closeOnce sync.Once
}

func NewStreamConnection(bufferSize int) *StreamConnection {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &StreamConnection{
		id:       uuid.NewString(),
		Messages: make(chan domain.Message, bufferSize),
		done:     make(chan struct{}),
	}
}

func (s *StreamConnection) ID() string {
	return s.id
}

func (s *StreamConnection) Push(ctx context.Context, message domain.Message) error {
	select {
	case <-s.done:
		return errors.ErrConnectionClosed
	default:
	}
	select {
	case s.Messages <- message:
		return nil
	case <-s.done:
		return errors.ErrConnectionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *StreamConnection) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}
