//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"direct-chat/domain"
	"direct-chat/domain/event"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// EventPublisher accepts domain events without blocking the caller.
type EventPublisher interface {
	Publish(e event.DomainEvent)
}

// Connection is one live, authenticated transport handle.
// ID must be stable for the lifetime of the connection and unique across connections.
type Connection interface {
	ID() string
	Push(ctx context.Context, message domain.Message) error
}

type IRegistry interface {
	Bind(identity domain.PartyID, conn Connection)
	Unbind(conn Connection)
	Lookup(identity domain.PartyID) (Connection, bool)
}

type IMessageRepository interface {
	Append(ctx context.Context, message domain.Message) (domain.Message, error)
	QueryPage(ctx context.Context, a, b domain.PartyID, page, pageSize int) ([]domain.Message, error)
	QueryLatest(ctx context.Context, a, b domain.PartyID) (*domain.Message, error)
}

type ISearchIndex interface {
	Index(ctx context.Context, message domain.Message) error
	Search(ctx context.Context, a, b domain.PartyID, text string, limit int) ([]domain.Message, error)
}

type IRouter interface {
	HandleSend(ctx context.Context, cmd domain.SendMessageCommand) (domain.DeliveryReport, error)
}
