package services

import (
	"context"
	"direct-chat/contract"
	"direct-chat/domain"
	"log/slog"
)

type IChatService interface {
	Connect(identity domain.PartyID, conn contract.Connection)
	Disconnect(conn contract.Connection)
	Send(ctx context.Context, cmd domain.SendMessageCommand) (domain.DeliveryReport, error)
}

var _ IChatService = (*ChatService)(nil)

// ChatService is the only entry point of the transports into the delivery path.
type ChatService struct {
	log      *slog.Logger
	registry contract.IRegistry
	router   contract.IRouter
}

func NewChatService(log *slog.Logger, registry contract.IRegistry, router contract.IRouter) *ChatService {
	return &ChatService{log: log, registry: registry, router: router}
}

func (s *ChatService) Connect(identity domain.PartyID, conn contract.Connection) {
	s.registry.Bind(identity, conn)
	s.log.Debug("Party connected", "identity", identity, "connection", conn.ID())
}

func (s *ChatService) Disconnect(conn contract.Connection) {
	s.registry.Unbind(conn)
	s.log.Debug("Party disconnected", "connection", conn.ID())
}

func (s *ChatService) Send(ctx context.Context, cmd domain.SendMessageCommand) (domain.DeliveryReport, error) {
	return s.router.HandleSend(ctx, cmd)
}
