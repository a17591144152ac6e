package grpc

import (
	"context"
	"direct-chat/api"
	"direct-chat/auth"
	"direct-chat/domain"
	"direct-chat/errors"
	"direct-chat/services"
	"fmt"
	"log/slog"
	"time"

	grpc3 "github.com/mama165/sdk-go/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

var _ ChatServiceServer = (*ChatServer)(nil)

type ChatServer struct {
	chatService          services.IChatService
	connectionBufferSize int
	log                  *slog.Logger
}

func NewChatServer(log *slog.Logger, chatService services.IChatService, connectionBufferSize int) *ChatServer {
	return &ChatServer{chatService: chatService, connectionBufferSize: connectionBufferSize, log: log}
}

// NewServer builds a gRPC server with request logging and JWT authentication on every call.
func NewServer(log *slog.Logger, chatService services.IChatService, tokens auth.TokenValidator,
	connectionBufferSize int) *grpc.Server {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			grpc3.UnaryLoggingInterceptor(log),
			auth.UnaryAuthInterceptor(tokens),
		),
		grpc.ChainStreamInterceptor(auth.StreamAuthInterceptor(tokens)),
	)
	RegisterChatServiceServer(s, NewChatServer(log, chatService, connectionBufferSize))
	return s
}

// Shutdown drains in-flight calls until ctx expires, then closes whatever is left.
// Connect streams only end when their client leaves, so a deadline is always needed.
// It reports whether the stop had to be forced.
func Shutdown(ctx context.Context, s *grpc.Server) bool {
	stopped := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
		return false
	case <-ctx.Done():
		s.Stop()
		<-stopped
		return true
	}
}

// SendMessage persists then routes, the response carries the terminal delivery state.
func (s *ChatServer) SendMessage(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing identity")
	}
	payload, err := fromStruct(req)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	cmd, err := payload.ToCommand(identity)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	report, err := s.chatService.Send(ctx, cmd)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return toStruct(api.FromMessage(report.Message), report.State)
}

// Connect binds the caller for the stream lifetime and forwards every pushed message.
// It blocks until the client disconnects or a send fails.
func (s *ChatServer) Connect(_ *emptypb.Empty, stream ChatService_ConnectServer) error {
	identity, ok := auth.IdentityFromContext(stream.Context())
	if !ok {
		return status.Error(codes.Unauthenticated, "missing identity")
	}

	conn := NewStreamConnection(s.connectionBufferSize)
	s.chatService.Connect(identity, conn)
	defer func() {
		s.chatService.Disconnect(conn)
		conn.Close()
	}()

	for {
		select {
		case <-stream.Context().Done():
			s.log.Debug(fmt.Sprintf("Client %s disconnected", identity))
			return nil
		case message := <-conn.Messages:
			event, err := toStruct(api.FromMessage(message), "")
			if err != nil {
				return status.Error(codes.Internal, err.Error())
			}
			if err = stream.Send(event); err != nil {
				s.log.Error("failed to push message to stream",
					"identity", identity,
					"message_id", message.ID,
					"error", err)
				return err
			}
		}
	}
}

func toStruct(m api.Message, state domain.DeliveryState) (*structpb.Struct, error) {
	fields := map[string]any{
		"id":               m.ID,
		"senderIdentity":   m.SenderIdentity,
		"receiverIdentity": m.ReceiverIdentity,
		"body":             m.Body,
		"timestamp":        m.Timestamp.Format(time.RFC3339Nano),
	}
	if state != "" {
		fields["state"] = string(state)
	}
	return structpb.NewStruct(fields)
}

func fromStruct(req *structpb.Struct) (api.SendMessage, error) {
	fields := req.GetFields()
	payload := api.SendMessage{
		SenderIdentity:   fields["senderIdentity"].GetStringValue(),
		ReceiverIdentity: fields["receiverIdentity"].GetStringValue(),
		Body:             fields["body"].GetStringValue(),
	}
	if raw := fields["timestamp"].GetStringValue(); raw != "" {
		at, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return api.SendMessage{}, fmt.Errorf("%w: timestamp: %v", errors.ErrMalformedRequest, err)
		}
		payload.Timestamp = &at
	}
	return payload, nil
}

// FromStruct decodes a message pushed on a Connect stream or returned by SendMessage.
func FromStruct(s *structpb.Struct) (api.Accepted, error) {
	fields := s.GetFields()
	at, err := time.Parse(time.RFC3339Nano, fields["timestamp"].GetStringValue())
	if err != nil {
		return api.Accepted{}, err
	}
	return api.Accepted{
		Message: api.Message{
			ID:               fields["id"].GetStringValue(),
			SenderIdentity:   fields["senderIdentity"].GetStringValue(),
			ReceiverIdentity: fields["receiverIdentity"].GetStringValue(),
			Body:             fields["body"].GetStringValue(),
			Timestamp:        at,
		},
		State: domain.DeliveryState(fields["state"].GetStringValue()),
	}, nil
}
