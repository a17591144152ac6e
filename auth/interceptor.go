package auth

import (
	"context"
	"direct-chat/domain"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type contextKey string

const UserIDKey contextKey = "user_id"

type TokenValidator interface {
	ValidateToken(tokenString string) (domain.PartyID, error)
}

// WithIdentity injects the authenticated party into ctx.
func WithIdentity(ctx context.Context, identity domain.PartyID) context.Context {
	return context.WithValue(ctx, UserIDKey, identity)
}

// IdentityFromContext returns the party authenticated by an interceptor.
func IdentityFromContext(ctx context.Context) (domain.PartyID, bool) {
	identity, ok := ctx.Value(UserIDKey).(domain.PartyID)
	return identity, ok && identity != ""
}

// UnaryAuthInterceptor handles JWT validation for incoming unary gRPC calls.
func UnaryAuthInterceptor(validator TokenValidator) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		newCtx, err := authenticate(ctx, validator)
		if err != nil {
			return nil, err
		}
		return handler(newCtx, req)
	}
}

// StreamAuthInterceptor does the same for streams, the handler sees the enriched context.
func StreamAuthInterceptor(validator TokenValidator) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		newCtx, err := authenticate(ss.Context(), validator)
		if err != nil {
			return err
		}
		return handler(srv, &authenticatedStream{ServerStream: ss, ctx: newCtx})
	}
}

func authenticate(ctx context.Context, validator TokenValidator) (context.Context, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "metadata is missing")
	}

	values := md.Get("authorization")
	if len(values) == 0 {
		return nil, status.Error(codes.Unauthenticated, "authorization token is missing")
	}

	identity, err := validator.ValidateToken(BearerToken(values[0]))
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid or expired token")
	}
	return WithIdentity(ctx, identity), nil
}

type authenticatedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authenticatedStream) Context() context.Context {
	return s.ctx
}
