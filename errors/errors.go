package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	// ErrPersistence is returned when the message store is unreachable or rejects a write.
	// The message was not saved and the caller must be told so.
	ErrPersistence = fmt.Errorf("persistence failure")
	// ErrMalformedRequest marks a send event or a query missing required fields.
	ErrMalformedRequest = fmt.Errorf("malformed request")
	// ErrDeliveryTimeout is logged when a push did not complete in time. Never surfaced to callers.
	ErrDeliveryTimeout = fmt.Errorf("delivery timeout")
	// ErrNotBound is the normal outcome of a lookup for a party with no live connection.
	ErrNotBound = fmt.Errorf("party not bound")

	ErrConnectionClosed = fmt.Errorf("connection closed")
	ErrInvalidToken     = fmt.Errorf("invalid or expired token")
	ErrInvalidConfig    = fmt.Errorf("invalid configuration")
)

// Is lets callers match sentinels without importing both errors packages.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// Kind is the short label sent back to a client when its request failed.
func Kind(err error) string {
	switch {
	case Is(err, ErrMalformedRequest):
		return "malformed"
	case Is(err, ErrPersistence):
		return "persistence"
	case Is(err, ErrInvalidToken):
		return "unauthenticated"
	default:
		return "internal"
	}
}

func MapToGRPCError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case Is(err, ErrMalformedRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case Is(err, ErrInvalidToken):
		return status.Error(codes.Unauthenticated, err.Error())
	case Is(err, ErrPersistence):
		return status.Error(codes.Internal, err.Error())
	default:
		return status.Error(codes.Unknown, err.Error())
	}
}

func MapToHTTPStatus(err error) int {
	switch {
	case Is(err, ErrMalformedRequest):
		return http.StatusBadRequest
	case Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
