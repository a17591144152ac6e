// Package domain contains core concepts of the chat system.
// This file defines Message records and delivery outcomes.
// Messages are immutable once stored and never deleted.
package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Message represents an immutable direct message between two parties.
type Message struct {
	ID         uuid.UUID // assigned by the store
	Seq        uint64    // insertion order, breaks timestamp ties
	SenderID   PartyID
	ReceiverID PartyID
	Body       string
	Timestamp  time.Time
}

// Stored keys encode timestamps as non-negative unix nanoseconds.
var (
	MinTimestamp = time.Unix(0, 0).UTC()
	MaxTimestamp = time.Unix(0, math.MaxInt64).UTC()
)

// StorableTimestamp reports whether t survives the round trip through unix nanoseconds.
func StorableTimestamp(t time.Time) bool {
	return !t.Before(MinTimestamp) && !t.After(MaxTimestamp)
}

func (m Message) Conversation() Conversation {
	return NewConversation(m.SenderID, m.ReceiverID)
}

type DeliveryState string

const (
	Delivered DeliveryState = "delivered"
	Queued    DeliveryState = "queued"
)

// DeliveryReport is the terminal outcome of a send.
type DeliveryReport struct {
	Message Message
	State   DeliveryState
}
