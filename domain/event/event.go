package event

import (
	"direct-chat/domain"
)

// DomainEvent is published by the delivery router once a send reached a terminal step.
type DomainEvent interface {
	Conversation() domain.Conversation
}

type MessageStored struct {
	Message domain.Message
}

func (m MessageStored) Conversation() domain.Conversation {
	return m.Message.Conversation()
}

type MessageDelivered struct {
	Message domain.Message
}

func (m MessageDelivered) Conversation() domain.Conversation {
	return m.Message.Conversation()
}

// MessageQueued means the message is stored but was not pushed live.
// Reason is nil when the receiver had no connection bound.
type MessageQueued struct {
	Message domain.Message
	Reason  error
}

func (m MessageQueued) Conversation() domain.Conversation {
	return m.Message.Conversation()
}

// MessageRejected is published when validation or persistence failed.
type MessageRejected struct {
	SenderID   domain.PartyID
	ReceiverID domain.PartyID
	Reason     error
}

func (m MessageRejected) Conversation() domain.Conversation {
	return domain.NewConversation(m.SenderID, m.ReceiverID)
}
