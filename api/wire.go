// Package api holds the JSON shapes exchanged with clients.
// Every transport names message fields the same way.
package api

import (
	"direct-chat/domain"
	"direct-chat/errors"
	"encoding/json"
	"fmt"
	"time"

	"github.com/samber/lo"
)

const (
	EventSendMessage     = "sendMessage"
	EventReceiveMessage  = "receiveMessage"
	EventMessageAccepted = "messageAccepted"
	EventError           = "error"
)

// Envelope is one WebSocket frame
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type Message struct {
	ID               string    `json:"id"`
	SenderIdentity   string    `json:"senderIdentity"`
	ReceiverIdentity string    `json:"receiverIdentity"`
	Body             string    `json:"body"`
	Timestamp        time.Time `json:"timestamp"`
}

func FromMessage(m domain.Message) Message {
	return Message{
		ID:               m.ID.String(),
		SenderIdentity:   string(m.SenderID),
		ReceiverIdentity: string(m.ReceiverID),
		Body:             m.Body,
		Timestamp:        m.Timestamp.UTC(),
	}
}

func FromMessages(messages []domain.Message) []Message {
	return lo.Map(messages, func(item domain.Message, _ int) Message {
		return FromMessage(item)
	})
}

type SendMessage struct {
	SenderIdentity   string     `json:"senderIdentity"`
	ReceiverIdentity string     `json:"receiverIdentity"`
	Body             string     `json:"body"`
	Timestamp        *time.Time `json:"timestamp,omitempty"`
}

// ToCommand binds the payload to the authenticated party.
// An empty sender is the authenticated one, any other sender is refused.
func (s SendMessage) ToCommand(authenticated domain.PartyID) (domain.SendMessageCommand, error) {
	sender := domain.PartyID(s.SenderIdentity)
	if sender == "" {
		sender = authenticated
	}
	if sender != authenticated {
		return domain.SendMessageCommand{}, fmt.Errorf("%w: sender %q is not the authenticated party",
			errors.ErrMalformedRequest, sender)
	}
	return domain.SendMessageCommand{
		SenderID:   sender,
		ReceiverID: domain.PartyID(s.ReceiverIdentity),
		Body:       s.Body,
		Timestamp:  s.Timestamp,
	}, nil
}

type Accepted struct {
	Message
	State domain.DeliveryState `json:"state"`
}

func FromReport(report domain.DeliveryReport) Accepted {
	return Accepted{Message: FromMessage(report.Message), State: report.State}
}

type Error struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func FromError(err error) Error {
	return Error{Error: err.Error(), Kind: errors.Kind(err)}
}

// Encode builds a frame ready to be written on the socket.
func Encode(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

// Decode splits a frame, the payload is left raw for the event handler.
func Decode(frame []byte) (Envelope, error) {
	var envelope Envelope
	if err := json.Unmarshal(frame, &envelope); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", errors.ErrMalformedRequest, err)
	}
	if envelope.Event == "" {
		return Envelope{}, fmt.Errorf("%w: missing event", errors.ErrMalformedRequest)
	}
	return envelope, nil
}
