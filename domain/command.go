package domain

import (
	"direct-chat/errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// SendMessageCommand is the inbound "send" event of a live connection.
// A nil Timestamp lets the store stamp the message.
type SendMessageCommand struct {
	SenderID   PartyID `validate:"required"`
	ReceiverID PartyID `validate:"required"`
	Body       string  `validate:"required"`
	Timestamp  *time.Time
}

// Validate rejects commands missing a required field, with a timestamp the store cannot encode,
// or whose body exceeds maxBodyLength runes.
// A maxBodyLength of zero disables the length check.
func (c SendMessageCommand) Validate(maxBodyLength int) error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrMalformedRequest, err)
	}
	if c.Timestamp != nil && !StorableTimestamp(*c.Timestamp) {
		return fmt.Errorf("%w: timestamp %s outside %s..%s", errors.ErrMalformedRequest,
			c.Timestamp.Format(time.RFC3339Nano), MinTimestamp.Format(time.RFC3339), MaxTimestamp.Format(time.RFC3339))
	}
	if maxBodyLength > 0 && utf8.RuneCountInString(c.Body) > maxBodyLength {
		return fmt.Errorf("%w: body longer than %d characters", errors.ErrMalformedRequest, maxBodyLength)
	}
	return nil
}

// ToMessage builds the message to persist. Id, sequence and a missing timestamp are set by the store.
func (c SendMessageCommand) ToMessage() Message {
	message := Message{
		SenderID:   c.SenderID,
		ReceiverID: c.ReceiverID,
		Body:       c.Body,
	}
	if c.Timestamp != nil {
		message.Timestamp = c.Timestamp.UTC()
	}
	return message
}
