package repositories

import (
	"direct-chat/domain"
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the stored message record.
// Changing a number breaks every record already on disk.
const (
	fieldID        protowire.Number = 1
	fieldSeq       protowire.Number = 2
	fieldSender    protowire.Number = 3
	fieldReceiver  protowire.Number = 4
	fieldBody      protowire.Number = 5
	fieldTimestamp protowire.Number = 6
)

// EncodeMessage serializes a message using the protobuf wire format.
func EncodeMessage(message domain.Message) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldID, protowire.BytesType)
	b = protowire.AppendBytes(b, message.ID[:])
	b = protowire.AppendTag(b, fieldSeq, protowire.VarintType)
	b = protowire.AppendVarint(b, message.Seq)
	b = protowire.AppendTag(b, fieldSender, protowire.BytesType)
	b = protowire.AppendString(b, string(message.SenderID))
	b = protowire.AppendTag(b, fieldReceiver, protowire.BytesType)
	b = protowire.AppendString(b, string(message.ReceiverID))
	b = protowire.AppendTag(b, fieldBody, protowire.BytesType)
	b = protowire.AppendString(b, message.Body)
	b = protowire.AppendTag(b, fieldTimestamp, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(message.Timestamp.UnixNano()))
	return b
}

// DecodeMessage is the inverse of EncodeMessage. Unknown fields are skipped.
func DecodeMessage(b []byte) (domain.Message, error) {
	var message domain.Message
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return domain.Message{}, protowire.ParseError(n)
		}
		b = b[n:]

		switch {
		case num == fieldID && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return domain.Message{}, protowire.ParseError(n)
			}
			id, err := uuid.FromBytes(v)
			if err != nil {
				return domain.Message{}, fmt.Errorf("invalid message id: %w", err)
			}
			message.ID = id
			b = b[n:]
		case num == fieldSeq && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return domain.Message{}, protowire.ParseError(n)
			}
			message.Seq = v
			b = b[n:]
		case (num == fieldSender || num == fieldReceiver || num == fieldBody) && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return domain.Message{}, protowire.ParseError(n)
			}
			switch num {
			case fieldSender:
				message.SenderID = domain.PartyID(v)
			case fieldReceiver:
				message.ReceiverID = domain.PartyID(v)
			default:
				message.Body = v
			}
			b = b[n:]
		case num == fieldTimestamp && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return domain.Message{}, protowire.ParseError(n)
			}
			message.Timestamp = time.Unix(0, int64(v)).UTC()
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return domain.Message{}, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return message, nil
}
