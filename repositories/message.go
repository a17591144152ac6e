package repositories

import (
	"context"
	"direct-chat/contract"
	"direct-chat/domain"
	"direct-chat/errors"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const (
	MessageKeyPrefix = "msg:"
	sequenceKey      = "seq:messages"
	sequenceLease    = 100
)

var _ contract.IMessageRepository = (*MessageRepository)(nil)

type MessageRepository struct {
	db       *badger.DB
	log      *slog.Logger
	sequence *badger.Sequence
	now      func() time.Time
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) (*MessageRepository, error) {
	sequence, err := db.GetSequence([]byte(sequenceKey), sequenceLease)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot lease message sequence: %v", errors.ErrPersistence, err)
	}
	return &MessageRepository{db: db, log: log, sequence: sequence, now: time.Now}, nil
}

// Close returns the unused part of the leased sequence to Badger.
func (m *MessageRepository) Close() error {
	return m.sequence.Release()
}

// ConversationPrefix is the key prefix shared by both directions of a conversation.
// Identities are hex encoded so any character they contain cannot collide with the separator.
func ConversationPrefix(a, b domain.PartyID) string {
	c := domain.NewConversation(a, b)
	return fmt.Sprintf("%s%s:%s:",
		MessageKeyPrefix,
		hex.EncodeToString([]byte(c.First)),
		hex.EncodeToString([]byte(c.Second)),
	)
}

// messageKey is formatted as "msg:{first}:{second}:{timestamp_padded}:{seq_padded}" to:
//  1. Keep both directions of a conversation under one prefix.
//  2. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  3. Break ties between identical timestamps by insertion order.
func messageKey(message domain.Message) []byte {
	return []byte(fmt.Sprintf("%s%019d:%020d",
		ConversationPrefix(message.SenderID, message.ReceiverID),
		message.Timestamp.UnixNano(),
		message.Seq,
	))
}

// Append persists a new message and returns it with its id, sequence and timestamp resolved.
// The write is committed before returning, so it is visible to every query issued afterwards.
func (m *MessageRepository) Append(ctx context.Context, message domain.Message) (domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	if message.SenderID == "" || message.ReceiverID == "" || message.Body == "" {
		return domain.Message{}, fmt.Errorf("%w: sender, receiver and body are required", errors.ErrPersistence)
	}
	if message.Timestamp.IsZero() {
		message.Timestamp = m.now()
	}
	message.Timestamp = message.Timestamp.UTC()
	if !domain.StorableTimestamp(message.Timestamp) {
		return domain.Message{}, fmt.Errorf("%w: timestamp %s out of range", errors.ErrPersistence,
			message.Timestamp.Format(time.RFC3339Nano))
	}

	seq, err := m.sequence.Next()
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	message.ID = uuid.New()
	message.Seq = seq

	err = m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(message), EncodeMessage(message))
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	return message, nil
}

// QueryPage walks the conversation backwards from its newest key.
// Skipped keys are never loaded, only the returned page is decoded.
// A page past the end yields an empty slice, not an error.
func (m *MessageRepository) QueryPage(ctx context.Context, a, b domain.PartyID, page, pageSize int) ([]domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	messages := make([]domain.Message, 0)
	if pageSize < 1 {
		return messages, nil
	}
	if page < 1 {
		page = 1
	}
	if page-1 > math.MaxInt/pageSize {
		return messages, nil
	}
	offset := (page - 1) * pageSize

	var values [][]byte
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(ConversationPrefix(a, b))
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		options.PrefetchValues = false
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		// 0xFF sorts after every digit, so the first valid key is the newest one
		seekKey := append(append([]byte{}, prefix...), 0xFF)
		skipped := 0
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if skipped < offset {
				skipped++
				continue
			}
			if len(values) == pageSize {
				break
			}
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			values = append(values, value)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}

	for _, v := range values {
		message, err := DecodeMessage(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
		}
		messages = append(messages, message)
	}
	m.log.Debug("Conversation page read", "page", page, "size", pageSize, "count", len(messages))
	return messages, nil
}

// QueryLatest returns the newest message of the conversation, or nil when there is none.
func (m *MessageRepository) QueryLatest(ctx context.Context, a, b domain.PartyID) (*domain.Message, error) {
	messages, err := m.QueryPage(ctx, a, b, 1, 1)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, nil
	}
	return lo.ToPtr(messages[0]), nil
}
