package repositories

import (
	"context"
	"direct-chat/contract"
	"direct-chat/domain"
	"direct-chat/errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/blugelabs/bluge/search"
	"github.com/google/uuid"
)

const (
	fieldDocID           = "_id"
	fieldDocConversation = "conversation"
	fieldDocSender       = "sender"
	fieldDocReceiver     = "receiver"
	fieldDocBody         = "body"
	fieldDocTimestamp    = "timestamp"
	fieldDocSeq          = "seq"
	defaultSearchLimit   = 20
)

var _ contract.ISearchIndex = (*SearchIndex)(nil)

// SearchIndex is a full-text index of message bodies, scoped by conversation.
// It is fed asynchronously, so a message becomes searchable shortly after it was stored.
type SearchIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewSearchIndex(writer *bluge.Writer, log *slog.Logger) *SearchIndex {
	return &SearchIndex{writer: writer, log: log}
}

// Index stores every message field in the document so a search never has to touch Badger.
// Re-indexing the same message id replaces the previous document.
func (s *SearchIndex) Index(_ context.Context, message domain.Message) error {
	doc := bluge.NewDocument(message.ID.String()).
		AddField(bluge.NewKeywordField(fieldDocConversation, ConversationPrefix(message.SenderID, message.ReceiverID))).
		AddField(bluge.NewKeywordField(fieldDocSender, string(message.SenderID)).StoreValue()).
		AddField(bluge.NewKeywordField(fieldDocReceiver, string(message.ReceiverID)).StoreValue()).
		AddField(bluge.NewTextField(fieldDocBody, message.Body).StoreValue()).
		AddField(bluge.NewKeywordField(fieldDocTimestamp, strconv.FormatInt(message.Timestamp.UnixNano(), 10)).StoreValue()).
		AddField(bluge.NewKeywordField(fieldDocSeq, strconv.FormatUint(message.Seq, 10)).StoreValue())

	if err := s.writer.Update(doc.ID(), doc); err != nil {
		return fmt.Errorf("%w: indexing message %s: %v", errors.ErrPersistence, message.ID, err)
	}
	return nil
}

// Search returns the best matches for text in the conversation {a, b}, newest first.
func (s *SearchIndex) Search(ctx context.Context, a, b domain.PartyID, text string, limit int) ([]domain.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty search text", errors.ErrMalformedRequest)
	}
	if limit < 1 {
		limit = defaultSearchLimit
	}

	reader, err := s.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	defer func() {
		_ = reader.Close()
	}()

	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewTermQuery(ConversationPrefix(a, b)).SetField(fieldDocConversation)).
		AddMust(bluge.NewMatchQuery(text).SetField(fieldDocBody))
	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}

	messages := make([]domain.Message, 0)
	match, err := iterator.Next()
	for err == nil && match != nil {
		message, decodeErr := s.toMessage(match)
		if decodeErr != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, decodeErr)
		}
		messages = append(messages, message)
		match, err = iterator.Next()
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}

	sort.Slice(messages, func(i, j int) bool {
		if messages[i].Timestamp.Equal(messages[j].Timestamp) {
			return messages[i].Seq > messages[j].Seq
		}
		return messages[i].Timestamp.After(messages[j].Timestamp)
	})
	s.log.Debug("Search executed", "text", text, "count", len(messages))
	return messages, nil
}

func (s *SearchIndex) toMessage(match *search.DocumentMatch) (domain.Message, error) {
	var message domain.Message
	var fieldErr error
	err := match.VisitStoredFields(func(field string, value []byte) bool {
		switch field {
		case fieldDocID:
			message.ID, fieldErr = uuid.ParseBytes(value)
		case fieldDocSender:
			message.SenderID = domain.PartyID(value)
		case fieldDocReceiver:
			message.ReceiverID = domain.PartyID(value)
		case fieldDocBody:
			message.Body = string(value)
		case fieldDocTimestamp:
			var nanos int64
			nanos, fieldErr = strconv.ParseInt(string(value), 10, 64)
			message.Timestamp = time.Unix(0, nanos).UTC()
		case fieldDocSeq:
			message.Seq, fieldErr = strconv.ParseUint(string(value), 10, 64)
		}
		return fieldErr == nil
	})
	if err != nil {
		return domain.Message{}, err
	}
	return message, fieldErr
}
