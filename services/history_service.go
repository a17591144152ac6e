package services

import (
	"context"
	"direct-chat/contract"
	"direct-chat/domain"
	"direct-chat/errors"
	"fmt"
	"strings"
)

const (
	// PageSize is fixed, clients only choose the page number
	PageSize    = 20
	SearchLimit = 20
)

type IHistoryService interface {
	GetPage(ctx context.Context, a, b domain.PartyID, page int) ([]domain.Message, error)
	GetLatest(ctx context.Context, a, b domain.PartyID) (*domain.Message, error)
	Search(ctx context.Context, a, b domain.PartyID, text string) ([]domain.Message, error)
}

var _ IHistoryService = (*HistoryService)(nil)

type HistoryService struct {
	repository contract.IMessageRepository
	index      contract.ISearchIndex
}

func NewHistoryService(repository contract.IMessageRepository, index contract.ISearchIndex) *HistoryService {
	return &HistoryService{repository: repository, index: index}
}

// GetPage returns page N (1-based) of the conversation, newest first.
// The conversation is symmetric: (a, b) and (b, a) read the same messages.
func (s *HistoryService) GetPage(ctx context.Context, a, b domain.PartyID, page int) ([]domain.Message, error) {
	if page < 1 {
		page = 1
	}
	return s.repository.QueryPage(ctx, a, b, page, PageSize)
}

// GetLatest returns nil when the parties never exchanged a message.
func (s *HistoryService) GetLatest(ctx context.Context, a, b domain.PartyID) (*domain.Message, error) {
	return s.repository.QueryLatest(ctx, a, b)
}

func (s *HistoryService) Search(ctx context.Context, a, b domain.PartyID, text string) ([]domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty search text", errors.ErrMalformedRequest)
	}
	return s.index.Search(ctx, a, b, text, SearchLimit)
}
