package services

import (
	"context"
	"direct-chat/domain"
	"direct-chat/errors"
	"direct-chat/mocks"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestHistoryService(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	repository := mocks.NewMockIMessageRepository(ctrl)
	index := mocks.NewMockISearchIndex(ctrl)
	svc := NewHistoryService(repository, index)

	t.Run("should query pages of twenty", func(t *testing.T) {
		req := require.New(t)
		expected := []domain.Message{{Body: "latest"}}
		repository.EXPECT().
			QueryPage(gomock.Any(), domain.PartyID("alice"), domain.PartyID("bob"), 2, PageSize).
			Return(expected, nil).
			Times(1)

		messages, err := svc.GetPage(ctx, "alice", "bob", 2)

		req.NoError(err)
		req.Equal(expected, messages)
	})

	t.Run("should treat a page below one as the first page", func(t *testing.T) {
		req := require.New(t)
		repository.EXPECT().
			QueryPage(gomock.Any(), gomock.Any(), gomock.Any(), 1, PageSize).
			Return([]domain.Message{}, nil).
			Times(1)

		messages, err := svc.GetPage(ctx, "alice", "bob", 0)

		req.NoError(err)
		req.Empty(messages)
	})

	t.Run("should return nil latest when nothing was exchanged", func(t *testing.T) {
		req := require.New(t)
		repository.EXPECT().QueryLatest(gomock.Any(), domain.PartyID("alice"), domain.PartyID("dave")).
			Return(nil, nil).
			Times(1)

		latest, err := svc.GetLatest(ctx, "alice", "dave")

		req.NoError(err)
		req.Nil(latest)
	})

	t.Run("should search with the default limit", func(t *testing.T) {
		req := require.New(t)
		index.EXPECT().Search(gomock.Any(), domain.PartyID("alice"), domain.PartyID("bob"), "lunch", SearchLimit).
			Return([]domain.Message{{Body: "lunch?"}}, nil).
			Times(1)

		messages, err := svc.Search(ctx, "alice", "bob", "  lunch ")

		req.NoError(err)
		req.Len(messages, 1)
	})

	t.Run("should refuse a blank search", func(t *testing.T) {
		req := require.New(t)
		index.EXPECT().Search(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		_, err := svc.Search(ctx, "alice", "bob", "   ")

		req.ErrorIs(err, errors.ErrMalformedRequest)
	})
}
