package repositories

import (
	"context"
	"direct-chat/domain"
	"direct-chat/errors"
	"fmt"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *MessageRepository {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	repository, err := NewMessageRepository(db, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = repository.Close()
		_ = db.Close()
	})
	return repository
}

func message(sender, receiver domain.PartyID, body string, at time.Time) domain.Message {
	return domain.Message{SenderID: sender, ReceiverID: receiver, Body: body, Timestamp: at}
}

func Test_Append_Then_Latest_Is_Visible(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)
	ctx := context.Background()

	// Given a message appended from alice to bob
	stored, err := repository.Append(ctx, message("alice", "bob", "hi", time.Time{}))
	req.NoError(err)
	req.NotEqual(domain.Message{}.ID, stored.ID)
	req.False(stored.Timestamp.IsZero())

	// When the latest message is fetched in either direction
	latest, err := repository.QueryLatest(ctx, "alice", "bob")
	req.NoError(err)
	reversed, err := repository.QueryLatest(ctx, "bob", "alice")
	req.NoError(err)

	// Then it is the appended one
	req.NotNil(latest)
	req.Equal(stored, *latest)
	req.Equal(stored, *reversed)
}

func Test_Latest_Of_Empty_Conversation_Is_Nil(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)

	latest, err := repository.QueryLatest(context.Background(), "alice", "carol")
	req.NoError(err)
	req.Nil(latest)
}

func Test_Append_Rejects_Missing_Fields(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)
	ctx := context.Background()

	tests := []domain.Message{
		message("", "bob", "hi", time.Time{}),
		message("alice", "", "hi", time.Time{}),
		message("alice", "bob", "", time.Time{}),
	}
	for _, m := range tests {
		_, err := repository.Append(ctx, m)
		req.ErrorIs(err, errors.ErrPersistence)
	}

	page, err := repository.QueryPage(ctx, "alice", "bob", 1, 20)
	req.NoError(err)
	req.Empty(page)
}

func Test_Append_Fails_When_Store_Closed(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	repository, err := NewMessageRepository(db, slog.Default())
	req.NoError(err)

	// Given the database is gone
	req.NoError(db.Close())

	// When appending
	_, err = repository.Append(context.Background(), message("alice", "bob", "hi", time.Time{}))

	// Then the write is reported as not saved
	req.ErrorIs(err, errors.ErrPersistence)
}

func Test_Append_Fails_When_Context_Canceled(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repository.Append(ctx, message("alice", "bob", "hi", time.Time{}))
	req.ErrorIs(err, errors.ErrPersistence)

	latest, err := repository.QueryLatest(context.Background(), "alice", "bob")
	req.NoError(err)
	req.Nil(latest)
}

func Test_QueryPage_Newest_First_And_Paginated(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)
	ctx := context.Background()
	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	// Given 25 messages alternating direction between alice and bob
	for i := 0; i < 25; i++ {
		sender, receiver := domain.PartyID("alice"), domain.PartyID("bob")
		if i%2 == 1 {
			sender, receiver = receiver, sender
		}
		_, err := repository.Append(ctx, message(sender, receiver, fmt.Sprintf("message %d", i), at.Add(time.Duration(i)*time.Second)))
		req.NoError(err)
	}
	// And noise in another conversation
	_, err := repository.Append(ctx, message("alice", "carol", "unrelated", at.Add(time.Hour)))
	req.NoError(err)

	// When both pages are read
	first, err := repository.QueryPage(ctx, "alice", "bob", 1, 20)
	req.NoError(err)
	second, err := repository.QueryPage(ctx, "alice", "bob", 2, 20)
	req.NoError(err)

	// Then the first holds the 20 newest and the second the 5 oldest
	req.Len(first, 20)
	req.Len(second, 5)
	req.Equal("message 24", first[0].Body)
	req.Equal("message 0", second[4].Body)
	for i := 1; i < len(first); i++ {
		req.False(first[i].Timestamp.After(first[i-1].Timestamp))
	}
	req.False(second[0].Timestamp.After(first[len(first)-1].Timestamp))
}

func Test_QueryPage_Out_Of_Range_Is_Empty(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)
	ctx := context.Background()

	_, err := repository.Append(ctx, message("alice", "bob", "hi", time.Time{}))
	req.NoError(err)

	page, err := repository.QueryPage(ctx, "alice", "bob", 3, 20)
	req.NoError(err)
	req.NotNil(page)
	req.Empty(page)

	// A page whose offset does not fit in an int is past the end too
	page, err = repository.QueryPage(ctx, "alice", "bob", 461168601842738792, 20)
	req.NoError(err)
	req.NotNil(page)
	req.Empty(page)

	page, err = repository.QueryPage(ctx, "alice", "bob", math.MaxInt, 1)
	req.NoError(err)
	req.Empty(page)
}

func Test_Append_Rejects_Timestamp_Outside_Encodable_Range(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)
	ctx := context.Background()

	tests := []time.Time{
		time.Date(1969, 12, 31, 23, 59, 59, 0, time.UTC),
		time.Date(1500, 1, 1, 0, 0, 0, 0, time.UTC),
		domain.MaxTimestamp.Add(time.Nanosecond),
		time.Date(2600, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, at := range tests {
		_, err := repository.Append(ctx, message("alice", "bob", "out of range", at))
		req.ErrorIs(err, errors.ErrPersistence, at.String())
	}

	page, err := repository.QueryPage(ctx, "alice", "bob", 1, 20)
	req.NoError(err)
	req.Empty(page)
}

func Test_Append_Keeps_Timestamps_At_Range_Bounds(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)
	ctx := context.Background()

	// Given messages stamped at both ends of the encodable range
	oldest, err := repository.Append(ctx, message("alice", "bob", "oldest", domain.MinTimestamp))
	req.NoError(err)
	newest, err := repository.Append(ctx, message("alice", "bob", "newest", domain.MaxTimestamp))
	req.NoError(err)
	_, err = repository.Append(ctx, message("alice", "bob", "now", time.Time{}))
	req.NoError(err)

	// When reading the conversation back
	page, err := repository.QueryPage(ctx, "alice", "bob", 1, 20)
	req.NoError(err)

	// Then the stored timestamps are the reported ones and order is preserved
	req.Len(page, 3)
	req.Equal("newest", page[0].Body)
	req.True(newest.Timestamp.Equal(page[0].Timestamp))
	req.Equal("now", page[1].Body)
	req.Equal("oldest", page[2].Body)
	req.True(oldest.Timestamp.Equal(page[2].Timestamp))
}

func Test_QueryPage_Below_One_Is_First_Page(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)
	ctx := context.Background()

	_, err := repository.Append(ctx, message("alice", "bob", "hi", time.Time{}))
	req.NoError(err)

	zero, err := repository.QueryPage(ctx, "alice", "bob", 0, 20)
	req.NoError(err)
	negative, err := repository.QueryPage(ctx, "alice", "bob", -4, 20)
	req.NoError(err)
	first, err := repository.QueryPage(ctx, "alice", "bob", 1, 20)
	req.NoError(err)

	req.Len(first, 1)
	req.Equal(first, zero)
	req.Equal(first, negative)
}

func Test_QueryPage_Ties_Are_Stable_By_Insertion(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)
	ctx := context.Background()
	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	// Given three messages sharing one timestamp
	for _, body := range []string{"one", "two", "three"} {
		_, err := repository.Append(ctx, message("alice", "bob", body, at))
		req.NoError(err)
	}

	// When queried twice
	page, err := repository.QueryPage(ctx, "alice", "bob", 1, 20)
	req.NoError(err)
	again, err := repository.QueryPage(ctx, "bob", "alice", 1, 20)
	req.NoError(err)

	// Then the latest insertion comes first and results are identical
	req.Equal([]string{"three", "two", "one"}, []string{page[0].Body, page[1].Body, page[2].Body})
	req.Equal(page, again)
}

func Test_Sequential_Appends_Keep_Order(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)
	ctx := context.Background()

	m1, err := repository.Append(ctx, message("alice", "bob", "M1", time.Time{}))
	req.NoError(err)
	m2, err := repository.Append(ctx, message("alice", "carol", "M2", time.Time{}))
	req.NoError(err)

	req.Less(m1.Seq, m2.Seq)
	req.False(m2.Timestamp.Before(m1.Timestamp))
}

func Test_Identities_With_Separator_Do_Not_Collide(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)
	ctx := context.Background()

	// "a:b" + "c" and "a" + "b:c" would share a naive key prefix
	_, err := repository.Append(ctx, message("a:b", "c", "first", time.Time{}))
	req.NoError(err)
	_, err = repository.Append(ctx, message("a", "b:c", "second", time.Time{}))
	req.NoError(err)

	page, err := repository.QueryPage(ctx, "a:b", "c", 1, 20)
	req.NoError(err)
	req.Len(page, 1)
	req.Equal("first", page[0].Body)
}

func Test_Codec_Keeps_All_Fields(t *testing.T) {
	req := require.New(t)
	repository := newTestRepository(t)

	stored, err := repository.Append(context.Background(),
		message("alice", "bob", "héllo ✓", time.Date(2026, 3, 4, 5, 6, 7, 891, time.UTC)))
	req.NoError(err)

	decoded, err := DecodeMessage(EncodeMessage(stored))
	req.NoError(err)
	req.Equal(stored, decoded)

	_, err = DecodeMessage([]byte{0xFF})
	req.Error(err)
}
