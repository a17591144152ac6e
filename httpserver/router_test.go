package httpserver_test

import (
	"context"
	"direct-chat/api"
	"direct-chat/domain"
	"direct-chat/errors"
	"direct-chat/httpserver"
	"direct-chat/observability"
	"direct-chat/repositories"
	"direct-chat/services"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

type fixedStats struct{}

func (fixedStats) Snapshot(context.Context) observability.DeliveryStats {
	return observability.DeliveryStats{Stored: 7, Delivered: 5, Queued: 2}
}

// failingHistory simulates an unreachable store
type failingHistory struct{}

func (failingHistory) GetPage(context.Context, domain.PartyID, domain.PartyID, int) ([]domain.Message, error) {
	return nil, fmt.Errorf("%w: disk gone", errors.ErrPersistence)
}

func (failingHistory) GetLatest(context.Context, domain.PartyID, domain.PartyID) (*domain.Message, error) {
	return nil, fmt.Errorf("%w: disk gone", errors.ErrPersistence)
}

func (failingHistory) Search(context.Context, domain.PartyID, domain.PartyID, string) ([]domain.Message, error) {
	return nil, fmt.Errorf("%w: index gone", errors.ErrPersistence)
}

type httpFixture struct {
	server     *httptest.Server
	repository *repositories.MessageRepository
	index      *repositories.SearchIndex
}

func newHttpFixture(t *testing.T) httpFixture {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	repository, err := repositories.NewMessageRepository(db, log)
	require.NoError(t, err)
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)
	index := repositories.NewSearchIndex(writer, log)

	history := services.NewHistoryService(repository, index)
	server := httptest.NewServer(httpserver.NewRouter(log, history, fixedStats{}, nil))
	t.Cleanup(func() {
		server.Close()
		_ = writer.Close()
		_ = repository.Close()
		_ = db.Close()
	})
	return httpFixture{server: server, repository: repository, index: index}
}

func (f httpFixture) store(t *testing.T, sender, receiver domain.PartyID, body string, at time.Time) domain.Message {
	stored, err := f.repository.Append(context.Background(), domain.Message{
		SenderID: sender, ReceiverID: receiver, Body: body, Timestamp: at,
	})
	require.NoError(t, err)
	require.NoError(t, f.index.Index(context.Background(), stored))
	return stored
}

func getJSON(t *testing.T, url string, target any) int {
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	if target != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
	}
	return resp.StatusCode
}

func TestRouter_History_Pages(t *testing.T) {
	req := require.New(t)
	f := newHttpFixture(t)
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	// Given 25 messages between alice and bob
	for i := 0; i < 25; i++ {
		f.store(t, "alice", "bob", fmt.Sprintf("m%d", i), base.Add(time.Duration(i)*time.Minute))
	}

	testCases := []struct {
		name      string
		query     string
		size      int
		firstBody string
	}{
		{name: "default page", query: "", size: 20, firstBody: "m24"},
		{name: "second page", query: "?page=2", size: 5, firstBody: "m4"},
		{name: "non numeric page", query: "?page=abc", size: 20, firstBody: "m24"},
		{name: "out of range", query: "?page=9", size: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var messages []api.Message
			code := getJSON(t, f.server.URL+"/history/bob/alice"+tc.query, &messages)

			req.Equal(http.StatusOK, code)
			req.Len(messages, tc.size)
			req.NotNil(messages)
			if tc.size > 0 {
				req.Equal(tc.firstBody, messages[0].Body)
				req.Equal("alice", messages[0].SenderIdentity)
			}
		})
	}
}

func TestRouter_Latest(t *testing.T) {
	req := require.New(t)
	f := newHttpFixture(t)
	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	// Given nothing was exchanged, latest is an empty array
	resp, err := http.Get(f.server.URL + "/history/alice/bob/latest")
	req.NoError(err)
	body, err := io.ReadAll(resp.Body)
	req.NoError(err)
	_ = resp.Body.Close()
	req.Equal(http.StatusOK, resp.StatusCode)
	req.JSONEq(`[]`, string(body))

	// When two messages are stored
	f.store(t, "alice", "bob", "first", at)
	last := f.store(t, "bob", "alice", "second", at.Add(time.Second))

	// Then latest is the newest one, whichever order the parties are given in
	var latest api.Message
	req.Equal(http.StatusOK, getJSON(t, f.server.URL+"/history/alice/bob/latest", &latest))
	req.Equal(last.ID.String(), latest.ID)
	req.Equal("second", latest.Body)
	req.True(at.Add(time.Second).Equal(latest.Timestamp))
}

func TestRouter_Search(t *testing.T) {
	req := require.New(t)
	f := newHttpFixture(t)
	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	f.store(t, "alice", "bob", "lunch at noon?", at)
	f.store(t, "alice", "bob", "see you", at.Add(time.Minute))

	var found []api.Message
	req.Equal(http.StatusOK, getJSON(t, f.server.URL+"/history/alice/bob/search?q=lunch", &found))
	req.Len(found, 1)
	req.Equal("lunch at noon?", found[0].Body)

	var failure api.Error
	req.Equal(http.StatusBadRequest, getJSON(t, f.server.URL+"/history/alice/bob/search?q=", &failure))
	req.NotEmpty(failure.Error)
}

func TestRouter_Store_Failure_Is_500(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	server := httptest.NewServer(httpserver.NewRouter(log, failingHistory{}, fixedStats{}, nil))
	defer server.Close()

	for _, path := range []string{"/history/alice/bob", "/history/alice/bob/latest", "/history/alice/bob/search?q=x"} {
		var failure api.Error
		req.Equal(http.StatusInternalServerError, getJSON(t, server.URL+path, &failure))
		req.Contains(failure.Error, "persistence failure")
	}
}

func TestRouter_Health_And_Stats(t *testing.T) {
	req := require.New(t)
	f := newHttpFixture(t)

	resp, err := http.Get(f.server.URL + "/healthz")
	req.NoError(err)
	body, err := io.ReadAll(resp.Body)
	req.NoError(err)
	_ = resp.Body.Close()
	req.Equal("ok", string(body))

	var stats observability.DeliveryStats
	req.Equal(http.StatusOK, getJSON(t, f.server.URL+"/stats", &stats))
	req.Equal(uint64(7), stats.Stored)
	req.Equal(uint64(2), stats.Queued)
}

func TestRouter_Identities_Are_Path_Unescaped(t *testing.T) {
	req := require.New(t)
	f := newHttpFixture(t)
	f.store(t, "team/alice", "bob", "hi", time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))

	var messages []api.Message
	req.Equal(http.StatusOK, getJSON(t, f.server.URL+"/history/team%2Falice/bob", &messages))
	req.Len(messages, 1)
	req.Equal("team/alice", messages[0].SenderIdentity)
}
