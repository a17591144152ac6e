// Package httpserver exposes history reads, stats and the WebSocket endpoint over HTTP.
package httpserver

import (
	"context"
	"direct-chat/api"
	"direct-chat/domain"
	"direct-chat/errors"
	"direct-chat/observability"
	"direct-chat/services"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type StatsProvider interface {
	Snapshot(ctx context.Context) observability.DeliveryStats
}

// JSONHandler wraps handlers returning an error, the error becomes {"error": ...}
type JSONHandler func(http.ResponseWriter, *http.Request) error

type Server struct {
	log     *slog.Logger
	history services.IHistoryService
	stats   StatsProvider
}

// NewRouter mounts every route. wsHandler may be nil when live connections are served elsewhere.
func NewRouter(log *slog.Logger, history services.IHistoryService, stats StatsProvider, wsHandler http.Handler) http.Handler {
	s := &Server{log: log, history: history, stats: stats}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/stats", s.json(s.getStats))
	r.Method(http.MethodGet, "/history/{partyA}/{partyB}", s.json(s.getPage))
	r.Method(http.MethodGet, "/history/{partyA}/{partyB}/latest", s.json(s.getLatest))
	r.Method(http.MethodGet, "/history/{partyA}/{partyB}/search", s.json(s.search))
	if wsHandler != nil {
		r.Handle("/ws", wsHandler)
	}
	return r
}

func (s *Server) json(h JSONHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := h(w, r); err != nil {
			code := errors.MapToHTTPStatus(err)
			if code >= http.StatusInternalServerError {
				s.log.Error("Request failed", "path", r.URL.Path, "error", err)
			}
			w.WriteHeader(code)
			_ = json.NewEncoder(w).Encode(api.Error{Error: err.Error()})
		}
	})
}

// getPage serves page N newest first. A missing or unreadable page is page 1.
func (s *Server) getPage(w http.ResponseWriter, r *http.Request) error {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	messages, err := s.history.GetPage(r.Context(), partyParam(r, "partyA"), partyParam(r, "partyB"), page)
	if err != nil {
		return err
	}
	return json.NewEncoder(w).Encode(api.FromMessages(messages))
}

// getLatest answers [] when the parties never talked.
func (s *Server) getLatest(w http.ResponseWriter, r *http.Request) error {
	latest, err := s.history.GetLatest(r.Context(), partyParam(r, "partyA"), partyParam(r, "partyB"))
	if err != nil {
		return err
	}
	if latest == nil {
		return json.NewEncoder(w).Encode([]api.Message{})
	}
	return json.NewEncoder(w).Encode(api.FromMessage(*latest))
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) error {
	messages, err := s.history.Search(r.Context(), partyParam(r, "partyA"), partyParam(r, "partyB"),
		r.URL.Query().Get("q"))
	if err != nil {
		return err
	}
	return json.NewEncoder(w).Encode(api.FromMessages(messages))
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) error {
	return json.NewEncoder(w).Encode(s.stats.Snapshot(r.Context()))
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}

// partyParam decodes a path segment, chi keeps it escaped when the raw path was needed.
func partyParam(r *http.Request, name string) domain.PartyID {
	value := chi.URLParam(r, name)
	if r.URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(value); err == nil {
			value = unescaped
		}
	}
	return domain.PartyID(value)
}
