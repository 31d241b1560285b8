package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/shubh-37/ideaflow/internal/models"
	"github.com/shubh-37/ideaflow/internal/session"
)

// HistoryLister reads recent searches.
type HistoryLister interface {
	Recent(ctx context.Context, limit int) ([]*models.HistoryItem, error)
}

// Service is the JSON backend of the browser UI.
type Service struct {
	sessions *session.Manager
	history  HistoryLister
	timeout  time.Duration
	logger   *zap.Logger
}

// New creates the API service. history may be nil when persistence is off.
func New(sessions *session.Manager, history HistoryLister, timeout time.Duration, logger *zap.Logger) *Service {
	return &Service{
		sessions: sessions,
		history:  history,
		timeout:  timeout,
		logger:   logger,
	}
}

// RegisterHTTP mounts the API routes on r
func (s *Service) RegisterHTTP(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/trending", s.handleTrending)
		r.Get("/history", s.handleHistory)

		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleSnapshot)
			r.Post("/search", s.handleSearch)
			r.Post("/ideas/{ideaID}/select", s.handleSelect)
			r.Post("/detail/close", s.handleClose)
			r.Post("/explore", s.handleExplore)
			r.Post("/reset", s.handleReset)
		})
	})
}

type searchRequest struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// work detaches from the request so a dropped connection cannot land an
// empty result in the session; the configured timeout still applies.
func (s *Service) work(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(r.Context()), s.timeout)
}

func (s *Service) controller(r *http.Request) *session.Controller {
	return s.sessions.Get(chi.URLParam(r, "sessionID"))
}

func (s *Service) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sessions.Snapshot(chi.URLParam(r, "sessionID")))
}

func (s *Service) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	c := s.controller(r)
	if req.Count == 0 {
		req.Count = c.Snapshot().Count
	}

	ctx, cancel := s.work(r)
	defer cancel()

	if err := c.Search(ctx, req.Topic, req.Count); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c.Snapshot())
}

func (s *Service) handleSelect(w http.ResponseWriter, r *http.Request) {
	c := s.controller(r)

	ctx, cancel := s.work(r)
	defer cancel()

	if err := c.SelectIdea(ctx, chi.URLParam(r, "ideaID")); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c.Snapshot())
}

func (s *Service) handleClose(w http.ResponseWriter, r *http.Request) {
	c := s.controller(r)
	c.CloseDetail()
	writeJSON(w, http.StatusOK, c.Snapshot())
}

func (s *Service) handleExplore(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	c := s.controller(r)

	ctx, cancel := s.work(r)
	defer cancel()

	if err := c.ExploreRelated(ctx, req.Topic); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c.Snapshot())
}

func (s *Service) handleReset(w http.ResponseWriter, r *http.Request) {
	c := s.controller(r)
	c.Reset()
	writeJSON(w, http.StatusOK, c.Snapshot())
}

func (s *Service) handleTrending(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"topics": models.TrendingTopics,
		"counts": models.IdeaCounts,
	})
}

func (s *Service) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "search history is disabled"})
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	items, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("❌ Failed to load search history", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load history"})
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Service) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrInvalidCount):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrNotBrowsing):
		status = http.StatusConflict
	case errors.Is(err, session.ErrUnknownIdea):
		status = http.StatusNotFound
	default:
		s.logger.Error("❌ Request failed", zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
