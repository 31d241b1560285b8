package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shubh-37/ideaflow/internal/models"
	"github.com/shubh-37/ideaflow/internal/session"
)

type stubOrchestrator struct{}

func (stubOrchestrator) GenerateIdeas(_ context.Context, topic string, count int) []models.Idea {
	ideas := make([]models.Idea, count)
	for i := range ideas {
		ideas[i] = models.Idea{ID: uuid.New().String(), Title: fmt.Sprintf("%s %d", topic, i+1), Tags: []string{"x"}, ImpactScore: 7, FeasibilityScore: 4}
	}
	return ideas
}

func (stubOrchestrator) AnalyzeIdea(context.Context, models.Idea) *models.IdeaAnalysis {
	return nil
}

func (stubOrchestrator) RelatedTopics(context.Context, string) []string {
	return []string{"Next One"}
}

func (stubOrchestrator) GenerateIllustration(context.Context, string, string) (string, bool) {
	return "", false
}

type stubHistory struct {
	items []*models.HistoryItem
	err   error
	limit int
}

func (h *stubHistory) Recent(_ context.Context, limit int) ([]*models.HistoryItem, error) {
	h.limit = limit
	return h.items, h.err
}

func newTestServer(t *testing.T, history HistoryLister) *httptest.Server {
	t.Helper()
	return newTestServerWith(t, session.NewManager(stubOrchestrator{}, nil, zap.NewNop()), history)
}

func newTestServerWith(t *testing.T, sessions *session.Manager, history HistoryLister) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	New(sessions, history, 5*time.Second, zap.NewNop()).RegisterHTTP(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

type snapshotBody struct {
	View   string        `json:"view"`
	Topic  string        `json:"topic"`
	Count  int           `json:"count"`
	Ideas  []models.Idea `json:"ideas"`
	Detail *struct {
		Idea          models.Idea `json:"idea"`
		RelatedTopics []string    `json:"relatedTopics"`
	} `json:"detail"`
}

func post(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	resp, err := http.Post(url, "application/json", &buf)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestSessionFlow(t *testing.T) {
	srv := newTestServer(t, nil)
	base := srv.URL + "/api/sessions/tab-1"

	resp, err := http.Get(base)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "landing", decode[snapshotBody](t, resp).View)

	resp = post(t, base+"/search", map[string]any{"topic": "Sustainable Coffee", "count": 6})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap := decode[snapshotBody](t, resp)
	assert.Equal(t, "browsing", snap.View)
	assert.Equal(t, "Sustainable Coffee", snap.Topic)
	require.Len(t, snap.Ideas, 6)

	resp = post(t, base+"/ideas/"+snap.Ideas[1].ID+"/select", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	detail := decode[snapshotBody](t, resp)
	assert.Equal(t, "detail", detail.View)
	require.NotNil(t, detail.Detail)
	assert.Equal(t, snap.Ideas[1].ID, detail.Detail.Idea.ID)
	assert.Equal(t, []string{"Next One"}, detail.Detail.RelatedTopics)

	resp = post(t, base+"/detail/close", nil)
	closed := decode[snapshotBody](t, resp)
	assert.Equal(t, "browsing", closed.View)
	assert.Equal(t, snap.Ideas, closed.Ideas)

	resp = post(t, base+"/explore", map[string]any{"topic": "Next One"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	explored := decode[snapshotBody](t, resp)
	assert.Equal(t, "Next One", explored.Topic)
	assert.Len(t, explored.Ideas, 6)

	resp = post(t, base+"/reset", nil)
	assert.Equal(t, "landing", decode[snapshotBody](t, resp).View)
}

func TestSnapshotReadLeavesNoSession(t *testing.T) {
	sessions := session.NewManager(stubOrchestrator{}, nil, zap.NewNop())
	srv := newTestServerWith(t, sessions, nil)

	for i := 0; i < 5; i++ {
		resp, err := http.Get(fmt.Sprintf("%s/api/sessions/tab-%d", srv.URL, i))
		require.NoError(t, err)
		assert.Equal(t, "landing", decode[snapshotBody](t, resp).View)
		resp.Body.Close()
	}
	assert.Equal(t, 0, sessions.Len())

	post(t, srv.URL+"/api/sessions/tab-0/search", map[string]any{"topic": "SaaS", "count": 3})
	assert.Equal(t, 1, sessions.Len())
}

func TestSearchDefaultsCount(t *testing.T) {
	srv := newTestServer(t, nil)

	resp := post(t, srv.URL+"/api/sessions/tab-2/search", map[string]any{"topic": "SaaS"})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[snapshotBody](t, resp).Ideas, models.DefaultIdeaCount)
}

func TestErrorStatuses(t *testing.T) {
	srv := newTestServer(t, nil)
	base := srv.URL + "/api/sessions/tab-3"

	resp := post(t, base+"/search", map[string]any{"topic": "SaaS", "count": 7})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err := http.Post(base+"/search", "application/json", bytes.NewBufferString("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post(t, base+"/ideas/whatever/select", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	post(t, base+"/search", map[string]any{"topic": "SaaS", "count": 3})
	resp = post(t, base+"/ideas/whatever/select", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTrending(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/api/trending")
	require.NoError(t, err)
	defer resp.Body.Close()

	body := decode[struct {
		Topics []string `json:"topics"`
		Counts []int    `json:"counts"`
	}](t, resp)
	assert.Equal(t, models.TrendingTopics, body.Topics)
	assert.Equal(t, models.IdeaCounts, body.Counts)
}

func TestHistory(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		srv := newTestServer(t, nil)
		resp, err := http.Get(srv.URL + "/api/history")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})

	t.Run("lists recent", func(t *testing.T) {
		h := &stubHistory{items: []*models.HistoryItem{{Topic: "Web3", IdeaCount: 3}}}
		srv := newTestServer(t, h)

		resp, err := http.Get(srv.URL + "/api/history?limit=5")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		items := decode[[]models.HistoryItem](t, resp)
		require.Len(t, items, 1)
		assert.Equal(t, "Web3", items[0].Topic)
		assert.Equal(t, 5, h.limit)
	})

	t.Run("bad limit", func(t *testing.T) {
		srv := newTestServer(t, &stubHistory{})
		resp, err := http.Get(srv.URL + "/api/history?limit=lots")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("store failure", func(t *testing.T) {
		srv := newTestServer(t, &stubHistory{err: errors.New("db down")})
		resp, err := http.Get(srv.URL + "/api/history")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}
