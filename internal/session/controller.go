package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shubh-37/ideaflow/internal/models"
)

type ViewState int

const (
	Landing ViewState = iota
	Browsing
	Detail
)

func (v ViewState) String() string {
	switch v {
	case Landing:
		return "landing"
	case Browsing:
		return "browsing"
	case Detail:
		return "detail"
	}
	return "unknown"
}

func (v ViewState) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

var (
	ErrInvalidCount = errors.New("idea count must be one of 3, 6, 9 or 12")
	ErrNotBrowsing  = errors.New("no result list to select from")
	ErrUnknownIdea  = errors.New("idea is not in the current results")
	ErrNoIdeas      = errors.New("no ideas came back for this topic")
)

// Orchestrator is what the controller needs from the idea agent. Every
// method reports failure as an empty or absent value.
type Orchestrator interface {
	GenerateIdeas(ctx context.Context, topic string, count int) []models.Idea
	AnalyzeIdea(ctx context.Context, idea models.Idea) *models.IdeaAnalysis
	RelatedTopics(ctx context.Context, ideaTitle string) []string
	GenerateIllustration(ctx context.Context, ideaTitle, description string) (string, bool)
}

// HistoryRecorder stores completed searches.
type HistoryRecorder interface {
	Record(ctx context.Context, item *models.HistoryItem) error
}

// IdeaDetail is the drill-down for the selected idea.
type IdeaDetail struct {
	Idea          models.Idea          `json:"idea"`
	Analysis      *models.IdeaAnalysis `json:"analysis,omitempty"`
	RelatedTopics []string             `json:"relatedTopics"`
	Illustration  string               `json:"illustration,omitempty"`
	Loading       bool                 `json:"loading"`
}

// Snapshot is a point-in-time view of a session. Ideas is shared with the
// controller and must not be modified.
type Snapshot struct {
	ID           string        `json:"id"`
	View         ViewState     `json:"view"`
	Topic        string        `json:"topic"`
	PendingTopic string        `json:"pendingTopic,omitempty"`
	Count        int           `json:"count"`
	Ideas        []models.Idea `json:"ideas"`
	Loading      bool          `json:"loading"`
	LastError    string        `json:"lastError,omitempty"`
	Detail       *IdeaDetail   `json:"detail,omitempty"`
}

// Controller owns one session's view state. All mutation goes through its
// transition methods. The lock is never held across a call to the
// orchestrator; ordering between overlapping requests comes from sequence
// numbers, and a completion whose number is no longer the latest is dropped.
type Controller struct {
	id      string
	orch    Orchestrator
	history HistoryRecorder
	logger  *zap.Logger

	mu           sync.Mutex
	view         ViewState
	topic        string
	pendingTopic string
	count        int
	ideas        []models.Idea
	loading      bool
	lastErr      error
	detail       *IdeaDetail
	searchSeq    uint64
	detailSeq    uint64
}

func NewController(id string, orch Orchestrator, history HistoryRecorder, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		id:      id,
		orch:    orch,
		history: history,
		logger:  logger.With(zap.String("session", id)),
		view:    Landing,
		count:   models.DefaultIdeaCount,
		ideas:   []models.Idea{},
	}
}

func (c *Controller) ID() string {
	return c.id
}

// Search replaces the result list with ideas for topic. A blank topic is
// ignored. Previous results stay visible until this search completes, and
// the call returns once it has, whether or not a later search superseded it.
func (c *Controller) Search(ctx context.Context, topic string, count int) error {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil
	}
	if !models.ValidIdeaCount(count) {
		return ErrInvalidCount
	}

	c.mu.Lock()
	c.searchSeq++
	seq := c.searchSeq
	c.loading = true
	c.pendingTopic = topic
	c.count = count
	c.mu.Unlock()

	c.logger.Info("🔍 Search started", zap.String("topic", topic), zap.Int("count", count), zap.Uint64("seq", seq))

	ideas := c.orch.GenerateIdeas(ctx, topic, count)
	if ideas == nil {
		ideas = []models.Idea{}
	}

	c.mu.Lock()
	if seq != c.searchSeq {
		c.mu.Unlock()
		c.logger.Debug("Discarding stale search results", zap.String("topic", topic), zap.Uint64("seq", seq))
		return nil
	}
	c.topic = topic
	c.pendingTopic = ""
	c.ideas = ideas
	c.loading = false
	c.lastErr = nil
	if len(ideas) == 0 {
		c.lastErr = ErrNoIdeas
	}
	if c.view != Detail {
		c.view = Browsing
	}
	c.mu.Unlock()

	c.logger.Info("✅ Search completed", zap.String("topic", topic), zap.Int("ideas", len(ideas)))

	if c.history != nil {
		if err := c.history.Record(ctx, models.NewHistoryItem(c.id, topic, count)); err != nil {
			c.logger.Warn("⚠️ Failed to record search history", zap.Error(err))
		}
	}

	return nil
}

// SelectIdea opens the detail view for an idea from the current results and
// loads its analysis, related topics and illustration in parallel.
func (c *Controller) SelectIdea(ctx context.Context, ideaID string) error {
	c.mu.Lock()
	if c.view != Browsing {
		c.mu.Unlock()
		return ErrNotBrowsing
	}
	idea, ok := c.findIdea(ideaID)
	if !ok {
		c.mu.Unlock()
		return ErrUnknownIdea
	}
	c.detailSeq++
	seq := c.detailSeq
	c.view = Detail
	c.detail = &IdeaDetail{Idea: idea, RelatedTopics: []string{}, Loading: true}
	c.mu.Unlock()

	c.logger.Info("🔎 Idea selected", zap.String("idea", idea.Title))

	var (
		analysis     *models.IdeaAnalysis
		related      []string
		illustration string
	)

	// Each branch swallows its own failure, so the group never errors.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		analysis = c.orch.AnalyzeIdea(gctx, idea)
		return nil
	})
	g.Go(func() error {
		related = c.orch.RelatedTopics(gctx, idea.Title)
		return nil
	})
	g.Go(func() error {
		if uri, ok := c.orch.GenerateIllustration(gctx, idea.Title, idea.ShortDescription); ok {
			illustration = uri
		}
		return nil
	})
	_ = g.Wait()

	if related == nil {
		related = []string{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.detailSeq || c.view != Detail {
		c.logger.Debug("Discarding stale idea detail", zap.String("idea", idea.Title))
		return nil
	}
	c.detail = &IdeaDetail{
		Idea:          idea,
		Analysis:      analysis,
		RelatedTopics: related,
		Illustration:  illustration,
	}
	return nil
}

// CloseDetail returns to the result list it was opened from.
func (c *Controller) CloseDetail() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeDetailLocked()
}

func (c *Controller) closeDetailLocked() {
	if c.view != Detail {
		return
	}
	c.detailSeq++
	c.detail = nil
	c.view = Browsing
}

// ExploreRelated closes the detail view and searches for topic with the
// session's current idea count.
func (c *Controller) ExploreRelated(ctx context.Context, topic string) error {
	c.mu.Lock()
	c.closeDetailLocked()
	count := c.count
	c.mu.Unlock()

	return c.Search(ctx, topic, count)
}

// Reset returns to the landing view and invalidates every pending request.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.searchSeq++
	c.detailSeq++
	c.view = Landing
	c.topic = ""
	c.pendingTopic = ""
	c.ideas = []models.Idea{}
	c.loading = false
	c.lastErr = nil
	c.detail = nil

	c.logger.Info("🔄 Session reset")
}

// Idea looks up an idea in the current results.
func (c *Controller) Idea(ideaID string) (models.Idea, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.findIdea(ideaID)
}

func (c *Controller) findIdea(ideaID string) (models.Idea, bool) {
	for _, idea := range c.ideas {
		if idea.ID == ideaID {
			return idea, true
		}
	}
	return models.Idea{}, false
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		ID:           c.id,
		View:         c.view,
		Topic:        c.topic,
		PendingTopic: c.pendingTopic,
		Count:        c.count,
		Ideas:        c.ideas,
		Loading:      c.loading,
	}
	if c.lastErr != nil {
		s.LastError = c.lastErr.Error()
	}
	if c.detail != nil {
		d := *c.detail
		s.Detail = &d
	}
	return s
}
