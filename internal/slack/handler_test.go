package slack

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shubh-37/ideaflow/internal/linear"
	"github.com/shubh-37/ideaflow/internal/models"
	"github.com/shubh-37/ideaflow/internal/session"
)

type upload struct {
	Title    string
	Data     []byte
	Filename string
}

type fakeMessenger struct {
	mu      sync.Mutex
	texts   []string
	blocks  [][]slack.Block
	uploads []upload
}

func (m *fakeMessenger) PostText(_ context.Context, _, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
	return nil
}

func (m *fakeMessenger) PostBlocks(_ context.Context, _, _ string, blocks []slack.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocks = append(m.blocks, blocks)
	return nil
}

func (m *fakeMessenger) UploadImage(_ context.Context, _, title string, data []byte, filename string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads = append(m.uploads, upload{Title: title, Data: data, Filename: filename})
	return nil
}

func (m *fakeMessenger) lastText() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.texts) == 0 {
		return ""
	}
	return m.texts[len(m.texts)-1]
}

func (m *fakeMessenger) lastBlocks() []slack.Block {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.blocks) == 0 {
		return nil
	}
	return m.blocks[len(m.blocks)-1]
}

type stubOrchestrator struct{}

func (stubOrchestrator) GenerateIdeas(_ context.Context, topic string, count int) []models.Idea {
	ideas := make([]models.Idea, count)
	for i := range ideas {
		ideas[i] = models.Idea{
			ID:               uuid.New().String(),
			Title:            fmt.Sprintf("%s %d", topic, i+1),
			ShortDescription: "An idea about " + topic,
			Tags:             []string{"alpha", "beta", "gamma", "delta"},
			Emoji:            "☕",
			ImpactScore:      8,
			FeasibilityScore: 6,
		}
	}
	return ideas
}

func (stubOrchestrator) AnalyzeIdea(context.Context, models.Idea) *models.IdeaAnalysis {
	return &models.IdeaAnalysis{
		TargetAudience:      []string{"Cafes"},
		RevenueModels:       []string{"Subscription"},
		MarketAnalysis:      models.MarketAnalysis{CompetitorCount: models.CompetitorHigh, DemandLevel: 80, GrowthPotential: 70, Difficulty: 30},
		NextSteps:           []string{"Interview roasters"},
		DetailedDescription: "A detailed plan.",
	}
}

func (stubOrchestrator) RelatedTopics(context.Context, string) []string {
	return []string{"Cold Brew", "Fair Trade", "Roasting", "Cafe POS"}
}

func (stubOrchestrator) GenerateIllustration(context.Context, string, string) (string, bool) {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png")), true
}

type fakeSavedStore struct {
	saved []*models.SavedIdea
}

func (s *fakeSavedStore) Save(_ context.Context, saved *models.SavedIdea) error {
	s.saved = append(s.saved, saved)
	return nil
}

func (s *fakeSavedStore) ListBy(_ context.Context, savedBy string) ([]*models.SavedIdea, error) {
	var out []*models.SavedIdea
	for _, saved := range s.saved {
		if saved.SavedBy == savedBy {
			out = append(out, saved)
		}
	}
	return out, nil
}

type fakeHistory struct {
	items []*models.HistoryItem
	err   error
}

func (h *fakeHistory) BySession(context.Context, string, int) ([]*models.HistoryItem, error) {
	return h.items, h.err
}

type fakeExporter struct {
	topic    string
	idea     models.Idea
	analysis *models.IdeaAnalysis
}

func (e *fakeExporter) ExportIdea(_ context.Context, topic string, idea models.Idea, analysis *models.IdeaAnalysis) (*linear.Issue, error) {
	e.topic, e.idea, e.analysis = topic, idea, analysis
	return &linear.Issue{Identifier: "IDEA-1", URL: "https://linear.app/i/IDEA-1"}, nil
}

type fixture struct {
	msg      *fakeMessenger
	sessions *session.Manager
	saved    *fakeSavedStore
	exporter *fakeExporter
	handler  *CommandHandler
}

func newFixture() *fixture {
	f := &fixture{
		msg:      &fakeMessenger{},
		sessions: session.NewManager(stubOrchestrator{}, nil, zap.NewNop()),
		saved:    &fakeSavedStore{},
		exporter: &fakeExporter{},
	}
	f.handler = NewCommandHandler(f.msg, f.sessions, f.saved, &fakeHistory{}, f.exporter, zap.NewNop())
	return f
}

// buttons collects every button in blocks by action ID.
func buttons(blocks []slack.Block) []*slack.ButtonBlockElement {
	var out []*slack.ButtonBlockElement
	for _, b := range blocks {
		switch blk := b.(type) {
		case *slack.SectionBlock:
			if blk.Accessory != nil && blk.Accessory.ButtonElement != nil {
				out = append(out, blk.Accessory.ButtonElement)
			}
		case *slack.ActionBlock:
			for _, el := range blk.Elements.ElementSet {
				if btn, ok := el.(*slack.ButtonBlockElement); ok {
					out = append(out, btn)
				}
			}
		}
	}
	return out
}

func buttonsWith(blocks []slack.Block, prefix string) []*slack.ButtonBlockElement {
	var out []*slack.ButtonBlockElement
	for _, b := range buttons(blocks) {
		if strings.HasPrefix(b.ActionID, prefix) {
			out = append(out, b)
		}
	}
	return out
}

func contextText(blocks []slack.Block) []string {
	var out []string
	for _, b := range blocks {
		if blk, ok := b.(*slack.ContextBlock); ok {
			for _, el := range blk.ContextElements.Elements {
				if txt, ok := el.(*slack.TextBlockObject); ok {
					out = append(out, txt.Text)
				}
			}
		}
	}
	return out
}

func press(t *testing.T, f *fixture, actionID, value string) {
	t.Helper()
	require.NoError(t, f.handler.HandleAction(context.Background(), "C1", "U1", &slack.BlockAction{ActionID: actionID, Value: value}))
}

func TestSearchCommandPostsCards(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.handler.HandleCommand(context.Background(), "C1", "U1", "ideas Sustainable Coffee 6"))

	require.Len(t, f.msg.texts, 1)
	assert.Contains(t, f.msg.texts[0], "Generating 6 ideas for *Sustainable Coffee*")

	cards := f.msg.lastBlocks()
	require.NotNil(t, cards)
	assert.Len(t, buttonsWith(cards, actionSelectIdea), 6)

	snap := f.sessions.Get("C1").Snapshot()
	assert.Equal(t, session.Browsing, snap.View)
	assert.Equal(t, "Sustainable Coffee", snap.Topic)

	var cardMeta []string
	for _, txt := range contextText(cards) {
		if strings.Contains(txt, "Impact") {
			cardMeta = append(cardMeta, txt)
		}
	}
	require.Len(t, cardMeta, 6)
	for _, meta := range cardMeta {
		assert.Contains(t, meta, "Impact *8/10*")
		assert.Contains(t, meta, "Feasibility *6/10*")
		assert.Contains(t, meta, "`gamma`")
		assert.NotContains(t, meta, "delta")
	}
}

func TestBareTopicUsesSessionCount(t *testing.T) {
	f := newFixture()

	require.NoError(t, f.handler.HandleCommand(context.Background(), "C1", "U1", "Drone Delivery"))

	snap := f.sessions.Get("C1").Snapshot()
	assert.Equal(t, "Drone Delivery", snap.Topic)
	assert.Len(t, snap.Ideas, models.DefaultIdeaCount)
}

func TestCommandMessages(t *testing.T) {
	ctx := context.Background()

	t.Run("help", func(t *testing.T) {
		f := newFixture()
		require.NoError(t, f.handler.HandleCommand(ctx, "C1", "U1", "help"))
		assert.Equal(t, helpText, f.msg.lastText())
	})

	t.Run("numeric topic suffix", func(t *testing.T) {
		f := newFixture()
		require.NoError(t, f.handler.HandleCommand(ctx, "C1", "U1", "ideas Windows 11"))
		snap := f.sessions.Get("C1").Snapshot()
		assert.Equal(t, session.Browsing, snap.View)
		assert.Equal(t, "Windows 11", snap.Topic)
		assert.Len(t, snap.Ideas, models.DefaultIdeaCount)
	})

	t.Run("missing topic", func(t *testing.T) {
		f := newFixture()
		require.NoError(t, f.handler.HandleCommand(ctx, "C1", "U1", "ideas"))
		assert.Contains(t, f.msg.lastText(), "Please provide a topic")
	})

	t.Run("history", func(t *testing.T) {
		f := newFixture()
		f.handler.history = &fakeHistory{items: []*models.HistoryItem{models.NewHistoryItem("C1", "Web3", 3)}}
		require.NoError(t, f.handler.HandleCommand(ctx, "C1", "U1", "history"))
		assert.Contains(t, f.msg.lastText(), "1. Web3")
	})

	t.Run("history failure", func(t *testing.T) {
		f := newFixture()
		f.handler.history = &fakeHistory{err: errors.New("db down")}
		require.NoError(t, f.handler.HandleCommand(ctx, "C1", "U1", "history"))
		assert.Contains(t, f.msg.lastText(), "Failed to fetch history")
	})

	t.Run("history disabled", func(t *testing.T) {
		f := newFixture()
		f.handler.history = nil
		require.NoError(t, f.handler.HandleCommand(ctx, "C1", "U1", "history"))
		assert.Contains(t, f.msg.lastText(), "DATABASE_URL")
	})
}

func TestDeepDiveFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	require.NoError(t, f.handler.HandleCommand(ctx, "C1", "U1", "ideas Sustainable Coffee 3"))
	first := buttonsWith(f.msg.lastBlocks(), actionSelectIdea)[0]

	press(t, f, actionSelectIdea, first.Value)

	snap := f.sessions.Get("C1").Snapshot()
	assert.Equal(t, session.Detail, snap.View)

	detail := f.msg.lastBlocks()
	related := buttonsWith(detail, actionExploreRelated)
	require.Len(t, related, 4)
	assert.Equal(t, "Cold Brew", related[0].Value)
	assert.Len(t, buttonsWith(detail, actionExportIdea), 1)

	require.Len(t, f.msg.uploads, 1)
	assert.Equal(t, []byte("png"), f.msg.uploads[0].Data)
	assert.Equal(t, "idea.png", f.msg.uploads[0].Filename)

	t.Run("export carries the analysis", func(t *testing.T) {
		press(t, f, actionExportIdea, first.Value)
		assert.Contains(t, f.msg.lastText(), "IDEA-1")
		assert.Equal(t, "Sustainable Coffee", f.exporter.topic)
		require.NotNil(t, f.exporter.analysis)
		assert.Equal(t, "A detailed plan.", f.exporter.analysis.DetailedDescription)
	})

	t.Run("save", func(t *testing.T) {
		press(t, f, actionSaveIdea, first.Value)
		require.Len(t, f.saved.saved, 1)
		assert.Equal(t, "U1", f.saved.saved[0].SavedBy)
		assert.Equal(t, first.Value, f.saved.saved[0].ID)

		require.NoError(t, f.handler.HandleCommand(ctx, "C1", "U1", "saved"))
		assert.Contains(t, f.msg.lastText(), "Sustainable Coffee 1")
	})

	t.Run("back to results", func(t *testing.T) {
		press(t, f, actionCloseDetail, first.Value)
		assert.Equal(t, session.Browsing, f.sessions.Get("C1").Snapshot().View)
		assert.Len(t, buttonsWith(f.msg.lastBlocks(), actionSelectIdea), 3)
	})

	t.Run("explore related", func(t *testing.T) {
		press(t, f, actionSelectIdea, first.Value)
		press(t, f, actionExploreRelated+"_0", "Cold Brew")

		snap := f.sessions.Get("C1").Snapshot()
		assert.Equal(t, session.Browsing, snap.View)
		assert.Equal(t, "Cold Brew", snap.Topic)
		assert.Len(t, snap.Ideas, 3)
	})

	t.Run("stale idea", func(t *testing.T) {
		press(t, f, actionSelectIdea, first.Value)
		assert.Contains(t, f.msg.lastText(), "older search")
	})
}

func TestSelectWhileInDetailSkipsProgress(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.handler.HandleCommand(context.Background(), "C1", "U1", "ideas SaaS 3"))
	cards := buttonsWith(f.msg.lastBlocks(), actionSelectIdea)
	press(t, f, actionSelectIdea, cards[0].Value)

	before := len(f.msg.texts)
	press(t, f, actionSelectIdea, cards[1].Value)

	require.Len(t, f.msg.texts, before+1)
	assert.Contains(t, f.msg.lastText(), "Close the current deep dive first")
	assert.NotContains(t, f.msg.lastText(), "Digging into")
	assert.Equal(t, cards[0].Value, f.sessions.Get("C1").Snapshot().Detail.Idea.ID)
}

func TestResetAndTrending(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.handler.HandleCommand(context.Background(), "C1", "U1", "ideas SaaS 3"))

	press(t, f, actionReset, "reset")

	assert.Equal(t, session.Landing, f.sessions.Get("C1").Snapshot().View)
	trending := buttonsWith(f.msg.lastBlocks(), actionTrending)
	require.Len(t, trending, len(models.TrendingTopics))

	press(t, f, trending[1].ActionID, trending[1].Value)

	snap := f.sessions.Get("C1").Snapshot()
	assert.Equal(t, "EdTech", snap.Topic)
	assert.Len(t, snap.Ideas, 3)
}

func TestSaveWithoutStore(t *testing.T) {
	f := newFixture()
	f.handler.saved = nil
	require.NoError(t, f.handler.HandleCommand(context.Background(), "C1", "U1", "ideas SaaS 3"))
	id := buttonsWith(f.msg.lastBlocks(), actionSelectIdea)[0].Value

	press(t, f, actionSaveIdea, id)

	assert.Contains(t, f.msg.lastText(), "DATABASE_URL")
}

func TestDetailWithoutExporterHidesLinear(t *testing.T) {
	detail := &session.IdeaDetail{Idea: models.Idea{ID: "x", Title: "T"}}
	assert.Empty(t, buttonsWith(DetailBlocks(detail, false), actionExportIdea))
	assert.Len(t, buttonsWith(DetailBlocks(detail, true), actionExportIdea), 1)
}

func TestDetailBlocksFitBlockKitLimits(t *testing.T) {
	detail := &session.IdeaDetail{
		Idea: models.Idea{ID: "x", Emoji: "🚀", Title: strings.Repeat("Title ", 60)},
		Analysis: &models.IdeaAnalysis{
			DetailedDescription: strings.Repeat("a", 5000),
			NextSteps:           []string{strings.Repeat("step ", 800)},
		},
		RelatedTopics: []string{strings.Repeat("topic ", 40)},
	}

	blocks := DetailBlocks(detail, true)

	for _, b := range blocks {
		switch blk := b.(type) {
		case *slack.HeaderBlock:
			assert.LessOrEqual(t, utf8.RuneCountInString(blk.Text.Text), maxHeaderText)
		case *slack.SectionBlock:
			if blk.Text != nil {
				assert.LessOrEqual(t, utf8.RuneCountInString(blk.Text.Text), maxSectionText)
			}
		}
	}
	related := buttonsWith(blocks, actionExploreRelated)
	require.Len(t, related, 1)
	assert.LessOrEqual(t, utf8.RuneCountInString(related[0].Text.Text), maxButtonLabel)
	assert.True(t, strings.HasSuffix(related[0].Text.Text, "…"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "caf…", truncate("café au lait", 4))
}

func TestEmptyResultsCard(t *testing.T) {
	blocks := IdeaCardBlocks(session.Snapshot{Topic: "Nothing", Ideas: []models.Idea{}})
	assert.Contains(t, contextText(blocks), "Found 0 innovative concepts")
	assert.Empty(t, buttonsWith(blocks, actionSelectIdea))
}

func TestParseSearch(t *testing.T) {
	tests := []struct {
		in    string
		topic string
		count int
	}{
		{"Sustainable Coffee 6", "Sustainable Coffee", 6},
		{"Sustainable Coffee", "Sustainable Coffee", 0},
		{"Web3", "Web3", 0},
		{"2048", "2048", 0},
		{"Top 10 gadgets 12", "Top 10 gadgets", 12},
		{"SaaS 5", "SaaS 5", 0},
		{"Windows 11", "Windows 11", 0},
		{"Industry 4", "Industry 4", 0},
		{"Top 100", "Top 100", 0},
		{"Industry 4 9", "Industry 4", 9},
		{"  spaced   out  ", "spaced out", 0},
	}
	for _, tt := range tests {
		topic, count := parseSearch(tt.in)
		assert.Equal(t, tt.topic, topic, tt.in)
		assert.Equal(t, tt.count, count, tt.in)
	}
}

func TestDecodeDataURI(t *testing.T) {
	data, ext, err := decodeDataURI("data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("jpg")))
	require.NoError(t, err)
	assert.Equal(t, []byte("jpg"), data)
	assert.Equal(t, "jpeg", ext)

	_, _, err = decodeDataURI("https://example.com/a.png")
	assert.Error(t, err)

	_, _, err = decodeDataURI("data:image/png;base64,@@@")
	assert.Error(t, err)
}

func TestEscape(t *testing.T) {
	assert.Equal(t, "R&amp;D &lt;fast&gt;", escape("R&D <fast>"))
}
