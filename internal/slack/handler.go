package slack

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/shubh-37/ideaflow/internal/linear"
	"github.com/shubh-37/ideaflow/internal/models"
	"github.com/shubh-37/ideaflow/internal/session"
)

// SavedIdeaStore bookmarks ideas per Slack user.
type SavedIdeaStore interface {
	Save(ctx context.Context, saved *models.SavedIdea) error
	ListBy(ctx context.Context, savedBy string) ([]*models.SavedIdea, error)
}

// HistoryStore reads a channel's past searches.
type HistoryStore interface {
	BySession(ctx context.Context, sessionID string, limit int) ([]*models.HistoryItem, error)
}

// IdeaExporter files an idea somewhere outside Slack.
type IdeaExporter interface {
	ExportIdea(ctx context.Context, topic string, idea models.Idea, analysis *models.IdeaAnalysis) (*linear.Issue, error)
}

// CommandHandler turns Slack commands and button presses into session
// transitions, one session per channel. Saved ideas, history and export are
// optional and may be nil.
type CommandHandler struct {
	client   Messenger
	sessions *session.Manager
	saved    SavedIdeaStore
	history  HistoryStore
	exporter IdeaExporter
	logger   *zap.Logger
}

func NewCommandHandler(
	client Messenger,
	sessions *session.Manager,
	saved SavedIdeaStore,
	history HistoryStore,
	exporter IdeaExporter,
	logger *zap.Logger,
) *CommandHandler {
	return &CommandHandler{
		client:   client,
		sessions: sessions,
		saved:    saved,
		history:  history,
		exporter: exporter,
		logger:   logger,
	}
}

// HandleCommand runs a text command from a mention, DM or slash command.
func (h *CommandHandler) HandleCommand(ctx context.Context, channelID, userID, text string) error {
	text = strings.TrimSpace(text)
	word, rest, _ := strings.Cut(text, " ")

	switch strings.ToLower(word) {
	case "", "help":
		return h.client.PostText(ctx, channelID, helpText)
	case "reset", "start":
		return h.handleReset(ctx, channelID)
	case "history":
		return h.handleHistory(ctx, channelID)
	case "saved":
		return h.handleSaved(ctx, channelID, userID)
	case "ideas", "search":
		return h.handleSearchText(ctx, channelID, rest)
	default:
		return h.handleSearchText(ctx, channelID, text)
	}
}

// HandleAction dispatches a block-kit button press.
func (h *CommandHandler) HandleAction(ctx context.Context, channelID, userID string, action *slack.BlockAction) error {
	h.logger.Debug("Block action", zap.String("action", action.ActionID), zap.String("channel", channelID))

	switch {
	case action.ActionID == actionSelectIdea:
		return h.handleSelect(ctx, channelID, action.Value)
	case action.ActionID == actionCloseDetail:
		return h.handleClose(ctx, channelID)
	case strings.HasPrefix(action.ActionID, actionExploreRelated):
		return h.handleExplore(ctx, channelID, action.Value)
	case strings.HasPrefix(action.ActionID, actionTrending):
		c := h.sessions.Get(channelID)
		return h.runSearch(ctx, channelID, action.Value, c.Snapshot().Count)
	case action.ActionID == actionSaveIdea:
		return h.handleSave(ctx, channelID, userID, action.Value)
	case action.ActionID == actionExportIdea:
		return h.handleExport(ctx, channelID, action.Value)
	case action.ActionID == actionReset:
		return h.handleReset(ctx, channelID)
	}

	h.logger.Warn("⚠️ Unknown block action", zap.String("action", action.ActionID))
	return nil
}

// parseSearch splits "Sustainable Coffee 6" into topic and count. A trailing
// number is the count only when it is an allowed one, so "Windows 11" stays a
// topic. count is zero when the text carries none.
func parseSearch(text string) (topic string, count int) {
	fields := strings.Fields(text)
	if len(fields) > 1 {
		if n, err := strconv.Atoi(fields[len(fields)-1]); err == nil && models.ValidIdeaCount(n) {
			return strings.Join(fields[:len(fields)-1], " "), n
		}
	}
	return strings.Join(fields, " "), 0
}

func (h *CommandHandler) handleSearchText(ctx context.Context, channelID, text string) error {
	topic, count := parseSearch(text)
	if topic == "" {
		return h.client.PostText(ctx, channelID, "Please provide a topic: `ideas [your topic] [3|6|9|12]`")
	}
	if count == 0 {
		count = h.sessions.Get(channelID).Snapshot().Count
	}
	return h.runSearch(ctx, channelID, topic, count)
}

func (h *CommandHandler) runSearch(ctx context.Context, channelID, topic string, count int) error {
	c := h.sessions.Get(channelID)

	if err := h.client.PostText(ctx, channelID, fmt.Sprintf("✨ Generating %d ideas for *%s*... This may take a moment.", count, escape(topic))); err != nil {
		h.logger.Warn("⚠️ Failed to send progress message", zap.Error(err))
	}

	if err := c.Search(ctx, topic, count); err != nil {
		if errors.Is(err, session.ErrInvalidCount) {
			return h.client.PostText(ctx, channelID, "❌ Idea count must be 3, 6, 9 or 12")
		}
		return err
	}

	return h.postResults(ctx, channelID, c.Snapshot(), topic)
}

// postResults posts the browsing view unless a newer search or a reset has
// overtaken the one that just finished.
func (h *CommandHandler) postResults(ctx context.Context, channelID string, snap session.Snapshot, topic string) error {
	if snap.Loading || snap.View == session.Landing || snap.Topic != strings.TrimSpace(topic) {
		h.logger.Debug("Skipping superseded results", zap.String("topic", topic))
		return nil
	}
	return h.client.PostBlocks(ctx, channelID, fmt.Sprintf("Found %d ideas for %s", len(snap.Ideas), snap.Topic), IdeaCardBlocks(snap))
}

func (h *CommandHandler) handleSelect(ctx context.Context, channelID, ideaID string) error {
	c := h.sessions.Get(channelID)

	idea, ok := c.Idea(ideaID)
	if !ok {
		return h.client.PostText(ctx, channelID, "⌛ That idea is from an older search. Pick one from the latest results.")
	}
	if c.Snapshot().View != session.Browsing {
		return h.client.PostText(ctx, channelID, "Close the current deep dive first with ⬅️ Back to results.")
	}

	if err := h.client.PostText(ctx, channelID, fmt.Sprintf("🔬 Digging into *%s*...", escape(idea.Title))); err != nil {
		h.logger.Warn("⚠️ Failed to send progress message", zap.Error(err))
	}

	if err := c.SelectIdea(ctx, ideaID); err != nil {
		if errors.Is(err, session.ErrNotBrowsing) {
			return h.client.PostText(ctx, channelID, "Close the current deep dive first with ⬅️ Back to results.")
		}
		if errors.Is(err, session.ErrUnknownIdea) {
			return h.client.PostText(ctx, channelID, "⌛ That idea is from an older search. Pick one from the latest results.")
		}
		return err
	}

	detail := c.Snapshot().Detail
	if detail == nil || detail.Idea.ID != ideaID || detail.Loading {
		return nil
	}

	if err := h.client.PostBlocks(ctx, channelID, idea.Title, DetailBlocks(detail, h.exporter != nil)); err != nil {
		return err
	}

	if detail.Illustration != "" {
		data, ext, err := decodeDataURI(detail.Illustration)
		if err != nil {
			h.logger.Warn("⚠️ Unusable illustration", zap.Error(err))
			return nil
		}
		if err := h.client.UploadImage(ctx, channelID, idea.Title, data, "idea."+ext); err != nil {
			h.logger.Warn("⚠️ Failed to upload illustration", zap.Error(err))
		}
	}
	return nil
}

func (h *CommandHandler) handleClose(ctx context.Context, channelID string) error {
	c := h.sessions.Get(channelID)
	c.CloseDetail()

	snap := c.Snapshot()
	if snap.View != session.Browsing {
		return nil
	}
	return h.client.PostBlocks(ctx, channelID, "Back to results", IdeaCardBlocks(snap))
}

func (h *CommandHandler) handleExplore(ctx context.Context, channelID, topic string) error {
	c := h.sessions.Get(channelID)

	if err := h.client.PostText(ctx, channelID, fmt.Sprintf("🧭 Exploring *%s*...", escape(topic))); err != nil {
		h.logger.Warn("⚠️ Failed to send progress message", zap.Error(err))
	}

	if err := c.ExploreRelated(ctx, topic); err != nil {
		return err
	}
	return h.postResults(ctx, channelID, c.Snapshot(), topic)
}

func (h *CommandHandler) handleReset(ctx context.Context, channelID string) error {
	h.sessions.Get(channelID).Reset()
	return h.client.PostBlocks(ctx, channelID, "Start a new search", LandingBlocks())
}

func (h *CommandHandler) handleSave(ctx context.Context, channelID, userID, ideaID string) error {
	if h.saved == nil {
		return h.client.PostText(ctx, channelID, "Saving ideas needs a database. Set DATABASE_URL to enable it.")
	}

	c := h.sessions.Get(channelID)
	idea, ok := c.Idea(ideaID)
	if !ok {
		return h.client.PostText(ctx, channelID, "⌛ That idea is no longer in the current results.")
	}

	if err := h.saved.Save(ctx, models.NewSavedIdea(idea, c.Snapshot().Topic, userID)); err != nil {
		h.logger.Error("❌ Failed to save idea", zap.Error(err))
		return h.client.PostText(ctx, channelID, "❌ Failed to save idea. Please try again.")
	}

	return h.client.PostText(ctx, channelID, fmt.Sprintf("⭐ Saved *%s*. Use `saved` to see your list.", escape(idea.Title)))
}

func (h *CommandHandler) handleExport(ctx context.Context, channelID, ideaID string) error {
	if h.exporter == nil {
		return h.client.PostText(ctx, channelID, "Linear export is not configured.")
	}

	c := h.sessions.Get(channelID)
	idea, ok := c.Idea(ideaID)
	if !ok {
		return h.client.PostText(ctx, channelID, "⌛ That idea is no longer in the current results.")
	}

	snap := c.Snapshot()
	var analysis *models.IdeaAnalysis
	if snap.Detail != nil && snap.Detail.Idea.ID == ideaID {
		analysis = snap.Detail.Analysis
	}

	issue, err := h.exporter.ExportIdea(ctx, snap.Topic, idea, analysis)
	if err != nil {
		h.logger.Error("❌ Failed to export idea", zap.Error(err))
		return h.client.PostText(ctx, channelID, "❌ Failed to send idea to Linear. Please try again.")
	}

	return h.client.PostText(ctx, channelID, fmt.Sprintf("📋 Created <%s|%s> for *%s*", issue.URL, issue.Identifier, escape(idea.Title)))
}

func (h *CommandHandler) handleHistory(ctx context.Context, channelID string) error {
	if h.history == nil {
		return h.client.PostText(ctx, channelID, "Search history needs a database. Set DATABASE_URL to enable it.")
	}

	items, err := h.history.BySession(ctx, channelID, 10)
	if err != nil {
		h.logger.Error("❌ Failed to load history", zap.Error(err))
		return h.client.PostText(ctx, channelID, "❌ Failed to fetch history")
	}
	return h.client.PostText(ctx, channelID, historyText(items))
}

func (h *CommandHandler) handleSaved(ctx context.Context, channelID, userID string) error {
	if h.saved == nil {
		return h.client.PostText(ctx, channelID, "Saving ideas needs a database. Set DATABASE_URL to enable it.")
	}

	ideas, err := h.saved.ListBy(ctx, userID)
	if err != nil {
		h.logger.Error("❌ Failed to load saved ideas", zap.Error(err))
		return h.client.PostText(ctx, channelID, "❌ Failed to fetch saved ideas")
	}
	return h.client.PostText(ctx, channelID, savedText(ideas))
}

// decodeDataURI unpacks "data:image/png;base64,..." into bytes and a file
// extension.
func decodeDataURI(uri string) ([]byte, string, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return nil, "", fmt.Errorf("not a base64 data URI")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}

	mime := strings.TrimSuffix(header, ";base64")
	ext := "png"
	if _, sub, ok := strings.Cut(mime, "/"); ok && sub != "" {
		ext = sub
	}
	return data, ext, nil
}
