package slack

import (
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"github.com/shubh-37/ideaflow/internal/models"
	"github.com/shubh-37/ideaflow/internal/session"
)

// Action IDs. Buttons sharing a block carry an index suffix, since Slack
// wants action IDs unique within a block.
const (
	actionSelectIdea     = "idea_select"
	actionCloseDetail    = "detail_close"
	actionExploreRelated = "explore_related"
	actionSaveIdea       = "idea_save"
	actionExportIdea     = "idea_export"
	actionReset          = "session_reset"
	actionTrending       = "search_trending"
)

// Block Kit limits, in characters.
const (
	maxHeaderText  = 150
	maxSectionText = 3000
	maxButtonLabel = 75
	maxButtonValue = 2000
)

var mrkdwnEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escape(s string) string {
	return mrkdwnEscaper.Replace(s)
}

// truncate cuts s to at most limit characters, marking the cut with an ellipsis.
func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}

func mrkdwn(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.MarkdownType, truncate(text, maxSectionText), false, false)
}

func plain(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.PlainTextType, text, true, false)
}

func button(actionID, value, label string, style slack.Style) *slack.ButtonBlockElement {
	b := slack.NewButtonBlockElement(actionID, truncate(value, maxButtonValue), plain(truncate(label, maxButtonLabel)))
	if style != "" {
		b.Style = style
	}
	return b
}

func scoreText(score float64, max int) string {
	return fmt.Sprintf("%g/%d", score, max)
}

// IdeaCardBlocks renders a browsing snapshot as a grid of cards: emoji and
// title, description, impact and feasibility, and up to three tags.
func IdeaCardBlocks(snap session.Snapshot) []slack.Block {
	blocks := []slack.Block{
		slack.NewSectionBlock(mrkdwn(fmt.Sprintf("*Results for \"%s\"*", escape(snap.Topic))), nil, nil),
		slack.NewContextBlock("", mrkdwn(fmt.Sprintf("Found %d innovative concepts", len(snap.Ideas)))),
		slack.NewDividerBlock(),
	}

	if len(snap.Ideas) == 0 {
		blocks = append(blocks, slack.NewSectionBlock(mrkdwn("📭 No ideas came back for this topic. Try rephrasing it or pick another one."), nil, nil))
	}

	for _, idea := range snap.Ideas {
		text := fmt.Sprintf("*%s %s*\n%s", idea.Emoji, escape(idea.Title), escape(idea.ShortDescription))
		accessory := slack.NewAccessory(button(actionSelectIdea, idea.ID, "Deep dive", slack.StylePrimary))
		blocks = append(blocks, slack.NewSectionBlock(mrkdwn(text), nil, accessory))

		meta := fmt.Sprintf("⚡ Impact *%s*  ·  🛠 Feasibility *%s*",
			scoreText(idea.ImpactScore, models.MaxIdeaScore),
			scoreText(idea.FeasibilityScore, models.MaxIdeaScore))
		if tags := idea.CardTags(); len(tags) > 0 {
			quoted := make([]string, len(tags))
			for i, tag := range tags {
				quoted[i] = "`" + escape(tag) + "`"
			}
			meta += "  ·  " + strings.Join(quoted, " ")
		}
		blocks = append(blocks, slack.NewContextBlock("", mrkdwn(meta)))
	}

	blocks = append(blocks,
		slack.NewDividerBlock(),
		slack.NewActionBlock("", button(actionReset, "reset", "🏠 New search", "")),
	)
	return blocks
}

// DetailBlocks renders the drill-down for the selected idea. Sections whose
// data failed to generate are left out.
func DetailBlocks(detail *session.IdeaDetail, exportEnabled bool) []slack.Block {
	idea := detail.Idea
	blocks := []slack.Block{
		slack.NewHeaderBlock(plain(truncate(strings.TrimSpace(idea.Emoji+" "+idea.Title), maxHeaderText))),
		slack.NewSectionBlock(mrkdwn(escape(idea.ShortDescription)), []*slack.TextBlockObject{
			mrkdwn("*Impact*\n" + scoreText(idea.ImpactScore, models.MaxIdeaScore)),
			mrkdwn("*Feasibility*\n" + scoreText(idea.FeasibilityScore, models.MaxIdeaScore)),
		}, nil),
	}

	if a := detail.Analysis; a != nil {
		m := a.MarketAnalysis
		blocks = append(blocks,
			slack.NewDividerBlock(),
			slack.NewSectionBlock(mrkdwn(escape(a.DetailedDescription)), nil, nil),
			slack.NewSectionBlock(mrkdwn("*📊 Market analysis*"), []*slack.TextBlockObject{
				mrkdwn("*Competition*\n" + string(m.CompetitorCount)),
				mrkdwn("*Demand*\n" + scoreText(m.DemandLevel, models.MaxMarketScore)),
				mrkdwn("*Growth potential*\n" + scoreText(m.GrowthPotential, models.MaxMarketScore)),
				mrkdwn("*Difficulty*\n" + scoreText(m.Difficulty, models.MaxMarketScore)),
			}, nil),
		)
		blocks = appendList(blocks, "🎯 Target audience", a.TargetAudience, "•")
		blocks = appendList(blocks, "💰 Revenue models", a.RevenueModels, "•")
		blocks = appendList(blocks, "🧱 Tech stack", a.TechStackRecommendation, "•")
		blocks = appendList(blocks, "🚀 Next steps", a.NextSteps, "numbered")
	}

	if len(detail.RelatedTopics) > 0 {
		elements := make([]slack.BlockElement, 0, len(detail.RelatedTopics))
		for i, topic := range detail.RelatedTopics {
			elements = append(elements, button(fmt.Sprintf("%s_%d", actionExploreRelated, i), topic, topic, ""))
		}
		blocks = append(blocks,
			slack.NewDividerBlock(),
			slack.NewSectionBlock(mrkdwn("*🧭 Explore related*"), nil, nil),
			slack.NewActionBlock("", elements...),
		)
	}

	controls := []slack.BlockElement{
		button(actionCloseDetail, idea.ID, "⬅️ Back to results", ""),
		button(actionSaveIdea, idea.ID, "⭐ Save", ""),
	}
	if exportEnabled {
		controls = append(controls, button(actionExportIdea, idea.ID, "📋 Send to Linear", ""))
	}
	controls = append(controls, button(actionReset, "reset", "🏠 New search", ""))

	return append(blocks, slack.NewDividerBlock(), slack.NewActionBlock("", controls...))
}

func appendList(blocks []slack.Block, heading string, items []string, style string) []slack.Block {
	if len(items) == 0 {
		return blocks
	}
	lines := make([]string, len(items))
	for i, item := range items {
		if style == "numbered" {
			lines[i] = fmt.Sprintf("%d. %s", i+1, escape(item))
		} else {
			lines[i] = style + " " + escape(item)
		}
	}
	return append(blocks, slack.NewSectionBlock(mrkdwn("*"+heading+"*\n"+strings.Join(lines, "\n")), nil, nil))
}

// LandingBlocks invites a search and offers the trending topics.
func LandingBlocks() []slack.Block {
	elements := make([]slack.BlockElement, len(models.TrendingTopics))
	for i, topic := range models.TrendingTopics {
		elements[i] = button(fmt.Sprintf("%s_%d", actionTrending, i), topic, topic, "")
	}
	return []slack.Block{
		slack.NewSectionBlock(mrkdwn("*Dream. Explore. Build.*\nSend me a topic and I'll generate startup ideas, e.g. `ideas Sustainable Coffee 6`."), nil, nil),
		slack.NewContextBlock("", mrkdwn("Trending:")),
		slack.NewActionBlock("", elements...),
	}
}

func historyText(items []*models.HistoryItem) string {
	if len(items) == 0 {
		return "📭 No searches yet. Try `ideas SaaS`!"
	}
	var b strings.Builder
	b.WriteString("🕘 *Recent searches*\n\n")
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s _(%d ideas, %s)_\n", i+1, escape(item.Topic), item.IdeaCount, item.Timestamp.Format("Jan 02 at 3:04 PM"))
	}
	return b.String()
}

func savedText(ideas []*models.SavedIdea) string {
	if len(ideas) == 0 {
		return "📭 Nothing saved yet. Use ⭐ Save on an idea's deep dive."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "⭐ *Saved ideas* (%d)\n\n", len(ideas))
	for i, s := range ideas {
		fmt.Fprintf(&b, "%d. %s *%s* _(from \"%s\")_\n   %s\n", i+1, s.Emoji, escape(s.Title), escape(s.Topic), escape(s.ShortDescription))
	}
	return b.String()
}

const helpText = `*IdeaFlow*

I generate, analyze, and visualize startup ideas for any topic.

*Commands:*
- ideas [topic] [3|6|9|12] - Generate ideas (default 6)
- reset - Start over
- history - Show recent searches
- saved - Show your saved ideas
- help - Show this help

*Workflow:*
1. Search a topic: ideas Sustainable Coffee 6
2. Hit *Deep dive* on a card for analysis, related topics and an illustration
3. Explore a related topic, ⭐ save the idea, or send it to Linear`
