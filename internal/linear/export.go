package linear

import (
	"context"
	"fmt"
	"strings"

	"github.com/shubh-37/ideaflow/internal/models"
)

// ExportIdea files an idea as a Linear issue. The analysis is optional; when
// present its next steps become a checklist.
func (c *Client) ExportIdea(ctx context.Context, topic string, idea models.Idea, analysis *models.IdeaAnalysis) (*Issue, error) {
	title := strings.TrimSpace(idea.Emoji + " " + idea.Title)
	return c.CreateIssue(ctx, title, IdeaDescription(topic, idea, analysis))
}

// IdeaDescription renders an idea as Linear markdown.
func IdeaDescription(topic string, idea models.Idea, analysis *models.IdeaAnalysis) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n\n", idea.ShortDescription)
	fmt.Fprintf(&b, "**Topic:** %s\n", topic)
	fmt.Fprintf(&b, "**Impact:** %g/10 · **Feasibility:** %g/10\n", idea.ImpactScore, idea.FeasibilityScore)
	if len(idea.Tags) > 0 {
		fmt.Fprintf(&b, "**Tags:** %s\n", strings.Join(idea.Tags, ", "))
	}

	if analysis == nil {
		return b.String()
	}

	fmt.Fprintf(&b, "\n## Overview\n\n%s\n", analysis.DetailedDescription)

	m := analysis.MarketAnalysis
	fmt.Fprintf(&b, "\n## Market\n\n- Competition: %s\n- Demand: %g/100\n- Growth potential: %g/100\n- Difficulty: %g/100\n",
		m.CompetitorCount, m.DemandLevel, m.GrowthPotential, m.Difficulty)

	writeList(&b, "Target audience", analysis.TargetAudience, "- ")
	writeList(&b, "Revenue models", analysis.RevenueModels, "- ")
	writeList(&b, "Tech stack", analysis.TechStackRecommendation, "- ")
	writeList(&b, "Next steps", analysis.NextSteps, "- [ ] ")

	return b.String()
}

func writeList(b *strings.Builder, heading string, items []string, bullet string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## %s\n\n", heading)
	for _, item := range items {
		b.WriteString(bullet + item + "\n")
	}
}
