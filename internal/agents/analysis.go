package agents

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/shubh-37/ideaflow/internal/models"
)

const relatedTopicCount = 4

func analysisPrompt(idea models.Idea) string {
	return fmt.Sprintf(`Perform a deep-dive analysis on this startup idea:
Title: %s
Description: %s

Provide a detailed breakdown including target audience, revenue models, tech stack, and a market analysis simulation.`, idea.Title, idea.ShortDescription)
}

func relatedTopicsPrompt(ideaTitle string) string {
	return fmt.Sprintf(`Based on the idea "%s", suggest %d related search topics that a user might want to explore next to broaden their horizons. Return just an array of strings.`, ideaTitle, relatedTopicCount)
}

// AnalyzeIdea returns the deep dive for idea, or nil when generation fails.
func (a *IdeaAgent) AnalyzeIdea(ctx context.Context, idea models.Idea) *models.IdeaAnalysis {
	analysis, err := a.analyzeIdea(ctx, idea)
	if err != nil {
		a.logFailure(err, zap.String("idea", idea.Title))
		return nil
	}
	return analysis
}

func (a *IdeaAgent) analyzeIdea(ctx context.Context, idea models.Idea) (*models.IdeaAnalysis, error) {
	const op = "analyze idea"

	var analysis models.IdeaAnalysis
	if err := a.callJSON(ctx, op, analysisPrompt(idea), analysisSchema, &analysis); err != nil {
		return nil, err
	}

	if !analysis.MarketAnalysis.CompetitorCount.Valid() {
		return nil, &GenerationError{Op: op, Err: fmt.Errorf("invalid competitorCount %q", analysis.MarketAnalysis.CompetitorCount)}
	}
	if analysis.DetailedDescription == "" {
		return nil, &GenerationError{Op: op, Err: fmt.Errorf("missing detailedDescription")}
	}

	m := &analysis.MarketAnalysis
	m.DemandLevel = models.Clamp(m.DemandLevel, models.MinMarketScore, models.MaxMarketScore)
	m.GrowthPotential = models.Clamp(m.GrowthPotential, models.MinMarketScore, models.MaxMarketScore)
	m.Difficulty = models.Clamp(m.Difficulty, models.MinMarketScore, models.MaxMarketScore)

	analysis.TargetAudience = cleanList(analysis.TargetAudience)
	analysis.RevenueModels = cleanList(analysis.RevenueModels)
	analysis.TechStackRecommendation = cleanList(analysis.TechStackRecommendation)
	analysis.NextSteps = cleanList(analysis.NextSteps)

	return &analysis, nil
}

// RelatedTopics suggests follow-up searches for an idea. Empty on failure.
func (a *IdeaAgent) RelatedTopics(ctx context.Context, ideaTitle string) []string {
	var topics []string
	if err := a.callJSON(ctx, "related topics", relatedTopicsPrompt(ideaTitle), relatedTopicsSchema, &topics); err != nil {
		a.logFailure(err, zap.String("idea", ideaTitle))
		return []string{}
	}

	topics = cleanList(topics)
	if len(topics) > relatedTopicCount {
		topics = topics[:relatedTopicCount]
	}
	return topics
}
