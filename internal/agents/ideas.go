package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shubh-37/ideaflow/internal/models"
)

type ideaPayload struct {
	Title            *string   `json:"title"`
	ShortDescription *string   `json:"shortDescription"`
	Tags             *[]string `json:"tags"`
	Emoji            *string   `json:"emoji"`
	ImpactScore      *float64  `json:"impactScore"`
	FeasibilityScore *float64  `json:"feasibilityScore"`
	ColorTheme       *string   `json:"colorTheme"`
}

func (p ideaPayload) toIdea() (models.Idea, error) {
	switch {
	case p.Title == nil || strings.TrimSpace(*p.Title) == "":
		return models.Idea{}, errors.New("missing title")
	case p.ShortDescription == nil:
		return models.Idea{}, errors.New("missing shortDescription")
	case p.Tags == nil:
		return models.Idea{}, errors.New("missing tags")
	case p.Emoji == nil:
		return models.Idea{}, errors.New("missing emoji")
	case p.ImpactScore == nil:
		return models.Idea{}, errors.New("missing impactScore")
	case p.FeasibilityScore == nil:
		return models.Idea{}, errors.New("missing feasibilityScore")
	case p.ColorTheme == nil:
		return models.Idea{}, errors.New("missing colorTheme")
	}

	return models.Idea{
		ID:               uuid.New().String(),
		Title:            strings.TrimSpace(*p.Title),
		ShortDescription: strings.TrimSpace(*p.ShortDescription),
		Tags:             cleanList(*p.Tags),
		Emoji:            *p.Emoji,
		ImpactScore:      models.Clamp(*p.ImpactScore, models.MinIdeaScore, models.MaxIdeaScore),
		FeasibilityScore: models.Clamp(*p.FeasibilityScore, models.MinIdeaScore, models.MaxIdeaScore),
		ColorTheme:       *p.ColorTheme,
	}, nil
}

func ideasPrompt(topic string, count int) string {
	return fmt.Sprintf(`Generate %d unique, innovative, and distinct startup or project ideas related to the topic: "%s".
Ensure they vary in complexity and target audience.
Return the response in a structured JSON array.`, count, topic)
}

// GenerateIdeas asks for count ideas about topic. Any failure yields an empty
// slice; a blank topic never reaches the service.
func (a *IdeaAgent) GenerateIdeas(ctx context.Context, topic string, count int) []models.Idea {
	topic = strings.TrimSpace(topic)
	if topic == "" || count <= 0 {
		return []models.Idea{}
	}

	ideas, err := a.generateIdeas(ctx, topic, count)
	if err != nil {
		a.logFailure(err, zap.String("topic", topic), zap.Int("count", count))
		return []models.Idea{}
	}

	a.logger.Info("💡 Ideas generated", zap.String("topic", topic), zap.Int("requested", count), zap.Int("received", len(ideas)))
	return ideas
}

func (a *IdeaAgent) generateIdeas(ctx context.Context, topic string, count int) ([]models.Idea, error) {
	const op = "generate ideas"

	var payload []ideaPayload
	if err := a.callJSON(ctx, op, ideasPrompt(topic, count), ideaListSchema, &payload); err != nil {
		return nil, err
	}

	if len(payload) > count {
		payload = payload[:count]
	}

	ideas := make([]models.Idea, 0, len(payload))
	for i, p := range payload {
		idea, err := p.toIdea()
		if err != nil {
			return nil, &GenerationError{Op: op, Err: fmt.Errorf("idea %d: %w", i+1, err)}
		}
		ideas = append(ideas, idea)
	}

	return ideas, nil
}

// cleanList trims entries and drops blanks.
func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
