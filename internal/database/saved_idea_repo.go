package database

import (
	"context"
	"fmt"
	"time"

	"github.com/shubh-37/ideaflow/internal/models"
)

type SavedIdeaRepository struct {
	db *DB
}

func NewSavedIdeaRepository(db *DB) *SavedIdeaRepository {
	return &SavedIdeaRepository{db: db}
}

// Save bookmarks an idea for one user. Saving the same idea twice keeps the
// first entry; other users keep their own copies.
func (r *SavedIdeaRepository) Save(ctx context.Context, saved *models.SavedIdea) error {
	if saved.SavedAt.IsZero() {
		saved.SavedAt = time.Now()
	}

	query := `
		INSERT INTO saved_ideas (id, topic, title, short_description, tags, emoji,
		                         impact_score, feasibility_score, color_theme, saved_by, saved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id, saved_by) DO NOTHING
	`

	_, err := r.db.Pool.Exec(ctx, query,
		saved.ID,
		saved.Topic,
		saved.Title,
		saved.ShortDescription,
		saved.Tags,
		saved.Emoji,
		saved.ImpactScore,
		saved.FeasibilityScore,
		saved.ColorTheme,
		saved.SavedBy,
		saved.SavedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to save idea: %w", err)
	}

	return nil
}

// ListBy returns the ideas a user saved, newest first
func (r *SavedIdeaRepository) ListBy(ctx context.Context, savedBy string) ([]*models.SavedIdea, error) {
	query := `
		SELECT id, topic, title, short_description, tags, emoji,
		       impact_score, feasibility_score, color_theme, saved_by, saved_at
		FROM saved_ideas
		WHERE saved_by = $1
		ORDER BY saved_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, savedBy)
	if err != nil {
		return nil, fmt.Errorf("failed to query saved ideas: %w", err)
	}
	defer rows.Close()

	ideas := []*models.SavedIdea{}
	for rows.Next() {
		s := &models.SavedIdea{}
		if err := rows.Scan(
			&s.ID,
			&s.Topic,
			&s.Title,
			&s.ShortDescription,
			&s.Tags,
			&s.Emoji,
			&s.ImpactScore,
			&s.FeasibilityScore,
			&s.ColorTheme,
			&s.SavedBy,
			&s.SavedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan saved idea: %w", err)
		}
		ideas = append(ideas, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read saved ideas: %w", err)
	}

	return ideas, nil
}

func (r *SavedIdeaRepository) Delete(ctx context.Context, id, savedBy string) error {
	query := `DELETE FROM saved_ideas WHERE id = $1 AND saved_by = $2`

	result, err := r.db.Pool.Exec(ctx, query, id, savedBy)
	if err != nil {
		return fmt.Errorf("failed to delete saved idea: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("saved idea not found")
	}

	return nil
}
