package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shubh-37/ideaflow/internal/models"
)

const defaultHistoryLimit = 20

type HistoryRepository struct {
	db *DB
}

func NewHistoryRepository(db *DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Record inserts a completed search
func (r *HistoryRepository) Record(ctx context.Context, item *models.HistoryItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}

	if item.Timestamp.IsZero() {
		item.Timestamp = time.Now()
	}

	query := `
		INSERT INTO search_history (id, session_id, topic, idea_count, searched_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		item.ID,
		item.SessionID,
		item.Topic,
		item.IdeaCount,
		item.Timestamp,
	)

	if err != nil {
		return fmt.Errorf("failed to record search: %w", err)
	}

	return nil
}

// Recent returns the latest searches across all sessions, newest first
func (r *HistoryRepository) Recent(ctx context.Context, limit int) ([]*models.HistoryItem, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	query := `
		SELECT id, session_id, topic, idea_count, searched_at
		FROM search_history
		ORDER BY searched_at DESC
		LIMIT $1
	`

	return r.list(ctx, query, limit)
}

// BySession returns the latest searches for one session, newest first
func (r *HistoryRepository) BySession(ctx context.Context, sessionID string, limit int) ([]*models.HistoryItem, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	query := `
		SELECT id, session_id, topic, idea_count, searched_at
		FROM search_history
		WHERE session_id = $1
		ORDER BY searched_at DESC
		LIMIT $2
	`

	return r.list(ctx, query, sessionID, limit)
}

func (r *HistoryRepository) list(ctx context.Context, query string, args ...any) ([]*models.HistoryItem, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query search history: %w", err)
	}
	defer rows.Close()

	items := []*models.HistoryItem{}
	for rows.Next() {
		item := &models.HistoryItem{}
		if err := rows.Scan(
			&item.ID,
			&item.SessionID,
			&item.Topic,
			&item.IdeaCount,
			&item.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan search history: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read search history: %w", err)
	}

	return items, nil
}
