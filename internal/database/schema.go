package database

import (
	"context"
	"fmt"
)

// CreateTables creates all necessary database tables
func (db *DB) CreateTables(ctx context.Context) error {
	db.logger.Info("Creating database tables...")

	historyTable := `
	CREATE TABLE IF NOT EXISTS search_history (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		session_id VARCHAR(255) NOT NULL,
		topic TEXT NOT NULL,
		idea_count INTEGER NOT NULL,
		searched_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_history_session ON search_history(session_id, searched_at DESC);
	CREATE INDEX IF NOT EXISTS idx_history_searched ON search_history(searched_at DESC);
	`

	savedTable := `
	CREATE TABLE IF NOT EXISTS saved_ideas (
		id UUID NOT NULL,
		topic TEXT NOT NULL,
		title TEXT NOT NULL,
		short_description TEXT NOT NULL,
		tags TEXT[],
		emoji VARCHAR(32),
		impact_score DOUBLE PRECISION NOT NULL CHECK (impact_score BETWEEN 1 AND 10),
		feasibility_score DOUBLE PRECISION NOT NULL CHECK (feasibility_score BETWEEN 1 AND 10),
		color_theme VARCHAR(32),
		saved_by VARCHAR(255) NOT NULL,
		saved_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id, saved_by)
	);
	CREATE INDEX IF NOT EXISTS idx_saved_by ON saved_ideas(saved_by, saved_at DESC);
	`

	for _, table := range []string{historyTable, savedTable} {
		if _, err := db.Pool.Exec(ctx, table); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}

	db.logger.Info("✅ All tables created successfully")
	return nil
}
