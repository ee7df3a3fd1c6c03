package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS meeting_bots (
		meeting_id TEXT NOT NULL,
		bot_id TEXT NOT NULL,
		display_name TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'joining',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (meeting_id, bot_id)
	)`,
	`CREATE TABLE IF NOT EXISTS conversation_entries (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		meeting_id TEXT NOT NULL,
		bot_id TEXT NOT NULL,
		speaker TEXT NOT NULL,
		content TEXT NOT NULL,
		kind TEXT NOT NULL,
		category TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_conversation_entries_meeting ON conversation_entries (meeting_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS meeting_materials (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		meeting_id TEXT NOT NULL,
		filename TEXT NOT NULL,
		extracted_text TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_meeting_materials_meeting ON meeting_materials (meeting_id, created_at)`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
