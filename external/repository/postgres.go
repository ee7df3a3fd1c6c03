package repository

import (
	"context"

	"github.com/Uto-inc/ai-meeting-proxy/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) repository.Repository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) AddConversationEntry(ctx context.Context, input repository.AddConversationEntryInput) error {
	var category *string
	if input.Category != "" {
		category = &input.Category
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO conversation_entries (meeting_id, bot_id, speaker, content, kind, category)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		input.MeetingID, input.BotID, input.Speaker, input.Content, input.Kind, category)
	return err
}

func (r *PostgresRepository) UpdateBotStatus(ctx context.Context, meetingID, botID string, status repository.BotStatus) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO meeting_bots (meeting_id, bot_id, status)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (meeting_id, bot_id)
		 DO UPDATE SET status = EXCLUDED.status, updated_at = NOW()`,
		meetingID, botID, status)
	return err
}

func (r *PostgresRepository) ListMaterials(ctx context.Context, meetingID string) ([]repository.Material, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, meeting_id, filename, extracted_text, created_at
		 FROM meeting_materials WHERE meeting_id = $1 ORDER BY created_at ASC`,
		meetingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []repository.Material
	for rows.Next() {
		var m repository.Material
		var extracted *string
		if err := rows.Scan(&m.ID, &m.MeetingID, &m.Filename, &extracted, &m.CreatedAt); err != nil {
			return nil, err
		}
		if extracted != nil {
			m.ExtractedText = *extracted
		}
		list = append(list, m)
	}
	return list, rows.Err()
}
