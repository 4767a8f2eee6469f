package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tablecall/tablecall/internal/domain/deletion"
)

// DeletionRepository implements deletion.Repository.
type DeletionRepository struct {
	pool *pgxpool.Pool
}

// NewDeletionRepository creates a scheduled deletion repository.
func NewDeletionRepository(pool *pgxpool.Pool) *DeletionRepository {
	return &DeletionRepository{pool: pool}
}

func (r *DeletionRepository) Schedule(ctx context.Context, d *deletion.ScheduledDeletion) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO scheduled_deletions (chat_id, message_id, delete_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`, d.ChatID, d.MessageID, d.DeleteAt).Scan(&d.ID)
}

func (r *DeletionRepository) ListDue(ctx context.Context, now time.Time) ([]*deletion.ScheduledDeletion, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, chat_id, message_id, delete_at
		FROM scheduled_deletions
		WHERE delete_at <= $1
		ORDER BY delete_at ASC
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*deletion.ScheduledDeletion
	for rows.Next() {
		var d deletion.ScheduledDeletion
		if err := rows.Scan(&d.ID, &d.ChatID, &d.MessageID, &d.DeleteAt); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

func (r *DeletionRepository) DeleteBatch(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `DELETE FROM scheduled_deletions WHERE id = ANY($1)`, ids)
	return err
}
