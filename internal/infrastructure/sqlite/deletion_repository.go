package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/tablecall/tablecall/internal/domain/deletion"
)

const deleteChunkSize = 500

// DeletionRepository implements deletion.Repository.
type DeletionRepository struct {
	db *sql.DB
}

// NewDeletionRepository creates a scheduled deletion repository.
func NewDeletionRepository(s *Store) *DeletionRepository {
	return &DeletionRepository{db: s.db}
}

func (r *DeletionRepository) Schedule(ctx context.Context, d *deletion.ScheduledDeletion) error {
	res, err := r.db.ExecContext(ctx, `
INSERT INTO scheduled_deletions (chat_id, message_id, delete_at)
VALUES (?, ?, ?)
`, d.ChatID, d.MessageID, toMillis(d.DeleteAt))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = id
	return nil
}

func (r *DeletionRepository) ListDue(ctx context.Context, now time.Time) ([]*deletion.ScheduledDeletion, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, chat_id, message_id, delete_at
FROM scheduled_deletions
WHERE delete_at <= ?
ORDER BY delete_at ASC, id ASC
`, toMillis(now))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*deletion.ScheduledDeletion
	for rows.Next() {
		var (
			d        deletion.ScheduledDeletion
			deleteAt int64
		)
		if err := rows.Scan(&d.ID, &d.ChatID, &d.MessageID, &deleteAt); err != nil {
			return nil, err
		}
		d.DeleteAt = fromMillis(deleteAt)
		out = append(out, &d)
	}
	return out, rows.Err()
}

// DeleteBatch removes ids in one transaction, chunked to stay under the bound-variable limit.
func (r *DeletionRepository) DeleteBatch(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for start := 0; start < len(ids); start += deleteChunkSize {
		chunk := ids[start:min(start+deleteChunkSize, len(ids))]
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",")
		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM scheduled_deletions WHERE id IN (`+placeholders+`)`, args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}
