package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tablecall/tablecall/internal/domain/request"
)

// RequestRepository implements request.Repository.
type RequestRepository struct {
	db *sql.DB
}

// NewRequestRepository creates a request repository.
func NewRequestRepository(s *Store) *RequestRepository {
	return &RequestRepository{db: s.db}
}

func (r *RequestRepository) Create(ctx context.Context, req *request.Request) error {
	res, err := r.db.ExecContext(ctx, `
INSERT INTO requests (player_id, format_id, limit_id, created_at)
VALUES (?, ?, ?, ?)
`, req.PlayerID, req.FormatID, req.LimitID, toMillis(req.CreatedAt))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	req.ID = id
	return nil
}

func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*request.Request, error) {
	var (
		req       request.Request
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx, `
SELECT id, player_id, format_id, limit_id, created_at FROM requests WHERE id = ?
`, id).Scan(&req.ID, &req.PlayerID, &req.FormatID, &req.LimitID, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	req.CreatedAt = fromMillis(createdAt)
	return &req, nil
}

func (r *RequestRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM requests WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
