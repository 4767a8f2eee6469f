package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tablecall/tablecall/internal/domain/request"
)

// RequestRepository implements request.Repository.
type RequestRepository struct {
	pool *pgxpool.Pool
}

// NewRequestRepository creates a request repository.
func NewRequestRepository(pool *pgxpool.Pool) *RequestRepository {
	return &RequestRepository{pool: pool}
}

func (r *RequestRepository) Create(ctx context.Context, req *request.Request) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO requests (player_id, format_id, limit_id, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, req.PlayerID, req.FormatID, req.LimitID, req.CreatedAt).Scan(&req.ID)
}

func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*request.Request, error) {
	var req request.Request
	err := r.pool.QueryRow(ctx, `
		SELECT id, player_id, format_id, limit_id, created_at FROM requests WHERE id=$1
	`, id).Scan(&req.ID, &req.PlayerID, &req.FormatID, &req.LimitID, &req.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &req, nil
}

func (r *RequestRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM requests WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
