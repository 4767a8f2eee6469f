package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tablecall/tablecall/internal/domain/player"
)

const playerColumns = `id, external_id, handle, nickname, banned, created_at`

// PlayerRepository implements player.Repository.
type PlayerRepository struct {
	pool *pgxpool.Pool
}

// NewPlayerRepository creates a player repository.
func NewPlayerRepository(pool *pgxpool.Pool) *PlayerRepository {
	return &PlayerRepository{pool: pool}
}

func (r *PlayerRepository) GetOrCreate(ctx context.Context, externalID int64, handle *string) (*player.Player, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO players (external_id, handle)
		VALUES ($1, $2)
		ON CONFLICT (external_id) DO NOTHING
	`, externalID, handle)
	if err != nil {
		return nil, err
	}
	return r.GetByExternalID(ctx, externalID)
}

func (r *PlayerRepository) GetByID(ctx context.Context, id int64) (*player.Player, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+playerColumns+` FROM players WHERE id=$1`, id)
	return scanPlayer(row)
}

func (r *PlayerRepository) GetByExternalID(ctx context.Context, externalID int64) (*player.Player, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+playerColumns+` FROM players WHERE external_id=$1`, externalID)
	return scanPlayer(row)
}

func (r *PlayerRepository) UpdateHandle(ctx context.Context, id int64, handle *string) error {
	_, err := r.pool.Exec(ctx, `UPDATE players SET handle=$1 WHERE id=$2`, handle, id)
	return err
}

func (r *PlayerRepository) SetNickname(ctx context.Context, id int64, nickname string) error {
	_, err := r.pool.Exec(ctx, `UPDATE players SET nickname=$1 WHERE id=$2`, nickname, id)
	return err
}

func (r *PlayerRepository) SetBanned(ctx context.Context, id int64, banned bool) error {
	_, err := r.pool.Exec(ctx, `UPDATE players SET banned=$1 WHERE id=$2`, banned, id)
	return err
}

func scanPlayer(row pgx.Row) (*player.Player, error) {
	var p player.Player
	if err := row.Scan(&p.ID, &p.ExternalID, &p.Handle, &p.Nickname, &p.Banned, &p.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}
