package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/tablecall/tablecall/internal/domain/player"
)

const playerColumns = `id, external_id, handle, nickname, banned, created_at`

// PlayerRepository implements player.Repository.
type PlayerRepository struct {
	db *sql.DB
}

// NewPlayerRepository creates a player repository.
func NewPlayerRepository(s *Store) *PlayerRepository {
	return &PlayerRepository{db: s.db}
}

func (r *PlayerRepository) GetOrCreate(ctx context.Context, externalID int64, handle *string) (*player.Player, error) {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO players (external_id, handle, created_at)
VALUES (?, ?, ?)
ON CONFLICT (external_id) DO NOTHING
`, externalID, nullString(handle), toMillis(time.Now()))
	if err != nil {
		return nil, err
	}
	return r.GetByExternalID(ctx, externalID)
}

func (r *PlayerRepository) GetByID(ctx context.Context, id int64) (*player.Player, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE id = ?`, id)
	return scanPlayer(row)
}

func (r *PlayerRepository) GetByExternalID(ctx context.Context, externalID int64) (*player.Player, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE external_id = ?`, externalID)
	return scanPlayer(row)
}

func (r *PlayerRepository) UpdateHandle(ctx context.Context, id int64, handle *string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE players SET handle = ? WHERE id = ?`, nullString(handle), id)
	return err
}

func (r *PlayerRepository) SetNickname(ctx context.Context, id int64, nickname string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE players SET nickname = ? WHERE id = ?`, nickname, id)
	return err
}

func (r *PlayerRepository) SetBanned(ctx context.Context, id int64, banned bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE players SET banned = ? WHERE id = ?`, banned, id)
	return err
}

func scanPlayer(row scanner) (*player.Player, error) {
	var (
		p         player.Player
		handle    sql.NullString
		nickname  sql.NullString
		createdAt int64
	)
	if err := row.Scan(&p.ID, &p.ExternalID, &handle, &nickname, &p.Banned, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	p.Handle = stringPtr(handle)
	p.Nickname = stringPtr(nickname)
	p.CreatedAt = fromMillis(createdAt)
	return &p, nil
}
