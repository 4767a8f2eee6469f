package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tablecall/tablecall/internal/domain/player"
	"github.com/tablecall/tablecall/internal/domain/segment"
)

// SegmentRepository implements segment.Repository.
type SegmentRepository struct {
	pool *pgxpool.Pool
}

// NewSegmentRepository creates a segment repository.
func NewSegmentRepository(pool *pgxpool.Pool) *SegmentRepository {
	return &SegmentRepository{pool: pool}
}

func (r *SegmentRepository) ResolveOrCreate(ctx context.Context, formatID, limitID int64) (int64, error) {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO segments (format_id, limit_id)
		VALUES ($1, $2)
		ON CONFLICT (format_id, limit_id) DO NOTHING
	`, formatID, limitID)
	if err != nil {
		return 0, err
	}
	var id int64
	if err := r.pool.QueryRow(ctx, `SELECT id FROM segments WHERE format_id=$1 AND limit_id=$2`, formatID, limitID).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *SegmentRepository) GetByID(ctx context.Context, id int64) (*segment.Segment, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, format_id, limit_id FROM segments WHERE id=$1`, id)
	return scanSegment(row)
}

func (r *SegmentRepository) GetByPair(ctx context.Context, formatID, limitID int64) (*segment.Segment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, format_id, limit_id FROM segments WHERE format_id=$1 AND limit_id=$2
	`, formatID, limitID)
	return scanSegment(row)
}

func scanSegment(row pgx.Row) (*segment.Segment, error) {
	var s segment.Segment
	if err := row.Scan(&s.ID, &s.FormatID, &s.LimitID); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SegmentRepository) Assign(ctx context.Context, playerID, segmentID int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO player_segments (player_id, segment_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, playerID, segmentID)
	return err
}

func (r *SegmentRepository) Unassign(ctx context.Context, playerID, segmentID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM player_segments WHERE player_id=$1 AND segment_id=$2`, playerID, segmentID)
	return err
}

func (r *SegmentRepository) ListForPlayer(ctx context.Context, playerID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT segment_id FROM player_segments WHERE player_id=$1 ORDER BY segment_id`, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *SegmentRepository) ListMembers(ctx context.Context, segmentID, excludePlayerID int64) ([]*player.Player, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.external_id, p.handle, p.nickname, p.banned, p.created_at
		FROM players p
		JOIN player_segments ps ON ps.player_id = p.id
		WHERE ps.segment_id = $1 AND p.id <> $2
		ORDER BY p.id
	`, segmentID, excludePlayerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var players []*player.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (r *SegmentRepository) ListWithNames(ctx context.Context) ([]*segment.Summary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, f.id, f.name, l.id, l.name
		FROM segments s
		JOIN formats f ON f.id = s.format_id
		JOIN limits l ON l.id = s.limit_id
		ORDER BY s.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*segment.Summary
	for rows.Next() {
		var s segment.Summary
		if err := rows.Scan(&s.SegmentID, &s.FormatID, &s.FormatName, &s.LimitID, &s.LimitName); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}
