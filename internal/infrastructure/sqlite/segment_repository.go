package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tablecall/tablecall/internal/domain/player"
	"github.com/tablecall/tablecall/internal/domain/segment"
)

// SegmentRepository implements segment.Repository.
type SegmentRepository struct {
	db *sql.DB
}

// NewSegmentRepository creates a segment repository.
func NewSegmentRepository(s *Store) *SegmentRepository {
	return &SegmentRepository{db: s.db}
}

func (r *SegmentRepository) ResolveOrCreate(ctx context.Context, formatID, limitID int64) (int64, error) {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO segments (format_id, limit_id)
VALUES (?, ?)
ON CONFLICT (format_id, limit_id) DO NOTHING
`, formatID, limitID)
	if err != nil {
		return 0, err
	}
	var id int64
	err = r.db.QueryRowContext(ctx, `SELECT id FROM segments WHERE format_id = ? AND limit_id = ?`, formatID, limitID).Scan(&id)
	return id, err
}

func (r *SegmentRepository) GetByID(ctx context.Context, id int64) (*segment.Segment, error) {
	return scanSegment(r.db.QueryRowContext(ctx, `SELECT id, format_id, limit_id FROM segments WHERE id = ?`, id))
}

func (r *SegmentRepository) GetByPair(ctx context.Context, formatID, limitID int64) (*segment.Segment, error) {
	return scanSegment(r.db.QueryRowContext(ctx, `
SELECT id, format_id, limit_id FROM segments WHERE format_id = ? AND limit_id = ?
`, formatID, limitID))
}

func scanSegment(row scanner) (*segment.Segment, error) {
	var s segment.Segment
	if err := row.Scan(&s.ID, &s.FormatID, &s.LimitID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SegmentRepository) Assign(ctx context.Context, playerID, segmentID int64) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO player_segments (player_id, segment_id)
VALUES (?, ?)
ON CONFLICT DO NOTHING
`, playerID, segmentID)
	return err
}

func (r *SegmentRepository) Unassign(ctx context.Context, playerID, segmentID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM player_segments WHERE player_id = ? AND segment_id = ?`, playerID, segmentID)
	return err
}

func (r *SegmentRepository) ListForPlayer(ctx context.Context, playerID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT segment_id FROM player_segments WHERE player_id = ? ORDER BY segment_id`, playerID)
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
	rows, err := r.db.QueryContext(ctx, `
SELECT p.id, p.external_id, p.handle, p.nickname, p.banned, p.created_at
FROM players p
JOIN player_segments ps ON ps.player_id = p.id
WHERE ps.segment_id = ? AND p.id <> ?
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
	rows, err := r.db.QueryContext(ctx, `
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
