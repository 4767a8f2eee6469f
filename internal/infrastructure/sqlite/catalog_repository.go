package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tablecall/tablecall/internal/domain/catalog"
)

// CatalogRepository implements catalog.Repository.
type CatalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository creates a catalog repository.
func NewCatalogRepository(s *Store) *CatalogRepository {
	return &CatalogRepository{db: s.db}
}

func (r *CatalogRepository) CreateFormat(ctx context.Context, name string) (int64, error) {
	return r.upsertName(ctx, "formats", name)
}

func (r *CatalogRepository) CreateLimit(ctx context.Context, name string) (int64, error) {
	return r.upsertName(ctx, "limits", name)
}

func (r *CatalogRepository) upsertName(ctx context.Context, table, name string) (int64, error) {
	if _, err := r.db.ExecContext(ctx, `INSERT INTO `+table+` (name) VALUES (?) ON CONFLICT (name) DO NOTHING`, name); err != nil {
		return 0, err
	}
	var id int64
	if err := r.db.QueryRowContext(ctx, `SELECT id FROM `+table+` WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *CatalogRepository) LinkLimit(ctx context.Context, formatID, limitID int64) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO format_limits (format_id, limit_id)
VALUES (?, ?)
ON CONFLICT DO NOTHING
`, formatID, limitID)
	return err
}

func (r *CatalogRepository) ListFormats(ctx context.Context) ([]*catalog.Entity, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM formats ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEntities(rows, catalog.KindFormat)
}

func (r *CatalogRepository) ListLimitsForFormat(ctx context.Context, formatID int64) ([]*catalog.Entity, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT l.id, l.name
FROM limits l
JOIN format_limits fl ON fl.limit_id = l.id
WHERE fl.format_id = ?
ORDER BY l.id
`, formatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEntities(rows, catalog.KindLimit)
}

func (r *CatalogRepository) GetFormat(ctx context.Context, id int64) (*catalog.Entity, error) {
	return scanEntity(r.db.QueryRowContext(ctx, `SELECT id, name FROM formats WHERE id = ?`, id), catalog.KindFormat)
}

func (r *CatalogRepository) GetLimit(ctx context.Context, id int64) (*catalog.Entity, error) {
	return scanEntity(r.db.QueryRowContext(ctx, `SELECT id, name FROM limits WHERE id = ?`, id), catalog.KindLimit)
}

func collectEntities(rows *sql.Rows, kind catalog.Kind) ([]*catalog.Entity, error) {
	var out []*catalog.Entity
	for rows.Next() {
		e, err := scanEntity(rows, kind)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEntity(row scanner, kind catalog.Kind) (*catalog.Entity, error) {
	e := catalog.Entity{Kind: kind}
	if err := row.Scan(&e.ID, &e.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}
