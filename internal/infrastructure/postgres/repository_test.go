package postgres

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablecall/tablecall/internal/domain/deletion"
	"github.com/tablecall/tablecall/internal/domain/request"
)

func testDatabaseURL(t *testing.T) string {
	t.Helper()
	if dsn := os.Getenv("TEST_DATABASE_URL"); dsn != "" {
		return dsn
	}
	t.Skip("TEST_DATABASE_URL not set; skipping postgres repository tests")
	return ""
}

func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()
	pool, err := NewPool(ctx, testDatabaseURL(t))
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, RunMigrations(ctx, pool, "../../migrations", zerolog.Nop()))
	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE
			scheduled_deletions,
			requests,
			player_segments,
			segments,
			format_limits,
			formats,
			limits,
			players
		RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return pool
}

func TestPlayerGetOrCreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := NewPlayerRepository(newTestPool(t))

	handle := "ace"
	p1, err := repo.GetOrCreate(ctx, 100, &handle)
	require.NoError(t, err)
	p2, err := repo.GetOrCreate(ctx, 100, nil)
	require.NoError(t, err)
	assert.Equal(t, p1.ID, p2.ID)

	require.NoError(t, repo.SetNickname(ctx, p1.ID, "Ace"))
	require.NoError(t, repo.SetBanned(ctx, p1.ID, true))
	got, err := repo.GetByExternalID(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "Ace", got.DisplayNickname())
	assert.True(t, got.Banned)

	missing, err := repo.GetByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCatalogUpsertAndLinks(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogRepository(newTestPool(t))

	f1, err := repo.CreateFormat(ctx, "Holdem")
	require.NoError(t, err)
	f2, err := repo.CreateFormat(ctx, "Holdem")
	require.NoError(t, err)
	assert.Equal(t, f1, f2)

	l, err := repo.CreateLimit(ctx, "NL100")
	require.NoError(t, err)
	require.NoError(t, repo.LinkLimit(ctx, f1, l))
	require.NoError(t, repo.LinkLimit(ctx, f1, l))

	limits, err := repo.ListLimitsForFormat(ctx, f1)
	require.NoError(t, err)
	require.Len(t, limits, 1)
	assert.Equal(t, "NL100", limits[0].Name)

	missing, err := repo.GetFormat(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSegmentResolveOrCreateConverges(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	catalogs := NewCatalogRepository(pool)
	segments := NewSegmentRepository(pool)
	players := NewPlayerRepository(pool)

	f, err := catalogs.CreateFormat(ctx, "Holdem")
	require.NoError(t, err)
	l, err := catalogs.CreateLimit(ctx, "NL100")
	require.NoError(t, err)

	const workers = 8
	ids := make([]int64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := segments.ResolveOrCreate(ctx, f, l)
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}

	p, err := players.GetOrCreate(ctx, 100, nil)
	require.NoError(t, err)
	q, err := players.GetOrCreate(ctx, 200, nil)
	require.NoError(t, err)
	require.NoError(t, segments.Assign(ctx, p.ID, ids[0]))
	require.NoError(t, segments.Assign(ctx, p.ID, ids[0]))
	require.NoError(t, segments.Assign(ctx, q.ID, ids[0]))

	members, err := segments.ListMembers(ctx, ids[0], p.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, q.ID, members[0].ID)

	summaries, err := segments.ListWithNames(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "Holdem", summaries[0].FormatName)
}

func TestRequestDeleteOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewRequestRepository(newTestPool(t))

	req := request.NewRequest(1, 2, 3, time.Now())
	require.NoError(t, repo.Create(ctx, req))
	require.NotZero(t, req.ID)

	removed, err := repo.Delete(ctx, req.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = repo.Delete(ctx, req.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestDeletionListDueAndBatchDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewDeletionRepository(newTestPool(t))
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	due := deletion.NewScheduledDeletion(10, 100, now.Add(-2*time.Hour), time.Hour)
	later := deletion.NewScheduledDeletion(11, 200, now, time.Hour)
	require.NoError(t, repo.Schedule(ctx, due))
	require.NoError(t, repo.Schedule(ctx, later))

	items, err := repo.ListDue(ctx, now)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, due.ID, items[0].ID)

	require.NoError(t, repo.DeleteBatch(ctx, []int64{items[0].ID}))
	items, err = repo.ListDue(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, later.ID, items[0].ID)
}
