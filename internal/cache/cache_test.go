package cache

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/mossy/internal/models"
	"github.com/joescharf/mossy/internal/store"
)

type countingStore struct {
	store.Store
	catalogLoads atomic.Int32
	dayLoads     atomic.Int32
}

func (s *countingStore) LoadCatalogDocument(ctx context.Context, userID string) (models.Document, error) {
	s.catalogLoads.Add(1)
	return s.Store.LoadCatalogDocument(ctx, userID)
}

func (s *countingStore) LoadCompletions(ctx context.Context, userID, day string) (models.DayCompletions, error) {
	s.dayLoads.Add(1)
	return s.Store.LoadCompletions(ctx, userID, day)
}

func setup(t *testing.T) (*Cache, *countingStore, string) {
	t.Helper()
	db, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(context.Background()))
	t.Cleanup(func() { db.Close() })

	u := &models.User{Name: "alice"}
	require.NoError(t, db.CreateUser(context.Background(), u))

	cs := &countingStore{Store: db}
	return New(cs), cs, u.ID
}

func TestCatalog_ReadThrough(t *testing.T) {
	c, cs, uid := setup(t)
	ctx := context.Background()

	_, err := c.LoadCatalog(ctx, uid)
	require.NoError(t, err)
	_, err = c.LoadCatalog(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, int32(1), cs.catalogLoads.Load())

	c.Invalidate(uid)
	_, err = c.LoadCatalog(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, int32(2), cs.catalogLoads.Load())
}

func TestCatalog_WriteThrough(t *testing.T) {
	c, cs, uid := setup(t)
	ctx := context.Background()

	_, err := c.SaveCatalog(ctx, uid, models.Document{"baseActivities": json.RawMessage(`["Water"]`)})
	require.NoError(t, err)

	cat, err := c.LoadCatalog(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, []string{"Water"}, cat.BaseActivities)
	assert.Equal(t, int32(0), cs.catalogLoads.Load(), "saved document is served from memory")
}

func TestCatalog_ReturnsCopies(t *testing.T) {
	c, _, uid := setup(t)
	ctx := context.Background()
	_, err := c.SaveCatalog(ctx, uid, models.Document{"malus": json.RawMessage(`[]`)})
	require.NoError(t, err)

	doc, err := c.LoadCatalogDocument(ctx, uid)
	require.NoError(t, err)
	doc["baseActivities"] = json.RawMessage(`["Injected"]`)

	again, err := c.LoadCatalogDocument(ctx, uid)
	require.NoError(t, err)
	assert.NotContains(t, again, "baseActivities")
}

func TestCompletions_ReadAndWriteThrough(t *testing.T) {
	c, cs, uid := setup(t)
	ctx := context.Background()

	got, err := c.LoadCompletions(ctx, uid, "2023-06-05")
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, c.SaveCompletions(ctx, uid, "2023-06-05", models.DayCompletions{"base-0": true}))
	got, err = c.LoadCompletions(ctx, uid, "2023-06-05")
	require.NoError(t, err)
	assert.Equal(t, models.DayCompletions{"base-0": true}, got)
	assert.Equal(t, int32(1), cs.dayLoads.Load())

	got["base-1"] = true
	again, err := c.LoadCompletions(ctx, uid, "2023-06-05")
	require.NoError(t, err)
	assert.NotContains(t, again, "base-1")
}

func TestCompletionRange_WarmsDays(t *testing.T) {
	c, cs, uid := setup(t)
	ctx := context.Background()
	require.NoError(t, c.Store.SaveCompletions(ctx, uid, "2023-06-05", models.DayCompletions{"base-0": true}))

	m, err := c.LoadCompletionRange(ctx, uid, "2023-06-01", "2023-06-30")
	require.NoError(t, err)
	assert.True(t, m.Day("2023-06-05")["base-0"])

	_, err = c.LoadCompletions(ctx, uid, "2023-06-05")
	require.NoError(t, err)
	assert.Equal(t, int32(0), cs.dayLoads.Load())

	_, days := c.Len()
	assert.Equal(t, 1, days)
}

func TestConcurrentAccess(t *testing.T) {
	c, _, uid := setup(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = c.SaveCompletions(ctx, uid, "2023-06-05", models.DayCompletions{"base-0": i%2 == 0})
			_, _ = c.LoadCompletions(ctx, uid, "2023-06-05")
			_, _ = c.LoadCatalog(ctx, uid)
			if i == 3 {
				c.Invalidate(uid)
			}
		}(i)
	}
	wg.Wait()

	got, err := c.LoadCompletions(ctx, uid, "2023-06-05")
	require.NoError(t, err)
	assert.Contains(t, got, "base-0")
}
