package badger

import (
	"context"
	"testing"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visionforge/forge-core/internal/domain/entities"
)

func setupTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	cache, err := NewCache(t.TempDir(), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func sampleReport() *entities.Report {
	return entities.NewReport("char-1", []entities.Violation{
		{
			Type:        entities.ViolationPowerInconsistency,
			Severity:    entities.SeverityHigh,
			Title:       "Power source conflicts with origin",
			Description: "supernatural power on a mundane origin",
		},
	}, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
}

func TestNewCache(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		cache, err := NewCache(t.TempDir(), time.Hour)
		require.NoError(t, err)
		defer cache.Close()
		assert.NotNil(t, cache)
	})

	t.Run("error with empty directory", func(t *testing.T) {
		_, err := NewCache("", time.Hour)
		require.Error(t, err)
	})
}

func TestCache_SetGet(t *testing.T) {
	cache := setupTestCache(t, time.Hour)
	ctx := context.Background()

	report := sampleReport()
	require.NoError(t, cache.Set(ctx, "character:char-1:v3", report))

	got, ok, err := cache.Get(ctx, "character:char-1:v3")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, report.CharacterID, got.CharacterID)
	assert.Equal(t, report.TotalViolations, got.TotalViolations)
	require.Len(t, got.Violations, 1)
	assert.Equal(t, "Power source conflicts with origin", got.Violations[0].Title)
	assert.True(t, report.CheckedAt.Equal(got.CheckedAt))
}

func TestCache_GetMiss(t *testing.T) {
	cache := setupTestCache(t, time.Hour)

	got, ok, err := cache.Get(context.Background(), "character:ghost:v1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestCache_SetReplaces(t *testing.T) {
	cache := setupTestCache(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "content:abc", sampleReport()))

	updated := entities.NewReport("char-1", nil, time.Now().UTC())
	require.NoError(t, cache.Set(ctx, "content:abc", updated))

	got, ok, err := cache.Get(ctx, "content:abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Zero(t, got.TotalViolations)
}

func TestCache_TTL(t *testing.T) {
	t.Run("entries carry expiry when set", func(t *testing.T) {
		cache := setupTestCache(t, time.Hour)
		require.NoError(t, cache.Set(context.Background(), "k", sampleReport()))

		err := cache.db.View(func(txn *badgerdb.Txn) error {
			item, err := txn.Get([]byte("k"))
			require.NoError(t, err)
			assert.NotZero(t, item.ExpiresAt())
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("zero ttl stores without expiry", func(t *testing.T) {
		cache := setupTestCache(t, 0)
		require.NoError(t, cache.Set(context.Background(), "k", sampleReport()))

		err := cache.db.View(func(txn *badgerdb.Txn) error {
			item, err := txn.Get([]byte("k"))
			require.NoError(t, err)
			assert.Zero(t, item.ExpiresAt())
			return nil
		})
		require.NoError(t, err)
	})
}
