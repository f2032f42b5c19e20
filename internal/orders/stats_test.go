package orders

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nectar-erp/nectar-erp/internal/workflow"
)

type countingStatsRepo struct {
	*mockRepository
	countCalls int
}

func (r *countingStatsRepo) CountStats(ctx context.Context) (Stats, error) {
	r.countCalls++
	return r.mockRepository.CountStats(ctx)
}

func mustNewOrder(t *testing.T, orderNumber string) *workflow.Order {
	t.Helper()
	order, err := workflow.NewOrder(workflow.OrderTypeDistributor, orderNumber, "Sunrise Traders",
		time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC), 45000)
	require.NoError(t, err)
	return order
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestStatsCacheServesSecondReadFromRedis(t *testing.T) {
	repo := &countingStatsRepo{mockRepository: newMockRepository()}
	_, err := repo.Create(context.Background(), mustNewOrder(t, "ORD-2026-001"))
	require.NoError(t, err)

	cache := NewStatsCache(repo, newTestRedis(t), time.Minute, slog.Default())

	first, err := cache.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Total)
	assert.Equal(t, 1, first.Pending)

	second, err := cache.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.countCalls)
}

func TestStatsCacheInvalidateForcesRescan(t *testing.T) {
	repo := &countingStatsRepo{mockRepository: newMockRepository()}
	cache := NewStatsCache(repo, newTestRedis(t), time.Minute, slog.Default())

	_, err := cache.Stats(context.Background())
	require.NoError(t, err)

	_, err = repo.Create(context.Background(), mustNewOrder(t, "ORD-2026-002"))
	require.NoError(t, err)
	cache.Invalidate(context.Background())

	stats, err := cache.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 2, repo.countCalls)
}

func TestStatsCacheDegradesWithoutRedis(t *testing.T) {
	repo := &countingStatsRepo{mockRepository: newMockRepository()}
	cache := NewStatsCache(repo, nil, time.Minute, slog.Default())

	_, err := cache.Stats(context.Background())
	require.NoError(t, err)
	_, err = cache.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.countCalls)
}
