package report

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestCacheFetchJSONPopulatesOnce(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	key, err := cache.BuildKey(ctx, "report", "test")
	require.NoError(t, err)

	loads := 0
	loader := func(context.Context) (any, error) {
		loads++
		return map[string]int{"rows": 3}, nil
	}

	var first, second map[string]int
	require.NoError(t, cache.FetchJSON(ctx, key, &first, loader))
	require.NoError(t, cache.FetchJSON(ctx, key, &second, loader))

	assert.Equal(t, 1, loads)
	assert.Equal(t, first, second)
}

func TestCacheBumpInvalidates(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	before, err := cache.BuildKey(ctx, "report", "x")
	require.NoError(t, err)
	require.NoError(t, cache.Bump(ctx))
	after, err := cache.BuildKey(ctx, "report", "x")
	require.NoError(t, err)

	assert.NotEqual(t, before, after, "version suffix changes after bump")
}

func TestServiceUsesCache(t *testing.T) {
	fd := &stubFeed{orders: sampleOrders()}
	svc := NewService(fd, newTestCache(t), nil)

	req := Request{
		Type: TypePL,
		From: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	}

	first, err := svc.Run(context.Background(), req)
	require.NoError(t, err)
	fetchesAfterFirst := fd.fetches.Load()

	second, err := svc.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, fetchesAfterFirst, fd.fetches.Load(), "second run served from cache")
	assert.Equal(t, first.Totals, second.Totals)
	assert.Equal(t, len(first.Rows), len(second.Rows))
}

func TestCacheKeyVariesByRequest(t *testing.T) {
	a := keyReport(Request{Type: TypePL, From: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), To: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)})
	b := keyReport(Request{Type: TypePL, From: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), To: time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), Filters: Filters{Channel: "POS"}})
	assert.NotEqual(t, a, b)
}
