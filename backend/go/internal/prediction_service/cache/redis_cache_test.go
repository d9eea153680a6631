package cache

import (
	"context"
	"testing"
	"time"

	"github.com/VarshithKumarK/AgriPredAI/backend/go/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeRecords_KeepsSeq(t *testing.T) {
	at := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	in := []models.PredictionRecord{
		{ID: "b", OwnerID: "u1", CreatedAt: at, Seq: 2, Location: &models.GeoPoint{Lat: 1, Lng: 2}},
		{ID: "a", OwnerID: "u1", CreatedAt: at, Seq: 1},
	}

	raw, err := encodeRecords(in)
	require.NoError(t, err)
	out, err := decodeRecords(raw)
	require.NoError(t, err)

	require.Len(t, out, 2)
	assert.Equal(t, int64(2), out[0].Seq)
	assert.Equal(t, int64(1), out[1].Seq)
	assert.Equal(t, &models.GeoPoint{Lat: 1, Lng: 2}, out[0].Location)
	assert.True(t, out[0].CreatedAt.Equal(at))
}

func TestDecodeRecords_Corrupt(t *testing.T) {
	_, err := decodeRecords([]byte("{not json"))
	assert.Error(t, err)
}

func newMiniCache(t *testing.T, ttl time.Duration) (*RedisHistoryCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisHistoryCache(rdb, ttl), mr
}

func TestRedisHistoryCache_MissStoreInvalidate(t *testing.T) {
	ctx := context.Background()
	c, _ := newMiniCache(t, time.Minute)

	snap, err := c.Lookup(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, snap.Hit)
	assert.Equal(t, int64(0), snap.Version)

	records := []models.PredictionRecord{{ID: "r1", OwnerID: "u1", Seq: 7}}
	require.NoError(t, c.Store(ctx, "u1", snap.Version, records))

	hit, err := c.Lookup(ctx, "u1")
	require.NoError(t, err)
	require.True(t, hit.Hit)
	require.Len(t, hit.Records, 1)
	assert.Equal(t, "r1", hit.Records[0].ID)
	assert.Equal(t, int64(7), hit.Records[0].Seq)

	require.NoError(t, c.Invalidate(ctx, "u1"))
	after, err := c.Lookup(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, after.Hit)
	assert.Equal(t, int64(1), after.Version)
}

func TestRedisHistoryCache_OutdatedFillIsUnreachable(t *testing.T) {
	ctx := context.Background()
	c, _ := newMiniCache(t, time.Minute)

	// A reader misses, a writer invalidates, then the reader fills with what it read before the write.
	slow, err := c.Lookup(ctx, "u1")
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx, "u1"))
	require.NoError(t, c.Store(ctx, "u1", slow.Version, []models.PredictionRecord{{ID: "old", OwnerID: "u1"}}))

	snap, err := c.Lookup(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, snap.Hit)
	assert.Equal(t, slow.Version+1, snap.Version)
}

func TestRedisHistoryCache_OwnersAreSeparate(t *testing.T) {
	ctx := context.Background()
	c, _ := newMiniCache(t, time.Minute)

	require.NoError(t, c.Store(ctx, "u1", 0, []models.PredictionRecord{{ID: "r1", OwnerID: "u1"}}))
	require.NoError(t, c.Invalidate(ctx, "u2"))

	snap, err := c.Lookup(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, snap.Hit)

	other, err := c.Lookup(ctx, "u2")
	require.NoError(t, err)
	assert.False(t, other.Hit)
}

func TestRedisHistoryCache_NonPositiveTTLKeepsVersion(t *testing.T) {
	ctx := context.Background()
	c, mr := newMiniCache(t, 0)

	require.NoError(t, c.Store(ctx, "u1", 0, []models.PredictionRecord{{ID: "old", OwnerID: "u1"}}))
	require.NoError(t, c.Invalidate(ctx, "u1"))

	assert.True(t, mr.Exists(c.versionKey("u1")))
	assert.Equal(t, time.Duration(0), mr.TTL(c.versionKey("u1")))

	snap, err := c.Lookup(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, snap.Hit, "stale history served after invalidate")
	assert.Equal(t, int64(1), snap.Version)
}

func TestRedisHistoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c, mr := newMiniCache(t, time.Minute)

	require.NoError(t, c.Invalidate(ctx, "u1"))
	require.NoError(t, c.Store(ctx, "u1", 1, []models.PredictionRecord{{ID: "r1", OwnerID: "u1"}}))
	assert.Equal(t, 2*time.Minute, mr.TTL(c.versionKey("u1")))
	assert.Equal(t, time.Minute, mr.TTL(c.dataKey("u1", 1)))

	mr.FastForward(90 * time.Second)
	snap, err := c.Lookup(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, snap.Hit)
	assert.Equal(t, int64(1), snap.Version)
}

func TestRedisHistoryCache_Errors(t *testing.T) {
	ctx := context.Background()
	c, mr := newMiniCache(t, time.Minute)

	require.NoError(t, mr.Set(c.dataKey("u1", 0), "{not json"))
	_, err := c.Lookup(ctx, "u1")
	assert.Error(t, err)

	mr.Close()
	_, err = c.Lookup(ctx, "u1")
	assert.Error(t, err)
	assert.Error(t, c.Invalidate(ctx, "u1"))
	assert.Error(t, c.Store(ctx, "u1", 0, nil))
}
