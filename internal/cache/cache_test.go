package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/recruitai/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis spins up a Redis container and returns a connected RedisCache + cleanup.
func setupRedis(t *testing.T) *cache.RedisCache {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, container.Terminate(ctx)) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	redisURL := "redis://" + host + ":" + port.Port()
	rc, err := cache.NewRedisCache(redisURL)
	require.NoError(t, err)

	return rc
}

// --- Ping ---

func TestPing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	err := rc.Ping(context.Background())
	assert.NoError(t, err)
}

// --- Set / Get roundtrip ---

func TestSetGet_Roundtrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()

	err := rc.Set(ctx, "test:key", []byte("hello"), 10*time.Second)
	require.NoError(t, err)

	val, found, err := rc.Get(ctx, "test:key")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("hello"), val)
}

func TestGet_NotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)

	val, found, err := rc.Get(context.Background(), "nonexistent:key")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, val)
}

func TestSet_TTLExpiry(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()

	err := rc.Set(ctx, "expiry:key", []byte("temp"), 1*time.Second)
	require.NoError(t, err)

	// Immediately should exist
	_, found, err := rc.Get(ctx, "expiry:key")
	require.NoError(t, err)
	assert.True(t, found)

	// Wait for TTL to expire
	time.Sleep(1500 * time.Millisecond)

	_, found, err = rc.Get(ctx, "expiry:key")
	require.NoError(t, err)
	assert.False(t, found)
}

// --- Delete ---

func TestDelete(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, rc.Set(ctx, "del:key", []byte("bye"), 10*time.Second))

	err := rc.Delete(ctx, "del:key")
	require.NoError(t, err)

	_, found, err := rc.Get(ctx, "del:key")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDelete_NonExistent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)

	err := rc.Delete(context.Background(), "does:not:exist")
	assert.NoError(t, err)
}

// --- Batch Progress ---

func TestSetGetBatchProgress(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()
	batchID := uuid.New()

	want := cache.BatchProgress{Percentage: 45, Status: "analyzing", Index: 1, Total: 2}
	require.NoError(t, rc.SetBatchProgress(ctx, batchID, want, 10*time.Second))

	got, found, err := rc.GetBatchProgress(ctx, batchID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)
}

func TestGetBatchProgress_NotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)

	got, found, err := rc.GetBatchProgress(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, found)
	assert.Zero(t, got)
}

func TestGetBatchProgress_CorruptValue(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()
	batchID := uuid.New()

	require.NoError(t, rc.Set(ctx, cache.BatchProgressKey(batchID), []byte("not json"), 10*time.Second))
	_, found, err := rc.GetBatchProgress(ctx, batchID)
	assert.Error(t, err)
	assert.False(t, found)
}

// --- IncrWithExpiry ---

func TestIncrWithExpiry(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()
	key := "ratelimit:test:" + uuid.NewString()[:8]

	val, err := rc.IncrWithExpiry(ctx, key, 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), val)

	val, err = rc.IncrWithExpiry(ctx, key, 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(2), val)

	val, err = rc.IncrWithExpiry(ctx, key, 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(3), val)
}

func TestIncrWithExpiry_Expires(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	rc := setupRedis(t)
	ctx := context.Background()
	key := "ratelimit:expiry:" + uuid.NewString()[:8]

	_, err := rc.IncrWithExpiry(ctx, key, 1*time.Second)
	require.NoError(t, err)

	time.Sleep(1500 * time.Millisecond)

	// After expiry, should start from 1 again
	val, err := rc.IncrWithExpiry(ctx, key, 10*time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), val)
}

// --- NopCache ---

func TestNopCache(t *testing.T) {
	var c cache.Cache = cache.NopCache{}
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	_, found, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	n, err := c.IncrWithExpiry(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, c.Ping(ctx))
}

// --- Cache Key Builders ---

func TestCompletionKey(t *testing.T) {
	assert.Equal(t, "completion:abc123", cache.CompletionKey("abc123"))
}

func TestBatchProgressKey(t *testing.T) {
	batchID := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	assert.Equal(t, "batch:22222222-2222-2222-2222-222222222222:progress", cache.BatchProgressKey(batchID))
}

func TestRateLimitKey(t *testing.T) {
	assert.Equal(t, "ratelimit:10.0.0.1", cache.RateLimitKey("10.0.0.1"))
}

func TestKeyBuilders_NonColliding(t *testing.T) {
	keys := map[string]bool{
		cache.CompletionKey("hash1"):        true,
		cache.BatchProgressKey(uuid.New()): true,
		cache.RateLimitKey("127.0.0.1"):    true,
	}
	assert.Len(t, keys, 3, "all keys should be unique")
}
