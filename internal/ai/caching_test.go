package ai_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kiranshivaraju/recruitai/internal/ai"
	"github.com/kiranshivaraju/recruitai/internal/ai/mock"
	"github.com/kiranshivaraju/recruitai/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memCache is an in-memory cache.Cache for tests.
type memCache struct {
	cache.NopCache
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func TestCachingCompleter_HitSkipsBackend(t *testing.T) {
	inner := mock.NewCompleterByType(map[string]string{ai.TypeResumeAnalysis: "Score: 80"})
	cc := ai.NewCachingCompleter(inner, newMemCache(), time.Hour, nil)
	ctx := context.Background()

	first, err := cc.Complete(ctx, "prompt", ai.TypeResumeAnalysis, nil)
	require.NoError(t, err)
	second, err := cc.Complete(ctx, "prompt", ai.TypeResumeAnalysis, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, inner.Calls(), 1)
}

func TestCachingCompleter_DifferentPromptsMiss(t *testing.T) {
	inner := mock.NewCompleterByType(map[string]string{ai.TypeResumeAnalysis: "Score: 80"})
	cc := ai.NewCachingCompleter(inner, newMemCache(), time.Hour, nil)
	ctx := context.Background()

	_, _ = cc.Complete(ctx, "a", ai.TypeResumeAnalysis, nil)
	_, _ = cc.Complete(ctx, "b", ai.TypeResumeAnalysis, nil)
	_, _ = cc.Complete(ctx, "a", ai.TypeResumeAnalysis, map[string]any{"temperature": 0.1})

	assert.Len(t, inner.Calls(), 3)
}

func TestCachingCompleter_UncachedTypePassesThrough(t *testing.T) {
	inner := mock.NewCompleterByType(map[string]string{ai.TypeEmail: "Dear candidate"})
	mc := newMemCache()
	cc := ai.NewCachingCompleter(inner, mc, time.Hour, nil)

	for i := 0; i < 2; i++ {
		_, err := cc.Complete(context.Background(), "p", ai.TypeEmail, nil)
		require.NoError(t, err)
	}
	assert.Len(t, inner.Calls(), 2)
	assert.Empty(t, mc.data)
}

func TestCachingCompleter_ErrorsAreNotCached(t *testing.T) {
	inner := mock.NewCompleterByType(nil)
	mc := newMemCache()
	cc := ai.NewCachingCompleter(inner, mc, time.Hour, nil)

	_, err := cc.Complete(context.Background(), "p", ai.TypeResumeAnalysis, nil)
	assert.ErrorIs(t, err, ai.ErrProviderUnavailable)
	assert.Empty(t, mc.data)
}

func TestCachingCompleter_ReadFailureFallsThrough(t *testing.T) {
	inner := mock.NewCompleterByType(map[string]string{ai.TypeJobAnalysis: "Score: 60"})
	mc := newMemCache()
	mc.getErr = errors.New("redis down")
	cc := ai.NewCachingCompleter(inner, mc, time.Hour, nil)

	text, err := cc.Complete(context.Background(), "p", ai.TypeJobAnalysis, nil)
	require.NoError(t, err)
	assert.Equal(t, "Score: 60", text)
}
