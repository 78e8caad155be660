package ai

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/kiranshivaraju/recruitai/internal/cache"
	"golang.org/x/crypto/blake2b"
)

// CachingCompleter serves repeated analysis prompts from the cache. Only
// completion types listed in types are cached; creative outputs such as
// emails always go to the backend.
type CachingCompleter struct {
	next   Completer
	cache  cache.Cache
	ttl    time.Duration
	types  map[string]bool
	logger *slog.Logger
}

// NewCachingCompleter wraps next. With no types given, the two analysis types
// are cached.
func NewCachingCompleter(next Completer, c cache.Cache, ttl time.Duration, logger *slog.Logger, types ...string) *CachingCompleter {
	if len(types) == 0 {
		types = []string{TypeResumeAnalysis, TypeJobAnalysis}
	}
	set := make(map[string]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachingCompleter{next: next, cache: c, ttl: ttl, types: set, logger: logger}
}

func (c *CachingCompleter) Complete(ctx context.Context, prompt, completionType string, overrides map[string]any) (string, error) {
	if !c.types[completionType] || c.ttl <= 0 {
		return c.next.Complete(ctx, prompt, completionType, overrides)
	}

	key := cache.CompletionKey(completionDigest(prompt, completionType, overrides))
	if raw, found, err := c.cache.Get(ctx, key); err != nil {
		c.logger.Warn("completion cache read failed", "error", err)
	} else if found {
		c.logger.Debug("completion cache hit", "completion_type", completionType)
		return string(raw), nil
	}

	text, err := c.next.Complete(ctx, prompt, completionType, overrides)
	if err != nil {
		return "", err
	}
	if err := c.cache.Set(ctx, key, []byte(text), c.ttl); err != nil {
		c.logger.Warn("completion cache write failed", "error", err)
	}
	return text, nil
}

// completionDigest hashes everything that can change the completion.
// json.Marshal sorts map keys, so equal overrides hash equally.
func completionDigest(prompt, completionType string, overrides map[string]any) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(completionType))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	if len(overrides) > 0 {
		raw, _ := json.Marshal(overrides)
		h.Write([]byte{0})
		h.Write(raw)
	}
	return hex.EncodeToString(h.Sum(nil))
}

var _ Completer = (*CachingCompleter)(nil)
