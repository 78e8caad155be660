package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kiranshivaraju/recruitai/internal/keys"
	"github.com/kiranshivaraju/recruitai/internal/logger"
	"github.com/kiranshivaraju/recruitai/pkg/models"
)

// Completer is the prompt-in/text-out contract the rest of the system depends on.
type Completer interface {
	Complete(ctx context.Context, prompt, completionType string, overrides map[string]any) (string, error)
}

// GatewayConfig controls the fallback matrix.
type GatewayConfig struct {
	Models         []string
	Timeout        time.Duration
	RetryDelay     time.Duration
	BackoffBase    time.Duration
	MaxRetries     int
	ReloadEachCall bool
}

// Gateway tries every model in order and, per model, cycles the credential pool
// with bounded retries. Models are the outer loop so the strongest model is
// exhausted across all keys before a weaker one is used.
type Gateway struct {
	backend  models.CompletionBackend
	pool     *keys.Pool
	cfg      GatewayConfig
	profiles map[string]models.CompletionProfile
	logger   *slog.Logger
	sleep    func(ctx context.Context, d time.Duration) error
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithProfiles replaces DefaultProfiles.
func WithProfiles(p map[string]models.CompletionProfile) GatewayOption {
	return func(g *Gateway) { g.profiles = p }
}

// WithGatewayLogger sets the logger.
func WithGatewayLogger(l *slog.Logger) GatewayOption {
	return func(g *Gateway) { g.logger = l }
}

// WithSleeper replaces the context-aware sleep used for delays and backoff.
func WithSleeper(fn func(ctx context.Context, d time.Duration) error) GatewayOption {
	return func(g *Gateway) { g.sleep = fn }
}

// NewGateway creates a Gateway. Zero config values fall back to 10s attempt
// timeout and a single retry cycle.
func NewGateway(backend models.CompletionBackend, pool *keys.Pool, cfg GatewayConfig, opts ...GatewayOption) *Gateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	g := &Gateway{
		backend:  backend,
		pool:     pool,
		cfg:      cfg,
		profiles: DefaultProfiles(),
		logger:   slog.Default(),
		sleep:    sleepCtx,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// callState is the bookkeeping for one Complete call. pos is the call's own
// rotation position; the shared pool cursor only moves when an attempt
// succeeds, so concurrent calls never undo each other's progress.
type callState struct {
	pos      int
	attempts int
	lastErr  error
	// per credential index: attempts made and how many were auth failures
	tally map[int]*credTally
}

type credTally struct {
	cred  keys.Credential
	total int
	auth  int
}

func (s *callState) record(c keys.Credential, kind models.ErrorKind, failed bool) {
	t, ok := s.tally[c.Index]
	if !ok {
		t = &credTally{cred: c}
		s.tally[c.Index] = t
	}
	t.total++
	if failed && kind == models.KindAuth {
		t.auth++
	}
}

// Complete resolves the profile for completionType, merges overrides on top and
// runs the fallback matrix. It returns *ExhaustionError when nothing succeeded,
// in which case the pool cursor is left at the call's origin.
func (g *Gateway) Complete(ctx context.Context, prompt, completionType string, overrides map[string]any) (string, error) {
	profile, err := resolveProfile(g.profiles, completionType, overrides)
	if err != nil {
		return "", err
	}
	messages := []models.Message{
		{Role: models.RoleSystem, Content: profile.SystemMessage},
		{Role: models.RoleUser, Content: prompt},
	}

	if g.cfg.ReloadEachCall {
		g.pool.Reload()
	}

	state := &callState{pos: g.pool.Index(), tally: make(map[int]*credTally)}
	defer g.coolInvalidKeys(state)

	g.logger.Debug("completion requested",
		"completion_type", completionType,
		"prompt_preview", logger.TruncateForLog(prompt, 120))

	for _, model := range g.cfg.Models {
		text, err := g.tryModel(ctx, model, profile, messages, state)
		if err == nil {
			g.logger.Info("completion succeeded",
				append(logger.ProviderAttrs(g.backend.Name(), model),
					"completion_type", completionType, "attempts", state.attempts)...)
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		g.logger.Warn("model exhausted, falling back", append(logger.ProviderAttrs(g.backend.Name(), model), "error", err)...)
	}

	last := state.lastErr
	if last == nil {
		last = keys.ErrNoCredentials
	}
	return "", &ExhaustionError{CompletionType: completionType, Attempts: state.attempts, Last: last}
}

// tryModel runs up to MaxRetries cycles over the pool for one model.
func (g *Gateway) tryModel(ctx context.Context, model string, profile models.CompletionProfile, messages []models.Message, state *callState) (string, error) {
	for cycle := 0; cycle < g.cfg.MaxRetries; cycle++ {
		if cycle > 0 {
			if err := g.sleep(ctx, g.cfg.BackoffBase*time.Duration(1<<(cycle-1))); err != nil {
				return "", err
			}
		}

		text, abandon, err := g.runCycle(ctx, model, profile, messages, state, cycle)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if abandon {
			return "", err
		}
	}
	return "", fmt.Errorf("model %s: %w", model, state.lastErr)
}

// runCycle walks the pool once starting at the call's position. abandon is
// set when the model itself is unavailable.
func (g *Gateway) runCycle(ctx context.Context, model string, profile models.CompletionProfile, messages []models.Message, state *callState, cycle int) (text string, abandon bool, err error) {
	cred, ok := g.pool.Next(state.pos - 1)
	if !ok {
		state.lastErr = keys.ErrNoCredentials
		return "", true, keys.ErrNoCredentials
	}
	state.pos = cred.Index - 1

	tried := make(map[int]bool)
	rateLimited := 0
	for {
		tried[cred.Index] = true
		state.attempts++

		text, err := g.attempt(ctx, model, profile, messages, cred)
		if err == nil {
			state.record(cred, models.KindOther, false)
			g.pool.Restore(cred.Index - 1)
			return text, false, nil
		}
		if ctx.Err() != nil {
			return "", false, ctx.Err()
		}

		kind := KindOf(err)
		state.record(cred, kind, true)
		state.lastErr = err
		g.logger.Warn("completion attempt failed",
			append(logger.ProviderAttrs(g.backend.Name(), model),
				"key_index", cred.Index, "cycle", cycle, "kind", kind.String(), "error", err)...)

		switch kind {
		case models.KindModelUnavailable:
			return "", true, err
		case models.KindRateLimit:
			rateLimited++
			if rateLimited >= g.pool.Len() {
				return "", false, err
			}
		case models.KindAuth:
		default:
			if err := g.sleep(ctx, g.cfg.RetryDelay); err != nil {
				return "", false, err
			}
		}

		next, ok := g.pool.Next(state.pos)
		if !ok {
			return "", false, err
		}
		state.pos = next.Index - 1
		if tried[next.Index] {
			return "", false, err
		}
		cred = next
	}
}

func (g *Gateway) attempt(ctx context.Context, model string, profile models.CompletionProfile, messages []models.Message, cred keys.Credential) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	text, err := g.backend.Complete(attemptCtx, models.CompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: profile.Temperature,
		MaxTokens:   profile.MaxTokens,
		APIKey:      cred.Secret,
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", &models.ProviderError{Kind: models.KindOther, Provider: g.backend.Name(), Model: model, Err: ErrInvalidResponse}
	}
	return text, nil
}

// coolInvalidKeys puts credentials whose every attempt in this call was
// rejected as unauthorized into the pool cooldown.
func (g *Gateway) coolInvalidKeys(state *callState) {
	for _, t := range state.tally {
		if t.total > 0 && t.auth == t.total {
			g.pool.MarkFailed(t.cred)
			g.logger.Warn("api key rejected on every attempt, cooling down", "key_index", t.cred.Index)
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var _ Completer = (*Gateway)(nil)
