package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/kiranshivaraju/recruitai/internal/ai"
	"github.com/kiranshivaraju/recruitai/internal/analysis"
	"github.com/kiranshivaraju/recruitai/internal/batch"
	"github.com/kiranshivaraju/recruitai/internal/cache"
	"github.com/kiranshivaraju/recruitai/internal/config"
	"github.com/kiranshivaraju/recruitai/internal/keys"
	"github.com/kiranshivaraju/recruitai/internal/logger"
)

// loadConfig reads the environment and lets the persistent flags override
// the log settings.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	flags := rootCmd.PersistentFlags()
	if flags.Changed("debug") {
		cfg.Log.Debug = viper.GetBool("debug")
	}
	if flags.Changed("json") {
		cfg.Log.JSON = viper.GetBool("json")
	}
	return cfg, nil
}

// app holds everything shared by the serve, analyze and mcp commands.
type app struct {
	cfg     *config.Config
	zap     *zap.Logger
	log     *slog.Logger
	pool    *keys.Pool
	cache   cache.Cache
	redis   *cache.RedisCache
	service *ai.RecruitmentService
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	z, s, err := logger.Setup(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	a := &app{cfg: cfg, zap: z, log: s, cache: cache.NopCache{}}

	if cfg.Redis.URL != "" {
		rc, err := cache.NewRedisCache(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("create redis cache: %w", err)
		}
		if err := rc.Ping(ctx); err != nil {
			rc.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		a.redis, a.cache = rc, rc
		z.Info("redis connected")
	}

	pool, err := keys.NewPool(ai.NewKeySource(cfg.AI),
		keys.WithCooldown(cfg.AI.KeyCooldown),
		keys.WithLogger(s))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load api keys: %w", err)
	}
	a.pool = pool

	backend, err := ai.NewBackend(cfg.AI)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create AI backend: %w", err)
	}

	var completer ai.Completer = ai.NewGateway(backend, pool, ai.GatewayConfigFrom(cfg.AI), ai.WithGatewayLogger(s))
	if a.redis != nil {
		completer = ai.NewCachingCompleter(completer, a.cache, cfg.AI.CacheTTL, s)
	}
	a.service = ai.NewRecruitmentService(completer, cfg.Batch.MinEmailLength, s)

	z.Info("AI gateway initialized",
		zap.String("provider", backend.Name()),
		zap.Strings("models", cfg.AI.Models),
		zap.Int("keys", pool.Len()))
	return a, nil
}

func (a *app) thresholds() analysis.Thresholds {
	return analysis.Thresholds{
		MinimumScore:     a.cfg.Batch.MinimumScore,
		MaxMissingSkills: a.cfg.Batch.MaxMissingSkills,
	}
}

func (a *app) newRunner(rec batch.Recorder, opts ...batch.Option) *batch.Runner {
	opts = append([]batch.Option{
		batch.WithMaxItems(a.cfg.Batch.MaxItems),
		batch.WithPace(a.cfg.Batch.EventPace),
		batch.WithDeadline(a.cfg.Batch.Deadline),
		batch.WithRecorder(rec),
		batch.WithLogger(a.log),
	}, opts...)
	return batch.NewRunner(batch.NewServiceEvaluator(a.service), opts...)
}

func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
	_ = a.zap.Sync()
}
