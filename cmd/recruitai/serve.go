package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kiranshivaraju/recruitai/internal/api"
	"github.com/kiranshivaraju/recruitai/internal/api/handler"
	mw "github.com/kiranshivaraju/recruitai/internal/api/middleware"
	"github.com/kiranshivaraju/recruitai/internal/batch"
	"github.com/kiranshivaraju/recruitai/internal/keys"
	"github.com/kiranshivaraju/recruitai/internal/store"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	log := a.zap

	st, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	log.Info("store ready", zap.String("driver", cfg.DatabaseDriver()))

	runner := a.newRunner(batch.NewStoreRecorder(st, a.cache))
	analyze := handler.NewAnalyzeHandler(runner, a.thresholds())
	batches := handler.NewBatchesHandler(st, a.cache)

	deps := api.Dependencies{
		HealthHandler:          handler.NewHealthHandler(st, nil),
		GenerateJobDescription: handler.NewGenerateJobDescriptionHandler(a.service),
		JobDescriptionFile:     handler.NewJobDescriptionFileHandler(),
		AnalyzeResumes:         analyze.Resumes(false),
		StreamResumes:          analyze.Resumes(true),
		AnalyzeJobs:            analyze.Jobs(false),
		StreamJobs:             analyze.Jobs(true),
		ListBatches:            batches.List,
		GetBatch:               batches.Get,
		ExportBatch:            batches.Export,
		ListKeys:               handler.NewListKeysHandler(a.pool),
		ReloadKeys:             handler.NewReloadKeysHandler(a.pool),
	}
	if a.redis != nil {
		deps.RateLimit = mw.NewRateLimit(a.redis, cfg.Server.RateLimitPerMinute)
		deps.HealthHandler = handler.NewHealthHandler(st, a.redis)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     api.NewRouter(deps),
		ReadTimeout: 60 * time.Second,
		// streamed batches stay open until the batch deadline
		WriteTimeout: cfg.Batch.Deadline + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server listening", zap.String("addr", addr), zap.String("env", cfg.Server.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	if path := cfg.AI.KeysFile; path != "" {
		if _, err := os.Stat(path); err == nil {
			g.Go(func() error {
				return keys.Watch(gctx, path, a.pool, a.log)
			})
		} else {
			log.Debug("keys file not found, hot reload disabled", zap.String("file", path))
		}
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down, draining connections")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		log.Info("server stopped gracefully")
		return nil
	})

	return g.Wait()
}
