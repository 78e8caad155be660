package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/recruitai/internal/config"
)

func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.MaxIdleConns)
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// Open migrates and opens the store selected by the URL scheme of cfg.URL.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Store, error) {
	switch {
	case strings.HasPrefix(cfg.URL, "sqlite://"):
		db, err := OpenSQLite(strings.TrimPrefix(cfg.URL, "sqlite://"))
		if err != nil {
			return nil, err
		}
		if err := RunSQLiteMigrations(db); err != nil {
			db.Close()
			return nil, err
		}
		return NewSQLiteStore(db), nil
	case strings.HasPrefix(cfg.URL, "postgres://"), strings.HasPrefix(cfg.URL, "postgresql://"):
		if err := RunMigrations(cfg.URL); err != nil {
			return nil, err
		}
		pool, err := Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewPostgresStore(pool), nil
	default:
		return nil, fmt.Errorf("unsupported database URL scheme: %q", cfg.URL)
	}
}
