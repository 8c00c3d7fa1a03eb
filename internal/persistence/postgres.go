package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/educa-pb/demandas-service/internal/config"
)

// ErrPostgresDisabled is returned by Ping when no DSN was configured.
var ErrPostgresDisabled = errors.New("postgres not configured")

// Postgres wraps access to a pgx connection pool.
type Postgres struct {
	Pool *pgxpool.Pool
}

const applicationName = "demandas-service"

// NewPostgres opens and pings a pool when a DSN is configured. Without one it
// returns a disabled handle and the file store stays in use.
func NewPostgres(ctx context.Context, cfg config.PostgresConfig, logger *zap.Logger) (*Postgres, error) {
	if cfg.DSN == "" {
		logger.Info("POSTGRES_DSN not provided; skipping database connection")
		return &Postgres{}, nil
	}

	poolCfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres at %s: %w", poolCfg.ConnConfig.Host, err)
	}

	logger.Info("connected to postgres",
		zap.String("host", poolCfg.ConnConfig.Host),
		zap.String("database", poolCfg.ConnConfig.Database),
		zap.Int32("max_conns", poolCfg.MaxConns),
	)
	return &Postgres{Pool: pool}, nil
}

// poolConfig parses the DSN and applies the configured pool limits. The
// session is tagged with the service name unless the DSN sets one.
func poolConfig(cfg config.PostgresConfig) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse POSTGRES_DSN: %w", err)
	}

	if cfg.MinConns > 0 && cfg.MaxConns > 0 && cfg.MinConns > cfg.MaxConns {
		return nil, fmt.Errorf("POSTGRES_MIN_CONNS (%d) exceeds POSTGRES_MAX_CONNS (%d)", cfg.MinConns, cfg.MaxConns)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.ConnMaxIdleSec > 0 {
		poolCfg.MaxConnIdleTime = time.Duration(cfg.ConnMaxIdleSec) * time.Second
	}
	if cfg.ConnMaxLifeSec > 0 {
		poolCfg.MaxConnLifetime = time.Duration(cfg.ConnMaxLifeSec) * time.Second
	}
	if _, ok := poolCfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		poolCfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	}
	return poolCfg, nil
}

// Enabled reports whether a pool was opened.
func (p *Postgres) Enabled() bool {
	return p != nil && p.Pool != nil
}

// Ping verifies database connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	if !p.Enabled() {
		return ErrPostgresDisabled
	}
	return p.Pool.Ping(ctx)
}

// Close releases pool resources.
func (p *Postgres) Close() {
	if p.Enabled() {
		p.Pool.Close()
	}
}

// PoolHandle returns the underlying pgx pool.
func (p *Postgres) PoolHandle() *pgxpool.Pool {
	if p == nil {
		return nil
	}
	return p.Pool
}
