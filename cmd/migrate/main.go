package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/educa-pb/demandas-service/internal/config"
	"github.com/educa-pb/demandas-service/internal/observability"
	"github.com/educa-pb/demandas-service/internal/persistence"
	"github.com/educa-pb/demandas-service/internal/repository"
	"github.com/educa-pb/demandas-service/internal/service"
)

func main() {
	var dryRun bool
	flagSet := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	flagSet.BoolVarP(&dryRun, "dry-run", "n", false, "report changes without writing the store")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("invalid arguments: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Store.Driver == config.StoreDriverPostgres {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	metrics := observability.NewMetrics()
	store, err := repository.NewChamadoStore(cfg.Store, pg.PoolHandle(), logger, metrics)
	if err != nil {
		logger.Fatal("failed to open chamado store", zap.Error(err))
	}

	report, err := service.MigrateStore(ctx, store, dryRun, logger)
	if err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}
	if n := metrics.Snapshot().StoreDegraded; len(n) > 0 {
		logger.Warn("store was unreadable and has been treated as empty", zap.Any("store_degraded", n))
	}
	fmt.Println(report)
}
