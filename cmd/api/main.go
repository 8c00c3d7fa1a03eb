package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/educa-pb/demandas-service/internal/api/http"
	"github.com/educa-pb/demandas-service/internal/api/http/handlers"
	"github.com/educa-pb/demandas-service/internal/auth"
	"github.com/educa-pb/demandas-service/internal/client"
	"github.com/educa-pb/demandas-service/internal/config"
	"github.com/educa-pb/demandas-service/internal/events"
	"github.com/educa-pb/demandas-service/internal/observability"
	"github.com/educa-pb/demandas-service/internal/persistence"
	"github.com/educa-pb/demandas-service/internal/repository"
	"github.com/educa-pb/demandas-service/internal/service"
	"github.com/educa-pb/demandas-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	store, err := repository.NewChamadoStore(cfg.Store, pg.PoolHandle(), logger, metrics)
	if err != nil {
		logger.Fatal("failed to open chamado store", zap.Error(err))
	}
	index := repository.NewChamadoIndex(store)

	escolas, err := repository.LoadEscolas(cfg.Store.EscolasPath, logger)
	if err != nil {
		logger.Fatal("failed to load escolas", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher()
	notifier := worker.NewNotificationWorker(
		client.NewEventWebhook(cfg.Notification.WebhookURL, cfg.Notification.Timeout()),
		logger, metrics, cfg.Notification.Timeout(), 0)
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger, notifier), notifier)
	defer notifier.Stop()

	var model service.TextGenerator
	if cfg.LLM.APIKey != "" {
		model = client.NewGemini(cfg.LLM)
	} else {
		logger.Warn("GEMINI_API_KEY not set; submissions will use the unstructured fallback")
	}
	var relay service.ChatRelay
	if cfg.Chat.WebhookURL != "" {
		relay = client.NewChatWebhook(cfg.Chat.WebhookURL, cfg.Chat.Timeout())
	}
	var heatmapCache service.HeatmapCache
	if redis != nil {
		heatmapCache = redis
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService, err := service.NewAuthService(cfg.Auth, tokens)
	if err != nil {
		logger.Fatal("failed to init auth", zap.Error(err))
	}

	intakeService := service.NewIntakeService(service.IntakeDependencies{
		Store:      store,
		Index:      index,
		Model:      model,
		Timeout:    cfg.LLM.Timeout(),
		Dispatcher: dispatcher,
		Recorder:   metrics,
		Logger:     logger,
	})
	statusService := service.NewStatusService(service.StatusDependencies{
		Store:      store,
		Index:      index,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	deps := map[string]handlers.Pinger{}
	if pg.Enabled() {
		deps["postgres"] = pg
	}
	if redis != nil {
		deps["redis"] = redis
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, store, deps),
		Metrics:        handlers.NewMetricsHandler(metrics),
		Chamados:       handlers.NewChamadosHandler(intakeService, statusService, service.NewQueryService(index)),
		Escolas:        handlers.NewEscolasHandler(service.NewMapService(escolas, index, heatmapCache, cfg.Maps, logger)),
		Chat:           handlers.NewChatHandler(service.NewChatService(relay, metrics, logger)),
		Auth:           handlers.NewAuthHandler(authService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
		EnforceAuth:    cfg.Auth.Enforce,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
