package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/educa-pb/demandas-service/internal/api/http/handlers"
	"github.com/educa-pb/demandas-service/internal/auth"
	"github.com/educa-pb/demandas-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Metrics        *handlers.MetricsHandler
	Chamados       *handlers.ChamadosHandler
	Escolas        *handlers.EscolasHandler
	Chat           *handlers.ChatHandler
	Auth           *handlers.AuthHandler
	AuthMiddleware *auth.AuthMiddleware
	// EnforceAuth requires a principal on mutating routes.
	EnforceAuth bool
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Metrics.Snapshot)

	authGroup := app.Group("/auth")
	authGroup.Post("/escolas/login", cfg.Auth.LoginEscola)
	authGroup.Post("/secretaria/login", cfg.Auth.LoginSecretaria)

	api := app.Group("", cfg.AuthMiddleware.Handle)

	api.Post("/processarDemanda", auth.RequireRole(cfg.EnforceAuth, domain.RoleEscola, domain.RoleSecretaria), cfg.Chamados.ProcessarDemanda)
	api.Patch("/atualizarStatus", auth.RequirePrincipal(cfg.EnforceAuth), cfg.Chamados.AtualizarStatus)
	api.Get("/getDemanda", cfg.Chamados.GetDemanda)
	api.Get("/chamados", auth.RequireRole(cfg.EnforceAuth, domain.RoleSecretaria), cfg.Chamados.List)
	api.Get("/chamados/:inep", cfg.Chamados.ByEscola)

	api.Get("/escolas", cfg.Escolas.List)
	api.Get("/escolas/mapa", cfg.Escolas.Heatmap)
	api.Get("/escolas/:inep", cfg.Escolas.Get)
	api.Get("/mapa/config", cfg.Escolas.MapConfig)

	api.Post("/chat", cfg.Chat.Ask)
}
