package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/educa-pb/demandas-service/internal/api/http/handlers"
	"github.com/educa-pb/demandas-service/internal/auth"
	"github.com/educa-pb/demandas-service/internal/config"
	"github.com/educa-pb/demandas-service/internal/domain"
	"github.com/educa-pb/demandas-service/internal/events"
	"github.com/educa-pb/demandas-service/internal/observability"
	"github.com/educa-pb/demandas-service/internal/repository"
	"github.com/educa-pb/demandas-service/internal/service"
)

type stubModel struct {
	output string
	err    error
}

func (s stubModel) Generate(context.Context, string) (string, error) {
	return s.output, s.err
}

type testServer struct {
	app     *fiber.App
	store   *repository.FileChamadoStore
	tokens  *auth.TokenManager
	metrics *observability.Metrics
}

func newTestServer(t *testing.T, seed []domain.Chamado, model service.TextGenerator, enforce bool) *testServer {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	dir := t.TempDir()
	store := repository.NewFileChamadoStore(filepath.Join(dir, "chamados.json"), logger, metrics)
	if seed != nil {
		if err := store.WriteAll(context.Background(), seed); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	index := repository.NewChamadoIndex(store)
	lat, lng := -7.11, -34.86
	escolas := repository.NewEscolaRepository([]domain.Escola{
		{INEP: "2512345", Nome: "EEEF Centro", Latitude: &lat, Longitude: &lng},
	})
	dispatcher := events.NewInMemoryDispatcher()
	tokens := auth.NewTokenManager("test-secret", 5)

	authService, err := service.NewAuthService(config.AuthConfig{
		BcryptCost: bcrypt.MinCost,
		Escola:     config.EscolaAccount{INEP: "2512345", Email: "escola@pb.gov.br", Password: "senha"},
		Secretaria: config.SecretariaAccount{CPF: "1", Email: "sec@pb.gov.br", Token: "2", Password: "senha"},
	}, tokens)
	if err != nil {
		t.Fatal(err)
	}

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:  handlers.NewHealthHandler("demandas-service", "test", store, nil),
		Metrics: handlers.NewMetricsHandler(metrics),
		Chamados: handlers.NewChamadosHandler(
			service.NewIntakeService(service.IntakeDependencies{
				Store: store, Index: index, Model: model, Timeout: time.Second,
				Dispatcher: dispatcher, Recorder: metrics, Logger: logger,
			}),
			service.NewStatusService(service.StatusDependencies{Store: store, Index: index, Dispatcher: dispatcher, Logger: logger}),
			service.NewQueryService(index),
		),
		Escolas:        handlers.NewEscolasHandler(service.NewMapService(escolas, index, nil, config.MapsConfig{}, logger)),
		Chat:           handlers.NewChatHandler(service.NewChatService(nil, metrics, logger)),
		Auth:           handlers.NewAuthHandler(authService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
		EnforceAuth:    enforce,
	})
	return &testServer{app: app, store: store, tokens: tokens, metrics: metrics}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) (int, []byte, string) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, resp.Header.Get(fiber.HeaderCacheControl)
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("decode error body %s: %v", body, err)
	}
	return envelope.Error.Code
}

func TestProcessarDemandaFallbackWhenModelUnavailable(t *testing.T) {
	s := newTestServer(t, nil, stubModel{err: errors.New("unavailable")}, false)

	status, body, _ := s.do(t, fiber.MethodPost, "/processarDemanda",
		map[string]any{"texto": "O portão está quebrado", "inep": 2512345, "escolaId": "esc-9"}, "")
	if status != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", status, body)
	}
	var created domain.Chamado
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatal(err)
	}
	if created.Descricao != "O portão está quebrado" || created.Tipo != domain.TipoOutros {
		t.Fatalf("unexpected fallback ticket %+v", created)
	}
	if created.Status != domain.StatusAguardandoEscola || created.ID == "" {
		t.Fatalf("unexpected ticket state %+v", created)
	}
}

func TestProcessarDemandaMissingFields(t *testing.T) {
	s := newTestServer(t, nil, nil, false)
	status, body, _ := s.do(t, fiber.MethodPost, "/processarDemanda", map[string]any{"texto": "x"}, "")
	if status != fiber.StatusBadRequest || errorCode(t, body) != "VALIDATION_FAILED" {
		t.Fatalf("expected 400 VALIDATION_FAILED, got %d %s", status, body)
	}
}

func TestAtualizarStatusScenarios(t *testing.T) {
	s := newTestServer(t, []domain.Chamado{
		{ID: "abc", INEP: "2512345", Titulo: "t", Status: domain.StatusAguardandoEscola},
	}, nil, false)

	status, body, _ := s.do(t, fiber.MethodPatch, "/atualizarStatus", map[string]string{"id": "abc", "acao": "aceitar"}, "")
	if status != fiber.StatusOK {
		t.Fatalf("aceitar: %d %s", status, body)
	}
	var res struct {
		Message string         `json:"message"`
		Chamado domain.Chamado `json:"chamado"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		t.Fatal(err)
	}
	if res.Message == "" || res.Chamado.ID != "abc" {
		t.Fatalf("unexpected response %s", body)
	}

	before, err := os.ReadFile(s.store.Path())
	if err != nil {
		t.Fatal(err)
	}
	status, body, _ = s.do(t, fiber.MethodPatch, "/atualizarStatus", map[string]string{"id": "missing", "acao": "aceitar"}, "")
	if status != fiber.StatusNotFound || errorCode(t, body) != "NOT_FOUND" {
		t.Fatalf("expected 404, got %d %s", status, body)
	}
	after, _ := os.ReadFile(s.store.Path())
	if !bytes.Equal(before, after) {
		t.Fatal("store changed on NotFound")
	}

	status, body, _ = s.do(t, fiber.MethodPatch, "/atualizarStatus", map[string]string{"id": "abc", "acao": "arquivar"}, "")
	if status != fiber.StatusBadRequest || errorCode(t, body) != "INVALID_ACTION" {
		t.Fatalf("expected 400 INVALID_ACTION, got %d %s", status, body)
	}

	if status, body, _ = s.do(t, fiber.MethodPatch, "/atualizarStatus", map[string]string{"id": "abc", "acao": "rejeitar"}, ""); status != fiber.StatusOK {
		t.Fatalf("rejeitar: %d %s", status, body)
	}
	status, body, _ = s.do(t, fiber.MethodPatch, "/atualizarStatus", map[string]string{"id": "abc", "acao": "concluir"}, "")
	if status != fiber.StatusConflict || errorCode(t, body) != "INVALID_TRANSITION" {
		t.Fatalf("terminal ticket should reject transitions, got %d %s", status, body)
	}
}

func TestQueryRoutes(t *testing.T) {
	s := newTestServer(t, []domain.Chamado{
		{ID: "old", INEP: "2512345", DataCriacao: "2024-01-01T00:00:00Z", Status: domain.StatusEmAndamento},
		{ID: "new", INEP: "2512345", DataCriacao: "2024-02-01T00:00:00Z", Status: domain.StatusAguardandoEscola},
		{ID: "other", INEP: "999", DataCriacao: "2024-03-01T00:00:00Z", Status: domain.StatusEmAndamento},
	}, nil, false)

	status, body, cache := s.do(t, fiber.MethodGet, "/chamados/251234-5", nil, "")
	if status != fiber.StatusOK || cache != "private, max-age=5" {
		t.Fatalf("by path: %d %q %s", status, cache, body)
	}
	var list []domain.Chamado
	if err := json.Unmarshal(body, &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != "new" || list[1].ID != "old" {
		t.Fatalf("unexpected list %s", body)
	}

	status, body, _ = s.do(t, fiber.MethodGet, "/getDemanda?inep=0000", nil, "")
	if status != fiber.StatusOK || string(body) != "[]" {
		t.Fatalf("unknown school should be an empty array, got %d %s", status, body)
	}

	status, body, _ = s.do(t, fiber.MethodGet, "/getDemanda", nil, "")
	if status != fiber.StatusBadRequest {
		t.Fatalf("missing inep should be 400, got %d %s", status, body)
	}

	status, body, _ = s.do(t, fiber.MethodGet, "/chamados?status=Em%20andamento", nil, "")
	if err := json.Unmarshal(body, &list); err != nil || status != fiber.StatusOK || len(list) != 2 {
		t.Fatalf("status filter: %d %s", status, body)
	}
}

func TestEmptyStoreQueryReturnsEmptyArray(t *testing.T) {
	s := newTestServer(t, nil, nil, false)
	if err := os.WriteFile(s.store.Path(), []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}
	status, body, _ := s.do(t, fiber.MethodGet, "/chamados/123", nil, "")
	if status != fiber.StatusOK || string(body) != "[]" {
		t.Fatalf("expected [], got %d %s", status, body)
	}
}

func TestEscolaRoutes(t *testing.T) {
	s := newTestServer(t, []domain.Chamado{{ID: "a", INEP: "2512345"}}, nil, false)

	status, body, _ := s.do(t, fiber.MethodGet, "/escolas/mapa", nil, "")
	var pesos []domain.EscolaPeso
	if err := json.Unmarshal(body, &pesos); err != nil || status != fiber.StatusOK {
		t.Fatalf("heatmap: %d %s", status, body)
	}
	if len(pesos) != 1 || pesos[0].Count != 1 || pesos[0].Weight != 60 {
		t.Fatalf("unexpected heatmap %s", body)
	}

	if status, _, _ := s.do(t, fiber.MethodGet, "/escolas/2512345", nil, ""); status != fiber.StatusOK {
		t.Fatalf("get escola: %d", status)
	}
	if status, _, _ := s.do(t, fiber.MethodGet, "/escolas/1", nil, ""); status != fiber.StatusNotFound {
		t.Fatalf("unknown escola: %d", status)
	}

	status, body, _ = s.do(t, fiber.MethodGet, "/mapa/config", nil, "")
	if status != fiber.StatusOK || string(body) != `{"disponivel":false}` {
		t.Fatalf("map config: %d %s", status, body)
	}
}

func TestChatNotConfigured(t *testing.T) {
	s := newTestServer(t, nil, nil, false)
	status, body, _ := s.do(t, fiber.MethodPost, "/chat", map[string]string{"texto": "oi"}, "")
	if status != fiber.StatusServiceUnavailable || errorCode(t, body) != "UPSTREAM_UNAVAILABLE" {
		t.Fatalf("expected 503, got %d %s", status, body)
	}
}

func TestLoginAndEnforcedRoles(t *testing.T) {
	s := newTestServer(t, []domain.Chamado{
		{ID: "abc", INEP: "2512345", Status: domain.StatusAguardandoEscola},
	}, nil, true)

	status, body, _ := s.do(t, fiber.MethodPatch, "/atualizarStatus", map[string]string{"id": "abc", "acao": "concluir"}, "")
	if status != fiber.StatusUnauthorized {
		t.Fatalf("anonymous mutation should be 401 when enforced, got %d %s", status, body)
	}

	status, body, _ = s.do(t, fiber.MethodPost, "/auth/escolas/login",
		map[string]any{"inep": 2512345, "email": "escola@pb.gov.br", "password": "senha"}, "")
	if status != fiber.StatusOK {
		t.Fatalf("login: %d %s", status, body)
	}
	var login struct {
		Token string      `json:"token"`
		Role  domain.Role `json:"role"`
	}
	if err := json.Unmarshal(body, &login); err != nil || login.Role != domain.RoleEscola {
		t.Fatalf("login body: %s", body)
	}

	status, body, _ = s.do(t, fiber.MethodPatch, "/atualizarStatus", map[string]string{"id": "abc", "acao": "aceitar"}, login.Token)
	if status != fiber.StatusForbidden {
		t.Fatalf("escola cannot aceitar, got %d %s", status, body)
	}
	status, body, _ = s.do(t, fiber.MethodPatch, "/atualizarStatus", map[string]string{"id": "abc", "acao": "concluir"}, login.Token)
	if status != fiber.StatusOK {
		t.Fatalf("escola concluir: %d %s", status, body)
	}

	status, _, _ = s.do(t, fiber.MethodPost, "/auth/escolas/login",
		map[string]any{"inep": "2512345", "email": "escola@pb.gov.br", "password": "errada"}, "")
	if status != fiber.StatusUnauthorized {
		t.Fatalf("bad password: %d", status)
	}
}

func TestHealthMetricsAndUnknownRoute(t *testing.T) {
	s := newTestServer(t, nil, nil, false)

	if status, _, _ := s.do(t, fiber.MethodGet, "/health/live", nil, ""); status != fiber.StatusOK {
		t.Fatalf("live: %d", status)
	}
	if status, body, _ := s.do(t, fiber.MethodGet, "/health/ready", nil, ""); status != fiber.StatusOK {
		t.Fatalf("ready: %d %s", status, body)
	}
	status, body, _ := s.do(t, fiber.MethodGet, "/nao-existe", nil, "")
	if status != fiber.StatusNotFound || errorCode(t, body) != "NOT_FOUND" {
		t.Fatalf("unknown route: %d %s", status, body)
	}

	snap := s.metrics.Snapshot()
	if len(snap.Requests) == 0 || len(snap.Errors) == 0 {
		t.Fatalf("requests and errors should be counted: %+v", snap)
	}
}
