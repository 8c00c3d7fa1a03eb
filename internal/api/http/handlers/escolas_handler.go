package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/educa-pb/demandas-service/internal/service"
)

// EscolasHandler serves the school dataset and the heat map.
type EscolasHandler struct {
	maps *service.MapService
}

// NewEscolasHandler constructs handler.
func NewEscolasHandler(maps *service.MapService) *EscolasHandler {
	return &EscolasHandler{maps: maps}
}

// List GET /escolas.
func (h *EscolasHandler) List(c *fiber.Ctx) error {
	return c.JSON(h.maps.ListEscolas())
}

// Get GET /escolas/:inep.
func (h *EscolasHandler) Get(c *fiber.Ctx) error {
	escola, err := h.maps.GetEscola(c.Params("inep"))
	if err != nil {
		return err
	}
	return c.JSON(escola)
}

// Heatmap GET /escolas/mapa.
func (h *EscolasHandler) Heatmap(c *fiber.Ctx) error {
	pesos, err := h.maps.Heatmap(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(pesos)
}

// MapConfig GET /mapa/config.
func (h *EscolasHandler) MapConfig(c *fiber.Ctx) error {
	return c.JSON(h.maps.Config())
}
