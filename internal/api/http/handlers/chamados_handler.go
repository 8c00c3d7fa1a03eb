package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/educa-pb/demandas-service/internal/api/dto"
	"github.com/educa-pb/demandas-service/internal/auth"
	"github.com/educa-pb/demandas-service/internal/domain"
	"github.com/educa-pb/demandas-service/internal/service"
	apperrors "github.com/educa-pb/demandas-service/pkg/util/errorutil"
)

const schoolCacheControl = "private, max-age=5"

// ChamadosHandler serves ticket intake, transitions and queries.
type ChamadosHandler struct {
	intake *service.IntakeService
	status *service.StatusService
	query  *service.QueryService
}

// NewChamadosHandler constructs handler.
func NewChamadosHandler(intake *service.IntakeService, status *service.StatusService, query *service.QueryService) *ChamadosHandler {
	return &ChamadosHandler{intake: intake, status: status, query: query}
}

// ProcessarDemanda POST /processarDemanda.
func (h *ChamadosHandler) ProcessarDemanda(c *fiber.Ctx) error {
	var req dto.ProcessarDemandaRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	chamado, err := h.intake.Submit(c.UserContext(), principal(c), service.IntakeInput{
		Texto:    req.Texto,
		INEP:     req.INEP.String(),
		EscolaID: req.EscolaID,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(chamado)
}

// AtualizarStatus PATCH /atualizarStatus.
func (h *ChamadosHandler) AtualizarStatus(c *fiber.Ctx) error {
	var req dto.AtualizarStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	res, err := h.status.UpdateStatus(c.UserContext(), principal(c), service.StatusUpdateInput{ID: req.ID, Acao: req.Acao})
	if err != nil {
		return err
	}
	return c.JSON(dto.AtualizarStatusResponse{Message: res.Message, Chamado: res.Chamado})
}

// GetDemanda GET /getDemanda?inep=.
func (h *ChamadosHandler) GetDemanda(c *fiber.Ctx) error {
	return h.bySchool(c, c.Query("inep"))
}

// ByEscola GET /chamados/:inep.
func (h *ChamadosHandler) ByEscola(c *fiber.Ctx) error {
	return h.bySchool(c, c.Params("inep"))
}

// List GET /chamados.
func (h *ChamadosHandler) List(c *fiber.Ctx) error {
	chamados, err := h.query.List(c.UserContext(), c.Query("status"))
	if err != nil {
		return err
	}
	return c.JSON(chamados)
}

func (h *ChamadosHandler) bySchool(c *fiber.Ctx, rawINEP string) error {
	inep := domain.NormalizeINEP(rawINEP)
	if p := principal(c); p != nil && p.Role == domain.RoleEscola && inep != "" && p.INEP != inep {
		return apperrors.NewForbidden("cannot read another school's tickets")
	}
	chamados, err := h.query.ByEscola(c.UserContext(), rawINEP)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderCacheControl, schoolCacheControl)
	return c.JSON(chamados)
}

func principal(c *fiber.Ctx) *domain.Principal {
	p, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil
	}
	return p
}
