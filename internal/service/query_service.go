package service

import (
	"context"
	"strings"

	"github.com/educa-pb/demandas-service/internal/domain"
	"github.com/educa-pb/demandas-service/internal/repository"
	apperrors "github.com/educa-pb/demandas-service/pkg/util/errorutil"
)

// QueryService serves read-only ticket views from the index.
type QueryService struct {
	index *repository.ChamadoIndex
}

// NewQueryService constructs the service.
func NewQueryService(index *repository.ChamadoIndex) *QueryService {
	return &QueryService{index: index}
}

// ByEscola returns the school's tickets newest first. An unknown school is an
// empty result, not an error.
func (s *QueryService) ByEscola(ctx context.Context, rawINEP string) ([]domain.Chamado, error) {
	inep := domain.NormalizeINEP(rawINEP)
	if inep == "" {
		return nil, apperrors.NewValidationError("inep is required and must contain digits", map[string]any{"inep": rawINEP})
	}
	chamados, err := s.index.ByINEP(ctx, inep)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return chamados, nil
}

// List returns every ticket, optionally filtered by status.
func (s *QueryService) List(ctx context.Context, rawStatus string) ([]domain.Chamado, error) {
	status := domain.ChamadoStatus(strings.TrimSpace(rawStatus))
	if status != "" && !status.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": rawStatus})
	}
	chamados, err := s.index.All(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if status == "" {
		return chamados, nil
	}
	filtered := chamados[:0]
	for _, c := range chamados {
		if c.Status == status {
			filtered = append(filtered, c)
		}
	}
	return filtered, nil
}
