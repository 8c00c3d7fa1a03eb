package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/educa-pb/demandas-service/internal/domain"
	"github.com/educa-pb/demandas-service/internal/events"
	"github.com/educa-pb/demandas-service/internal/repository"
	apperrors "github.com/educa-pb/demandas-service/pkg/util/errorutil"
)

// Acao is a requested status transition.
type Acao string

const (
	AcaoAceitar  Acao = "aceitar"
	AcaoRejeitar Acao = "rejeitar"
	AcaoConcluir Acao = "concluir"
)

type transition struct {
	from []domain.ChamadoStatus
	to   domain.ChamadoStatus
	// role allowed to perform the action when the caller is authenticated.
	role domain.Role
}

var transitions = map[Acao]transition{
	AcaoAceitar: {
		from: []domain.ChamadoStatus{domain.StatusEmAndamento, domain.StatusAguardandoEscola},
		to:   domain.StatusAguardandoEscola,
		role: domain.RoleSecretaria,
	},
	AcaoRejeitar: {
		from: []domain.ChamadoStatus{domain.StatusEmAndamento, domain.StatusAguardandoEscola},
		to:   domain.StatusRejeitado,
		role: domain.RoleSecretaria,
	},
	AcaoConcluir: {
		from: []domain.ChamadoStatus{domain.StatusAguardandoEscola},
		to:   domain.StatusConcluido,
		role: domain.RoleEscola,
	},
}

// ParseAcao validates a raw action name.
func ParseAcao(raw string) (Acao, bool) {
	acao := Acao(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := transitions[acao]
	return acao, ok
}

// NextStatus returns the status acao leads to from current, or false when the
// transition is not allowed. Terminal states allow nothing.
func NextStatus(current domain.ChamadoStatus, acao Acao) (domain.ChamadoStatus, bool) {
	if current.Terminal() {
		return current, false
	}
	t, ok := transitions[acao]
	if !ok {
		return current, false
	}
	for _, candidate := range t.from {
		if candidate == current {
			return t.to, true
		}
	}
	return current, false
}

// StatusUpdateInput is the PATCH payload.
type StatusUpdateInput struct {
	ID   string
	Acao string
}

// StatusResult carries the updated ticket and a confirmation message.
type StatusResult struct {
	Message string
	Chamado domain.Chamado
}

// StatusService applies lifecycle transitions.
type StatusService struct {
	store      repository.ChamadoStore
	index      *repository.ChamadoIndex
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// StatusDependencies bundles collaborators for the status service.
type StatusDependencies struct {
	Store      repository.ChamadoStore
	Index      *repository.ChamadoIndex
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewStatusService constructs the service.
func NewStatusService(deps StatusDependencies) *StatusService {
	return &StatusService{
		store:      deps.Store,
		index:      deps.Index,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// UpdateStatus validates input, applies the transition under the store lock
// and persists the whole collection. actor may be nil for anonymous callers.
func (s *StatusService) UpdateStatus(ctx context.Context, actor *domain.Principal, input StatusUpdateInput) (*StatusResult, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" || strings.TrimSpace(input.Acao) == "" {
		return nil, apperrors.NewValidationError("id and acao are required", nil)
	}
	acao, ok := ParseAcao(input.Acao)
	if !ok {
		return nil, apperrors.NewInvalidAction(input.Acao)
	}

	var (
		updated   domain.Chamado
		oldStatus domain.ChamadoStatus
	)
	err := s.store.Update(ctx, func(chamados []domain.Chamado) ([]domain.Chamado, error) {
		idx := -1
		for i := range chamados {
			if chamados[i].ID == id {
				idx = i
				break
			}
		}
		if idx == -1 {
			return nil, apperrors.NewNotFound("chamado", map[string]any{"id": id})
		}
		if err := authorize(actor, acao, chamados[idx]); err != nil {
			return nil, err
		}
		oldStatus = chamados[idx].Status
		next, ok := NextStatus(oldStatus, acao)
		if !ok {
			return nil, apperrors.NewInvalidTransition(string(acao), string(oldStatus))
		}
		chamados[idx].Status = next
		updated = chamados[idx]
		return chamados, nil
	})
	if err != nil {
		return nil, err
	}
	if s.index != nil {
		s.index.Invalidate()
	}

	s.logger.Info("chamado status updated",
		zap.String("chamado_id", updated.ID),
		zap.String("acao", string(acao)),
		zap.String("old_status", string(oldStatus)),
		zap.String("new_status", string(updated.Status)))

	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:      events.EventChamadoStatusAlterado,
		ChamadoID: updated.ID,
		INEP:      updated.INEP,
		Actor:     actorOf(actor),
		Payload: events.StatusAlteradoPayload{
			Acao:      string(acao),
			OldStatus: oldStatus,
			NewStatus: updated.Status,
		},
	})

	return &StatusResult{
		Message: fmt.Sprintf("Status atualizado com sucesso para '%s'.", updated.Status),
		Chamado: updated,
	}, nil
}

// authorize checks an authenticated caller against the action's role. School
// callers may only act on their own tickets.
func authorize(actor *domain.Principal, acao Acao, chamado domain.Chamado) error {
	if actor == nil {
		return nil
	}
	required := transitions[acao].role
	if actor.Role != required {
		return apperrors.NewForbidden(fmt.Sprintf("action %s requires role %s", acao, required))
	}
	if actor.Role == domain.RoleEscola && actor.INEP != chamado.INEP {
		return apperrors.NewForbidden("chamado belongs to another school")
	}
	return nil
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func actorOf(p *domain.Principal) events.Actor {
	if p == nil {
		return events.Actor{}
	}
	return events.Actor{Role: p.Role, Email: p.Email, INEP: p.INEP}
}
