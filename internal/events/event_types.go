package events

import (
	"time"

	"github.com/educa-pb/demandas-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventChamadoCriado         EventType = "chamado_criado"
	EventChamadoStatusAlterado EventType = "chamado_status_alterado"
)

// Actor encapsulates actor metadata for an event. Role is empty for
// anonymous callers.
type Actor struct {
	Role  domain.Role `json:"role,omitempty"`
	Email string      `json:"email,omitempty"`
	INEP  domain.INEP `json:"inep,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ChamadoID string      `json:"chamado_id"`
	INEP      domain.INEP `json:"inep"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload"`
}

// ChamadoCriadoPayload payload.
type ChamadoCriadoPayload struct {
	Titulo      string                   `json:"titulo"`
	Tipo        domain.ChamadoTipo       `json:"tipo"`
	Prioridade  domain.ChamadoPrioridade `json:"prioridade"`
	Estruturado bool                     `json:"estruturado"`
}

// StatusAlteradoPayload payload.
type StatusAlteradoPayload struct {
	Acao      string               `json:"acao"`
	OldStatus domain.ChamadoStatus `json:"old_status"`
	NewStatus domain.ChamadoStatus `json:"new_status"`
}
