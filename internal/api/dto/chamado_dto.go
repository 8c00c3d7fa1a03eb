package dto

import (
	"github.com/educa-pb/demandas-service/internal/domain"
)

// ProcessarDemandaRequest is the free-text submission payload. inep may be
// sent as a number or a string.
type ProcessarDemandaRequest struct {
	Texto    string      `json:"texto"`
	INEP     domain.INEP `json:"inep"`
	EscolaID string      `json:"escolaId"`
}

// AtualizarStatusRequest payload.
type AtualizarStatusRequest struct {
	ID   string `json:"id"`
	Acao string `json:"acao"`
}

// AtualizarStatusResponse echoes the updated ticket.
type AtualizarStatusResponse struct {
	Message string         `json:"message"`
	Chamado domain.Chamado `json:"chamado"`
}

// ChatRequest payload.
type ChatRequest struct {
	Texto string `json:"texto"`
}

// ChatResponse carries the assistant reply.
type ChatResponse struct {
	Reply string `json:"reply"`
}
