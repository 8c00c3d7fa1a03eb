package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/educa-pb/demandas-service/internal/client"
	apperrors "github.com/educa-pb/demandas-service/pkg/util/errorutil"
)

// DefaultChatReply is returned when the assistant answers with an empty output.
const DefaultChatReply = "Desculpe, não entendi a sua pergunta."

// ChatRelay forwards a message to the assistant workflow.
type ChatRelay interface {
	Ask(ctx context.Context, message string) (string, error)
}

// ChatService relays questions to the assistant.
type ChatService struct {
	relay    ChatRelay
	recorder UpstreamRecorder
	logger   *zap.Logger
}

// NewChatService constructs the service.
func NewChatService(relay ChatRelay, recorder UpstreamRecorder, logger *zap.Logger) *ChatService {
	return &ChatService{relay: relay, recorder: recorder, logger: logger}
}

// Ask returns the assistant's reply. Unlike intake, upstream failures are
// surfaced to the caller.
func (s *ChatService) Ask(ctx context.Context, texto string) (string, error) {
	texto = strings.TrimSpace(texto)
	if texto == "" {
		return "", apperrors.NewValidationError("texto is required", nil)
	}
	if s.relay == nil {
		return "", apperrors.NewUpstreamUnavailable("chat", http.StatusServiceUnavailable, client.ErrNotConfigured)
	}

	reply, err := s.relay.Ask(ctx, texto)
	if err != nil {
		if errors.Is(err, client.ErrNotConfigured) {
			return "", apperrors.NewUpstreamUnavailable("chat", http.StatusServiceUnavailable, err)
		}
		s.logger.Warn("chat webhook failed", zap.Error(err))
		if s.recorder != nil {
			s.recorder.RecordUpstreamFailure("chat_webhook")
		}
		return "", apperrors.NewUpstreamUnavailable("chat", http.StatusBadGateway, err)
	}
	if strings.TrimSpace(reply) == "" {
		return DefaultChatReply, nil
	}
	return reply, nil
}
