package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/educa-pb/demandas-service/internal/api/dto"
	"github.com/educa-pb/demandas-service/internal/service"
	apperrors "github.com/educa-pb/demandas-service/pkg/util/errorutil"
)

// ChatHandler relays assistant questions.
type ChatHandler struct {
	chat *service.ChatService
}

// NewChatHandler constructs handler.
func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

// Ask POST /chat.
func (h *ChatHandler) Ask(c *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	reply, err := h.chat.Ask(c.UserContext(), req.Texto)
	if err != nil {
		return err
	}
	return c.JSON(dto.ChatResponse{Reply: reply})
}
