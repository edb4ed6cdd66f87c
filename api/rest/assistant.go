package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/greenplanet/inventory-server/ai"
	"github.com/greenplanet/inventory-server/inventory"
	mw "github.com/greenplanet/inventory-server/middleware"
	"go.uber.org/zap"
)

// AssistantHandler answers free-form questions about the caller's
// inventory.
type AssistantHandler struct {
	inv     *inventory.Service
	drafter ai.Drafter
	logger  *zap.Logger
}

// NewAssistantHandler creates a new AssistantHandler.
func NewAssistantHandler(inv *inventory.Service, drafter ai.Drafter, logger *zap.Logger) *AssistantHandler {
	return &AssistantHandler{inv: inv, drafter: drafter, logger: logger}
}

type askRequest struct {
	Question string `json:"question" binding:"required,max=2000"`
}

// Ask handles POST /api/assistant.
func (h *AssistantHandler) Ask(c *gin.Context) {
	accountID := mw.GetAccountID(c)

	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items, err := h.inv.List(c.Request.Context(), accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	answer, err := h.drafter.Answer(c.Request.Context(), req.Question, items)
	if err != nil {
		h.logger.Error("assistant answer failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "The assistant is unavailable right now. Please try again."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}
