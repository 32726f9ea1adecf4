// internal/handlers/assistant.go
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kmrl/metrodocs/internal/services"
	"github.com/kmrl/metrodocs/internal/utils"
)

const apiKeyHeader = "X-OpenAI-Key"

type AssistantHandler struct {
	assistantService *services.AssistantService
}

type chatRequest struct {
	Message string `json:"message"`
}

func NewAssistantHandler(assistantService *services.AssistantService) *AssistantHandler {
	return &AssistantHandler{assistantService: assistantService}
}

// POST /api/chat
func (h *AssistantHandler) Chat(c *gin.Context) {
	// anything unexpected below still answers with a JSON error
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("panic", r).Error("Assistant handler panicked")
			utils.ErrorResponse(c, http.StatusInternalServerError, fmt.Sprintf("Assistant error: %v", r))
		}
	}()

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req = chatRequest{}
	}

	prompt := strings.TrimSpace(req.Message)
	if prompt == "" {
		utils.BadRequestResponse(c, "Please include a message for the assistant.")
		return
	}

	reply, err := h.assistantService.Ask(c.Request.Context(), prompt, c.GetHeader(apiKeyHeader))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"reply": reply})
}
