// internal/handlers/notification.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/kmrl/metrodocs/internal/services"
	"github.com/kmrl/metrodocs/internal/utils"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// POST /api/send-email
func (h *NotificationHandler) SendEmail(c *gin.Context) {
	var req services.SendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req = services.SendEmailRequest{}
	}

	resp, err := h.notificationService.Send(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, resp)
}
