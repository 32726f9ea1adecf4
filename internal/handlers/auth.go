// internal/handlers/auth.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/kmrl/metrodocs/internal/services"
	"github.com/kmrl/metrodocs/internal/utils"
)

type AuthHandler struct {
	authService *services.AuthService
	sessions    *utils.SessionManager
}

func NewAuthHandler(authService *services.AuthService, sessions *utils.SessionManager) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		sessions:    sessions,
	}
}

// POST /api/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req services.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// unreadable bodies count as empty submissions
		req = services.SignupRequest{}
	}

	resp, err := h.authService.Signup(&req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, resp)
}

// POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req = services.LoginRequest{}
	}

	payload, err := h.authService.Login(h.sessions.For(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, payload)
}

// POST /api/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.authService.Logout(h.sessions.For(c))
	utils.SuccessResponse(c, gin.H{"success": true})
}

// GET /api/session
func (h *AuthHandler) Session(c *gin.Context) {
	payload, err := h.authService.CurrentSession(h.sessions.For(c))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, payload)
}
