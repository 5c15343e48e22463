package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/turtacn/backupgw/internal/application/dto"
	"github.com/turtacn/backupgw/internal/application/service"
	"github.com/turtacn/backupgw/internal/domain/models"
	"github.com/turtacn/backupgw/pkg/errors"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService service.AuthAppService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService service.AuthAppService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login exchanges a username and password for an access token.
func (h *AuthHandler) Login(c *gin.Context, _ *models.RequestContext) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.SendError(c, errors.ErrBadRequest("Invalid request body").WithError(err))
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req, c.ClientIP())
	if err != nil {
		if appErr, ok := errors.AsAppError(err); ok && appErr.Kind == errors.KindRateLimited {
			c.Header("Retry-After", appErr.Details["retry_after_seconds"])
		}
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, result)
}

// Logout revokes the token the caller authenticated with.
func (h *AuthHandler) Logout(c *gin.Context, rc *models.RequestContext) {
	if err := h.authService.Logout(c.Request.Context(), rc.Principal); err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, gin.H{"status": "ok"})
}

// Me returns the authenticated principal.
func (h *AuthHandler) Me(c *gin.Context, rc *models.RequestContext) {
	p := rc.Principal
	if p == nil {
		dto.SendError(c, errors.ErrAuthentication("Authentication required"))
		return
	}
	roles := p.Roles
	if roles == nil {
		roles = []string{}
	}
	dto.SendSuccess(c, &dto.PrincipalResponse{ID: p.ID, Username: p.Username, Roles: roles})
}
