package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/turtacn/backupgw/internal/application/dto"
	"github.com/turtacn/backupgw/internal/domain/models"
)

// ServerHandler serves backup server lookups. Only the id echo is implemented;
// server inventory lives in the platform, not the gateway.
type ServerHandler struct{}

// NewServerHandler creates a new ServerHandler.
func NewServerHandler() *ServerHandler {
	return &ServerHandler{}
}

// Get returns the server identified by the :id path parameter.
func (h *ServerHandler) Get(c *gin.Context, rc *models.RequestContext) {
	dto.SendSuccess(c, &dto.ServerResponse{ID: rc.Param("id")})
}
