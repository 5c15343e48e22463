package handlers

import (
	"context"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/backupgw/internal/application/dto"
	"github.com/turtacn/backupgw/internal/domain/models"
	"github.com/turtacn/backupgw/pkg/errors"
)

// CredentialService is the credential application service as seen by the HTTP layer.
type CredentialService interface {
	NewPassphrase(ctx context.Context, principal *models.Principal) (*dto.PassphraseResponse, error)
	NewKeyPair(ctx context.Context, principal *models.Principal, req *dto.KeyPairRequest) (*dto.KeyPairResponse, error)
	Open(ctx context.Context, req *dto.DecryptRequest) (*dto.DecryptResponse, error)
}

// CredentialHandler 凭据生成与解密接口
type CredentialHandler struct {
	svc CredentialService
}

// NewCredentialHandler creates a new CredentialHandler.
func NewCredentialHandler(svc CredentialService) *CredentialHandler {
	return &CredentialHandler{svc: svc}
}

// Passphrase generates a repository passphrase.
func (h *CredentialHandler) Passphrase(c *gin.Context, rc *models.RequestContext) {
	resp, err := h.svc.NewPassphrase(c.Request.Context(), rc.Principal)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, resp)
}

// KeyPair generates an SSH key pair. The body is optional.
func (h *CredentialHandler) KeyPair(c *gin.Context, rc *models.RequestContext) {
	var req dto.KeyPairRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		dto.SendError(c, errors.ErrBadRequest("Invalid request body").WithError(err))
		return
	}

	resp, err := h.svc.NewKeyPair(c.Request.Context(), rc.Principal, &req)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, resp)
}

// Decrypt opens a stored value.
func (h *CredentialHandler) Decrypt(c *gin.Context, _ *models.RequestContext) {
	var req dto.DecryptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.SendError(c, errors.ErrBadRequest("Invalid request body").WithError(err))
		return
	}

	resp, err := h.svc.Open(c.Request.Context(), &req)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, resp)
}
