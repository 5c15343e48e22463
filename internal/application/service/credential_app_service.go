package service

import (
	"context"

	"github.com/turtacn/backupgw/internal/application/dto"
	"github.com/turtacn/backupgw/internal/domain/models"
	domainService "github.com/turtacn/backupgw/internal/domain/service"
	"github.com/turtacn/backupgw/pkg/constants"
	"github.com/turtacn/backupgw/pkg/logger"
	"github.com/turtacn/backupgw/pkg/utils"
)

// SecretSealer protects values at rest under the process-wide key.
type SecretSealer interface {
	Seal(plaintext string) (string, error)
	Unseal(value string) (string, bool)
}

// CredentialAppService generates credential material for callers and seals it
// for storage. It never retains the generated secrets.
type CredentialAppService struct {
	creds   domainService.CredentialService
	sealer  SecretSealer
	audit   domainService.AuditService
	metrics domainService.Metrics
	logger  logger.Logger
}

// NewCredentialAppService creates a CredentialAppService. audit and metrics may be nil.
func NewCredentialAppService(
	creds domainService.CredentialService,
	sealer SecretSealer,
	audit domainService.AuditService,
	metrics domainService.Metrics,
	log logger.Logger,
) *CredentialAppService {
	if metrics == nil {
		metrics = domainService.NoopMetrics{}
	}
	return &CredentialAppService{
		creds:   creds,
		sealer:  sealer,
		audit:   audit,
		metrics: metrics,
		logger:  log.WithComponent("CredentialAppService"),
	}
}

// NewPassphrase generates a repository passphrase and its sealed form.
func (s *CredentialAppService) NewPassphrase(ctx context.Context, principal *models.Principal) (*dto.PassphraseResponse, error) {
	passphrase, err := s.creds.GeneratePassphrase(constants.DefaultPassphraseBytes)
	s.metrics.RecordCredentialOperation("passphrase", err == nil)
	if err != nil {
		s.logger.Error(ctx, "Passphrase generation failed", err)
		return nil, err
	}

	sealed, err := s.sealer.Seal(passphrase)
	s.metrics.RecordCredentialOperation("encrypt", err == nil)
	if err != nil {
		s.logger.Error(ctx, "Passphrase encryption failed", err)
		return nil, err
	}

	s.record(ctx, principal, "passphrase")
	return &dto.PassphraseResponse{Passphrase: passphrase, Encrypted: sealed}, nil
}

// NewKeyPair generates an SSH keypair and seals its private key.
func (s *CredentialAppService) NewKeyPair(ctx context.Context, principal *models.Principal, req *dto.KeyPairRequest) (*dto.KeyPairResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	kp, err := s.creds.GenerateKeyPair(req.Comment)
	s.metrics.RecordCredentialOperation("keypair", err == nil)
	if err != nil {
		s.logger.Error(ctx, "Key pair generation failed", err)
		return nil, err
	}

	sealed, err := s.sealer.Seal(kp.PrivateKey)
	s.metrics.RecordCredentialOperation("encrypt", err == nil)
	if err != nil {
		s.logger.Error(ctx, "Private key encryption failed", err)
		return nil, err
	}

	s.record(ctx, principal, "keypair")
	return &dto.KeyPairResponse{
		PublicKey:           kp.PublicKey,
		PrivateKey:          kp.PrivateKey,
		EncryptedPrivateKey: sealed,
	}, nil
}

// Open returns a stored value in clear text. Values that are not sealed blobs
// come back unchanged with Decrypted false.
func (s *CredentialAppService) Open(ctx context.Context, req *dto.DecryptRequest) (*dto.DecryptResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	value, ok := s.sealer.Unseal(req.Value)
	s.metrics.RecordCredentialOperation("decrypt", ok)
	if !ok {
		s.logger.Debug(ctx, "Value passed through unchanged")
	}
	return &dto.DecryptResponse{Value: value, Decrypted: ok}, nil
}

func (s *CredentialAppService) record(ctx context.Context, principal *models.Principal, kind string) {
	if s.audit == nil {
		return
	}
	subject := ""
	if principal != nil {
		subject = principal.ID
	}
	event := models.NewAuditEvent(constants.AuditEventCredentialGenerated, subject, kind)
	if requestID, ok := ctx.Value(constants.ContextKeyRequestID).(string); ok {
		event.RequestID = requestID
	}
	if err := s.audit.LogEvent(ctx, event); err != nil {
		s.logger.Warn(ctx, "Failed to record audit event", logger.Error(err))
	}
}
