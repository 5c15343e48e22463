// Package service provides application-level services that orchestrate domain services and repositories
package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/turtacn/backupgw/internal/application/dto"
	"github.com/turtacn/backupgw/internal/domain/models"
	"github.com/turtacn/backupgw/internal/domain/repository"
	domainService "github.com/turtacn/backupgw/internal/domain/service"
	"github.com/turtacn/backupgw/pkg/constants"
	"github.com/turtacn/backupgw/pkg/errors"
	"github.com/turtacn/backupgw/pkg/logger"
	"github.com/turtacn/backupgw/pkg/utils"
)

const msgBadCredentials = "Invalid username or password"

// AuthAppService defines the interface for authentication application service
type AuthAppService interface {
	// Login verifies a username/password pair and issues an access token
	Login(ctx context.Context, req *dto.LoginRequest, clientIP string) (*dto.TokenResponse, error)

	// Logout revokes the token the principal was resolved from
	Logout(ctx context.Context, principal *models.Principal) error
}

// authAppServiceImpl is the concrete implementation of AuthAppService
type authAppServiceImpl struct {
	users     repository.UserRepository
	creds     domainService.CredentialService
	issuer    domainService.TokenIssuer
	blacklist domainService.TokenBlacklistStore
	limiter   domainService.RateLimiter
	audit     domainService.AuditService
	logger    logger.Logger

	// dummyHash keeps the unknown-user path as slow as a real verification.
	dummyHash string
}

// NewAuthAppService creates a new instance of AuthAppService. limiter may be nil
// to disable login throttling.
func NewAuthAppService(
	users repository.UserRepository,
	creds domainService.CredentialService,
	issuer domainService.TokenIssuer,
	blacklist domainService.TokenBlacklistStore,
	limiter domainService.RateLimiter,
	audit domainService.AuditService,
	log logger.Logger,
) (AuthAppService, error) {
	dummy, err := creds.HashPassword("backup-gateway-timing-guard")
	if err != nil {
		return nil, err
	}
	return &authAppServiceImpl{
		users:     users,
		creds:     creds,
		issuer:    issuer,
		blacklist: blacklist,
		limiter:   limiter,
		audit:     audit,
		logger:    log.WithComponent("AuthAppService"),
		dummyHash: dummy,
	}, nil
}

// Login implements AuthAppService.
func (s *authAppServiceImpl) Login(ctx context.Context, req *dto.LoginRequest, clientIP string) (*dto.TokenResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	throttleKey := clientIP + "|" + strings.ToLower(req.Username)
	if err := s.throttle(ctx, throttleKey, req.Username, clientIP); err != nil {
		return nil, err
	}

	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			s.logger.Error(ctx, "Failed to load user", err, logger.String("username", req.Username))
			return nil, errors.ErrInternal("failed to load user").WithError(err)
		}
		s.creds.VerifyPassword(req.Password, s.dummyHash)
		s.record(ctx, constants.AuditEventLoginFailed, req.Username, "unknown user", clientIP)
		return nil, errors.ErrAuthentication(msgBadCredentials)
	}

	if !s.creds.VerifyPassword(req.Password, user.PasswordHash) {
		s.record(ctx, constants.AuditEventLoginFailed, user.ID, "bad password", clientIP)
		return nil, errors.ErrAuthentication(msgBadCredentials)
	}
	if user.Disabled {
		s.record(ctx, constants.AuditEventLoginFailed, user.ID, "account disabled", clientIP)
		return nil, errors.ErrAuthentication("Account is disabled")
	}

	token, expiresAt, err := s.issuer.Issue(ctx, user)
	if err != nil {
		s.logger.Error(ctx, "Failed to issue access token", err, logger.String("user_id", user.ID))
		return nil, err
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, throttleKey); err != nil {
			s.logger.Warn(ctx, "Failed to reset login throttle", logger.Error(err))
		}
	}
	s.record(ctx, constants.AuditEventLoginSucceeded, user.ID, "", clientIP)
	s.logger.Info(ctx, "User logged in", logger.String("user_id", user.ID))

	return &dto.TokenResponse{
		AccessToken: token,
		TokenType:   constants.BearerScheme,
		ExpiresIn:   int64(time.Until(expiresAt).Round(time.Second).Seconds()),
	}, nil
}

// Logout implements AuthAppService.
func (s *authAppServiceImpl) Logout(ctx context.Context, principal *models.Principal) error {
	if principal == nil || principal.TokenID == "" {
		return errors.ErrAuthentication("Token cannot be revoked")
	}
	if err := s.blacklist.Revoke(ctx, principal.TokenID, principal.ExpiresAt); err != nil {
		s.logger.Error(ctx, "Failed to revoke token", err, logger.String("jti", principal.TokenID))
		return errors.ErrInternal("failed to revoke token").WithError(err)
	}
	s.record(ctx, constants.AuditEventLogout, principal.ID, "", "")
	return nil
}

// throttle consumes one login attempt for key.
func (s *authAppServiceImpl) throttle(ctx context.Context, key, username, clientIP string) error {
	if s.limiter == nil {
		return nil
	}
	allowed, retryAfter, err := s.limiter.Allow(ctx, key)
	if err != nil {
		s.logger.Warn(ctx, "Login throttle unavailable", logger.Error(err))
		return nil
	}
	if allowed {
		return nil
	}
	s.record(ctx, constants.AuditEventLoginFailed, username, "rate limited", clientIP)
	seconds := int64((retryAfter + time.Second - 1) / time.Second)
	return errors.ErrRateLimited("Too many login attempts").
		WithDetail("retry_after_seconds", strconv.FormatInt(seconds, 10))
}

func (s *authAppServiceImpl) record(ctx context.Context, eventType constants.AuditEventType, subject, reason, clientIP string) {
	if s.audit == nil {
		return
	}
	event := models.NewAuditEvent(eventType, subject, reason)
	event.ClientIP = clientIP
	if requestID, ok := ctx.Value(constants.ContextKeyRequestID).(string); ok {
		event.RequestID = requestID
	}
	if err := s.audit.LogEvent(ctx, event); err != nil {
		s.logger.Warn(ctx, "Failed to record audit event", logger.Error(err))
	}
}
