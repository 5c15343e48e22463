// Package middleware holds the gin middleware of the gateway and the token
// authenticator the dispatcher calls for protected routes.
package middleware

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/backupgw/internal/application/dto"
	"github.com/turtacn/backupgw/internal/domain/models"
	"github.com/turtacn/backupgw/internal/domain/service"
	"github.com/turtacn/backupgw/pkg/constants"
	"github.com/turtacn/backupgw/pkg/errors"
	"github.com/turtacn/backupgw/pkg/logger"
)

const (
	msgMissingToken          = "Missing or invalid authorization header"
	msgAuthenticationNeeded  = "Authentication required"
	msgInsufficientPrivilege = "Insufficient permissions"
)

// Failure reasons used as metric labels.
const (
	reasonMissingToken = "missing_token"
	reasonInvalidToken = "invalid_token"
	reasonResolverErr  = "resolver_error"
	reasonNoPrincipal  = "no_principal"
	reasonMissingRole  = "missing_role"
)

// Authenticator turns a request into an authenticated principal, or writes the
// terminal 401/403 response. Failures abort the gin chain.
type Authenticator struct {
	resolver service.IdentityResolver
	audit    service.AuditService
	metrics  service.Metrics
	logger   logger.Logger
}

// NewAuthenticator creates an Authenticator. audit and metrics may be nil.
func NewAuthenticator(resolver service.IdentityResolver, audit service.AuditService, metrics service.Metrics, log logger.Logger) *Authenticator {
	if metrics == nil {
		metrics = service.NoopMetrics{}
	}
	return &Authenticator{
		resolver: resolver,
		audit:    audit,
		metrics:  metrics,
		logger:   log.WithComponent("Authenticator"),
	}
}

// Authenticate extracts the bearer token, resolves it and attaches the principal
// to rc. It returns false after writing a terminal response.
func (a *Authenticator) Authenticate(c *gin.Context, rc *models.RequestContext) bool {
	ctx := c.Request.Context()

	token := ExtractBearer(c.Request.Header)
	if token == "" {
		a.reject(c, rc, reasonMissingToken, "", errors.ErrAuthentication(msgMissingToken))
		return false
	}

	principal, err := a.resolver.ResolvePrincipal(ctx, token)
	if err != nil {
		appErr, ok := errors.AsAppError(err)
		if ok && appErr.HTTPStatus >= http.StatusInternalServerError {
			a.logger.Error(ctx, "Identity resolution failed", err)
			a.metrics.RecordAuthFailure(reasonResolverErr)
			dto.SendError(c, err)
			return false
		}
		// every domain-level rejection is a 401 carrying the resolver's message
		message := err.Error()
		if ok {
			message = appErr.Message
		}
		a.reject(c, rc, reasonInvalidToken, "", errors.ErrAuthentication(message).WithError(err))
		return false
	}
	if principal == nil {
		a.reject(c, rc, reasonInvalidToken, "", errors.ErrAuthentication("Invalid token"))
		return false
	}

	rc.Principal = principal
	c.Set(string(constants.ContextKeyRequestContext), rc)
	return true
}

// AuthorizeRole requires the attached principal to hold role.
func (a *Authenticator) AuthorizeRole(c *gin.Context, rc *models.RequestContext, role string) bool {
	return a.authorize(c, rc, func(p *models.Principal) bool {
		return a.resolver.HasRole(p, role)
	}, role)
}

// AuthorizeAny requires the attached principal to hold at least one of roles.
func (a *Authenticator) AuthorizeAny(c *gin.Context, rc *models.RequestContext, roles []string) bool {
	return a.authorize(c, rc, func(p *models.Principal) bool {
		return a.resolver.HasAnyRole(p, roles)
	}, strings.Join(roles, ","))
}

func (a *Authenticator) authorize(c *gin.Context, rc *models.RequestContext, check func(*models.Principal) bool, required string) bool {
	if rc == nil || rc.Principal == nil {
		a.deny(c, rc, reasonNoPrincipal, required, msgAuthenticationNeeded)
		return false
	}
	if !check(rc.Principal) {
		a.deny(c, rc, reasonMissingRole, required, msgInsufficientPrivilege)
		return false
	}
	return true
}

func (a *Authenticator) reject(c *gin.Context, rc *models.RequestContext, reason, subject string, appErr *errors.AppError) {
	a.logger.Warn(c.Request.Context(), "Authentication failed",
		logger.String("reason", reason),
		logger.String("detail", appErr.Message),
		logger.String("path", c.Request.URL.Path),
	)
	a.metrics.RecordAuthFailure(reason)
	a.emit(c, rc, constants.AuditEventAuthenticationFailed, subject, appErr.Message)
	dto.SendError(c, appErr)
}

func (a *Authenticator) deny(c *gin.Context, rc *models.RequestContext, reason, required, message string) {
	subject := ""
	if rc != nil && rc.Principal != nil {
		subject = rc.Principal.ID
	}
	a.logger.Warn(c.Request.Context(), "Authorization denied",
		logger.String("reason", reason),
		logger.String("required", required),
		logger.String("subject", subject),
	)
	a.metrics.RecordAuthFailure(reason)
	a.emit(c, rc, constants.AuditEventAuthorizationDenied, subject, reason+": "+required)
	dto.SendError(c, errors.ErrAuthorization(message))
}

func (a *Authenticator) emit(c *gin.Context, rc *models.RequestContext, eventType constants.AuditEventType, subject, reason string) {
	if a.audit == nil {
		return
	}
	requestID := ""
	if rc != nil {
		requestID = rc.RequestID
	}
	event := models.NewAuditEvent(eventType, subject, reason).
		WithRequest(c.Request.Method, c.Request.URL.Path, c.ClientIP(), requestID)
	if err := a.audit.LogEvent(c.Request.Context(), event); err != nil {
		a.logger.Warn(c.Request.Context(), "Failed to record audit event", logger.Error(err))
	}
}

// ExtractBearer returns the bearer token of the request. Sources are checked in
// a fixed order: the standard Authorization header, X-Forwarded-Authorization,
// Redirect-Http-Authorization, then remaining non-canonical authorization names
// (e.g. REDIRECT_HTTP_AUTHORIZATION, HTTP_AUTHORIZATION set by a CGI bridge),
// redirected variants first and each group in sorted name order. It returns ""
// when no bearer credential is present.
func ExtractBearer(h http.Header) string {
	for _, name := range []string{
		constants.HeaderAuthorization,
		constants.HeaderForwardedAuthorization,
		constants.HeaderRedirectAuthorization,
	} {
		if token := parseBearer(h.Get(name)); token != "" {
			return token
		}
	}

	var redirected, plain []string
	for name := range h {
		switch authorizationVariant(name) {
		case variantRedirected:
			redirected = append(redirected, name)
		case variantPlain:
			plain = append(plain, name)
		}
	}
	sort.Strings(redirected)
	sort.Strings(plain)
	for _, name := range append(redirected, plain...) {
		for _, v := range h[name] {
			if token := parseBearer(v); token != "" {
				return token
			}
		}
	}
	return ""
}

type headerVariant int

const (
	variantNone headerVariant = iota
	variantRedirected
	variantPlain
)

func authorizationVariant(name string) headerVariant {
	n := strings.ToLower(strings.ReplaceAll(name, "_", "-"))
	if strings.TrimPrefix(n, "redirect-http-") == "authorization" && n != "authorization" {
		return variantRedirected
	}
	if strings.TrimPrefix(n, "http-") == "authorization" {
		return variantPlain
	}
	return variantNone
}

func parseBearer(value string) string {
	value = strings.TrimSpace(value)
	scheme, token, ok := strings.Cut(value, " ")
	if !ok || !strings.EqualFold(scheme, constants.BearerScheme) {
		return ""
	}
	return strings.TrimSpace(token)
}
