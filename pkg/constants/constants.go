// Package constants defines system-wide constants for the backup gateway.
// This package provides type-safe constant definitions used across all modules.
package constants

import "time"

// ================================================================================
// Role Constants
// ================================================================================

const (
	// RoleUser is granted to every platform account
	RoleUser = "ROLE_USER"

	// RoleAdmin is granted to operators who manage servers and credentials
	RoleAdmin = "ROLE_ADMIN"

	// RoleSuperAdmin inherits every other role
	RoleSuperAdmin = "ROLE_SUPER_ADMIN"
)

// ================================================================================
// HTTP Constants
// ================================================================================

const (
	// DefaultAPIPrefix is stripped from the request path before route matching
	DefaultAPIPrefix = "/api"

	// HeaderAuthorization is the standard bearer credential header
	HeaderAuthorization = "Authorization"

	// HeaderForwardedAuthorization carries the credential when a proxy rewrote the request
	HeaderForwardedAuthorization = "X-Forwarded-Authorization"

	// HeaderRedirectAuthorization carries the credential after an internal redirect
	HeaderRedirectAuthorization = "Redirect-Http-Authorization"

	// HeaderRequestID is the correlation id header
	HeaderRequestID = "X-Request-ID"

	// BearerScheme is the authorization scheme accepted by the gateway
	BearerScheme = "Bearer"
)

// CORS defaults. The allow-list itself comes from configuration.
var (
	CORSAllowedMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	CORSAllowedHeaders = []string{"Content-Type", "Authorization", "X-Requested-With", "X-Request-ID"}
)

// DefaultCORSMaxAge is the preflight cache lifetime
const DefaultCORSMaxAge = 24 * time.Hour

// ================================================================================
// Token Constants
// ================================================================================

const (
	// AccessTokenDefaultTTL is the default lifetime for access tokens (1 hour)
	AccessTokenDefaultTTL = 1 * time.Hour

	// DefaultJWTIssuer is the iss claim of gateway tokens
	DefaultJWTIssuer = "backup-gateway"

	// DefaultJWTAudience is the aud claim of gateway tokens
	DefaultJWTAudience = "backup-api"

	// UserCacheTTL bounds how long a resolved user record is reused
	UserCacheTTL = 30 * time.Second
)

// ================================================================================
// Crypto Constants
// ================================================================================

const (
	// DefaultPassphraseBytes is the entropy of a generated repository passphrase
	DefaultPassphraseBytes = 64

	// KeyPairBits is the RSA modulus size for generated SSH keys
	KeyPairBits = 4096

	// CipherIVSize is the CBC initialization vector length
	CipherIVSize = 16

	// CipherKeySize is the AES-256 key length
	CipherKeySize = 32
)

// ================================================================================
// Context Keys
// ================================================================================

// ContextKey is the type for request-scoped context keys
type ContextKey string

const (
	ContextKeyRequestID      ContextKey = "request_id"
	ContextKeyTraceID        ContextKey = "trace_id"
	ContextKeyLogger         ContextKey = "logger"
	ContextKeyRequestContext ContextKey = "request_context"
)

// ================================================================================
// Audit Event Constants
// ================================================================================

// AuditEventType represents the kind of security-relevant event
type AuditEventType string

const (
	AuditEventAuthenticationFailed AuditEventType = "authentication_failed"
	AuditEventAuthorizationDenied  AuditEventType = "authorization_denied"
	AuditEventLoginSucceeded       AuditEventType = "login_succeeded"
	AuditEventLoginFailed          AuditEventType = "login_failed"
	AuditEventLogout               AuditEventType = "logout"
	AuditEventCredentialGenerated  AuditEventType = "credential_generated"
)
