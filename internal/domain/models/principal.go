package models

import "time"

// Principal is the authenticated identity of a caller, derived per request from a validated token.
type Principal struct {
	// ID is the stable user identifier (the token subject).
	ID string `json:"id"`

	// Username is the human-readable login name.
	Username string `json:"username"`

	// Roles are the effective roles, already expanded through the role hierarchy.
	Roles []string `json:"roles"`

	// TokenID is the jti of the token the principal was resolved from.
	TokenID string `json:"-"`

	// ExpiresAt is the expiry of that token.
	ExpiresAt time.Time `json:"-"`
}

// PathParams maps placeholder names to the values extracted from the request path.
type PathParams map[string]string

// Get returns the named parameter, or "" when absent.
func (p PathParams) Get(name string) string {
	return p[name]
}

// RequestContext is the per-request state threaded through dispatch,
// authentication and handler invocation.
type RequestContext struct {
	RequestID string
	Params    PathParams
	Principal *Principal
}

// Param is a shorthand for Params.Get.
func (rc *RequestContext) Param(name string) string {
	if rc == nil {
		return ""
	}
	return rc.Params.Get(name)
}
