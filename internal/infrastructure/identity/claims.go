package identity

import "github.com/golang-jwt/jwt/v5"

// AccessClaims are the claims carried by gateway access tokens. Roles are
// informational; the resolver re-reads them from the user record.
type AccessClaims struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}
