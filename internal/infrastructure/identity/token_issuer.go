// Package identity implements the identity collaborator of the gateway: HS256
// access tokens, their validation and revocation, and role resolution.
package identity

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/turtacn/backupgw/internal/domain/models"
	"github.com/turtacn/backupgw/internal/domain/service"
	"github.com/turtacn/backupgw/pkg/errors"
)

// JWTConfig holds the token signing parameters shared by issuer and resolver.
type JWTConfig struct {
	SigningKey []byte
	Issuer     string
	Audience   string
	TTL        time.Duration
}

var _ service.TokenIssuer = (*TokenIssuer)(nil)

// TokenIssuer signs access tokens.
type TokenIssuer struct {
	cfg JWTConfig
	now func() time.Time
}

// NewTokenIssuer creates a TokenIssuer.
func NewTokenIssuer(cfg JWTConfig) *TokenIssuer {
	return &TokenIssuer{cfg: cfg, now: time.Now}
}

// Issue signs a token identifying user.
func (i *TokenIssuer) Issue(ctx context.Context, user *models.User) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(i.cfg.TTL)

	claims := AccessClaims{
		Username: user.Username,
		Roles:    user.RoleList(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   user.ID,
			Issuer:    i.cfg.Issuer,
			Audience:  jwt.ClaimStrings{i.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.cfg.SigningKey)
	if err != nil {
		return "", time.Time{}, errors.ErrCryptoOperation("failed to sign access token").WithError(err)
	}
	return signed, expiresAt, nil
}
