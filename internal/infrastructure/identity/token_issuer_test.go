package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/backupgw/internal/domain/models"
)

func TestTokenIssuer_Issue(t *testing.T) {
	issuer := NewTokenIssuer(testJWT)
	fixed := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return fixed }

	user := &models.User{ID: "u-1", Username: "bob", Roles: "ROLE_USER"}
	token, exp, err := issuer.Issue(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, fixed.Add(time.Hour), exp)

	claims := &AccessClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, "bob", claims.Username)
	assert.Equal(t, []string{"ROLE_USER"}, claims.Roles)
	assert.Equal(t, jwt.ClaimStrings{"backup-api"}, claims.Audience)
	assert.Equal(t, "backup-gateway", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenIssuer_UniqueTokenIDs(t *testing.T) {
	issuer := NewTokenIssuer(testJWT)
	user := &models.User{ID: "u-1", Username: "bob"}

	a, _, err := issuer.Issue(context.Background(), user)
	require.NoError(t, err)
	b, _, err := issuer.Issue(context.Background(), user)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
