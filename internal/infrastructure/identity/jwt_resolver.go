package identity

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	gocache "github.com/patrickmn/go-cache"

	"github.com/turtacn/backupgw/internal/domain/models"
	"github.com/turtacn/backupgw/internal/domain/repository"
	"github.com/turtacn/backupgw/internal/domain/service"
	"github.com/turtacn/backupgw/pkg/constants"
	"github.com/turtacn/backupgw/pkg/errors"
	"github.com/turtacn/backupgw/pkg/logger"
)

var _ service.IdentityResolver = (*JWTResolver)(nil)

// JWTResolver validates gateway access tokens and loads the principal they name.
type JWTResolver struct {
	cfg       JWTConfig
	users     repository.UserRepository
	blacklist service.TokenBlacklistStore
	hierarchy *RoleHierarchy
	cache     *gocache.Cache
	parser    *jwt.Parser
	log       logger.Logger
}

// NewJWTResolver creates a resolver. blacklist may be nil when revocation is not
// deployed; hierarchy may be nil for flat roles.
func NewJWTResolver(
	cfg JWTConfig,
	users repository.UserRepository,
	blacklist service.TokenBlacklistStore,
	hierarchy *RoleHierarchy,
	log logger.Logger,
) *JWTResolver {
	return &JWTResolver{
		cfg:       cfg,
		users:     users,
		blacklist: blacklist,
		hierarchy: hierarchy,
		cache:     gocache.New(constants.UserCacheTTL, 2*constants.UserCacheTTL),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithAudience(cfg.Audience),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
		),
		log: log.WithComponent("JWTResolver"),
	}
}

// ResolvePrincipal implements service.IdentityResolver.
func (r *JWTResolver) ResolvePrincipal(ctx context.Context, token string) (*models.Principal, error) {
	claims := &AccessClaims{}
	if _, err := r.parser.ParseWithClaims(token, claims, r.keyFunc); err != nil {
		return nil, classifyTokenError(err)
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, errors.ErrAuthentication("Token is missing required claims")
	}

	if r.blacklist != nil {
		revoked, err := r.blacklist.IsRevoked(ctx, claims.ID)
		if err != nil {
			r.log.Error(ctx, "Failed to check token blacklist", err)
			return nil, errors.ErrInternal("failed to check token revocation").WithError(err)
		}
		if revoked {
			return nil, errors.ErrAuthentication("Token has been revoked")
		}
	}

	user, err := r.loadUser(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if user.Disabled {
		return nil, errors.ErrAuthentication("Account is disabled")
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return &models.Principal{
		ID:        user.ID,
		Username:  user.Username,
		Roles:     r.hierarchy.Expand(user.RoleList()),
		TokenID:   claims.ID,
		ExpiresAt: expiresAt,
	}, nil
}

// HasRole implements service.IdentityResolver.
func (r *JWTResolver) HasRole(principal *models.Principal, role string) bool {
	if principal == nil {
		return false
	}
	want := normalizeRole(role)
	for _, have := range principal.Roles {
		if have == want {
			return true
		}
	}
	return false
}

// HasAnyRole implements service.IdentityResolver.
func (r *JWTResolver) HasAnyRole(principal *models.Principal, roles []string) bool {
	for _, role := range roles {
		if r.HasRole(principal, role) {
			return true
		}
	}
	return false
}

// Invalidate drops a cached user so role or status changes apply immediately.
func (r *JWTResolver) Invalidate(userID string) {
	r.cache.Delete(userID)
}

func (r *JWTResolver) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	return r.cfg.SigningKey, nil
}

func (r *JWTResolver) loadUser(ctx context.Context, id string) (*models.User, error) {
	if cached, ok := r.cache.Get(id); ok {
		return cached.(*models.User), nil
	}

	user, err := r.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, errors.ErrAuthentication("Unknown token subject")
		}
		r.log.Error(ctx, "Failed to load token subject", err, logger.String("user_id", id))
		return nil, errors.ErrInternal("failed to load user").WithError(err)
	}

	r.cache.SetDefault(id, user)
	return user, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return errors.ErrAuthentication("Token has expired").WithError(err)
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return errors.ErrAuthentication("Token is not valid yet").WithError(err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return errors.ErrAuthentication("Token is malformed").WithError(err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return errors.ErrAuthentication("Token signature is invalid").WithError(err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer), errors.Is(err, jwt.ErrTokenInvalidAudience):
		return errors.ErrAuthentication("Token was not issued for this service").WithError(err)
	default:
		return errors.ErrAuthentication("Invalid token").WithError(err)
	}
}
