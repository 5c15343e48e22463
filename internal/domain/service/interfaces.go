package service

import (
	"context"
	"time"

	"github.com/turtacn/backupgw/internal/domain/models"
)

//go:generate mockery --name IdentityResolver --output mocks --outpkg mocks
// IdentityResolver turns a bearer token into a principal and answers role questions about it.
// The authenticator depends only on this capability, so tests can inject a fake.
// IdentityResolver 将 bearer 令牌解析为主体，并回答角色相关的问题。
type IdentityResolver interface {
	// ResolvePrincipal validates the token and loads the principal it identifies.
	// Expired, revoked, malformed and unknown-subject tokens yield an authentication error.
	// ResolvePrincipal 校验令牌并加载对应主体；过期、吊销、格式错误或主体不存在时返回认证错误。
	ResolvePrincipal(ctx context.Context, token string) (*models.Principal, error)

	// HasRole reports whether the principal holds the role.
	HasRole(principal *models.Principal, role string) bool

	// HasAnyRole reports whether the principal holds at least one of the roles.
	HasAnyRole(principal *models.Principal, roles []string) bool
}

//go:generate mockery --name TokenIssuer --output mocks --outpkg mocks
// TokenIssuer mints access tokens for authenticated users.
// TokenIssuer 为已认证的用户签发访问令牌。
type TokenIssuer interface {
	// Issue signs a token for the user and returns it with its expiry.
	Issue(ctx context.Context, user *models.User) (token string, expiresAt time.Time, err error)
}

// TokenBlacklistStore records revoked token ids until their natural expiry.
// TokenBlacklistStore 记录被吊销的令牌 ID，直到其自然过期。
type TokenBlacklistStore interface {
	Revoke(ctx context.Context, jti string, exp time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// CredentialService generates and protects cryptographic secrets.
// CredentialService 生成并保护加密机密。
type CredentialService interface {
	GeneratePassphrase(lengthBytes int) (string, error)
	Encrypt(plaintext string, key []byte) (string, error)
	Decrypt(ciphertext string, key []byte) string
	Open(ciphertext string, key []byte) (string, bool)
	DeriveKey(secret string) []byte
	GenerateKeyPair(comment string) (*models.KeyPair, error)
	HashPassword(password string) (string, error)
	VerifyPassword(password, hash string) bool
}

// AuditService records security events.
// AuditService 记录安全审计事件。
type AuditService interface {
	LogEvent(ctx context.Context, event *models.AuditEvent) error
}
