package crypto

import (
	"context"
	"fmt"

	vault "github.com/hashicorp/vault/api"

	"github.com/turtacn/backupgw/internal/config"
	"github.com/turtacn/backupgw/pkg/errors"
	"github.com/turtacn/backupgw/pkg/logger"
)

// appSecretField is the KV field holding the shared secret.
const appSecretField = "app_secret"

// SecretSource supplies the process-wide shared secret at startup.
type SecretSource interface {
	AppSecret(ctx context.Context) (string, error)
}

// StaticSecretSource returns a secret taken from configuration.
type StaticSecretSource string

// AppSecret implements SecretSource.
func (s StaticSecretSource) AppSecret(ctx context.Context) (string, error) {
	if s == "" {
		return "", errors.ErrConfiguration("security.app_secret is empty")
	}
	return string(s), nil
}

// VaultSecretSource reads the shared secret from a Vault KV v2 engine.
type VaultSecretSource struct {
	client    *vault.Client
	mountPath string
	path      string
	log       logger.Logger
}

// NewVaultSecretSource creates and configures a Vault client for the secret path.
func NewVaultSecretSource(cfg *config.VaultConfig, path string, log logger.Logger) (*VaultSecretSource, error) {
	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = cfg.Address

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, errors.ErrConfiguration("failed to create vault client").WithError(err)
	}
	if cfg.Token != "" {
		client.SetToken(cfg.Token)
	}

	return &VaultSecretSource{
		client:    client,
		mountPath: cfg.MountPath,
		path:      path,
		log:       log.WithComponent("VaultSecretSource"),
	}, nil
}

// AppSecret implements SecretSource.
func (v *VaultSecretSource) AppSecret(ctx context.Context) (string, error) {
	secret, err := v.client.KVv2(v.mountPath).Get(ctx, v.path)
	if err != nil {
		v.log.Error(ctx, "Failed to read shared secret from vault", err, logger.String("path", v.path))
		return "", errors.ErrConfiguration("failed to read shared secret from vault").WithError(err)
	}

	value, ok := secret.Data[appSecretField].(string)
	if !ok || value == "" {
		return "", errors.ErrConfiguration(fmt.Sprintf("vault secret %s/%s has no %q field", v.mountPath, v.path, appSecretField))
	}
	return value, nil
}

// Health reports whether Vault is reachable and unsealed.
func (v *VaultSecretSource) Health(ctx context.Context) error {
	resp, err := v.client.Sys().HealthWithContext(ctx)
	if err != nil {
		return err
	}
	if resp.Sealed {
		return fmt.Errorf("vault at %s is sealed", v.client.Address())
	}
	return nil
}
