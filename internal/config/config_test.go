package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/backupgw/pkg/errors"
	"github.com/turtacn/backupgw/pkg/logger"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_FileAndDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  allowed_origins:
    - https://console.example.com
security:
  app_secret: s3cr3t
`)

	cfg, err := LoadConfig(path, logger.NewNoopLogger())
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/api", cfg.Server.APIPrefix)
	assert.Equal(t, []string{"https://console.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "s3cr3t", cfg.Security.AppSecret)
	assert.Equal(t, time.Hour, cfg.Security.AccessTokenTTL)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Len(t, cfg.Security.RoleHierarchy, 2)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "security:\n  app_secret: from-file\n")
	t.Setenv("BACKUP_GW_SECURITY_APP_SECRET", "from-env")
	t.Setenv("BACKUP_GW_SERVER_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := LoadConfig(path, logger.NewNoopLogger())
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Security.AppSecret)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.AllowedOrigins)
}

func TestLoadConfig_MissingSecretIsConfigurationError(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 8080\n")

	_, err := LoadConfig(path, logger.NewNoopLogger())
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindConfiguration))
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:   ServerConfig{Port: 8080, APIPrefix: "/api"},
			Security: SecurityConfig{AppSecret: "x", AccessTokenTTL: time.Minute},
			Database: DatabaseConfig{Driver: "sqlite"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "vault supplies secret", mutate: func(c *Config) {
			c.Security.AppSecret = ""
			c.Vault = VaultConfig{Enabled: true, Address: "http://vault:8200"}
			c.Security.AppSecretVaultPath = "gateway/app"
		}},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: true},
		{name: "prefix without slash", mutate: func(c *Config) { c.Server.APIPrefix = "api" }, wantErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "oracle" }, wantErr: true},
		{name: "kafka without brokers", mutate: func(c *Config) { c.Kafka.Enabled = true }, wantErr: true},
		{name: "wildcard origin", mutate: func(c *Config) {
			c.Server.AllowedOrigins = []string{"https://console.example.com", "*"}
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
