package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/turtacn/backupgw/pkg/errors"
)

// Config holds the application's configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Security SecurityConfig `mapstructure:"security"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Vault    VaultConfig    `mapstructure:"vault"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Log      LogConfig      `mapstructure:"log"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	APIPrefix      string        `mapstructure:"api_prefix"`
	Environment    string        `mapstructure:"environment"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	CORSMaxAge     time.Duration `mapstructure:"cors_max_age"`
	PprofEnabled   bool          `mapstructure:"pprof_enabled"`
}

// Address returns the listen address of the HTTP server.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type SecurityConfig struct {
	// AppSecret is the process-wide shared secret the symmetric key is derived from.
	AppSecret string `mapstructure:"app_secret"`
	// AppSecretVaultPath, when set and vault is enabled, overrides AppSecret.
	AppSecretVaultPath string              `mapstructure:"app_secret_vault_path"`
	JWTIssuer          string              `mapstructure:"jwt_issuer"`
	JWTAudience        string              `mapstructure:"jwt_audience"`
	AccessTokenTTL     time.Duration       `mapstructure:"access_token_ttl"`
	RoleHierarchy      map[string][]string `mapstructure:"role_hierarchy"`
	// LoginRateLimit attempts are allowed per client and username within LoginRateWindow. 0 disables throttling.
	LoginRateLimit  int           `mapstructure:"login_rate_limit"`
	LoginRateWindow time.Duration `mapstructure:"login_rate_window"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	MountPath string `mapstructure:"mount_path"`
}

type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	AuditTopic   string        `mapstructure:"audit_topic"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TracingConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	ServiceName    string  `mapstructure:"service_name"`
	Environment    string  `mapstructure:"environment"`
	SamplingRate   float64 `mapstructure:"sampling_rate"`
}

// Validate checks for essential configuration values.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port out of range: %d", c.Server.Port))
	}
	if c.Server.APIPrefix != "" && !strings.HasPrefix(c.Server.APIPrefix, "/") {
		problems = append(problems, "server.api_prefix must start with '/'")
	}
	for _, origin := range c.Server.AllowedOrigins {
		if strings.TrimSpace(origin) == "*" {
			problems = append(problems, "server.allowed_origins must list origins explicitly, '*' is not allowed")
			break
		}
	}
	if c.Security.AppSecret == "" && !(c.Vault.Enabled && c.Security.AppSecretVaultPath != "") {
		problems = append(problems, "security.app_secret is required unless vault supplies it")
	}
	if c.Security.LoginRateLimit > 0 && c.Security.LoginRateWindow <= 0 {
		problems = append(problems, "security.login_rate_window must be positive when login_rate_limit is set")
	}
	if c.Security.AccessTokenTTL <= 0 {
		problems = append(problems, "security.access_token_ttl must be positive")
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		problems = append(problems, fmt.Sprintf("database.driver unsupported: %q", c.Database.Driver))
	}
	if c.Vault.Enabled && c.Vault.Address == "" {
		problems = append(problems, "vault.address is required when vault is enabled")
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.AuditTopic == "") {
		problems = append(problems, "kafka.brokers and kafka.audit_topic are required when kafka is enabled")
	}

	if len(problems) > 0 {
		return errors.ErrConfiguration("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
