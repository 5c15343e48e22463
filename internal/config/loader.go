package config

import (
	"context"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"github.com/turtacn/backupgw/pkg/constants"
	"github.com/turtacn/backupgw/pkg/errors"
	"github.com/turtacn/backupgw/pkg/logger"
)

const envPrefix = "BACKUP_GW"

// Loader reads configuration from file, environment variables and defaults.
type Loader struct {
	v   *viper.Viper
	log logger.Logger
}

// NewLoader creates a Loader. configFile may be empty to use the search paths.
func NewLoader(configFile string, log logger.Logger) *Loader {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/backup-gateway/")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v, log: log}
}

// LoadConfig loads the configuration from file, environment variables, and defaults.
func LoadConfig(configFile string, log logger.Logger) (*Config, error) {
	return NewLoader(configFile, log).Load()
}

// Load reads and validates the configuration.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.ErrConfiguration("failed to read config file").WithError(err)
		}
		l.log.Info(context.Background(), "No config file found, using defaults and environment")
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, errors.ErrConfiguration("failed to unmarshal config").WithError(err)
	}
	// viper does not split env-supplied lists on commas
	cfg.Server.AllowedOrigins = splitList(cfg.Server.AllowedOrigins)
	cfg.Kafka.Brokers = splitList(cfg.Kafka.Brokers)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// WatchLogLevel invokes fn with the new log level whenever the config file changes.
// Only the level is hot-reloadable; everything else requires a restart.
func (l *Loader) WatchLogLevel(fn func(level string)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		level := l.v.GetString("log.level")
		l.log.Info(context.Background(), "Config file changed", logger.String("file", e.Name), logger.String("log_level", level))
		fn(level)
	})
	l.v.WatchConfig()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.api_prefix", constants.DefaultAPIPrefix)
	v.SetDefault("server.environment", "production")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.cors_max_age", constants.DefaultCORSMaxAge)
	v.SetDefault("server.pprof_enabled", false)

	// every key needs a default so AutomaticEnv can override it during Unmarshal
	v.SetDefault("security.app_secret", "")
	v.SetDefault("security.app_secret_vault_path", "")
	v.SetDefault("security.jwt_issuer", constants.DefaultJWTIssuer)
	v.SetDefault("security.jwt_audience", constants.DefaultJWTAudience)
	v.SetDefault("security.access_token_ttl", constants.AccessTokenDefaultTTL)
	v.SetDefault("security.login_rate_limit", 5)
	v.SetDefault("security.login_rate_window", time.Minute)
	v.SetDefault("security.role_hierarchy", map[string][]string{
		constants.RoleSuperAdmin: {constants.RoleAdmin},
		constants.RoleAdmin:      {constants.RoleUser},
	})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file:backup-gateway.db?_foreign_keys=on")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.mount_path", "secret")

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.audit_topic", "backup-gateway.audit")
	v.SetDefault("kafka.write_timeout", 5*time.Second)
	v.SetDefault("kafka.batch_timeout", 50*time.Millisecond)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.jaeger_endpoint", "")
	v.SetDefault("tracing.environment", "")
	v.SetDefault("tracing.service_name", "backup-gateway")
	v.SetDefault("tracing.sampling_rate", 1.0)
}

func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
