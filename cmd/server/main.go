package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	appservice "github.com/turtacn/backupgw/internal/application/service"
	"github.com/turtacn/backupgw/internal/config"
	domainservice "github.com/turtacn/backupgw/internal/domain/service"
	"github.com/turtacn/backupgw/internal/infrastructure/audit"
	"github.com/turtacn/backupgw/internal/infrastructure/crypto"
	"github.com/turtacn/backupgw/internal/infrastructure/identity"
	"github.com/turtacn/backupgw/internal/infrastructure/monitoring"
	"github.com/turtacn/backupgw/internal/infrastructure/persistence"
	"github.com/turtacn/backupgw/internal/infrastructure/ratelimit"
	"github.com/turtacn/backupgw/internal/infrastructure/redis"
	"github.com/turtacn/backupgw/internal/interfaces/http"
	"github.com/turtacn/backupgw/internal/interfaces/http/handlers"
	"github.com/turtacn/backupgw/internal/interfaces/http/middleware"
	"github.com/turtacn/backupgw/internal/interfaces/http/router"
	"github.com/turtacn/backupgw/pkg/constants"
	"github.com/turtacn/backupgw/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configFile := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	// Logger for startup
	startupLogger, err := monitoring.NewZapLogger(&config.LogConfig{Level: "info", Format: "json"})
	if err != nil {
		log.Fatalf("Failed to create startup logger: %v", err)
	}

	// Load config
	loader := config.NewLoader(*configFile, startupLogger)
	cfg, err := loader.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger, err := monitoring.NewZapLogger(&cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()
	loader.WatchLogLevel(appLogger.SetLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLogger); err != nil {
		appLogger.Error(context.Background(), "Gateway stopped with error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, appLogger *monitoring.ZapLogger) error {
	// Initialize tracing
	tracing, err := monitoring.NewTracingManager(&cfg.Tracing, appLogger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tracing.Shutdown(shutdownCtx)
	}()

	// Initialize database
	db, err := persistence.NewDBConnection(ctx, &cfg.Database, appLogger)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Initialize Redis
	rdb, err := redis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	healthChecks := []handlers.HealthCheck{handlers.DatabaseCheck(db), handlers.RedisCheck(rdb)}

	// Shared secret: vault when configured, otherwise configuration
	var secrets crypto.SecretSource = crypto.StaticSecretSource(cfg.Security.AppSecret)
	if cfg.Vault.Enabled && cfg.Security.AppSecretVaultPath != "" {
		vaultSource, err := crypto.NewVaultSecretSource(&cfg.Vault, cfg.Security.AppSecretVaultPath, appLogger)
		if err != nil {
			return err
		}
		secrets = vaultSource
		healthChecks = append(healthChecks, handlers.HealthCheck{Name: "vault", Check: vaultSource.Health})
	}
	secret, err := secrets.AppSecret(ctx)
	if err != nil {
		return err
	}

	creds := crypto.NewCredentialService()
	sealer, err := crypto.NewSealer(creds, secret)
	if err != nil {
		return err
	}

	// Identity
	jwtCfg := identity.JWTConfig{
		SigningKey: creds.DeriveKey("jwt-signing:" + secret),
		Issuer:     cfg.Security.JWTIssuer,
		Audience:   cfg.Security.JWTAudience,
		TTL:        cfg.Security.AccessTokenTTL,
	}
	users := persistence.NewUserRepository(db, appLogger)
	blacklist := redis.NewTokenBlacklistStore(rdb)
	resolver := identity.NewJWTResolver(jwtCfg, users, blacklist,
		identity.NewRoleHierarchy(cfg.Security.RoleHierarchy), appLogger)

	// Audit trail
	auditSinks := audit.Fanout{audit.NewLogSink(appLogger), audit.NewGormAuditService(db)}
	if cfg.Kafka.Enabled {
		producer := audit.NewKafkaProducer(cfg.Kafka, creds.DeriveKey("audit-signing:"+secret), appLogger)
		defer producer.Close()
		auditSinks = append(auditSinks, producer)
	}
	var auditService domainservice.AuditService = auditSinks

	metrics := monitoring.NewMetrics()

	var loginLimiter domainservice.RateLimiter
	if cfg.Security.LoginRateLimit > 0 {
		loginLimiter = ratelimit.NewRedisRateLimiter(rdb, ratelimit.RateLimiterConfig{
			Limit:     cfg.Security.LoginRateLimit,
			Window:    cfg.Security.LoginRateWindow,
			KeyPrefix: "bgw:login",
		}, appLogger)
	}

	// Application services
	authSvc, err := appservice.NewAuthAppService(users, creds, identity.NewTokenIssuer(jwtCfg), blacklist,
		loginLimiter, auditService, appLogger)
	if err != nil {
		return err
	}
	credSvc := appservice.NewCredentialAppService(creds, sealer, auditService, metrics, appLogger)

	// Dispatcher
	cors := router.NewCORSPolicy(cfg.Server.AllowedOrigins, constants.CORSAllowedMethods,
		constants.CORSAllowedHeaders, cfg.Server.CORSMaxAge)
	authenticator := middleware.NewAuthenticator(resolver, auditService, metrics, appLogger)
	dispatcher := router.NewDispatcher(cfg.Server.APIPrefix, cors, authenticator, metrics, appLogger)
	if err := http.RegisterRoutes(dispatcher, http.APIHandlers{
		Auth:        handlers.NewAuthHandler(authSvc),
		Credentials: handlers.NewCredentialHandler(credSvc),
		Servers:     handlers.NewServerHandler(),
	}); err != nil {
		return err
	}

	server := http.NewServer(http.ServerDependencies{
		Config:        &cfg.Server,
		Logger:        appLogger,
		Dispatcher:    dispatcher,
		HealthHandler: handlers.NewHealthHandler(appLogger, healthChecks...),
		Metrics:       metrics,
		Tracing:       tracing,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info(context.Background(), "Shutting down HTTP server", logger.Duration("timeout", shutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Stop(shutdownCtx)
	})
	return g.Wait()
}
