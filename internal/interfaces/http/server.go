// Package http assembles the gateway's HTTP server: the gin engine, its
// middleware chain, the operational endpoints and the route dispatcher.
package http

import (
	"context"
	"net/http"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"

	"github.com/turtacn/backupgw/internal/config"
	"github.com/turtacn/backupgw/internal/infrastructure/monitoring"
	"github.com/turtacn/backupgw/internal/interfaces/http/handlers"
	"github.com/turtacn/backupgw/internal/interfaces/http/middleware"
	"github.com/turtacn/backupgw/internal/interfaces/http/router"
	"github.com/turtacn/backupgw/pkg/logger"
)

// ServerDependencies 服务器依赖
type ServerDependencies struct {
	Config        *config.ServerConfig
	Logger        logger.Logger
	Dispatcher    *router.Dispatcher
	HealthHandler *handlers.HealthHandler
	Metrics       *monitoring.Metrics
	Tracing       *monitoring.TracingManager
}

// Server HTTP 服务器
type Server struct {
	engine *gin.Engine
	logger logger.Logger
	server *http.Server
}

// NewServer 创建服务器并注册路由
func NewServer(deps ServerDependencies) *Server {
	// 设置 Gin 模式
	if deps.Config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = false

	// 全局中间件
	engine.Use(middleware.Recovery(deps.Logger))
	engine.Use(middleware.RequestID(deps.Logger))
	if deps.Tracing != nil {
		engine.Use(middleware.Tracing(deps.Tracing))
	}
	engine.Use(middleware.Logging(deps.Logger))

	// 健康检查路由（不需要认证）
	engine.GET("/health", deps.HealthHandler.HealthCheck)
	engine.GET("/ready", deps.HealthHandler.ReadinessCheck)

	if deps.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	// Pprof 性能分析
	if deps.Config.PprofEnabled {
		pprof.Register(engine)
	}

	// 其余请求全部交给分发器
	engine.NoRoute(deps.Dispatcher.Dispatch)

	return &Server{
		engine: engine,
		logger: deps.Logger.WithComponent("HTTPServer"),
		server: &http.Server{
			Addr:           deps.Config.Address(),
			Handler:        engine,
			ReadTimeout:    deps.Config.ReadTimeout,
			WriteTimeout:   deps.Config.WriteTimeout,
			IdleTimeout:    deps.Config.IdleTimeout,
			MaxHeaderBytes: 1 << 20, // 1MB
		},
	}
}

// Handler exposes the engine, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start 启动 HTTP 服务器，阻塞直到服务器关闭
func (s *Server) Start() error {
	s.logger.Info(context.Background(), "Starting HTTP server", logger.String("address", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop 停止 HTTP 服务器
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info(ctx, "Stopping HTTP server")
	return s.server.Shutdown(ctx)
}
