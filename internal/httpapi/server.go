// Package httpapi exposes the service's JSON API over gin.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"tunebridge/internal/core"
)

type Server struct {
	config  *core.ServerConfig
	logger  *zap.Logger
	server  *http.Server
	engine  *gin.Engine
	metrics *Metrics
	limiter *RateLimiter
}

// Deps are the collaborators the handlers need.
type Deps struct {
	Search   core.SearchService
	Resolver core.StreamResolver
	Cache    urlCache
}

func NewServer(config *core.ServerConfig, deps Deps, metrics *Metrics, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	limiter := NewRateLimiter(config.RateLimitPerMin)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestLogger(logger, metrics))
	engine.Use(cors.Default())
	engine.Use(RateLimit(limiter))

	h := &handler{
		search:   deps.Search,
		resolver: deps.Resolver,
		cache:    deps.Cache,
		metrics:  metrics,
		logger:   logger,
	}

	engine.POST("/search", h.handleSearch)
	engine.GET("/popular", h.handlePopular)
	engine.GET("/recommendations", h.handleRecommendations)
	engine.POST("/resolve", h.handleResolve)
	engine.GET("/ping", h.handlePing)
	engine.GET("/healthz", h.handleHealthz)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.registry, promhttp.HandlerOpts{})))

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      engine,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	return &Server{
		config:  config,
		logger:  logger,
		server:  server,
		engine:  engine,
		metrics: metrics,
		limiter: limiter,
	}
}

// Start serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	go func() {
		<-ctx.Done()
		s.logger.Info("shutting down HTTP server")
		s.limiter.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("HTTP server shutdown failed", zap.Error(err))
		}
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}
