package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"

	apihttp "github.com/DannyMang/theta/internal/api/http"
	"github.com/DannyMang/theta/internal/api/middleware"
	"github.com/DannyMang/theta/internal/app"
	"github.com/DannyMang/theta/internal/infrastructure/logging"
	"github.com/DannyMang/theta/internal/infrastructure/monitoring"
	"github.com/DannyMang/theta/internal/infrastructure/tracing"
)

const (
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 120 * time.Second
)

// Server wraps the HTTP server and the application context
type Server struct {
	app     *app.Context
	router  *gin.Engine
	handler http.Handler
	http    *http.Server
	logger  *logging.Logger
}

// New builds the router for appCtx
func New(appCtx *app.Context) *Server {
	cfg := appCtx.Config
	logger := appCtx.Logger.Named("server")

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(appCtx.Tracer))
	router.Use(monitoring.Middleware(appCtx.Metrics))
	router.Use(middleware.CORS(middleware.CORSFromConfig(cfg.CORS)))
	if rl, enabled := middleware.RateLimitFromConfig(cfg.RateLimit); enabled {
		logger.Info("rate limiting enabled",
			zap.Int("rps", rl.RequestsPerSecond),
			zap.Int("burst", rl.Burst),
		)
		router.Use(middleware.RateLimit(rl))
	}

	apihttp.NewHandlers(appCtx).Register(router)

	s := &Server{
		app:    appCtx,
		router: router,
		logger: logger,
	}
	s.handler = s.compress(router)
	s.http = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}

	logger.Info("server initialized", zap.String("addr", cfg.Addr()))
	return s
}

// Handler returns the root handler, compression included
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until Shutdown is called
func (s *Server) Run() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones until ctx
// expires, then closes the application context.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	// stream clients are hijacked connections; http.Server.Shutdown does not wait for them
	s.app.Hub.Close()

	err := s.http.Shutdown(ctx)
	if err != nil {
		s.logger.Error("http shutdown incomplete", zap.Error(err))
	}
	if cerr := s.app.Close(); cerr != nil && err == nil {
		err = cerr
	}
	s.logger.Sync()
	return err
}

// compress gzips responses for clients that accept it. Upgrade requests
// bypass the wrapper because the stream hijacks the connection.
func (s *Server) compress(next http.Handler) http.Handler {
	gz := gzhttp.GzipHandler(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Upgrade") != "" {
			next.ServeHTTP(w, r)
			return
		}
		gz.ServeHTTP(w, r)
	})
}
