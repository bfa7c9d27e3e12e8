package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/authkit/logger"
	"github.com/kbukum/authkit/observability"
	"github.com/kbukum/authkit/server/endpoint"
	"github.com/kbukum/authkit/server/middleware"
)

// Server is an HTTP server backed by Gin. Handler-level middleware wraps the
// whole mux; Gin middleware runs only for routed requests.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	mux        *http.ServeMux
	h2s        *http2.Server
	config     Config
	log        *logger.Logger
	listener   net.Listener
}

// New creates a new Server. No middleware is applied until ApplyMiddleware.
func New(cfg Config, log *logger.Logger) *Server {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	_ = engine.SetTrustedProxies(cfg.TrustedProxies)

	mux := http.NewServeMux()
	mux.Handle("/", engine)

	h2s := &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          120 * time.Second,
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           h2c.NewHandler(mux, h2s),
		ReadTimeout:       time.Duration(cfg.ReadTimeout) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout:      time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:       time.Duration(cfg.IdleTimeout) * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		engine:     engine,
		mux:        mux,
		h2s:        h2s,
		config:     cfg,
		log:        log.WithComponent("server"),
	}
}

// GinEngine returns the underlying Gin engine for route registration.
func (s *Server) GinEngine() *gin.Engine {
	return s.engine
}

// Handler returns the root handler including handler-level middleware.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ApplyMiddleware installs the standard stack. Around the mux: request
// logging, CORS and the body size limit. Inside Gin: panic recovery,
// request ids and telemetry. httpMetrics may be nil.
func (s *Server) ApplyMiddleware(httpMetrics *observability.HTTPMetrics) {
	s.engine.Use(
		middleware.Recovery(s.log),
		middleware.RequestID(),
		middleware.Telemetry(httpMetrics),
	)

	chain := middleware.Chain(
		middleware.RequestLogger(s.log),
		middleware.CORS(&s.config.CORS),
		middleware.BodySizeLimit(s.config.MaxBodySize),
	)
	s.httpServer.Handler = h2c.NewHandler(chain(s.mux), s.h2s)
}

// RegisterDefaultEndpoints registers /health, /alive, /ready, /info and
// /version. health aggregates every component; ready decides whether the
// service can take traffic.
func (s *Server) RegisterDefaultEndpoints(serviceName string, health, ready endpoint.HealthChecker) {
	s.engine.GET("/health", endpoint.Health(serviceName, health))
	s.engine.GET("/alive", endpoint.Liveness(serviceName))
	s.engine.GET("/ready", endpoint.Readiness(serviceName, ready))
	s.engine.GET("/info", endpoint.Info(serviceName))
	s.engine.GET("/version", endpoint.Version())
}

// MountMetrics serves a scrape handler at path.
func (s *Server) MountMetrics(path string, h http.Handler) {
	s.engine.GET(path, gin.WrapH(h))
	s.log.Debug("Metrics endpoint mounted", map[string]interface{}{"path": path})
}

// Start binds the port and begins serving. It returns once the listener is
// bound so the caller knows the port is ready; serving continues in a goroutine.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.httpServer.Addr, err)
	}
	tlsCfg, err := s.config.TLS.ServerConfig()
	if err != nil {
		_ = listener.Close()
		return fmt.Errorf("server tls: %w", err)
	}
	serve := s.httpServer.Serve
	if tlsCfg != nil {
		s.httpServer.TLSConfig = tlsCfg
		if err := http2.ConfigureServer(s.httpServer, s.h2s); err != nil {
			_ = listener.Close()
			return fmt.Errorf("server http2: %w", err)
		}
		serve = func(l net.Listener) error { return s.httpServer.ServeTLS(l, "", "") }
	}
	s.listener = listener

	go func() {
		if err := serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("Server error", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	s.log.Info("HTTP server started", map[string]interface{}{
		"addr": listener.Addr().String(),
		"tls":  tlsCfg != nil,
	})
	return nil
}

// Stop gracefully shuts down the server with a 5-second deadline.
func (s *Server) Stop(ctx context.Context) error {
	if s.listener == nil {
		return nil
	}
	s.log.Info("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.log.Info("HTTP server shut down successfully")
	return nil
}

// Addr returns the bound address once started, else the configured one.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}
