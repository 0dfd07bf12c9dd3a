package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/nerrad567/leaflens-gateway/internal/audit"
	"github.com/nerrad567/leaflens-gateway/internal/auth"
	"github.com/nerrad567/leaflens-gateway/internal/gateway"
	"github.com/nerrad567/leaflens-gateway/internal/infrastructure/config"
	"github.com/nerrad567/leaflens-gateway/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// HealthChecker is an optional integration reported on /health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.APIConfig
	Site    config.SiteConfig
	Logger  *logging.Logger
	Gateway *gateway.Service
	Gate    *auth.Gate
	Audit   audit.Repository // optional; /api/audit answers 404 without it
	Metrics *Metrics         // optional; a private instance is created if nil
	Version string

	// Components are checked on every /health request, keyed by name.
	Components map[string]HealthChecker
}

// Server is the HTTP server for the gateway.
//
// It is created with New and started with Start. The handler tree is built
// once in New and is safe for concurrent use.
type Server struct {
	cfg       config.APIConfig
	site      config.SiteConfig
	logger    *logging.Logger
	gateway   *gateway.Service
	gate      *auth.Gate
	audit     audit.Repository
	metrics   *Metrics
	version   string
	startTime time.Time

	components map[string]HealthChecker

	handler  http.Handler
	server   *http.Server
	listener net.Listener
}

// New validates deps and builds the router. The server does not listen
// until Start is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Gateway == nil {
		return nil, fmt.Errorf("gateway service is required")
	}
	if deps.Gate == nil {
		return nil, fmt.Errorf("auth gate is required")
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}

	s := &Server{
		cfg:       deps.Config,
		site:      deps.Site,
		logger:    deps.Logger.Component("api"),
		gateway:   deps.Gateway,
		gate:      deps.Gate,
		audit:     deps.Audit,
		metrics:   metrics,
		version:   deps.Version,
		startTime: time.Now(),

		components: deps.Components,
	}
	s.handler = s.buildRouter()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start binds the listen address and serves in a background goroutine.
// Bind errors (port in use, permission denied) are returned directly.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	s.listener = ln
	s.server = &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
	}

	s.logger.Info("API server starting", "address", ln.Addr().String())
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close waits up to 10 seconds for in-flight requests, then closes
// remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}
