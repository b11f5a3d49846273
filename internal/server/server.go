package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zappabad/squeeze/internal/market"
	"github.com/zappabad/squeeze/pkg/logger"
)

// ServerOption configures Server.
type ServerOption func(*Config)

// Config holds server configuration.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MetricsPath     string

	log        *logger.Logger
	registry   *prometheus.Registry
	tickEvents <-chan market.TickSummary
}

// Server wraps the Echo HTTP server exposing the status API.
type Server struct {
	echo   *echo.Echo
	config *Config
	hub    *TickHub
}

// NewServer creates a new HTTP server serving h.
func NewServer(h *Handler, opts ...ServerOption) *Server {
	cfg := &Config{
		Addr:            ":8080",
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 5 * time.Second,
		MetricsPath:     "/metrics",
		log:             logger.NewNop(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout

	// Middleware
	e.Use(Recover(cfg.log))
	e.Use(RequestLogging(cfg.log))

	// Register routes
	if h != nil {
		h.RegisterRoutes(e)
	}

	// Expose Prometheus metrics endpoint for scraping
	if cfg.registry != nil && cfg.MetricsPath != "" {
		e.GET(cfg.MetricsPath, echo.WrapHandler(promhttp.HandlerFor(cfg.registry, promhttp.HandlerOpts{})))
	}

	var hub *TickHub
	if cfg.tickEvents != nil {
		hub = NewTickHub(cfg.log)
		e.GET("/ws/ticks", hub.ServeWS)
		go hub.Run(cfg.tickEvents)
	}

	return &Server{
		echo:   e,
		config: cfg,
		hub:    hub,
	}
}

// Start starts the HTTP server in the background.
func (s *Server) Start() error {
	if s.config.Addr == "" {
		return fmt.Errorf("server address is empty")
	}

	go func() {
		s.config.log.Info("http server listening", logger.String("addr", s.config.Addr))
		if err := s.echo.Start(s.config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.config.log.Error("http server error", logger.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	// Hijacked websocket conns are not closed by Shutdown.
	if s.hub != nil {
		s.hub.Close()
	}

	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	s.config.log.Info("http server stopped")
	return nil
}

// StreamClients returns the number of connected tick stream clients.
func (s *Server) StreamClients() int {
	if s.hub == nil {
		return 0
	}
	return s.hub.Clients()
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// WithAddr sets the listen address.
func WithAddr(addr string) ServerOption {
	return func(c *Config) {
		c.Addr = addr
	}
}

// WithTimeouts sets read/write/shutdown timeouts. Zero values keep the defaults.
func WithTimeouts(read, write, shutdown time.Duration) ServerOption {
	return func(c *Config) {
		if read > 0 {
			c.ReadTimeout = read
		}
		if write > 0 {
			c.WriteTimeout = write
		}
		if shutdown > 0 {
			c.ShutdownTimeout = shutdown
		}
	}
}

// WithMetrics serves reg at path.
func WithMetrics(reg *prometheus.Registry, path string) ServerOption {
	return func(c *Config) {
		c.registry = reg
		if path != "" {
			c.MetricsPath = path
		}
	}
}

// WithLogger sets the server logger.
func WithLogger(l *logger.Logger) ServerOption {
	return func(c *Config) {
		c.log = l
	}
}

// WithTickStream streams every summary received on events to websocket
// clients at /ws/ticks. The server must be the only reader of events.
func WithTickStream(events <-chan market.TickSummary) ServerOption {
	return func(c *Config) {
		c.tickEvents = events
	}
}
