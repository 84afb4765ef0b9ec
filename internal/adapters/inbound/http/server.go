package http

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	// Addr is the address to listen on (e.g., ":8080")
	Addr string

	// ReadTimeout for HTTP requests
	ReadTimeout time.Duration

	// WriteTimeout for HTTP responses
	WriteTimeout time.Duration

	// RateLimit is the sustained requests per second across all clients.
	// Zero disables rate limiting.
	RateLimit float64

	// RateBurst is the token bucket size.
	RateBurst int

	// Logger for the server
	Logger *slog.Logger
}

// ServerConfigDefaults returns a config with default values.
func ServerConfigDefaults() ServerConfig {
	return ServerConfig{
		Addr:         ":8080",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		RateLimit:    100,
		RateBurst:    200,
		Logger:       slog.Default(),
	}
}

// Server serves the API and health endpoints.
type Server struct {
	server *http.Server
	logger *slog.Logger
}

// NewServer creates a server routing to the API handler and health handler.
func NewServer(config ServerConfig, handler *Handler, health *HealthHandler) *Server {
	defaults := ServerConfigDefaults()
	if config.Addr == "" {
		config.Addr = defaults.Addr
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = defaults.ReadTimeout
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}
	logger := config.Logger.With("component", "http-server")

	return &Server{
		server: &http.Server{
			Addr:         config.Addr,
			Handler:      NewRouter(config, handler, health),
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
		},
		logger: logger,
	}
}

// NewRouter builds the routed, middleware-wrapped HTTP handler.
// Health endpoints bypass the rate limiter.
func NewRouter(config ServerConfig, handler *Handler, health *HealthHandler) http.Handler {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	api := http.NewServeMux()
	handler.RegisterRoutes(api)

	var apiHandler http.Handler = api
	if config.RateLimit > 0 {
		burst := config.RateBurst
		if burst <= 0 {
			burst = int(config.RateLimit)
			if burst < 1 {
				burst = 1
			}
		}
		apiHandler = rateLimit(rate.NewLimiter(rate.Limit(config.RateLimit), burst), apiHandler)
	}

	root := http.NewServeMux()
	root.Handle("/api/", apiHandler)
	if health != nil {
		health.RegisterRoutes(root)
	}

	return recoverPanics(logger, logRequests(logger, root))
}

// ListenAndServe blocks serving requests until Shutdown is called.
// It returns nil after a graceful shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info("starting HTTP server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Serve is like ListenAndServe on an existing listener.
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info("starting HTTP server", "addr", l.Addr().String())
	if err := s.server.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
