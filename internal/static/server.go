// Package static serves a directory of prebuilt front-end assets over HTTP.
package static

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"stripdemo/internal/config"
	"stripdemo/internal/paths"
)

// Server is the static asset HTTP server
type Server struct {
	cfg       config.ServerConfig
	router    *chi.Mux
	server    *http.Server
	addr      string
	root      string
	rootReady bool
	started   time.Time
	logger    *slog.Logger
}

// NewServer builds a server for cfg. A missing asset directory is logged
// and every asset request then answers 404.
func NewServer(cfg config.ServerConfig, logger *slog.Logger) (*Server, error) {
	s := &Server{
		cfg:     cfg,
		addr:    net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		router:  chi.NewRouter(),
		started: time.Now(),
		logger:  logger,
	}

	root, err := paths.ResolveDir(cfg.AssetDir)
	if err != nil {
		abs, absErr := filepath.Abs(cfg.AssetDir)
		if absErr != nil {
			return nil, fmt.Errorf("failed to resolve asset directory: %w", absErr)
		}
		root = abs
		logger.Warn("Asset directory unavailable, all asset requests will 404",
			"assetDir", root,
			"error", err.Error(),
		)
	} else {
		s.rootReady = true
	}
	s.root = root

	if err := s.registerRoutes(); err != nil {
		return nil, err
	}

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  millis(cfg.ReadTimeoutMs),
		WriteTimeout: millis(cfg.WriteTimeoutMs),
		IdleTimeout:  millis(cfg.IdleTimeoutMs),
	}

	return s, nil
}

func (s *Server) registerRoutes() error {
	// chi requires middleware before routes
	s.router.Use(RequestIDMiddleware())
	s.router.Use(LoggingMiddleware(s.logger))
	s.router.Use(RecoveryMiddleware(s.logger))
	s.router.Use(HeadersMiddleware(s.cfg.Headers))
	if s.cfg.Compress {
		compress, err := CompressionMiddleware()
		if err != nil {
			return fmt.Errorf("failed to create gzip middleware: %w", err)
		}
		s.router.Use(compress)
	}

	opts := HandlerOptions{
		IndexFile: s.cfg.IndexFile,
		Dotfiles:  DotfilePolicy(s.cfg.Dotfiles),
		ETag:      s.cfg.ETag,
	}
	if s.cfg.Compress {
		opts.GzipMinSize = gzipMinSize
	}
	assets := NewHandler(http.Dir(s.root), opts, s.logger)

	s.router.NotFound(assets.NotFound)
	s.router.MethodNotAllowed(assets.NotFound)

	if s.cfg.HealthPath != "" {
		s.router.Get(s.cfg.HealthPath, s.handleHealth)
		s.router.Head(s.cfg.HealthPath, s.handleHealth)
	}

	prefix := strings.TrimSuffix(s.cfg.Prefix, "/")
	var h http.Handler = assets
	if prefix != "" {
		h = http.StripPrefix(prefix, assets)
		s.router.Get(prefix, h.ServeHTTP)
		s.router.Head(prefix, h.ServeHTTP)
	}
	s.router.Get(prefix+"/*", h.ServeHTTP)
	s.router.Head(prefix+"/*", h.ServeHTTP)
	return nil
}

// Addr returns the configured listen address, host:port
func (s *Server) Addr() string {
	return s.addr
}

// Root returns the absolute asset directory
func (s *Server) Root() string {
	return s.root
}

// Listen binds the configured address
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return ln, nil
}

// Serve accepts connections on ln until Shutdown is called
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("Listening",
		"addr", ln.Addr().String(),
		"root", s.root,
		"prefix", s.cfg.Prefix,
	)
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Start binds the configured address and serves on it
func (s *Server) Start() error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	s.logger.Info("Server shut down successfully")
	return nil
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.server.Handler.ServeHTTP(w, r)
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
