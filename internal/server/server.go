// Package server exposes a gallery provider over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/pageflip/pageflip/internal/decode"
	"github.com/pageflip/pageflip/internal/gallery"
	"github.com/pageflip/pageflip/internal/source"
)

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8080)
	Port string
	// Source is the gallery to serve. Required.
	Source source.Source
	// Decoder overrides the default image decoder.
	Decoder decode.Decoder
	// Accept overrides the default extension filter.
	Accept func(name string) bool
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// Server serves decoded gallery pages over HTTP. It owns the provider
// lifecycle: the provider worker starts with the server and is stopped on
// shutdown.
type Server struct {
	httpServer *http.Server
	provider   *gallery.Provider
	waiters    *pageWaiters
	logger     *slog.Logger

	mu      sync.RWMutex
	running bool
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Source == nil {
		return nil, errors.New("must provide a Source")
	}

	s := &Server{
		waiters: newPageWaiters(),
		logger:  cfg.Logger,
	}

	provider, err := gallery.New(gallery.Config{
		Source:  cfg.Source,
		Decoder: cfg.Decoder,
		Accept:  cfg.Accept,
		Sink: &providerSink{
			waiters: s.waiters,
			logger:  cfg.Logger,
		},
		Logger: cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create provider: %w", err)
	}
	s.provider = provider

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpServer = &http.Server{
		Addr:        net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:     mux,
		ReadTimeout: 30 * time.Second,
		// No write timeout: page responses wait on the decode queue.
		IdleTimeout: 120 * time.Second,
	}

	return s, nil
}

// Start starts the provider worker and the HTTP server.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	s.provider.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			s.provider.Stop()
			s.setNotRunning()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// shutdown performs graceful shutdown of the HTTP server and the provider.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	s.provider.Stop()
	s.setNotRunning()
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}
