// Package http exposes the registry over a JSON API. Handlers translate the
// wire format and map domain errors to statuses; all semantics live in the
// application layer.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sixt-edu/student-registry/pkg/logger"
)

// ServerConfig holds the listener settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Server wraps the stdlib server with lifecycle plumbing.
type Server struct {
	srv *http.Server
	log *logger.Logger
}

// NewServer builds the server around a routed handler.
func NewServer(cfg ServerConfig, handler http.Handler, log *logger.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:         cfg.Addr,
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		log: log,
	}
}

// Start serves until the listener closes. A graceful Shutdown is reported as
// a clean return, not an error.
func (s *Server) Start() error {
	s.log.Info("http server listening", logger.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("http server shutting down")
	return s.srv.Shutdown(ctx)
}
