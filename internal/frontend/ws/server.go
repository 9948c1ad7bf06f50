package ws

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tallgrass/internal/config"
)

// Server serves Handler on the configured path.
type Server struct {
	cfg     config.WebSocketConfig
	handler *Handler
	logger  *zap.Logger
	srv     *http.Server

	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates a Server.
//
// Precondition: handler and logger must be non-nil.
func NewServer(cfg config.WebSocketConfig, handler *Handler, logger *zap.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, handler)
	return &Server{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
		srv: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// ListenAndServe listens on the configured address and serves until Stop.
func (s *Server) ListenAndServe() error {
	l, err := net.Listen("tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr(), err)
	}
	return s.Serve(l)
}

// Serve accepts connections on l until Stop.
//
// Postcondition: Returns nil after Stop.
func (s *Server) Serve(l net.Listener) error {
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()
	s.logger.Info("websocket server listening",
		zap.String("addr", l.Addr().String()),
		zap.String("path", s.cfg.Path),
	)
	if err := s.srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving websocket: %w", err)
	}
	return nil
}

// Stop stops accepting, closes every client and waits for them to leave.
func (s *Server) Stop(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)
	s.handler.Close()
	s.logger.Info("websocket server stopped")
	return err
}

// Addr returns the listening address, or "" before Serve.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
