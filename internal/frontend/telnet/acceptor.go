package telnet

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/tallgrass/internal/config"
)

// SessionHandler runs the command loop for one connected client.
// id is unique per connection.
type SessionHandler interface {
	HandleSession(ctx context.Context, id string, conn *Conn) error
}

// Acceptor accepts Telnet clients and runs a SessionHandler for each on its
// own goroutine. Stop cancels every session context and closes every
// client so blocked reads return.
type Acceptor struct {
	cfg     config.TelnetConfig
	handler SessionHandler
	logger  *zap.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    map[string]*Conn
	ctx      context.Context
	cancel   context.CancelFunc
	stopped  bool
	wg       sync.WaitGroup
}

// NewAcceptor creates an Acceptor.
//
// Precondition: handler and logger must be non-nil.
func NewAcceptor(cfg config.TelnetConfig, handler SessionHandler, logger *zap.Logger) *Acceptor {
	ctx, cancel := context.WithCancel(context.Background())
	return &Acceptor{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
		conns:   make(map[string]*Conn),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// ListenAndServe listens on the configured address and serves until Stop.
func (a *Acceptor) ListenAndServe() error {
	l, err := net.Listen("tcp", a.cfg.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", a.cfg.Addr(), err)
	}
	return a.Serve(l)
}

// Serve accepts clients from l until Stop is called. It takes ownership of l.
//
// Postcondition: Returns nil after Stop, or the first non-temporary accept error.
func (a *Acceptor) Serve(l net.Listener) error {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		_ = l.Close()
		return nil
	}
	a.listener = l
	a.mu.Unlock()

	a.logger.Info("telnet acceptor listening", zap.String("addr", l.Addr().String()))

	for {
		raw, err := l.Accept()
		if err != nil {
			if a.ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				a.logger.Warn("accept timeout", zap.Error(err))
				continue
			}
			return fmt.Errorf("accepting telnet client: %w", err)
		}
		a.wg.Add(1)
		go a.serveConn(raw)
	}
}

func (a *Acceptor) serveConn(raw net.Conn) {
	defer a.wg.Done()
	start := time.Now()
	id := uuid.NewString()
	log := a.logger.With(zap.String("session", id), zap.String("remote_addr", raw.RemoteAddr().String()))

	conn := NewConn(raw, a.cfg.ReadTimeout, a.cfg.WriteTimeout)
	if !a.track(id, conn) {
		_ = conn.Close()
		return
	}
	defer a.untrack(id)
	defer conn.Close()

	log.Info("client connected")
	if err := conn.Negotiate(); err != nil {
		log.Warn("telnet negotiation failed", zap.Error(err))
		return
	}

	if err := a.handler.HandleSession(a.ctx, id, conn); err != nil && a.ctx.Err() == nil {
		log.Debug("session ended", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return
	}
	log.Info("session ended cleanly", zap.Duration("duration", time.Since(start)))
}

func (a *Acceptor) track(id string, c *Conn) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return false
	}
	a.conns[id] = c
	return true
}

func (a *Acceptor) untrack(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.conns, id)
}

// Stop closes the listener, cancels every session and waits for them to end.
// Calling Stop more than once is a no-op.
func (a *Acceptor) Stop() {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.stopped = true
	a.cancel()
	if a.listener != nil {
		_ = a.listener.Close()
	}
	for _, c := range a.conns {
		_ = c.Close()
	}
	a.mu.Unlock()

	a.wg.Wait()
	a.logger.Info("telnet acceptor stopped")
}

// Addr returns the listening address, or "" before Serve.
func (a *Acceptor) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// Active returns the number of connected clients.
func (a *Acceptor) Active() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.conns)
}
