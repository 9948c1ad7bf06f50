// Package server runs the battle server's long-lived listeners and stops
// them in order on a signal, a failed listener or a cancelled context.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// DefaultShutdownTimeout bounds how long services get to drain.
const DefaultShutdownTimeout = 10 * time.Second

// Service is a listener or worker whose Start blocks until Stop is called
// or it fails.
type Service interface {
	Start() error
	Stop(ctx context.Context) error
}

// FuncService adapts a start/stop pair to Service.
type FuncService struct {
	StartFn func() error
	StopFn  func(ctx context.Context) error
}

// Start calls StartFn.
func (f *FuncService) Start() error { return f.StartFn() }

// Stop calls StopFn.
func (f *FuncService) Stop(ctx context.Context) error { return f.StopFn(ctx) }

type namedService struct {
	name    string
	service Service
}

// Lifecycle starts services concurrently and stops them in reverse order
// of registration.
type Lifecycle struct {
	logger  *zap.Logger
	timeout time.Duration
	signals []os.Signal

	mu       sync.Mutex
	services []namedService
	hooks    []func()
}

// Option configures a Lifecycle.
type Option func(*Lifecycle)

// WithShutdownTimeout sets the total time services get to stop.
func WithShutdownTimeout(d time.Duration) Option {
	return func(l *Lifecycle) { l.timeout = d }
}

// WithSignals replaces the signals that trigger shutdown. No signals means
// only the context or a failing service ends Run.
func WithSignals(sigs ...os.Signal) Option {
	return func(l *Lifecycle) { l.signals = sigs }
}

// NewLifecycle creates a Lifecycle that shuts down on SIGINT or SIGTERM.
//
// Precondition: logger must be non-nil.
func NewLifecycle(logger *zap.Logger, opts ...Option) *Lifecycle {
	l := &Lifecycle{
		logger:  logger,
		timeout: DefaultShutdownTimeout,
		signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Add registers a service. Services start in the order added.
//
// Precondition: name must be non-empty; svc must be non-nil.
func (l *Lifecycle) Add(name string, svc Service) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.services = append(l.services, namedService{name: name, service: svc})
}

// OnShutdown registers fn to run once shutdown begins, before any service
// is stopped.
func (l *Lifecycle) OnShutdown(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hooks = append(l.hooks, fn)
}

// Run starts every service and blocks until a signal arrives, ctx is
// cancelled or a service fails.
//
// Postcondition: Every service has been asked to stop. The returned error
// joins the failure that ended Run, if any, with every Stop error.
func (l *Lifecycle) Run(ctx context.Context) error {
	l.mu.Lock()
	services := append([]namedService(nil), l.services...)
	hooks := append([]func(){}, l.hooks...)
	l.mu.Unlock()

	sigCh := make(chan os.Signal, 1)
	if len(l.signals) > 0 {
		signal.Notify(sigCh, l.signals...)
		defer signal.Stop(sigCh)
	}

	start := time.Now()
	errCh := make(chan error, len(services))
	var wg sync.WaitGroup
	for _, ns := range services {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.logger.Info("starting service", zap.String("service", ns.name))
			if err := ns.service.Start(); err != nil {
				l.logger.Error("service failed",
					zap.String("service", ns.name),
					zap.Error(err),
					zap.Duration("uptime", time.Since(start)),
				)
				errCh <- fmt.Errorf("service %s: %w", ns.name, err)
			}
		}()
	}
	l.logger.Info("all services started", zap.Int("count", len(services)))

	var cause error
	select {
	case sig := <-sigCh:
		l.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case cause = <-errCh:
		l.logger.Error("service error, shutting down", zap.Error(cause))
	case <-ctx.Done():
		l.logger.Info("context cancelled, shutting down")
	}

	for _, fn := range hooks {
		fn()
	}
	errs := append([]error{cause}, l.shutdown(services)...)
	wg.Wait()

	l.logger.Info("shutdown complete", zap.Duration("total_uptime", time.Since(start)))
	return errors.Join(errs...)
}

func (l *Lifecycle) shutdown(services []namedService) []error {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	var errs []error
	for i := len(services) - 1; i >= 0; i-- {
		ns := services[i]
		stopStart := time.Now()
		if err := ns.service.Stop(ctx); err != nil {
			l.logger.Warn("service stop failed", zap.String("service", ns.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("stopping %s: %w", ns.name, err))
			continue
		}
		l.logger.Info("service stopped",
			zap.String("service", ns.name),
			zap.Duration("elapsed", time.Since(stopStart)),
		)
	}
	return errs
}
