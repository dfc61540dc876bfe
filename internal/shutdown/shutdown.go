// Package shutdown runs registered cleanup steps when the process is asked
// to stop.
package shutdown

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gogpu/fractal/internal/logger"
)

// DefaultTimeout bounds the whole shutdown when none is given.
const DefaultTimeout = 30 * time.Second

// Manager collects cleanup handlers and runs them once, newest first.
type Manager struct {
	log      *logger.Logger
	timeout  time.Duration
	mu       sync.Mutex
	handlers []handler
	once     sync.Once
	done     chan struct{}
	err      error
}

type handler struct {
	name    string
	cleanup func(ctx context.Context) error
}

// NewManager returns a Manager whose Shutdown gives up after timeout.
func NewManager(log *logger.Logger, timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Manager{log: log, timeout: timeout, done: make(chan struct{})}
}

// Register adds a cleanup step. Steps run in reverse registration order.
func (m *Manager) Register(name string, cleanup func(ctx context.Context) error) {
	m.mu.Lock()
	m.handlers = append(m.handlers, handler{name: name, cleanup: cleanup})
	m.mu.Unlock()
	m.log.Debug("registered shutdown handler", "name", name)
}

// Wait blocks until SIGINT or SIGTERM arrives or ctx is done, then runs
// Shutdown and returns its error.
func (m *Manager) Wait(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	m.log.Info("shutdown requested", "cause", context.Cause(ctx).Error())
	return m.Shutdown()
}

// Shutdown runs every handler sequentially, LIFO, sharing one deadline.
// Only the first call does any work; later calls return the same result.
func (m *Manager) Shutdown() error {
	m.once.Do(func() {
		defer close(m.done)

		m.mu.Lock()
		handlers := append([]handler(nil), m.handlers...)
		m.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()

		m.log.Info("starting graceful shutdown", "handlers", len(handlers), "timeout", m.timeout.String())

		var errs []error
		for i := len(handlers) - 1; i >= 0; i-- {
			h := handlers[i]
			start := time.Now()
			if err := h.cleanup(ctx); err != nil {
				m.log.Error("shutdown handler failed",
					"name", h.name,
					"error", err.Error(),
					"duration_ms", time.Since(start).Milliseconds(),
				)
				errs = append(errs, err)
				continue
			}
			m.log.Debug("shutdown handler completed", "name", h.name, "duration_ms", time.Since(start).Milliseconds())
		}
		m.err = errors.Join(errs...)

		if ctx.Err() != nil {
			m.log.Warn("shutdown timeout exceeded")
		} else {
			m.log.Info("graceful shutdown completed")
		}
	})
	<-m.done
	return m.err
}

// Done is closed once Shutdown has finished.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}
