// Package shutdown provides graceful shutdown handling.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/celerix-dev/liquidstore/internal/telemetry/logger"
)

// Handler handles graceful shutdown.
type Handler struct {
	timeout time.Duration
	log     logger.Logger
	hooks   []namedHook
	mu      sync.Mutex
	trigger chan struct{}
	once    sync.Once
	done    chan struct{}
}

type namedHook struct {
	name string
	fn   func(context.Context) error
}

// NewHandler creates a new shutdown handler.
func NewHandler(timeout time.Duration, log logger.Logger) *Handler {
	if log == nil {
		log = logger.Default()
	}
	return &Handler{
		timeout: timeout,
		log:     log,
		hooks:   make([]namedHook, 0),
		trigger: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// OnShutdown registers a named shutdown hook.
// Hooks are called in reverse order of registration.
func (h *Handler) OnShutdown(name string, hook func(context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, namedHook{name: name, fn: hook})
}

// Trigger initiates shutdown programmatically, as if a signal arrived.
// Safe to call multiple times.
func (h *Handler) Trigger() {
	h.once.Do(func() { close(h.trigger) })
}

// Wait blocks until a SIGINT/SIGTERM arrives or Trigger is called,
// then executes the registered hooks.
func (h *Handler) Wait() error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		h.log.Info("shutdown signal received", "signal", sig.String())
	case <-h.trigger:
		h.log.Info("shutdown triggered")
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	h.mu.Lock()
	hooks := make([]namedHook, len(h.hooks))
	copy(hooks, h.hooks)
	h.mu.Unlock()

	// Reverse order: last registered, first stopped
	var lastErr error
	for i := len(hooks) - 1; i >= 0; i-- {
		if err := hooks[i].fn(ctx); err != nil {
			h.log.Error("shutdown hook failed", "hook", hooks[i].name, "error", err)
			lastErr = err
		} else {
			h.log.Debug("shutdown hook completed", "hook", hooks[i].name)
		}
	}

	close(h.done)
	return lastErr
}

// Done returns a channel that closes when shutdown is complete.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}
