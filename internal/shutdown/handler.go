package shutdown

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Handler cancels its context on SIGINT or SIGTERM and runs the registered
// cleanups once, most recent first.
type Handler struct {
	ctx      context.Context
	cancel   context.CancelFunc
	once     sync.Once
	mu       sync.Mutex
	cleanups []func() error
	err      error

	// exit is called on a second signal while cleanups are still running.
	exit func(code int)
}

// New creates a new shutdown handler
func New() *Handler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Handler{
		ctx:    ctx,
		cancel: cancel,
		exit:   os.Exit,
	}
}

// Context returns the shutdown context
func (h *Handler) Context() context.Context {
	return h.ctx
}

// AddCleanup registers fn to run on shutdown.
func (h *Handler) AddCleanup(fn func() error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cleanups = append(h.cleanups, fn)
}

// Listen starts listening for shutdown signals. onSignal, when set, is
// told which signal arrived before the context is cancelled.
func (h *Handler) Listen(onSignal func(os.Signal)) {
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		if onSignal != nil {
			onSignal(sig)
		}
		go func() {
			<-sigChan
			h.exit(130)
		}()
		h.Shutdown()
	}()
}

// Shutdown cancels the context and runs the cleanups. Later calls return
// the result of the first one.
func (h *Handler) Shutdown() error {
	h.once.Do(func() {
		h.cancel()

		h.mu.Lock()
		fns := h.cleanups
		h.mu.Unlock()

		var errs []error
		for i := len(fns) - 1; i >= 0; i-- {
			if err := fns[i](); err != nil {
				errs = append(errs, err)
			}
		}
		h.err = errors.Join(errs...)
	})
	return h.err
}
