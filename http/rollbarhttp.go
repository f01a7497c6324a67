// Package rollbarhttp reports panics of net/http handlers.
package rollbarhttp

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/tabsight/rollbar-client-go"
)

// Handler wraps http.Handlers and dispatches their panics.
type Handler struct {
	dispatcher      *rollbar.Dispatcher
	repanic         bool
	waitForDelivery bool
	timeout         time.Duration
}

type Options struct {
	// Dispatcher receives the recovered panics. Defaults to
	// rollbar.DefaultDispatcher().
	Dispatcher *rollbar.Dispatcher
	// Repanic configures whether the panic is raised again after it was
	// dispatched, so an outer recovery handler can write the response.
	Repanic bool
	// WaitForDelivery blocks the request until the global client flushed.
	WaitForDelivery bool
	// Timeout bounds WaitForDelivery. Defaults to 2 seconds.
	Timeout time.Duration
}

// New returns a Handler configured with options.
func New(options Options) *Handler {
	handler := Handler{
		dispatcher:      options.Dispatcher,
		repanic:         options.Repanic,
		waitForDelivery: options.WaitForDelivery,
		timeout:         time.Second * 2,
	}

	if handler.dispatcher == nil {
		handler.dispatcher = rollbar.DefaultDispatcher()
	}

	if options.Timeout != 0 {
		handler.timeout = options.Timeout
	}

	return &handler
}

// Handle wraps handler.
func (h *Handler) Handle(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		defer h.recoverWithRollbar(r)
		handler.ServeHTTP(rw, r)
	})
}

// HandleFunc wraps handler.
func (h *Handler) HandleFunc(handler http.HandlerFunc) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		defer h.recoverWithRollbar(r)
		handler(rw, r)
	}
}

func (h *Handler) recoverWithRollbar(r *http.Request) {
	if err := recover(); err != nil {
		h.dispatcher.DispatchError(rollbar.ErrorEvent{
			Error:   rollbar.NewPanicError(err, debug.Stack()),
			Message: fmt.Sprintf("%s %s: %v", r.Method, r.URL.Path, err),
		})
		if h.waitForDelivery {
			rollbar.Flush(h.timeout)
		}
		if h.repanic {
			panic(err)
		}
	}
}
