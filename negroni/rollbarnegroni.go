// Package rollbarnegroni reports panics of handlers behind a negroni stack.
package rollbarnegroni

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/tabsight/rollbar-client-go"
)

// Handler is a negroni.Handler.
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
	// dispatched, in most cases it should be set to true, as negroni.Classic
	// includes its own Recovery middleware that handles HTTP responses.
	Repanic bool
	// WaitForDelivery blocks the request until the global client flushed.
	WaitForDelivery bool
	// Timeout bounds WaitForDelivery. Defaults to 2 seconds.
	Timeout time.Duration
}

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

func (h *Handler) ServeHTTP(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	defer h.recoverWithRollbar(r)
	next(rw, r)
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
