// Package rollbarecho reports panics of Echo handlers.
package rollbarecho

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tabsight/rollbar-client-go"
)

type handler struct {
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
	// dispatched, in most cases it should be set to true, as Echo includes
	// its own Recover middleware that handles HTTP responses.
	Repanic bool
	// WaitForDelivery blocks the request until the global client flushed.
	WaitForDelivery bool
	// Timeout bounds WaitForDelivery. Defaults to 2 seconds.
	Timeout time.Duration
}

// New returns a function that satisfies echo.MiddlewareFunc.
// It can be used with Use() methods.
func New(options Options) echo.MiddlewareFunc {
	if options.Timeout == 0 {
		options.Timeout = 2 * time.Second
	}
	if options.Dispatcher == nil {
		options.Dispatcher = rollbar.DefaultDispatcher()
	}

	return (&handler{
		dispatcher:      options.Dispatcher,
		repanic:         options.Repanic,
		timeout:         options.Timeout,
		waitForDelivery: options.WaitForDelivery,
	}).handle
}

func (h *handler) handle(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		defer h.recoverWithRollbar(ctx)
		return next(ctx)
	}
}

func (h *handler) recoverWithRollbar(ctx echo.Context) {
	if err := recover(); err != nil {
		route := ctx.Path()
		if route == "" {
			route = ctx.Request().URL.Path
		}
		h.dispatcher.DispatchError(rollbar.ErrorEvent{
			Error:   rollbar.NewPanicError(err, debug.Stack()),
			Message: fmt.Sprintf("%s %s: %v", ctx.Request().Method, route, err),
		})
		if h.waitForDelivery {
			rollbar.Flush(h.timeout)
		}
		if h.repanic {
			panic(err)
		}
	}
}
