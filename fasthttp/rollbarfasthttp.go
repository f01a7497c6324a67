// Package rollbarfasthttp reports panics of fasthttp request handlers.
package rollbarfasthttp

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/tabsight/rollbar-client-go"
)

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
	// dispatched, in most cases it should be set to false, as fasthttp
	// doesn't include its own Recovery handler.
	Repanic bool
	// WaitForDelivery blocks the request until the global client flushed.
	// Because fasthttp doesn't include its own Recovery handler, a repanic
	// restarts the application and the occurrence is lost otherwise.
	WaitForDelivery bool
	// Timeout bounds WaitForDelivery. Defaults to 2 seconds.
	Timeout time.Duration
}

// New returns a struct that provides Handle method
// that can be used to wrap fasthttp.RequestHandler.
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

// Handle wraps fasthttp.RequestHandler and recovers from caught panics.
func (h *Handler) Handle(handler fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		defer h.recoverWithRollbar(ctx)
		handler(ctx)
	}
}

func (h *Handler) recoverWithRollbar(ctx *fasthttp.RequestCtx) {
	if err := recover(); err != nil {
		h.dispatcher.DispatchError(rollbar.ErrorEvent{
			Error:   rollbar.NewPanicError(err, debug.Stack()),
			Message: fmt.Sprintf("%s %s: %v", ctx.Method(), ctx.Path(), err),
		})
		if h.waitForDelivery {
			rollbar.Flush(h.timeout)
		}
		if h.repanic {
			panic(err)
		}
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
	}
}
