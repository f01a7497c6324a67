// Package rollbarfiber reports panics of Fiber handlers.
package rollbarfiber

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"

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
	// dispatched, in most cases it should be set to false, as Fiber only
	// recovers when its recover middleware is installed.
	Repanic bool
	// WaitForDelivery blocks the request until the global client flushed.
	WaitForDelivery bool
	// Timeout bounds WaitForDelivery. Defaults to 2 seconds.
	Timeout time.Duration
}

func New(options Options) fiber.Handler {
	h := handler{
		dispatcher:      options.Dispatcher,
		repanic:         options.Repanic,
		waitForDelivery: options.WaitForDelivery,
		timeout:         time.Second * 2,
	}

	if h.dispatcher == nil {
		h.dispatcher = rollbar.DefaultDispatcher()
	}

	if options.Timeout != 0 {
		h.timeout = options.Timeout
	}

	return h.handle
}

func (h *handler) handle(ctx *fiber.Ctx) error {
	defer h.recoverWithRollbar(ctx)
	return ctx.Next()
}

func (h *handler) recoverWithRollbar(ctx *fiber.Ctx) {
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
		ctx.Status(fiber.StatusInternalServerError)
	}
}
