// Package rollbariris reports panics of Iris handlers.
package rollbariris

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/kataras/iris/v12"

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
	// dispatched, in most cases it should be set to true, as iris.Default
	// includes its own Recovery middleware that handles HTTP responses.
	Repanic bool
	// WaitForDelivery blocks the request until the global client flushed.
	WaitForDelivery bool
	// Timeout bounds WaitForDelivery. Defaults to 2 seconds.
	Timeout time.Duration
}

// New returns a function that satisfies iris.Handler interface
// It can be used with New() or Use() methods.
func New(options Options) iris.Handler {
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

	return h.handle()
}

func (h *handler) handle() iris.Handler {
	return func(ctx iris.Context) {
		defer h.recoverWithRollbar(ctx)
		ctx.Next()
	}
}

func (h *handler) recoverWithRollbar(ctx iris.Context) {
	if err := recover(); err != nil {
		r := ctx.Request()
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
		ctx.StopWithStatus(iris.StatusInternalServerError)
	}
}
