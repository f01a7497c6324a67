// Package rollbargin reports panics of gin handlers.
package rollbargin

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"

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
	// dispatched. Set it when gin.Recovery is installed before this
	// middleware so it can write the response.
	Repanic bool
	// WaitForDelivery blocks the request until the global client flushed.
	WaitForDelivery bool
	// Timeout bounds WaitForDelivery. Defaults to 2 seconds.
	Timeout time.Duration
}

// New returns a gin middleware.
func New(options Options) gin.HandlerFunc {
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

func (h *handler) handle(c *gin.Context) {
	defer h.recoverWithRollbar(c)
	c.Next()
}

func (h *handler) recoverWithRollbar(c *gin.Context) {
	if err := recover(); err != nil {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		h.dispatcher.DispatchError(rollbar.ErrorEvent{
			Error:   rollbar.NewPanicError(err, debug.Stack()),
			Message: fmt.Sprintf("%s %s: %v", c.Request.Method, route, err),
		})
		if h.waitForDelivery {
			rollbar.Flush(h.timeout)
		}
		if h.repanic {
			panic(err)
		}
		c.AbortWithStatus(500)
	}
}
