package rollbar

import (
	"fmt"
	"runtime/debug"
	"sync"
)

// ErrorEvent describes an error nobody handled, usually a recovered panic.
type ErrorEvent struct {
	Error   error
	Message string
}

// PromiseRejectionEvent describes a background task that failed without
// anyone waiting for its result.
type PromiseRejectionEvent struct {
	Reason error
}

// ErrorListener handles an ErrorEvent.
type ErrorListener func(ErrorEvent)

// RejectionListener handles a PromiseRejectionEvent.
type RejectionListener func(PromiseRejectionEvent)

// EventTarget accepts listeners for unhandled errors and rejections.
type EventTarget interface {
	AddErrorListener(ErrorListener)
	AddRejectionListener(RejectionListener)
}

// PanicError wraps a recovered panic value together with the stack of the
// panicking goroutine.
type PanicError struct {
	Value any
	stack []byte
}

// NewPanicError returns a PanicError for v. stack is expected in the format
// of runtime/debug.Stack.
func NewPanicError(v any, stack []byte) *PanicError {
	return &PanicError{Value: v, stack: stack}
}

func (e *PanicError) Error() string {
	if err, ok := e.Value.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(e.Value)
}

// Name is used as the exception class of reported panics.
func (e *PanicError) Name() string {
	return "panic"
}

// Stack returns the goroutine dump captured when the panic was recovered.
func (e *PanicError) Stack() []byte {
	return e.stack
}

// Unwrap returns the panic value if it is an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Dispatcher is the default EventTarget. It turns recovered panics into
// error events and errors of background goroutines into rejection events.
type Dispatcher struct {
	mu                 sync.RWMutex
	errorListeners     []ErrorListener
	rejectionListeners []RejectionListener
}

// NewDispatcher returns a Dispatcher without listeners.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

func (d *Dispatcher) AddErrorListener(l ErrorListener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errorListeners = append(d.errorListeners, l)
}

func (d *Dispatcher) AddRejectionListener(l RejectionListener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rejectionListeners = append(d.rejectionListeners, l)
}

func (d *Dispatcher) clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errorListeners = nil
	d.rejectionListeners = nil
}

// DispatchError calls every error listener with ev, in registration order.
func (d *Dispatcher) DispatchError(ev ErrorEvent) {
	d.mu.RLock()
	listeners := make([]ErrorListener, len(d.errorListeners))
	copy(listeners, d.errorListeners)
	d.mu.RUnlock()

	for _, l := range listeners {
		l(ev)
	}
}

// DispatchRejection calls every rejection listener with ev.
func (d *Dispatcher) DispatchRejection(ev PromiseRejectionEvent) {
	d.mu.RLock()
	listeners := make([]RejectionListener, len(d.rejectionListeners))
	copy(listeners, d.rejectionListeners)
	d.mu.RUnlock()

	for _, l := range listeners {
		l(ev)
	}
}

// Recover dispatches a panic of the calling goroutine as an error event and
// stops it from unwinding further. It must be called directly with defer:
//
//	defer dispatcher.Recover()
func (d *Dispatcher) Recover() {
	if v := recover(); v != nil {
		d.RecoverValue(v, debug.Stack())
	}
}

// RecoverValue dispatches an already recovered panic value.
func (d *Dispatcher) RecoverValue(v any, stack []byte) {
	err := NewPanicError(v, stack)
	d.DispatchError(ErrorEvent{Error: err, Message: err.Error()})
}

// Go runs fn on a new goroutine. A returned error is dispatched as a
// rejection event and a panic as an error event.
func (d *Dispatcher) Go(fn func() error) {
	go func() {
		defer d.Recover()
		if err := fn(); err != nil {
			d.DispatchRejection(PromiseRejectionEvent{Reason: err})
		}
	}()
}
