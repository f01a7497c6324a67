package rollbar

import (
	"runtime/debug"
	"sync"
	"time"
)

var (
	currentMu     sync.RWMutex
	currentClient *Client

	defaultDispatcher     *Dispatcher
	defaultDispatcherOnce sync.Once
)

// DefaultDispatcher returns the process wide Dispatcher used by Init,
// Recover, Go and the framework integrations.
func DefaultDispatcher() *Dispatcher {
	defaultDispatcherOnce.Do(func() {
		defaultDispatcher = NewDispatcher()
	})
	return defaultDispatcher
}

// Init creates the global Client and registers its listeners on the
// DefaultDispatcher, replacing those of a previous Init. Missing required
// options are reported right away.
func Init(options Options) error {
	if _, err := resolveConfiguration(options, hostOrDefault(options.Host)); err != nil {
		return err
	}

	client := NewClient(options)
	dispatcher := DefaultDispatcher()
	dispatcher.clear()
	client.InitializeListeners(dispatcher)

	currentMu.Lock()
	currentClient = client
	currentMu.Unlock()
	return nil
}

// CurrentClient returns the global Client, or nil before Init.
func CurrentClient() *Client {
	currentMu.RLock()
	defer currentMu.RUnlock()
	return currentClient
}

// Log reports o through the global Client. It is a no-op before Init.
func Log(o Occurrence) error {
	client := CurrentClient()
	if client == nil {
		return nil
	}
	return client.Log(o)
}

// Recover dispatches a panic of the calling goroutine to the
// DefaultDispatcher. It must be called directly with defer.
func Recover() {
	if v := recover(); v != nil {
		DefaultDispatcher().RecoverValue(v, debug.Stack())
	}
}

// Go runs fn on a new goroutine watched by the DefaultDispatcher.
func Go(fn func() error) {
	DefaultDispatcher().Go(fn)
}

// Flush waits for the pending deliveries of the global Client.
func Flush(timeout time.Duration) bool {
	client := CurrentClient()
	if client == nil {
		return true
	}
	return client.Flush(timeout)
}

// Close releases the global Client.
func Close() {
	if client := CurrentClient(); client != nil {
		client.Close()
	}
}

func hostOrDefault(host Host) Host {
	if host == nil {
		return NewProcessHost()
	}
	return host
}
