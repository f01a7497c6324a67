package rollbar

import (
	"errors"
	"sync"
	"time"

	"github.com/tabsight/rollbar-client-go/internal/debuglog"
)

// Titles of the occurrences logged by the default listeners.
const (
	unhandledErrorTitle     = "Unhandled error occurred"
	unhandledRejectionTitle = "Unhandled promise rejection occurred"
)

// Client holds the options and builds its Reporter on the first Log call,
// so an application that never reports never starts the delivery workers.
type Client struct {
	options Options

	mu       sync.Mutex
	reporter *Reporter
}

// NewClient returns a Client for options. Options are only validated when
// the first occurrence is logged.
func NewClient(options Options) *Client {
	return &Client{options: options}
}

// Options returns the options the client was created with.
func (client *Client) Options() Options {
	return client.options
}

// InitializeListeners registers the unhandled error and rejection listeners
// on target. A custom listener from the options replaces the default one; a
// disabled listener is not registered at all.
func (client *Client) InitializeListeners(target EventTarget) {
	if !client.options.DisableOnUnhandledError {
		listener := client.options.OnUnhandledError
		if listener == nil {
			listener = client.OnErrorDefault
		}
		target.AddErrorListener(listener)
	}

	if !client.options.DisableOnUnhandledPromiseRejection {
		listener := client.options.OnUnhandledPromiseRejection
		if listener == nil {
			listener = client.OnUnhandledRejectionDefault
		}
		target.AddRejectionListener(listener)
	}
}

// OnErrorDefault logs ev as a warning. Reporting errors are only written to
// the debug log.
func (client *Client) OnErrorDefault(ev ErrorEvent) {
	err := ev.Error
	if err == nil && ev.Message != "" {
		err = errors.New(ev.Message)
	}
	if logErr := client.Log(Occurrence{Level: LevelWarning, Title: unhandledErrorTitle, Error: err}); logErr != nil {
		debuglog.Printf("Unhandled error could not be reported: %v", logErr)
	}
}

// OnUnhandledRejectionDefault logs ev as a warning. Reporting errors are only
// written to the debug log.
func (client *Client) OnUnhandledRejectionDefault(ev PromiseRejectionEvent) {
	if logErr := client.Log(Occurrence{Level: LevelWarning, Title: unhandledRejectionTitle, Error: ev.Reason}); logErr != nil {
		debuglog.Printf("Unhandled rejection could not be reported: %v", logErr)
	}
}

// Log reports o, creating the Reporter first if needed. A Reporter that
// failed to build is attempted again on the next call.
func (client *Client) Log(o Occurrence) error {
	reporter, err := client.getReporter()
	if err != nil {
		return err
	}
	return reporter.Report(o)
}

// Reporter returns the Reporter, or nil if none was built yet.
func (client *Client) Reporter() *Reporter {
	client.mu.Lock()
	defer client.mu.Unlock()
	return client.reporter
}

// Configuration builds the Reporter if needed and returns its resolved
// configuration.
func (client *Client) Configuration() (*Configuration, error) {
	reporter, err := client.getReporter()
	if err != nil {
		return nil, err
	}
	return reporter.Configuration(), nil
}

// Flush waits for pending deliveries of the Reporter, if there is one.
func (client *Client) Flush(timeout time.Duration) bool {
	if reporter := client.Reporter(); reporter != nil {
		return reporter.Flush(timeout)
	}
	return true
}

// Close releases the Reporter, if there is one.
func (client *Client) Close() {
	if reporter := client.Reporter(); reporter != nil {
		reporter.Close()
	}
}

func (client *Client) getReporter() (*Reporter, error) {
	client.mu.Lock()
	defer client.mu.Unlock()

	if client.reporter != nil {
		return client.reporter, nil
	}

	reporter, err := NewReporter(client.options)
	if err != nil {
		return nil, err
	}
	client.reporter = reporter
	return reporter, nil
}
