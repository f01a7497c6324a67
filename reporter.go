package rollbar

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/tabsight/rollbar-client-go/internal/debuglog"
)

// Reporter validates, deduplicates, renders and delivers occurrences.
type Reporter struct {
	config    *Configuration
	host      Host
	console   Console
	transport *Transport
	history   errorHistory
}

// NewReporter resolves options and returns a Reporter. It fails with
// ErrMissingConfiguration when a required option is empty and with
// ErrUnserializableConfiguration when a payload option cannot be encoded.
func NewReporter(options Options) (*Reporter, error) {
	if options.Debug {
		debugWriter := options.DebugWriter
		if debugWriter == nil {
			debugWriter = os.Stderr
		}
		debuglog.SetOutput(debugWriter)
	}

	host := options.Host
	if host == nil {
		host = NewProcessHost()
	}

	config, err := resolveConfiguration(options, host)
	if err != nil {
		return nil, err
	}

	console := options.Console
	if console == nil {
		console = NewConsole()
	}
	beacon := options.Beacon
	if beacon == nil {
		beacon = NewHTTPBeacon()
	}
	fetcher := options.Fetcher
	if fetcher == nil {
		fetcher = NewHTTPFetcher()
	}

	return &Reporter{
		config:    config,
		host:      host,
		console:   console,
		transport: NewTransport(beacon, fetcher, console),
	}, nil
}

// Configuration returns the resolved configuration.
func (r *Reporter) Configuration() *Configuration {
	return r.config
}

// Report runs one occurrence through the pipeline. Only invalid occurrences
// are reported as errors; duplicates, vetoed occurrences and delivery
// failures are handled locally.
func (r *Reporter) Report(o Occurrence) error {
	return r.ReportWithContext(context.Background(), o)
}

// ReportWithContext is Report with a caller context. Cancelling ctx does not
// cancel a fallback request already started.
func (r *Reporter) ReportWithContext(ctx context.Context, o Occurrence) error {
	if err := validate(o); err != nil {
		return err
	}

	if r.history.shouldSkip(o) {
		r.console.Info(consoleLine(noticeSkippingDuplicate, occurrenceArgs(o)...))
		return nil
	}

	if r.config.IsVerbose {
		echo(r.console, o)
	}

	p, err := buildPayload(o, r.config, r.host)
	if err != nil {
		return err
	}

	if r.config.ShouldIgnoreOccurrence != nil && r.config.ShouldIgnoreOccurrence(p, r.config) {
		encoded, _ := json.Marshal(p)
		config, _ := json.Marshal(r.config.serialize())
		r.console.Info(consoleLine(noticeIgnoring, string(encoded), string(config)))
		return nil
	}

	if data := p.Object("data"); data != nil {
		r.config.TransformPayload(data, r.config)
	}

	method := r.transport.Deliver(ctx, r.config.APIURL, p)
	debuglog.Printf("Occurrence %q delivered via %s", o.Title, method)
	return nil
}

// Flush waits for pending deliveries. It returns false if the timeout was
// reached first.
func (r *Reporter) Flush(timeout time.Duration) bool {
	return r.transport.Flush(timeout)
}

// Close stops the beacon worker once its queue is drained. Call Flush first
// to also wait for fallback requests.
func (r *Reporter) Close() {
	r.transport.Close()
}

func validate(o Occurrence) error {
	if !o.Level.Valid() {
		return ErrInvalidLevel
	}
	if o.ApplicationState != nil {
		if _, err := json.Marshal(o.ApplicationState); err != nil {
			return fmt.Errorf("%w: applicationState: %v", ErrUnserializableOccurrence, err)
		}
	}
	if o.ActionHistory != nil {
		if _, err := json.Marshal(o.ActionHistory); err != nil {
			return fmt.Errorf("%w: actionHistory: %v", ErrUnserializableOccurrence, err)
		}
	}
	return nil
}

// occurrenceArgs lists the set arguments of o for console notices.
func occurrenceArgs(o Occurrence) []any {
	args := []any{o.Level, o.Title}
	if o.Error != nil {
		args = append(args, o.Error)
	}
	if o.ApplicationState != nil {
		args = append(args, o.ApplicationState)
	}
	if o.ActionHistory != nil {
		args = append(args, o.ActionHistory)
	}
	return args
}
