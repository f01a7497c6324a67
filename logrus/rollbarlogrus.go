// Package rollbarlogrus provides a Logrus hook that reports log entries as
// Rollbar occurrences.
package rollbarlogrus

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tabsight/rollbar-client-go"
)

// These default log field keys are converted from generic fields into
// occurrence attributes when found with the expected type.
//
// These keys may be overridden by calling SetKey on the hook object.
const (
	// FieldActions holds a []rollbar.Action, reported as the action history.
	FieldActions = "actions"

	// These fields are simply omitted, as they are duplicated by the host
	// information of every payload.
	FieldGoVersion = "go_version"
	FieldMaxProcs  = "go_maxprocs"
)

var levelMap = map[logrus.Level]rollbar.Level{
	logrus.TraceLevel: rollbar.LevelDebug,
	logrus.DebugLevel: rollbar.LevelDebug,
	logrus.InfoLevel:  rollbar.LevelInfo,
	logrus.WarnLevel:  rollbar.LevelWarning,
	logrus.ErrorLevel: rollbar.LevelError,
	logrus.FatalLevel: rollbar.LevelCritical,
	logrus.PanicLevel: rollbar.LevelCritical,
}

// Logger reports occurrences. *rollbar.Client satisfies it.
type Logger interface {
	Log(rollbar.Occurrence) error
	Flush(timeout time.Duration) bool
}

// A FallbackFunc can be used to attempt to handle any errors in logging,
// before resorting to Logrus's standard error reporting.
type FallbackFunc func(*logrus.Entry) error

// Hook is the logrus hook for Rollbar.
//
// It is not safe to configure the hook while logging is happening. Please
// perform all configuration before using it.
type Hook struct {
	logger   Logger
	fallback FallbackFunc
	keys     map[string]string
	levels   []logrus.Level
}

var _ logrus.Hook = &Hook{}

// New returns a hook reporting entries of the given levels through logger.
func New(levels []logrus.Level, logger Logger) *Hook {
	return &Hook{
		logger: logger,
		keys:   make(map[string]string),
		levels: levels,
	}
}

// NewFromOptions creates a Client for options and returns a hook for it.
// Options are validated right away.
func NewFromOptions(levels []logrus.Level, options rollbar.Options) (*Hook, error) {
	client := rollbar.NewClient(options)
	if _, err := client.Configuration(); err != nil {
		return nil, err
	}
	return New(levels, client), nil
}

// SetFallback sets a fallback function called when an entry could not be
// reported.
func (h *Hook) SetFallback(fb FallbackFunc) {
	h.fallback = fb
}

// SetKey sets an alternate field key for one of the Field constants.
func (h *Hook) SetKey(oldKey, newKey string) {
	if oldKey == "" {
		return
	}
	if newKey == "" {
		delete(h.keys, oldKey)
		return
	}
	delete(h.keys, newKey)
	h.keys[oldKey] = newKey
}

func (h *Hook) key(key string) string {
	if val := h.keys[key]; val != "" {
		return val
	}
	return key
}

// Levels returns the logging levels reported as occurrences.
func (h *Hook) Levels() []logrus.Level {
	return h.levels
}

// Fire reports entry. Lines a Client wrote to its Console are skipped.
func (h *Hook) Fire(entry *logrus.Entry) error {
	if rollbar.IsConsoleLine(entry.Message) {
		return nil
	}
	err := h.logger.Log(h.entryToOccurrence(entry))
	if err == nil {
		return nil
	}
	if h.fallback != nil {
		return h.fallback(entry)
	}
	return fmt.Errorf("failed to report to rollbar: %w", err)
}

// Flush waits for the logger's pending deliveries.
func (h *Hook) Flush(timeout time.Duration) bool {
	return h.logger.Flush(timeout)
}

func (h *Hook) entryToOccurrence(l *logrus.Entry) rollbar.Occurrence {
	data := make(logrus.Fields, len(l.Data))
	for k, v := range l.Data {
		data[k] = v
	}
	o := rollbar.Occurrence{
		Level: levelMap[l.Level],
		Title: l.Message,
	}

	if err, ok := data[logrus.ErrorKey].(error); ok {
		delete(data, logrus.ErrorKey)
		o.Error = err
	}

	key := h.key(FieldActions)
	if actions, ok := data[key].([]rollbar.Action); ok {
		delete(data, key)
		o.ActionHistory = actions
	}

	delete(data, FieldGoVersion)
	delete(data, FieldMaxProcs)

	if len(data) > 0 {
		o.ApplicationState = stateOf(data)
	}
	if o.Title == "" && o.Error != nil {
		o.Title = o.Error.Error()
	}
	return o
}

// stateOf replaces error values, which encode as empty JSON objects, with
// their messages.
func stateOf(data logrus.Fields) map[string]any {
	state := make(map[string]any, len(data))
	for k, v := range data {
		if err, ok := v.(error); ok {
			state[k] = err.Error()
			continue
		}
		state[k] = v
	}
	return state
}
