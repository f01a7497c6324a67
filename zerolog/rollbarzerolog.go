// Package rollbarzerolog connects zerolog to the Rollbar client in both
// directions: Writer reports zerolog events as occurrences and Console
// writes client notices to a zerolog.Logger.
package rollbarzerolog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/buger/jsonparser"
	"github.com/rs/zerolog"

	"github.com/tabsight/rollbar-client-go"
)

var (
	// ErrFlushTimeout is returned when the flush operation times out.
	ErrFlushTimeout = errors.New("rollbarzerolog flush timeout")

	levelsMapping = map[zerolog.Level]rollbar.Level{
		zerolog.TraceLevel: rollbar.LevelDebug,
		zerolog.DebugLevel: rollbar.LevelDebug,
		zerolog.InfoLevel:  rollbar.LevelInfo,
		zerolog.WarnLevel:  rollbar.LevelWarning,
		zerolog.ErrorLevel: rollbar.LevelError,
		zerolog.FatalLevel: rollbar.LevelCritical,
		zerolog.PanicLevel: rollbar.LevelCritical,
	}

	_ = io.WriteCloser(new(Writer))
	_ = zerolog.LevelWriter(new(Writer))
)

// FieldActions holds the action history as a JSON array of
// {"type": ..., "payload": ...} objects.
const FieldActions = "actions"

// Logger reports occurrences. *rollbar.Client satisfies it.
type Logger interface {
	Log(rollbar.Occurrence) error
	Flush(timeout time.Duration) bool
}

type Options struct {
	// Levels specifies the log levels reported as occurrences. By default,
	// the levels are Error, Fatal, and Panic.
	Levels []zerolog.Level

	// FlushTimeout bounds the flush performed by Close and after fatal
	// events. Defaults to 3 seconds.
	FlushTimeout time.Duration
}

func (o *Options) SetDefaults() {
	if len(o.Levels) == 0 {
		o.Levels = []zerolog.Level{
			zerolog.ErrorLevel,
			zerolog.FatalLevel,
			zerolog.PanicLevel,
		}
	}

	if o.FlushTimeout == 0 {
		o.FlushTimeout = 3 * time.Second
	}
}

// Writer reports zerolog's JSON events as occurrences.
type Writer struct {
	logger       Logger
	levels       map[zerolog.Level]struct{}
	flushTimeout time.Duration
}

// New creates a writer reporting through logger.
func New(logger Logger, opts Options) (*Writer, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	opts.SetDefaults()

	levels := make(map[zerolog.Level]struct{}, len(opts.Levels))
	for _, lvl := range opts.Levels {
		levels[lvl] = struct{}{}
	}

	return &Writer{
		logger:       logger,
		levels:       levels,
		flushTimeout: opts.FlushTimeout,
	}, nil
}

// Write handles zerolog's json and reports it.
func (w *Writer) Write(data []byte) (int, error) {
	lvl, err := parseLogLevel(data)
	if err != nil {
		return len(data), nil
	}
	return w.WriteLevel(lvl, data)
}

func (w *Writer) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	n := len(p)

	if _, enabled := w.levels[level]; !enabled {
		return n, nil
	}

	rollbarLevel, ok := levelsMapping[level]
	if !ok {
		return n, nil
	}

	o, ok := parseLogEvent(p)
	if !ok || rollbar.IsConsoleLine(o.Title) {
		return n, nil
	}
	o.Level = rollbarLevel

	if err := w.logger.Log(o); err != nil {
		return n, fmt.Errorf("rollbarzerolog: %w", err)
	}
	// should flush before os.Exit
	if o.Level == rollbar.LevelCritical {
		w.logger.Flush(w.flushTimeout)
	}

	return n, nil
}

// Close forces the logger to flush all pending deliveries.
// Can be useful before application exits.
func (w *Writer) Close() error {
	if ok := w.logger.Flush(w.flushTimeout); !ok {
		return ErrFlushTimeout
	}
	return nil
}

func parseLogLevel(data []byte) (zerolog.Level, error) {
	level, err := jsonparser.GetUnsafeString(data, zerolog.LevelFieldName)
	if err != nil {
		return zerolog.Disabled, nil
	}

	return zerolog.ParseLevel(level)
}

func parseLogEvent(data []byte) (rollbar.Occurrence, bool) {
	var o rollbar.Occurrence
	state := map[string]any{}

	err := jsonparser.ObjectEach(data, func(key, value []byte, dataType jsonparser.ValueType, _ int) error {
		k := string(key)
		switch k {
		case zerolog.MessageFieldName:
			msg, err := jsonparser.ParseString(value)
			if err != nil {
				return err
			}
			o.Title = msg
		case zerolog.ErrorFieldName:
			msg, err := jsonparser.ParseString(value)
			if err != nil {
				msg = string(value)
			}
			o.Error = errors.New(msg)
		case zerolog.LevelFieldName, zerolog.TimestampFieldName:
		case FieldActions:
			var actions []rollbar.Action
			if err := json.Unmarshal(value, &actions); err != nil {
				state[k] = json.RawMessage(value)
			} else {
				o.ActionHistory = actions
			}
		default:
			if dataType == jsonparser.String {
				s, err := jsonparser.ParseString(value)
				if err != nil {
					return err
				}
				state[k] = s
			} else {
				state[k] = json.RawMessage(value)
			}
		}
		return nil
	})
	if err != nil {
		return o, false
	}

	if len(state) > 0 {
		o.ApplicationState = state
	}
	if o.Title == "" && o.Error != nil {
		o.Title = o.Error.Error()
	}
	return o, true
}
