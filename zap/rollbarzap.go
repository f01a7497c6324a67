// Package rollbarzap connects zap to the Rollbar client: NewCore reports log
// entries as occurrences and NewConsole writes client notices to a logger.
package rollbarzap

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tabsight/rollbar-client-go"
)

const actionsKey = "_rollbarzap_actions_"

var ErrNilLogger = errors.New("logger cannot be nil")

// Logger reports occurrences. *rollbar.Client satisfies it.
type Logger interface {
	Log(rollbar.Occurrence) error
	Flush(timeout time.Duration) bool
}

var levelMap = map[zapcore.Level]rollbar.Level{
	zapcore.DebugLevel:  rollbar.LevelDebug,
	zapcore.InfoLevel:   rollbar.LevelInfo,
	zapcore.WarnLevel:   rollbar.LevelWarning,
	zapcore.ErrorLevel:  rollbar.LevelError,
	zapcore.DPanicLevel: rollbar.LevelCritical,
	zapcore.PanicLevel:  rollbar.LevelCritical,
	zapcore.FatalLevel:  rollbar.LevelCritical,
}

// Configuration is a minimal set of parameters for the Rollbar core.
type Configuration struct {
	// Level is the minimal level reported as an occurrence. Defaults to
	// zapcore.ErrorLevel.
	Level zapcore.LevelEnabler

	// LoggerNameKey is the application state key holding the zap logger
	// name. If left empty, the name is not reported.
	LoggerNameKey string

	// FlushTimeout bounds the flush done by Sync and after entries above
	// ErrorLevel. Defaults to 3 seconds.
	FlushTimeout time.Duration
}

func setDefaultConfig(cfg *Configuration) {
	if cfg.Level == nil {
		cfg.Level = zapcore.ErrorLevel
	}
	if cfg.FlushTimeout == 0 {
		cfg.FlushTimeout = 3 * time.Second
	}
}

// NewCore creates a zapcore.Core reporting entries through logger.
func NewCore(cfg Configuration, logger Logger) (zapcore.Core, error) {
	if logger == nil {
		return zapcore.NewNopCore(), fmt.Errorf("failed to create rollbar core: %w", ErrNilLogger)
	}

	setDefaultConfig(&cfg)

	return &core{
		logger:       logger,
		cfg:          &cfg,
		LevelEnabler: cfg.Level,
		fields:       make(map[string]any),
	}, nil
}

// Actions creates a zapcore.Field carrying the action history of the entry.
// It is not written by other cores.
func Actions(actions []rollbar.Action) zapcore.Field {
	return zapcore.Field{
		Key:       actionsKey,
		Type:      zapcore.SkipType,
		Interface: actions,
	}
}

// AttachCoreToLogger attaches the Rollbar core to the provided logger.
func AttachCoreToLogger(rollbarCore zapcore.Core, l *zap.Logger) *zap.Logger {
	return l.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, rollbarCore)
	}))
}

// NewConsole returns the sugared form of l, which satisfies rollbar.Console.
// A Core attached to l skips the lines the client writes through it.
func NewConsole(l *zap.Logger) rollbar.Console {
	return l.Sugar()
}
