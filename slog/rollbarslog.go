// Package rollbarslog provides a log/slog handler that reports records as
// Rollbar occurrences.
package rollbarslog

import (
	"context"
	"log/slog"
	"time"

	"github.com/tabsight/rollbar-client-go"
)

// LevelCritical is reported as a critical occurrence. Any level at or above
// it is critical too.
const LevelCritical = slog.LevelError + 4

// Attribute keys with a dedicated place in the occurrence.
const (
	// ActionsKey holds a []rollbar.Action, reported as the action history.
	ActionsKey = "actions"
)

var errorKeys = map[string]struct{}{
	"error": {},
	"err":   {},
}

var _ slog.Handler = (*Handler)(nil)

// Logger reports occurrences. *rollbar.Client satisfies it.
type Logger interface {
	Log(rollbar.Occurrence) error
	Flush(timeout time.Duration) bool
}

type Option struct {
	// log level (default: error)
	Level slog.Leveler
	// Logger receives the occurrences. Defaults to the global client of
	// rollbar.Init.
	Logger Logger

	// optional: fetch attributes from context
	AttrFromContext []func(ctx context.Context) []slog.Attr
	// optional: see slog.HandlerOptions
	ReplaceAttr func(groups []string, a slog.Attr) slog.Attr
}

func (o Option) NewHandler() *Handler {
	if o.Level == nil {
		o.Level = slog.LevelError
	}

	return &Handler{
		option: o,
		attrs:  []slog.Attr{},
		groups: []string{},
	}
}

type Handler struct {
	option Option
	attrs  []slog.Attr
	groups []string
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.option.Level.Level()
}

// Handle reports record. Without a Logger option and before rollbar.Init
// the record is dropped.
func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	if rollbar.IsConsoleLine(record.Message) {
		return nil
	}
	o := h.occurrence(ctx, &record)

	if h.option.Logger != nil {
		return h.option.Logger.Log(o)
	}
	return rollbar.Log(o)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{
		option: h.option,
		attrs:  appendAttrsToGroup(h.groups, h.attrs, attrs...),
		groups: h.groups,
	}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	return &Handler{
		option: h.option,
		attrs:  h.attrs,
		groups: append(append([]string{}, h.groups...), name),
	}
}

func (h *Handler) occurrence(ctx context.Context, record *slog.Record) rollbar.Occurrence {
	attrs := append([]slog.Attr{}, h.attrs...)
	for _, fn := range h.option.AttrFromContext {
		attrs = append(attrs, fn(ctx)...)
	}
	attrs = appendRecordAttrsToAttrs(attrs, h.groups, record)
	attrs = replaceAttrs(h.option.ReplaceAttr, []string{}, attrs...)
	attrs = removeEmptyAttrs(attrs)

	o := rollbar.Occurrence{
		Level: levelOf(record.Level),
		Title: record.Message,
	}

	attrs, o.Error = extractError(attrs)
	attrs, o.ActionHistory = extractActions(attrs)

	if len(attrs) > 0 {
		o.ApplicationState = attrsToMap(attrs...)
	}
	if o.Title == "" && o.Error != nil {
		o.Title = o.Error.Error()
	}
	return o
}

func levelOf(level slog.Level) rollbar.Level {
	switch {
	case level >= LevelCritical:
		return rollbar.LevelCritical
	case level >= slog.LevelError:
		return rollbar.LevelError
	case level >= slog.LevelWarn:
		return rollbar.LevelWarning
	case level >= slog.LevelInfo:
		return rollbar.LevelInfo
	default:
		return rollbar.LevelDebug
	}
}
