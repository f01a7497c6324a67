package rollbarslog

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabsight/rollbar-client-go"
)

type recordingLogger struct {
	mu          sync.Mutex
	occurrences []rollbar.Occurrence
}

func (l *recordingLogger) Log(o rollbar.Occurrence) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.occurrences = append(l.occurrences, o)
	return nil
}

func (l *recordingLogger) Flush(time.Duration) bool { return true }

type ctxKey struct{}

func TestHandler(t *testing.T) {
	recorder := &recordingLogger{}
	handler := Option{
		Logger: recorder,
		AttrFromContext: []func(context.Context) []slog.Attr{
			func(ctx context.Context) []slog.Attr {
				if id, ok := ctx.Value(ctxKey{}).(string); ok {
					return []slog.Attr{slog.String("request_id", id)}
				}
				return nil
			},
		},
	}.NewHandler()
	logger := slog.New(handler).With("service", "billing")

	actions := []rollbar.Action{{Type: "PAY"}}
	ctx := context.WithValue(context.Background(), ctxKey{}, "r-1")
	logger.ErrorContext(ctx, "charge failed",
		"error", errors.New("card declined"),
		ActionsKey, actions,
		slog.Duration("elapsed", 1500*time.Millisecond),
		slog.Group("card", slog.String("brand", "visa")),
	)
	logger.Info("not reported")

	require.Len(t, recorder.occurrences, 1)
	o := recorder.occurrences[0]
	assert.Equal(t, rollbar.LevelError, o.Level)
	assert.Equal(t, "charge failed", o.Title)
	assert.EqualError(t, o.Error, "card declined")
	assert.Equal(t, actions, o.ActionHistory)

	want := map[string]any{
		"service":    "billing",
		"request_id": "r-1",
		"elapsed":    "1.5s",
		"card":       map[string]any{"brand": "visa"},
	}
	if diff := cmp.Diff(want, o.ApplicationState); diff != "" {
		t.Errorf("application state mismatch (-want +got):\n%s", diff)
	}
}

func TestHandlerGroups(t *testing.T) {
	recorder := &recordingLogger{}
	logger := slog.New(Option{Logger: recorder, Level: slog.LevelDebug}.NewHandler())

	logger.WithGroup("http").With("method", "GET").WithGroup("").Debug("request", "status", 500)

	require.Len(t, recorder.occurrences, 1)
	o := recorder.occurrences[0]
	assert.Equal(t, rollbar.LevelDebug, o.Level)
	assert.Equal(t, map[string]any{"http": map[string]any{"method": "GET", "status": int64(500)}}, o.ApplicationState)
}

func TestHandlerReplaceAttr(t *testing.T) {
	recorder := &recordingLogger{}
	logger := slog.New(Option{
		Logger: recorder,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == "password" {
				return slog.Attr{}
			}
			return a
		},
	}.NewHandler())

	logger.Error("login failed", "user", "alice", "password", "hunter2")

	require.Len(t, recorder.occurrences, 1)
	assert.Equal(t, map[string]any{"user": "alice"}, recorder.occurrences[0].ApplicationState)
}

func TestLevelOf(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  rollbar.Level
	}{
		{slog.LevelDebug - 4, rollbar.LevelDebug},
		{slog.LevelDebug, rollbar.LevelDebug},
		{slog.LevelInfo, rollbar.LevelInfo},
		{slog.LevelWarn, rollbar.LevelWarning},
		{slog.LevelError, rollbar.LevelError},
		{LevelCritical, rollbar.LevelCritical},
		{LevelCritical + 4, rollbar.LevelCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, levelOf(tt.level), tt.level.String())
	}
}

func TestHandlerWithoutLoggerBeforeInit(t *testing.T) {
	logger := slog.New(Option{}.NewHandler())
	assert.NotPanics(t, func() { logger.Error("dropped") })
}

func TestHandlerSkipsConsoleLines(t *testing.T) {
	recorder := &recordingLogger{}
	logger := slog.New(Option{Logger: recorder}.NewHandler())

	logger.Error("[ROLLBAR CRITICAL] boom")
	assert.Empty(t, recorder.occurrences)

	logger.Error("boom")
	require.Len(t, recorder.occurrences, 1)
}
