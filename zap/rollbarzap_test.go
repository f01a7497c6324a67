package rollbarzap

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tabsight/rollbar-client-go"
)

type recordingLogger struct {
	mu          sync.Mutex
	occurrences []rollbar.Occurrence
	flushes     int
	err         error
}

func (l *recordingLogger) Log(o rollbar.Occurrence) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.occurrences = append(l.occurrences, o)
	return l.err
}

func (l *recordingLogger) Flush(time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.flushes++
	return true
}

func newTestCore(t *testing.T, cfg Configuration) (zapcore.Core, *recordingLogger) {
	t.Helper()
	recorder := &recordingLogger{}
	c, err := NewCore(cfg, recorder)
	require.NoError(t, err)
	return c, recorder
}

func TestNewCoreNilLogger(t *testing.T) {
	_, err := NewCore(Configuration{}, nil)
	assert.ErrorIs(t, err, ErrNilLogger)
}

func TestCoreWrite(t *testing.T) {
	c, recorder := newTestCore(t, Configuration{LoggerNameKey: "logger"})
	logger := zap.New(c).Named("billing").With(zap.String("tenant", "acme"))

	boom := errors.New("boom")
	actions := []rollbar.Action{{Type: "CHECKOUT"}}
	logger.Error("charge failed", zap.Error(boom), zap.Int("attempt", 2), Actions(actions))
	logger.Warn("not reported")

	require.Len(t, recorder.occurrences, 1)
	o := recorder.occurrences[0]
	assert.Equal(t, rollbar.LevelError, o.Level)
	assert.Equal(t, "charge failed", o.Title)
	assert.Equal(t, boom, o.Error)
	assert.Equal(t, actions, o.ActionHistory)
	assert.Equal(t, map[string]any{"tenant": "acme", "attempt": int64(2), "logger": "billing"}, o.ApplicationState)
	assert.Zero(t, recorder.flushes)
}

func TestCoreLevel(t *testing.T) {
	c, recorder := newTestCore(t, Configuration{Level: zapcore.InfoLevel})
	logger := zap.New(c)

	logger.Debug("skipped")
	logger.Info("hello")
	logger.DPanic("critical")

	require.Len(t, recorder.occurrences, 2)
	assert.Equal(t, rollbar.Occurrence{Level: rollbar.LevelInfo, Title: "hello"}, recorder.occurrences[0])
	assert.Equal(t, rollbar.LevelCritical, recorder.occurrences[1].Level)
	assert.Equal(t, 1, recorder.flushes)
}

func TestCoreWriteError(t *testing.T) {
	c, recorder := newTestCore(t, Configuration{})
	recorder.err = rollbar.ErrInvalidLevel

	err := c.Write(zapcore.Entry{Level: zapcore.ErrorLevel, Message: "m"}, nil)
	assert.ErrorIs(t, err, rollbar.ErrInvalidLevel)
}

func TestAttachCoreToLogger(t *testing.T) {
	observed, logs := observer.New(zapcore.DebugLevel)
	c, recorder := newTestCore(t, Configuration{})
	logger := AttachCoreToLogger(c, zap.New(observed))

	logger.Error("both", Actions(nil))

	assert.Equal(t, 1, logs.Len())
	assert.Len(t, recorder.occurrences, 1)
}

func TestNewConsole(t *testing.T) {
	observed, logs := observer.New(zapcore.DebugLevel)
	console := NewConsole(zap.New(observed))

	console.Warn("[ROLLBAR CLIENT] Skipping duplicate error")
	console.Debug("[ROLLBAR DEBUG] d")

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, "[ROLLBAR CLIENT] Skipping duplicate error", entries[0].Message)
	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
}

func TestCoreSkipsConsoleLines(t *testing.T) {
	c, recorder := newTestCore(t, Configuration{})
	console := NewConsole(zap.New(c))

	console.Error("[ROLLBAR ERROR] boom")
	assert.Empty(t, recorder.occurrences)

	console.Error("boom")
	require.Len(t, recorder.occurrences, 1)
}
