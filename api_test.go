package rollbar

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetGlobals(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		currentMu.Lock()
		currentClient = nil
		currentMu.Unlock()
		DefaultDispatcher().clear()
	})
}

func TestInitRequiresConfiguration(t *testing.T) {
	resetGlobals(t)

	err := Init(Options{Environment: "test", Host: testHost()})

	assert.ErrorIs(t, err, ErrMissingConfiguration)
	assert.Nil(t, CurrentClient())
}

func TestLogBeforeInitIsNoop(t *testing.T) {
	resetGlobals(t)

	assert.NoError(t, Log(Occurrence{Level: LevelError, Title: "t"}))
	assert.True(t, Flush(time.Millisecond))
	Close()
}

func TestGlobalAPI(t *testing.T) {
	resetGlobals(t)
	beacon := &MockBeacon{}
	options := minimalOptions()
	options.Host = testHost()
	options.Beacon = beacon
	options.Fetcher = &MockFetcher{}
	options.Console = &MockConsole{}

	require.NoError(t, Init(options))
	require.NotNil(t, CurrentClient())

	require.NoError(t, Log(Occurrence{Level: LevelInfo, Title: "explicit"}))

	func() {
		defer Recover()
		panic("global panic")
	}()

	done := make(chan struct{})
	DefaultDispatcher().AddRejectionListener(func(PromiseRejectionEvent) { close(done) })
	Go(func() error { return errors.New("background failure") })
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("rejection was not dispatched")
	}

	require.True(t, Flush(time.Second))
	titles := []string{}
	for _, call := range beacon.Calls() {
		titles = append(titles, mustObject(t, string(call.Body)).Object("data").String("title"))
	}
	assertEqual(t, titles, []string{"explicit", unhandledErrorTitle, unhandledRejectionTitle})
}

func TestInitReplacesListeners(t *testing.T) {
	resetGlobals(t)
	first := &MockBeacon{}
	second := &MockBeacon{}
	options := minimalOptions()
	options.Host = testHost()
	options.Fetcher = &MockFetcher{}
	options.Console = &MockConsole{}

	options.Beacon = first
	require.NoError(t, Init(options))
	options.Beacon = second
	require.NoError(t, Init(options))

	DefaultDispatcher().DispatchError(ErrorEvent{Error: errors.New("once")})
	require.True(t, Flush(time.Second))

	assert.Empty(t, first.Calls())
	assert.Len(t, second.Calls(), 1)
}
