package rollbar

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTarget struct {
	errorListeners     []ErrorListener
	rejectionListeners []RejectionListener
}

func (r *recordingTarget) AddErrorListener(l ErrorListener) {
	r.errorListeners = append(r.errorListeners, l)
}

func (r *recordingTarget) AddRejectionListener(l RejectionListener) {
	r.rejectionListeners = append(r.rejectionListeners, l)
}

func setupClientTest(configure func(*Options)) (*Client, *MockBeacon, *MockConsole) {
	beacon := &MockBeacon{}
	console := &MockConsole{}
	options := minimalOptions()
	options.Host = testHost()
	options.Beacon = beacon
	options.Fetcher = &MockFetcher{}
	options.Console = console
	options.IsVerbose = Pointer(false)
	if configure != nil {
		configure(&options)
	}
	return NewClient(options), beacon, console
}

func TestNewClientIsLazy(t *testing.T) {
	client, _, _ := setupClientTest(nil)
	assert.Nil(t, client.Reporter())
	assert.True(t, client.Flush(time.Millisecond))
	client.Close()
}

func TestClientLogBuildsOneReporter(t *testing.T) {
	client, beacon, _ := setupClientTest(nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = client.Log(Occurrence{Level: LevelInfo, Title: "concurrent", ApplicationState: i})
		}(i)
	}
	wg.Wait()

	reporter := client.Reporter()
	require.NotNil(t, reporter)
	require.NoError(t, client.Log(Occurrence{Level: LevelInfo, Title: "after"}))
	assert.Same(t, reporter, client.Reporter())
	assert.True(t, client.Flush(time.Second))
	assert.Len(t, beacon.Calls(), 21)
}

func TestClientLogConstructionErrorIsRetried(t *testing.T) {
	client := NewClient(Options{Environment: "test", Host: testHost()})

	err := client.Log(Occurrence{Level: LevelError, Title: "t"})
	assert.ErrorIs(t, err, ErrMissingConfiguration)
	assert.Nil(t, client.Reporter())

	err = client.Log(Occurrence{Level: LevelError, Title: "t"})
	assert.ErrorIs(t, err, ErrMissingConfiguration)
}

func TestClientConfiguration(t *testing.T) {
	client, _, _ := setupClientTest(nil)
	c, err := client.Configuration()
	require.NoError(t, err)
	assert.Equal(t, "test", c.Environment)
	assert.NotNil(t, client.Reporter())

	_, err = NewClient(Options{AccessToken: "abc123", Host: testHost()}).Configuration()
	assert.ErrorIs(t, err, ErrMissingConfiguration)
}

func TestClientLogInvalidLevel(t *testing.T) {
	client, _, _ := setupClientTest(nil)
	assert.ErrorIs(t, client.Log(Occurrence{Level: "verbose", Title: "t"}), ErrInvalidLevel)
}

func TestInitializeListenersDefaults(t *testing.T) {
	client, beacon, _ := setupClientTest(nil)
	target := &recordingTarget{}

	client.InitializeListeners(target)

	require.Len(t, target.errorListeners, 1)
	require.Len(t, target.rejectionListeners, 1)

	target.errorListeners[0](ErrorEvent{Error: errors.New("uncaught")})
	target.rejectionListeners[0](PromiseRejectionEvent{Reason: errors.New("rejected")})
	require.True(t, client.Flush(time.Second))

	calls := beacon.Calls()
	require.Len(t, calls, 2)
	first := mustObject(t, string(calls[0].Body)).Object("data")
	assertEqual(t, first.String("level"), "warning")
	assertEqual(t, first.String("title"), unhandledErrorTitle)
	assertEqual(t, first.Path("body", "trace", "exception").String("message"), "uncaught")
	second := mustObject(t, string(calls[1].Body)).Object("data")
	assertEqual(t, second.String("level"), "warning")
	assertEqual(t, second.String("title"), unhandledRejectionTitle)
	assertEqual(t, second.Path("body", "trace", "exception").String("message"), "rejected")
}

func TestInitializeListenersDisabled(t *testing.T) {
	client, _, _ := setupClientTest(func(o *Options) {
		o.DisableOnUnhandledError = true
		o.DisableOnUnhandledPromiseRejection = true
	})
	target := &recordingTarget{}

	client.InitializeListeners(target)

	assert.Empty(t, target.errorListeners)
	assert.Empty(t, target.rejectionListeners)
}

func TestInitializeListenersCustom(t *testing.T) {
	var gotError ErrorEvent
	var gotRejection PromiseRejectionEvent
	client, beacon, _ := setupClientTest(func(o *Options) {
		o.OnUnhandledError = func(ev ErrorEvent) { gotError = ev }
		o.OnUnhandledPromiseRejection = func(ev PromiseRejectionEvent) { gotRejection = ev }
	})
	target := &recordingTarget{}

	client.InitializeListeners(target)
	require.Len(t, target.errorListeners, 1)
	require.Len(t, target.rejectionListeners, 1)

	target.errorListeners[0](ErrorEvent{Message: "custom"})
	target.rejectionListeners[0](PromiseRejectionEvent{Reason: errors.New("why")})

	assertEqual(t, gotError.Message, "custom")
	assertEqual(t, gotRejection.Reason.Error(), "why")
	assert.Nil(t, client.Reporter())
	assert.Empty(t, beacon.Calls())
}

func TestOnErrorDefaultSwallowsErrors(t *testing.T) {
	client := NewClient(Options{Host: testHost()})

	assert.NotPanics(t, func() {
		client.OnErrorDefault(ErrorEvent{Message: "no config"})
		client.OnUnhandledRejectionDefault(PromiseRejectionEvent{Reason: errors.New("no config")})
	})
}

func TestOnErrorDefaultUsesMessageWithoutError(t *testing.T) {
	client, beacon, _ := setupClientTest(nil)

	client.OnErrorDefault(ErrorEvent{Message: "script error"})
	require.True(t, client.Flush(time.Second))

	calls := beacon.Calls()
	require.Len(t, calls, 1)
	exception := mustObject(t, string(calls[0].Body)).Path("data", "body", "trace", "exception")
	assertEqual(t, exception.String("message"), "script error")
}

func TestClientReportsRepeatedPanicOnce(t *testing.T) {
	client, beacon, console := setupClientTest(nil)
	d := NewDispatcher()
	client.InitializeListeners(d)

	for i := 0; i < 3; i++ {
		done := make(chan struct{})
		go func(n int) {
			defer close(done)
			defer d.Recover()
			crashWith(n)
		}(i)
		<-done
	}

	require.True(t, client.Flush(time.Second))
	assert.Len(t, beacon.Calls(), 1)
	assert.Equal(t, 2, console.Count("info"))
}
