package rollbar

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/tabsight/rollbar-client-go/internal/debuglog"
	httpinternal "github.com/tabsight/rollbar-client-go/internal/http"
)

// Beaconer is a fire-and-forget delivery primitive. SendBeacon must not
// wait for the request to complete; it only reports whether the request was
// accepted.
type Beaconer interface {
	SendBeacon(url string, body []byte) bool
}

// Fetcher is a blocking delivery primitive.
type Fetcher interface {
	Fetch(ctx context.Context, req FetchRequest) error
}

// FetchRequest describes one fallback request.
type FetchRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
	// Cache is the cache mode of the request, "no-store" for payloads.
	Cache string
	// KeepAlive asks the primitive to let the request outlive its caller.
	KeepAlive bool
}

// Transport delivers payloads through a Beaconer, falling back once to a
// Fetcher when the beacon is unavailable or refused.
type Transport struct {
	beacon  Beaconer
	fetcher Fetcher
	console Console

	// inflight counts fallback requests that have not returned yet.
	inflight atomic.Int64
}

// NewTransport returns a Transport over the given primitives. A nil beacon
// sends everything through fetcher.
func NewTransport(beacon Beaconer, fetcher Fetcher, console Console) *Transport {
	return &Transport{
		beacon:  beacon,
		fetcher: fetcher,
		console: console,
	}
}

// Deliver sends p to url and returns the method that carried it. The fallback
// request runs in the background, detached from the cancellation of ctx; its
// outcome only reaches the debug log.
func (t *Transport) Deliver(ctx context.Context, url string, p *Object) ReportingMethod {
	body, err := json.Marshal(p)
	if err != nil {
		debuglog.Printf("Payload could not be encoded: %v", err)
		return ""
	}

	if t.beacon != nil && t.beacon.SendBeacon(url, body) {
		return ReportingMethodBeacon
	}

	t.console.Warn(noticeBeaconFailed)

	if data := p.Object("data"); data != nil {
		custom := data.Object("custom")
		if custom == nil {
			custom = NewObject()
			data.Set("custom", custom)
		}
		custom.Set("reportingMethod", string(ReportingMethodFetch))
	}
	body, err = json.Marshal(p)
	if err != nil {
		debuglog.Printf("Payload could not be encoded: %v", err)
		return ""
	}

	if t.fetcher == nil {
		debuglog.Println("No fetcher configured, payload dropped")
		return ReportingMethodFetch
	}

	req := FetchRequest{
		Method:    http.MethodPost,
		URL:       url,
		Headers:   map[string]string{"Content-Type": "application/json"},
		Body:      body,
		Cache:     "no-store",
		KeepAlive: true,
	}
	detached := context.WithoutCancel(ctx)

	t.inflight.Add(1)
	go func() {
		defer t.inflight.Add(-1)
		if err := t.fetcher.Fetch(detached, req); err != nil {
			debuglog.Printf("Fallback delivery failed: %v", err)
			return
		}
		debuglog.Println("Fallback delivery succeeded")
	}()

	return ReportingMethodFetch
}

// Flush waits for in-flight fallback requests and for the beacon queue, if
// the beacon can be flushed. It returns false if the timeout was reached.
func (t *Transport) Flush(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for t.inflight.Load() > 0 {
		if !time.Now().Before(deadline) {
			return false
		}
		<-ticker.C
	}

	if f, ok := t.beacon.(interface{ Flush(time.Duration) bool }); ok {
		return f.Flush(time.Until(deadline))
	}
	return true
}

// Close releases the beacon if it holds resources.
func (t *Transport) Close() {
	if c, ok := t.beacon.(interface{ Close() }); ok {
		c.Close()
	}
}

// httpFetcher adapts the resty based fetch transport.
type httpFetcher struct {
	transport *httpinternal.FetchTransport
}

func (f httpFetcher) Fetch(ctx context.Context, req FetchRequest) error {
	return f.transport.Fetch(ctx, httpinternal.Request(req))
}

// NewHTTPBeacon returns the default Beaconer: a background worker posting
// beacons as text/plain over net/http.
func NewHTTPBeacon() Beaconer {
	return httpinternal.NewBeaconTransport(httpinternal.TransportOptions{UserAgent: SDKUserAgent})
}

// NewHTTPFetcher returns the default Fetcher, built on resty.
func NewHTTPFetcher() Fetcher {
	return httpFetcher{transport: httpinternal.NewFetchTransport(httpinternal.TransportOptions{UserAgent: SDKUserAgent})}
}
