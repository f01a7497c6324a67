package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/tabsight/rollbar-client-go/internal/debuglog"
	"github.com/tabsight/rollbar-client-go/internal/util"
)

const (
	defaultTimeout   = time.Second * 30
	defaultQueueSize = 1000

	// beaconContentType is what browsers send for a string beacon body.
	beaconContentType = "text/plain;charset=UTF-8"
)

// ErrUnexpectedStatus is returned by Fetch for a non-2xx response.
var ErrUnexpectedStatus = errors.New("unexpected response status")

// TransportOptions contains the configuration needed by the internal HTTP transports.
type TransportOptions struct {
	HTTPClient    *http.Client
	HTTPTransport http.RoundTripper
	HTTPProxy     string
	HTTPSProxy    string
	CaCerts       *x509.CertPool
	// UserAgent is sent with every request.
	UserAgent string
}

func getProxyConfig(options TransportOptions) func(*http.Request) (*url.URL, error) {
	if options.HTTPSProxy != "" {
		return func(*http.Request) (*url.URL, error) {
			return url.Parse(options.HTTPSProxy)
		}
	}

	if options.HTTPProxy != "" {
		return func(*http.Request) (*url.URL, error) {
			return url.Parse(options.HTTPProxy)
		}
	}

	return http.ProxyFromEnvironment
}

func getTLSConfig(options TransportOptions) *tls.Config {
	if options.CaCerts != nil {
		// #nosec G402 -- the minimum version is left to the Go default.
		return &tls.Config{
			RootCAs: options.CaCerts,
		}
	}

	return nil
}

func getHTTPClient(options TransportOptions) *http.Client {
	if options.HTTPClient != nil {
		return options.HTTPClient
	}

	transport := options.HTTPTransport
	if transport == nil {
		transport = &http.Transport{
			Proxy:           getProxyConfig(options),
			TLSClientConfig: getTLSConfig(options),
		}
	}
	return &http.Client{
		Transport: transport,
		Timeout:   defaultTimeout,
	}
}

// ================================
// BeaconTransport
// ================================

type beacon struct {
	url  string
	body []byte
}

// BeaconTransport is a fire-and-forget sender modelled on navigator.sendBeacon.
//
// SendBeacon only enqueues the request and reports whether it was accepted. A
// single background worker posts queued beacons in order. Responses are
// logged to the debug log and never retried.
type BeaconTransport struct {
	client    *http.Client
	userAgent string

	queue   chan beacon
	pending int64

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	startOnce sync.Once
}

// NewBeaconTransport returns a new instance of BeaconTransport configured with the given options.
func NewBeaconTransport(options TransportOptions) *BeaconTransport {
	return newBeaconTransport(options, defaultQueueSize)
}

func newBeaconTransport(options TransportOptions, queueSize int) *BeaconTransport {
	return &BeaconTransport{
		client:    getHTTPClient(options),
		userAgent: options.UserAgent,
		queue:     make(chan beacon, queueSize),
	}
}

// Start starts the worker goroutine. It is called by the first SendBeacon
// and is safe to call more than once.
func (t *BeaconTransport) Start() {
	t.startOnce.Do(func() {
		t.wg.Add(1)
		go t.worker()
	})
}

// SendBeacon queues body for delivery to url. It returns false when the
// transport is closed or its queue is full.
func (t *BeaconTransport) SendBeacon(url string, body []byte) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return false
	}

	t.Start()

	atomic.AddInt64(&t.pending, 1)
	select {
	case t.queue <- beacon{url: url, body: body}:
		return true
	default:
		atomic.AddInt64(&t.pending, -1)
		debuglog.Printf("Beacon queue full, dropping beacon to %s", url)
		return false
	}
}

// Flush waits until every queued beacon was sent or the timeout expired.
func (t *BeaconTransport) Flush(timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return t.FlushWithContext(ctx)
}

// FlushWithContext waits until every queued beacon was sent or ctx is done.
func (t *BeaconTransport) FlushWithContext(ctx context.Context) bool {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		if atomic.LoadInt64(&t.pending) == 0 {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}

// Close stops accepting beacons, waits for the queued ones and stops the
// worker.
func (t *BeaconTransport) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	close(t.queue)
	t.mu.Unlock()

	t.Start()
	t.wg.Wait()
}

func (t *BeaconTransport) worker() {
	defer t.wg.Done()

	for b := range t.queue {
		t.send(b)
		atomic.AddInt64(&t.pending, -1)
	}
}

func (t *BeaconTransport) send(b beacon) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, bytes.NewReader(b.body))
	if err != nil {
		debuglog.Printf("There was an issue creating the beacon request: %v", err)
		return
	}
	request.Header.Set("Content-Type", beaconContentType)
	if t.userAgent != "" {
		request.Header.Set("User-Agent", t.userAgent)
	}

	response, err := t.client.Do(request)
	if err != nil {
		debuglog.Printf("There was an issue with sending a beacon: %v", err)
		return
	}
	util.HandleHTTPResponse(response, "beacon")
	_ = util.DrainAndClose(response.Body)
}

// ================================
// FetchTransport
// ================================

// Request describes a single fetch() call.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
	// Cache is the request cache mode. "no-store" is sent as
	// Cache-Control: no-store.
	Cache string
	// KeepAlive leaves the connection open for reuse. When false the
	// connection is closed after the response.
	KeepAlive bool
}

// FetchTransport performs blocking HTTP requests, modelled on fetch().
type FetchTransport struct {
	client *resty.Client
}

// NewFetchTransport returns a new instance of FetchTransport configured with the given options.
func NewFetchTransport(options TransportOptions) *FetchTransport {
	client := resty.NewWithClient(getHTTPClient(options))
	if options.UserAgent != "" {
		client.SetHeader("User-Agent", options.UserAgent)
	}
	return &FetchTransport{client: client}
}

// Fetch sends req and waits for the response. Non-2xx responses are
// reported as ErrUnexpectedStatus.
func (t *FetchTransport) Fetch(ctx context.Context, req Request) error {
	r := t.client.R().
		SetContext(ctx).
		SetHeaders(req.Headers).
		SetBody(req.Body)
	if req.Cache == "no-store" {
		r.SetHeader("Cache-Control", "no-store")
	}
	if !req.KeepAlive {
		r.SetHeader("Connection", "close")
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	response, err := r.Execute(method, req.URL)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", req.URL, err)
	}
	if response.IsError() {
		return fmt.Errorf("%w: %d: %s", ErrUnexpectedStatus, response.StatusCode(), response.String())
	}
	return nil
}
