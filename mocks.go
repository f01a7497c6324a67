package rollbar

import (
	"context"
	"fmt"
	"sync"
)

// MockBeacon implements [Beaconer] for use in tests. It accepts every beacon
// unless Fail is set.
type MockBeacon struct {
	Fail bool

	mu    sync.Mutex
	calls []MockBeaconCall
}

// MockBeaconCall records one SendBeacon call.
type MockBeaconCall struct {
	URL  string
	Body []byte
}

func (b *MockBeacon) SendBeacon(url string, body []byte) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, MockBeaconCall{URL: url, Body: body})
	return !b.Fail
}

func (b *MockBeacon) Calls() []MockBeaconCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	calls := make([]MockBeaconCall, len(b.calls))
	copy(calls, b.calls)
	return calls
}

// MockFetcher implements [Fetcher] for use in tests. Every request is
// answered with Err.
type MockFetcher struct {
	Err error

	mu       sync.Mutex
	requests []FetchRequest
}

func (f *MockFetcher) Fetch(_ context.Context, req FetchRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.Err
}

func (f *MockFetcher) Requests() []FetchRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	requests := make([]FetchRequest, len(f.requests))
	copy(requests, f.requests)
	return requests
}

// MockConsoleEntry is one line written to a MockConsole.
type MockConsoleEntry struct {
	Level   string
	Message string
}

// MockConsole implements [Console] for use in tests.
type MockConsole struct {
	mu      sync.Mutex
	entries []MockConsoleEntry
}

func (c *MockConsole) Debug(args ...any) { c.add("debug", args) }
func (c *MockConsole) Info(args ...any)  { c.add("info", args) }
func (c *MockConsole) Warn(args ...any)  { c.add("warn", args) }
func (c *MockConsole) Error(args ...any) { c.add("error", args) }

func (c *MockConsole) add(level string, args []any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, MockConsoleEntry{Level: level, Message: fmt.Sprint(args...)})
}

func (c *MockConsole) Entries() []MockConsoleEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries := make([]MockConsoleEntry, len(c.entries))
	copy(entries, c.entries)
	return entries
}

// Count returns the number of entries written at level.
func (c *MockConsole) Count(level string) int {
	n := 0
	for _, e := range c.Entries() {
		if e.Level == level {
			n++
		}
	}
	return n
}

// MockHost implements [Host] for use in tests.
type MockHost struct {
	Agent     string
	Href      string
	Preferred string
	Accepted  []string
}

func (h *MockHost) UserAgent() string   { return h.Agent }
func (h *MockHost) Location() string    { return h.Href }
func (h *MockHost) Language() string    { return h.Preferred }
func (h *MockHost) Languages() []string { return h.Accepted }
