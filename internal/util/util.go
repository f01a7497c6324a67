package util

import (
	"io"
	"net/http"

	"github.com/tabsight/rollbar-client-go/internal/debuglog"
)

// MaxDrainResponseBytes is the maximum number of bytes that transport
// implementations will read from response bodies when draining them.
//
// The item API answers with a short JSON document the SDK never needs, but
// net/http only reuses a TCP connection once the body was drained and closed.
const MaxDrainResponseBytes = 16 << 10

// HandleHTTPResponse logs a failed delivery and reports whether the status
// code was a success. The body is not closed.
func HandleHTTPResponse(response *http.Response, identifier string) bool {
	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return true
	}

	if response.StatusCode >= 400 && response.StatusCode <= 599 {
		body, err := io.ReadAll(io.LimitReader(response.Body, MaxDrainResponseBytes))
		if err != nil {
			debuglog.Printf("Error while reading response body: %v", err)
			return false
		}

		switch {
		case response.StatusCode == http.StatusRequestEntityTooLarge:
			debuglog.Printf("Sending %s failed because the payload was too large: %s", identifier, string(body))
		case response.StatusCode == http.StatusTooManyRequests:
			debuglog.Printf("Sending %s was rate limited: %s", identifier, string(body))
		case response.StatusCode >= 500:
			debuglog.Printf("Sending %s failed with server error %d: %s", identifier, response.StatusCode, string(body))
		default:
			debuglog.Printf("Sending %s failed with client error %d: %s", identifier, response.StatusCode, string(body))
		}
		return false
	}

	debuglog.Printf("Unexpected status code %d for %s", response.StatusCode, identifier)
	return false
}

// DrainAndClose discards up to MaxDrainResponseBytes of the body and closes it.
func DrainAndClose(body io.ReadCloser) error {
	_, _ = io.CopyN(io.Discard, body, MaxDrainResponseBytes)
	return body.Close()
}
