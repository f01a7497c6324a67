package rollbar

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// The identity reported in every payload's notifier section.
const (
	SDKName    = "rollbar-client-go"
	SDKVersion = "0.4.0"
)

// SDKUserAgent is sent as the User-Agent header by the default transports.
const SDKUserAgent = SDKName + "/" + SDKVersion

// Fixed payload tags. The ingestion API groups items by these values, so
// they stay identical to the ones emitted by the browser notifier.
const (
	payloadFramework = "browser-js"
	payloadLanguage  = "javascript"
	payloadPlatform  = "browser"
)

// Level marks the severity of an occurrence.
type Level string

const (
	LevelCritical Level = "critical"
	LevelDebug    Level = "debug"
	LevelError    Level = "error"
	LevelInfo     Level = "info"
	LevelWarning  Level = "warning"
)

var acceptedLevels = []Level{LevelCritical, LevelDebug, LevelError, LevelInfo, LevelWarning}

var (
	// ErrInvalidLevel is returned by Report for a level outside of the accepted set.
	ErrInvalidLevel = fmt.Errorf("log level can only be one of the following: %s",
		strings.Join(lo.Map(acceptedLevels, func(l Level, _ int) string { return string(l) }), ", "))

	// ErrMissingConfiguration is returned when a required option is empty.
	ErrMissingConfiguration = errors.New("missing required configuration")

	// ErrUnserializableConfiguration is returned when an option that ends up
	// in every payload cannot be encoded as JSON.
	ErrUnserializableConfiguration = errors.New("configuration cannot be serialized")

	// ErrUnserializableOccurrence is returned when the application state or
	// the action history of an occurrence cannot be encoded as JSON.
	ErrUnserializableOccurrence = errors.New("occurrence cannot be serialized")
)

// Valid reports whether l is one of the accepted levels.
func (l Level) Valid() bool {
	return lo.Contains(acceptedLevels, l)
}

// Action is one entry of an application's action history, usually a
// dispatched state-management action.
type Action struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Occurrence holds the arguments of a single report.
type Occurrence struct {
	Level Level
	Title string
	// Error is rendered as an exception trace when set.
	Error error
	// ApplicationState is an arbitrary snapshot, embedded as a JSON string.
	ApplicationState any
	// ActionHistory is embedded as a JSON string.
	ActionHistory []Action
}

// ReportingMethod names the delivery primitive that carried a payload.
type ReportingMethod string

const (
	ReportingMethodBeacon ReportingMethod = "sendBeacon"
	ReportingMethodFetch  ReportingMethod = "fetch"
)

// Notifier identifies the library that produced the payload.
type Notifier struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Exception is the exception part of a trace body.
type Exception struct {
	Class       string `json:"class"`
	Description string `json:"description"`
	Message     string `json:"message"`
	Raw         string `json:"raw"`
	Stack       string `json:"stack,omitempty"`
}

// Trace is the body of an occurrence that carries an error.
type Trace struct {
	Exception Exception `json:"exception"`
	Frames    []Frame   `json:"frames"`
}

// Message is the body of an occurrence without an error.
type Message struct {
	Body string `json:"body"`
}

// Body holds either a Trace or a Message.
type Body struct {
	Message *Message `json:"message,omitempty"`
	Trace   *Trace   `json:"trace,omitempty"`
}

type javascriptInfo struct {
	Browser             string `json:"browser"`
	CodeVersion         string `json:"code_version,omitempty"`
	GuessUncaughtFrames bool   `json:"guess_uncaught_frames"`
	SourceMapEnabled    bool   `json:"source_map_enabled"`
}

type clientInfo struct {
	Javascript javascriptInfo `json:"javascript"`
}

type customInfo struct {
	ActionHistory      string          `json:"actionHistory,omitempty"`
	ApplicationState   string          `json:"applicationState,omitempty"`
	Configuration      *Object         `json:"configuration,omitempty"`
	IsBrowserSupported bool            `json:"isBrowserSupported"`
	LanguagePreferred  string          `json:"languagePreferred"`
	Languages          string          `json:"languages"`
	LocationInfo       any             `json:"locationInfo,omitempty"`
	ReportingMethod    ReportingMethod `json:"reportingMethod"`
}

type payloadData struct {
	Body        Body       `json:"body"`
	Client      clientInfo `json:"client"`
	Context     string     `json:"context"`
	Custom      customInfo `json:"custom"`
	Environment string     `json:"environment"`
	Fingerprint *string    `json:"fingerprint,omitempty"`
	Framework   string     `json:"framework"`
	Language    string     `json:"language"`
	Level       Level      `json:"level"`
	Notifier    Notifier   `json:"notifier"`
	Person      any        `json:"person,omitempty"`
	Platform    string     `json:"platform"`
	Title       string     `json:"title"`
}

type payload struct {
	AccessToken string      `json:"access_token"`
	Data        payloadData `json:"data"`
}
