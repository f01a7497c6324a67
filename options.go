package rollbar

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"

	"github.com/tabsight/rollbar-client-go/internal/util"
)

// Default values applied to options left unset.
const (
	DefaultAPIURL                        = "https://api.rollbar.com/api/1/item/"
	DefaultBrowserUnsupportedTitlePrefix = "[UNSUPPORTED BROWSER] "
)

// Options configures a Client or a Reporter.
//
// AccessToken and Environment are required. Every other field is optional and
// falls back to a default when left at its zero value.
type Options struct {
	// AccessToken is the post_client_item token of the Rollbar project.
	AccessToken string
	// Environment tags every payload, e.g. "production".
	Environment string

	// APIURL is the item endpoint payloads are posted to.
	APIURL string
	// IsVerbose mirrors every report to the Console. Defaults to true.
	IsVerbose *bool
	// HasConfigurationInPayload embeds a snapshot of the resolved
	// configuration, minus the access token, in data.custom.configuration.
	HasConfigurationInPayload bool
	// IsBrowserSupported defaults to true. It is ignored when
	// BrowsersSupportedRegex is set.
	IsBrowserSupported *bool
	// BrowsersSupportedRegex is matched once against Host.UserAgent and
	// its result replaces IsBrowserSupported.
	BrowsersSupportedRegex *regexp.Regexp
	// BrowserUnsupportedTitlePrefix is prepended to the title of occurrences
	// reported from an unsupported browser.
	BrowserUnsupportedTitlePrefix string
	// SetContext returns data.context. Defaults to Host.Location.
	SetContext func() string
	// CommitHash is reported as client.javascript.code_version.
	CommitHash string
	// CustomPayloadFields is deep merged over every payload.
	CustomPayloadFields map[string]any
	// Fingerprint fixes data.fingerprint. When empty the title is used,
	// unless DisableFingerprint is set.
	Fingerprint        string
	DisableFingerprint bool
	// LocationInfo is embedded as data.custom.locationInfo.
	LocationInfo any
	// UserInfo is embedded as data.person.
	UserInfo any
	// ShouldIgnoreOccurrence vetoes the delivery of a built payload.
	ShouldIgnoreOccurrence func(payload *Object, c *Configuration) bool
	// TransformPayload may edit the data section of a payload in place
	// right before delivery.
	TransformPayload func(data *Object, c *Configuration)

	// OnUnhandledError replaces Client.OnErrorDefault when listeners are
	// installed.
	OnUnhandledError ErrorListener
	// DisableOnUnhandledError installs no error listener at all.
	DisableOnUnhandledError bool
	// OnUnhandledPromiseRejection replaces Client.OnUnhandledRejectionDefault.
	OnUnhandledPromiseRejection RejectionListener
	// DisableOnUnhandledPromiseRejection installs no rejection listener.
	DisableOnUnhandledPromiseRejection bool

	// Host describes the reporting environment. Defaults to NewProcessHost().
	Host Host
	// Beacon is the fire-and-forget delivery primitive. Defaults to a
	// background HTTP worker.
	Beacon Beaconer
	// Fetcher is the fallback delivery primitive. Defaults to an HTTP client.
	Fetcher Fetcher
	// Console receives the verbose echo and local diagnostics. Defaults to
	// a logrus logger writing to stderr.
	Console Console

	// Debug enables the SDK debug log.
	Debug bool
	// DebugWriter receives the debug log. Defaults to os.Stderr.
	DebugWriter io.Writer
}

// Configuration is the resolved form of Options. It is built once per
// Reporter and handed to the hooks; it must be treated as read-only.
type Configuration struct {
	AccessToken                   string
	Environment                   string
	APIURL                        string
	IsVerbose                     bool
	HasConfigurationInPayload     bool
	IsBrowserSupported            bool
	BrowsersSupportedRegex        *regexp.Regexp
	BrowserUnsupportedTitlePrefix string
	SetContext                    func() string
	CommitHash                    string
	CustomPayloadFields           map[string]any
	Fingerprint                   string
	DisableFingerprint            bool
	LocationInfo                  any
	UserInfo                      any
	ShouldIgnoreOccurrence        func(payload *Object, c *Configuration) bool
	TransformPayload              func(data *Object, c *Configuration)
}

// resolveConfiguration applies the defaults to every option the caller left
// unset. Caller values win as a whole; nothing is merged at this stage.
func resolveConfiguration(options Options, host Host) (*Configuration, error) {
	required := []struct{ key, value string }{
		{"accessToken", options.AccessToken},
		{"environment", options.Environment},
	}
	for _, r := range required {
		if r.value == "" {
			return nil, fmt.Errorf("%w: configuration key %q is required", ErrMissingConfiguration, r.key)
		}
	}

	c := &Configuration{
		AccessToken:                   options.AccessToken,
		Environment:                   options.Environment,
		APIURL:                        options.APIURL,
		IsVerbose:                     true,
		HasConfigurationInPayload:     options.HasConfigurationInPayload,
		IsBrowserSupported:            true,
		BrowsersSupportedRegex:        options.BrowsersSupportedRegex,
		BrowserUnsupportedTitlePrefix: options.BrowserUnsupportedTitlePrefix,
		SetContext:                    options.SetContext,
		CommitHash:                    options.CommitHash,
		Fingerprint:                   options.Fingerprint,
		DisableFingerprint:            options.DisableFingerprint,
		ShouldIgnoreOccurrence:        options.ShouldIgnoreOccurrence,
		TransformPayload:              options.TransformPayload,
	}

	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	if options.IsVerbose != nil {
		c.IsVerbose = *options.IsVerbose
	}
	if options.IsBrowserSupported != nil {
		c.IsBrowserSupported = *options.IsBrowserSupported
	}
	if c.BrowserUnsupportedTitlePrefix == "" {
		c.BrowserUnsupportedTitlePrefix = DefaultBrowserUnsupportedTitlePrefix
	}
	if c.SetContext == nil {
		c.SetContext = host.Location
	}
	if c.TransformPayload == nil {
		c.TransformPayload = func(*Object, *Configuration) {}
	}

	if options.CustomPayloadFields != nil {
		c.CustomPayloadFields, _ = util.Clone(options.CustomPayloadFields).(map[string]any)
	}
	c.LocationInfo = util.Clone(options.LocationInfo)
	c.UserInfo = util.Clone(options.UserInfo)

	encoded := []struct {
		key   string
		value any
	}{
		{"customPayloadFields", c.CustomPayloadFields},
		{"locationInfo", c.LocationInfo},
		{"userInfo", c.UserInfo},
	}
	for _, e := range encoded {
		if _, err := json.Marshal(e.value); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrUnserializableConfiguration, e.key, err)
		}
	}

	// Evaluated once; later user agent changes are not picked up.
	if c.BrowsersSupportedRegex != nil {
		c.IsBrowserSupported = c.BrowsersSupportedRegex.MatchString(host.UserAgent())
	}

	return c, nil
}

// serialize renders the configuration for data.custom.configuration. The
// access token is left out, functions are replaced by their name and regular
// expressions by their source. Unset optional keys are omitted.
func (c *Configuration) serialize() *Object {
	obj := NewObject()
	obj.Set("apiUrl", c.APIURL)
	obj.Set("browserUnsupportedTitlePrefix", c.BrowserUnsupportedTitlePrefix)
	if c.BrowsersSupportedRegex != nil {
		obj.Set("browsersSupportedRegex", c.BrowsersSupportedRegex.String())
	}
	if c.CommitHash != "" {
		obj.Set("commitHash", c.CommitHash)
	}
	if c.CustomPayloadFields != nil {
		obj.Set("customPayloadFields", c.CustomPayloadFields)
	}
	obj.Set("environment", c.Environment)
	switch {
	case c.Fingerprint != "":
		obj.Set("fingerprint", c.Fingerprint)
	case c.DisableFingerprint:
		obj.Set("fingerprint", false)
	}
	obj.Set("hasConfigurationInPayload", c.HasConfigurationInPayload)
	obj.Set("isBrowserSupported", c.IsBrowserSupported)
	obj.Set("isVerbose", c.IsVerbose)
	if c.LocationInfo != nil {
		obj.Set("locationInfo", c.LocationInfo)
	}
	obj.Set("setContext", functionName(c.SetContext))
	if c.ShouldIgnoreOccurrence != nil {
		obj.Set("shouldIgnoreOccurrence", functionName(c.ShouldIgnoreOccurrence))
	}
	obj.Set("transformPayload", functionName(c.TransformPayload))
	if c.UserInfo != nil {
		obj.Set("userInfo", c.UserInfo)
	}
	return obj
}
