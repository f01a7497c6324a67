package cliconfig

import (
	"fmt"
	"strings"
	"time"

	"github.com/tabsight/rollbar-client-go"
)

// DefaultTimeout bounds the wait for delivery before the command exits.
const DefaultTimeout = 5 * time.Second

// Config holds CLI configuration for rollbar-report.
type Config struct {
	AccessToken string
	Environment string
	APIURL      string
	CommitHash  string

	Fingerprint          string
	DisableFingerprint   bool
	Verbose              bool
	IncludeConfiguration bool
	Debug                bool

	Timeout time.Duration

	// CustomFields can only be set from a config file.
	CustomFields map[string]any
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		APIURL:  rollbar.DefaultAPIURL,
		Verbose: true,
		Timeout: DefaultTimeout,
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.AccessToken == "" {
		return fmt.Errorf("access-token is required")
	}
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.APIURL == "" {
		c.APIURL = rollbar.DefaultAPIURL
	}
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return fmt.Errorf("api-url must be an http(s) URL, got %q", c.APIURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}

// Options converts the configuration into client options.
func (c Config) Options() rollbar.Options {
	return rollbar.Options{
		AccessToken:               c.AccessToken,
		Environment:               c.Environment,
		APIURL:                    c.APIURL,
		CommitHash:                c.CommitHash,
		Fingerprint:               c.Fingerprint,
		DisableFingerprint:        c.DisableFingerprint,
		IsVerbose:                 rollbar.Pointer(c.Verbose),
		HasConfigurationInPayload: c.IncludeConfiguration,
		CustomPayloadFields:       c.CustomFields,
		Debug:                     c.Debug,
	}
}

// Masked returns a copy safe to log.
func (c Config) Masked() Config {
	if c.AccessToken != "" {
		c.AccessToken = "*****"
	}
	return c
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
