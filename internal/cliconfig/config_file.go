package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// FileConfig mirrors Config but uses strings for durations and pointers for
// booleans, so that absent keys keep the current values.
type FileConfig struct {
	AccessToken          string         `toml:"access_token" yaml:"access_token"`
	Environment          string         `toml:"environment" yaml:"environment"`
	APIURL               string         `toml:"api_url" yaml:"api_url"`
	CommitHash           string         `toml:"commit_hash" yaml:"commit_hash"`
	Fingerprint          string         `toml:"fingerprint" yaml:"fingerprint"`
	DisableFingerprint   *bool          `toml:"disable_fingerprint" yaml:"disable_fingerprint"`
	Verbose              *bool          `toml:"verbose" yaml:"verbose"`
	IncludeConfiguration *bool          `toml:"include_configuration" yaml:"include_configuration"`
	Debug                *bool          `toml:"debug" yaml:"debug"`
	Timeout              string         `toml:"timeout" yaml:"timeout"`
	Custom               map[string]any `toml:"custom" yaml:"custom"`
}

// LoadFileConfig reads and parses a config file. Files ending in .yaml or
// .yml are parsed as YAML, everything else as TOML.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &fc)
	default:
		err = toml.Unmarshal(b, &fc)
	}
	if err != nil {
		return fc, fmt.Errorf("parse %s: %w", path, err)
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.rollbar/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".rollbar", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("access-token", fc.AccessToken, &cfg.AccessToken)
	s.setString("environment", fc.Environment, &cfg.Environment)
	s.setString("api-url", fc.APIURL, &cfg.APIURL)
	s.setString("commit-hash", fc.CommitHash, &cfg.CommitHash)
	s.setString("fingerprint", fc.Fingerprint, &cfg.Fingerprint)

	if err := s.setDuration("timeout", fc.Timeout, &cfg.Timeout); err != nil {
		return err
	}

	s.setBool("disable-fingerprint", fc.DisableFingerprint, &cfg.DisableFingerprint)
	s.setBool("verbose", fc.Verbose, &cfg.Verbose)
	s.setBool("include-configuration", fc.IncludeConfiguration, &cfg.IncludeConfiguration)
	s.setBool("debug", fc.Debug, &cfg.Debug)

	if len(fc.Custom) > 0 {
		cfg.CustomFields = fc.Custom
	}
	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
