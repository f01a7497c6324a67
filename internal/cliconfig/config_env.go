package cliconfig

import "os"

// ApplyEnvConfig applies ROLLBAR_* environment variables to cfg. Flags that
// have been explicitly set (changed map) win.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("access-token", os.Getenv("ROLLBAR_ACCESS_TOKEN"), &cfg.AccessToken)
	s.setString("environment", os.Getenv("ROLLBAR_ENVIRONMENT"), &cfg.Environment)
	s.setString("api-url", os.Getenv("ROLLBAR_API_URL"), &cfg.APIURL)
	s.setString("commit-hash", os.Getenv("ROLLBAR_COMMIT_HASH"), &cfg.CommitHash)
	s.setString("fingerprint", os.Getenv("ROLLBAR_FINGERPRINT"), &cfg.Fingerprint)

	if err := s.setDuration("timeout", os.Getenv("ROLLBAR_TIMEOUT"), &cfg.Timeout); err != nil {
		return err
	}

	s.setBoolFromString("disable-fingerprint", os.Getenv("ROLLBAR_DISABLE_FINGERPRINT"), &cfg.DisableFingerprint)
	s.setBoolFromString("verbose", os.Getenv("ROLLBAR_VERBOSE"), &cfg.Verbose)
	s.setBoolFromString("include-configuration", os.Getenv("ROLLBAR_INCLUDE_CONFIGURATION"), &cfg.IncludeConfiguration)
	s.setBoolFromString("debug", os.Getenv("ROLLBAR_DEBUG"), &cfg.Debug)
	return nil
}
