package cliconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyFileConfig(t *testing.T) {
	trueVal := true
	falseVal := false

	tests := []struct {
		name       string
		fileConfig FileConfig
		changed    map[string]bool
		initial    Config
		expected   Config
		wantErr    bool
	}{
		{
			name: "applies all valid config values",
			fileConfig: FileConfig{
				AccessToken:        "file-token",
				Environment:        "staging",
				Timeout:            "10s",
				DisableFingerprint: &trueVal,
				Verbose:            &falseVal,
				Custom:             map[string]any{"team": "web"},
			},
			changed: map[string]bool{},
			initial: Config{Verbose: true},
			expected: Config{
				AccessToken:        "file-token",
				Environment:        "staging",
				Timeout:            10 * time.Second,
				DisableFingerprint: true,
				CustomFields:       map[string]any{"team": "web"},
			},
		},
		{
			name: "respects changed flags",
			fileConfig: FileConfig{
				AccessToken: "file-token",
				Environment: "staging",
				Debug:       &trueVal,
			},
			changed: map[string]bool{"access-token": true, "debug": true},
			initial: Config{AccessToken: "flag-token"},
			expected: Config{
				AccessToken: "flag-token",
				Environment: "staging",
			},
		},
		{
			name:       "returns error for invalid duration",
			fileConfig: FileConfig{Timeout: "soon"},
			changed:    map[string]bool{},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := ApplyFileConfig(&cfg, tt.fileConfig, tt.changed)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.expected, cfg); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	dir := t.TempDir()

	tomlPath := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(`
access_token = "toml-token"
environment = "production"
timeout = "3s"
verbose = false

[custom]
team = "web"
`), 0o600))

	yamlPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
access_token: yaml-token
environment: staging
include_configuration: true
custom:
  team: mobile
`), 0o600))

	fc, err := LoadFileConfig(tomlPath)
	require.NoError(t, err)
	assert.Equal(t, "toml-token", fc.AccessToken)
	assert.Equal(t, "production", fc.Environment)
	assert.Equal(t, "3s", fc.Timeout)
	require.NotNil(t, fc.Verbose)
	assert.False(t, *fc.Verbose)
	assert.Equal(t, map[string]any{"team": "web"}, fc.Custom)

	fc, err = LoadFileConfig(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "yaml-token", fc.AccessToken)
	require.NotNil(t, fc.IncludeConfiguration)
	assert.True(t, *fc.IncludeConfiguration)
	assert.Nil(t, fc.Verbose)
	assert.Equal(t, map[string]any{"team": "mobile"}, fc.Custom)
}

func TestLoadFileConfigErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFileConfig(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("access_token = "), 0o600))
	_, err = LoadFileConfig(bad)
	assert.Error(t, err)
}

func TestDefaultConfigPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	assert.Equal(t, filepath.Join(home, ".rollbar", "config.toml"), DefaultConfigPath())
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "f")
	assert.False(t, FileExists(p))
	require.NoError(t, os.WriteFile(p, nil, 0o600))
	assert.True(t, FileExists(p))
}
