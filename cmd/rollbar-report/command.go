package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/tabsight/rollbar-client-go"
	"github.com/tabsight/rollbar-client-go/internal/cliconfig"
	rollbarzerolog "github.com/tabsight/rollbar-client-go/zerolog"
)

var exampleUsage = strings.TrimSpace(`
  rollbar-report --access-token <token> --environment production "Deploy failed"
  rollbar-report --level warning --error "exit status 2" --state '{"job":"backup"}' "Backup degraded"
  rollbar-report --config $HOME/.rollbar/config.yaml --action LOGIN --action 'CHECKOUT={"cart":3}' "Checkout broken"
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return rollbar.SDKVersion
}

// reportArgs are the per-occurrence flags; they are never read from files.
type reportArgs struct {
	level   string
	errText string
	state   string
	actions []string
}

func (a reportArgs) occurrence(title string) (rollbar.Occurrence, error) {
	o := rollbar.Occurrence{
		Level: rollbar.Level(a.level),
		Title: title,
	}
	if a.errText != "" {
		o.Error = errors.New(a.errText)
	}
	if a.state != "" {
		var state any
		if err := json.Unmarshal([]byte(a.state), &state); err != nil {
			return o, fmt.Errorf("parse state: %w", err)
		}
		o.ApplicationState = state
	}
	for _, raw := range a.actions {
		action, err := parseAction(raw)
		if err != nil {
			return o, err
		}
		o.ActionHistory = append(o.ActionHistory, action)
	}
	return o, nil
}

// parseAction reads TYPE or TYPE=<json payload>.
func parseAction(raw string) (rollbar.Action, error) {
	typ, payload, found := strings.Cut(raw, "=")
	action := rollbar.Action{Type: typ}
	if typ == "" {
		return action, fmt.Errorf("parse action %q: empty type", raw)
	}
	if found {
		if err := json.Unmarshal([]byte(payload), &action.Payload); err != nil {
			return action, fmt.Errorf("parse action %q: %w", raw, err)
		}
	}
	return action, nil
}

func newRootCommand(log zerolog.Logger) *cobra.Command {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string
	var args reportArgs

	root := &cobra.Command{
		Use:           "rollbar-report [flags] TITLE",
		Short:         "Send one occurrence to Rollbar and wait for its delivery",
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, positional []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			} else if cfgPath != "" {
				return fmt.Errorf("load config: %s does not exist", cfgPath)
			}

			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}
			log.Debug().Interface("config", cfg.Masked()).Msg("configuration")

			o, err := args.occurrence(positional[0])
			if err != nil {
				return err
			}

			options := cfg.Options()
			options.Console = rollbarzerolog.NewConsole(log)
			if cfg.Debug {
				options.DebugWriter = cmd.ErrOrStderr()
			}
			client := rollbar.NewClient(options)
			defer client.Close()

			if err := client.Log(o); err != nil {
				return fmt.Errorf("report: %w", err)
			}
			if !client.Flush(cfg.Timeout) {
				return fmt.Errorf("delivery did not finish within %s", cfg.Timeout)
			}
			log.Info().Str("level", args.level).Msg("occurrence reported")
			return nil
		},
	}

	flags := root.Flags()
	flags.StringVar(&cfgPath, "config", "", "path to a TOML or YAML config file (default: $HOME/.rollbar/config.toml)")
	flags.StringVar(&cfg.AccessToken, "access-token", cfg.AccessToken, "post_client_item access token")
	flags.StringVar(&cfg.Environment, "environment", cfg.Environment, "environment reported with the occurrence")
	flags.StringVar(&cfg.APIURL, "api-url", cfg.APIURL, "item endpoint")
	flags.StringVar(&cfg.CommitHash, "commit-hash", cfg.CommitHash, "code version reported with the occurrence")
	flags.StringVar(&cfg.Fingerprint, "fingerprint", cfg.Fingerprint, "grouping fingerprint (defaults to the title)")
	flags.BoolVar(&cfg.DisableFingerprint, "disable-fingerprint", cfg.DisableFingerprint, "let the server group the occurrence")
	flags.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "echo the occurrence to stderr")
	flags.BoolVar(&cfg.IncludeConfiguration, "include-configuration", cfg.IncludeConfiguration, "embed the configuration in the payload")
	flags.BoolVar(&cfg.Debug, "debug", cfg.Debug, "print the client debug log")
	flags.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "how long to wait for delivery")

	flags.StringVar(&args.level, "level", string(rollbar.LevelError), "critical, error, warning, info or debug")
	flags.StringVar(&args.errText, "error", "", "error message reported as an exception")
	flags.StringVar(&args.state, "state", "", "application state as a JSON document")
	flags.StringArrayVar(&args.actions, "action", nil, "action history entry as TYPE or TYPE=<json payload>, repeatable")

	return root
}
