// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/argres/argres/internal/issue"
	"github.com/argres/argres/pkg/cueutil"

	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "argres"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides: resolve.throw is ARGRES_RESOLVE_THROW.
	EnvPrefix = "ARGRES"
)

var (
	//go:embed config_schema.cue
	configSchema []byte

	// dirOverride replaces the platform directory lookup of ConfigDir.
	dirOverride string
)

// SetConfigDirOverride makes ConfigDir return dir. An empty dir restores
// the platform lookup.
func SetConfigDirOverride(dir string) {
	dirOverride = dir
}

// ConfigDir returns the argres configuration directory: %APPDATA% on Windows,
// ~/Library/Application Support on macOS, and $XDG_CONFIG_HOME (default
// ~/.config) elsewhere.
//
//nolint:revive // ConfigDir reads better than Dir at call sites
func ConfigDir() (string, error) {
	if dirOverride != "" {
		return dirOverride, nil
	}

	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		base = filepath.Join(home, "Library", "Application Support")
	default:
		base = os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			base = filepath.Join(home, ".config")
		}
	}
	return filepath.Join(base, AppName), nil
}

// FilePath returns the config file that Load would read, and whether it exists.
// An explicit ConfigFilePath is returned as is.
func FilePath(opts LoadOptions) (string, bool, error) {
	if opts.ConfigFilePath != "" {
		return opts.ConfigFilePath, fileExists(opts.ConfigFilePath), nil
	}
	dir := opts.ConfigDirPath
	if dir == "" {
		var err error
		if dir, err = ConfigDir(); err != nil {
			return "", false, err
		}
	}
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	return path, fileExists(path), nil
}

// loadWithOptions layers built-in defaults, the config file and ARGRES_*
// environment variables, in that order. It returns the file it read, if any.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, exists, err := FilePath(opts)
	if err != nil {
		return nil, "", err
	}

	switch {
	case exists:
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Compare your settings with 'argres config dump'").
				Wrap(err).
				BuildError()
		}
	case opts.ConfigFilePath != "":
		return nil, "", issue.NewErrorContext().
			WithOperation("load configuration").
			WithResource(path).
			WithSuggestion("Verify the file path is correct").
			WithSuggestion("Run 'argres config path' to see the default location").
			Wrap(fmt.Errorf("config file not found: %s", path)).
			BuildError()
	default:
		path = ""
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if valid, errs := cfg.IsValid(); !valid {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(path).
			WithSuggestion("Check the ARGRES_* environment variables").
			Wrap(errors.Join(errs...)).
			BuildError()
	}
	return &cfg, path, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("resolve.warn", d.Resolve.Warn)
	v.SetDefault("resolve.throw", d.Resolve.Throw)
	v.SetDefault("resolve.include_errors", d.Resolve.IncludeErrors)
	v.SetDefault("resolve.errors_key", d.Resolve.ErrorsKey)
	v.SetDefault("resolve.positional", d.Resolve.Positional)
	v.SetDefault("resolve.positional_key", d.Resolve.PositionalKey)
	v.SetDefault("resolve.rest", d.Resolve.Rest)
	v.SetDefault("resolve.rest_key", d.Resolve.RestKey)
	v.SetDefault("resolve.locals_policy", string(d.Resolve.LocalsPolicy))
	v.SetDefault("output.format", string(d.Output.Format))
	v.SetDefault("log.level", string(d.Log.Level))
}

// loadCUEIntoViper validates the file against #Config and merges it over
// the defaults. Decoding goes to a map so that unset fields keep their default.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	res, err := cueutil.Decode[map[string]any](configSchema, data, "#Config",
		cueutil.WithFilename(path),
		cueutil.WithConcrete(false),
	)
	if err != nil {
		return err
	}
	if err := v.MergeConfigMap(*res.Value); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// GenerateCUE renders cfg as a config.cue document.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder
	r := cfg.Resolve

	sb.WriteString("// argres configuration\n\n")
	sb.WriteString("resolve: {\n")
	fmt.Fprintf(&sb, "\twarn:           %v\n", r.Warn)
	fmt.Fprintf(&sb, "\tthrow:          %v\n", r.Throw)
	fmt.Fprintf(&sb, "\tinclude_errors: %v\n", r.IncludeErrors)
	fmt.Fprintf(&sb, "\terrors_key:     %q\n", r.ErrorsKey)
	fmt.Fprintf(&sb, "\tpositional:     %v\n", r.Positional)
	fmt.Fprintf(&sb, "\tpositional_key: %q\n", r.PositionalKey)
	fmt.Fprintf(&sb, "\trest:           %v\n", r.Rest)
	fmt.Fprintf(&sb, "\trest_key:       %q\n", r.RestKey)
	fmt.Fprintf(&sb, "\tlocals_policy:  %q\n", r.LocalsPolicy)
	sb.WriteString("}\n\n")
	fmt.Fprintf(&sb, "output: format: %q\n", cfg.Output.Format)
	fmt.Fprintf(&sb, "log: level: %q\n", cfg.Log.Level)
	return sb.String()
}
