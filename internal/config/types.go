// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"

	"github.com/argres/argres/pkg/resolve"

	"github.com/charmbracelet/log"
)

const (
	// OutputJSON prints resolved values as indented JSON.
	OutputJSON OutputFormat = "json"
	// OutputTable prints resolved values as a styled table.
	OutputTable OutputFormat = "table"

	// LogLevelDebug logs per-argument sources.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo is the default level.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs warnings and errors only.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs errors only.
	LogLevelError LogLevel = "error"
)

var (
	// ErrInvalidOutputFormat is returned when an OutputFormat value is not recognized.
	ErrInvalidOutputFormat = errors.New("invalid output format")
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// OutputFormat selects how `argres resolve` prints values.
	OutputFormat string

	// InvalidOutputFormatError is returned when an OutputFormat value is not recognized.
	InvalidOutputFormatError struct {
		Value OutputFormat
	}

	// LogLevel is the minimum level of CLI log output.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// Config is the argres tool configuration.
	Config struct {
		Resolve ResolveConfig `json:"resolve" mapstructure:"resolve"`
		Output  OutputConfig  `json:"output" mapstructure:"output"`
		Log     LogConfig     `json:"log" mapstructure:"log"`
	}

	// ResolveConfig holds the resolver options applied before those of a
	// declaration file.
	ResolveConfig struct {
		Warn          bool                 `json:"warn" mapstructure:"warn"`
		Throw         bool                 `json:"throw" mapstructure:"throw"`
		IncludeErrors bool                 `json:"include_errors" mapstructure:"include_errors"`
		ErrorsKey     string               `json:"errors_key" mapstructure:"errors_key"`
		Positional    bool                 `json:"positional" mapstructure:"positional"`
		PositionalKey string               `json:"positional_key" mapstructure:"positional_key"`
		Rest          bool                 `json:"rest" mapstructure:"rest"`
		RestKey       string               `json:"rest_key" mapstructure:"rest_key"`
		LocalsPolicy  resolve.LocalsPolicy `json:"locals_policy" mapstructure:"locals_policy"`
	}

	// OutputConfig configures command output.
	OutputConfig struct {
		Format OutputFormat `json:"format" mapstructure:"format"`
	}

	// LogConfig configures CLI logging.
	LogConfig struct {
		Level LogLevel `json:"level" mapstructure:"level"`
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Resolve: ResolveConfig{
			Warn:          true,
			ErrorsKey:     resolve.DefaultErrorsKey,
			Positional:    true,
			PositionalKey: resolve.DefaultPositionalKey,
			Rest:          true,
			RestKey:       resolve.DefaultRestKey,
			LocalsPolicy:  resolve.LocalsAfterCoercion,
		},
		Output: OutputConfig{Format: OutputJSON},
		Log:    LogConfig{Level: LogLevelInfo},
	}
}

// ResolverOptions turns the resolve section into resolver options.
func (c *Config) ResolverOptions() []resolve.Option {
	r := c.Resolve
	opts := []resolve.Option{
		resolve.WithWarn(r.Warn),
		resolve.WithThrow(r.Throw),
		resolve.WithLocalsPolicy(r.LocalsPolicy),
	}
	if r.Positional {
		opts = append(opts, resolve.WithPositional(r.PositionalKey))
	} else {
		opts = append(opts, resolve.WithoutPositional())
	}
	if r.Rest {
		opts = append(opts, resolve.WithRest(r.RestKey))
	} else {
		opts = append(opts, resolve.WithoutRest())
	}
	if r.IncludeErrors {
		opts = append(opts, resolve.WithIncludeErrors(r.ErrorsKey))
	}
	return opts
}

// IsValid returns whether the OutputFormat is one of the defined formats,
// and a list of validation errors if it is not.
func (f OutputFormat) IsValid() (bool, []error) {
	switch f {
	case OutputJSON, OutputTable:
		return true, nil
	default:
		return false, []error{&InvalidOutputFormatError{Value: f}}
	}
}

func (e *InvalidOutputFormatError) Error() string {
	return fmt.Sprintf("invalid output format %q (valid: json, table)", e.Value)
}

// Unwrap returns ErrInvalidOutputFormat for errors.Is() compatibility.
func (e *InvalidOutputFormatError) Unwrap() error { return ErrInvalidOutputFormat }

// IsValid returns whether the LogLevel is one of the defined levels,
// and a list of validation errors if it is not.
func (l LogLevel) IsValid() (bool, []error) {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true, nil
	default:
		return false, []error{&InvalidLogLevelError{Value: l}}
	}
}

// Level converts l to a charmbracelet/log level. Unknown values map to info.
func (l LogLevel) Level() log.Level {
	lvl, err := log.ParseLevel(string(l))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// IsValid returns whether the Config has valid fields. String keys must be
// non-empty when their section is enabled.
func (c *Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Resolve.LocalsPolicy.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if c.Resolve.Positional && c.Resolve.PositionalKey == "" {
		errs = append(errs, errors.New("resolve.positional_key must not be empty"))
	}
	if c.Resolve.Rest && c.Resolve.RestKey == "" {
		errs = append(errs, errors.New("resolve.rest_key must not be empty"))
	}
	if c.Resolve.IncludeErrors && c.Resolve.ErrorsKey == "" {
		errs = append(errs, errors.New("resolve.errors_key must not be empty"))
	}
	if valid, fieldErrs := c.Output.Format.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Log.Level.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s): %v", len(e.FieldErrors), errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig followed by the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}
