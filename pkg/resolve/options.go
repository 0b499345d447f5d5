// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"os"

	"github.com/argres/argres/pkg/argspec"
)

const (
	// LocalsAfterCoercion applies locals after every argument has resolved.
	// They win unconditionally and are neither coerced nor validated.
	LocalsAfterCoercion LocalsPolicy = "after"
	// LocalsBeforeCoercion applies a local as the last source of its argument,
	// so it is coerced and validated like any other source.
	LocalsBeforeCoercion LocalsPolicy = "before"

	// DefaultPositionalKey is the output key of leftover positional tokens.
	DefaultPositionalKey = "_"
	// DefaultRestKey is the output key of the tokens after "--".
	DefaultRestKey = "--"
	// DefaultErrorsKey is the output key of the error list when errors are included.
	DefaultErrorsKey = "_errors"
)

type (
	// LocalsPolicy selects when caller overrides are applied.
	LocalsPolicy string

	// Option configures a Resolver.
	Option func(*options)

	options struct {
		env           Env
		cmdline       CommandLine
		sink          Sink
		warn          bool
		throw         bool
		positional    bool
		positionalKey string
		rest          bool
		restKey       string
		includeErrors bool
		errorsKey     string
		locals        LocalsPolicy
		specDefaults  argspec.Spec
	}
)

// IsValid returns whether the LocalsPolicy is one of the defined policies,
// and a list of validation errors if it is not.
// The zero value is valid and means LocalsAfterCoercion.
func (p LocalsPolicy) IsValid() (bool, []error) {
	switch p {
	case LocalsAfterCoercion, LocalsBeforeCoercion, "":
		return true, nil
	default:
		return false, []error{&InvalidLocalsPolicyError{Value: p}}
	}
}

func defaultOptions() options {
	return options{
		positional:    true,
		positionalKey: DefaultPositionalKey,
		rest:          true,
		restKey:       DefaultRestKey,
		errorsKey:     DefaultErrorsKey,
		locals:        LocalsAfterCoercion,
	}
}

// WithEnv sets the environment snapshot. Without it the process environment
// is captured when the Resolver is created.
func WithEnv(env Env) Option {
	return func(o *options) { o.env = env }
}

// WithCommandLine sets the parsed command-line snapshot. Without it no
// command-line values, positional tokens or rest tokens are seen.
func WithCommandLine(cl CommandLine) Option {
	return func(o *options) { o.cmdline = cl }
}

// WithSink sets where warn-mode diagnostics go. Default: a LogSink on stderr.
func WithSink(s Sink) Option {
	return func(o *options) { o.sink = s }
}

// WithWarn emits all errors of a run as one diagnostic.
func WithWarn(warn bool) Option {
	return func(o *options) { o.warn = warn }
}

// WithThrow fails the run with an *InvalidArgumentError carrying all errors,
// after every argument has been resolved.
func WithThrow(throw bool) Option {
	return func(o *options) { o.throw = throw }
}

// WithPositional stores the positional tokens under key.
func WithPositional(key string) Option {
	return func(o *options) {
		o.positional = true
		o.positionalKey = key
	}
}

// WithoutPositional leaves the positional tokens out of the output.
func WithoutPositional() Option {
	return func(o *options) { o.positional = false }
}

// WithRest stores the tokens after "--" under key.
func WithRest(key string) Option {
	return func(o *options) {
		o.rest = true
		o.restKey = key
	}
}

// WithoutRest leaves the tokens after "--" out of the output.
func WithoutRest() Option {
	return func(o *options) { o.rest = false }
}

// WithIncludeErrors stores the error messages, or Null when there are none,
// under key in the output.
func WithIncludeErrors(key string) Option {
	return func(o *options) {
		o.includeErrors = true
		o.errorsKey = key
	}
}

// WithoutIncludeErrors leaves the error list out of the output.
func WithoutIncludeErrors() Option {
	return func(o *options) { o.includeErrors = false }
}

// WithLocalsPolicy selects when locals are applied.
func WithLocalsPolicy(p LocalsPolicy) Option {
	return func(o *options) {
		if p == "" {
			p = LocalsAfterCoercion
		}
		o.locals = p
	}
}

// WithSpecDefaults layers defaults under every spec (see argspec.Spec.WithDefaults).
func WithSpecDefaults(defaults argspec.Spec) Option {
	return func(o *options) { o.specDefaults = defaults }
}

func (o *options) finish() {
	if o.env == nil {
		o.env = OSEnv()
	}
	if o.sink == nil {
		o.sink = NewLogSink(os.Stderr)
	}
}

// reservedKeys returns the synthetic output keys in use.
func (o *options) reservedKeys() []string {
	var keys []string
	if o.positional {
		keys = append(keys, o.positionalKey)
	}
	if o.rest {
		keys = append(keys, o.restKey)
	}
	if o.includeErrors {
		keys = append(keys, o.errorsKey)
	}
	return keys
}
