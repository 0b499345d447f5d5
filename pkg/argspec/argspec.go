// SPDX-License-Identifier: MPL-2.0

package argspec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/argres/argres/pkg/argkey"
	"github.com/argres/argres/pkg/coerce"
)

var (
	// ErrInvalidSpec is the sentinel error wrapped by InvalidSpecError.
	ErrInvalidSpec = errors.New("invalid argument specification")
	// ErrEmptyID is returned when a Spec has no id.
	ErrEmptyID = errors.New("argument id must not be empty")
	// ErrDuplicateID is returned when two specs in one set share an id.
	ErrDuplicateID = errors.New("duplicate argument id")
	// ErrInvalidEnvName is returned when an environment variable name cannot exist.
	ErrInvalidEnvName = errors.New("invalid environment variable name")
)

type (
	// Spec declares one argument and its resolution policy.
	//
	// Policy flags are tri-state: nil means "not set", which inherits from the
	// defaults passed to WithDefaults and otherwise falls back to the documented default.
	Spec struct {
		// ID is the canonical name and the key of the resolved value.
		ID string
		// Alias is an optional alternate lookup name.
		Alias string
		// Env names the environment variable to consult (optional).
		Env string
		// Default is used when no source supplies a value. nil is undefined.
		Default any
		// Type converts the value after native coercion (optional).
		Type *coerce.Converter
		// Enum lists the permitted values. A nil slice disables enum validation.
		Enum []any

		// Argv consults the parsed command line (default true).
		Argv *bool
		// Kebab adds the kebab-case spelling of ID as a lookup key (default true).
		Kebab *bool
		// Camel adds the camelCase spelling of ID as a lookup key (default false).
		Camel *bool
		// Snake adds the snake_case spelling of ID as a lookup key (default false).
		Snake *bool
		// NativeType converts raw strings to native scalars (default true).
		NativeType *bool
		// ParseUndefined lets coercion run on an undefined value (default true).
		ParseUndefined *bool
		// Required fails resolution when the value is undefined or an empty sequence (default false).
		Required *bool
		// Nullable accepts an undefined value despite Required or Enum (default false).
		Nullable *bool
		// Warn emits this argument's errors as one diagnostic (default false).
		Warn *bool
		// Throw aborts the whole resolution run on this argument's errors (default false).
		Throw *bool
	}

	// InvalidSpecError is returned when one or more specs are malformed.
	// It wraps ErrInvalidSpec for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidSpecError struct {
		ID          string
		FieldErrors []error
	}
)

// Bool returns a pointer to b, for setting policy flags inline.
func Bool(b bool) *bool {
	return &b
}

func get(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// ConsultsArgv reports whether the parsed command line is consulted.
func (s *Spec) ConsultsArgv() bool { return get(s.Argv, true) }

// UsesNativeType reports whether raw strings are converted to native scalars.
func (s *Spec) UsesNativeType() bool { return get(s.NativeType, true) }

// ParsesUndefined reports whether coercion may run on an undefined value.
func (s *Spec) ParsesUndefined() bool { return get(s.ParseUndefined, true) }

// IsRequired reports whether a value must be present.
func (s *Spec) IsRequired() bool { return get(s.Required, false) }

// IsNullable reports whether an undefined value is accepted as valid.
func (s *Spec) IsNullable() bool { return get(s.Nullable, false) }

// Warns reports whether this argument's errors are emitted as a diagnostic.
func (s *Spec) Warns() bool { return get(s.Warn, false) }

// Throws reports whether this argument's errors abort resolution.
func (s *Spec) Throws() bool { return get(s.Throw, false) }

// IsEnum reports whether the value is restricted to Enum.
func (s *Spec) IsEnum() bool { return s.Enum != nil }

// Styles returns the enabled key styles.
func (s *Spec) Styles() argkey.Styles {
	return argkey.Styles{
		Kebab: get(s.Kebab, true),
		Camel: get(s.Camel, false),
		Snake: get(s.Snake, false),
	}
}

// Keys returns the lookup keys derived from ID, Alias and the key styles.
func (s *Spec) Keys() []string {
	return argkey.Derive(s.ID, s.Alias, s.Styles())
}

// WithDefaults returns a copy of s where every unset field is taken from defaults.
// ID is never inherited.
func (s *Spec) WithDefaults(defaults Spec) Spec {
	out := *s
	if out.Alias == "" {
		out.Alias = defaults.Alias
	}
	if out.Env == "" {
		out.Env = defaults.Env
	}
	if out.Default == nil {
		out.Default = defaults.Default
	}
	if out.Type == nil {
		out.Type = defaults.Type
	}
	if out.Enum == nil && defaults.Enum != nil {
		out.Enum = append([]any(nil), defaults.Enum...)
	}
	for _, f := range []struct{ dst, src **bool }{
		{&out.Argv, &defaults.Argv},
		{&out.Kebab, &defaults.Kebab},
		{&out.Camel, &defaults.Camel},
		{&out.Snake, &defaults.Snake},
		{&out.NativeType, &defaults.NativeType},
		{&out.ParseUndefined, &defaults.ParseUndefined},
		{&out.Required, &defaults.Required},
		{&out.Nullable, &defaults.Nullable},
		{&out.Warn, &defaults.Warn},
		{&out.Throw, &defaults.Throw},
	} {
		if *f.dst == nil && *f.src != nil {
			v := **f.src
			*f.dst = &v
		}
	}
	return out
}

// IsValid returns whether the Spec is well-formed, and a list of
// validation errors if it is not.
func (s *Spec) IsValid() (bool, []error) {
	var errs []error
	if s.ID == "" {
		errs = append(errs, ErrEmptyID)
	}
	if s.Env != "" && strings.ContainsAny(s.Env, "=\x00") {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidEnvName, s.Env))
	}
	if s.Type != nil {
		if valid, typeErrs := s.Type.IsValid(); !valid {
			errs = append(errs, typeErrs...)
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidSpecError{ID: s.ID, FieldErrors: errs}}
	}
	return true, nil
}

// Validate checks every spec and the uniqueness of their ids.
func Validate(specs []Spec) error {
	var errs []error
	seen := make(map[string]int, len(specs))
	for i := range specs {
		if valid, specErrs := specs[i].IsValid(); !valid {
			errs = append(errs, specErrs...)
			continue
		}
		if first, ok := seen[specs[i].ID]; ok {
			errs = append(errs, &InvalidSpecError{
				ID:          specs[i].ID,
				FieldErrors: []error{fmt.Errorf("%w: %q (args[%d] and args[%d])", ErrDuplicateID, specs[i].ID, first, i)},
			})
			continue
		}
		seen[specs[i].ID] = i
	}
	return errors.Join(errs...)
}

// Error implements the error interface for InvalidSpecError.
func (e *InvalidSpecError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	if e.ID == "" {
		return fmt.Sprintf("invalid argument specification: %s", strings.Join(msgs, "; "))
	}
	return fmt.Sprintf("invalid argument specification %q: %s", e.ID, strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidSpec and the field errors for errors.Is() compatibility.
func (e *InvalidSpecError) Unwrap() []error {
	return append([]error{ErrInvalidSpec}, e.FieldErrors...)
}
