// SPDX-License-Identifier: MPL-2.0

package coerce

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/argres/argres/pkg/argval"
)

const (
	// KindFunction converters are invoked as plain functions; their return value is used as-is.
	KindFunction ConverterKind = "function"
	// KindFactory converters construct a new instance from the value.
	// A factory given a defined value must produce a defined instance.
	KindFactory ConverterKind = "factory"
)

var (
	// ErrInvalidConverterKind is returned when a ConverterKind value is not recognized.
	ErrInvalidConverterKind = errors.New("invalid converter kind")
	// ErrInvalidConverter is returned when a Converter is missing its name or function.
	ErrInvalidConverter = errors.New("invalid converter")
	// ErrConversion is the sentinel wrapped by ConversionError.
	ErrConversion = errors.New("conversion failed")
	// ErrNilInstance is returned when a factory yields no instance for a defined value.
	ErrNilInstance = errors.New("factory produced no instance")
)

// nativeLiterals maps the literal strings with a native meaning.
// "undefined" maps to nil, which is how undefined is represented.
var nativeLiterals = map[string]any{
	"true":      true,
	"false":     false,
	"null":      argval.Null,
	"undefined": nil,
	"NaN":       math.NaN(),
}

type (
	// ConverterKind tags how a converter is invoked.
	ConverterKind string

	// InvalidConverterKindError is returned when a ConverterKind value is not recognized.
	// It wraps ErrInvalidConverterKind for errors.Is() compatibility.
	InvalidConverterKindError struct {
		Value ConverterKind
	}

	// Converter turns a value into a custom representation.
	Converter struct {
		// Name identifies the converter in declaration files and error messages.
		Name string
		// Kind selects plain invocation or instance construction.
		Kind ConverterKind
		// Fn performs the conversion.
		Fn func(v any) (any, error)
	}

	// ConversionError reports a value a converter could not handle.
	ConversionError struct {
		Converter string
		Value     any
		Err       error
	}
)

// Func returns a function-kind converter.
func Func(name string, fn func(any) (any, error)) *Converter {
	return &Converter{Name: name, Kind: KindFunction, Fn: fn}
}

// Factory returns a factory-kind converter.
func Factory(name string, fn func(any) (any, error)) *Converter {
	return &Converter{Name: name, Kind: KindFactory, Fn: fn}
}

// Error implements the error interface for InvalidConverterKindError.
func (e *InvalidConverterKindError) Error() string {
	return fmt.Sprintf("invalid converter kind %q (valid: function, factory)", e.Value)
}

// Unwrap returns ErrInvalidConverterKind for errors.Is() compatibility.
func (e *InvalidConverterKindError) Unwrap() error { return ErrInvalidConverterKind }

// IsValid returns whether the ConverterKind is one of the defined kinds,
// and a list of validation errors if it is not.
func (k ConverterKind) IsValid() (bool, []error) {
	switch k {
	case KindFunction, KindFactory:
		return true, nil
	default:
		return false, []error{&InvalidConverterKindError{Value: k}}
	}
}

// IsValid returns whether the Converter can be invoked.
func (c *Converter) IsValid() (bool, []error) {
	var errs []error
	if valid, kindErrs := c.Kind.IsValid(); !valid {
		errs = append(errs, kindErrs...)
	}
	if c.Fn == nil {
		errs = append(errs, fmt.Errorf("%w: %q has no function", ErrInvalidConverter, c.Name))
	}
	if len(errs) > 0 {
		return false, errs
	}
	return true, nil
}

// Error implements the error interface for ConversionError.
func (e *ConversionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot convert %q to %s: %v", argval.Format(e.Value), e.Converter, e.Err)
	}
	return fmt.Sprintf("cannot convert %q to %s", argval.Format(e.Value), e.Converter)
}

// Unwrap returns ErrConversion and the underlying cause.
func (e *ConversionError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrConversion, e.Err}
	}
	return []error{ErrConversion}
}

// ToNative converts a raw string into the native scalar it spells.
// Non-string values are returned unchanged, so ToNative is idempotent.
func ToNative(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if native, ok := nativeLiterals[s]; ok {
		return native
	}
	if f, ok := parseNumeric(s); ok {
		return f
	}
	return s
}

// parseNumeric accepts finite decimal literals, with surrounding whitespace allowed.
func parseNumeric(s string) (float64, bool) {
	t := strings.TrimSpace(s)
	if t == "" || strings.ContainsAny(t, "xX_") {
		return 0, false
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ToSpecific applies a converter to v. A nil converter, or one whose kind is
// unknown, passes v through unchanged. Converter errors are returned as produced.
func ToSpecific(v any, c *Converter) (any, error) {
	if c == nil || c.Fn == nil {
		return v, nil
	}
	switch c.Kind {
	case KindFactory:
		out, err := c.Fn(v)
		if err != nil {
			return nil, err
		}
		if out == nil && v != nil {
			return nil, fmt.Errorf("%w: %s", ErrNilInstance, c.Name)
		}
		return out, nil
	case KindFunction:
		return c.Fn(v)
	default:
		return v, nil
	}
}

// Each applies fn to v, element-wise when v is a sequence.
// Order and length of sequences are preserved.
func Each(v any, fn func(any) (any, error)) (any, error) {
	seq, ok := argval.Sequence(v)
	if !ok {
		return fn(v)
	}
	for i, e := range seq {
		out, err := fn(e)
		if err != nil {
			return nil, err
		}
		seq[i] = out
	}
	return seq, nil
}

// Native applies ToNative to v, element-wise when v is a sequence.
func Native(v any) any {
	out, _ := Each(v, func(e any) (any, error) { return ToNative(e), nil })
	return out
}

// Specific applies ToSpecific to v, element-wise when v is a sequence.
func Specific(v any, c *Converter) (any, error) {
	return Each(v, func(e any) (any, error) { return ToSpecific(e, c) })
}
