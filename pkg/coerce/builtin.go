// SPDX-License-Identifier: MPL-2.0

package coerce

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/argres/argres/pkg/argval"

	"golang.org/x/exp/slices"
)

// ErrUnknownConverter is returned when a converter name is not registered.
var ErrUnknownConverter = errors.New("unknown converter")

type (
	// Registry maps converter names to converters. The zero value is empty;
	// Builtins returns a registry holding the builtin converters.
	Registry struct {
		converters map[string]*Converter
	}

	// UnknownConverterError is returned when a converter name is not registered.
	// It wraps ErrUnknownConverter for errors.Is() compatibility.
	UnknownConverterError struct {
		Name  string
		Known []string
	}
)

// Error implements the error interface for UnknownConverterError.
func (e *UnknownConverterError) Error() string {
	return fmt.Sprintf("unknown converter %q (known: %s)", e.Name, strings.Join(e.Known, ", "))
}

// Unwrap returns ErrUnknownConverter for errors.Is() compatibility.
func (e *UnknownConverterError) Unwrap() error { return ErrUnknownConverter }

// Builtins returns a new registry with the builtin converters:
// string, int, float, bool, json (functions) and duration, url, regexp (factories).
// Every builtin passes undefined through unchanged.
func Builtins() *Registry {
	r := &Registry{}
	for _, c := range []*Converter{
		Func("string", toString),
		Func("int", toInt),
		Func("float", toFloat),
		Func("bool", toBool),
		Func("json", toJSON),
		Factory("duration", newDuration),
		Factory("url", newURL),
		Factory("regexp", newRegexp),
	} {
		_ = r.Register(c)
	}
	return r
}

// Register adds a converter, replacing any converter with the same name.
func (r *Registry) Register(c *Converter) error {
	if valid, errs := c.IsValid(); !valid {
		return errors.Join(errs...)
	}
	if r.converters == nil {
		r.converters = make(map[string]*Converter)
	}
	r.converters[c.Name] = c
	return nil
}

// Lookup returns the converter registered under name.
func (r *Registry) Lookup(name string) (*Converter, error) {
	if c, ok := r.converters[name]; ok {
		return c, nil
	}
	return nil, &UnknownConverterError{Name: name, Known: r.Names()}
}

// Names returns the registered converter names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.converters))
	for name := range r.converters {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func toString(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		return t, nil
	default:
		return argval.Format(v), nil
	}
}

func toInt(v any) (any, error) {
	switch t := argval.Normalize(v).(type) {
	case nil:
		return nil, nil
	case float64:
		if t != math.Trunc(t) || !fitsInt64(t) {
			return nil, &ConversionError{Converter: "int", Value: v}
		}
		return int64(t), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return nil, &ConversionError{Converter: "int", Value: v, Err: err}
		}
		return n, nil
	default:
		return nil, &ConversionError{Converter: "int", Value: v}
	}
}

func toFloat(v any) (any, error) {
	switch t := argval.Normalize(v).(type) {
	case nil:
		return nil, nil
	case float64:
		return t, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return nil, &ConversionError{Converter: "float", Value: v, Err: err}
		}
		return f, nil
	default:
		return nil, &ConversionError{Converter: "float", Value: v}
	}
}

func toBool(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case bool:
		return t, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return nil, &ConversionError{Converter: "bool", Value: v, Err: err}
		}
		return b, nil
	default:
		return nil, &ConversionError{Converter: "bool", Value: v}
	}
}

func toJSON(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return v, nil
	}
	var out any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, &ConversionError{Converter: "json", Value: v, Err: err}
	}
	if out == nil {
		return argval.Null, nil
	}
	return argval.Normalize(out), nil
}

// fitsInt64 reports whether f converts to int64 without overflow.
// 2^63 is exact in float64; MaxInt64 is not.
func fitsInt64(f float64) bool {
	return f >= -(1<<63) && f < 1<<63
}

// newDuration reads strings with time.ParseDuration; bare numbers are seconds.
func newDuration(v any) (any, error) {
	switch t := argval.Normalize(v).(type) {
	case nil:
		return nil, nil
	case time.Duration:
		return t, nil
	case float64:
		ns := t * float64(time.Second)
		if !fitsInt64(ns) {
			return nil, &ConversionError{Converter: "duration", Value: v}
		}
		return time.Duration(ns), nil
	case string:
		d, err := time.ParseDuration(strings.TrimSpace(t))
		if err != nil {
			return nil, &ConversionError{Converter: "duration", Value: v, Err: err}
		}
		return d, nil
	default:
		return nil, &ConversionError{Converter: "duration", Value: v}
	}
}

func newURL(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case *url.URL:
		u := *t
		return &u, nil
	case string:
		u, err := url.Parse(t)
		if err != nil {
			return nil, &ConversionError{Converter: "url", Value: v, Err: err}
		}
		return u, nil
	default:
		return nil, &ConversionError{Converter: "url", Value: v}
	}
}

func newRegexp(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case *regexp.Regexp:
		return regexp.MustCompile(t.String()), nil
	case string:
		re, err := regexp.Compile(t)
		if err != nil {
			return nil, &ConversionError{Converter: "regexp", Value: v, Err: err}
		}
		return re, nil
	default:
		return nil, &ConversionError{Converter: "regexp", Value: v}
	}
}
