// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/argres/argres/pkg/argval"
)

var (
	// ErrMissingRequired is returned when a required, non-nullable argument has no value.
	ErrMissingRequired = errors.New("missing required argument value")
	// ErrInvalidEnumValue is returned when a value is not one of the permitted values.
	ErrInvalidEnumValue = errors.New("argument value not in enum")
	// ErrInvalidArgument is wrapped by InvalidArgumentError, the failure returned in throw mode.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrReservedID is returned when an argument id collides with a synthetic output key.
	ErrReservedID = errors.New("argument id collides with a reserved output key")
	// ErrInvalidLocalsPolicy is returned when a LocalsPolicy value is not recognized.
	ErrInvalidLocalsPolicy = errors.New("invalid locals policy")
)

type (
	// MissingRequiredError reports a required argument that resolved to nothing.
	// It wraps ErrMissingRequired for errors.Is() compatibility.
	MissingRequiredError struct {
		ID string
	}

	// InvalidEnumValueError reports one value, or one sequence element, outside the enum.
	// It wraps ErrInvalidEnumValue for errors.Is() compatibility.
	InvalidEnumValueError struct {
		ID    string
		Value any
	}

	// InvalidArgumentError carries the accumulated validation errors when resolution
	// is aborted in throw mode. ID names the argument for a per-argument abort and is
	// empty when the aggregate aborts.
	InvalidArgumentError struct {
		ID     string
		Errors []error
	}

	// InvalidLocalsPolicyError is returned when a LocalsPolicy value is not recognized.
	// It wraps ErrInvalidLocalsPolicy for errors.Is() compatibility.
	InvalidLocalsPolicyError struct {
		Value LocalsPolicy
	}
)

// Error implements the error interface for MissingRequiredError.
func (e *MissingRequiredError) Error() string {
	return fmt.Sprintf("failed to resolve value for required argument - id: %s", e.ID)
}

// Unwrap returns ErrMissingRequired for errors.Is() compatibility.
func (e *MissingRequiredError) Unwrap() error { return ErrMissingRequired }

// Error implements the error interface for InvalidEnumValueError.
func (e *InvalidEnumValueError) Error() string {
	return fmt.Sprintf("argument value not found in enum - id: %s, value: %s", e.ID, argval.Format(e.Value))
}

// Unwrap returns ErrInvalidEnumValue for errors.Is() compatibility.
func (e *InvalidEnumValueError) Unwrap() error { return ErrInvalidEnumValue }

// Error implements the error interface for InvalidArgumentError.
// The message is every collected error, one per line.
func (e *InvalidArgumentError) Error() string {
	if len(e.Errors) == 0 {
		return ErrInvalidArgument.Error()
	}
	return joinMessages(e.Errors)
}

// Unwrap returns ErrInvalidArgument followed by every collected error.
func (e *InvalidArgumentError) Unwrap() []error {
	return append([]error{ErrInvalidArgument}, e.Errors...)
}

// Messages returns the collected error messages in order.
func (e *InvalidArgumentError) Messages() []string {
	return messages(e.Errors)
}

// Error implements the error interface for InvalidLocalsPolicyError.
func (e *InvalidLocalsPolicyError) Error() string {
	return fmt.Sprintf("invalid locals policy %q (valid: after, before)", e.Value)
}

// Unwrap returns ErrInvalidLocalsPolicy for errors.Is() compatibility.
func (e *InvalidLocalsPolicyError) Unwrap() error { return ErrInvalidLocalsPolicy }

func messages(errs []error) []string {
	out := make([]string, len(errs))
	for i, err := range errs {
		out[i] = err.Error()
	}
	return out
}

func joinMessages(errs []error) string {
	return strings.Join(messages(errs), "\n")
}
