// SPDX-License-Identifier: MPL-2.0

package main

import "fmt"

const (
	// ExitFailure is any failure without a more specific code.
	ExitFailure = 1
	// ExitInvalidArguments is a resolution run that failed in throw mode,
	// or a command line that could not be tokenized.
	ExitInvalidArguments = 2
)

// ExitError carries a process exit code out of a RunE handler.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}
