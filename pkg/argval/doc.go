// SPDX-License-Identifier: MPL-2.0

// Package argval defines the value model shared by the resolver packages.
//
// Resolved values are plain `any` values with a few conventions:
//
//   - a nil interface is undefined (no source supplied a value)
//   - Null is the explicit null literal
//   - numbers produced by coercion are float64, including NaN
//   - sequences are []any; []string from the command line is accepted as well
//
// Equal implements the deep equality used for enum membership and
// Format renders values for error messages.
package argval
