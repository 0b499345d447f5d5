// SPDX-License-Identifier: MPL-2.0

// Package coerce converts raw argument values into native and custom types.
//
// ToNative maps the literal strings "true", "false", "null", "undefined" and "NaN"
// and finite decimal numbers to their native values. Custom conversion goes through
// a Converter, which carries an explicit kind: a function is called and its result
// used as-is, a factory constructs a new instance from the value.
//
// Converter errors are never swallowed here; callers decide how to report them.
package coerce
