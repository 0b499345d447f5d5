// SPDX-License-Identifier: MPL-2.0

// Package issue provides user-facing errors for the argres CLI: ActionableError
// carries the failed operation and fix hints, and a small catalog of known
// issues holds Markdown guidance rendered with glamour.
package issue
