// SPDX-License-Identifier: MPL-2.0

// Package argkey derives the lookup keys an argument can be matched by.
package argkey
