// SPDX-License-Identifier: MPL-2.0

// Package argv tokenizes command lines into the read-only snapshot the
// resolver consults: flag values by name, positional tokens, and the
// tokens after a "--" separator.
//
// Flags are declared up front (see FlagsFor) and parsed with pflag.
// Repeated flags collect into a []string. Split turns a single string into
// arguments with POSIX shell quoting rules.
package argv
