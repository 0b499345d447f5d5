// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates documents against an embedded CUE schema and
// decodes the result into Go values.
//
// Two entry points share one pipeline:
//
//   - Decode compiles CUE (or JSON, which is valid CUE) source text.
//   - DecodeValue encodes an already-decoded Go value, such as the output of a
//     YAML or TOML decoder, so those formats get the same validation.
//
// Either way the input is unified with a schema definition, validated, and
// decoded into T. Errors carry the file name and a JSON-style field path:
//
//	argres.yaml: args[0].required: conflicting values true and "yes"
package cueutil
