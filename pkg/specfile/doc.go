// SPDX-License-Identifier: MPL-2.0

// Package specfile loads argument declarations from CUE, YAML, TOML or JSON
// files. Every format is validated against the same embedded CUE schema.
//
//	# argres.yaml
//	args:
//	  - id: port
//	    env: PORT
//	    default: 8080
//	  - id: mode
//	    enum: [dev, prod]
//	    required: true
//	options:
//	  throw: true
//
// Converter names in `type` resolve against a coerce.Registry, the builtins
// by default. Decoded numbers are float64 and an explicit null is argval.Null.
package specfile
