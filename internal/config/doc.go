// SPDX-License-Identifier: MPL-2.0

// Package config loads the argres tool configuration with Viper, using CUE as
// the file format.
//
// Values are layered: built-in defaults, then config.cue from the platform
// config directory ($XDG_CONFIG_HOME/argres on Linux) or the file given with
// --config, then ARGRES_* environment variables (ARGRES_RESOLVE_THROW=true).
// The file is validated against an embedded CUE schema (config_schema.cue).
package config
