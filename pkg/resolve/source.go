// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"os"
	"strings"
)

const (
	// SourceNone means no source supplied a value.
	SourceNone Source = ""
	// SourceDefault is the spec's default value.
	SourceDefault Source = "default"
	// SourceEnv is the environment variable named by the spec.
	SourceEnv Source = "env"
	// SourceArgv is the parsed command line.
	SourceArgv Source = "argv"
	// SourceLocal is a caller-supplied override.
	SourceLocal Source = "local"
)

type (
	// Source identifies where a resolved value came from.
	Source string

	// Env is a read-only view of environment variables.
	Env interface {
		Lookup(name string) (string, bool)
	}

	// EnvMap is an Env backed by a map.
	EnvMap map[string]string

	// CommandLine is the parsed command-line snapshot produced by the argv parser.
	// *argv.Parsed implements it.
	CommandLine interface {
		// Lookup returns the raw value (string, bool or []string) recorded for a flag name.
		Lookup(key string) (any, bool)
		// Positional returns the leftover positional tokens.
		Positional() []string
		// Rest returns the tokens after "--", and whether the separator was present.
		Rest() ([]string, bool)
	}
)

// Lookup implements Env.
func (m EnvMap) Lookup(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

// OSEnv takes a snapshot of the process environment.
func OSEnv() EnvMap {
	env := make(EnvMap)
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if ok {
			env[name] = value
		}
	}
	return env
}
