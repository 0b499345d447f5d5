// SPDX-License-Identifier: MPL-2.0

package config

import "context"

type (
	// LoadOptions selects the config file. With both fields empty, Load reads
	// config.cue from ConfigDir when it exists and uses the defaults otherwise.
	LoadOptions struct {
		// ConfigFilePath is the --config flag. The file must exist.
		ConfigFilePath string
		// ConfigDirPath replaces ConfigDir when looking for config.cue.
		ConfigDirPath string
	}

	// Provider produces the effective configuration: defaults, then the
	// config file, then ARGRES_* variables such as ARGRES_RESOLVE_THROW.
	Provider interface {
		Load(ctx context.Context, opts LoadOptions) (*Config, error)
	}

	cueProvider struct{}
)

// NewProvider returns the Provider used by the CLI.
func NewProvider() Provider {
	return cueProvider{}
}

// Load implements Provider. The result is validated; an invalid file or
// variable yields an *issue.ActionableError.
func (cueProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	cfg, _, err := loadWithOptions(ctx, opts)
	return cfg, err
}
