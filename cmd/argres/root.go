// SPDX-License-Identifier: MPL-2.0

package main

import (
	"github.com/argres/argres/internal/config"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   config.AppName,
		Short: "Resolve declared arguments from defaults, env, argv and locals",
		Long: TitleStyle.Render("argres") + SubtitleStyle.Render(" - declarative argument resolution") + `

argres reads a declaration file (CUE, YAML, TOML or JSON) listing arguments
with their defaults, environment variables, types and allowed values, and
resolves each one from the command line, the environment and local overrides.

` + SubtitleStyle.Render("Examples:") + `
  argres resolve -f args.cue -- --port 9000 build
  argres resolve -f args.yaml --set mode=prod --output table
  argres keys -f args.toml
  argres validate -f args.json
  argres config show`,
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().StringVar(&app.configPath, "config", "", "config file (default is $HOME/.config/argres/config.cue)")

	root.AddCommand(
		newResolveCommand(app),
		newKeysCommand(app),
		newValidateCommand(app),
		newConfigCommand(app),
	)
	return root
}
