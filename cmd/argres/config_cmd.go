// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"

	"github.com/argres/argres/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `argres config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect argres configuration",
		Long: `Inspect argres configuration.

Configuration is stored in:
  - Linux: ~/.config/argres/config.cue
  - macOS: ~/Library/Application Support/argres/config.cue
  - Windows: %APPDATA%\argres\config.cue

ARGRES_* environment variables override the file, for example
ARGRES_RESOLVE_THROW=true or ARGRES_OUTPUT_FORMAT=table.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(cmd.Context())
			if err != nil {
				return err
			}
			r := cfg.Resolve
			out := app.stdout
			fmt.Fprintln(out, TitleStyle.Render("Resolve"))
			fmt.Fprintf(out, "  %s %v\n", KeyStyle.Render("warn:"), r.Warn)
			fmt.Fprintf(out, "  %s %v\n", KeyStyle.Render("throw:"), r.Throw)
			fmt.Fprintf(out, "  %s %v (%q)\n", KeyStyle.Render("include_errors:"), r.IncludeErrors, r.ErrorsKey)
			fmt.Fprintf(out, "  %s %v (%q)\n", KeyStyle.Render("positional:"), r.Positional, r.PositionalKey)
			fmt.Fprintf(out, "  %s %v (%q)\n", KeyStyle.Render("rest:"), r.Rest, r.RestKey)
			fmt.Fprintf(out, "  %s %s\n", KeyStyle.Render("locals_policy:"), r.LocalsPolicy)
			fmt.Fprintln(out, TitleStyle.Render("Output"))
			fmt.Fprintf(out, "  %s %s\n", KeyStyle.Render("format:"), cfg.Output.Format)
			fmt.Fprintln(out, TitleStyle.Render("Log"))
			fmt.Fprintf(out, "  %s %s\n", KeyStyle.Render("level:"), cfg.Log.Level)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, exists, err := config.FilePath(config.LoadOptions{ConfigFilePath: app.configPath})
			if err != nil {
				return err
			}
			if exists {
				fmt.Fprintln(app.stdout, path)
				return nil
			}
			fmt.Fprintln(app.stdout, path+WarningStyle.Render(" (not found, using defaults)"))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}
