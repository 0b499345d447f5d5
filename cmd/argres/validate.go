// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"

	"github.com/argres/argres/internal/issue"
	"github.com/argres/argres/pkg/resolve"

	"github.com/spf13/cobra"
)

func newValidateCommand(app *App) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "validate -f FILE",
		Short: "Check a declaration file without resolving",
		Long: `Check a declaration file against the schema, build every argument's
converter and validate the ids, without reading the environment or a command line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(cmd.Context())
			if err != nil {
				return err
			}
			doc, err := loadDocument(file)
			if err != nil {
				return err
			}

			opts := append(cfg.ResolverOptions(), doc.ResolverOptions()...)
			opts = append(opts, resolve.WithEnv(resolve.EnvMap{}), resolve.WithSink(resolve.DiscardSink))
			r, err := resolve.New(doc.Args, opts...)
			if err != nil {
				return issue.NewErrorContext().
					WithOperation("validate declaration file").
					WithResource(file).
					WithSuggestion("Argument ids must be unique and distinct from the output keys").
					Wrap(err).
					BuildError()
			}

			fmt.Fprintln(app.stdout, SuccessStyle.Render("✓")+" "+file+
				SubtitleStyle.Render(fmt.Sprintf(" (%d arguments)", len(r.Specs()))))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "declaration file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
