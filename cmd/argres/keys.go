// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"strings"

	"github.com/argres/argres/pkg/argspec"
	"github.com/argres/argres/pkg/argv"
	"github.com/argres/argres/pkg/argval"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func newKeysCommand(app *App) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "keys -f FILE",
		Short: "List the lookup keys, flags and variables of each argument",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(file)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(doc.Args))
			for i := range doc.Args {
				s := doc.Args[i].WithDefaults(doc.Options.Defaults)
				rows = append(rows, keyRow(&s))
			}
			t := table.New().
				Border(lipgloss.RoundedBorder()).
				BorderStyle(lipgloss.NewStyle().Foreground(ColorMuted)).
				Headers("ID", "KEYS", "FLAGS", "ENV", "DEFAULT").
				Rows(rows...).
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == table.HeaderRow {
						return tableHeaderStyle
					}
					return tableCellStyle
				})
			_, err = fmt.Fprintln(app.stdout, t.Render())
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "declaration file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func keyRow(s *argspec.Spec) []string {
	var flags []string
	for _, f := range argv.FlagsFor([]argspec.Spec{*s}) {
		switch {
		case f.Short != "" && f.Short == f.Name:
			flags = append(flags, "-"+f.Short)
		case f.Short != "":
			flags = append(flags, "--"+f.Name+", -"+f.Short)
		default:
			flags = append(flags, "--"+f.Name)
		}
	}
	env := s.Env
	if env == "" {
		env = "-"
	}
	return []string{
		s.ID,
		strings.Join(s.Keys(), ", "),
		strings.Join(flags, " "),
		env,
		argval.Format(s.Default),
	}
}
