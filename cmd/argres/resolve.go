// SPDX-License-Identifier: MPL-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/argres/argres/internal/config"
	"github.com/argres/argres/internal/issue"
	"github.com/argres/argres/pkg/argspec"
	"github.com/argres/argres/pkg/argv"
	"github.com/argres/argres/pkg/argval"
	"github.com/argres/argres/pkg/coerce"
	"github.com/argres/argres/pkg/resolve"
	"github.com/argres/argres/pkg/specfile"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slices"
)

type resolveFlags struct {
	file   string
	sets   []string
	line   string
	output string
	noEnv  bool
	throw  bool
}

func newResolveCommand(app *App) *cobra.Command {
	var f resolveFlags
	cmd := &cobra.Command{
		Use:   "resolve -f FILE [flags] [-- ARGS...]",
		Short: "Resolve the declared arguments and print the values",
		Long: `Resolve every argument declared in FILE and print the resolved values.

Tokens after "--" form the command line the arguments are read from. A second
"--" among them starts the rest tokens. Use --line to pass the command line as
one shell-quoted string instead.

A flag with nothing to take as its value (last, or followed by another flag or
"--") resolves to true. Otherwise the next token is its value.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, app, f, args)
		},
	}

	cmd.Flags().StringVarP(&f.file, "file", "f", "", "declaration file (.cue, .yaml, .yml, .toml or .json)")
	cmd.Flags().StringArrayVar(&f.sets, "set", nil, "local override as id=value (repeatable)")
	cmd.Flags().StringVar(&f.line, "line", "", "command line to resolve from, split with shell rules")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output format: json or table (default from config)")
	cmd.Flags().BoolVar(&f.noEnv, "no-env", false, "ignore the process environment")
	cmd.Flags().BoolVar(&f.throw, "throw", false, "fail when any argument is invalid")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runResolve(cmd *cobra.Command, app *App, f resolveFlags, args []string) error {
	cfg, err := app.LoadConfig(cmd.Context())
	if err != nil {
		return err
	}
	format := cfg.Output.Format
	if f.output != "" {
		format = config.OutputFormat(f.output)
	}
	if valid, errs := format.IsValid(); !valid {
		return errors.Join(errs...)
	}

	doc, err := loadDocument(f.file)
	if err != nil {
		return err
	}

	env := app.Env
	if f.noEnv {
		env = resolve.EnvMap{}
	}
	tokens, err := commandLineTokens(f.line, args, env)
	if err != nil {
		return &ExitError{Code: ExitInvalidArguments, Err: err}
	}

	specs := make([]argspec.Spec, len(doc.Args))
	for i := range doc.Args {
		specs[i] = doc.Args[i].WithDefaults(doc.Options.Defaults)
	}
	parsed, err := argv.Parse(tokens, argv.FlagsFor(specs))
	if err != nil {
		return &ExitError{Code: ExitInvalidArguments, Err: issue.NewErrorContext().
			WithOperation("parse command line").
			WithSuggestion("Flags must match an argument id, alias or one of its spellings").
			WithSuggestion("Run 'argres keys -f " + f.file + "' to list the accepted flags").
			Wrap(err).
			BuildError()}
	}

	locals, err := mergeLocals(doc.Locals, f.sets)
	if err != nil {
		return &ExitError{Code: ExitInvalidArguments, Err: err}
	}

	opts := cfg.ResolverOptions()
	opts = append(opts, doc.ResolverOptions()...)
	opts = append(opts,
		resolve.WithEnv(env),
		resolve.WithCommandLine(parsed),
		resolve.WithSink(&resolve.LogSink{Logger: app.Logger()}),
	)
	if f.throw {
		opts = append(opts, resolve.WithThrow(true))
	}

	r, err := resolve.New(doc.Args, opts...)
	if err != nil {
		return issue.NewErrorContext().
			WithOperation("build resolver").
			WithResource(doc.Path).
			WithSuggestion("Check that argument ids are unique and do not collide with the output keys").
			Wrap(err).
			BuildError()
	}
	res, err := r.Resolve(locals)
	if err != nil {
		ec := issue.NewErrorContext().
			WithOperation("resolve arguments").
			WithResource(doc.Path).
			Wrap(err)
		if errors.Is(err, resolve.ErrInvalidArgument) {
			ec = ec.WithSuggestion("Fix the values listed above or change the argument defaults")
			return &ExitError{Code: ExitInvalidArguments, Err: ec.BuildError()}
		}
		return ec.BuildError()
	}

	logger := app.Logger()
	for _, a := range res.Args {
		logger.Debug("resolved", "id", a.ID(), "source", a.Source(), "errors", len(a.Errors()))
	}

	if format == config.OutputTable {
		return writeTable(app.stdout, res)
	}
	return writeJSON(app.stdout, res.Values)
}

func loadDocument(path string) (*specfile.Document, error) {
	doc, err := specfile.Load(path)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load declaration file").
			WithResource(path).
			WithSuggestion("Run 'argres validate -f " + path + "' for the full list of problems").
			Wrap(err).
			BuildError()
	}
	return doc, nil
}

// commandLineTokens returns the --line tokens followed by the positional
// arguments. Variables in line expand from env.
func commandLineTokens(line string, args []string, env resolve.Env) ([]string, error) {
	var tokens []string
	if line != "" {
		fields, err := argv.Split(line, func(name string) string {
			v, _ := env.Lookup(name)
			return v
		})
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, fields...)
	}
	return append(tokens, args...), nil
}

// mergeLocals layers the id=value pairs of --set over the document locals.
// Values are coerced to native scalars.
func mergeLocals(base map[string]any, sets []string) (map[string]any, error) {
	locals := make(map[string]any, len(base)+len(sets))
	for k, v := range base {
		locals[k] = v
	}
	for _, kv := range sets {
		id, value, ok := strings.Cut(kv, "=")
		if !ok || id == "" {
			return nil, fmt.Errorf("invalid --set %q: want id=value", kv)
		}
		locals[id] = coerce.ToNative(value)
	}
	return locals, nil
}

func writeJSON(w io.Writer, values map[string]any) error {
	data, err := argval.ToJSON(values)
	if err != nil {
		return fmt.Errorf("encode values: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func writeTable(w io.Writer, res *resolve.Result) error {
	keys := make([]string, 0, len(res.Values))
	for k := range res.Values {
		if res.Arg(k) == nil {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	var rows [][]string
	for _, a := range res.Args {
		var msgs []string
		for _, e := range a.Errors() {
			msgs = append(msgs, e.Error())
		}
		source := string(a.Source())
		if source == "" {
			source = "-"
		}
		rows = append(rows, []string{a.ID(), argval.Format(res.Values[a.ID()]), source, strings.Join(msgs, "; ")})
	}
	for _, k := range keys {
		rows = append(rows, []string{k, argval.Format(res.Values[k]), "-", ""})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorMuted)).
		Headers("ID", "VALUE", "SOURCE", "ERRORS").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return tableHeaderStyle
			case col == 3:
				return tableErrorStyle
			default:
				return tableCellStyle
			}
		})
	_, err := fmt.Fprintln(w, t.Render())
	return err
}
