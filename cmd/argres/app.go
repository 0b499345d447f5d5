// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/argres/argres/internal/config"
	"github.com/argres/argres/internal/issue"
	"github.com/argres/argres/pkg/resolve"

	"github.com/charmbracelet/log"
)

type (
	// App is the composition root of the CLI. Command handlers receive it
	// and reach configuration, the environment and the output streams through it.
	App struct {
		Config config.Provider
		Env    resolve.Env

		stdout io.Writer
		stderr io.Writer

		configPath string
		verbose    bool

		cfg    *config.Config
		logger *log.Logger
	}

	// Dependencies are the injection points of NewApp. Nil fields get
	// production defaults.
	Dependencies struct {
		Config config.Provider
		Env    resolve.Env
		Stdout io.Writer
		Stderr io.Writer
	}
)

// NewApp builds an App from deps.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config: deps.Config,
		Env:    deps.Env,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.Env == nil {
		app.Env = resolve.OSEnv()
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// LoadConfig loads the configuration once per App and sets up the logger.
func (a *App) LoadConfig(ctx context.Context) (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.configPath})
	if err != nil {
		return nil, err
	}
	a.cfg = cfg

	level := cfg.Log.Level.Level()
	if a.verbose {
		level = log.DebugLevel
	}
	a.logger = log.NewWithOptions(a.stderr, log.Options{Prefix: config.AppName, Level: level})
	return cfg, nil
}

// Logger returns the CLI logger. Before LoadConfig it logs warnings and
// above to stderr.
func (a *App) Logger() *log.Logger {
	if a.logger == nil {
		a.logger = log.NewWithOptions(a.stderr, log.Options{Prefix: config.AppName, Level: log.WarnLevel})
	}
	return a.logger
}

// explain prints the suggestions and catalog guidance for err in verbose mode.
// The error line itself is printed by fang.
func (a *App) explain(err error) {
	if !a.verbose || err == nil {
		return
	}
	fmt.Fprintln(a.stderr, formatErrorForDisplay(err, true))

	is := issue.ForError(err)
	if is == nil {
		return
	}
	guide, rerr := is.Render("auto")
	if rerr != nil {
		a.Logger().Debug("render issue guidance", "id", is.ID(), "err", rerr)
		return
	}
	fmt.Fprint(a.stderr, guide)
}

// formatErrorForDisplay uses ActionableError formatting when available.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}
