package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/sheetify/internal/repositories"
	"github.com/desertthunder/sheetify/internal/services"
	"github.com/desertthunder/sheetify/internal/shared"
	"github.com/desertthunder/sheetify/internal/ui"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	configPath  string
	catalog     services.Catalog
	history     *repositories.RunRepository
	logger      *log.Logger
	output      io.Writer
	errOutput   io.Writer
	palette     *ui.Palette
	quiet       bool
	openBrowser func(string) error
	now         func() time.Time
}

// RunnerOpts contains configuration options for creating a Runner.
//
// A nil Config is resolved from flags, files, and the environment before each command.
// A nil Catalog is replaced by an authenticated Spotify client when an import starts.
type RunnerOpts struct {
	Config      *shared.Config
	Catalog     services.Catalog
	History     *repositories.RunRepository
	Logger      *log.Logger
	Output      io.Writer
	ErrOutput   io.Writer
	OpenBrowser func(string) error
	Now         func() time.Time
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.ErrOutput == nil {
		opts.ErrOutput = os.Stderr
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Runner{
		config:      opts.Config,
		catalog:     opts.Catalog,
		history:     opts.History,
		logger:      opts.Logger,
		output:      opts.Output,
		errOutput:   opts.ErrOutput,
		palette:     ui.NewPalette(opts.Output),
		openBrowser: opts.OpenBrowser,
		now:         opts.Now,
	}
}

// Before applies logging flags and resolves configuration for every command.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	switch {
	case cmd.Bool("verbose"):
		shared.SetLogLevel(r.logger, log.DebugLevel)
	case cmd.Bool("quiet"):
		shared.SetLogLevel(r.logger, log.WarnLevel)
		r.quiet = true
	}

	r.configPath = cmd.String("config")
	if r.config != nil {
		return ctx, nil
	}

	config, err := shared.ResolveConfig(r.configPath, cmd.String("env-file"))
	if err != nil {
		return ctx, err
	}
	r.config = config
	r.logger.Debug("configuration resolved", "config", r.configPath, "history", config.Database.Path != "")
	return ctx, nil
}

// Fail reports a command error on the error output.
func (r *Runner) Fail(err error) {
	r.logger.Debug("command failed", "err", err)
	fmt.Fprintln(r.errOutput, ui.NewPalette(r.errOutput).Failure(err))
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
