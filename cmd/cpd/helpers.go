package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/cpd/internal/output"
	"github.com/panbanda/cpd/internal/progress"
	"github.com/panbanda/cpd/pkg/config"
)

// loadConfig loads --config, or searches the standard locations, and
// applies the global flags that override it.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var opts []config.LoadOption
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithPath(path))
	}
	res, err := config.LoadConfig(opts...)
	if err != nil {
		return nil, err
	}
	cfg := res.Config
	if c.Bool("no-cache") {
		cfg.Cache.Enabled = false
	}
	if c.Bool("verbose") {
		cfg.Output.Verbose = true
	}
	return cfg, nil
}

// outputFormat prefers --format over output.format from the config.
func outputFormat(c *cli.Context, cfg *config.Config) (output.Format, error) {
	name := cfg.Output.Format
	if c.IsSet("format") {
		name = c.String("format")
	}
	return output.ParseFormat(name)
}

// newFormatter writes to --output when given and to the app writer
// otherwise.
func newFormatter(c *cli.Context, cfg *config.Config) (*output.Formatter, error) {
	format, err := outputFormat(c, cfg)
	if err != nil {
		return nil, err
	}
	if path := c.String("output"); path != "" {
		return output.NewFormatter(format, path, false)
	}
	return output.NewWriterFormatter(format, c.App.Writer, cfg.Output.Color && isTerminal(c)), nil
}

// isTerminal reports whether results go to an interactive stdout.
func isTerminal(c *cli.Context) bool {
	f, ok := c.App.Writer.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// showProgress reports whether progress bars may be drawn for this
// command. Structured output is often piped, so only text gets bars.
func showProgress(c *cli.Context, format output.Format) bool {
	return format == output.FormatText && c.String("output") == "" && progress.Enabled(c.Bool("quiet"))
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(c *cli.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
}
