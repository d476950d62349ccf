package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/cpd/internal/progress"
	"github.com/panbanda/cpd/internal/service/detect"
	"github.com/panbanda/cpd/pkg/config"
)

func detectFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "min-lines",
			Usage: "Report clones spanning more than this many lines",
		},
		&cli.IntFlag{
			Name:    "min-tokens",
			Aliases: []string{"min-matches"},
			Usage:   "Minimum number of identical tokens in a clone",
		},
		&cli.StringSliceFlag{
			Name:  "ignore-kind",
			Usage: "Token kinds to leave out of comparison (replaces the configured set)",
		},
		&cli.StringFlag{
			Name:  "hash",
			Usage: "Window hash: xxhash or blake3",
		},
		&cli.StringFlag{
			Name:  "lexer",
			Usage: "Lexer: auto, treesitter or generic",
		},
		&cli.StringSliceFlag{
			Name:  "suffix",
			Usage: "Only scan files with these extensions (e.g. --suffix php --suffix tpl)",
		},
		&cli.StringFlag{
			Name:  "ref",
			Usage: "Scan a git revision instead of the working tree",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Files tokenized in parallel (0 for one per CPU)",
		},
	}
}

// applyDetectFlags copies explicitly set flags over the configuration.
func applyDetectFlags(c *cli.Context, cfg *config.Config) error {
	if c.IsSet("min-lines") {
		cfg.Detect.MinLines = c.Int("min-lines")
	}
	if c.IsSet("min-tokens") {
		cfg.Detect.MinMatches = c.Int("min-tokens")
	}
	if c.IsSet("ignore-kind") {
		cfg.Detect.IgnoredKinds = c.StringSlice("ignore-kind")
	}
	if c.IsSet("hash") {
		cfg.Detect.Hash = c.String("hash")
	}
	if c.IsSet("lexer") {
		cfg.Detect.Lexer = c.String("lexer")
	}
	if c.IsSet("workers") {
		cfg.Detect.Workers = c.Int("workers")
	}
	return cfg.Validate()
}

func detectCmd() *cli.Command {
	return &cli.Command{
		Name:      "detect",
		Aliases:   []string{"dup", "cpd"},
		Usage:     "Find copied and pasted code",
		ArgsUsage: "[path...]",
		Flags: append(detectFlags(),
			&cli.BoolFlag{
				Name:  "fail",
				Usage: "Exit with status 2 when clones are found",
			},
		),
		Action: runDetectCmd,
	}
}

func runDetectCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := applyDetectFlags(c, cfg); err != nil {
		return err
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	ctx, stop := signalContext(c)
	defer stop()

	svc := detect.New(detect.WithConfig(cfg))
	req := detect.Request{
		Paths:    getPaths(c),
		Suffixes: c.StringSlice("suffix"),
		Ref:      c.String("ref"),
	}

	bars := showProgress(c, formatter.Format())
	var spinner *progress.Tracker
	if bars {
		spinner = progress.NewSpinner("Scanning files...")
	}
	target, err := svc.Resolve(req)
	spinner.FinishSuccess()
	if err != nil {
		return err
	}

	var tracker *progress.Tracker
	if bars {
		tracker = progress.NewTracker("Tokenizing...", len(target.Files))
	}
	outcome, err := svc.DetectWithOptions(ctx, target, detect.Options{OnProgress: tracker.Tick})
	if err != nil {
		tracker.FinishError(err)
		if errors.Is(err, detect.ErrNoFiles) {
			return fmt.Errorf("%w in %v", err, req.Paths)
		}
		return err
	}
	tracker.FinishSuccess()

	if err := formatter.Output(outcome.Report); err != nil {
		return err
	}

	if c.Bool("fail") && len(outcome.Report.Clones) > 0 {
		return errDuplicatesFound
	}
	return nil
}
