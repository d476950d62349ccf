package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/cpd/internal/scanner"
	"github.com/panbanda/cpd/internal/service/detect"
	"github.com/panbanda/cpd/pkg/watch"
)

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Re-run detection when files change",
		ArgsUsage: "[path]",
		Flags: append(detectFlags(),
			&cli.DurationFlag{
				Name:  "debounce",
				Value: watch.DefaultDebounce,
				Usage: "Wait this long after the last change before re-running",
			},
		),
		Action: runWatchCmd,
	}
}

func runWatchCmd(c *cli.Context) error {
	if c.IsSet("ref") {
		return errors.New("watch works on the working tree and does not accept --ref")
	}
	if c.Args().Len() > 1 {
		return fmt.Errorf("watch takes one directory, got %d", c.Args().Len())
	}
	root := getPaths(c)[0]

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

	svc := detect.New(detect.WithConfig(cfg))
	req := detect.Request{Paths: []string{root}, Suffixes: c.StringSlice("suffix")}
	sc := scanner.NewScanner(cfg, scanner.WithSuffixes(req.Suffixes...))

	ctx, stop := signalContext(c)
	defer stop()

	run := func(ctx context.Context) {
		start := time.Now()
		outcome, err := svc.Run(ctx, req, detect.Options{})
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				color.New(color.FgRed).Fprintf(c.App.ErrWriter, "Error: %v\n", err)
			}
			return
		}
		if err := formatter.Output(outcome.Report); err != nil {
			color.New(color.FgRed).Fprintf(c.App.ErrWriter, "Error: %v\n", err)
			return
		}
		color.New(color.FgHiBlack).Fprintf(c.App.ErrWriter, "Finished in %s\n\n", time.Since(start).Round(time.Millisecond))
	}

	w, err := watch.NewWatcher(root, cfg, c.Duration("debounce"),
		watch.WithAccept(sc.Accepts),
		watch.WithOutput(c.App.ErrWriter))
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Stop()

	w.SetCallback(func(changed []string) {
		color.New(color.FgYellow).Fprintf(c.App.ErrWriter, "%d file(s) changed, re-running detection\n", len(changed))
		run(ctx)
	})

	run(ctx)

	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
