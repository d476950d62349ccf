package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/cpd/internal/progress"
	"github.com/panbanda/cpd/internal/service/detect"
	"github.com/panbanda/cpd/pkg/report"
)

func reportCmd() *cli.Command {
	return &cli.Command{
		Name:      "report",
		Usage:     "Write a standalone HTML duplication report",
		ArgsUsage: "[path...]",
		Flags: append(detectFlags(),
			&cli.StringFlag{
				Name:  "html",
				Value: "cpd-report.html",
				Usage: "HTML file to write (- for stdout)",
			},
			&cli.StringFlag{
				Name:  "from",
				Usage: "Render a report saved with --format json instead of scanning",
			},
			&cli.StringFlag{
				Name:  "title",
				Usage: "Page title",
			},
		),
		Action: runReportCmd,
	}
}

func runReportCmd(c *cli.Context) error {
	renderer, err := report.NewRenderer()
	if err != nil {
		return fmt.Errorf("failed to load template: %w", err)
	}
	meta := report.Metadata{
		Title:       c.String("title"),
		GeneratedAt: time.Now(),
		Paths:       getPaths(c),
	}

	var rep *report.Report
	if from := c.String("from"); from != "" {
		rep, err = report.Load(from)
		if err != nil {
			return err
		}
		meta.Paths = []string{from}
	} else {
		rep, err = scanForReport(c)
		if err != nil {
			return err
		}
	}

	dest := c.String("html")
	var w io.Writer = c.App.Writer
	if dest != "-" {
		f, err := os.Create(dest)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", dest, err)
		}
		defer f.Close()
		w = f
	}

	if err := renderer.Render(w, rep, meta); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	if dest != "-" {
		color.New(color.FgGreen).Fprintf(c.App.ErrWriter, "Report written to %s\n", dest)
	}
	return nil
}

func scanForReport(c *cli.Context) (*report.Report, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	if err := applyDetectFlags(c, cfg); err != nil {
		return nil, err
	}

	ctx, stop := signalContext(c)
	defer stop()

	var tracker *progress.Tracker
	if progress.Enabled(c.Bool("quiet")) {
		tracker = progress.NewSpinner("Detecting duplicates...")
	}

	svc := detect.New(detect.WithConfig(cfg))
	outcome, err := svc.Run(ctx, detect.Request{
		Paths:    getPaths(c),
		Suffixes: c.StringSlice("suffix"),
		Ref:      c.String("ref"),
	}, detect.Options{OnProgress: tracker.Tick})
	if err != nil {
		tracker.FinishError(err)
		return nil, err
	}
	tracker.FinishSuccess()
	return outcome.Report, nil
}
