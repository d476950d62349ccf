package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/cpd/internal/cache"
	"github.com/panbanda/cpd/internal/output"
)

func cacheCmd() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the token signature cache",
		Subcommands: []*cli.Command{
			{
				Name:  "stats",
				Usage: "Show cache size and age",
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					ch, err := cache.New(cfg.Cache.Dir, cfg.Cache.TTL, true)
					if err != nil {
						return fmt.Errorf("failed to open cache: %w", err)
					}
					stats, err := ch.GetStats()
					if err != nil {
						return err
					}

					formatter, err := newFormatter(c, cfg)
					if err != nil {
						return err
					}
					defer formatter.Close()

					rows := [][]string{
						{"Directory", ch.Dir()},
						{"Entries", strconv.Itoa(stats.Entries)},
						{"Size", fmt.Sprintf("%.1f KiB", float64(stats.TotalSize)/1024)},
						{"Oldest", stats.OldestAge.Round(time.Second).String()},
						{"Newest", stats.NewestAge.Round(time.Second).String()},
					}
					return formatter.Output(output.NewTable("Cache", []string{"Property", "Value"}, rows, nil, stats))
				},
			},
			{
				Name:  "prune",
				Usage: "Remove expired and unreadable entries",
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					ch, err := cache.New(cfg.Cache.Dir, cfg.Cache.TTL, true)
					if err != nil {
						return fmt.Errorf("failed to open cache: %w", err)
					}
					removed, err := ch.Prune()
					if err != nil {
						return fmt.Errorf("failed to prune cache: %w", err)
					}
					color.New(color.FgGreen).Fprintf(c.App.Writer, "Removed %d stale entries from %s\n", removed, ch.Dir())
					return nil
				},
			},
			{
				Name:  "clear",
				Usage: "Remove every cached signature",
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					ch, err := cache.New(cfg.Cache.Dir, cfg.Cache.TTL, true)
					if err != nil {
						return fmt.Errorf("failed to open cache: %w", err)
					}
					if err := ch.Clear(); err != nil {
						return fmt.Errorf("failed to clear cache: %w", err)
					}
					color.New(color.FgGreen).Fprintf(c.App.Writer, "Cleared %s\n", ch.Dir())
					return nil
				},
			},
		},
	}
}
