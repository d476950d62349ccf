package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/pelletier/go-toml"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/cpd/pkg/config"
)

func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Inspect and create configuration files",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the effective configuration as TOML",
				Action: func(c *cli.Context) error {
					var opts []config.LoadOption
					if path := c.String("config"); path != "" {
						opts = append(opts, config.WithPath(path))
					}
					res, err := config.LoadConfig(opts...)
					if err != nil {
						return err
					}

					out, err := toml.Marshal(res.Config)
					if err != nil {
						return fmt.Errorf("failed to encode config: %w", err)
					}
					if res.Source != "" {
						fmt.Fprintf(c.App.Writer, "# Configuration from: %s\n\n", res.Source)
					} else {
						fmt.Fprintf(c.App.Writer, "# Default configuration\n\n")
					}
					_, err = c.App.Writer.Write(out)
					return err
				},
			},
			{
				Name:  "validate",
				Usage: "Check a configuration file against the schema",
				Action: func(c *cli.Context) error {
					var opts []config.LoadOption
					if path := c.String("config"); path != "" {
						opts = append(opts, config.WithPath(path))
					}
					res, err := config.LoadConfig(opts...)
					if err != nil {
						return fmt.Errorf("invalid configuration: %w", err)
					}
					if res.Source == "" {
						color.New(color.FgYellow).Fprintln(c.App.Writer, "No config file found. Default configuration is valid.")
						return nil
					}
					color.New(color.FgGreen).Fprintf(c.App.Writer, "Configuration valid: %s\n", res.Source)
					return nil
				},
			},
			{
				Name:      "init",
				Usage:     "Write the default configuration to a file",
				ArgsUsage: "[file]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
				Action: func(c *cli.Context) error {
					path := "cpd.toml"
					if c.Args().Len() > 0 {
						path = c.Args().First()
					}
					if _, err := os.Stat(path); err == nil && !c.Bool("force") {
						return fmt.Errorf("%s already exists (use --force to overwrite)", path)
					}

					out, err := toml.Marshal(config.DefaultConfig())
					if err != nil {
						return fmt.Errorf("failed to encode config: %w", err)
					}
					if err := os.WriteFile(path, out, 0o644); err != nil {
						return err
					}
					color.New(color.FgGreen).Fprintf(c.App.Writer, "Wrote %s\n", path)
					return nil
				},
			},
			{
				Name:  "schema",
				Usage: "Print the JSON schema for configuration files",
				Action: func(c *cli.Context) error {
					_, err := c.App.Writer.Write(config.Schema())
					return err
				},
			},
		},
	}
}
