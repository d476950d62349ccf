package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/cpd/internal/mcpserver"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve cpd tools over the Model Context Protocol (stdio)",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			ctx, stop := signalContext(c)
			defer stop()

			err = mcpserver.NewServer(version, cfg).Run(ctx)
			if errors.Is(err, ctx.Err()) {
				return nil
			}
			return err
		},
		Subcommands: []*cli.Command{
			{
				Name:  "manifest",
				Usage: "Print the MCP registry manifest (server.json)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the manifest to a file",
					},
				},
				Action: func(c *cli.Context) error {
					data, err := mcpserver.GenerateManifest(version)
					if err != nil {
						return err
					}
					data = append(data, '\n')
					if path := c.String("output"); path != "" {
						if err := os.WriteFile(path, data, 0o644); err != nil {
							return fmt.Errorf("failed to write manifest: %w", err)
						}
						return nil
					}
					_, err = c.App.Writer.Write(data)
					return err
				},
			},
		},
	}
}
