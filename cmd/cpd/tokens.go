package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/cpd/internal/service/detect"
	"github.com/panbanda/cpd/pkg/source"
)

func tokensCmd() *cli.Command {
	return &cli.Command{
		Name:      "tokens",
		Usage:     "Show how a file is tokenized",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Include ignored tokens such as comments and whitespace",
			},
			&cli.StringFlag{
				Name:  "lexer",
				Usage: "Lexer: auto, treesitter or generic",
			},
			&cli.StringSliceFlag{
				Name:  "ignore-kind",
				Usage: "Token kinds to treat as ignored",
			},
		},
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 1 {
				return fmt.Errorf("tokens takes exactly one file, got %d arguments", c.Args().Len())
			}

			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if c.IsSet("lexer") {
				cfg.Detect.Lexer = c.String("lexer")
			}
			if c.IsSet("ignore-kind") {
				cfg.Detect.IgnoredKinds = c.StringSlice("ignore-kind")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			formatter, err := newFormatter(c, cfg)
			if err != nil {
				return err
			}
			defer formatter.Close()

			svc := detect.New(detect.WithConfig(cfg))
			listing, err := svc.Tokens(c.Context, c.Args().First(), source.NewFilesystem(), !c.Bool("all"))
			if err != nil {
				return err
			}
			return formatter.Output(listing)
		},
	}
}
