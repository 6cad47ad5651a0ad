package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/dtig-project/dtig/internal/commands"
	"github.com/dtig-project/dtig/internal/expand"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	short := commit
	if len(commit) > 7 {
		short = commit[:7]
	}

	return fmt.Sprintf("%s (%s) %s", version, short, date)
}

func main() {
	ctrl := &commands.Controller{
		Flags: &commands.Flags{},
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx := context.Background()

	if err := newApp(ctrl).Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("failed to run dtig")
	}
}

func newApp(ctrl *commands.Controller) *cli.Command {
	tableFlags := func() []cli.Flag {
		return []cli.Flag{
			&cli.StringFlag{
				Name:    "target",
				Aliases: []string{"t"},
				Usage:   "builtin target type table (cpp, python)",
			},
			&cli.StringFlag{
				Name:  "types",
				Usage: "YAML type table file, overrides --target",
			},
		}
	}

	return &cli.Command{
		Name:    "dtig",
		Usage:   "Expand DTIG directive templates into simulation federate sources",
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (trace, debug, info, warn, error, fatal, panic)",
				Sources: cli.EnvVars("DTIG_LOG_LEVEL"),
				Value:   "info",
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			level, err := zerolog.ParseLevel(c.String("log-level"))
			if err != nil {
				return ctx, errors.Wrap(err, "failed to parse log level")
			}

			log.Logger = log.Level(level)
			ctrl.Flags.LogLevel = level.String()
			ctrl.Logger = log.Logger

			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "Expand every template listed in dtig.json",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "keep-going",
						Aliases: []string{"k"},
						Usage:   "continue with the remaining templates after a failure",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Generate(ctx, commands.GenerateOptions{
						KeepGoing: c.Bool("keep-going"),
					})
				},
			},
			{
				Name:      "expand",
				Usage:     "Expand a single template",
				ArgsUsage: "TEMPLATE",
				Flags: append(tableFlags(),
					&cli.StringFlag{
						Name:     "model",
						Aliases:  []string{"m"},
						Usage:    "model description (.json, .yaml or .toml)",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:  "var",
						Usage: "bind DTIG>KEY to VALUE, as KEY=VALUE",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "output file, stdout when omitted",
					},
					&cli.IntFlag{
						Name:  "max-depth",
						Usage: "maximum macro call depth",
						Value: expand.DefaultMaxDepth,
					},
				),
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Expand(ctx, commands.ExpandOptions{
						Template: c.Args().First(),
						Model:    c.String("model"),
						Target:   c.String("target"),
						Types:    c.String("types"),
						Vars:     c.StringSlice("var"),
						Output:   c.String("output"),
						MaxDepth: int(c.Int("max-depth")),
					})
				},
			},
			{
				Name:  "check",
				Usage: "Parse every template and validate the model without writing files",
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Check(ctx)
				},
			},
			{
				Name:  "watch",
				Usage: "Generate, then regenerate whenever a project file changes",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "debounce",
						Usage: "how long to wait for changes to settle",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Watch(ctx, commands.WatchOptions{
						Debounce: c.Duration("debounce"),
					})
				},
			},
			{
				Name:  "types",
				Usage: "Print a type table or emit its wrapper messages",
				Flags: append(tableFlags(),
					&cli.StringFlag{
						Name:  "proto",
						Usage: "write the wrapper .proto file here (- for stdout)",
					},
					&cli.StringFlag{
						Name:  "descriptor",
						Usage: "write a serialized FileDescriptorSet here (- for stdout)",
					},
					&cli.StringFlag{
						Name:  "go-package",
						Usage: "go_package option of the generated .proto",
					},
				),
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Types(ctx, commands.TypesOptions{
						Target:     c.String("target"),
						Types:      c.String("types"),
						Proto:      c.String("proto"),
						Descriptor: c.String("descriptor"),
						GoPackage:  c.String("go-package"),
					})
				},
			},
		},
	}
}
