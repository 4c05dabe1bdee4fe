package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/lsr/internal/config"
)

func replaceCommandDef() *cli.Command {
	return &cli.Command{
		Name:      "replace",
		Usage:     "Replace every match of a pattern in files",
		ArgsUsage: "<pattern> <replacement> [paths...]",
		Description: `In regexp mode the replacement may refer to capture groups as $1, ${name} or \1.
With --preserve-case each replacement follows the casing of the text it replaces:
foo->bar, Foo->Bar, FOO->BAR, fooBar->bazQux.`,
		Flags: append(patternFlags(),
			&cli.BoolFlag{
				Name:    "preserve-case",
				Aliases: []string{"p"},
				Usage:   "Re-case each replacement to follow the matched text",
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"n"},
				Usage:   "Show the diff without writing files",
			},
		),
		Action: replaceCommand,
	}
}

func replaceCommand(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.Exit("replace requires a pattern and a replacement", exitError)
	}
	ws, err := openWorkspace(c, func(cfg *config.Config) {
		if c.IsSet("preserve-case") {
			cfg.Replace.PreserveCase = c.Bool("preserve-case")
		}
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := c.Args().Slice()
	q := ws.NewQuery(args[0])
	opts := ws.NewReplaceOptions(args[1])
	opts.DryRun = c.Bool("dry-run")

	changes, summary, replaceErr := ws.Replace(ctx, q, opts, args[2:]...)
	if replaceErr != nil && len(changes) == 0 {
		return exitFor(replaceErr)
	}
	if err := newFormatter(c, ws).WriteChanges(c.App.Writer, changes, opts.DryRun); err != nil {
		return exitFor(err)
	}
	for _, e := range summary.Errors {
		fmt.Fprintln(c.App.ErrWriter, e)
	}
	if replaceErr != nil {
		return exitFor(replaceErr)
	}
	if len(changes) == 0 {
		return cli.Exit("", exitNoMatch)
	}
	return nil
}
