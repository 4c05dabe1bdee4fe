package main

import (
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/lsr/internal/config"
	"github.com/standardbeagle/lsr/internal/display"
	"github.com/standardbeagle/lsr/internal/search"
	"github.com/standardbeagle/lsr/internal/workspace"
)

// Exit codes follow grep: 1 when nothing matched, 2 for errors.
const (
	exitNoMatch = 1
	exitError   = 2
)

func patternFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "type",
			Aliases: []string{"t"},
			Usage:   "Pattern type: literal, basic (* and ? wildcards) or regexp",
		},
		&cli.BoolFlag{
			Name:    "match-case",
			Aliases: []string{"c"},
			Usage:   "Case sensitive matching",
		},
		&cli.BoolFlag{
			Name:    "whole-words",
			Aliases: []string{"w"},
			Usage:   "Only match whole words",
		},
		&cli.StringFlag{
			Name:  "encoding",
			Usage: "Text encoding of the searched files (e.g. utf-8, latin1, shift_jis)",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Write JSON lines instead of text",
		},
		&cli.StringFlag{
			Name:  "color",
			Usage: "Color output: auto, always or never",
		},
	}
}

// applyPatternFlags copies the pattern and output flags that were set onto
// cfg.
func applyPatternFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("type") {
		cfg.Search.MatchType = c.String("type")
	}
	if c.IsSet("match-case") {
		cfg.Search.MatchCase = c.Bool("match-case")
	}
	if c.IsSet("whole-words") {
		cfg.Search.WholeWords = c.Bool("whole-words")
	}
	if c.IsSet("encoding") {
		cfg.Search.Encoding = c.String("encoding")
	}
	if c.Bool("json") {
		cfg.Output.Format = "json"
	}
	if c.IsSet("color") {
		cfg.Output.Color = c.String("color")
	}
}

// openWorkspace loads, overrides and validates the configuration and opens
// the project. extra applies command specific flags before validation.
func openWorkspace(c *cli.Context, extra func(*config.Config)) (*workspace.Workspace, error) {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return nil, cli.Exit(err.Error(), exitError)
	}
	applyPatternFlags(c, cfg)
	if extra != nil {
		extra(cfg)
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, cli.Exit(err.Error(), exitError)
	}
	setupLogging(c, cfg)

	ws, err := workspace.New(cfg)
	if err != nil {
		return nil, cli.Exit(err.Error(), exitError)
	}
	return ws, nil
}

func newFormatter(c *cli.Context, ws *workspace.Workspace) *display.ResultFormatter {
	cfg := ws.Config()
	color := false
	if f, ok := c.App.Writer.(*os.File); ok || cfg.Output.Color != "auto" {
		color = display.ColorEnabled(cfg.Output.Color, f)
	}
	format := cfg.Output.Format
	if format == "text" && c.Bool("compact") {
		format = "compact"
	}
	return display.NewResultFormatter(display.FormatterOptions{
		Format:       format,
		Root:         ws.Root(),
		ContextChars: cfg.Search.ContextChars,
		MaxLineWidth: display.DefaultMaxLineWidth,
	}, display.NewHighlighter(color))
}

// exitFor maps an error to a process exit status.
func exitFor(err error) error {
	if err == nil {
		return nil
	}
	var exitCoder cli.ExitCoder
	if stderrors.As(err, &exitCoder) {
		return err
	}
	return cli.Exit(err.Error(), exitError)
}

func searchCommandDef() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Aliases:   []string{"s"},
		Usage:     "Search files for a pattern",
		ArgsUsage: "<pattern> [paths...]",
		Flags: append(patternFlags(),
			&cli.BoolFlag{
				Name:  "compact",
				Usage: "One path:line:column:text record per matching line",
			},
			&cli.BoolFlag{
				Name:  "count",
				Usage: "Only print the number of matches per file",
			},
			&cli.BoolFlag{
				Name:    "files-with-matches",
				Aliases: []string{"l"},
				Usage:   "Only print the names of files with matches",
			},
			&cli.IntFlag{
				Name:    "max-count",
				Aliases: []string{"m"},
				Usage:   "Stop after this many matches in total (0 = no limit)",
			},
			&cli.IntFlag{
				Name:  "context-chars",
				Usage: "Characters kept from the start of a long line in front of the match",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Keep running and search files again when they change",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Do not print the summary line",
			},
		),
		Action: searchCommand,
	}
}

func searchCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("search requires a pattern", exitError)
	}
	ws, err := openWorkspace(c, func(cfg *config.Config) {
		if c.IsSet("max-count") {
			cfg.Search.MaxMatches = c.Int("max-count")
		}
		if c.IsSet("context-chars") {
			cfg.Search.ContextChars = c.Int("context-chars")
		}
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	q := ws.NewQuery(c.Args().First())
	stream, err := ws.Stream(ctx, q, c.Args().Tail()...)
	if err != nil {
		return exitFor(err)
	}

	formatter := newFormatter(c, ws)
	out := c.App.Writer
	var counted []search.FileResult
	var writeErr error
	for fr := range stream.Results() {
		if writeErr != nil {
			continue
		}
		switch {
		case c.Bool("count"):
			counted = append(counted, fr)
		case c.Bool("files-with-matches"):
			writeErr = formatter.WriteFileName(out, fr)
		default:
			writeErr = formatter.WriteFile(out, fr)
		}
	}
	summary := stream.Wait()
	if writeErr != nil {
		return exitFor(writeErr)
	}

	if c.Bool("count") {
		sort.Slice(counted, func(i, j int) bool { return counted[i].Path < counted[j].Path })
		if err := formatter.WriteCounts(out, counted, summary); err != nil {
			return exitFor(err)
		}
	} else if !c.Bool("quiet") && !c.Bool("files-with-matches") {
		if err := formatter.WriteSummary(c.App.ErrWriter, summary); err != nil {
			return exitFor(err)
		}
	}
	for _, e := range summary.Errors {
		fmt.Fprintln(c.App.ErrWriter, e)
	}

	if c.Bool("watch") {
		return watchLoop(c, ws, q, formatter)
	}
	if summary.Canceled {
		return cli.Exit("search canceled", exitError)
	}
	if summary.Matches == 0 {
		return cli.Exit("", exitNoMatch)
	}
	return nil
}

// watchLoop prints the matches of changed files until interrupted.
func watchLoop(c *cli.Context, ws *workspace.Workspace, q workspace.Query, formatter *display.ResultFormatter) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher, err := ws.Watch(ctx, q, func(results []search.FileResult, summary search.Summary) {
		for _, fr := range results {
			if err := formatter.WriteFile(c.App.Writer, fr); err != nil {
				fmt.Fprintf(c.App.ErrWriter, "%s: %v\n", fr.Path, err)
			}
		}
	})
	if err != nil {
		return exitFor(err)
	}
	fmt.Fprintf(c.App.ErrWriter, "watching %s for changes (Ctrl-C to stop)\n", ws.Root())
	<-ctx.Done()
	return exitFor(watcher.Stop())
}
