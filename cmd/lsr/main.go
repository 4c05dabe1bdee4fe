package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/lsr/internal/config"
	"github.com/standardbeagle/lsr/internal/debug"
	"github.com/standardbeagle/lsr/internal/version"
)

// loadConfigWithOverrides loads configuration for the --root project, then
// an explicit --config file, then applies the global flag overrides. The
// result is not validated yet: commands apply their own flags first.
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	root := c.String("root")
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path %q: %w", root, err)
	}

	cfg, err := config.Load(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to load config for %s: %w", absRoot, err)
	}
	if configPath := c.String("config"); configPath != "" {
		if err := config.LoadFile(cfg, configPath); err != nil {
			return nil, err
		}
	}

	if includeFlags := c.StringSlice("include"); len(includeFlags) > 0 {
		cfg.Include = includeFlags
	}
	if excludeFlags := c.StringSlice("exclude"); len(excludeFlags) > 0 {
		cfg.Exclude = config.DeduplicatePatterns(append(cfg.Exclude, excludeFlags...))
	}
	if c.IsSet("root") {
		cfg.Project.Root = absRoot
	}
	if c.Bool("debug") {
		cfg.Log.Debug = true
	}
	return cfg, nil
}

// setupLogging routes debug output for a CLI run: to a rotating file when
// the configuration asks for one, otherwise to the error writer.
func setupLogging(c *cli.Context, cfg *config.Config) {
	if !cfg.Log.Debug {
		return
	}
	debug.EnableDebug = "true"
	if !cfg.Log.File {
		debug.SetDebugOutput(c.App.ErrWriter)
		return
	}
	path, err := debug.InitDebugLogFile(debug.LogFileOptions{
		Dir:        cfg.Log.Dir,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		fmt.Fprintf(c.App.ErrWriter, "Warning: %v; logging to stderr\n", err)
		debug.SetDebugOutput(c.App.ErrWriter)
		return
	}
	debug.LogConfig("debug log at %s\n", path)
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:                   "lsr",
		Usage:                  "Search and replace across files with literal, wildcard or regular expression patterns",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Writer:                 stdout,
		ErrWriter:              stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Additional config file (.kdl or .toml) applied after the project config",
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root directory (overrides config)",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Include files matching glob patterns (e.g., --include '*.go' --include 'src/**/*.ts')",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Exclude files matching glob patterns (e.g., --exclude '**/testdata/**')",
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Write debug output (to stderr, or the log file when log { file true } is configured)",
				EnvVars: []string{"LSR_DEBUG"},
			},
		},
		After: func(c *cli.Context) error {
			return debug.CloseDebugLog()
		},
		Commands: []*cli.Command{
			searchCommandDef(),
			replaceCommandDef(),
			compileCommandDef(),
			caseCommandDef(),
			mcpCommandDef(),
		},
	}
}

func main() {
	app := newApp(os.Stdout, os.Stderr)
	if err := app.RunContext(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}
