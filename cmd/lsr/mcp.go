package main

import (
	"context"
	stderrors "errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/lsr/internal/debug"
	lsrmcp "github.com/standardbeagle/lsr/internal/mcp"
)

func mcpCommandDef() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve search and replace as MCP tools over stdio",
		Description: `Stdout carries the protocol only. Diagnostics are written to
a rotating log in the configured log dir (default $TMPDIR/lsr-mcp-logs).`,
		Action: mcpCommand,
	}
}

func mcpCommand(c *cli.Context) error {
	// nothing but protocol messages may reach stdout
	debug.SetMCPMode(true)

	ws, err := openWorkspace(c, nil)
	if err != nil {
		return err
	}

	logger := lsrmcp.NewDiagnosticLogger(true, ws.Config().Log.Dir)
	logger.Printf("serving %s", ws.Root())
	server := lsrmcp.NewServer(ws, logger)
	defer server.Shutdown()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil && !stderrors.Is(err, context.Canceled) {
		logger.Errorf("server stopped: %v", err)
		return cli.Exit(err.Error(), exitError)
	}
	return nil
}
