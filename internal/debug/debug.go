// Package debug is lsr's opt-in diagnostic output. Nothing is written
// unless debugging is enabled and an output is configured, and nothing at
// all is written while stdio carries the MCP protocol.
package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// EnableDebug turns debug output on. It is a string so release builds can
// set it with -ldflags "-X github.com/standardbeagle/lsr/internal/debug.EnableDebug=true".
var EnableDebug = "false"

// MCPMode is set by the mcp command; it silences every logger here.
var MCPMode = false

var (
	mu     sync.Mutex
	output io.Writer
	file   *lumberjack.Logger
)

// LogFileOptions controls the rotating debug log.
type LogFileOptions struct {
	Dir        string // defaults to $TMPDIR/lsr-debug-logs
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

func SetMCPMode(enabled bool) {
	MCPMode = enabled
}

// SetDebugOutput sets the debug writer; nil disables output.
func SetDebugOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// InitDebugLogFile sends debug output to lsr-debug.log in opts.Dir,
// rotated by size. It returns the log path. A previously opened log is
// closed first.
func InitDebugLogFile(opts LogFileOptions) (string, error) {
	dir := opts.Dir
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "lsr-debug-logs")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create debug log dir: %w", err)
	}
	maxSize := opts.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 10
	}
	path := filepath.Join(dir, "lsr-debug.log")

	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		_ = file.Close()
	}
	file = &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSize,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}
	output = file
	return path, nil
}

// CloseDebugLog closes the log file opened by InitDebugLogFile, if any.
func CloseDebugLog() error {
	mu.Lock()
	defer mu.Unlock()
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	output = nil
	return err
}

// IsDebugEnabled reports whether debug output is on: EnableDebug or
// DEBUG=1/true in the environment, and never in MCP mode.
func IsDebugEnabled() bool {
	if MCPMode {
		return false
	}
	if EnableDebug == "true" {
		return true
	}
	v := os.Getenv("DEBUG")
	return v == "1" || v == "true"
}

func write(prefix, format string, args []interface{}) {
	if !IsDebugEnabled() {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	if output == nil {
		return
	}
	fmt.Fprintf(output, prefix+format, args...)
}

// Printf writes an untagged debug line.
func Printf(format string, args ...interface{}) {
	write("[DEBUG] ", format, args)
}

// Log writes a debug line tagged with component.
func Log(component, format string, args ...interface{}) {
	write("[DEBUG:"+component+"] ", format, args)
}

func LogSearch(format string, args ...interface{})  { Log("SEARCH", format, args...) }
func LogPattern(format string, args ...interface{}) { Log("PATTERN", format, args...) }
func LogConfig(format string, args ...interface{})  { Log("CONFIG", format, args...) }
func LogMCP(format string, args ...interface{})     { Log("MCP", format, args...) }
