package mcp

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// DiagnosticLogger handles all diagnostic output for the MCP server.
// In MCP mode every line goes to a rotating file: stdio carries the
// protocol and must stay clean.
type DiagnosticLogger struct {
	mu       sync.Mutex
	out      io.WriteCloser
	logger   *log.Logger
	filePath string
}

// NewDiagnosticLogger creates a logger. In MCP mode it writes to
// dir/mcp.log ($TMPDIR/lsr-mcp-logs when dir is empty); otherwise it
// writes to stderr.
func NewDiagnosticLogger(isMCP bool, dir string) *DiagnosticLogger {
	if !isMCP {
		return &DiagnosticLogger{logger: log.New(os.Stderr, "[MCP] ", log.LstdFlags)}
	}

	if dir == "" {
		dir = filepath.Join(os.TempDir(), "lsr-mcp-logs")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		// logging must never stop the server
		return NewDiscardLogger()
	}
	path := filepath.Join(dir, "mcp.log")
	rotating := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     7,
	}
	return &DiagnosticLogger{
		out:      rotating,
		logger:   log.New(rotating, "[MCP] ", log.LstdFlags|log.Lshortfile),
		filePath: path,
	}
}

// NewDiscardLogger returns a logger that drops everything.
func NewDiscardLogger() *DiagnosticLogger {
	return &DiagnosticLogger{logger: log.New(io.Discard, "", 0)}
}

// Printf logs a diagnostic message.
func (dl *DiagnosticLogger) Printf(format string, v ...interface{}) {
	if dl == nil || dl.logger == nil {
		return
	}
	dl.mu.Lock()
	defer dl.mu.Unlock()
	dl.logger.Printf(format, v...)
}

// Errorf logs an error.
func (dl *DiagnosticLogger) Errorf(format string, v ...interface{}) {
	if dl == nil || dl.logger == nil {
		return
	}
	dl.mu.Lock()
	defer dl.mu.Unlock()
	dl.logger.Printf("ERROR: "+format, v...)
}

// Close closes the log file if one is open.
func (dl *DiagnosticLogger) Close() error {
	if dl == nil {
		return nil
	}
	dl.mu.Lock()
	defer dl.mu.Unlock()
	if dl.out != nil {
		return dl.out.Close()
	}
	return nil
}

// LogPath returns the diagnostic log file, empty outside MCP mode.
func (dl *DiagnosticLogger) LogPath() string {
	if dl == nil {
		return ""
	}
	return dl.filePath
}
