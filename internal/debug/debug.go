// Package debug is the diagnostic log. Output is off unless enabled by build
// flag or environment, and is always off while stdout carries MCP traffic.
//
// SGATE_DEBUG selects components: "1", "true" or "all" enables every
// component, a comma list such as "batch,watch" enables only those. DEBUG=1
// is accepted as a synonym for all.
package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// EnableDebug turns every component on for a build:
// go build -ldflags "-X github.com/standardbeagle/snippetgate/internal/debug.EnableDebug=true"
var EnableDebug = "false"

// Component tags a log line with the subsystem that wrote it
type Component string

const (
	Analyze Component = "analyze"
	Batch   Component = "batch"
	Watch   Component = "watch"
	MCP     Component = "mcp"
	Config  Component = "config"
)

var (
	mcpMode atomic.Bool

	// mu guards out and file and serializes writes so lines never interleave
	mu   sync.Mutex
	out  io.Writer
	file *os.File
)

// SetMCPMode silences all output. Set it before the MCP transport starts.
func SetMCPMode(enabled bool) {
	mcpMode.Store(enabled)
}

// InMCPMode reports whether output is silenced for MCP
func InMCPMode() bool {
	return mcpMode.Load()
}

// SetDebugOutput replaces the log writer. nil discards output.
func SetDebugOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// InitDebugLogFile opens a fresh log file under the temp directory and makes
// it the log writer. CloseDebugLog releases it.
func InitDebugLogFile() (string, error) {
	mu.Lock()
	defer mu.Unlock()

	dir := filepath.Join(os.TempDir(), "sgate-debug-logs")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create debug log directory: %w", err)
	}
	name := fmt.Sprintf("sgate-%s-%d.log", time.Now().Format("20060102-150405"), os.Getpid())
	path := filepath.Join(dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create debug log file: %w", err)
	}
	if file != nil {
		_ = file.Close()
	}
	file = f
	out = f
	return path, nil
}

// CloseDebugLog closes the log file, if any
func CloseDebugLog() error {
	mu.Lock()
	defer mu.Unlock()

	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	out = nil
	return err
}

// Enabled reports whether lines for c are written
func Enabled(c Component) bool {
	if mcpMode.Load() {
		return false
	}
	if EnableDebug == "true" {
		return true
	}
	if v := os.Getenv("DEBUG"); v == "1" || v == "true" {
		return true
	}
	switch v := strings.TrimSpace(os.Getenv("SGATE_DEBUG")); v {
	case "":
		return false
	case "1", "true", "all":
		return true
	default:
		for _, name := range strings.Split(v, ",") {
			if Component(strings.ToLower(strings.TrimSpace(name))) == c {
				return true
			}
		}
		return false
	}
}

// IsDebugEnabled reports whether any component is enabled
func IsDebugEnabled() bool {
	for _, c := range []Component{Analyze, Batch, Watch, MCP, Config} {
		if Enabled(c) {
			return true
		}
	}
	return false
}

// Logf writes one line tagged with c. A trailing newline in format is
// optional.
func Logf(c Component, format string, args ...interface{}) {
	if !Enabled(c) {
		return
	}
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")

	mu.Lock()
	defer mu.Unlock()
	if out == nil {
		return
	}
	fmt.Fprintf(out, "%s %-7s %s\n", time.Now().Format("15:04:05.000"), strings.ToUpper(string(c)), msg)
}

func LogAnalysis(format string, args ...interface{}) { Logf(Analyze, format, args...) }

func LogBatch(format string, args ...interface{}) { Logf(Batch, format, args...) }

func LogWatch(format string, args ...interface{}) { Logf(Watch, format, args...) }

func LogMCP(format string, args ...interface{}) { Logf(MCP, format, args...) }

func LogConfig(format string, args ...interface{}) { Logf(Config, format, args...) }

// Fatal records msg in the log (unless in MCP mode) and returns it as an
// error for the command to report. It never exits.
func Fatal(format string, args ...interface{}) error {
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	if !mcpMode.Load() {
		mu.Lock()
		if out != nil {
			fmt.Fprintf(out, "%s FATAL   %s\n", time.Now().Format("15:04:05.000"), msg)
		}
		mu.Unlock()
	}
	return fmt.Errorf("fatal error: %s", msg)
}
