package debug

import (
	"bytes"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate resets package state for one test and restores it afterwards
func isolate(t *testing.T) *bytes.Buffer {
	t.Helper()
	t.Setenv("DEBUG", "")
	t.Setenv("SGATE_DEBUG", "")

	prevFlag := EnableDebug
	prevMode := InMCPMode()
	mu.Lock()
	prevOut, prevFile := out, file
	mu.Unlock()
	t.Cleanup(func() {
		EnableDebug = prevFlag
		SetMCPMode(prevMode)
		mu.Lock()
		out, file = prevOut, prevFile
		mu.Unlock()
	})

	EnableDebug = "false"
	SetMCPMode(false)
	var buf bytes.Buffer
	SetDebugOutput(&buf)
	return &buf
}

func TestEnabled(t *testing.T) {
	tests := []struct {
		name       string
		flag       string
		env        string
		sgate      string
		wantBatch  bool
		wantConfig bool
	}{
		{name: "off"},
		{name: "build flag", flag: "true", wantBatch: true, wantConfig: true},
		{name: "DEBUG", env: "1", wantBatch: true, wantConfig: true},
		{name: "all", sgate: "all", wantBatch: true, wantConfig: true},
		{name: "one component", sgate: "batch", wantBatch: true},
		{name: "list with spaces", sgate: " Watch , batch ", wantBatch: true},
		{name: "unknown component", sgate: "parser"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			if tt.flag != "" {
				EnableDebug = tt.flag
			}
			t.Setenv("DEBUG", tt.env)
			t.Setenv("SGATE_DEBUG", tt.sgate)

			assert.Equal(t, tt.wantBatch, Enabled(Batch))
			assert.Equal(t, tt.wantConfig, Enabled(Config))
			assert.Equal(t, tt.wantBatch, IsDebugEnabled())
		})
	}
}

func TestMCPModeSilencesEverything(t *testing.T) {
	buf := isolate(t)
	EnableDebug = "true"

	SetMCPMode(true)
	assert.True(t, InMCPMode())
	assert.False(t, Enabled(Analyze))
	LogAnalysis("hidden")
	LogMCP("hidden")
	_ = Fatal("hidden")
	assert.Empty(t, buf.String())
}

func TestLogHelpersTagComponents(t *testing.T) {
	tests := []struct {
		fn  func(string, ...interface{})
		tag string
	}{
		{LogAnalysis, "ANALYZE"},
		{LogBatch, "BATCH"},
		{LogWatch, "WATCH"},
		{LogMCP, "MCP"},
		{LogConfig, "CONFIG"},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			buf := isolate(t)
			EnableDebug = "true"

			tt.fn("checked %d snippets\n", 3)
			line := buf.String()
			assert.Contains(t, line, " "+tt.tag+" ")
			assert.True(t, strings.HasSuffix(line, "checked 3 snippets\n"), "got %q", line)
		})
	}
}

func TestLogfWritesOneLinePerCall(t *testing.T) {
	buf := isolate(t)
	t.Setenv("SGATE_DEBUG", "batch")

	LogBatch("no newline")
	LogBatch("one newline\n")
	LogBatch("two newlines\n\n")
	LogWatch("filtered out")
	assert.Equal(t, 3, strings.Count(buf.String(), "\n"))
	assert.NotContains(t, buf.String(), "filtered out")
}

func TestNoWriterIsSafe(t *testing.T) {
	isolate(t)
	EnableDebug = "true"
	SetDebugOutput(nil)

	LogBatch("dropped %s", "line")
	err := Fatal("catalog %s unreadable\n", "corelib.cs")
	assert.EqualError(t, err, "fatal error: catalog corelib.cs unreadable")
}

func TestFatalIsLoggedWhenDebugIsOff(t *testing.T) {
	buf := isolate(t)

	err := Fatal("config %s invalid", ".sgate.kdl")
	require.Error(t, err)
	assert.Contains(t, buf.String(), "FATAL   config .sgate.kdl invalid\n")
}

func TestConcurrentLogging(t *testing.T) {
	buf := isolate(t)
	EnableDebug = "true"

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			LogAnalysis("analysis %d", id)
			LogBatch("batch %d", id)
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	assert.Len(t, lines, 20)
}

func TestInitDebugLogFile(t *testing.T) {
	isolate(t)
	EnableDebug = "true"

	path, err := InitDebugLogFile()
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(path) })
	assert.Contains(t, path, "sgate-debug-logs")

	LogConfig("loaded %s", "a.kdl")
	require.NoError(t, CloseDebugLog())
	// closing twice is a no-op
	require.NoError(t, CloseDebugLog())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "CONFIG  loaded a.kdl")
}
