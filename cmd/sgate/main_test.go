package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/standardbeagle/snippetgate/internal/analyzer"
	"github.com/standardbeagle/snippetgate/internal/batch"
	"github.com/standardbeagle/snippetgate/internal/config"
	"github.com/standardbeagle/snippetgate/internal/csharp"
	"github.com/standardbeagle/snippetgate/internal/display"
	"github.com/standardbeagle/snippetgate/internal/policy"
	"github.com/standardbeagle/snippetgate/internal/watch"
)

// run executes the CLI in-process with an isolated home directory
func run(t *testing.T, stdin string, args ...string) (string, int) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	app := newApp(&stdout, &stderr)
	app.Reader = strings.NewReader(stdin)
	err := app.Run(append([]string{"sgate"}, args...))
	if err != nil && err.Error() != "" {
		t.Logf("error: %v", err)
	}
	return stdout.String(), exitCode(err)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestCheckPass(t *testing.T) {
	dir := t.TempDir()
	policyPath := filepath.Join(dir, "policy.toml")
	writeFile(t, policyPath, `allowed_variable_types = ["System.Int32"]`+"\n")

	out, code := run(t, "", "--root", dir, "--policy", policyPath, "check", "--source", "int x = 5;")
	assert.Equal(t, exitPass, code)
	assert.Contains(t, out, "PASS")
}

func TestCheckViolation(t *testing.T) {
	dir := t.TempDir()
	policyPath := filepath.Join(dir, "policy.toml")
	writeFile(t, policyPath, "allowed_method_signatures = []\n")

	out, code := run(t, `Console.WriteLine("hi");`, "-r", dir, "-p", policyPath, "check")
	assert.Equal(t, exitViolation, code)
	assert.Contains(t, out, "FAIL stdin")
	assert.Contains(t, out, "void System.Console.WriteLine(string)")
}

func TestCheckJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.FileName), `
policy {
    variable-types "System.String"
}
`)
	src := filepath.Join(dir, "snippet.cs")
	writeFile(t, src, `string s = "a"; List<int> l = new List<int>();`)

	out, code := run(t, "", "--root", dir, "--json", "check", src)
	assert.Equal(t, exitViolation, code)

	var got struct {
		Source        string `json:"source"`
		VariableTypes struct {
			Violated  bool     `json:"violated"`
			Offending []string `json:"offendingNames"`
		} `json:"variableTypes"`
		Methods struct {
			Violated bool `json:"violated"`
		} `json:"methods"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, src, got.Source)
	assert.True(t, got.VariableTypes.Violated)
	assert.Equal(t, []string{"System.Collections.Generic.List<System.Int32>"}, got.VariableTypes.Offending)
	assert.False(t, got.Methods.Violated)
}

func TestCheckInputErrors(t *testing.T) {
	dir := t.TempDir()

	_, code := run(t, "   \n", "--root", dir, "check")
	assert.Equal(t, exitError, code)

	_, code = run(t, "", "--root", dir, "check", filepath.Join(dir, "missing.cs"))
	assert.Equal(t, exitError, code)

	policyPath := filepath.Join(dir, "policy.toml")
	writeFile(t, policyPath, "allowed_variable_types = []\n")
	_, code = run(t, "", "--root", dir, "-p", policyPath, "check", "--source", "int x = ;")
	assert.Equal(t, exitError, code)
}

func TestCheckWithoutPolicyPasses(t *testing.T) {
	out, code := run(t, "", "--root", t.TempDir(), "check", "--source", "System.IO.File.Delete(\"x\");")
	assert.Equal(t, exitPass, code)
	assert.Contains(t, out, "PASS")
}

func TestBadConfig(t *testing.T) {
	dir := t.TempDir()
	policyPath := filepath.Join(dir, "policy.toml")
	writeFile(t, policyPath, "allowed_colors = [\"red\"]\n")

	_, code := run(t, "", "--root", dir, "-p", policyPath, "check", "--source", "int x = 1;")
	assert.Equal(t, exitError, code)
}

func TestInspect(t *testing.T) {
	out, code := run(t, "", "--root", t.TempDir(), "inspect", "--source", "int x = 5; Console.WriteLine(x);")
	require.Equal(t, exitPass, code)
	assert.Contains(t, out, "System.Int32 [1:1]")
	assert.Contains(t, out, "void System.Console.WriteLine(int)")
}

func TestInspectEmitPolicy(t *testing.T) {
	dir := t.TempDir()
	out, code := run(t, "", "--root", dir, "inspect", "--emit-policy", "--source", "int x = 5; Console.WriteLine(x);")
	require.Equal(t, exitPass, code)

	p, err := config.ParsePolicyTOML([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, []string{"System.Int32"}, p.AllowedVariableTypes.Names())
	assert.Equal(t, []string{"void System.Console.WriteLine(int)"}, p.AllowedMethodSignatures.Names())

	// the emitted policy admits the snippet it came from
	policyPath := filepath.Join(dir, "policy.toml")
	writeFile(t, policyPath, out)
	_, code = run(t, "", "--root", dir, "-p", policyPath, "check", "--source", "int x = 5; Console.WriteLine(x);")
	assert.Equal(t, exitPass, code)
}

func TestBatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.FileName), `
policy {
    variable-types "System.Int32"
}
`)
	writeFile(t, filepath.Join(dir, "a.cs"), "int x = 1;")
	writeFile(t, filepath.Join(dir, "sub", "b.cs"), "double d = 1.5;")
	writeFile(t, filepath.Join(dir, "bin", "c.cs"), "string s = \"\";")

	out, code := run(t, "", "--root", dir, "batch", "-w", "2")
	assert.Equal(t, exitViolation, code)
	assert.Contains(t, out, "PASS a.cs")
	assert.Contains(t, out, "FAIL "+filepath.Join("sub", "b.cs"))
	assert.NotContains(t, out, "c.cs")
	assert.Contains(t, out, "2 files: 1 passed, 1 violated, 0 failed")
}

func TestBatchJSONWithFailure(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.cs")
	bad := filepath.Join(dir, "bad.cs")
	writeFile(t, good, "int x = 1;")
	writeFile(t, bad, "")

	out, code := run(t, "", "--root", dir, "--json", "batch", good, bad)
	assert.Equal(t, exitError, code)

	var got batchOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Results, 2)
	assert.Equal(t, good, got.Results[0].Path)
	assert.Empty(t, got.Results[0].Error)
	assert.NotEmpty(t, got.Results[1].Error)
	assert.Equal(t, 1, got.Summary.Failed)
}

func TestVersion(t *testing.T) {
	out, code := run(t, "", "version")
	assert.Equal(t, exitPass, code)
	assert.Contains(t, out, "snippetgate")
}

// syncBuffer is written by the watcher goroutine and read by the test
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func watchSetup(t *testing.T) (*config.Config, *batch.Runner, *display.ReportFormatter) {
	t.Helper()
	cfg := config.Default(t.TempDir())
	cfg.Policy = &policy.Config{AllowedVariableTypes: policy.NewAllowList("System.Int32")}
	a, err := analyzer.NewCSharp(nil, csharp.Options{})
	require.NoError(t, err)
	rf := display.NewReportFormatter(display.FormatterOptions{Format: display.FormatText})
	return cfg, batch.NewRunner(a, cfg.Policy, 2), rf
}

func TestRecheckPrintsReports(t *testing.T) {
	cfg, runner, rf := watchSetup(t)
	ok := filepath.Join(cfg.Project.Root, "ok.cs")
	bad := filepath.Join(cfg.Project.Root, "bad.cs")
	writeFile(t, ok, "int x = 1;")
	writeFile(t, bad, "double d = 1.5;")

	var out, errOut bytes.Buffer
	recheck(&out, &errOut, runner, rf, cfg, false)(context.Background(), []string{ok, bad})

	assert.Empty(t, errOut.String())
	assert.Contains(t, out.String(), "PASS ok.cs")
	assert.Contains(t, out.String(), "FAIL bad.cs")
	assert.Contains(t, out.String(), "System.Double")
}

func TestRecheckJSONAndCancellation(t *testing.T) {
	cfg, runner, rf := watchSetup(t)
	src := filepath.Join(cfg.Project.Root, "a.cs")
	writeFile(t, src, "double d = 1.5;")

	var out, errOut bytes.Buffer
	recheck(&out, &errOut, runner, rf, cfg, true)(context.Background(), []string{src})
	var got batch.FileResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, src, got.Path)
	require.NotNil(t, got.Result)
	assert.True(t, got.Result.Violated())

	// a cancelled run prints nothing, not even an error
	out.Reset()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	recheck(&out, &errOut, runner, rf, cfg, false)(ctx, []string{src})
	assert.Empty(t, out.String())
	assert.Empty(t, errOut.String())
}

func TestWatchReportsChangedFile(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	cfg, runner, rf := watchSetup(t)
	scanner, err := batch.NewScanner(cfg)
	require.NoError(t, err)
	w, err := watch.New(scanner, 50*time.Millisecond)
	require.NoError(t, err)

	var out, errOut syncBuffer
	w.SetCallbacks(recheck(&out, &errOut, runner, rf, cfg, false), func([]string) {})
	require.NoError(t, w.Start())
	defer func() { require.NoError(t, w.Stop()) }()

	writeFile(t, filepath.Join(cfg.Project.Root, "snippet.cs"), "string s = \"x\";")
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "FAIL snippet.cs")
	}, 5*time.Second, 20*time.Millisecond, "no report for the changed file; stderr: %s", errOut.String())
	assert.Contains(t, out.String(), "System.String")
}
