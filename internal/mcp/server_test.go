package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/snippetgate/internal/analyzer"
	"github.com/standardbeagle/snippetgate/internal/csharp"
	"github.com/standardbeagle/snippetgate/internal/policy"
)

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	a, err := analyzer.NewCSharp(nil, csharp.Options{})
	require.NoError(t, err)
	return NewServer(a, opts)
}

// callTool invokes a handler directly and decodes its JSON payload
func callTool(t *testing.T, s *Server, name string, params map[string]interface{}) (map[string]interface{}, bool) {
	t.Helper()
	raw, err := json.Marshal(params)
	require.NoError(t, err)
	req := &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{Name: name, Arguments: raw},
	}

	var result *mcp.CallToolResult
	switch name {
	case toolAnalyze:
		result, err = s.handleAnalyze(context.Background(), req)
	case toolInspect:
		result, err = s.handleInspect(context.Background(), req)
	default:
		t.Fatalf("unknown tool %q", name)
	}
	require.NoError(t, err)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &out))
	return out, result.IsError
}

func TestAnalyzeSnippetViolation(t *testing.T) {
	s := newTestServer(t, Options{})
	out, isErr := callTool(t, s, toolAnalyze, map[string]interface{}{
		"source":                  `Console.WriteLine("hi");`,
		"allowedMethodSignatures": []string{},
	})
	require.False(t, isErr)
	assert.Equal(t, true, out["success"])

	methods := out["methods"].(map[string]interface{})
	assert.Equal(t, true, methods["violated"])
	assert.Equal(t, []interface{}{"void System.Console.WriteLine(string)"}, methods["offendingNames"])

	types := out["variableTypes"].(map[string]interface{})
	assert.Equal(t, false, types["violated"])
	assert.Equal(t, []interface{}{}, types["offendingNames"])
}

func TestAnalyzeSnippetNullListIsUnrestricted(t *testing.T) {
	s := newTestServer(t, Options{})
	out, isErr := callTool(t, s, toolAnalyze, map[string]interface{}{
		"source":                  `int x = 5; Console.WriteLine(x);`,
		"allowedVariableTypes":    nil,
		"allowedMethodSignatures": nil,
	})
	require.False(t, isErr)
	assert.Equal(t, false, out["variableTypes"].(map[string]interface{})["violated"])
	assert.Equal(t, false, out["methods"].(map[string]interface{})["violated"])
}

func TestAnalyzeSnippetConfiguredPolicy(t *testing.T) {
	s := newTestServer(t, Options{
		Policy: &policy.Config{
			AllowedVariableTypes: policy.NewAllowList("System.String"),
		},
		Suggestions: 2,
	})

	out, isErr := callTool(t, s, toolAnalyze, map[string]interface{}{
		"source": "int x = 5;",
	})
	require.False(t, isErr)
	types := out["variableTypes"].(map[string]interface{})
	assert.Equal(t, true, types["violated"])
	assert.Equal(t, []interface{}{"System.Int32"}, types["offendingNames"])

	// a list in the call replaces the configured one
	out, isErr = callTool(t, s, toolAnalyze, map[string]interface{}{
		"source":               "int x = 5;",
		"allowedVariableTypes": []string{"System.Int32"},
	})
	require.False(t, isErr)
	assert.Equal(t, false, out["variableTypes"].(map[string]interface{})["violated"])
}

func TestAnalyzeSnippetSuggestions(t *testing.T) {
	s := newTestServer(t, Options{Suggestions: 3})
	out, isErr := callTool(t, s, toolAnalyze, map[string]interface{}{
		"source":                  `Console.WriteLine("hi");`,
		"allowedMethodSignatures": []string{"void System.Console.WriteLine(int)", "int System.Math.Abs(int)"},
	})
	require.False(t, isErr)
	suggestions, ok := out["suggestions"].(map[string]interface{})
	require.True(t, ok)
	near := suggestions["void System.Console.WriteLine(string)"].([]interface{})
	require.NotEmpty(t, near)
	assert.Equal(t, "void System.Console.WriteLine(int)", near[0])
}

func TestAnalyzeSnippetErrors(t *testing.T) {
	s := newTestServer(t, Options{})

	out, isErr := callTool(t, s, toolAnalyze, map[string]interface{}{"source": "  "})
	assert.True(t, isErr)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "empty_input", out["kind"])
	assert.Equal(t, toolAnalyze, out["operation"])

	out, isErr = callTool(t, s, toolAnalyze, map[string]interface{}{
		"source":               "int x = ;",
		"allowedVariableTypes": []string{},
	})
	assert.True(t, isErr)
	assert.Equal(t, "invalid_input", out["kind"])
	assert.EqualValues(t, 1, out["line"])
}

func TestInspectSnippet(t *testing.T) {
	s := newTestServer(t, Options{})
	out, isErr := callTool(t, s, toolInspect, map[string]interface{}{
		"source": `int x = 5; Console.WriteLine(x);`,
	})
	require.False(t, isErr)

	types := out["variableTypes"].([]interface{})
	require.Len(t, types, 1)
	first := types[0].(map[string]interface{})
	assert.Equal(t, "System.Int32", first["name"])
	assert.Equal(t, map[string]interface{}{"line": float64(1), "column": float64(1)}, first["position"])

	methods := out["methods"].([]interface{})
	require.Len(t, methods, 1)
	assert.Equal(t, "void System.Console.WriteLine(int)", methods[0].(map[string]interface{})["name"])
}

func TestToolsOverTransport(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := newTestServer(t, Options{})
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ss, err := s.Connect(ctx, serverTransport)
	require.NoError(t, err)
	defer ss.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer cs.Close()

	tools, err := cs.ListTools(ctx, nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{toolAnalyze, toolInspect}, names)

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{
		Name: toolAnalyze,
		Arguments: map[string]interface{}{
			"source":               "double d = 1.5;",
			"allowedVariableTypes": []string{"System.Int32"},
		},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	text := res.Content[0].(*mcp.TextContent).Text

	var resp struct {
		VariableTypes policy.Report `json:"variableTypes"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &resp))
	assert.Equal(t, policy.Report{Violated: true, Offending: []string{"System.Double"}}, resp.VariableTypes)
}
