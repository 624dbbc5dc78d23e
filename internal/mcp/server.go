// Package mcp exposes the snippet gate as Model Context Protocol tools over
// stdio.
package mcp

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/snippetgate/internal/analyzer"
	"github.com/standardbeagle/snippetgate/internal/debug"
	"github.com/standardbeagle/snippetgate/internal/policy"
	"github.com/standardbeagle/snippetgate/internal/version"
)

const (
	toolAnalyze = "analyze_snippet"
	toolInspect = "inspect_snippet"
)

// Server wraps an MCP server around one analyzer. The configured policy is
// the default; a list passed in a tool call replaces the matching default
// list for that call only.
type Server struct {
	analyzer    *analyzer.Analyzer
	policy      *policy.Config
	matcher     *policy.Matcher
	suggestions int
	server      *mcp.Server
}

// Options configure a Server
type Options struct {
	// Policy is applied when a call carries no lists of its own
	Policy *policy.Config
	// Suggestions is how many near matches to attach per offending name
	Suggestions int
}

// NewServer creates a server with its tools registered
func NewServer(a *analyzer.Analyzer, opts Options) *Server {
	s := &Server{
		analyzer:    a,
		policy:      opts.Policy,
		matcher:     policy.NewMatcher(policy.DefaultSuggestThreshold),
		suggestions: opts.Suggestions,
	}
	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "sgate",
		Version: version.Info(),
	}, nil)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	nameList := func(desc string) *jsonschema.Schema {
		return &jsonschema.Schema{
			Types:       []string{"array", "null"},
			Description: desc,
			Items:       &jsonschema.Schema{Type: "string"},
		}
	}

	s.server.AddTool(&mcp.Tool{
		Name: toolAnalyze,
		Description: "Check a C# snippet against allow lists of variable types and method signatures. " +
			"Omit a list (or pass null) to leave that kind unrestricted; an empty list allows nothing.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"source": {
					Type:        "string",
					Description: "C# source text: a script, a class, or a full compilation unit",
				},
				"name": {
					Type:        "string",
					Description: "Optional label used in error messages",
				},
				"allowedVariableTypes": nameList(
					"Allowed variable types, e.g. 'int', 'System.Collections.Generic.List<int>'"),
				"allowedMethodSignatures": nameList(
					"Allowed method signatures, e.g. 'void System.Console.WriteLine(string)'"),
			},
			Required: []string{"source"},
		},
	}, s.handleAnalyze)

	s.server.AddTool(&mcp.Tool{
		Name:        toolInspect,
		Description: "List the canonical variable type and method signature names a C# snippet uses, with positions. Use the output to build allow lists.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"source": {
					Type:        "string",
					Description: "C# source text",
				},
				"name": {
					Type:        "string",
					Description: "Optional label used in error messages",
				},
			},
			Required: []string{"source"},
		},
	}, s.handleInspect)
}

// Run serves over stdin/stdout until ctx is done or the client disconnects.
// Debug output is silenced first since stdout carries the protocol.
func (s *Server) Run(ctx context.Context) error {
	debug.SetMCPMode(true)
	debug.LogMCP("mcp: serving %s\n", version.FullInfo())
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Connect serves over an arbitrary transport
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, t, nil)
}
