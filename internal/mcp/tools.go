package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/snippetgate/internal/analyzer"
	"github.com/standardbeagle/snippetgate/internal/debug"
	"github.com/standardbeagle/snippetgate/internal/policy"
)

// AnalyzeParams are the analyze_snippet arguments. A list that is absent or
// null falls back to the server's configured list.
type AnalyzeParams struct {
	Source                  string            `json:"source"`
	Name                    string            `json:"name,omitempty"`
	AllowedVariableTypes    *policy.AllowList `json:"allowedVariableTypes,omitempty"`
	AllowedMethodSignatures *policy.AllowList `json:"allowedMethodSignatures,omitempty"`
}

// InspectParams are the inspect_snippet arguments
type InspectParams struct {
	Source string `json:"source"`
	Name   string `json:"name,omitempty"`
}

// AnalyzeResponse is the analyze_snippet payload
type AnalyzeResponse struct {
	Success bool `json:"success"`
	*analyzer.Result
	// Suggestions maps an offending name to near matches from its allow list
	Suggestions map[string][]string `json:"suggestions,omitempty"`
	ElapsedMs   int64               `json:"elapsedMs"`
}

// InspectResponse is the inspect_snippet payload
type InspectResponse struct {
	Success bool `json:"success"`
	*analyzer.Inventory
}

func (s *Server) handleAnalyze(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params AnalyzeParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse(toolAnalyze, fmt.Errorf("invalid parameters: %w", err))
	}
	if err := ctx.Err(); err != nil {
		return createErrorResponse(toolAnalyze, err)
	}

	cfg := s.policy.Merge(&policy.Config{
		AllowedVariableTypes:    params.AllowedVariableTypes,
		AllowedMethodSignatures: params.AllowedMethodSignatures,
	})
	if cfg.IsEmpty() {
		cfg = nil
	}

	start := time.Now()
	res, err := s.analyzer.AnalyzeNamed(params.Name, params.Source, cfg)
	if err != nil {
		debug.LogMCP("mcp: %s failed: %v\n", toolAnalyze, err)
		return createErrorResponse(toolAnalyze, err)
	}

	resp := &AnalyzeResponse{
		Success:   true,
		Result:    res,
		ElapsedMs: time.Since(start).Milliseconds(),
	}
	if cfg != nil {
		resp.Suggestions = s.suggest(res.VariableTypes, cfg.AllowedVariableTypes)
		for name, near := range s.suggest(res.Methods, cfg.AllowedMethodSignatures) {
			if resp.Suggestions == nil {
				resp.Suggestions = make(map[string][]string)
			}
			resp.Suggestions[name] = near
		}
	}
	return createJSONResponse(resp)
}

func (s *Server) handleInspect(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params InspectParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse(toolInspect, fmt.Errorf("invalid parameters: %w", err))
	}
	if err := ctx.Err(); err != nil {
		return createErrorResponse(toolInspect, err)
	}

	inv, err := s.analyzer.InspectNamed(params.Name, params.Source)
	if err != nil {
		debug.LogMCP("mcp: %s failed: %v\n", toolInspect, err)
		return createErrorResponse(toolInspect, err)
	}
	return createJSONResponse(&InspectResponse{Success: true, Inventory: inv})
}

func (s *Server) suggest(rep policy.Report, allowed *policy.AllowList) map[string][]string {
	if s.suggestions <= 0 || allowed.Len() == 0 {
		return nil
	}
	var out map[string][]string
	for _, name := range rep.Distinct() {
		var near []string
		for _, sg := range s.matcher.Suggest(name, allowed, s.suggestions) {
			near = append(near, sg.Name)
		}
		if len(near) == 0 {
			continue
		}
		if out == nil {
			out = make(map[string][]string)
		}
		out[name] = near
	}
	return out
}
