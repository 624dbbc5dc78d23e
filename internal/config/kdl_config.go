package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	"github.com/standardbeagle/snippetgate/internal/debug"
	sgerrors "github.com/standardbeagle/snippetgate/internal/errors"
	"github.com/standardbeagle/snippetgate/internal/policy"
)

// LoadKDL loads .sgate.kdl from projectRoot. It returns nil, nil when the
// file does not exist.
func LoadKDL(projectRoot string) (*Config, error) {
	kdlPath := filepath.Join(projectRoot, FileName)
	if _, err := os.Stat(kdlPath); os.IsNotExist(err) {
		return nil, nil
	}
	cfg, err := LoadKDLFile(kdlPath)
	if err != nil {
		return nil, err
	}
	if cfg.Project.Root == "" {
		cfg.Project.Root = projectRoot
	}
	return cfg, nil
}

// LoadKDLFile loads a config file at an explicit path. A relative project
// root inside the file is resolved against the file's directory.
func LoadKDLFile(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, sgerrors.NewFileError("read", path, err)
	}

	cfg, err := parseKDL(string(content))
	if err != nil {
		return nil, sgerrors.NewConfigError("kdl", "", err).WithPath(path)
	}

	dir := filepath.Dir(path)
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	if cfg.Project.Root == "" {
		cfg.Project.Root = dir
	} else if !filepath.IsAbs(cfg.Project.Root) {
		cfg.Project.Root = filepath.Clean(filepath.Join(dir, cfg.Project.Root))
	}
	debug.LogConfig("config: loaded %s (policy present: %v)\n", path, cfg.Policy != nil)
	return cfg, nil
}

// parseKDL reads an sgate configuration document:
//
//	policy {
//	    variable-types { "System.Int32"; "System.String" }
//	    methods { "void System.Console.WriteLine(string)" }
//	}
//
// A list node that is present with no entries is an empty allow list; an
// omitted node leaves that kind unrestricted.
func parseKDL(content string) (*Config, error) {
	cfg := Default("")

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "project":
			for _, cn := range n.Children {
				assignSimpleString(cn, "root", func(v string) { cfg.Project.Root = v })
				assignSimpleString(cn, "name", func(v string) { cfg.Project.Name = v })
			}
		case "policy":
			if cfg.Policy == nil {
				cfg.Policy = &policy.Config{}
			}
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "variable-types", "variable_types":
					cfg.Policy.AllowedVariableTypes = cfg.Policy.AllowedVariableTypes.Merge(policy.NewAllowList(collectStringArgs(cn)...))
				case "methods", "method-signatures", "method_signatures":
					cfg.Policy.AllowedMethodSignatures = cfg.Policy.AllowedMethodSignatures.Merge(policy.NewAllowList(collectStringArgs(cn)...))
				case "file":
					if s, ok := firstStringArg(cn); ok {
						cfg.PolicyFile = s
					}
				}
			}
		case "policy-file", "policy_file":
			if s, ok := firstStringArg(n); ok {
				cfg.PolicyFile = s
			}
		case "frontend":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "implicit-usings", "implicit_usings":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Frontend.ImplicitUsings = b
					}
				case "usings", "using":
					cfg.Frontend.Usings = append(cfg.Frontend.Usings, collectStringArgs(cn)...)
				case "max-source-bytes", "max_source_bytes":
					if v, ok := firstIntArg(cn); ok {
						cfg.Frontend.MaxSourceBytes = int64(v)
					}
					if s, ok := firstStringArg(cn); ok {
						if sz, err := parseSize(s); err == nil {
							cfg.Frontend.MaxSourceBytes = sz
						} else {
							return nil, sgerrors.NewConfigError("frontend.max-source-bytes", s, err)
						}
					}
				case "max-depth", "max_depth":
					if v, ok := firstIntArg(cn); ok {
						cfg.Frontend.MaxDepth = v
					}
				case "respect-gitignore", "respect_gitignore":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Frontend.RespectGitignore = b
					}
				}
			}
		case "catalog":
			cfg.Catalogs = append(cfg.Catalogs, collectStringArgs(n)...)
		case "batch":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "include":
					cfg.Batch.Include = collectStringArgs(cn)
				case "exclude":
					// Replaces the default exclusions
					cfg.Batch.Exclude = collectStringArgs(cn)
				case "workers":
					if v, ok := firstIntArg(cn); ok {
						cfg.Batch.Workers = v
					}
				}
			}
		case "watch":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "debounce-ms", "debounce_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Watch.DebounceMs = v
					}
				}
			}
		case "report":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "distinct":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Report.Distinct = b
					}
				case "suggestions":
					if v, ok := firstIntArg(cn); ok {
						cfg.Report.Suggestions = v
					}
				}
			}
		default:
			debug.LogConfig("config: ignoring unknown node %q\n", nodeName(n))
		}
	}

	return cfg, nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}
func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}
func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

// collectStringArgs reads inline arguments (include "a" "b") or, failing
// that, one entry per child node (include { "a"; "b" })
func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}

	// In block form each string is a child node whose name is the value
	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}

	return out
}
func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}

// parseSize handles size strings like "10MB", "500KB", "1GB"
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	var multiplier int64 = 1
	var numStr string

	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		numStr = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		numStr = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		numStr = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		multiplier = 1
		numStr = strings.TrimSuffix(s, "B")
	default:
		numStr = s
	}

	num, err := strconv.ParseInt(strings.TrimSpace(numStr), 10, 64)
	if err != nil {
		return 0, err
	}

	return num * multiplier, nil
}
