package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/standardbeagle/snippetgate/internal/policy"
)

// FileName is the project configuration file looked up in the project root
// and the user's home directory
const FileName = ".sgate.kdl"

// Defaults
const (
	DefaultMaxSourceBytes = 1 << 20
	DefaultMaxDepth       = 2000
	DefaultDebounceMs     = 300
	DefaultSuggestions    = 3
)

type Config struct {
	Version int
	Project Project
	// Policy is nil when neither a policy block nor a policy file is
	// configured. An absent policy checks nothing.
	Policy     *policy.Config
	PolicyFile string
	Frontend   Frontend
	// Catalogs are extra catalog manifests loaded after the embedded one
	Catalogs []string
	Batch    Batch
	Watch    Watch
	Report   Report
}

type Project struct {
	Root string
	Name string
}

// Frontend tunes the C# parser and binder
type Frontend struct {
	ImplicitUsings   bool
	Usings           []string // replaces the catalog's implicit usings when set
	MaxSourceBytes   int64
	MaxDepth         int
	RespectGitignore bool
}

// Batch controls which files a batch run analyzes and how many at once
type Batch struct {
	Include []string
	Exclude []string
	Workers int // 0 = auto-detect (NumCPU-1)
}

type Watch struct {
	DebounceMs int
}

// Report controls presentation only; it never changes what is checked
type Report struct {
	Distinct    bool
	Suggestions int
}

// Default returns the configuration used when no .sgate.kdl is found
func Default(root string) *Config {
	return &Config{
		Version: 1,
		Project: Project{Root: root},
		Frontend: Frontend{
			ImplicitUsings:   true,
			MaxSourceBytes:   DefaultMaxSourceBytes,
			MaxDepth:         DefaultMaxDepth,
			RespectGitignore: true,
		},
		Batch: Batch{
			Include: []string{"**/*.cs", "**/*.csx"},
			Exclude: []string{"**/bin/**", "**/obj/**", "**/.*/**"},
			Workers: 0,
		},
		Watch:  Watch{DebounceMs: DefaultDebounceMs},
		Report: Report{Suggestions: DefaultSuggestions},
	}
}

func Load(path string) (*Config, error) {
	return LoadWithRoot(path, "")
}

// LoadWithRoot loads the user's ~/.sgate.kdl and the project's .sgate.kdl
// and layers the project file over the user file. path, when set, names a
// config file to use instead of the project one.
func LoadWithRoot(path string, rootDir string) (*Config, error) {
	searchDir := "."
	if rootDir != "" {
		searchDir = rootDir
	}
	absDir, err := filepath.Abs(searchDir)
	if err == nil {
		searchDir = absDir
	}

	var baseConfig *Config
	if homeDir, err := os.UserHomeDir(); err == nil && filepath.Clean(homeDir) != searchDir {
		if globalCfg, err := LoadKDL(homeDir); err == nil && globalCfg != nil {
			baseConfig = globalCfg
		}
	}

	var projectConfig *Config
	if path != "" {
		projectConfig, err = LoadKDLFile(path)
	} else {
		projectConfig, err = LoadKDL(searchDir)
	}
	if err != nil {
		return nil, err
	}

	var cfg *Config
	switch {
	case baseConfig != nil && projectConfig != nil:
		cfg = mergeConfigs(baseConfig, projectConfig)
	case projectConfig != nil:
		cfg = projectConfig
	case baseConfig != nil:
		baseConfig.Project.Root = searchDir
		cfg = baseConfig
	default:
		cfg = Default(searchDir)
	}

	if err := cfg.loadPolicyFile(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeConfigs layers a project config over a base config. The project wins
// for every setting it has; allow lists it leaves absent and batch
// exclusions are inherited from the base.
func mergeConfigs(base, project *Config) *Config {
	merged := *project

	merged.Policy = base.Policy.Merge(project.Policy)
	if merged.PolicyFile == "" {
		merged.PolicyFile = base.PolicyFile
	}
	merged.Batch.Exclude = DeduplicatePatterns(append(append([]string{}, base.Batch.Exclude...), project.Batch.Exclude...))
	if len(project.Batch.Include) == 0 {
		merged.Batch.Include = base.Batch.Include
	}
	merged.Catalogs = DeduplicatePatterns(append(append([]string{}, base.Catalogs...), project.Catalogs...))
	return &merged
}

// Workers returns the effective number of batch workers
func (c *Config) Workers() int {
	if c.Batch.Workers > 0 {
		return c.Batch.Workers
	}
	return max(1, runtime.NumCPU()-1)
}

// Resolve makes p absolute relative to the project root
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Project.Root, p)
}

// DeduplicatePatterns removes repeated entries keeping first occurrence order
func DeduplicatePatterns(patterns []string) []string {
	seen := make(map[string]bool, len(patterns))
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
