package batch

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/snippetgate/internal/config"
	"github.com/standardbeagle/snippetgate/internal/debug"
)

// Scanner finds snippet files under a root
type Scanner struct {
	root    string
	include []string
	rules   *config.IgnoreRules
}

// NewScanner builds a scanner from the batch section of cfg. The project's
// .gitignore is honored when the front end is configured to respect it.
func NewScanner(cfg *config.Config) (*Scanner, error) {
	rules := config.NewIgnoreRules(cfg.Batch.Exclude)
	if cfg.Frontend.RespectGitignore {
		if err := rules.LoadGitignore(cfg.Project.Root); err != nil {
			return nil, err
		}
	}
	return &Scanner{
		root:    cfg.Project.Root,
		include: cfg.Batch.Include,
		rules:   rules,
	}, nil
}

// Root returns the directory the scanner walks
func (s *Scanner) Root() string {
	return s.root
}

// Matches reports whether path (absolute, or relative to the root) is a
// file the scanner would return
func (s *Scanner) Matches(path string) bool {
	rel, ok := s.relative(path)
	if !ok || s.rules.ShouldIgnore(rel, false) {
		return false
	}
	return s.included(rel)
}

// IgnoresDir reports whether the directory rel (relative to the root) is
// skipped entirely
func (s *Scanner) IgnoresDir(rel string) bool {
	return s.rules.ShouldIgnore(rel, true)
}

func (s *Scanner) relative(path string) (string, bool) {
	if !filepath.IsAbs(path) {
		return filepath.ToSlash(path), true
	}
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == ".." || len(rel) > 2 && rel[:3] == ".."+string(filepath.Separator) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (s *Scanner) included(rel string) bool {
	if len(s.include) == 0 {
		return true
	}
	for _, pattern := range s.include {
		if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
			return true
		}
	}
	return false
}

// Scan walks the root and returns matching files in lexical order. Ignored
// directories are not descended into.
func (s *Scanner) Scan(ctx context.Context) ([]string, error) {
	var files []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			debug.LogBatch("batch: skipping %s: %v\n", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path == s.root {
			return nil
		}
		rel, ok := s.relative(path)
		if !ok {
			return nil
		}
		if d.IsDir() {
			if s.rules.ShouldIgnore(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || s.rules.ShouldIgnore(rel, false) || !s.included(rel) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
