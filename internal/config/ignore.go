package config

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// IgnoreRules decides which paths a batch or watch run skips: the
// configured exclude globs plus, optionally, the project's .gitignore
type IgnoreRules struct {
	exclude  []string
	patterns []ignorePattern
}

type ignorePattern struct {
	glob      string
	negate    bool
	directory bool
	anchored  bool
}

// NewIgnoreRules builds rules from exclude globs. Globs are matched against
// slash-separated paths relative to the project root.
func NewIgnoreRules(exclude []string) *IgnoreRules {
	return &IgnoreRules{exclude: append([]string{}, exclude...)}
}

// LoadGitignore adds the patterns of root/.gitignore. A missing file is
// not an error.
func (r *IgnoreRules) LoadGitignore(root string) error {
	f, err := os.Open(filepath.Join(root, ".gitignore"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()
	return r.readPatterns(f)
}

func (r *IgnoreRules) readPatterns(rd io.Reader) error {
	scanner := bufio.NewScanner(rd)
	for scanner.Scan() {
		r.AddPattern(scanner.Text())
	}
	return scanner.Err()
}

// AddPattern adds one gitignore-syntax line. Blank lines and comments are
// ignored.
func (r *IgnoreRules) AddPattern(line string) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}
	p := ignorePattern{}
	if strings.HasPrefix(line, "!") {
		p.negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.directory = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		p.anchored = true
		line = line[1:]
	} else if strings.Contains(line, "/") {
		// a slash in the middle anchors the pattern too
		p.anchored = true
	}
	if line == "" {
		return
	}
	p.glob = line
	r.patterns = append(r.patterns, p)
}

// ShouldIgnore reports whether rel (relative to the root) is skipped.
// Later gitignore patterns override earlier ones; exclude globs always win.
func (r *IgnoreRules) ShouldIgnore(rel string, isDir bool) bool {
	rel = filepath.ToSlash(rel)
	for _, g := range r.exclude {
		if ok, _ := doublestar.Match(g, rel); ok {
			return true
		}
		if isDir {
			if ok, _ := doublestar.Match(g, rel+"/x"); ok {
				return true
			}
		}
	}

	ignored := false
	for _, p := range r.patterns {
		if p.matches(rel, isDir) {
			ignored = !p.negate
		}
	}
	return ignored
}

// matches checks rel and each of its ancestor directories, so a pattern
// naming a directory ignores everything below it
func (p ignorePattern) matches(rel string, isDir bool) bool {
	parts := strings.Split(rel, "/")
	for i := range parts {
		dir := i < len(parts)-1 || isDir
		if p.directory && !dir {
			continue
		}
		if p.matchPath(strings.Join(parts[:i+1], "/")) {
			return true
		}
	}
	return false
}

func (p ignorePattern) matchPath(path string) bool {
	if p.anchored {
		ok, _ := doublestar.Match(p.glob, path)
		return ok
	}
	ok, _ := doublestar.Match("**/"+p.glob, path)
	return ok
}
