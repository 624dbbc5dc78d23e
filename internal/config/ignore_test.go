package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIgnoreRules(t *testing.T) {
	r := NewIgnoreRules([]string{"**/obj/**"})
	require.NoError(t, r.readPatterns(strings.NewReader(`
# build output
bin/
*.g.cs
/Generated
!keep.g.cs
docs/*.cs
`)))

	tests := []struct {
		path  string
		isDir bool
		want  bool
	}{
		{"src/obj/Debug/a.cs", false, true},
		{"src/obj", true, true},
		{"bin", true, true},
		{"src/bin/x.cs", false, true},
		{"bin", false, false},
		{"src/Model.g.cs", false, true},
		{"src/keep.g.cs", false, false},
		{"Generated/a.cs", false, true},
		{"src/Generated/a.cs", false, false},
		{"docs/sample.cs", false, true},
		{"src/docs/sample.cs", false, false},
		{"src/Program.cs", false, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, r.ShouldIgnore(tt.path, tt.isDir), tt.path)
	}
}

func TestLoadGitignore(t *testing.T) {
	dir := t.TempDir()
	r := NewIgnoreRules(nil)
	require.NoError(t, r.LoadGitignore(dir))
	assert.False(t, r.ShouldIgnore("a.cs", false))

	writeFile(t, filepath.Join(dir, ".gitignore"), "*.csx\n")
	require.NoError(t, r.LoadGitignore(dir))
	assert.True(t, r.ShouldIgnore("scripts/run.csx", false))
}

func TestDeduplicatePatterns(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, DeduplicatePatterns([]string{"a", "b", "a", "c", "b"}))
}
