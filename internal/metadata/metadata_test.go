package metadata

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/snippetgate/internal/symbols"
)

func TestDefaultManifest(t *testing.T) {
	m, err := DefaultManifest()
	require.NoError(t, err)

	assert.Equal(t, "netcore-bcl", m.Name)
	assert.Contains(t, m.ImplicitUsings, "System")
	assert.Contains(t, m.ImplicitUsings, "System.Linq")
	assert.Equal(t, "System.Int32", m.Keywords["int"])
	assert.Equal(t, "System.Void", m.Keywords["void"])
	require.NotEmpty(t, m.Assemblies)

	sources, err := m.Sources()
	require.NoError(t, err)
	require.NotEmpty(t, sources)
	assert.Equal(t, "System.Private.CoreLib", sources[0].Assembly)
	assert.Equal(t, "corelib.cs", sources[0].Name)
	assert.Contains(t, string(sources[0].Content), "public static class Console")
}

func TestParseManifestValidation(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"missing name", `implicit_usings = ["System"]`, "no name"},
		{"assembly without sources", "name = \"x\"\n[[assembly]]\nname = \"A\"\n", `"A" lists no sources`},
		{"malformed toml", "name = ", "failed to parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest([]byte(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestUnboundManifestHasNoSources(t *testing.T) {
	m, err := ParseManifest([]byte("name = \"bare\"\n"))
	require.NoError(t, err)
	_, err = m.Sources()
	assert.ErrorContains(t, err, "not bound")
}

func TestLoadManifestFromDisk(t *testing.T) {
	dir := t.TempDir()
	manifest := "name = \"custom\"\n[[assembly]]\nname = \"Acme\"\nsources = [\"acme.cs\"]\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "catalog.toml"), []byte(manifest), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "acme.cs"), []byte("namespace Acme { public class Widget { } }"), 0o644))

	m, err := LoadManifest(filepath.Join(dir, "catalog.toml"))
	require.NoError(t, err)
	sources, err := m.Sources()
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "Acme", sources[0].Assembly)
	assert.Contains(t, string(sources[0].Content), "Widget")

	_, err = LoadManifest(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}

func TestWithSources(t *testing.T) {
	m, err := ParseManifest([]byte("name = \"mem\"\n[[assembly]]\nname = \"Mem\"\nsources = [\"a.cs\", \"b.cs\"]\n"))
	require.NoError(t, err)

	fsys := fstest.MapFS{
		"stubs/a.cs": {Data: []byte("class A { }")},
		"stubs/b.cs": {Data: []byte("class B { }")},
	}
	sources, err := m.WithSources(fsys, "stubs").Sources()
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "a.cs", sources[0].Name)
	assert.Equal(t, "b.cs", sources[1].Name)

	_, err = m.WithSources(fstest.MapFS{}, "stubs").Sources()
	assert.ErrorContains(t, err, "assembly Mem")
}

func TestTable(t *testing.T) {
	table := NewTable()

	list := &symbols.Type{Name: "List", Namespace: "System.Collections.Generic",
		TypeParameters: []*symbols.Type{symbols.NewTypeParameter("T", 0)}}
	nonGeneric := &symbols.Type{Name: "List", Namespace: "System.Collections.Generic"}
	console := &symbols.Type{Name: "Console", Namespace: "System"}

	assert.Same(t, list, table.Add(list))
	assert.Same(t, nonGeneric, table.Add(nonGeneric))
	assert.Same(t, console, table.Add(console))

	// Partial declarations merge into the first definition
	dup := &symbols.Type{Name: "Console", Namespace: "System"}
	assert.Same(t, console, table.Add(dup))

	assert.Same(t, list, table.Lookup("System.Collections.Generic.List", 1))
	assert.Same(t, nonGeneric, table.Lookup("System.Collections.Generic.List", 0))
	assert.Nil(t, table.Lookup("System.Collections.Generic.List", 2))

	assert.True(t, table.HasNamespace("System"))
	assert.True(t, table.HasNamespace("System.Collections"))
	assert.False(t, table.HasNamespace("Microsoft"))
	assert.Equal(t, []string{"System", "System.Collections", "System.Collections.Generic"}, table.Namespaces())
	assert.Equal(t, 3, table.Len())

	table.Freeze()
	late := &symbols.Type{Name: "Late", Namespace: "System"}
	table.Add(late)
	assert.Nil(t, table.Lookup("System.Late", 0))
	assert.Len(t, table.Types(), 3)
}

func TestNestedTypeKey(t *testing.T) {
	table := NewTable()
	outer := &symbols.Type{Name: "Environment", Namespace: "System"}
	inner := &symbols.Type{Name: "SpecialFolder", Containing: outer, TypeKind: symbols.TypeKindEnum}
	table.Add(outer)
	table.Add(inner)

	assert.Same(t, inner, table.Lookup("System.Environment.SpecialFolder", 0))
}
