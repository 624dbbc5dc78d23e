// Package metadata holds the reference catalog the binder resolves names
// against: a TOML manifest listing C# declaration stubs, the keyword aliases
// for special types and the default implicit usings.
package metadata

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

//go:embed catalog
var catalogFS embed.FS

// DefaultManifestPath is the manifest of the embedded catalog
const DefaultManifestPath = "catalog/manifest.toml"

// Manifest describes one catalog
type Manifest struct {
	Name           string            `toml:"name"`
	ImplicitUsings []string          `toml:"implicit_usings"`
	Keywords       map[string]string `toml:"keywords"`
	Assemblies     []Assembly        `toml:"assembly"`

	fsys fs.FS
	dir  string
}

// Assembly groups stub sources standing in for one referenced assembly
type Assembly struct {
	Name    string   `toml:"name"`
	Sources []string `toml:"sources"`
}

// Source is one stub file ready to be parsed
type Source struct {
	Assembly string
	Name     string
	Content  []byte
}

// DefaultManifest returns the manifest of the embedded BCL catalog
func DefaultManifest() (*Manifest, error) {
	data, err := catalogFS.ReadFile(DefaultManifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded catalog manifest: %w", err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, err
	}
	m.fsys = catalogFS
	m.dir = filepath.Dir(DefaultManifestPath)
	return m, nil
}

// LoadManifest reads a manifest from disk. Stub sources are resolved relative
// to the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog manifest %s: %w", path, err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.fsys = os.DirFS(filepath.Dir(path))
	m.dir = "."
	return m, nil
}

// ParseManifest decodes manifest TOML without binding it to a file system
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse catalog manifest: %w", err)
	}
	if m.Name == "" {
		return nil, fmt.Errorf("catalog manifest has no name")
	}
	for _, a := range m.Assemblies {
		if len(a.Sources) == 0 {
			return nil, fmt.Errorf("assembly %q lists no sources", a.Name)
		}
	}
	return &m, nil
}

// Sources reads every stub file the manifest lists, in manifest order
func (m *Manifest) Sources() ([]Source, error) {
	if m.fsys == nil {
		return nil, fmt.Errorf("catalog %s is not bound to a file system", m.Name)
	}
	var out []Source
	for _, a := range m.Assemblies {
		for _, name := range a.Sources {
			p := filepath.ToSlash(filepath.Join(m.dir, name))
			data, err := fs.ReadFile(m.fsys, p)
			if err != nil {
				return nil, fmt.Errorf("assembly %s: %w", a.Name, err)
			}
			out = append(out, Source{Assembly: a.Name, Name: name, Content: data})
		}
	}
	return out, nil
}

// WithSources returns a manifest that reads stub files from fsys. It is used
// by tests and by callers embedding their own catalogs.
func (m *Manifest) WithSources(fsys fs.FS, dir string) *Manifest {
	cp := *m
	cp.fsys = fsys
	cp.dir = dir
	return &cp
}
