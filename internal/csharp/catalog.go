package csharp

import (
	"fmt"
	"sort"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/snippetgate/internal/debug"
	sgerrors "github.com/standardbeagle/snippetgate/internal/errors"
	"github.com/standardbeagle/snippetgate/internal/metadata"
	"github.com/standardbeagle/snippetgate/internal/symbols"
)

// Catalog is the set of referenced types a snippet binds against. It is
// built once from declaration stubs and shared read-only by every analysis.
type Catalog struct {
	name           string
	table          *metadata.Table
	keywords       map[string]string
	implicitUsings []string
	extensions     map[string][]*symbols.Method
}

var (
	defaultCatalog     *Catalog
	defaultCatalogErr  error
	defaultCatalogOnce sync.Once
)

// DefaultCatalog returns the embedded BCL catalog, loading it on first use
func DefaultCatalog() (*Catalog, error) {
	defaultCatalogOnce.Do(func() {
		m, err := metadata.DefaultManifest()
		if err != nil {
			defaultCatalogErr = sgerrors.NewCatalogError("default", err)
			return
		}
		defaultCatalog, defaultCatalogErr = LoadCatalog(m)
	})
	return defaultCatalog, defaultCatalogErr
}

// LoadCatalog parses the stub sources of one or more manifests into a single
// catalog. Keywords and implicit usings of later manifests are merged into
// those of the first.
func LoadCatalog(manifests ...*metadata.Manifest) (*Catalog, error) {
	if len(manifests) == 0 {
		return nil, sgerrors.NewCatalogError("", fmt.Errorf("no manifests"))
	}
	c := &Catalog{
		name:       manifests[0].Name,
		table:      metadata.NewTable(),
		keywords:   make(map[string]string),
		extensions: make(map[string][]*symbols.Method),
	}
	for _, m := range manifests {
		for kw, full := range m.Keywords {
			if _, ok := c.keywords[kw]; !ok {
				c.keywords[kw] = full
			}
		}
		for _, u := range m.ImplicitUsings {
			if !containsString(c.implicitUsings, u) {
				c.implicitUsings = append(c.implicitUsings, u)
			}
		}
	}

	e := &env{tables: []*metadata.Table{c.table}, keywords: c.keywords}
	d := newDeclarer(e, c.table)

	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(language()); err != nil {
		return nil, sgerrors.NewCatalogError(c.name, err)
	}

	var files []*file
	defer func() {
		for _, f := range files {
			f.close()
		}
	}()
	for _, m := range manifests {
		sources, err := m.Sources()
		if err != nil {
			return nil, sgerrors.NewCatalogError(m.Name, err)
		}
		for _, s := range sources {
			tree := parser.Parse(s.Content, nil)
			if tree == nil {
				return nil, sgerrors.NewCatalogError(m.Name, fmt.Errorf("%s: parse failed", s.Name))
			}
			f := newFile(s.Name, s.Content, tree)
			files = append(files, f)
			if bad := firstSyntaxError(f.root); bad != nil {
				pos := bad.StartPosition()
				return nil, sgerrors.NewCatalogError(m.Name,
					fmt.Errorf("%s:%d:%d: syntax error near %q", s.Name, pos.Row+1, pos.Column+1, truncate(f.text(bad), 24)))
			}
			d.collect(f)
		}
	}
	d.bind()

	c.extensions = indexExtensions(c.table)
	c.table.Freeze()
	debug.LogAnalysis("catalog %s loaded: %d types, %d namespaces\n", c.name, c.table.Len(), len(c.table.Namespaces()))
	return c, nil
}

// indexExtensions collects extension methods by name
func indexExtensions(t *metadata.Table) map[string][]*symbols.Method {
	out := make(map[string][]*symbols.Method)
	for _, typ := range t.Types() {
		if !typ.Static || typ.Containing != nil {
			continue
		}
		for _, m := range typ.Members {
			if method, ok := m.(*symbols.Method); ok && method.IsExtension {
				out[method.Name] = append(out[method.Name], method)
			}
		}
	}
	return out
}

// Name identifies the catalog
func (c *Catalog) Name() string {
	return c.name
}

// Lookup finds a catalog type by full name and arity
func (c *Catalog) Lookup(fullName string, arity int) *symbols.Type {
	return c.table.Lookup(fullName, arity)
}

// Keyword returns the special type a C# keyword aliases
func (c *Catalog) Keyword(kw string) *symbols.Type {
	full, ok := c.keywords[kw]
	if !ok {
		return nil
	}
	return c.table.Lookup(full, 0)
}

// ImplicitUsings returns the namespaces imported into every snippet by default
func (c *Catalog) ImplicitUsings() []string {
	return append([]string(nil), c.implicitUsings...)
}

// Namespaces returns the namespaces the catalog declares types in
func (c *Catalog) Namespaces() []string {
	return c.table.Namespaces()
}

// Len returns the number of types in the catalog
func (c *Catalog) Len() int {
	return c.table.Len()
}

// ExtensionMethods returns the names of every extension method, sorted
func (c *Catalog) ExtensionMethods() []string {
	out := make([]string, 0, len(c.extensions))
	for name := range c.extensions {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
