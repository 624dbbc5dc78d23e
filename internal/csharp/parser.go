// Package csharp is the C# front end: it parses snippets with tree-sitter,
// declares the types they contain and binds names, members and calls against
// a catalog of referenced types.
package csharp

import (
	"fmt"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"

	"github.com/standardbeagle/snippetgate/internal/debug"
	sgerrors "github.com/standardbeagle/snippetgate/internal/errors"
	"github.com/standardbeagle/snippetgate/internal/frontend"
	"github.com/standardbeagle/snippetgate/internal/metadata"
	"github.com/standardbeagle/snippetgate/internal/symbols"
)

const (
	// DefaultMaxDepth bounds binder recursion on deeply nested expressions
	DefaultMaxDepth = 2000
	// DefaultMaxSourceBytes rejects snippets larger than 1 MiB
	DefaultMaxSourceBytes = 1 << 20
)

func language() *tree_sitter.Language {
	return tree_sitter.NewLanguage(tree_sitter_csharp.Language())
}

// Options tune how snippets are parsed and bound
type Options struct {
	// ImplicitUsings replaces the catalog's implicit usings when non-empty
	ImplicitUsings []string
	// NoImplicitUsings disables implicit usings entirely
	NoImplicitUsings bool
	MaxSourceBytes   int
	MaxDepth         int
}

// Frontend parses snippets into bound units. It is safe for concurrent use;
// tree-sitter parsers are pooled.
type Frontend struct {
	catalog *Catalog
	opts    Options
	pool    sync.Pool
}

var _ frontend.Parser = (*Frontend)(nil)

// New creates a front end binding against catalog
func New(catalog *Catalog, opts Options) *Frontend {
	if opts.MaxSourceBytes == 0 {
		opts.MaxSourceBytes = DefaultMaxSourceBytes
	}
	if opts.MaxDepth == 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	f := &Frontend{catalog: catalog, opts: opts}
	f.pool.New = func() any {
		p := tree_sitter.NewParser()
		if err := p.SetLanguage(language()); err != nil {
			debug.LogAnalysis("csharp: set language: %v\n", err)
			p.Close()
			return nil
		}
		return p
	}
	return f
}

// Catalog returns the catalog snippets bind against
func (f *Frontend) Catalog() *Catalog {
	return f.catalog
}

// Parse implements frontend.Parser
func (f *Frontend) Parse(src []byte) (frontend.Unit, error) {
	u, err := f.ParseUnit(src)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// ParseUnit parses and declares a snippet. Text that does not parse as a
// compilation unit yields an *errors.InvalidInputError positioned at the
// first syntax error.
func (f *Frontend) ParseUnit(src []byte) (*Unit, error) {
	if f.opts.MaxSourceBytes > 0 && len(src) > f.opts.MaxSourceBytes {
		return nil, sgerrors.NewInvalidInputError(1, 1, "",
			fmt.Errorf("source is %d bytes, limit is %d", len(src), f.opts.MaxSourceBytes))
	}

	p, _ := f.pool.Get().(*tree_sitter.Parser)
	if p == nil {
		return nil, sgerrors.NewInvalidInputError(1, 1, "", fmt.Errorf("C# grammar unavailable"))
	}
	tree := p.Parse(src, nil)
	f.pool.Put(p)
	if tree == nil {
		return nil, sgerrors.NewInvalidInputError(1, 1, "", fmt.Errorf("parser produced no tree"))
	}

	if bad := firstSyntaxError(tree.RootNode()); bad != nil {
		pos := bad.StartPosition()
		var token string
		var cause error
		if bad.IsMissing() {
			token = bad.Kind()
			cause = fmt.Errorf("missing %q", bad.Kind())
		} else {
			token = truncate(nodeText(bad, src), 32)
			cause = fmt.Errorf("unexpected %q", token)
		}
		tree.Close()
		return nil, sgerrors.NewInvalidInputError(int(pos.Row)+1, int(pos.Column)+1, token, cause)
	}

	fl := newFile("snippet.cs", src, tree)
	fl.implicitUsings = f.implicitUsings()

	table := metadata.NewTable()
	e := &env{
		tables:   []*metadata.Table{table, f.catalog.table},
		keywords: f.catalog.keywords,
	}
	d := newDeclarer(e, table)
	d.collect(fl)
	d.bind()
	e.extensions = []map[string][]*symbols.Method{indexExtensions(table), f.catalog.extensions}

	debug.LogAnalysis("csharp: parsed %d bytes, %d declared types\n", len(src), table.Len())
	return &Unit{
		file:   fl,
		binder: newBinder(e, fl, f.opts.MaxDepth),
	}, nil
}

func (f *Frontend) implicitUsings() []string {
	switch {
	case f.opts.NoImplicitUsings:
		return nil
	case len(f.opts.ImplicitUsings) > 0:
		return f.opts.ImplicitUsings
	}
	return f.catalog.implicitUsings
}
