// Package extract walks a parsed unit and collects the symbols a snippet
// uses: the declared type of every variable declaration and the method
// behind every expression.
package extract

import (
	"github.com/standardbeagle/snippetgate/internal/debug"
	"github.com/standardbeagle/snippetgate/internal/frontend"
	"github.com/standardbeagle/snippetgate/internal/symbols"
)

// Item is one extracted symbol together with the node it came from
type Item struct {
	Kind     frontend.NodeKind
	Position frontend.Position
	Text     string
	Symbol   symbols.Symbol
	// Syntax classifies the declared type annotation of variable
	// declarations; it is TypeSyntaxNone for expressions
	Syntax frontend.TypeSyntax
}

// Result is the ordered output of one extraction. Skipped counts nodes of
// the visited kind that were dropped because they did not resolve.
type Result struct {
	Items   []Item
	Skipped int
}

// keepFunc decides whether a resolved symbol is kept for a node kind
type keepFunc func(symbols.Symbol) bool

// visitors is the closed set of node kinds the extractor understands, each
// with its own filter
var visitors = map[frontend.NodeKind]keepFunc{
	frontend.NodeVariableDeclaration: keepType,
	frontend.NodeExpression:          keepMethod,
}

func keepType(s symbols.Symbol) bool {
	return s.Kind() == symbols.KindType
}

// keepMethod keeps methods other than constructors
func keepMethod(s symbols.Symbol) bool {
	m, ok := s.(*symbols.Method)
	return ok && !m.IsConstructor()
}

// VariableTypes resolves the declared type of every variable declaration in
// document order. Declarations whose type does not resolve are skipped.
func VariableTypes(u frontend.Unit) Result {
	return extract(u, frontend.NodeVariableDeclaration)
}

// MethodReferences resolves every expression in document order and keeps
// the ones that refer to a method. Constructors are not reported.
func MethodReferences(u frontend.Unit) Result {
	return extract(u, frontend.NodeExpression)
}

func extract(u frontend.Unit, kind frontend.NodeKind) Result {
	keep, ok := visitors[kind]
	if !ok || u == nil {
		return Result{Items: []Item{}}
	}
	res := Result{Items: []Item{}}
	u.Visit(kind, func(n frontend.Node) {
		sym, resolved := u.Resolve(n)
		if !resolved || sym == nil {
			if kind == frontend.NodeVariableDeclaration {
				pos := n.Position()
				debug.LogAnalysis("extract: unresolved declaration at %d:%d: %s\n", pos.Line, pos.Column, n.Text())
				res.Skipped++
			}
			return
		}
		if !keep(sym) {
			return
		}
		res.Items = append(res.Items, Item{
			Kind:     kind,
			Position: n.Position(),
			Text:     n.Text(),
			Symbol:   sym,
			Syntax:   n.DeclaredTypeSyntax(),
		})
	})
	return res
}

// Symbols returns the symbols of the items in order
func (r Result) Symbols() []symbols.Symbol {
	out := make([]symbols.Symbol, len(r.Items))
	for i, it := range r.Items {
		out[i] = it.Symbol
	}
	return out
}
