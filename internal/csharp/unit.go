package csharp

import (
	"sort"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/snippetgate/internal/frontend"
	"github.com/standardbeagle/snippetgate/internal/symbols"
)

// Unit is one parsed and declared snippet. Binding happens lazily as nodes
// are resolved and is memoized, so a Unit must not be shared between
// goroutines.
type Unit struct {
	file   *file
	binder *binder

	prebound bool
}

var _ frontend.Unit = (*Unit)(nil)

// node adapts a tree-sitter node to frontend.Node
type node struct {
	unit *Unit
	n    *tree_sitter.Node
	kind frontend.NodeKind
}

func (n *node) Kind() frontend.NodeKind {
	return n.kind
}

func (n *node) Position() frontend.Position {
	p := n.n.StartPosition()
	return frontend.Position{Line: int(p.Row) + 1, Column: int(p.Column) + 1}
}

func (n *node) Text() string {
	return n.unit.file.text(n.n)
}

func (n *node) DeclaredTypeSyntax() frontend.TypeSyntax {
	if n.kind != frontend.NodeVariableDeclaration {
		return frontend.TypeSyntaxNone
	}
	typeNode := field(n.n, "type")
	if typeNode == nil {
		return frontend.TypeSyntaxNone
	}
	if n.unit.binder.isImplicitType(typeNode) {
		return frontend.TypeSyntaxImplicit
	}
	switch typeNode.Kind() {
	case kindPredefinedType:
		return frontend.TypeSyntaxPredefined
	case kindIdentifier:
		return frontend.TypeSyntaxSimple
	case kindGenericName:
		return frontend.TypeSyntaxGeneric
	case kindQualifiedName, kindAliasQualified:
		return frontend.TypeSyntaxQualified
	case kindNullableType:
		return frontend.TypeSyntaxNullable
	case kindArrayType:
		return frontend.TypeSyntaxArray
	}
	return frontend.TypeSyntaxOther
}

// Visit calls fn for every node of kind in document order
func (u *Unit) Visit(kind frontend.NodeKind, fn func(frontend.Node)) {
	if u.file.tree == nil {
		return
	}
	walk(u.file.root, func(n *tree_sitter.Node) bool {
		switch kind {
		case frontend.NodeVariableDeclaration:
			if n.Kind() == kindVariableDeclaration {
				fn(&node{unit: u, n: n, kind: kind})
			}
		case frontend.NodeExpression:
			if isExpression(n, u.file.parent(n)) {
				fn(&node{unit: u, n: n, kind: kind})
			}
		}
		return true
	})
}

// Resolve returns the symbol a visited node refers to. Nodes from another
// unit never resolve.
func (u *Unit) Resolve(fn frontend.Node) (symbols.Symbol, bool) {
	n, ok := fn.(*node)
	if !ok || n.unit != u || u.file.tree == nil {
		return nil, false
	}
	u.prebind()
	switch n.kind {
	case frontend.NodeVariableDeclaration:
		if t := u.binder.declaredType(n.n); t != nil {
			return t, true
		}
	case frontend.NodeExpression:
		if s := u.binder.symbolFor(n.n); s != nil {
			return s, true
		}
	}
	return nil, false
}

// prebind binds every expression deepest first when the tree is too deep
// for top-down binding to stay under the recursion limit. Each bind then
// finds its operands memoized, so long call chains still resolve.
func (u *Unit) prebind() {
	if u.prebound {
		return
	}
	u.prebound = true
	if u.file.index().depth*2 < u.binder.maxDepth {
		return
	}

	type deepNode struct {
		n     *tree_sitter.Node
		depth int
	}
	var exprs []deepNode
	stack := []deepNode{{u.file.root, 0}}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if isExpression(cur.n, u.file.parent(cur.n)) {
			exprs = append(exprs, cur)
		}
		for _, c := range namedChildren(cur.n) {
			stack = append(stack, deepNode{c, cur.depth + 1})
		}
	}
	sort.SliceStable(exprs, func(i, j int) bool {
		return exprs[i].depth > exprs[j].depth
	})
	for _, e := range exprs {
		u.binder.bind(e.n)
	}
}

// Source returns the snippet text
func (u *Unit) Source() []byte {
	return u.file.src
}

// Close releases the syntax tree. Nodes of a closed unit no longer resolve.
func (u *Unit) Close() {
	u.file.close()
}
