package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/snippetgate/internal/frontend"
	"github.com/standardbeagle/snippetgate/internal/symbols"
)

type fakeNode struct {
	kind   frontend.NodeKind
	line   int
	text   string
	syntax frontend.TypeSyntax
	sym    symbols.Symbol
}

func (n *fakeNode) Kind() frontend.NodeKind                 { return n.kind }
func (n *fakeNode) Position() frontend.Position             { return frontend.Position{Line: n.line, Column: 1} }
func (n *fakeNode) Text() string                            { return n.text }
func (n *fakeNode) DeclaredTypeSyntax() frontend.TypeSyntax { return n.syntax }

type fakeUnit struct {
	nodes   []*fakeNode
	visited []frontend.NodeKind
}

func (u *fakeUnit) Visit(kind frontend.NodeKind, fn func(frontend.Node)) {
	u.visited = append(u.visited, kind)
	for _, n := range u.nodes {
		if n.kind == kind {
			fn(n)
		}
	}
}

func (u *fakeUnit) Resolve(n frontend.Node) (symbols.Symbol, bool) {
	fn := n.(*fakeNode)
	return fn.sym, fn.sym != nil
}

func (u *fakeUnit) Close() {}

var (
	intType    = &symbols.Type{Name: "Int32", Namespace: "System", Keyword: "int", TypeKind: symbols.TypeKindStruct}
	stringType = &symbols.Type{Name: "String", Namespace: "System", Keyword: "string"}
	console    = &symbols.Type{Name: "Console", Namespace: "System", Static: true}
	writeLine  = &symbols.Method{Name: "WriteLine", Containing: console, Static: true,
		Parameters: []*symbols.Parameter{{Name: "value", Type: stringType}}}
	ctor   = &symbols.Method{Name: symbols.ConstructorName, Containing: stringType}
	length = &symbols.Property{Name: "Length", Containing: stringType, Type: intType, HasGet: true}
)

func TestVariableTypes(t *testing.T) {
	u := &fakeUnit{nodes: []*fakeNode{
		{kind: frontend.NodeVariableDeclaration, line: 1, text: "int x = 5", syntax: frontend.TypeSyntaxPredefined, sym: intType},
		{kind: frontend.NodeVariableDeclaration, line: 2, text: "Missing m = null"},
		{kind: frontend.NodeExpression, line: 2, text: "null"},
		{kind: frontend.NodeVariableDeclaration, line: 3, text: "var s = \"a\"", syntax: frontend.TypeSyntaxImplicit, sym: stringType},
		{kind: frontend.NodeVariableDeclaration, line: 4, text: "int y = 6", syntax: frontend.TypeSyntaxPredefined, sym: intType},
	}}

	res := VariableTypes(u)
	require.Len(t, res.Items, 3)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, []frontend.NodeKind{frontend.NodeVariableDeclaration}, u.visited)

	assert.Same(t, intType, res.Items[0].Symbol)
	assert.Same(t, stringType, res.Items[1].Symbol)
	assert.Same(t, intType, res.Items[2].Symbol)
	assert.Equal(t, frontend.TypeSyntaxImplicit, res.Items[1].Syntax)
	assert.Equal(t, 3, res.Items[1].Position.Line)
	assert.Equal(t, "var s = \"a\"", res.Items[1].Text)
}

func TestMethodReferences(t *testing.T) {
	u := &fakeUnit{nodes: []*fakeNode{
		{kind: frontend.NodeExpression, line: 1, text: "Console.WriteLine(s)", sym: writeLine},
		{kind: frontend.NodeExpression, line: 1, text: "s", sym: &symbols.Local{Name: "s", Type: stringType}},
		{kind: frontend.NodeExpression, line: 2, text: "new string('a', 3)", sym: ctor},
		{kind: frontend.NodeExpression, line: 3, text: "s.Length", sym: length},
		{kind: frontend.NodeExpression, line: 4, text: "undefined()"},
		{kind: frontend.NodeExpression, line: 5, text: "Console.WriteLine(t)", sym: writeLine},
	}}

	res := MethodReferences(u)
	require.Len(t, res.Items, 2)
	assert.Zero(t, res.Skipped)
	assert.Equal(t, []symbols.Symbol{writeLine, writeLine}, res.Symbols())
	assert.Equal(t, 1, res.Items[0].Position.Line)
	assert.Equal(t, 5, res.Items[1].Position.Line)
	assert.Equal(t, frontend.TypeSyntaxNone, res.Items[0].Syntax)
}

func TestEmptyUnit(t *testing.T) {
	res := VariableTypes(&fakeUnit{})
	assert.NotNil(t, res.Items)
	assert.Empty(t, res.Items)

	res = MethodReferences(nil)
	assert.NotNil(t, res.Items)
	assert.Empty(t, res.Symbols())
}
