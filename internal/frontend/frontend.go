// Package frontend defines the narrow capability interface the analysis core
// needs from a compiler front end: parse source text, walk the closed set of
// node kinds the extractor cares about, and resolve a node to a symbol.
package frontend

import "github.com/standardbeagle/snippetgate/internal/symbols"

// NodeKind is the closed set of syntax node kinds the extractor visits
type NodeKind int

const (
	NodeVariableDeclaration NodeKind = iota + 1
	NodeExpression
)

func (k NodeKind) String() string {
	switch k {
	case NodeVariableDeclaration:
		return "variable_declaration"
	case NodeExpression:
		return "expression"
	default:
		return "unknown"
	}
}

// TypeSyntax classifies the type annotation of a variable declaration
type TypeSyntax int

const (
	TypeSyntaxNone TypeSyntax = iota
	TypeSyntaxPredefined
	TypeSyntaxSimple
	TypeSyntaxGeneric
	TypeSyntaxQualified
	TypeSyntaxNullable
	TypeSyntaxArray
	TypeSyntaxImplicit
	TypeSyntaxOther
)

func (s TypeSyntax) String() string {
	switch s {
	case TypeSyntaxPredefined:
		return "predefined"
	case TypeSyntaxSimple:
		return "simple"
	case TypeSyntaxGeneric:
		return "generic"
	case TypeSyntaxQualified:
		return "qualified"
	case TypeSyntaxNullable:
		return "nullable"
	case TypeSyntaxArray:
		return "array"
	case TypeSyntaxImplicit:
		return "implicit"
	case TypeSyntaxOther:
		return "other"
	default:
		return "none"
	}
}

// Position is a 1-based line/column location in the source text
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Node is one visited syntax node
type Node interface {
	Kind() NodeKind
	Position() Position
	Text() string
	// DeclaredTypeSyntax classifies the type annotation of a variable
	// declaration. Expressions report TypeSyntaxNone.
	DeclaredTypeSyntax() TypeSyntax
}

// Unit is a parsed and bound source unit. It is immutable and owned by one
// analysis call.
type Unit interface {
	// Visit calls fn for every node of the given kind in document order
	Visit(kind NodeKind, fn func(Node))
	// Resolve returns the symbol a node refers to. Variable declarations
	// resolve to their declared type; expressions to what they reference.
	// The second result is false when the node cannot be resolved.
	Resolve(n Node) (symbols.Symbol, bool)
	// Close releases the underlying syntax tree
	Close()
}

// Parser turns source text into a Unit. Implementations return an
// *errors.InvalidInputError for text that is not a usable compilation unit.
type Parser interface {
	Parse(source []byte) (Unit, error)
}
