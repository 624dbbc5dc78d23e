// Package naming turns resolved symbols into the canonical strings policies
// are written against. Types and methods use separate display profiles.
package naming

import (
	"github.com/standardbeagle/snippetgate/internal/extract"
	"github.com/standardbeagle/snippetgate/internal/frontend"
	"github.com/standardbeagle/snippetgate/internal/symbols"
)

// TypeName renders the type of a variable declaration. A generic
// instantiation written out in the declaration keeps its type arguments
// unless it is Nullable<T>; everything else renders namespace-qualified
// without arguments, with Nullable<T> as T?.
func TypeName(it extract.Item) string {
	t, ok := it.Symbol.(*symbols.Type)
	if !ok {
		return ""
	}
	if it.Syntax == frontend.TypeSyntaxGeneric && !t.IsNullableValueType() {
		return symbols.ToDisplayString(t, symbols.FullyQualifiedGenericFormat)
	}
	return symbols.ToDisplayString(t, symbols.TypeQualifiedFormat)
}

// MethodName renders a method with its containing type, parameter list and
// return type, e.g. "void System.Console.WriteLine(string)". Any other
// symbol renders as "", matching the method extraction, which keeps methods
// only.
func MethodName(s symbols.Symbol) string {
	if m, ok := s.(*symbols.Method); ok {
		return symbols.ToDisplayString(m, symbols.MethodSignatureFormat)
	}
	return ""
}

// TypeNames renders every item of a variable-type extraction in order
func TypeNames(r extract.Result) []string {
	out := make([]string, 0, len(r.Items))
	for _, it := range r.Items {
		if name := TypeName(it); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// MethodNames renders every item of a method extraction in order
func MethodNames(r extract.Result) []string {
	out := make([]string, 0, len(r.Items))
	for _, it := range r.Items {
		if name := MethodName(it.Symbol); name != "" {
			out = append(out, name)
		}
	}
	return out
}
