// Package symbols models the semantic entities a C# snippet can refer to:
// types, methods, properties, fields and locals. Symbols are produced by the
// binder in internal/csharp and rendered to canonical strings by
// ToDisplayString.
package symbols

import "strings"

// Kind is the semantic kind of a resolved symbol
type Kind int

const (
	KindNamespace Kind = iota + 1
	KindType
	KindMethod
	KindProperty
	KindField
	KindLocal
)

func (k Kind) String() string {
	switch k {
	case KindNamespace:
		return "namespace"
	case KindType:
		return "type"
	case KindMethod:
		return "method"
	case KindProperty:
		return "property"
	case KindField:
		return "field"
	case KindLocal:
		return "local"
	default:
		return "unknown"
	}
}

// Symbol is anything the binder can resolve a syntax node to
type Symbol interface {
	Kind() Kind
	// String renders the symbol with the default display format
	String() string
}

// TypeKind distinguishes the shapes a type symbol can take
type TypeKind int

const (
	TypeKindClass TypeKind = iota
	TypeKindStruct
	TypeKindInterface
	TypeKindEnum
	TypeKindDelegate
	TypeKindArray
	TypeKindTypeParameter
)

// ConstructorName is the metadata name every constructor carries
const ConstructorName = ".ctor"

// Namespace is a resolved namespace reference such as System.IO
type Namespace struct {
	FullName string
}

func (n *Namespace) Kind() Kind     { return KindNamespace }
func (n *Namespace) String() string { return n.FullName }

// Type is a named type, a constructed generic type, an array or a type
// parameter. Definitions own TypeParameters and Members; constructed types
// point back at their Definition and carry TypeArguments.
type Type struct {
	Name       string
	Namespace  string
	Containing *Type
	TypeKind   TypeKind
	// Keyword is the C# alias for special types (int for System.Int32)
	Keyword string
	Static  bool

	TypeParameters []*Type
	TypeArguments  []*Type
	Definition     *Type

	// Arrays
	Element *Type
	Rank    int

	// Type parameters
	Ordinal int

	Base       *Type
	Interfaces []*Type
	Members    []Symbol
}

func (t *Type) Kind() Kind { return KindType }

func (t *Type) String() string {
	return ToDisplayString(t, FullyQualifiedGenericFormat)
}

// OriginalDefinition returns the generic definition of a constructed type, or
// t itself.
func (t *Type) OriginalDefinition() *Type {
	if t == nil {
		return nil
	}
	if t.Definition != nil {
		return t.Definition
	}
	return t
}

// FullName returns Namespace.Containing.Name without generic arguments. It is
// the lookup key catalogs and the binder use for named types.
func (t *Type) FullName() string {
	if t == nil {
		return ""
	}
	def := t.OriginalDefinition()
	var parts []string
	for c := def; c != nil; c = c.Containing {
		parts = append([]string{c.Name}, parts...)
		if c.Containing == nil && c.Namespace != "" {
			parts = append([]string{c.Namespace}, parts...)
		}
	}
	return strings.Join(parts, ".")
}

// Arity is the number of type parameters the definition declares
func (t *Type) Arity() int {
	return len(t.OriginalDefinition().TypeParameters)
}

// IsGenericConstruction reports whether t carries type arguments
func (t *Type) IsGenericConstruction() bool {
	return t != nil && len(t.TypeArguments) > 0
}

// IsNullableValueType reports whether t is System.Nullable<T>
func (t *Type) IsNullableValueType() bool {
	if t == nil || len(t.TypeArguments) != 1 {
		return false
	}
	def := t.OriginalDefinition()
	return def.Name == "Nullable" && def.Namespace == "System" && def.Containing == nil
}

// IsArray reports whether t is an array type
func (t *Type) IsArray() bool {
	return t != nil && t.TypeKind == TypeKindArray
}

// IsTypeParameter reports whether t is an unsubstituted type parameter
func (t *Type) IsTypeParameter() bool {
	return t != nil && t.TypeKind == TypeKindTypeParameter
}

// IsValueType reports whether t is a struct, enum or nullable value type
func (t *Type) IsValueType() bool {
	if t == nil {
		return false
	}
	k := t.OriginalDefinition().TypeKind
	return k == TypeKindStruct || k == TypeKindEnum
}

// IsVoid reports whether t is System.Void
func (t *Type) IsVoid() bool {
	return t != nil && t.Namespace == "System" && t.Name == "Void" && t.Containing == nil
}

// Is compares two types structurally. Constructed types are equal when their
// definitions and type arguments are equal.
func (t *Type) Is(other *Type) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t == other {
		return true
	}
	if t.TypeKind == TypeKindArray || other.TypeKind == TypeKindArray {
		return t.TypeKind == other.TypeKind && t.Rank == other.Rank && t.Element.Is(other.Element)
	}
	if t.OriginalDefinition() != other.OriginalDefinition() {
		return false
	}
	if len(t.TypeArguments) != len(other.TypeArguments) {
		return false
	}
	for i := range t.TypeArguments {
		if !t.TypeArguments[i].Is(other.TypeArguments[i]) {
			return false
		}
	}
	if t.Containing != nil || other.Containing != nil {
		return t.Containing.Is(other.Containing)
	}
	return true
}

// Method is a method, local function or constructor
type Method struct {
	Name           string
	Containing     *Type
	TypeParameters []*Type
	TypeArguments  []*Type
	Parameters     []*Parameter
	ReturnType     *Type
	Static         bool
	IsExtension    bool
	IsLocal        bool
	// Operator is the token of a user-defined operator, such as "+". Name
	// then holds the metadata name (op_Addition).
	Operator   string
	Definition *Method
}

func (m *Method) Kind() Kind { return KindMethod }

func (m *Method) String() string {
	return ToDisplayString(m, MethodSignatureFormat)
}

// IsConstructor reports whether m is an instance constructor
func (m *Method) IsConstructor() bool {
	return m != nil && m.Name == ConstructorName
}

// OriginalDefinition returns the unsubstituted method
func (m *Method) OriginalDefinition() *Method {
	if m.Definition != nil {
		return m.Definition
	}
	return m
}

// RefKind is the passing mode of a parameter
type RefKind int

const (
	RefNone RefKind = iota
	RefRef
	RefOut
	RefIn
)

func (r RefKind) String() string {
	switch r {
	case RefRef:
		return "ref"
	case RefOut:
		return "out"
	case RefIn:
		return "in"
	default:
		return ""
	}
}

// Parameter is one formal parameter of a method, indexer or delegate
type Parameter struct {
	Name       string
	Type       *Type
	RefKind    RefKind
	IsParams   bool
	IsThis     bool
	HasDefault bool
	// Default is the display text of the default value ("0", "null", "\"x\"")
	Default string
}

// Property is a property or indexer
type Property struct {
	Name       string
	Containing *Type
	Type       *Type
	Parameters []*Parameter
	HasGet     bool
	HasSet     bool
	Static     bool
	IsIndexer  bool
}

func (p *Property) Kind() Kind { return KindProperty }

func (p *Property) String() string {
	return ToDisplayString(p, MethodSignatureFormat)
}

// Field is a field, constant or enum member
type Field struct {
	Name       string
	Containing *Type
	Type       *Type
	Static     bool
	Const      bool
}

func (f *Field) Kind() Kind { return KindField }

func (f *Field) String() string {
	return ToDisplayString(f, MethodSignatureFormat)
}

// Local is a local variable, parameter or range variable. Type is nil when the
// declaration could not be bound.
type Local struct {
	Name        string
	Type        *Type
	IsParameter bool
}

func (l *Local) Kind() Kind { return KindLocal }

func (l *Local) String() string {
	return ToDisplayString(l, MethodSignatureFormat)
}
