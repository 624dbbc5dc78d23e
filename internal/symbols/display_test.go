package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture builds a small slice of the BCL by hand
type fixture struct {
	object, int32, str, void, boolean *Type
	nullable, list, dict, console    *Type
	listT, nullableT                 *Type
}

func newFixture() *fixture {
	fx := &fixture{}
	fx.object = &Type{Name: "Object", Namespace: "System", Keyword: "object"}
	fx.int32 = &Type{Name: "Int32", Namespace: "System", Keyword: "int", TypeKind: TypeKindStruct}
	fx.str = &Type{Name: "String", Namespace: "System", Keyword: "string"}
	fx.void = &Type{Name: "Void", Namespace: "System", Keyword: "void", TypeKind: TypeKindStruct}
	fx.boolean = &Type{Name: "Boolean", Namespace: "System", Keyword: "bool", TypeKind: TypeKindStruct}

	fx.nullableT = NewTypeParameter("T", 0)
	fx.nullable = &Type{Name: "Nullable", Namespace: "System", TypeKind: TypeKindStruct, TypeParameters: []*Type{fx.nullableT}}

	fx.listT = NewTypeParameter("T", 0)
	fx.list = &Type{Name: "List", Namespace: "System.Collections.Generic", TypeParameters: []*Type{fx.listT}}
	fx.list.Members = []Symbol{
		&Method{Name: "Add", Containing: fx.list, ReturnType: fx.void, Parameters: []*Parameter{{Name: "item", Type: fx.listT}}},
		&Property{Name: "Count", Containing: fx.list, Type: fx.int32, HasGet: true},
		&Property{Name: "Item", Containing: fx.list, Type: fx.listT, HasGet: true, HasSet: true, IsIndexer: true,
			Parameters: []*Parameter{{Name: "index", Type: fx.int32}}},
	}

	k := NewTypeParameter("TKey", 0)
	v := NewTypeParameter("TValue", 1)
	fx.dict = &Type{Name: "Dictionary", Namespace: "System.Collections.Generic", TypeParameters: []*Type{k, v}}

	fx.console = &Type{Name: "Console", Namespace: "System", Static: true}
	return fx
}

func TestTypeQualifiedFormat(t *testing.T) {
	fx := newFixture()

	tests := []struct {
		name string
		typ  *Type
		want string
	}{
		{"special type", fx.int32, "System.Int32"},
		{"nullable collapses to sigil", Construct(fx.nullable, []*Type{fx.int32}), "System.Int32?"},
		{"generic arguments omitted", Construct(fx.list, []*Type{fx.int32}), "System.Collections.Generic.List"},
		{"array", NewArray(fx.str, 1), "System.String[]"},
		{"multi-dimensional array", NewArray(fx.int32, 2), "System.Int32[,]"},
		{"global namespace", &Type{Name: "Widget"}, "Widget"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToDisplayString(tt.typ, TypeQualifiedFormat))
		})
	}
}

func TestFullyQualifiedGenericFormat(t *testing.T) {
	fx := newFixture()

	list := Construct(fx.list, []*Type{fx.int32})
	assert.Equal(t, "System.Collections.Generic.List<System.Int32>", ToDisplayString(list, FullyQualifiedGenericFormat))

	nested := Construct(fx.dict, []*Type{fx.str, Construct(fx.list, []*Type{Construct(fx.nullable, []*Type{fx.int32})})})
	assert.Equal(t,
		"System.Collections.Generic.Dictionary<System.String, System.Collections.Generic.List<System.Int32?>>",
		ToDisplayString(nested, FullyQualifiedGenericFormat))

	// Definitions render their type parameters
	assert.Equal(t, "System.Collections.Generic.List<T>", ToDisplayString(fx.list, FullyQualifiedGenericFormat))
}

func TestNestedTypeQualification(t *testing.T) {
	outer := &Type{Name: "Outer", Namespace: "App.Models"}
	inner := &Type{Name: "Inner", Containing: outer}

	assert.Equal(t, "App.Models.Outer.Inner", ToDisplayString(inner, TypeQualifiedFormat))
	assert.Equal(t, "Outer.Inner", ToDisplayString(inner, Format{Qualification: QualifyContainingTypes}))
	assert.Equal(t, "Inner", ToDisplayString(inner, Format{}))
	assert.Equal(t, "App.Models.Outer.Inner", inner.FullName())
}

func TestMethodSignatureFormat(t *testing.T) {
	fx := newFixture()

	writeLine := &Method{
		Name: "WriteLine", Containing: fx.console, Static: true, ReturnType: fx.void,
		Parameters: []*Parameter{{Name: "value", Type: fx.str}},
	}
	assert.Equal(t, "void System.Console.WriteLine(string)", ToDisplayString(writeLine, MethodSignatureFormat))

	format := &Method{
		Name: "Format", Containing: fx.str, Static: true, ReturnType: fx.str,
		Parameters: []*Parameter{
			{Name: "format", Type: fx.str},
			{Name: "args", Type: NewArray(fx.object, 1), IsParams: true},
		},
	}
	assert.Equal(t, "string string.Format(string, params object[])", ToDisplayString(format, MethodSignatureFormat))

	tryParse := &Method{
		Name: "TryParse", Containing: fx.int32, Static: true, ReturnType: fx.boolean,
		Parameters: []*Parameter{
			{Name: "s", Type: fx.str},
			{Name: "result", Type: fx.int32, RefKind: RefOut},
		},
	}
	assert.Equal(t, "bool int.TryParse(string, out int)", ToDisplayString(tryParse, MethodSignatureFormat))

	withDefault := &Method{
		Name: "Pad", Containing: &Type{Name: "Util", Namespace: "App"}, ReturnType: fx.str,
		Parameters: []*Parameter{
			{Name: "s", Type: fx.str, IsThis: true},
			{Name: "width", Type: fx.int32, HasDefault: true, Default: "10"},
		},
		IsExtension: true, Static: true,
	}
	assert.Equal(t, "string App.Util.Pad(this string, int = 10)", ToDisplayString(withDefault, MethodSignatureFormat))
}

func TestConstructedMemberSignature(t *testing.T) {
	fx := newFixture()
	listOfInt := Construct(fx.list, []*Type{fx.int32})

	members := listOfInt.MembersNamed("Add")
	require.Len(t, members, 1)
	add := members[0].(*Method)
	assert.Equal(t, "void System.Collections.Generic.List<int>.Add(int)", ToDisplayString(add, MethodSignatureFormat))
	assert.Same(t, fx.list.Members[0], add.OriginalDefinition())

	indexer := listOfInt.MembersNamed("Item")
	require.Len(t, indexer, 1)
	assert.Equal(t, "int System.Collections.Generic.List<int>.this[int] { get; set; }", ToDisplayString(indexer[0], MethodSignatureFormat))

	count := listOfInt.MembersNamed("Count")
	require.Len(t, count, 1)
	assert.Equal(t, "int System.Collections.Generic.List<int>.Count { get; }", ToDisplayString(count[0], MethodSignatureFormat))
}

func TestConstructorAndLocalFunctionDisplay(t *testing.T) {
	fx := newFixture()
	ctor := &Method{Name: ConstructorName, Containing: Construct(fx.list, []*Type{fx.int32})}
	assert.True(t, ctor.IsConstructor())
	assert.Equal(t, "System.Collections.Generic.List<int>.List()", ToDisplayString(ctor, MethodSignatureFormat))

	local := &Method{Name: "Twice", IsLocal: true, ReturnType: fx.int32, Parameters: []*Parameter{{Name: "x", Type: fx.int32}}}
	assert.Equal(t, "int Twice(int)", ToDisplayString(local, MethodSignatureFormat))
}

func TestOperatorDisplay(t *testing.T) {
	fx := newFixture()
	money := &Type{Name: "Money", Namespace: "Shop", TypeKind: TypeKindStruct}
	add := &Method{Name: "op_Addition", Operator: "+", Containing: money, Static: true, ReturnType: money,
		Parameters: []*Parameter{{Name: "a", Type: money}, {Name: "b", Type: money}}}
	eq := &Method{Name: "op_Equality", Operator: "==", Containing: money, Static: true, ReturnType: fx.boolean,
		Parameters: []*Parameter{{Name: "a", Type: money}, {Name: "b", Type: money}}}

	assert.Equal(t, "Shop.Money Shop.Money.operator +(Shop.Money, Shop.Money)", ToDisplayString(add, MethodSignatureFormat))
	assert.Equal(t, "bool Shop.Money.operator ==(Shop.Money, Shop.Money)", ToDisplayString(eq, MethodSignatureFormat))
}

func TestGenericMethodConstruction(t *testing.T) {
	fx := newFixture()
	tp := NewTypeParameter("T", 0)
	identity := &Method{
		Name: "Identity", Containing: &Type{Name: "Helpers", Namespace: "App"}, Static: true,
		TypeParameters: []*Type{tp}, ReturnType: tp, Parameters: []*Parameter{{Name: "value", Type: tp}},
	}
	assert.Equal(t, "T App.Helpers.Identity<T>(T)", ToDisplayString(identity, MethodSignatureFormat))

	constructed := ConstructMethod(identity, []*Type{fx.str})
	assert.Equal(t, "string App.Helpers.Identity<string>(string)", ToDisplayString(constructed, MethodSignatureFormat))
	assert.Same(t, identity, constructed.OriginalDefinition())
}

func TestDisplayIsDeterministic(t *testing.T) {
	fx := newFixture()
	a := Construct(fx.dict, []*Type{fx.str, fx.int32})
	b := Construct(fx.dict, []*Type{fx.str, fx.int32})

	assert.True(t, a.Is(b))
	for i := 0; i < 5; i++ {
		assert.Equal(t, ToDisplayString(a, FullyQualifiedGenericFormat), ToDisplayString(b, FullyQualifiedGenericFormat))
	}
}

func TestTypePredicates(t *testing.T) {
	fx := newFixture()
	n := Construct(fx.nullable, []*Type{fx.int32})

	assert.True(t, n.IsNullableValueType())
	assert.False(t, Construct(fx.list, []*Type{fx.int32}).IsNullableValueType())
	assert.True(t, fx.void.IsVoid())
	assert.True(t, fx.int32.IsValueType())
	assert.False(t, fx.str.IsValueType())
	assert.True(t, NewArray(fx.int32, 1).IsArray())
	assert.True(t, NewArray(fx.int32, 1).Is(NewArray(fx.int32, 1)))
	assert.False(t, NewArray(fx.int32, 1).Is(NewArray(fx.int32, 2)))
	assert.Equal(t, 2, fx.dict.Arity())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "method", KindMethod.String())
	assert.Equal(t, "type", KindType.String())
	assert.Equal(t, "unknown", Kind(0).String())
}
