package symbols

import "strings"

// Qualification controls how much of a type's container chain is rendered
type Qualification int

const (
	QualifyNameOnly Qualification = iota
	QualifyContainingTypes
	QualifyContainingTypesAndNamespaces
)

// Format is a display profile. The zero value renders bare simple names.
type Format struct {
	Qualification Qualification
	// Generics renders type arguments (or type parameters on definitions)
	Generics bool
	// SpecialTypeKeywords renders System.Int32 as int
	SpecialTypeKeywords bool
	// NullableSigil renders System.Nullable<T> as T?
	NullableSigil bool

	MemberContainingType bool
	MemberReturnType     bool
	MemberParameters     bool
	ParameterModifiers   bool
	ParameterDefaults    bool
	ExtensionThis        bool
	PropertyAccessors    bool
}

var (
	// TypeQualifiedFormat renders namespace and containing types only:
	// System.Int32, System.Int32?, System.Collections.Generic.List
	TypeQualifiedFormat = Format{
		Qualification: QualifyContainingTypesAndNamespaces,
		NullableSigil: true,
	}

	// FullyQualifiedGenericFormat adds type arguments:
	// System.Collections.Generic.List<System.Int32>
	FullyQualifiedGenericFormat = Format{
		Qualification: QualifyContainingTypesAndNamespaces,
		Generics:      true,
		NullableSigil: true,
	}

	// MethodSignatureFormat renders members with their full signature:
	// void System.Console.WriteLine(string)
	MethodSignatureFormat = Format{
		Qualification:        QualifyContainingTypesAndNamespaces,
		Generics:             true,
		SpecialTypeKeywords:  true,
		NullableSigil:        true,
		MemberContainingType: true,
		MemberReturnType:     true,
		MemberParameters:     true,
		ParameterModifiers:   true,
		ParameterDefaults:    true,
		ExtensionThis:        true,
		PropertyAccessors:    true,
	}
)

// ToDisplayString renders s using the given format. Rendering is a pure
// function of the symbol's structure, so equal symbols always produce equal
// strings.
func ToDisplayString(s Symbol, f Format) string {
	var b strings.Builder
	switch v := s.(type) {
	case *Type:
		writeType(&b, v, f)
	case *Method:
		writeMethod(&b, v, f)
	case *Property:
		writeProperty(&b, v, f)
	case *Field:
		if f.MemberReturnType && v.Type != nil {
			writeType(&b, v.Type, f)
			b.WriteByte(' ')
		}
		writeMemberPrefix(&b, v.Containing, f)
		b.WriteString(v.Name)
	case *Local:
		if f.MemberReturnType && v.Type != nil {
			writeType(&b, v.Type, f)
			b.WriteByte(' ')
		}
		b.WriteString(v.Name)
	case *Namespace:
		b.WriteString(v.FullName)
	}
	return b.String()
}

func writeType(b *strings.Builder, t *Type, f Format) {
	if t == nil {
		b.WriteString("?")
		return
	}

	if t.TypeKind == TypeKindArray {
		writeType(b, t.Element, f)
		b.WriteByte('[')
		for i := 1; i < t.Rank; i++ {
			b.WriteByte(',')
		}
		b.WriteByte(']')
		return
	}

	if t.TypeKind == TypeKindTypeParameter {
		b.WriteString(t.Name)
		return
	}

	if f.NullableSigil && t.IsNullableValueType() {
		writeType(b, t.TypeArguments[0], f)
		b.WriteByte('?')
		return
	}

	if f.SpecialTypeKeywords && t.Keyword != "" {
		b.WriteString(t.Keyword)
		return
	}

	def := t.OriginalDefinition()
	switch f.Qualification {
	case QualifyContainingTypesAndNamespaces:
		if def.Containing != nil {
			writeType(b, def.Containing, f)
			b.WriteByte('.')
		} else if def.Namespace != "" {
			b.WriteString(def.Namespace)
			b.WriteByte('.')
		}
	case QualifyContainingTypes:
		if def.Containing != nil {
			writeType(b, def.Containing, f)
			b.WriteByte('.')
		}
	}
	b.WriteString(def.Name)

	if !f.Generics {
		return
	}
	args := t.TypeArguments
	if len(args) == 0 {
		args = def.TypeParameters
	}
	writeTypeList(b, args, f)
}

func writeTypeList(b *strings.Builder, types []*Type, f Format) {
	if len(types) == 0 {
		return
	}
	b.WriteByte('<')
	for i, a := range types {
		if i > 0 {
			b.WriteString(", ")
		}
		writeType(b, a, f)
	}
	b.WriteByte('>')
}

func writeMemberPrefix(b *strings.Builder, containing *Type, f Format) {
	if !f.MemberContainingType || containing == nil {
		return
	}
	writeType(b, containing, f)
	b.WriteByte('.')
}

func writeMethod(b *strings.Builder, m *Method, f Format) {
	if f.MemberReturnType && !m.IsConstructor() {
		if m.ReturnType == nil {
			b.WriteString("void")
		} else {
			writeType(b, m.ReturnType, f)
		}
		b.WriteByte(' ')
	}
	if !m.IsLocal {
		writeMemberPrefix(b, m.Containing, f)
	}
	switch {
	case m.IsConstructor() && m.Containing != nil:
		b.WriteString(m.Containing.OriginalDefinition().Name)
	case m.Operator != "":
		b.WriteString("operator ")
		b.WriteString(m.Operator)
	default:
		b.WriteString(m.Name)
	}
	if f.Generics {
		args := m.TypeArguments
		if len(args) == 0 {
			args = m.TypeParameters
		}
		writeTypeList(b, args, f)
	}
	if f.MemberParameters {
		b.WriteByte('(')
		writeParameters(b, m.Parameters, f)
		b.WriteByte(')')
	}
}

func writeParameters(b *strings.Builder, params []*Parameter, f Format) {
	for i, p := range params {
		if i > 0 {
			b.WriteString(", ")
		}
		if f.ParameterModifiers {
			if p.IsThis && f.ExtensionThis {
				b.WriteString("this ")
			}
			if p.RefKind != RefNone {
				b.WriteString(p.RefKind.String())
				b.WriteByte(' ')
			}
			if p.IsParams {
				b.WriteString("params ")
			}
		}
		writeType(b, p.Type, f)
		if f.ParameterDefaults && p.HasDefault {
			b.WriteString(" = ")
			b.WriteString(p.Default)
		}
	}
}

func writeProperty(b *strings.Builder, p *Property, f Format) {
	if f.MemberReturnType && p.Type != nil {
		writeType(b, p.Type, f)
		b.WriteByte(' ')
	}
	writeMemberPrefix(b, p.Containing, f)
	if p.IsIndexer {
		b.WriteString("this[")
		writeParameters(b, p.Parameters, f)
		b.WriteByte(']')
	} else {
		b.WriteString(p.Name)
	}
	if f.PropertyAccessors {
		b.WriteString(" {")
		if p.HasGet {
			b.WriteString(" get;")
		}
		if p.HasSet {
			b.WriteString(" set;")
		}
		b.WriteString(" }")
	}
}
