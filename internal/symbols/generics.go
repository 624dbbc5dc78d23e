package symbols

// Substitution maps type parameters to the type arguments that replace them
type Substitution map[*Type]*Type

// Construct instantiates a generic definition with type arguments
func Construct(def *Type, args []*Type) *Type {
	def = def.OriginalDefinition()
	return &Type{
		Name:          def.Name,
		Namespace:     def.Namespace,
		Containing:    def.Containing,
		TypeKind:      def.TypeKind,
		Keyword:       def.Keyword,
		Static:        def.Static,
		TypeArguments: args,
		Definition:    def,
	}
}

// NewArray creates an array type of the given element type and rank
func NewArray(element *Type, rank int) *Type {
	if rank < 1 {
		rank = 1
	}
	return &Type{
		Name:     "Array",
		TypeKind: TypeKindArray,
		Element:  element,
		Rank:     rank,
	}
}

// NewTypeParameter creates a type parameter at the given position
func NewTypeParameter(name string, ordinal int) *Type {
	return &Type{
		Name:     name,
		TypeKind: TypeKindTypeParameter,
		Ordinal:  ordinal,
	}
}

// Substitution returns the mapping from t's definition type parameters to its
// type arguments. It is nil for non-generic types and for definitions.
func (t *Type) Substitution() Substitution {
	if t == nil || !t.IsGenericConstruction() {
		return nil
	}
	def := t.OriginalDefinition()
	s := make(Substitution, len(def.TypeParameters))
	for i, p := range def.TypeParameters {
		if i < len(t.TypeArguments) {
			s[p] = t.TypeArguments[i]
		}
	}
	return s
}

// Apply replaces every type parameter in t that s maps
func (s Substitution) Apply(t *Type) *Type {
	if t == nil || len(s) == 0 {
		return t
	}
	switch {
	case t.TypeKind == TypeKindTypeParameter:
		if r, ok := s[t]; ok && r != nil {
			return r
		}
		return t
	case t.TypeKind == TypeKindArray:
		el := s.Apply(t.Element)
		if el == t.Element {
			return t
		}
		return NewArray(el, t.Rank)
	case len(t.TypeArguments) > 0:
		changed := false
		args := make([]*Type, len(t.TypeArguments))
		for i, a := range t.TypeArguments {
			args[i] = s.Apply(a)
			if args[i] != a {
				changed = true
			}
		}
		if !changed {
			return t
		}
		return Construct(t, args)
	}
	return t
}

// Merge returns a substitution holding the entries of s and o. Entries of o
// win on conflict.
func (s Substitution) Merge(o Substitution) Substitution {
	if len(s) == 0 {
		return o
	}
	if len(o) == 0 {
		return s
	}
	out := make(Substitution, len(s)+len(o))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range o {
		out[k] = v
	}
	return out
}

func (s Substitution) applyParams(params []*Parameter) []*Parameter {
	if len(s) == 0 {
		return params
	}
	out := make([]*Parameter, len(params))
	for i, p := range params {
		cp := *p
		cp.Type = s.Apply(p.Type)
		out[i] = &cp
	}
	return out
}

// ApplyMethod returns m as a member of the constructed type containing, with
// every signature type substituted.
func (s Substitution) ApplyMethod(m *Method, containing *Type) *Method {
	if len(s) == 0 && containing == m.Containing {
		return m
	}
	cp := *m
	cp.Containing = containing
	cp.Parameters = s.applyParams(m.Parameters)
	cp.ReturnType = s.Apply(m.ReturnType)
	cp.Definition = m.OriginalDefinition()
	return &cp
}

// ConstructMethod instantiates a generic method with type arguments
func ConstructMethod(m *Method, args []*Type) *Method {
	if len(m.TypeParameters) == 0 || len(args) != len(m.TypeParameters) {
		return m
	}
	s := make(Substitution, len(args))
	for i, p := range m.TypeParameters {
		s[p] = args[i]
	}
	cp := *m
	cp.TypeArguments = args
	cp.Parameters = s.applyParams(m.Parameters)
	cp.ReturnType = s.Apply(m.ReturnType)
	if m.Definition == nil {
		cp.Definition = m
	}
	return &cp
}

// MembersNamed returns the members of t declared with the given name, as seen
// through t's type arguments. Inherited members are not included.
func (t *Type) MembersNamed(name string) []Symbol {
	if t == nil {
		return nil
	}
	def := t.OriginalDefinition()
	sub := t.Substitution()
	var out []Symbol
	for _, member := range def.Members {
		switch m := member.(type) {
		case *Method:
			if m.Name == name {
				out = append(out, sub.ApplyMethod(m, t))
			}
		case *Property:
			if m.Name == name {
				if len(sub) == 0 {
					out = append(out, m)
					continue
				}
				cp := *m
				cp.Containing = t
				cp.Type = sub.Apply(m.Type)
				cp.Parameters = sub.applyParams(m.Parameters)
				out = append(out, &cp)
			}
		case *Field:
			if m.Name == name {
				if len(sub) == 0 {
					out = append(out, m)
					continue
				}
				cp := *m
				cp.Containing = t
				cp.Type = sub.Apply(m.Type)
				out = append(out, &cp)
			}
		case *Type:
			if m.Name == name {
				out = append(out, m)
			}
		}
	}
	return out
}

// Constructors returns the instance constructors declared on t
func (t *Type) Constructors() []*Method {
	var out []*Method
	for _, s := range t.MembersNamed(ConstructorName) {
		if m, ok := s.(*Method); ok {
			out = append(out, m)
		}
	}
	return out
}

// BaseType returns t's base class with t's type arguments applied
func (t *Type) BaseType() *Type {
	if t == nil {
		return nil
	}
	return t.Substitution().Apply(t.OriginalDefinition().Base)
}

// DirectInterfaces returns the interfaces t declares with t's type arguments
// applied
func (t *Type) DirectInterfaces() []*Type {
	if t == nil {
		return nil
	}
	def := t.OriginalDefinition()
	sub := t.Substitution()
	out := make([]*Type, len(def.Interfaces))
	for i, iface := range def.Interfaces {
		out[i] = sub.Apply(iface)
	}
	return out
}
