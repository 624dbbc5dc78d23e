package csharp

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/snippetgate/internal/metadata"
	"github.com/standardbeagle/snippetgate/internal/symbols"
)

// declarer turns declaration syntax into symbols. Declaring is split in two
// phases: every file's types are registered first, then bases and members are
// bound, so a member signature may refer to a type declared later or in
// another file.
type declarer struct {
	env      *env
	table    *metadata.Table
	keywords map[string]string // full name -> keyword
	pending  []pendingType
}

type pendingType struct {
	r    *resolver
	node *tree_sitter.Node
	typ  *symbols.Type
}

func newDeclarer(e *env, table *metadata.Table) *declarer {
	rev := make(map[string]string, len(e.keywords))
	for kw, full := range e.keywords {
		rev[full] = kw
	}
	return &declarer{env: e, table: table, keywords: rev}
}

// collect registers the types declared in f
func (d *declarer) collect(f *file) {
	r := &resolver{env: d.env, file: f}
	d.collectIn(r, f.root, "", nil)
}

func (d *declarer) collectIn(r *resolver, n *tree_sitter.Node, ns string, containing *symbols.Type) {
	for _, c := range namedChildren(n) {
		kind := c.Kind()
		switch {
		case kind == kindNamespace:
			full := joinName(ns, compactText(field(c, "name"), r.file.src))
			if body := field(c, "body"); body != nil {
				d.collectIn(r, body, full, nil)
			}
		case kind == kindFileScopedNamespace:
			// members follow the declaration as siblings
			ns = joinName(ns, compactText(field(c, "name"), r.file.src))
			d.collectIn(r, c, ns, nil)
		case typeDeclarationKinds[kind]:
			d.declareType(r, c, ns, containing)
		case kind == kindDeclarationList:
			d.collectIn(r, c, ns, containing)
		}
	}
}

func typeKindOf(n *tree_sitter.Node, src []byte) symbols.TypeKind {
	switch n.Kind() {
	case kindStruct:
		return symbols.TypeKindStruct
	case kindInterface:
		return symbols.TypeKindInterface
	case kindEnum:
		return symbols.TypeKindEnum
	case kindDelegate:
		return symbols.TypeKindDelegate
	case kindRecord:
		if hasToken(n, src, "struct") {
			return symbols.TypeKindStruct
		}
	}
	return symbols.TypeKindClass
}

func typeParameters(n *tree_sitter.Node, src []byte) []*symbols.Type {
	list := field(n, "type_parameters")
	if list == nil {
		list = childOfKind(n, kindTypeParameterList)
	}
	var out []*symbols.Type
	for i, tp := range childrenOfKind(list, kindTypeParameter) {
		out = append(out, symbols.NewTypeParameter(declName(tp, src), i))
	}
	return out
}

func (d *declarer) declareType(r *resolver, n *tree_sitter.Node, ns string, containing *symbols.Type) {
	name := declName(n, r.file.src)
	if name == "" {
		return
	}
	mods := modifiers(n, r.file.src)
	typ := &symbols.Type{
		Name:           name,
		TypeKind:       typeKindOf(n, r.file.src),
		Static:         mods["static"],
		TypeParameters: typeParameters(n, r.file.src),
	}
	if containing != nil {
		typ.Containing = containing
	} else {
		typ.Namespace = ns
	}
	if len(typ.TypeParameters) == 0 {
		typ.Keyword = d.keywords[typ.FullName()]
	}

	if existing := d.table.Add(typ); existing != typ {
		// partial declaration of a type already seen
		typ = existing
		typ.Static = typ.Static || mods["static"]
	} else if containing != nil {
		containing.Members = append(containing.Members, typ)
	}
	r.file.types[n.Id()] = typ
	d.pending = append(d.pending, pendingType{r: r, node: n, typ: typ})

	if body := childOfKind(n, kindDeclarationList); body != nil {
		d.collectIn(r, body, ns, typ)
	}
}

// bind binds bases and members of every collected type
func (d *declarer) bind() {
	for _, p := range d.pending {
		d.bindBases(p)
	}
	for _, p := range d.pending {
		d.bindMembers(p)
	}
	d.pending = nil
}

func (d *declarer) bindBases(p pendingType) {
	r, n, typ := p.r, p.node, p.typ
	sc := r.scopeAt(n)
	if list := childOfKind(n, kindBaseList); list != nil && typ.TypeKind != symbols.TypeKindEnum {
		for _, b := range namedChildren(list) {
			switch b.Kind() {
			case kindArgumentList:
				continue
			case kindPrimaryCtorBase:
				b = elementTypeNode(b)
			}
			bt := r.bindType(b, sc)
			if bt == nil || bt == typ {
				continue
			}
			if bt.OriginalDefinition().TypeKind == symbols.TypeKindInterface {
				typ.Interfaces = append(typ.Interfaces, bt)
			} else if typ.TypeKind == symbols.TypeKindClass && typ.Base == nil {
				typ.Base = bt
			}
		}
	}
	if typ.Base != nil || typ.TypeKind == symbols.TypeKindInterface {
		return
	}
	switch typ.TypeKind {
	case symbols.TypeKindStruct:
		typ.Base = d.env.system("ValueType", 0)
	case symbols.TypeKindEnum:
		typ.Base = d.env.system("Enum", 0)
	default:
		typ.Base = d.env.system("Object", 0)
	}
	if typ.Base == typ {
		typ.Base = nil
	}
}

func (d *declarer) bindMembers(p pendingType) {
	r, n, typ := p.r, p.node, p.typ
	sc := r.scopeAt(n)
	src := r.file.src

	switch typ.TypeKind {
	case symbols.TypeKindDelegate:
		invoke := &symbols.Method{
			Name:       "Invoke",
			Containing: typ,
			ReturnType: r.bindType(field(n, "type", "returns"), sc),
			Parameters: bindParameters(r, field(n, "parameters"), sc),
		}
		typ.Members = append(typ.Members, invoke)
		return
	case symbols.TypeKindEnum:
		body := field(n, "body")
		if body == nil {
			body = childOfKind(n, "enum_member_declaration_list")
		}
		for _, m := range childrenOfKind(body, kindEnumMember) {
			typ.Members = append(typ.Members, &symbols.Field{
				Name: declName(m, src), Containing: typ, Type: typ, Static: true, Const: true,
			})
		}
		return
	}

	hasCtor := false
	if n.Kind() == kindRecord {
		if plist := childOfKind(n, kindParameterList); plist != nil {
			params := bindParameters(r, plist, sc)
			for _, prm := range params {
				typ.Members = append(typ.Members, &symbols.Property{
					Name: prm.Name, Containing: typ, Type: prm.Type, HasGet: true, HasSet: true,
				})
			}
			typ.Members = append(typ.Members, &symbols.Method{
				Name: symbols.ConstructorName, Containing: typ, Parameters: params,
			})
			hasCtor = true
		}
	}

	body := childOfKind(n, kindDeclarationList)
	for _, m := range namedChildren(body) {
		switch m.Kind() {
		case kindMethod:
			if method := d.method(r, m, typ, sc); method != nil {
				typ.Members = append(typ.Members, method)
			}
		case kindOperator:
			if op := d.operator(r, m, typ, sc); op != nil {
				typ.Members = append(typ.Members, op)
			}
		case kindConstructor:
			if modifiers(m, src)["static"] {
				continue
			}
			ctor := &symbols.Method{
				Name:       symbols.ConstructorName,
				Containing: typ,
				Parameters: bindParameters(r, field(m, "parameters"), sc),
			}
			r.file.methods[m.Id()] = ctor
			typ.Members = append(typ.Members, ctor)
			hasCtor = true
		case kindProperty:
			typ.Members = append(typ.Members, d.property(r, m, typ, sc))
		case kindIndexer:
			prop := d.property(r, m, typ, sc)
			prop.Name = "Item"
			prop.IsIndexer = true
			prop.Parameters = bindParameters(r, field(m, "parameters"), sc)
			typ.Members = append(typ.Members, prop)
		case kindField, kindEventField:
			mods := modifiers(m, src)
			decl := childOfKind(m, kindVariableDeclaration)
			ft := r.bindType(field(decl, "type"), sc)
			for _, v := range childrenOfKind(decl, kindVariableDeclarator) {
				typ.Members = append(typ.Members, &symbols.Field{
					Name:       declName(v, src),
					Containing: typ,
					Type:       ft,
					Static:     mods["static"] || mods["const"] || typ.Static,
					Const:      mods["const"],
				})
			}
		case kindEvent:
			typ.Members = append(typ.Members, &symbols.Field{
				Name:       declName(m, src),
				Containing: typ,
				Type:       r.bindType(field(m, "type"), sc),
				Static:     modifiers(m, src)["static"] || typ.Static,
			})
		}
	}

	if !hasCtor && !typ.Static && (typ.TypeKind == symbols.TypeKindClass || typ.TypeKind == symbols.TypeKindStruct) {
		typ.Members = append(typ.Members, &symbols.Method{Name: symbols.ConstructorName, Containing: typ})
	}
}

func (d *declarer) method(r *resolver, n *tree_sitter.Node, typ *symbols.Type, sc *scope) *symbols.Method {
	src := r.file.src
	name := declName(n, src)
	if name == "" {
		return nil
	}
	mods := modifiers(n, src)
	m := &symbols.Method{
		Name:           name,
		Containing:     typ,
		Static:         mods["static"] || typ.Static,
		TypeParameters: typeParameters(n, src),
	}
	msc := sc.withTypeParams(m.TypeParameters)
	m.ReturnType = r.bindType(field(n, "returns", "type"), msc)
	m.Parameters = bindParameters(r, field(n, "parameters"), msc)
	m.IsExtension = m.Static && len(m.Parameters) > 0 && m.Parameters[0].IsThis
	r.file.methods[n.Id()] = m
	return m
}

// operator declares a user-defined operator under its metadata name
func (d *declarer) operator(r *resolver, n *tree_sitter.Node, typ *symbols.Type, sc *scope) *symbols.Method {
	tok := field(n, "operator")
	if tok == nil {
		return nil
	}
	op := strings.TrimSpace(nodeText(tok, r.file.src))
	params := bindParameters(r, field(n, "parameters"), sc)
	name := operatorName(op, len(params))
	if name == "" {
		return nil
	}
	m := &symbols.Method{
		Name:       name,
		Operator:   op,
		Containing: typ,
		Static:     true,
		ReturnType: r.bindType(field(n, "type", "returns"), sc),
		Parameters: params,
	}
	r.file.methods[n.Id()] = m
	return m
}

var (
	unaryOperatorNames = map[string]string{
		"+": "op_UnaryPlus", "-": "op_UnaryNegation", "!": "op_LogicalNot", "~": "op_OnesComplement",
		"++": "op_Increment", "--": "op_Decrement", "true": "op_True", "false": "op_False",
	}
	binaryOperatorNames = map[string]string{
		"+": "op_Addition", "-": "op_Subtraction", "*": "op_Multiply", "/": "op_Division",
		"%": "op_Modulus", "&": "op_BitwiseAnd", "|": "op_BitwiseOr", "^": "op_ExclusiveOr",
		"<<": "op_LeftShift", ">>": "op_RightShift", ">>>": "op_UnsignedRightShift",
		"==": "op_Equality", "!=": "op_Inequality", "<": "op_LessThan", ">": "op_GreaterThan",
		"<=": "op_LessThanOrEqual", ">=": "op_GreaterThanOrEqual",
	}
)

// operatorName maps an operator token and its operand count to the
// metadata name the operator is declared under, or "" when the token cannot
// be overloaded with that many operands
func operatorName(op string, operands int) string {
	switch operands {
	case 1:
		return unaryOperatorNames[op]
	case 2:
		return binaryOperatorNames[op]
	}
	return ""
}

func (d *declarer) property(r *resolver, n *tree_sitter.Node, typ *symbols.Type, sc *scope) *symbols.Property {
	src := r.file.src
	mods := modifiers(n, src)
	p := &symbols.Property{
		Name:       declName(n, src),
		Containing: typ,
		Type:       r.bindType(field(n, "type"), sc),
		Static:     mods["static"] || typ.Static,
	}
	accessors := field(n, "accessors")
	if accessors == nil {
		accessors = childOfKind(n, "accessor_list")
	}
	if accessors == nil {
		// expression-bodied
		p.HasGet = true
		return p
	}
	for _, acc := range childrenOfKind(accessors, kindAccessor) {
		switch accessorKeyword(acc, src) {
		case "get":
			p.HasGet = true
		case "set", "init":
			p.HasSet = true
		}
	}
	return p
}

func accessorKeyword(n *tree_sitter.Node, src []byte) string {
	for _, c := range allChildren(n) {
		switch c.Kind() {
		case "get", "set", "init", "add", "remove":
			return c.Kind()
		}
	}
	if name := field(n, "name"); name != nil {
		return nodeText(name, src)
	}
	text := strings.TrimSpace(nodeText(n, src))
	for _, kw := range []string{"get", "set", "init", "add", "remove"} {
		if strings.HasPrefix(text, kw) {
			return kw
		}
	}
	return ""
}

// bindParameters binds a parameter_list or bracketed_parameter_list. A
// params array appears either as a parameter_array node or, depending on the
// grammar revision, as a bare params token followed by its type and name.
func bindParameters(r *resolver, list *tree_sitter.Node, sc *scope) []*symbols.Parameter {
	if list == nil {
		return nil
	}
	src := r.file.src
	var out []*symbols.Parameter
	var pending *symbols.Parameter
	for _, c := range allChildren(list) {
		switch c.Kind() {
		case "params":
			pending = &symbols.Parameter{IsParams: true}
		case kindParameter:
			p := bindParameter(r, c, sc)
			if pending != nil {
				p.IsParams = true
				pending = nil
			}
			out = append(out, p)
		case kindParameterArray:
			p := &symbols.Parameter{IsParams: true, Name: declName(c, src)}
			p.Type = r.bindType(childOfKind(c, kindArrayType, kindNullableType), sc)
			out = append(out, p)
		case kindArrayType, kindNullableType:
			if pending != nil {
				pending.Type = r.bindType(c, sc)
			}
		case kindIdentifier:
			if pending != nil {
				pending.Name = nodeText(c, src)
				out = append(out, pending)
				pending = nil
			}
		}
	}
	return out
}

func bindParameter(r *resolver, n *tree_sitter.Node, sc *scope) *symbols.Parameter {
	src := r.file.src
	p := &symbols.Parameter{Name: declName(n, src)}
	p.Type = r.bindType(field(n, "type"), sc)
	sawEquals := false
	for _, c := range allChildren(n) {
		kind := c.Kind()
		if kind == kindModifier || kind == "parameter_modifier" {
			kind = strings.TrimSpace(nodeText(c, src))
		}
		switch kind {
		case "this":
			p.IsThis = true
		case "ref":
			p.RefKind = symbols.RefRef
		case "out":
			p.RefKind = symbols.RefOut
		case "in":
			p.RefKind = symbols.RefIn
		case "params":
			p.IsParams = true
		case "=":
			sawEquals = true
		case kindEqualsValueClause:
			p.HasDefault = true
			p.Default = defaultText(lastNamed(c), src)
		default:
			if sawEquals && c.IsNamed() && !p.HasDefault {
				p.HasDefault = true
				p.Default = defaultText(c, src)
			}
		}
	}
	return p
}

func defaultText(n *tree_sitter.Node, src []byte) string {
	return strings.Join(strings.Fields(nodeText(n, src)), " ")
}
