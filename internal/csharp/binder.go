package csharp

import (
	"strconv"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/snippetgate/internal/debug"
	"github.com/standardbeagle/snippetgate/internal/symbols"
)

// binding is what an expression binds to: a value of some type, a type, a
// namespace, a method group or a lambda awaiting a target delegate.
type binding struct {
	sym    symbols.Symbol
	typ    *symbols.Type
	ns     string
	isType bool
	isNS   bool
	null   bool
	lambda *tree_sitter.Node
	group  *methodGroup
}

var unbound = &binding{}

// methodGroup is a set of same-named methods found by member lookup, waiting
// for an argument list or a target delegate type to pick one
type methodGroup struct {
	name     string
	methods  []*symbols.Method
	typeArgs []*symbols.Type
	// receiver is the value the group was accessed through. Extension
	// methods are only considered for value receivers.
	receiver *symbols.Type
	sc       *scope
}

// binder resolves expressions of one snippet. It memoizes every node it
// binds, so each node is bound at most once per unit.
type binder struct {
	resolver
	maxDepth int
	depth    int

	memo         map[uintptr]*binding
	pending      map[uintptr]bool
	locals       map[uintptr]*symbols.Local
	lambdaParams map[uintptr][]*symbols.Type
	outVars      map[uintptr]*symbols.Type
	groupTargets map[uintptr]*symbols.Type
}

func newBinder(e *env, f *file, maxDepth int) *binder {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &binder{
		resolver:     resolver{env: e, file: f},
		maxDepth:     maxDepth,
		memo:         make(map[uintptr]*binding),
		pending:      make(map[uintptr]bool),
		locals:       make(map[uintptr]*symbols.Local),
		lambdaParams: make(map[uintptr][]*symbols.Type),
		outVars:      make(map[uintptr]*symbols.Type),
		groupTargets: make(map[uintptr]*symbols.Type),
	}
}

// declaredType resolves the type of a variable_declaration, inferring it
// from the first initializer when the declaration uses var
func (b *binder) declaredType(decl *tree_sitter.Node) *symbols.Type {
	typeNode := field(decl, "type")
	if typeNode == nil {
		return nil
	}
	if b.isImplicitType(typeNode) {
		for _, v := range childrenOfKind(decl, kindVariableDeclarator) {
			return b.declaratorLocal(v).Type
		}
		return nil
	}
	return b.bindType(typeNode, b.scopeAt(decl))
}

// isImplicitType reports whether a type node is var rather than a type
// named var
func (b *binder) isImplicitType(n *tree_sitter.Node) bool {
	switch n.Kind() {
	case kindImplicitType:
		return true
	case kindIdentifier:
		return b.file.text(n) == "var" && b.lookupType("var", 0, b.scopeAt(n)) == nil
	}
	return false
}

// symbolFor returns the symbol an expression node refers to. The callee of
// an invocation reports nothing so that each call site yields one method.
func (b *binder) symbolFor(n *tree_sitter.Node) symbols.Symbol {
	if b.file.isCallee(n) || b.file.inNameof(n) {
		return nil
	}
	bd := b.bind(n)
	switch {
	case bd.group != nil:
		if m := b.resolveGroupValue(bd.group, n); m != nil {
			return m
		}
		return nil
	case bd.isNS:
		return &symbols.Namespace{FullName: bd.ns}
	case bd.sym != nil:
		return bd.sym
	}
	return nil
}

// isCallee reports whether n names the method of an invocation
func (f *file) isCallee(n *tree_sitter.Node) bool {
	p := f.parent(n)
	if p == nil {
		return false
	}
	switch p.Kind() {
	case kindInvocation:
		return isField(p, n, "function")
	case kindMemberAccess, kindMemberBinding:
		return isField(p, n, "name")
	case kindConditionalAccess:
		if isField(p, n, "condition") {
			return false
		}
		return f.isCallee(p)
	case "parenthesized_expression":
		return f.isCallee(p)
	}
	return false
}

// bind binds an expression node, memoized
func (b *binder) bind(n *tree_sitter.Node) *binding {
	if n == nil {
		return unbound
	}
	id := n.Id()
	if bd, ok := b.memo[id]; ok {
		return bd
	}
	if b.pending[id] {
		return unbound
	}
	if b.depth >= b.maxDepth {
		debug.LogAnalysis("binding depth limit %d reached at %d:%d\n",
			b.maxDepth, n.StartPosition().Row+1, n.StartPosition().Column+1)
		return unbound
	}
	b.pending[id] = true
	b.depth++
	bd := b.bindExpr(n)
	b.depth--
	delete(b.pending, id)
	if bd == nil {
		bd = unbound
	}
	b.memo[id] = bd
	return bd
}

func (b *binder) value(t *symbols.Type) *binding {
	if t == nil {
		return unbound
	}
	return &binding{typ: t}
}

func (b *binder) typeBinding(t *symbols.Type) *binding {
	if t == nil {
		return unbound
	}
	return &binding{sym: t, typ: t, isType: true}
}

func (b *binder) bindExpr(n *tree_sitter.Node) *binding {
	switch n.Kind() {
	case "integer_literal":
		return b.value(b.env.keyword(integerLiteralKeyword(b.file.text(n))))
	case "real_literal":
		return b.value(b.env.keyword(realLiteralKeyword(b.file.text(n))))
	case "string_literal", "verbatim_string_literal", "raw_string_literal", "interpolated_string_expression":
		return b.value(b.env.keyword("string"))
	case "character_literal":
		return b.value(b.env.keyword("char"))
	case "boolean_literal", "is_expression", "is_pattern_expression":
		return b.value(b.env.keyword("bool"))
	case "null_literal":
		return &binding{null: true}
	case "this_expression", "this":
		if t := b.enclosingType(n); t != nil {
			return b.value(selfType(t))
		}
		return unbound
	case "base_expression", "base":
		if t := b.enclosingType(n); t != nil {
			return b.value(selfType(t).BaseType())
		}
		return unbound
	case kindIdentifier:
		return b.bindSimpleName(n, b.file.text(n), nil)
	case kindGenericName:
		name, args := b.simpleName(n, b.scopeAt(n))
		return b.bindSimpleName(n, name, args)
	case kindPredefinedType:
		return b.typeBinding(b.env.keyword(b.file.text(n)))
	case kindQualifiedName, kindAliasQualified, kindNullableType, kindArrayType:
		ns, t := b.bindName(n, b.scopeAt(n))
		if t != nil {
			return b.typeBinding(t)
		}
		if ns != "" {
			return &binding{ns: ns, isNS: true}
		}
		return unbound
	case kindMemberAccess:
		return b.bindMemberAccess(n)
	case kindConditionalAccess:
		return b.bindConditionalAccess(n)
	case kindMemberBinding, kindElementBinding:
		return b.bindBindingExpression(n)
	case kindInvocation:
		return b.bindInvocation(n)
	case kindObjectCreation:
		return b.bindObjectCreation(n, b.bindType(field(n, "type"), b.scopeAt(n)))
	case kindImplicitObjCreation:
		return b.bindObjectCreation(n, b.targetType(n))
	case kindArrayCreation:
		return b.value(b.bindType(field(n, "type"), b.scopeAt(n)))
	case kindImplicitArrayCreation:
		init := childOfKind(n, kindInitializer)
		for _, el := range namedChildren(init) {
			if t := b.bind(el).typ; t != nil {
				return b.value(symbols.NewArray(t, 1))
			}
		}
		return unbound
	case "cast_expression":
		return b.value(b.bindType(field(n, "type"), b.scopeAt(n)))
	case "as_expression":
		return b.value(b.bindType(field(n, "right", "type"), b.scopeAt(n)))
	case "binary_expression":
		return b.bindBinary(n)
	case "prefix_unary_expression":
		return b.bindPrefixUnary(n)
	case "postfix_unary_expression":
		operand := lastNamed(n)
		// postfix ! forgives null and is not an operator call
		if op := unaryOperatorToken(n); op == "++" || op == "--" {
			if m := b.userOperator(op, operand); m != nil {
				return &binding{sym: m, typ: m.ReturnType}
			}
		}
		return b.value(b.bind(operand).typ)
	case "parenthesized_expression", "checked_expression", "ref_expression":
		return b.value(b.bind(lastNamed(n)).typ)
	case "assignment_expression":
		left := field(n, "left")
		// a compound assignment calls the operator it is built from
		if op := binaryOperator(n, b.file.src); len(op) > 1 && op != "??=" {
			if m := b.userOperator(strings.TrimSuffix(op, "="), left, field(n, "right")); m != nil {
				return &binding{sym: m, typ: b.bind(left).typ}
			}
		}
		return b.value(b.bind(left).typ)
	case "conditional_expression":
		if t := b.bind(field(n, "consequence")).typ; t != nil {
			return b.value(t)
		}
		return b.value(b.bind(field(n, "alternative")).typ)
	case "await_expression":
		return b.value(b.awaitedType(b.bind(lastNamed(n)).typ))
	case "typeof_expression":
		return b.value(b.env.system("Type", 0))
	case "sizeof_expression":
		return b.value(b.env.keyword("int"))
	case "default_expression":
		if t := field(n, "type"); t != nil {
			return b.value(b.bindType(t, b.scopeAt(n)))
		}
		return b.value(b.targetType(n))
	case "element_access_expression":
		return b.bindElementAccess(b.bind(field(n, "expression")).typ, field(n, "subscript"))
	case kindLambda, kindAnonymousMethod:
		return &binding{lambda: n}
	case kindDeclarationExpression:
		return b.value(b.designationLocal(n).Type)
	case "tuple_expression":
		var args []*symbols.Type
		for _, a := range childrenOfKind(n, kindArgument) {
			t := b.bind(lastNamed(a)).typ
			if t == nil {
				return unbound
			}
			args = append(args, t)
		}
		if def := b.env.system("ValueTuple", len(args)); def != nil {
			return b.value(symbols.Construct(def, args))
		}
		return unbound
	case "switch_expression":
		for _, arm := range childrenOfKind(n, "switch_expression_arm") {
			if t := b.bind(lastNamed(arm)).typ; t != nil {
				return b.value(t)
			}
		}
		return unbound
	case "with_expression":
		return b.value(b.bind(namedChildren(n)[0]).typ)
	}
	return unbound
}

// selfType returns a type definition as seen from inside its own body, with
// its type parameters as arguments
func selfType(t *symbols.Type) *symbols.Type {
	if len(t.TypeParameters) == 0 {
		return t
	}
	return symbols.Construct(t, t.TypeParameters)
}

func (b *binder) enclosingType(n *tree_sitter.Node) *symbols.Type {
	for o := b.file.owner(b.file.parent(n)); o != nil; o = b.file.owner(b.file.parent(o)) {
		if typeDeclarationKinds[o.Kind()] {
			return b.file.types[o.Id()]
		}
	}
	return nil
}

// bindSimpleName binds an identifier or generic name in value position:
// locals first, then members of the enclosing types, then static imports,
// types and namespaces.
func (b *binder) bindSimpleName(n *tree_sitter.Node, name string, typeArgs []*symbols.Type) *binding {
	switch s := b.lookupLocal(name, n).(type) {
	case *symbols.Local:
		if len(typeArgs) == 0 {
			return &binding{sym: s, typ: s.Type}
		}
	case *symbols.Method:
		if len(typeArgs) == 0 || len(typeArgs) == len(s.TypeParameters) {
			return &binding{group: &methodGroup{name: name, methods: []*symbols.Method{s}, typeArgs: typeArgs, sc: b.scopeAt(n)}}
		}
	}

	sc := b.scopeAt(n)
	for _, t := range sc.types {
		if bd := b.memberBinding(selfType(t), name, typeArgs, sc, memberAny, nil); bd != nil {
			return bd
		}
	}
	for _, st := range sc.statics {
		if bd := b.memberBinding(st, name, typeArgs, sc, memberStatic, nil); bd != nil {
			return bd
		}
	}
	if t := b.lookupType(name, len(typeArgs), sc); t != nil {
		if len(typeArgs) > 0 {
			t = symbols.Construct(t, typeArgs)
		}
		return b.typeBinding(t)
	}
	if len(typeArgs) == 0 {
		if ns, ok := b.lookupNamespace(name, sc); ok {
			return &binding{ns: ns, isNS: true}
		}
	}
	return unbound
}

type memberFilter int

const (
	memberAny memberFilter = iota
	memberStatic
	memberInstance
)

// memberBinding looks up name as a member of t. It returns nil when t has no
// such member so callers can continue with outer scopes.
func (b *binder) memberBinding(t *symbols.Type, name string, typeArgs []*symbols.Type, sc *scope, filter memberFilter, receiver *symbols.Type) *binding {
	members := b.members(t, name)
	var methods []*symbols.Method
	for _, m := range members {
		switch s := m.(type) {
		case *symbols.Method:
			if filter == memberStatic && !s.Static || filter == memberInstance && s.Static {
				continue
			}
			if s.IsConstructor() {
				continue
			}
			methods = append(methods, s)
		case *symbols.Property:
			if len(typeArgs) > 0 || s.IsIndexer || filter == memberStatic && !s.Static || filter == memberInstance && s.Static {
				continue
			}
			return &binding{sym: s, typ: s.Type}
		case *symbols.Field:
			if len(typeArgs) > 0 || filter == memberStatic && !s.Static || filter == memberInstance && s.Static {
				continue
			}
			return &binding{sym: s, typ: s.Type}
		case *symbols.Type:
			if filter == memberInstance || len(s.TypeParameters) != len(typeArgs) {
				continue
			}
			if len(typeArgs) > 0 {
				return b.typeBinding(symbols.Construct(s, typeArgs))
			}
			return b.typeBinding(s)
		}
	}
	if len(methods) > 0 {
		return &binding{group: &methodGroup{name: name, methods: methods, typeArgs: typeArgs, receiver: receiver, sc: sc}}
	}
	return nil
}

// members returns every member named name declared on t or inherited by it,
// most derived first
func (b *binder) members(t *symbols.Type, name string) []symbols.Symbol {
	var out []symbols.Symbol
	for _, h := range b.hierarchy(t) {
		out = append(out, h.MembersNamed(name)...)
	}
	return out
}

// hierarchy lists t, its base classes and every interface it implements,
// with type arguments applied. System.Object is always included.
func (b *binder) hierarchy(t *symbols.Type) []*symbols.Type {
	if t == nil {
		return nil
	}
	object := b.env.system("Object", 0)
	var out []*symbols.Type
	seen := make(map[string]bool)
	add := func(h *symbols.Type) bool {
		if h == nil {
			return false
		}
		key := symbols.ToDisplayString(h, symbols.FullyQualifiedGenericFormat)
		if seen[key] {
			return false
		}
		seen[key] = true
		out = append(out, h)
		return true
	}

	switch {
	case t.IsArray():
		add(t)
		for _, iface := range []string{"Collections.Generic.IList", "Collections.Generic.ICollection",
			"Collections.Generic.IReadOnlyList", "Collections.Generic.IReadOnlyCollection", "Collections.Generic.IEnumerable"} {
			if def := b.env.system(iface, 1); def != nil {
				add(symbols.Construct(def, []*symbols.Type{t.Element}))
			}
		}
		t = b.env.system("Array", 0)
	case t.IsTypeParameter():
		add(t)
		t = object
	}

	var chain []*symbols.Type
	for cur, i := t, 0; cur != nil && i < 64; cur, i = cur.BaseType(), i+1 {
		if add(cur) {
			chain = append(chain, cur)
		}
	}
	queue := append([]*symbols.Type(nil), chain...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, iface := range cur.DirectInterfaces() {
			if add(iface) {
				queue = append(queue, iface)
			}
		}
	}
	add(object)
	return out
}

func (b *binder) bindMemberAccess(n *tree_sitter.Node) *binding {
	left := field(n, "expression")
	right := field(n, "name")
	if left == nil || right == nil {
		return unbound
	}
	sc := b.scopeAt(n)
	name, typeArgs := b.simpleName(right, sc)
	return b.accessMember(b.bind(left), name, typeArgs, sc)
}

func (b *binder) accessMember(lb *binding, name string, typeArgs []*symbols.Type, sc *scope) *binding {
	switch {
	case lb.isNS:
		full := joinName(lb.ns, name)
		if t := b.env.lookup(full, len(typeArgs)); t != nil {
			if len(typeArgs) > 0 {
				t = symbols.Construct(t, typeArgs)
			}
			return b.typeBinding(t)
		}
		if len(typeArgs) == 0 && b.env.hasNamespace(full) {
			return &binding{ns: full, isNS: true}
		}
	case lb.isType:
		if bd := b.memberBinding(lb.typ, name, typeArgs, sc, memberStatic, nil); bd != nil {
			return bd
		}
	case lb.typ != nil:
		if bd := b.memberBinding(lb.typ, name, typeArgs, sc, memberInstance, lb.typ); bd != nil {
			return bd
		}
		// no instance member; extension methods may still apply
		return &binding{group: &methodGroup{name: name, typeArgs: typeArgs, receiver: lb.typ, sc: sc}}
	}
	return unbound
}

// bindConditionalAccess binds a?.b, lifting value-typed results to nullable
func (b *binder) bindConditionalAccess(n *tree_sitter.Node) *binding {
	kids := namedChildren(n)
	if len(kids) < 2 {
		return unbound
	}
	bd := b.bind(kids[len(kids)-1])
	if bd.typ != nil && bd.typ.IsValueType() && !bd.typ.IsNullableValueType() && !bd.typ.IsVoid() {
		if nullable := b.env.system("Nullable", 1); nullable != nil {
			lifted := *bd
			lifted.typ = symbols.Construct(nullable, []*symbols.Type{bd.typ})
			return &lifted
		}
	}
	return bd
}

// bindBindingExpression binds the .b or [i] part of a conditional access
// against the receiver of the enclosing conditional access
func (b *binder) bindBindingExpression(n *tree_sitter.Node) *binding {
	var cond *tree_sitter.Node
	for cur := b.file.parent(n); cur != nil; cur = b.file.parent(cur) {
		if cur.Kind() == kindConditionalAccess {
			cond = field(cur, "condition")
			if cond == nil {
				cond = namedChildren(cur)[0]
			}
			break
		}
	}
	recv := b.bind(cond)
	recvType := recv.typ
	if recvType != nil && recvType.IsNullableValueType() {
		recvType = recvType.TypeArguments[0]
	}
	if n.Kind() == kindElementBinding {
		return b.bindElementAccess(recvType, childOfKind(n, kindBracketedArguments))
	}
	right := field(n, "name")
	if right == nil {
		right = lastNamed(n)
	}
	if right == nil || recvType == nil {
		return unbound
	}
	sc := b.scopeAt(n)
	name, typeArgs := b.simpleName(right, sc)
	return b.accessMember(&binding{typ: recvType}, name, typeArgs, sc)
}

func (b *binder) bindInvocation(n *tree_sitter.Node) *binding {
	fn := field(n, "function")
	args := b.arguments(field(n, "arguments"))
	if fn == nil {
		return unbound
	}
	if fn.Kind() == kindIdentifier && b.file.text(fn) == "nameof" && b.lookupLocal("nameof", fn) == nil {
		return b.value(b.env.keyword("string"))
	}

	fb := b.bind(fn)
	if fb.group != nil {
		m := b.resolveGroup(fb.group, args)
		if m == nil {
			return unbound
		}
		return &binding{sym: m, typ: m.ReturnType}
	}
	if invoke := b.delegateInvoke(fb.typ); invoke != nil {
		if m := b.overload([]*symbols.Method{invoke}, args, nil); m != nil {
			return &binding{sym: m, typ: m.ReturnType}
		}
	}
	return unbound
}

func (b *binder) bindObjectCreation(n *tree_sitter.Node, t *symbols.Type) *binding {
	if t == nil {
		return unbound
	}
	var argsNode *tree_sitter.Node
	if n.Kind() == kindObjectCreation {
		argsNode = field(n, "arguments")
	} else {
		argsNode = childOfKind(n, kindArgumentList)
	}
	args := b.arguments(argsNode)
	if t.OriginalDefinition().TypeKind == symbols.TypeKindDelegate {
		return b.value(t)
	}
	ctor := b.overload(t.Constructors(), args, nil)
	if ctor == nil {
		return b.value(t)
	}
	return &binding{sym: ctor, typ: t}
}

// bindElementAccess binds recv[args] to an array element or an indexer
func (b *binder) bindElementAccess(recv *symbols.Type, subscript *tree_sitter.Node) *binding {
	if recv == nil {
		return unbound
	}
	if recv.IsArray() {
		return b.value(recv.Element)
	}
	var indexers []*symbols.Property
	var pseudo []*symbols.Method
	for _, m := range b.members(recv, "Item") {
		if p, ok := m.(*symbols.Property); ok && p.IsIndexer {
			indexers = append(indexers, p)
			pseudo = append(pseudo, &symbols.Method{Name: "this[]", Containing: p.Containing, Parameters: p.Parameters, ReturnType: p.Type})
		}
	}
	if len(pseudo) == 0 {
		return unbound
	}
	picked := b.overload(pseudo, b.arguments(subscript), nil)
	for i, m := range pseudo {
		if picked != nil && picked.OriginalDefinition() == m {
			return &binding{sym: indexers[i], typ: indexers[i].Type}
		}
	}
	return unbound
}

func (b *binder) awaitedType(t *symbols.Type) *symbols.Type {
	if t == nil {
		return nil
	}
	for _, h := range b.hierarchy(t) {
		def := h.OriginalDefinition()
		if def.Namespace == "System.Threading.Tasks" && def.Name == "Task" {
			if len(h.TypeArguments) == 1 {
				return h.TypeArguments[0]
			}
			return b.env.keyword("void")
		}
	}
	return nil
}

// targetType returns the type an expression is converted to by its context:
// the declared type of the variable it initializes or the left side of an
// assignment
func (b *binder) targetType(n *tree_sitter.Node) *symbols.Type {
	p := b.file.parent(n)
	for p != nil && (p.Kind() == kindEqualsValueClause || p.Kind() == "parenthesized_expression") {
		p = b.file.parent(p)
	}
	if p == nil {
		return nil
	}
	switch p.Kind() {
	case kindVariableDeclarator:
		decl := b.file.parent(p)
		if decl == nil || decl.Kind() != kindVariableDeclaration {
			return nil
		}
		typeNode := field(decl, "type")
		if typeNode == nil || b.isImplicitType(typeNode) {
			return nil
		}
		return b.bindType(typeNode, b.scopeAt(decl))
	case "assignment_expression":
		if !isField(p, n, "left") {
			return b.bind(field(p, "left")).typ
		}
	case "cast_expression":
		return b.bindType(field(p, "type"), b.scopeAt(p))
	}
	return nil
}

// delegateInvoke returns the Invoke method of a delegate type
func (b *binder) delegateInvoke(t *symbols.Type) *symbols.Method {
	if t == nil || t.OriginalDefinition().TypeKind != symbols.TypeKindDelegate {
		return nil
	}
	for _, m := range t.MembersNamed("Invoke") {
		if method, ok := m.(*symbols.Method); ok {
			return method
		}
	}
	return nil
}

func (b *binder) bindBinary(n *tree_sitter.Node) *binding {
	left, right := field(n, "left"), field(n, "right")
	op := binaryOperator(n, b.file.src)
	switch op {
	case "&&", "||", "??", "is", "as":
	default:
		if m := b.userOperator(op, left, right); m != nil {
			return &binding{sym: m, typ: m.ReturnType}
		}
	}
	switch op {
	case "&&", "||", "==", "!=", "<", ">", "<=", ">=", "is":
		return b.value(b.env.keyword("bool"))
	case "as":
		return b.value(b.bindType(right, b.scopeAt(n)))
	}
	lt, rt := b.bind(left).typ, b.bind(right).typ
	switch op {
	case "??":
		if lt != nil && lt.IsNullableValueType() {
			if rt != nil && rt.IsNullableValueType() {
				return b.value(lt)
			}
			return b.value(lt.TypeArguments[0])
		}
		if lt != nil {
			return b.value(lt)
		}
		return b.value(rt)
	case "+":
		if isKeyword(lt, "string") || isKeyword(rt, "string") {
			return b.value(b.env.keyword("string"))
		}
	case "&", "|", "^":
		if isKeyword(lt, "bool") && isKeyword(rt, "bool") {
			return b.value(lt)
		}
	case "<<", ">>", ">>>":
		return b.value(b.promoteUnary(lt))
	}
	if lt != nil && lt.OriginalDefinition().TypeKind == symbols.TypeKindEnum {
		return b.value(lt)
	}
	return b.value(b.promoteBinary(lt, rt))
}

func binaryOperator(n *tree_sitter.Node, src []byte) string {
	if op := field(n, "operator"); op != nil {
		return strings.TrimSpace(nodeText(op, src))
	}
	for _, c := range allChildren(n) {
		if !c.IsNamed() {
			return c.Kind()
		}
	}
	return ""
}

// unaryOperatorToken returns the first anonymous token of a unary
// expression, which is its operator
func unaryOperatorToken(n *tree_sitter.Node) string {
	for _, c := range allChildren(n) {
		if !c.IsNamed() {
			return c.Kind()
		}
	}
	return ""
}

// userOperator resolves an operator declared by the type of one of its
// operands or by a base class of it. Catalog types declare none, so only
// snippet types match.
func (b *binder) userOperator(op string, operands ...*tree_sitter.Node) *symbols.Method {
	name := operatorName(op, len(operands))
	if name == "" {
		return nil
	}
	args := make([]argument, 0, len(operands))
	var candidates []*symbols.Method
	seen := make(map[*symbols.Type]bool, len(operands))
	for _, o := range operands {
		bd := b.bind(o)
		args = append(args, argument{expr: o, typ: bd.typ, null: bd.null, arity: -1})
		if bd.typ == nil || bd.isType {
			continue
		}
		for h := bd.typ; h != nil; h = h.BaseType() {
			if seen[h.OriginalDefinition()] {
				break
			}
			seen[h.OriginalDefinition()] = true
			for _, s := range h.MembersNamed(name) {
				if m, ok := s.(*symbols.Method); ok && m.Operator != "" {
					candidates = append(candidates, m)
				}
			}
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	return b.overload(candidates, args, nil)
}

func (b *binder) bindPrefixUnary(n *tree_sitter.Node) *binding {
	op := unaryOperatorToken(n)
	if m := b.userOperator(op, lastNamed(n)); m != nil {
		return &binding{sym: m, typ: m.ReturnType}
	}
	operand := b.bind(lastNamed(n)).typ
	switch op {
	case "!":
		return b.value(b.env.keyword("bool"))
	case "-", "+", "~":
		return b.value(b.promoteUnary(operand))
	case "++", "--":
		return b.value(operand)
	}
	return unbound
}

func isKeyword(t *symbols.Type, kw string) bool {
	return t != nil && !t.IsGenericConstruction() && t.Keyword == kw
}

func numericKeyword(t *symbols.Type) string {
	if t == nil || t.IsGenericConstruction() {
		return ""
	}
	if _, ok := numericRank[t.Keyword]; ok {
		return t.Keyword
	}
	return ""
}

var numericRank = map[string]int{
	"sbyte": 1, "byte": 1, "short": 2, "ushort": 2, "char": 2,
	"int": 3, "uint": 4, "long": 5, "ulong": 6, "float": 7, "double": 8, "decimal": 9,
}

// implicitNumeric lists the implicit numeric conversions of each type, best
// target first
var implicitNumeric = map[string][]string{
	"sbyte":  {"short", "int", "long", "float", "double", "decimal"},
	"byte":   {"short", "ushort", "int", "uint", "long", "ulong", "float", "double", "decimal"},
	"short":  {"int", "long", "float", "double", "decimal"},
	"ushort": {"int", "uint", "long", "ulong", "float", "double", "decimal"},
	"int":    {"long", "float", "double", "decimal"},
	"uint":   {"long", "ulong", "float", "double", "decimal"},
	"long":   {"float", "double", "decimal"},
	"ulong":  {"float", "double", "decimal"},
	"char":   {"ushort", "int", "uint", "long", "ulong", "float", "double", "decimal"},
	"float":  {"double"},
}

func (b *binder) promoteUnary(t *symbols.Type) *symbols.Type {
	switch numericKeyword(t) {
	case "":
		return nil
	case "sbyte", "byte", "short", "ushort", "char":
		return b.env.keyword("int")
	}
	return t
}

// promoteBinary applies C# binary numeric promotion
func (b *binder) promoteBinary(l, r *symbols.Type) *symbols.Type {
	lk, rk := numericKeyword(l), numericKeyword(r)
	if lk == "" || rk == "" {
		return nil
	}
	has := func(kw string) bool { return lk == kw || rk == kw }
	signed := func(kw string) bool { return kw == "sbyte" || kw == "short" || kw == "int" || kw == "long" }
	switch {
	case has("decimal"):
		return b.env.keyword("decimal")
	case has("double"):
		return b.env.keyword("double")
	case has("float"):
		return b.env.keyword("float")
	case has("ulong"):
		return b.env.keyword("ulong")
	case has("long"):
		return b.env.keyword("long")
	case has("uint") && (signed(lk) || signed(rk)):
		return b.env.keyword("long")
	case has("uint"):
		return b.env.keyword("uint")
	}
	return b.env.keyword("int")
}

// integerLiteralKeyword types an integer literal by its suffix and value
func integerLiteralKeyword(text string) string {
	t := strings.ToLower(strings.ReplaceAll(text, "_", ""))
	unsigned, long := false, false
	for strings.HasSuffix(t, "u") || strings.HasSuffix(t, "l") {
		if strings.HasSuffix(t, "u") {
			unsigned = true
		} else {
			long = true
		}
		t = t[:len(t)-1]
	}
	base := 10
	switch {
	case strings.HasPrefix(t, "0x"):
		base, t = 16, t[2:]
	case strings.HasPrefix(t, "0b"):
		base, t = 2, t[2:]
	}
	v, err := strconv.ParseUint(t, base, 64)
	if err != nil {
		v = 1 << 63
	}
	switch {
	case unsigned && long:
		return "ulong"
	case unsigned:
		if v <= 1<<32-1 {
			return "uint"
		}
		return "ulong"
	case long:
		if v <= 1<<63-1 {
			return "long"
		}
		return "ulong"
	case v <= 1<<31-1:
		return "int"
	case v <= 1<<32-1:
		return "uint"
	case v <= 1<<63-1:
		return "long"
	}
	return "ulong"
}

func realLiteralKeyword(text string) string {
	switch strings.ToLower(text[len(text)-1:]) {
	case "f":
		return "float"
	case "m":
		return "decimal"
	}
	return "double"
}
