package csharp

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/snippetgate/internal/symbols"
)

// memberBoundaries end the search for locals: past them only members of
// the enclosing type are visible
var memberBoundaries = map[string]bool{
	kindMethod:      true,
	kindConstructor: true,
	kindDestructor:  true,
	kindOperator:    true,
	kindConversion:  true,
	kindProperty:    true,
	kindIndexer:     true,
	kindEvent:       true,
	kindField:       true,
	kindEventField:  true,
}

// lookupLocal finds a local variable, parameter or local function named
// name that is visible at n. It returns a *symbols.Local, a *symbols.Method
// for local functions, or nil.
func (b *binder) lookupLocal(name string, n *tree_sitter.Node) symbols.Symbol {
	path := n
	for cur := b.file.parent(n); cur != nil; path, cur = cur, b.file.parent(cur) {
		kind := cur.Kind()
		if typeDeclarationKinds[kind] {
			return nil
		}
		if s := b.localIn(cur, path, name); s != nil {
			return s
		}
		if memberBoundaries[kind] {
			return nil
		}
	}
	return nil
}

// localIn looks for a declaration of name owned by cur and visible from
// path, the child of cur on the way to the reference
func (b *binder) localIn(cur, path *tree_sitter.Node, name string) symbols.Symbol {
	src := b.file.src
	switch cur.Kind() {
	case kindBlock, kindSwitchSection, kindCompilationUnit:
		var found *symbols.Local
		for _, stmt := range namedChildren(cur) {
			s := stmt
			if s.Kind() == kindGlobalStatement {
				s = lastNamed(s)
				if s == nil {
					continue
				}
			}
			// local functions are visible throughout their block
			if s.Kind() == kindLocalFunction && declName(s, src) == name {
				return b.localFunction(s)
			}
			if !precedes(stmt, path) {
				continue
			}
			if l := b.declaredIn(s, name); l != nil {
				found = l
			}
		}
		if found != nil {
			return found
		}
		return nil

	case kindVariableDeclaration:
		for _, v := range childrenOfKind(cur, kindVariableDeclarator) {
			if precedes(v, path) && declName(v, src) == name {
				return b.declaratorLocal(v)
			}
		}

	case kindForStatement, kindUsingStatement, kindFixedStatement:
		if decl := childOfKind(cur, kindVariableDeclaration); decl != nil && !sameNode(decl, path) {
			for _, v := range childrenOfKind(decl, kindVariableDeclarator) {
				if declName(v, src) == name {
					return b.declaratorLocal(v)
				}
			}
		}

	case kindForeachStatement:
		left := field(cur, "left")
		if left != nil && left.Kind() == kindIdentifier && b.file.text(left) == name && !sameNode(field(cur, "right"), path) {
			return b.foreachLocal(cur)
		}

	case kindCatchClause:
		if decl := childOfKind(cur, kindCatchDeclaration); decl != nil && !sameNode(decl, path) {
			if nm := field(decl, "name"); nm != nil && b.file.text(nm) == name {
				return b.cached(decl, func() *symbols.Local {
					return &symbols.Local{Name: name, Type: b.bindType(field(decl, "type"), b.scopeAt(decl))}
				})
			}
		}

	case kindLambda, kindAnonymousMethod:
		if l := b.lambdaParameter(cur, name); l != nil {
			return l
		}

	case kindLocalFunction, kindMethod, kindConstructor, kindDestructor, kindOperator, kindConversion:
		if cur.Kind() == kindLocalFunction {
			// declare it so its type parameters are in scope for the parameters
			b.localFunction(cur)
		}
		if l := b.parameterNamed(field(cur, "parameters"), name); l != nil {
			return l
		}
		if l := b.parameterNamed(childOfKind(cur, kindParameterList), name); l != nil {
			return l
		}

	case kindIndexer:
		if l := b.parameterNamed(childOfKind(cur, kindBracketedParameters), name); l != nil {
			return l
		}

	case kindAccessor:
		if name == "value" {
			switch accessorKeyword(cur, src) {
			case "set", "init", "add", "remove":
				return b.cached(cur, func() *symbols.Local {
					return &symbols.Local{Name: "value", Type: b.accessorValueType(cur), IsParameter: true}
				})
			}
		}
	}

	// pattern and out variables declared earlier in the same construct, such
	// as the condition of an if statement
	for _, c := range namedChildren(cur) {
		if !precedes(c, path) {
			break
		}
		if l := b.designationIn(c, name); l != nil {
			return l
		}
	}
	return nil
}

func (b *binder) cached(n *tree_sitter.Node, build func() *symbols.Local) *symbols.Local {
	if l, ok := b.locals[n.Id()]; ok {
		return l
	}
	// placeholder breaks cycles such as var x = x
	b.locals[n.Id()] = &symbols.Local{}
	l := build()
	b.locals[n.Id()] = l
	return l
}

// declaredIn finds a declaration of name in a preceding statement of a block
func (b *binder) declaredIn(stmt *tree_sitter.Node, name string) *symbols.Local {
	if stmt.Kind() == kindLocalDeclaration {
		if decl := childOfKind(stmt, kindVariableDeclaration); decl != nil {
			for _, v := range childrenOfKind(decl, kindVariableDeclarator) {
				if declName(v, b.file.src) == name {
					return b.declaratorLocal(v)
				}
			}
		}
	}
	return b.designationIn(stmt, name)
}

// designationIn finds an out variable or pattern variable named name whose
// scope leaks out of n. Nested lambdas, blocks and embedded statements keep
// their designations to themselves.
func (b *binder) designationIn(n *tree_sitter.Node, name string) *symbols.Local {
	var found *tree_sitter.Node
	var visit func(c *tree_sitter.Node)
	visit = func(c *tree_sitter.Node) {
		if found != nil {
			return
		}
		switch c.Kind() {
		case kindLambda, kindAnonymousMethod, kindLocalFunction, kindBlock, kindQueryExpression,
			kindForStatement, kindForeachStatement, kindUsingStatement, kindFixedStatement,
			"do_statement", "try_statement", "lock_statement", kindSwitchSection:
			return
		case kindIfStatement, "while_statement", "switch_statement":
			if cond := field(c, "condition", "value"); cond != nil {
				visit(cond)
			}
			return
		case kindDeclarationExpression, kindDeclarationPattern, kindVarPattern:
			if designationName(c, b.file.src) == name {
				found = c
				return
			}
		}
		for _, child := range namedChildren(c) {
			visit(child)
		}
	}
	visit(n)
	if found == nil {
		return nil
	}
	return b.designationLocal(found)
}

// designationName returns the variable a declaration expression or pattern
// introduces. The type of a declaration pattern is an identifier too, so the
// name is the last identifier rather than the first.
func designationName(n *tree_sitter.Node, src []byte) string {
	if nm := field(n, "name"); nm != nil {
		if nm.Kind() == kindSingleVarDesignation {
			return declName(nm, src)
		}
		return nodeText(nm, src)
	}
	if d := field(n, "designation"); d != nil {
		return declName(d, src)
	}
	if d := childOfKind(n, kindSingleVarDesignation); d != nil {
		return declName(d, src)
	}
	ids := childrenOfKind(n, kindIdentifier)
	if len(ids) == 0 {
		return ""
	}
	return nodeText(ids[len(ids)-1], src)
}

// designationLocal binds the variable a declaration expression or pattern
// introduces
func (b *binder) designationLocal(n *tree_sitter.Node) *symbols.Local {
	return b.cached(n, func() *symbols.Local {
		l := &symbols.Local{Name: designationName(n, b.file.src)}
		switch n.Kind() {
		case kindVarPattern:
			l.Type = b.patternInputType(n)
		default:
			typeNode := field(n, "type")
			if typeNode == nil || b.isImplicitType(typeNode) {
				l.Type = b.outVarType(n)
			} else {
				l.Type = b.bindType(typeNode, b.scopeAt(n))
			}
		}
		return l
	})
}

// outVarType infers the type of out var x from the parameter it is passed to
func (b *binder) outVarType(n *tree_sitter.Node) *symbols.Type {
	if t, ok := b.outVars[n.Id()]; ok {
		return t
	}
	for cur := b.file.parent(n); cur != nil; cur = b.file.parent(cur) {
		if cur.Kind() == kindInvocation || cur.Kind() == kindObjectCreation {
			b.bind(cur)
			break
		}
		if cur.Kind() != kindArgument && cur.Kind() != kindArgumentList {
			break
		}
	}
	return b.outVars[n.Id()]
}

// patternInputType returns the type of the value a var pattern matches
func (b *binder) patternInputType(n *tree_sitter.Node) *symbols.Type {
	for cur := b.file.parent(n); cur != nil; cur = b.file.parent(cur) {
		switch cur.Kind() {
		case "is_pattern_expression", "is_expression":
			return b.bind(field(cur, "expression", "left")).typ
		case "switch_expression":
			return b.bind(namedChildren(cur)[0]).typ
		}
	}
	return nil
}

func (b *binder) declaratorLocal(v *tree_sitter.Node) *symbols.Local {
	return b.cached(v, func() *symbols.Local {
		l := &symbols.Local{Name: declName(v, b.file.src)}
		decl := b.file.parent(v)
		typeNode := field(decl, "type")
		switch {
		case typeNode == nil:
		case b.isImplicitType(typeNode):
			if init := initializerOf(v); init != nil {
				l.Type = b.bind(init).typ
			}
		default:
			l.Type = b.bindType(typeNode, b.scopeAt(decl))
		}
		return l
	})
}

// initializerOf returns the initializer expression of a variable declarator
func initializerOf(v *tree_sitter.Node) *tree_sitter.Node {
	if eq := childOfKind(v, kindEqualsValueClause); eq != nil {
		return lastNamed(eq)
	}
	sawEquals := false
	for _, c := range allChildren(v) {
		if c.Kind() == "=" {
			sawEquals = true
			continue
		}
		if sawEquals && c.IsNamed() {
			return c
		}
	}
	return nil
}

func (b *binder) foreachLocal(f *tree_sitter.Node) *symbols.Local {
	return b.cached(f, func() *symbols.Local {
		l := &symbols.Local{Name: b.file.text(field(f, "left"))}
		typeNode := field(f, "type")
		if typeNode == nil || b.isImplicitType(typeNode) {
			l.Type = b.elementType(b.bind(field(f, "right")).typ)
		} else {
			l.Type = b.bindType(typeNode, b.scopeAt(f))
		}
		return l
	})
}

// elementType returns the type foreach yields for a collection type
func (b *binder) elementType(t *symbols.Type) *symbols.Type {
	if t == nil {
		return nil
	}
	if t.IsArray() {
		return t.Element
	}
	if isKeyword(t, "string") {
		return b.env.keyword("char")
	}
	for _, h := range b.hierarchy(t) {
		def := h.OriginalDefinition()
		if def.Name == "IEnumerable" && def.Namespace == "System.Collections.Generic" && len(h.TypeArguments) == 1 {
			return h.TypeArguments[0]
		}
	}
	return b.env.keyword("object")
}

func (b *binder) parameterNamed(list *tree_sitter.Node, name string) *symbols.Local {
	if list == nil {
		return nil
	}
	src := b.file.src
	for _, p := range namedChildren(list) {
		switch p.Kind() {
		case kindParameter, kindParameterArray:
			if declName(p, src) == name {
				return b.parameterLocal(p)
			}
		case kindIdentifier:
			// bare params form: params T[] name
			if nodeText(p, src) == name {
				return b.cached(p, func() *symbols.Local {
					var t *symbols.Type
					if prev := p.PrevNamedSibling(); prev != nil && prev.Kind() == kindArrayType {
						t = b.bindType(prev, b.scopeAt(list))
					}
					return &symbols.Local{Name: name, Type: t, IsParameter: true}
				})
			}
		}
	}
	return nil
}

func (b *binder) parameterLocal(p *tree_sitter.Node) *symbols.Local {
	return b.cached(p, func() *symbols.Local {
		typeNode := field(p, "type")
		if typeNode == nil {
			typeNode = childOfKind(p, kindArrayType, kindNullableType)
		}
		return &symbols.Local{
			Name:        declName(p, b.file.src),
			Type:        b.bindType(typeNode, b.scopeAt(p)),
			IsParameter: true,
		}
	})
}

func (b *binder) accessorValueType(accessor *tree_sitter.Node) *symbols.Type {
	for cur := b.file.parent(accessor); cur != nil; cur = b.file.parent(cur) {
		switch cur.Kind() {
		case kindProperty, kindIndexer, kindEvent:
			return b.bindType(field(cur, "type"), b.scopeAt(cur))
		}
	}
	return nil
}

// localFunction declares a local function on first reference
func (b *binder) localFunction(n *tree_sitter.Node) *symbols.Method {
	if m, ok := b.file.methods[n.Id()]; ok {
		return m
	}
	src := b.file.src
	m := &symbols.Method{
		Name:           declName(n, src),
		IsLocal:        true,
		Static:         modifiers(n, src)["static"],
		TypeParameters: typeParameters(n, src),
	}
	// registered before binding so the signature sees its own type parameters
	b.file.methods[n.Id()] = m
	sc := b.scopeAt(n)
	m.ReturnType = b.bindType(field(n, "type", "returns"), sc)
	m.Parameters = bindParameters(&b.resolver, field(n, "parameters"), sc)
	if m.Parameters == nil {
		m.Parameters = bindParameters(&b.resolver, childOfKind(n, kindParameterList), sc)
	}
	return m
}

// lambdaParameter binds a parameter of a lambda or anonymous method. Untyped
// parameters take their types from the delegate the lambda converts to.
func (b *binder) lambdaParameter(lambda *tree_sitter.Node, name string) *symbols.Local {
	src := b.file.src
	var params []*tree_sitter.Node
	list := field(lambda, "parameters")
	if list == nil {
		list = childOfKind(lambda, kindParameterList, kindImplicitParam)
	}
	if list == nil {
		return nil
	}
	switch list.Kind() {
	case kindImplicitParam, kindIdentifier:
		params = []*tree_sitter.Node{list}
	default:
		params = childrenOfKind(list, kindParameter)
	}
	for i, p := range params {
		pname := declName(p, src)
		if p.Kind() == kindImplicitParam || p.Kind() == kindIdentifier {
			pname = nodeText(p, src)
		}
		if pname != name {
			continue
		}
		idx := i
		return b.cached(p, func() *symbols.Local {
			l := &symbols.Local{Name: name, IsParameter: true}
			if typeNode := field(p, "type"); typeNode != nil {
				l.Type = b.bindType(typeNode, b.scopeAt(p))
			} else {
				l.Type = b.lambdaParamType(lambda, idx)
			}
			return l
		})
	}
	return nil
}

func (b *binder) lambdaParamType(lambda *tree_sitter.Node, idx int) *symbols.Type {
	types, ok := b.lambdaParams[lambda.Id()]
	if !ok {
		b.inferLambdaTarget(lambda)
		types = b.lambdaParams[lambda.Id()]
	}
	if idx < len(types) {
		return types[idx]
	}
	return nil
}

// inferLambdaTarget binds the context a lambda appears in so that its
// target delegate type, and with it the parameter types, become known
func (b *binder) inferLambdaTarget(lambda *tree_sitter.Node) {
	p := b.file.parent(lambda)
	for p != nil && p.Kind() == "parenthesized_expression" {
		p = b.file.parent(p)
	}
	if p == nil {
		return
	}
	switch p.Kind() {
	case kindArgument:
		if call := b.file.parent(p); call != nil {
			if owner := b.file.parent(call); owner != nil {
				b.bind(owner)
			}
		}
		return
	}
	if target := b.targetType(lambda); target != nil {
		if invoke := b.delegateInvoke(target); invoke != nil {
			b.registerLambda(lambda, parameterTypes(invoke))
		}
	}
}

// registerLambda records the parameter types of an untyped lambda. The
// first target wins.
func (b *binder) registerLambda(lambda *tree_sitter.Node, types []*symbols.Type) {
	if _, ok := b.lambdaParams[lambda.Id()]; ok {
		return
	}
	b.lambdaParams[lambda.Id()] = types
}

func parameterTypes(m *symbols.Method) []*symbols.Type {
	out := make([]*symbols.Type, len(m.Parameters))
	for i, p := range m.Parameters {
		out[i] = p.Type
	}
	return out
}

// lambdaReturnType binds the body of a lambda as if its parameters had the
// given types and returns the type of the value it produces
func (b *binder) lambdaReturnType(lambda *tree_sitter.Node, params []*symbols.Type) *symbols.Type {
	b.registerLambda(lambda, params)
	body := field(lambda, "body")
	if body == nil {
		body = lastNamed(lambda)
	}
	if body == nil {
		return nil
	}
	if body.Kind() != kindBlock {
		return b.bind(body).typ
	}
	var ret *symbols.Type
	walk(body, func(n *tree_sitter.Node) bool {
		if ret != nil {
			return false
		}
		switch n.Kind() {
		case kindLambda, kindAnonymousMethod, kindLocalFunction:
			return false
		case kindReturnStatement:
			if e := lastNamed(n); e != nil {
				ret = b.bind(e).typ
			}
			return false
		}
		return true
	})
	return ret
}
