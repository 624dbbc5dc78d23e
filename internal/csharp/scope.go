package csharp

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/snippetgate/internal/metadata"
	"github.com/standardbeagle/snippetgate/internal/symbols"
)

// env is the set of type tables a name can bind to. Tables are searched in
// order, so a snippet's own declarations shadow catalog types of the same
// name.
type env struct {
	tables     []*metadata.Table
	keywords   map[string]string
	extensions []map[string][]*symbols.Method
}

func (e *env) lookup(fullName string, arity int) *symbols.Type {
	for _, t := range e.tables {
		if typ := t.Lookup(fullName, arity); typ != nil {
			return typ
		}
	}
	return nil
}

func (e *env) hasNamespace(ns string) bool {
	for _, t := range e.tables {
		if t.HasNamespace(ns) {
			return true
		}
	}
	return false
}

// keyword returns the special type a C# keyword aliases
func (e *env) keyword(kw string) *symbols.Type {
	full, ok := e.keywords[kw]
	if !ok {
		return nil
	}
	return e.lookup(full, 0)
}

func (e *env) system(name string, arity int) *symbols.Type {
	return e.lookup("System."+name, arity)
}

func joinName(ns, name string) string {
	if ns == "" {
		return name
	}
	return ns + "." + name
}

// namespaceChain expands A.B.C to [A.B.C, A.B, A, ""]
func namespaceChain(ns string) []string {
	var chain []string
	for ns != "" {
		chain = append(chain, ns)
		i := strings.LastIndexByte(ns, '.')
		if i < 0 {
			break
		}
		ns = ns[:i]
	}
	return append(chain, "")
}

// file is one parsed source: a catalog stub or the snippet itself
type file struct {
	name string
	src  []byte
	tree *tree_sitter.Tree
	root *tree_sitter.Node

	types   map[uintptr]*symbols.Type
	methods map[uintptr]*symbols.Method
	scopes  map[uintptr]*scope
	// ownerScopes caches the scope inside types, methods and local functions
	ownerScopes map[uintptr]*scope
	idx         *treeIndex

	implicitUsings []string
}

func newFile(name string, src []byte, tree *tree_sitter.Tree) *file {
	return &file{
		name:    name,
		src:     src,
		tree:    tree,
		root:    tree.RootNode(),
		types:   make(map[uintptr]*symbols.Type),
		methods: make(map[uintptr]*symbols.Method),
		scopes:  make(map[uintptr]*scope),

		ownerScopes: make(map[uintptr]*scope),
	}
}

func (f *file) text(n *tree_sitter.Node) string {
	return nodeText(n, f.src)
}

func (f *file) close() {
	if f.tree != nil {
		f.tree.Close()
		f.tree = nil
	}
}

// scope is the name-binding context at a point in a file
type scope struct {
	namespaces []string
	usings     []string
	statics    []*symbols.Type
	aliases    map[string]*symbols.Type
	nsAliases  map[string]string

	types      []*symbols.Type
	typeParams []*symbols.Type
}

func (s *scope) withTypeParams(tps []*symbols.Type) *scope {
	if len(tps) == 0 {
		return s
	}
	cp := *s
	cp.typeParams = append(append([]*symbols.Type(nil), tps...), s.typeParams...)
	return &cp
}

func (s *scope) withType(t *symbols.Type) *scope {
	cp := *s
	cp.types = append([]*symbols.Type{t}, s.types...)
	return &cp
}

// inScope reports whether ns is imported or encloses the scope
func (s *scope) inScope(ns string) bool {
	for _, n := range s.namespaces {
		if n == ns {
			return true
		}
	}
	for _, u := range s.usings {
		if u == ns {
			return true
		}
	}
	return false
}

// resolver binds type syntax and qualified names within one file
type resolver struct {
	env  *env
	file *file
}

// scopeAt returns the scope in effect at n
func (r *resolver) scopeAt(n *tree_sitter.Node) *scope {
	owner := r.file.owner(n)
	if owner == nil {
		return r.namespaceScope(r.file.root)
	}
	sc, _ := r.ownerScope(owner)
	return sc
}

// ownerScope returns the scope inside a scope-opening node. The result is
// cached only when every enclosing method has been declared, since a local
// function is declared on first reference and brings type parameters.
func (r *resolver) ownerScope(owner *tree_sitter.Node) (*scope, bool) {
	kind := owner.Kind()
	if kind == kindNamespace || kind == kindCompilationUnit {
		return r.namespaceScope(owner), true
	}
	id := owner.Id()
	if sc, ok := r.file.ownerScopes[id]; ok {
		return sc, true
	}

	outer, complete := r.namespaceScope(r.file.root), true
	if up := r.file.owner(r.file.parent(owner)); up != nil {
		outer, complete = r.ownerScope(up)
	}
	sc := *outer
	switch {
	case typeDeclarationKinds[kind]:
		if t := r.file.types[id]; t != nil {
			sc.types = append([]*symbols.Type{t}, outer.types...)
		}
	default:
		m := r.file.methods[id]
		if m == nil {
			complete = false
			break
		}
		sc.typeParams = append(append([]*symbols.Type(nil), m.TypeParameters...), outer.typeParams...)
	}
	if complete {
		r.file.ownerScopes[id] = &sc
	}
	return &sc, complete
}

// namespaceScope returns the cached namespace-level scope of a namespace
// declaration or the compilation unit
func (r *resolver) namespaceScope(n *tree_sitter.Node) *scope {
	if sc, ok := r.file.scopes[n.Id()]; ok {
		return sc
	}

	var parent *scope
	var ns string
	var directives []*tree_sitter.Node

	if n.Kind() == kindNamespace {
		outer := r.file.owner(r.file.parent(n))
		for outer != nil && outer.Kind() != kindNamespace && outer.Kind() != kindCompilationUnit {
			outer = r.file.owner(r.file.parent(outer))
		}
		if outer == nil {
			outer = r.file.root
		}
		parent = r.namespaceScope(outer)
		ns = joinName(parent.namespaces[0], compactText(field(n, "name"), r.file.src))
		if body := field(n, "body"); body != nil {
			directives = childrenOfKind(body, kindUsingDirective)
		}
	} else {
		parent = &scope{namespaces: []string{""}}
		directives = childrenOfKind(n, kindUsingDirective)
		if fs := childOfKind(n, kindFileScopedNamespace); fs != nil {
			ns = compactText(field(fs, "name"), r.file.src)
			directives = append(directives, childrenOfKind(fs, kindUsingDirective)...)
		}
	}

	sc := &scope{
		namespaces: namespaceChain(ns),
		usings:     append([]string(nil), parent.usings...),
		statics:    append([]*symbols.Type(nil), parent.statics...),
		aliases:    make(map[string]*symbols.Type),
		nsAliases:  make(map[string]string),
	}
	for k, v := range parent.aliases {
		sc.aliases[k] = v
	}
	for k, v := range parent.nsAliases {
		sc.nsAliases[k] = v
	}
	// Cache before binding directives so alias targets resolve against the
	// enclosing namespaces without recursing into this scope
	r.file.scopes[n.Id()] = sc

	for _, d := range directives {
		r.addUsing(sc, d)
	}
	if n.Kind() == kindCompilationUnit {
		for _, u := range r.file.implicitUsings {
			if !sc.inScope(u) {
				sc.usings = append(sc.usings, u)
			}
		}
	}
	return sc
}

func (r *resolver) addUsing(sc *scope, d *tree_sitter.Node) {
	target := lastNamed(d)
	if target == nil {
		return
	}
	if alias := field(d, "name"); alias != nil && !sameNode(alias, target) {
		name := r.file.text(alias)
		if ns, typ := r.bindName(target, sc); typ != nil {
			sc.aliases[name] = typ
		} else if ns != "" {
			sc.nsAliases[name] = ns
		}
		return
	}
	if hasToken(d, r.file.src, "static") {
		if _, typ := r.bindName(target, sc); typ != nil {
			sc.statics = append(sc.statics, typ)
		}
		return
	}
	ns := strings.TrimPrefix(compactText(target, r.file.src), "global::")
	if !sc.inScope(ns) {
		sc.usings = append(sc.usings, ns)
	}
}

func lastNamed(n *tree_sitter.Node) *tree_sitter.Node {
	children := namedChildren(n)
	if len(children) == 0 {
		return nil
	}
	return children[len(children)-1]
}

// lookupType finds a named type visible from sc
func (r *resolver) lookupType(name string, arity int, sc *scope) *symbols.Type {
	if arity == 0 {
		for _, tp := range sc.typeParams {
			if tp.Name == name {
				return tp
			}
		}
	}
	for _, t := range sc.types {
		if arity == 0 {
			for _, tp := range t.OriginalDefinition().TypeParameters {
				if tp.Name == name {
					return tp
				}
			}
		}
		if nt := r.nestedType(t, name, arity); nt != nil {
			return nt
		}
	}
	for _, ns := range sc.namespaces {
		if t := r.env.lookup(joinName(ns, name), arity); t != nil {
			return t
		}
	}
	if arity == 0 {
		if t, ok := sc.aliases[name]; ok {
			return t
		}
	}
	var found *symbols.Type
	for _, u := range sc.usings {
		t := r.env.lookup(joinName(u, name), arity)
		if t == nil {
			continue
		}
		if found != nil && found != t {
			// ambiguous between two imported namespaces
			return nil
		}
		found = t
	}
	if found != nil {
		return found
	}
	for _, st := range sc.statics {
		if nt := r.nestedType(st, name, arity); nt != nil {
			return nt
		}
	}
	return nil
}

// nestedType finds a type member of t or one of its base classes
func (r *resolver) nestedType(t *symbols.Type, name string, arity int) *symbols.Type {
	seen := 0
	for cur := t; cur != nil && seen < 64; cur = cur.BaseType() {
		seen++
		for _, m := range cur.OriginalDefinition().Members {
			if nt, ok := m.(*symbols.Type); ok && nt.Name == name && len(nt.TypeParameters) == arity {
				return nt
			}
		}
	}
	return nil
}

// lookupNamespace resolves a namespace name relative to the enclosing
// namespaces
func (r *resolver) lookupNamespace(name string, sc *scope) (string, bool) {
	if ns, ok := sc.nsAliases[name]; ok {
		return ns, true
	}
	for _, ns := range sc.namespaces {
		cand := joinName(ns, name)
		if r.env.hasNamespace(cand) {
			return cand, true
		}
	}
	return "", false
}

// bindName binds a name that may denote either a namespace or a type. Types
// win over namespaces of the same name.
func (r *resolver) bindName(n *tree_sitter.Node, sc *scope) (string, *symbols.Type) {
	if n == nil {
		return "", nil
	}
	switch n.Kind() {
	case kindIdentifier:
		name := r.file.text(n)
		if t := r.lookupType(name, 0, sc); t != nil {
			return "", t
		}
		ns, _ := r.lookupNamespace(name, sc)
		return ns, nil
	case kindGenericName, kindPredefinedType, kindArrayType, kindNullableType, kindTupleType:
		return "", r.bindType(n, sc)
	case kindQualifiedName:
		left := field(n, "qualifier")
		right := field(n, "name")
		if left == nil || right == nil {
			kids := namedChildren(n)
			if len(kids) < 2 {
				return "", nil
			}
			left, right = kids[0], kids[len(kids)-1]
		}
		lns, ltyp := r.bindName(left, sc)
		return r.qualify(lns, ltyp, right, sc)
	case kindAliasQualified:
		kids := namedChildren(n)
		if len(kids) < 2 {
			return "", nil
		}
		alias := r.file.text(kids[0])
		root := ""
		if alias != "global" {
			ns, ok := sc.nsAliases[alias]
			if !ok {
				return "", nil
			}
			root = ns
		}
		return r.qualify(root, nil, kids[len(kids)-1], sc)
	}
	return "", nil
}

// qualify binds right as a member of the namespace ns or the type typ
func (r *resolver) qualify(ns string, typ *symbols.Type, right *tree_sitter.Node, sc *scope) (string, *symbols.Type) {
	name, args := r.simpleName(right, sc)
	if typ != nil {
		nt := r.nestedType(typ, name, len(args))
		if nt == nil {
			return "", nil
		}
		if len(args) > 0 {
			return "", symbols.Construct(nt, args)
		}
		return "", nt
	}
	if ns == "" && right.Kind() != kindIdentifier && right.Kind() != kindGenericName {
		return "", nil
	}
	full := joinName(ns, name)
	if t := r.env.lookup(full, len(args)); t != nil {
		if len(args) > 0 {
			return "", symbols.Construct(t, args)
		}
		return "", t
	}
	if len(args) == 0 && r.env.hasNamespace(full) {
		return full, nil
	}
	return "", nil
}

// simpleName splits an identifier or generic name into its name and bound
// type arguments
func (r *resolver) simpleName(n *tree_sitter.Node, sc *scope) (string, []*symbols.Type) {
	if n.Kind() != kindGenericName {
		return r.file.text(n), nil
	}
	id := field(n, "name")
	if id == nil {
		id = childOfKind(n, kindIdentifier)
	}
	var args []*symbols.Type
	if list := childOfKind(n, kindTypeArgumentList); list != nil {
		kids := namedChildren(list)
		if len(kids) == 0 {
			// unbound generic such as Dictionary<,>
			commas := strings.Count(r.file.text(list), ",")
			return r.file.text(id), make([]*symbols.Type, commas+1)
		}
		for _, k := range kids {
			args = append(args, r.bindType(k, sc))
		}
	}
	return r.file.text(id), args
}

// bindType binds type syntax to a type symbol. It returns nil for implicit
// types and for anything it cannot resolve.
func (r *resolver) bindType(n *tree_sitter.Node, sc *scope) *symbols.Type {
	if n == nil {
		return nil
	}
	switch n.Kind() {
	case kindPredefinedType, "void_keyword":
		return r.env.keyword(r.file.text(n))
	case kindImplicitType:
		return nil
	case kindIdentifier:
		name := r.file.text(n)
		t := r.lookupType(name, 0, sc)
		if t == nil && name == "void" {
			return r.env.keyword(name)
		}
		return t
	case kindGenericName:
		name, args := r.simpleName(n, sc)
		def := r.lookupType(name, len(args), sc)
		if def == nil {
			return nil
		}
		for _, a := range args {
			if a == nil {
				return def
			}
		}
		return symbols.Construct(def, args)
	case kindQualifiedName, kindAliasQualified:
		_, t := r.bindName(n, sc)
		return t
	case kindNullableType:
		inner := r.bindType(elementTypeNode(n), sc)
		if inner == nil {
			return nil
		}
		if inner.IsValueType() && !inner.IsNullableValueType() {
			if nullable := r.env.system("Nullable", 1); nullable != nil {
				return symbols.Construct(nullable, []*symbols.Type{inner})
			}
		}
		// nullable reference annotations do not change the type
		return inner
	case kindArrayType:
		el := r.bindType(elementTypeNode(n), sc)
		if el == nil {
			return nil
		}
		rank := 1
		if spec := field(n, "rank"); spec != nil {
			rank += strings.Count(r.file.text(spec), ",")
		} else if spec := childOfKind(n, kindArrayRank); spec != nil {
			rank += strings.Count(r.file.text(spec), ",")
		}
		return symbols.NewArray(el, rank)
	case kindTupleType:
		var args []*symbols.Type
		for _, el := range childrenOfKind(n, kindTupleElement) {
			t := r.bindType(elementTypeNode(el), sc)
			if t == nil {
				return nil
			}
			args = append(args, t)
		}
		def := r.env.system("ValueTuple", len(args))
		if def == nil {
			return nil
		}
		return symbols.Construct(def, args)
	case kindRefType, kindScopedType:
		return r.bindType(elementTypeNode(n), sc)
	}
	return nil
}

// elementTypeNode returns the type operand of a composite type node
func elementTypeNode(n *tree_sitter.Node) *tree_sitter.Node {
	if t := field(n, "type"); t != nil {
		return t
	}
	kids := namedChildren(n)
	if len(kids) == 0 {
		return nil
	}
	return kids[0]
}
