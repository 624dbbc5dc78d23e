package csharp

import (
	"strconv"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/snippetgate/internal/symbols"
)

// argument is one bound argument of a call
type argument struct {
	name    string
	refKind symbols.RefKind
	expr    *tree_sitter.Node
	typ     *symbols.Type
	null    bool
	lambda  *tree_sitter.Node
	arity   int // lambda parameter count, -1 when the lambda accepts any
	group   *methodGroup
	outVar  *tree_sitter.Node
}

// conversion scores. Higher is better, negative rejects the candidate.
const (
	scoreReject    = -1
	scoreUnknown   = 10
	scoreTypeParam = 20
	scoreObject    = 50
	scoreReference = 60
	scoreNullable  = 70
	scoreLambda    = 80
	scoreNumeric   = 90
	scoreExact     = 100
)

func (b *binder) arguments(list *tree_sitter.Node) []argument {
	var out []argument
	for _, a := range childrenOfKind(list, kindArgument) {
		arg := argument{arity: -1}
		if nm := field(a, "name"); nm != nil {
			arg.name = b.file.text(nm)
		} else if nc := childOfKind(a, "name_colon"); nc != nil {
			arg.name = b.file.text(childOfKind(nc, kindIdentifier))
		}
		for _, c := range allChildren(a) {
			switch c.Kind() {
			case "ref":
				arg.refKind = symbols.RefRef
			case "out":
				arg.refKind = symbols.RefOut
			case "in":
				arg.refKind = symbols.RefIn
			}
		}
		expr := field(a, "expression")
		if expr == nil {
			expr = lastNamed(a)
		}
		arg.expr = expr
		if expr == nil {
			out = append(out, arg)
			continue
		}
		if expr.Kind() == kindDeclarationExpression {
			typeNode := field(expr, "type")
			if typeNode == nil || b.isImplicitType(typeNode) {
				arg.outVar = expr
			} else {
				arg.typ = b.bindType(typeNode, b.scopeAt(expr))
			}
			out = append(out, arg)
			continue
		}
		bd := b.bind(expr)
		arg.typ, arg.null, arg.lambda, arg.group = bd.typ, bd.null, bd.lambda, bd.group
		if bd.isType || bd.isNS {
			arg.typ = nil
		}
		if bd.lambda != nil {
			arg.arity = lambdaArity(bd.lambda)
		}
		out = append(out, arg)
	}
	return out
}

func lambdaArity(n *tree_sitter.Node) int {
	list := field(n, "parameters")
	if list == nil {
		list = childOfKind(n, kindParameterList, kindImplicitParam)
	}
	switch {
	case list == nil:
		if n.Kind() == kindAnonymousMethod {
			return -1
		}
		return 0
	case list.Kind() == kindImplicitParam || list.Kind() == kindIdentifier:
		return 1
	}
	return len(childrenOfKind(list, kindParameter))
}

// resolveGroup picks the method a call through a method group invokes.
// Instance methods win whenever one applies; extension methods are tried
// with the receiver as their first argument otherwise.
func (b *binder) resolveGroup(g *methodGroup, args []argument) *symbols.Method {
	if len(g.methods) > 0 {
		if m := b.overload(g.methods, args, g.typeArgs); m != nil {
			return m
		}
	}
	if g.receiver == nil {
		return nil
	}
	ext := b.extensionCandidates(g.name, g.sc)
	if len(ext) == 0 {
		return nil
	}
	withReceiver := append([]argument{{typ: g.receiver, arity: -1}}, args...)
	return b.overload(ext, withReceiver, g.typeArgs)
}

// extensionCandidates returns extension methods named name declared in
// namespaces imported at sc
func (b *binder) extensionCandidates(name string, sc *scope) []*symbols.Method {
	var out []*symbols.Method
	for _, index := range b.env.extensions {
		for _, m := range index[name] {
			ns := m.Containing.Namespace
			if ns == "" || sc == nil || sc.inScope(ns) {
				out = append(out, m)
			}
		}
	}
	return out
}

// resolveGroupValue picks the method a method group converts to when it is
// used as a value, such as list.ForEach(Console.WriteLine)
func (b *binder) resolveGroupValue(g *methodGroup, n *tree_sitter.Node) *symbols.Method {
	target, ok := b.groupTargets[n.Id()]
	if !ok {
		if p := b.file.parent(n); p != nil && p.Kind() == kindArgument {
			if call := b.file.parent(p); call != nil && b.file.parent(call) != nil {
				b.bind(b.file.parent(call))
			}
		}
		target, ok = b.groupTargets[n.Id()]
	}
	if !ok {
		target = b.targetType(n)
	}
	candidates := g.methods
	if len(candidates) == 0 && g.receiver != nil {
		candidates = b.extensionCandidates(g.name, g.sc)
	}
	if invoke := b.delegateInvoke(target); invoke != nil {
		var match []*symbols.Method
		for _, m := range dedupe(candidates) {
			if signatureMatches(m, invoke, g.receiver != nil && len(g.methods) == 0) {
				match = append(match, m)
			}
		}
		if len(match) == 1 {
			return match[0]
		}
		return nil
	}
	if cands := dedupe(candidates); len(cands) == 1 {
		return cands[0]
	}
	return nil
}

// signatureMatches reports whether m can convert to a delegate with the
// given Invoke. Reduced extension methods drop their receiver parameter.
func signatureMatches(m, invoke *symbols.Method, reduced bool) bool {
	params := m.Parameters
	if reduced && len(params) > 0 {
		params = params[1:]
	}
	if len(params) != len(invoke.Parameters) {
		return false
	}
	for i, p := range params {
		if p.RefKind != invoke.Parameters[i].RefKind {
			return false
		}
		want := invoke.Parameters[i].Type
		if want != nil && p.Type != nil && !want.IsTypeParameter() && !p.Type.IsTypeParameter() && !p.Type.Is(want) {
			return false
		}
	}
	if invoke.ReturnType != nil && m.ReturnType != nil && invoke.ReturnType.IsVoid() != m.ReturnType.IsVoid() {
		return false
	}
	return true
}

// candidate is a method found applicable to an argument list
type candidate struct {
	method   *symbols.Method
	mapping  []int
	expanded bool
	score    int
	defaults int
	generic  bool
}

// overload picks the best applicable method for args. It returns nil when
// no candidate applies or when the best candidates tie.
func (b *binder) overload(methods []*symbols.Method, args []argument, typeArgs []*symbols.Type) *symbols.Method {
	var best []*candidate
	for _, m := range dedupe(methods) {
		c := b.applicable(m, args, typeArgs)
		if c == nil {
			continue
		}
		switch {
		case len(best) == 0:
			best = []*candidate{c}
		default:
			switch cmp := compareCandidates(c, best[0]); {
			case cmp > 0:
				best = []*candidate{c}
			case cmp == 0:
				best = append(best, c)
			}
		}
	}
	if len(best) != 1 {
		return nil
	}
	b.finalize(best[0], args)
	return best[0].method
}

// compareCandidates orders candidates by total conversion score, then
// prefers the normal form over the expanded params form, fewer defaulted
// parameters and non-generic methods.
func compareCandidates(a, c *candidate) int {
	switch {
	case a.score != c.score:
		return a.score - c.score
	case a.expanded != c.expanded:
		if a.expanded {
			return -1
		}
		return 1
	case a.defaults != c.defaults:
		return c.defaults - a.defaults
	case a.generic != c.generic:
		if a.generic {
			return -1
		}
		return 1
	}
	return 0
}

// dedupe drops methods whose signature repeats an earlier one, keeping the
// most derived declaration
func dedupe(methods []*symbols.Method) []*symbols.Method {
	seen := make(map[string]bool, len(methods))
	out := make([]*symbols.Method, 0, len(methods))
	for _, m := range methods {
		key := signatureKey(m)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, m)
	}
	return out
}

func signatureKey(m *symbols.Method) string {
	var sb strings.Builder
	sb.WriteString(m.Name)
	sb.WriteByte('`')
	sb.WriteString(strconv.Itoa(len(m.TypeParameters)))
	if m.Static {
		sb.WriteString("static")
	}
	for _, p := range m.Parameters {
		sb.WriteByte('|')
		sb.WriteString(p.RefKind.String())
		if p.Type != nil {
			sb.WriteString(symbols.ToDisplayString(p.Type, symbols.FullyQualifiedGenericFormat))
		}
	}
	return sb.String()
}

func (b *binder) applicable(m *symbols.Method, args []argument, typeArgs []*symbols.Type) *candidate {
	if len(typeArgs) > 0 {
		if len(m.TypeParameters) != len(typeArgs) {
			return nil
		}
		m = symbols.ConstructMethod(m, typeArgs)
	}
	for _, expanded := range []bool{false, true} {
		if expanded && !hasParamsArray(m) {
			break
		}
		mapping, defaults, ok := mapArguments(m.Parameters, args, expanded)
		if !ok || !refKindsMatch(m, args, mapping, expanded) {
			continue
		}
		bound := m
		generic := len(m.TypeParameters) > 0
		if generic && len(m.TypeArguments) == 0 {
			inferred := b.infer(m, args, mapping, expanded)
			if inferred == nil {
				continue
			}
			bound = symbols.ConstructMethod(m, inferred)
		}
		score := 0
		for i, arg := range args {
			s := b.conversion(arg, paramType(bound, mapping[i], expanded))
			if s < 0 {
				score = scoreReject
				break
			}
			score += s
		}
		if score < 0 {
			continue
		}
		return &candidate{method: bound, mapping: mapping, expanded: expanded, score: score, defaults: defaults, generic: generic}
	}
	return nil
}

func hasParamsArray(m *symbols.Method) bool {
	n := len(m.Parameters)
	return n > 0 && m.Parameters[n-1].IsParams && m.Parameters[n-1].Type.IsArray()
}

// mapArguments maps each argument to a parameter index. In expanded form
// trailing positional arguments all map to the params array.
func mapArguments(params []*symbols.Parameter, args []argument, expanded bool) ([]int, int, bool) {
	n := len(params)
	mapping := make([]int, len(args))
	filled := make([]bool, n)
	for i, a := range args {
		if a.name != "" {
			idx := -1
			for j, p := range params {
				if p.Name == a.name {
					idx = j
					break
				}
			}
			if idx < 0 || filled[idx] {
				return nil, 0, false
			}
			mapping[i] = idx
			filled[idx] = true
			continue
		}
		if expanded && i >= n-1 {
			mapping[i] = n - 1
			filled[n-1] = true
			continue
		}
		if i >= n || filled[i] {
			return nil, 0, false
		}
		mapping[i] = i
		filled[i] = true
	}
	defaults := 0
	for j, p := range params {
		switch {
		case filled[j]:
		case expanded && j == n-1:
		case p.HasDefault:
			defaults++
		default:
			return nil, 0, false
		}
	}
	return mapping, defaults, true
}

func refKindsMatch(m *symbols.Method, args []argument, mapping []int, expanded bool) bool {
	last := len(m.Parameters) - 1
	for i, a := range args {
		want := m.Parameters[mapping[i]].RefKind
		if expanded && mapping[i] == last {
			want = symbols.RefNone
		}
		switch {
		case want == a.refKind:
		case want == symbols.RefIn && a.refKind == symbols.RefNone:
		default:
			return false
		}
	}
	return true
}

func paramType(m *symbols.Method, idx int, expanded bool) *symbols.Type {
	p := m.Parameters[idx]
	if expanded && idx == len(m.Parameters)-1 && p.Type.IsArray() {
		return p.Type.Element
	}
	return p.Type
}

func (b *binder) conversion(arg argument, param *symbols.Type) int {
	switch {
	case param == nil:
		return scoreUnknown
	case arg.lambda != nil:
		invoke := b.delegateInvoke(param)
		if invoke == nil || arg.arity >= 0 && len(invoke.Parameters) != arg.arity {
			return scoreReject
		}
		return b.lambdaConversion(arg.lambda, invoke)
	case arg.group != nil:
		invoke := b.delegateInvoke(param)
		if invoke == nil {
			return scoreReject
		}
		reduced := arg.group.receiver != nil && len(arg.group.methods) == 0
		candidates := arg.group.methods
		if reduced {
			candidates = b.extensionCandidates(arg.group.name, arg.group.sc)
		}
		for _, m := range candidates {
			if signatureMatches(m, invoke, reduced) {
				return scoreLambda
			}
		}
		return scoreReject
	case arg.outVar != nil:
		return scoreExact
	case arg.null:
		if param.IsValueType() && !param.IsNullableValueType() {
			return scoreReject
		}
		return scoreReference
	case arg.typ == nil:
		return scoreUnknown
	}
	return b.convert(arg.typ, param)
}

// lambdaConversion scores a lambda against a delegate. Bodies that cannot
// produce the delegate's return type reject it; otherwise the score drops
// with the quality of the return type conversion.
func (b *binder) lambdaConversion(lambda *tree_sitter.Node, invoke *symbols.Method) int {
	body := field(lambda, "body")
	if body == nil {
		body = lastNamed(lambda)
	}
	if body == nil {
		return scoreLambda
	}
	wantVoid := invoke.ReturnType == nil || invoke.ReturnType.IsVoid()
	if body.Kind() == kindBlock {
		if returnsValue(body) == wantVoid {
			return scoreReject
		}
		if wantVoid {
			return scoreLambda
		}
	} else if wantVoid {
		if !statementExpressions[body.Kind()] {
			return scoreReject
		}
		return scoreLambda
	}

	params := parameterTypes(invoke)
	if registered, ok := b.lambdaParams[lambda.Id()]; ok && !sameTypes(registered, params) {
		return scoreLambda
	}
	for _, p := range params {
		if p == nil || hasTypeParameter(p) {
			return scoreLambda
		}
	}
	ret := b.lambdaReturnType(lambda, params)
	switch {
	case ret == nil || invoke.ReturnType.IsTypeParameter():
		return scoreLambda
	case ret.IsVoid():
		return scoreReject
	}
	c := b.convert(ret, invoke.ReturnType)
	if c < 0 {
		return scoreReject
	}
	return scoreLambda - (scoreExact-c)/10
}

// statementExpressions may form the body of a void-returning lambda
var statementExpressions = map[string]bool{
	kindInvocation:             true,
	kindObjectCreation:         true,
	kindConditionalAccess:      true,
	"assignment_expression":    true,
	"postfix_unary_expression": true,
	"prefix_unary_expression":  true,
	"await_expression":         true,
	"throw_expression":         true,
}

// returnsValue reports whether a lambda block body returns a value
func returnsValue(body *tree_sitter.Node) bool {
	found := false
	walk(body, func(n *tree_sitter.Node) bool {
		if found {
			return false
		}
		switch n.Kind() {
		case kindLambda, kindAnonymousMethod, kindLocalFunction:
			return false
		case kindReturnStatement:
			found = lastNamed(n) != nil
			return false
		}
		return true
	})
	return found
}

func hasTypeParameter(t *symbols.Type) bool {
	switch {
	case t == nil:
		return false
	case t.IsTypeParameter():
		return true
	case t.IsArray():
		return hasTypeParameter(t.Element)
	}
	for _, a := range t.TypeArguments {
		if hasTypeParameter(a) {
			return true
		}
	}
	return false
}

func sameTypes(a, c []*symbols.Type) bool {
	if len(a) != len(c) {
		return false
	}
	for i := range a {
		if !a[i].Is(c[i]) {
			return false
		}
	}
	return true
}

// convert scores the implicit conversion from one type to another
func (b *binder) convert(from, to *symbols.Type) int {
	if from.Is(to) {
		return scoreExact
	}
	if to.IsTypeParameter() || from.IsTypeParameter() {
		return scoreTypeParam
	}
	if fk, tk := numericKeyword(from), numericKeyword(to); fk != "" && tk != "" {
		for i, target := range implicitNumeric[fk] {
			if target == tk {
				return scoreNumeric - i
			}
		}
		return scoreReject
	}
	if to.IsNullableValueType() && !from.IsNullableValueType() {
		if c := b.convert(from, to.TypeArguments[0]); c > 0 {
			return scoreNullable - (scoreExact-c)/10
		}
		return scoreReject
	}
	if d := b.inheritanceDistance(from, to); d >= 0 {
		if isKeyword(to, "object") {
			return scoreObject
		}
		if d > 9 {
			d = 9
		}
		return scoreReference - d
	}
	return scoreReject
}

// inheritanceDistance returns how many steps up from's hierarchy to sits,
// or -1. Generic interfaces and delegates convert covariantly when their
// type arguments are reference types.
func (b *binder) inheritanceDistance(from, to *symbols.Type) int {
	for i, h := range b.hierarchy(from) {
		if h.Is(to) {
			return i
		}
		if variantConvertible(h, to) {
			return i + 1
		}
	}
	return -1
}

func variantConvertible(from, to *symbols.Type) bool {
	def := to.OriginalDefinition()
	if def != from.OriginalDefinition() || len(from.TypeArguments) != len(to.TypeArguments) || len(to.TypeArguments) == 0 {
		return false
	}
	if def.TypeKind != symbols.TypeKindInterface && def.TypeKind != symbols.TypeKindDelegate {
		return false
	}
	for i, a := range from.TypeArguments {
		t := to.TypeArguments[i]
		if a.Is(t) {
			continue
		}
		if a.IsValueType() || t.IsValueType() {
			return false
		}
	}
	return true
}

// infer infers the type arguments of a generic method from its arguments.
// Lambdas contribute their return types once the delegate parameter types
// they depend on are fixed.
func (b *binder) infer(m *symbols.Method, args []argument, mapping []int, expanded bool) []*symbols.Type {
	tps := m.TypeParameters
	sub := make(symbols.Substitution, len(tps))
	for i, arg := range args {
		if arg.lambda != nil || arg.group != nil || arg.typ == nil {
			continue
		}
		b.unify(paramType(m, mapping[i], expanded), arg.typ, sub, tps)
	}
	for round := 0; round < len(args); round++ {
		progress := false
		for i, arg := range args {
			if arg.lambda == nil {
				continue
			}
			invoke := b.delegateInvoke(sub.Apply(paramType(m, mapping[i], expanded)))
			if invoke == nil || invoke.ReturnType == nil || !mentions(invoke.ReturnType, tps) {
				continue
			}
			params := parameterTypes(invoke)
			if anyMentions(params, tps) {
				continue
			}
			if ret := b.lambdaReturnType(arg.lambda, params); ret != nil && !ret.IsVoid() && b.unify(invoke.ReturnType, ret, sub, tps) {
				progress = true
			}
		}
		if !progress {
			break
		}
	}
	out := make([]*symbols.Type, len(tps))
	for i, tp := range tps {
		t, ok := sub[tp]
		if !ok || t == nil {
			return nil
		}
		out[i] = t
	}
	return out
}

// unify matches a parameter type against an argument type and records
// bindings for the method type parameters it contains. It reports whether
// a new binding was made.
func (b *binder) unify(param, arg *symbols.Type, sub symbols.Substitution, tps []*symbols.Type) bool {
	if param == nil || arg == nil {
		return false
	}
	if isOneOf(param, tps) {
		if _, ok := sub[param]; ok {
			return false
		}
		sub[param] = arg
		return true
	}
	if param.IsArray() {
		if arg.IsArray() && arg.Rank == param.Rank {
			return b.unify(param.Element, arg.Element, sub, tps)
		}
		return false
	}
	if len(param.TypeArguments) == 0 {
		return false
	}
	if param.IsNullableValueType() && !arg.IsNullableValueType() {
		return b.unify(param.TypeArguments[0], arg, sub, tps)
	}
	def := param.OriginalDefinition()
	for _, h := range b.hierarchy(arg) {
		if h.OriginalDefinition() != def || len(h.TypeArguments) != len(param.TypeArguments) {
			continue
		}
		changed := false
		for i := range param.TypeArguments {
			if b.unify(param.TypeArguments[i], h.TypeArguments[i], sub, tps) {
				changed = true
			}
		}
		return changed
	}
	return false
}

func isOneOf(t *symbols.Type, set []*symbols.Type) bool {
	for _, s := range set {
		if t == s {
			return true
		}
	}
	return false
}

// mentions reports whether t refers to any of the type parameters
func mentions(t *symbols.Type, tps []*symbols.Type) bool {
	switch {
	case t == nil:
		return false
	case isOneOf(t, tps):
		return true
	case t.IsArray():
		return mentions(t.Element, tps)
	}
	return anyMentions(t.TypeArguments, tps)
}

func anyMentions(types []*symbols.Type, tps []*symbols.Type) bool {
	for _, t := range types {
		if mentions(t, tps) {
			return true
		}
	}
	return false
}

// finalize records what the chosen method tells us about its arguments:
// lambda parameter types, method group targets and out var types
func (b *binder) finalize(c *candidate, args []argument) {
	for i, arg := range args {
		pt := paramType(c.method, c.mapping[i], c.expanded)
		switch {
		case arg.lambda != nil:
			if invoke := b.delegateInvoke(pt); invoke != nil {
				b.registerLambda(arg.lambda, parameterTypes(invoke))
			}
		case arg.group != nil && arg.expr != nil:
			b.groupTargets[arg.expr.Id()] = pt
		case arg.outVar != nil:
			b.outVars[arg.outVar.Id()] = pt
		}
	}
}
