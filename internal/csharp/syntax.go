package csharp

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// Node kinds of the tree-sitter C# grammar the binder inspects
const (
	kindCompilationUnit     = "compilation_unit"
	kindGlobalStatement     = "global_statement"
	kindUsingDirective      = "using_directive"
	kindNamespace           = "namespace_declaration"
	kindFileScopedNamespace = "file_scoped_namespace_declaration"
	kindDeclarationList     = "declaration_list"

	kindClass     = "class_declaration"
	kindStruct    = "struct_declaration"
	kindInterface = "interface_declaration"
	kindEnum      = "enum_declaration"
	kindRecord    = "record_declaration"
	kindDelegate  = "delegate_declaration"

	kindMethod        = "method_declaration"
	kindConstructor   = "constructor_declaration"
	kindDestructor    = "destructor_declaration"
	kindOperator      = "operator_declaration"
	kindConversion    = "conversion_operator_declaration"
	kindProperty      = "property_declaration"
	kindIndexer       = "indexer_declaration"
	kindField         = "field_declaration"
	kindEventField    = "event_field_declaration"
	kindEvent         = "event_declaration"
	kindEnumMember    = "enum_member_declaration"
	kindAccessor      = "accessor_declaration"
	kindLocalFunction = "local_function_statement"

	kindParameterList        = "parameter_list"
	kindBracketedParameters  = "bracketed_parameter_list"
	kindParameter            = "parameter"
	kindParameterArray       = "parameter_array"
	kindTypeParameterList    = "type_parameter_list"
	kindTypeParameter        = "type_parameter"
	kindBaseList             = "base_list"
	kindPrimaryCtorBase      = "primary_constructor_base_type"
	kindModifier             = "modifier"
	kindVariableDeclaration  = "variable_declaration"
	kindVariableDeclarator   = "variable_declarator"
	kindEqualsValueClause    = "equals_value_clause"
	kindLocalDeclaration     = "local_declaration_statement"
	kindArrowExpression      = "arrow_expression_clause"
	kindBlock                = "block"
	kindSwitchSection        = "switch_section"
	kindReturnStatement      = "return_statement"
	kindExpressionStatement  = "expression_statement"
	kindForStatement         = "for_statement"
	kindForeachStatement     = "foreach_statement"
	kindUsingStatement       = "using_statement"
	kindFixedStatement       = "fixed_statement"
	kindCatchClause          = "catch_clause"
	kindCatchDeclaration     = "catch_declaration"
	kindIfStatement          = "if_statement"
	kindDeclarationPattern   = "declaration_pattern"
	kindVarPattern           = "var_pattern"
	kindSingleVarDesignation = "single_variable_designation"

	kindIdentifier       = "identifier"
	kindGenericName      = "generic_name"
	kindQualifiedName    = "qualified_name"
	kindAliasQualified   = "alias_qualified_name"
	kindPredefinedType   = "predefined_type"
	kindImplicitType     = "implicit_type"
	kindNullableType     = "nullable_type"
	kindArrayType        = "array_type"
	kindArrayRank        = "array_rank_specifier"
	kindTupleType        = "tuple_type"
	kindTupleElement     = "tuple_element"
	kindRefType          = "ref_type"
	kindScopedType       = "scoped_type"
	kindPointerType      = "pointer_type"
	kindTypeArgumentList = "type_argument_list"
	kindImplicitParam    = "implicit_parameter"

	kindInvocation            = "invocation_expression"
	kindArgumentList          = "argument_list"
	kindBracketedArguments    = "bracketed_argument_list"
	kindArgument              = "argument"
	kindMemberAccess          = "member_access_expression"
	kindMemberBinding         = "member_binding_expression"
	kindConditionalAccess     = "conditional_access_expression"
	kindElementBinding        = "element_binding_expression"
	kindObjectCreation        = "object_creation_expression"
	kindImplicitObjCreation   = "implicit_object_creation_expression"
	kindArrayCreation         = "array_creation_expression"
	kindImplicitArrayCreation = "implicit_array_creation_expression"
	kindInitializer           = "initializer_expression"
	kindLambda                = "lambda_expression"
	kindAnonymousMethod       = "anonymous_method_expression"
	kindDeclarationExpression = "declaration_expression"
	kindQueryExpression       = "query_expression"
)

var typeDeclarationKinds = map[string]bool{
	kindClass:     true,
	kindStruct:    true,
	kindInterface: true,
	kindEnum:      true,
	kindRecord:    true,
	kindDelegate:  true,
}

// functionKinds own a parameter list that is visible to their body
var functionKinds = map[string]bool{
	kindMethod:          true,
	kindConstructor:     true,
	kindDestructor:      true,
	kindOperator:        true,
	kindConversion:      true,
	kindLocalFunction:   true,
	kindIndexer:         true,
	kindAccessor:        true,
	kindLambda:          true,
	kindAnonymousMethod: true,
}

// expressionKinds are the node kinds that always denote an expression.
// Identifiers and generic names are expressions only in value position, see
// isExpression.
var expressionKinds = map[string]bool{
	kindInvocation:                         true,
	kindMemberAccess:                       true,
	kindMemberBinding:                      true,
	kindConditionalAccess:                  true,
	kindElementBinding:                     true,
	kindObjectCreation:                     true,
	kindImplicitObjCreation:                true,
	kindArrayCreation:                      true,
	kindImplicitArrayCreation:              true,
	kindLambda:                             true,
	kindAnonymousMethod:                    true,
	kindDeclarationExpression:              true,
	kindQueryExpression:                    true,
	"element_access_expression":            true,
	"cast_expression":                      true,
	"binary_expression":                    true,
	"prefix_unary_expression":              true,
	"postfix_unary_expression":             true,
	"assignment_expression":                true,
	"conditional_expression":               true,
	"parenthesized_expression":             true,
	"await_expression":                     true,
	"typeof_expression":                    true,
	"sizeof_expression":                    true,
	"default_expression":                   true,
	"checked_expression":                   true,
	"is_expression":                        true,
	"is_pattern_expression":                true,
	"as_expression":                        true,
	"interpolated_string_expression":       true,
	"string_literal":                       true,
	"verbatim_string_literal":              true,
	"raw_string_literal":                   true,
	"character_literal":                    true,
	"integer_literal":                      true,
	"real_literal":                         true,
	"boolean_literal":                      true,
	"null_literal":                         true,
	"this_expression":                      true,
	"this":                                 true,
	"base_expression":                      true,
	"base":                                 true,
	"tuple_expression":                     true,
	"switch_expression":                    true,
	"throw_expression":                     true,
	"range_expression":                     true,
	"ref_expression":                       true,
	"with_expression":                      true,
	"anonymous_object_creation_expression": true,
	"stackalloc_expression":                true,
	"implicit_stackalloc_expression":       true,
}

// valueParents are node kinds whose identifier children sit in value
// position unless they fill one of the excluded fields below
var valueParents = map[string]bool{
	kindArgument:                true,
	kindExpressionStatement:     true,
	kindMemberAccess:            true,
	kindInvocation:              true,
	kindReturnStatement:         true,
	kindVariableDeclarator:      true,
	kindEqualsValueClause:       true,
	kindArrowExpression:         true,
	kindInitializer:             true,
	kindConditionalAccess:       true,
	kindLambda:                  true,
	"binary_expression":         true,
	"assignment_expression":     true,
	"conditional_expression":    true,
	"parenthesized_expression":  true,
	"element_access_expression": true,
	"prefix_unary_expression":   true,
	"postfix_unary_expression":  true,
	"cast_expression":           true,
	"await_expression":          true,
	"interpolation":             true,
	"is_pattern_expression":     true,
	"is_expression":             true,
	"as_expression":             true,
	"if_statement":              true,
	"while_statement":           true,
	"do_statement":              true,
	kindForStatement:            true,
	kindForeachStatement:        true,
	"switch_statement":          true,
	"switch_expression":         true,
	"switch_expression_arm":     true,
	"throw_statement":           true,
	"throw_expression":          true,
	"yield_statement":           true,
	"lock_statement":            true,
	kindUsingStatement:          true,
	"checked_expression":        true,
	"range_expression":          true,
	"ref_expression":            true,
	"tuple_expression":          true,
	"with_expression":           true,
	"enum_member_declaration":   true,
}

// excludedValueFields name the fields that hold declarations or types rather
// than values
var excludedValueFields = []string{"name", "type", "left"}

func nodeText(n *tree_sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	return n.Utf8Text(src)
}

// compactText returns node text with all whitespace removed, used for
// qualified names that may span lines
func compactText(n *tree_sitter.Node, src []byte) string {
	return strings.Join(strings.Fields(nodeText(n, src)), "")
}

func sameNode(a, b *tree_sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Id() == b.Id()
}

func field(n *tree_sitter.Node, names ...string) *tree_sitter.Node {
	if n == nil {
		return nil
	}
	for _, name := range names {
		if c := n.ChildByFieldName(name); c != nil {
			return c
		}
	}
	return nil
}

func namedChildren(n *tree_sitter.Node) []*tree_sitter.Node {
	if n == nil {
		return nil
	}
	count := n.NamedChildCount()
	out := make([]*tree_sitter.Node, 0, count)
	for i := uint(0); i < count; i++ {
		if c := n.NamedChild(i); c != nil {
			out = append(out, c)
		}
	}
	return out
}

func allChildren(n *tree_sitter.Node) []*tree_sitter.Node {
	if n == nil {
		return nil
	}
	count := n.ChildCount()
	out := make([]*tree_sitter.Node, 0, count)
	for i := uint(0); i < count; i++ {
		if c := n.Child(i); c != nil {
			out = append(out, c)
		}
	}
	return out
}

func childOfKind(n *tree_sitter.Node, kinds ...string) *tree_sitter.Node {
	for _, c := range namedChildren(n) {
		for _, k := range kinds {
			if c.Kind() == k {
				return c
			}
		}
	}
	return nil
}

func childrenOfKind(n *tree_sitter.Node, kind string) []*tree_sitter.Node {
	var out []*tree_sitter.Node
	for _, c := range namedChildren(n) {
		if c.Kind() == kind {
			out = append(out, c)
		}
	}
	return out
}

// hasToken reports whether n has a direct child token with the given text.
// Keywords such as static, params and this appear either as anonymous tokens
// or wrapped in modifier nodes depending on the grammar rule.
func hasToken(n *tree_sitter.Node, src []byte, token string) bool {
	for _, c := range allChildren(n) {
		if c.Kind() == token {
			return true
		}
		if c.Kind() == kindModifier && nodeText(c, src) == token {
			return true
		}
	}
	return false
}

func modifiers(n *tree_sitter.Node, src []byte) map[string]bool {
	mods := make(map[string]bool)
	for _, c := range allChildren(n) {
		if c.Kind() == kindModifier {
			mods[strings.TrimSpace(nodeText(c, src))] = true
		}
	}
	return mods
}

// declName returns the declared identifier of a declaration node
func declName(n *tree_sitter.Node, src []byte) string {
	if name := field(n, "name"); name != nil {
		return nodeText(name, src)
	}
	if id := childOfKind(n, kindIdentifier); id != nil {
		return nodeText(id, src)
	}
	return ""
}

// isField reports whether child fills one of parent's named fields
func isField(parent, child *tree_sitter.Node, names ...string) bool {
	for _, name := range names {
		if sameNode(parent.ChildByFieldName(name), child) {
			return true
		}
	}
	return false
}

// precedes reports whether a ends before b starts
func precedes(a, b *tree_sitter.Node) bool {
	return a.EndByte() <= b.StartByte()
}

// isExpression reports whether n is an expression node in document terms:
// a node of an expression kind, or a simple name in value position under
// parent.
func isExpression(n, parent *tree_sitter.Node) bool {
	kind := n.Kind()
	if expressionKinds[kind] {
		return true
	}
	if kind != kindIdentifier && kind != kindGenericName {
		return false
	}
	if parent == nil || !valueParents[parent.Kind()] {
		return false
	}
	switch parent.Kind() {
	case kindMemberAccess:
		// the accessed name is part of the member access itself
		return isField(parent, n, "expression")
	case kindLambda:
		return isField(parent, n, "body")
	case kindForeachStatement:
		return isField(parent, n, "right")
	}
	return !isField(parent, n, excludedValueFields...)
}

// firstSyntaxError returns the first ERROR or MISSING node in document order
func firstSyntaxError(root *tree_sitter.Node) *tree_sitter.Node {
	if root == nil || !root.HasError() {
		return nil
	}
	stack := []*tree_sitter.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.IsError() || n.IsMissing() {
			return n
		}
		if !n.HasError() {
			continue
		}
		children := allChildren(n)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return root
}

// walk visits n and its descendants in document order
func walk(n *tree_sitter.Node, fn func(*tree_sitter.Node) bool) {
	if n == nil {
		return
	}
	stack := []*tree_sitter.Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(cur) {
			continue
		}
		children := namedChildren(cur)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
}
