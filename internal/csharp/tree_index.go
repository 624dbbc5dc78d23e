package csharp

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// treeIndex holds per-node facts about a file's tree, built in one cursor
// pass. tree-sitter's Node.Parent descends from the root on every call, so
// ancestor walks go through the index instead.
type treeIndex struct {
	parents map[uintptr]tree_sitter.Node
	// owners maps a node to the nearest node at or above it that opens a
	// scope: a type, method, local function, namespace or the compilation unit
	owners map[uintptr]tree_sitter.Node
	// nameof holds nodes that sit inside the argument of nameof(...)
	nameof map[uintptr]bool
	// depth is the length of the longest root-to-leaf path
	depth int
}

func isScopeOwner(kind string) bool {
	switch kind {
	case kindMethod, kindLocalFunction, kindNamespace, kindCompilationUnit:
		return true
	}
	return typeDeclarationKinds[kind]
}

func buildTreeIndex(root *tree_sitter.Node, src []byte) *treeIndex {
	idx := &treeIndex{
		parents: make(map[uintptr]tree_sitter.Node),
		owners:  make(map[uintptr]tree_sitter.Node),
		nameof:  make(map[uintptr]bool),
	}
	if root == nil {
		return idx
	}
	idx.owners[root.Id()] = *root

	nameofCalls := make(map[uintptr]*tree_sitter.Node)
	record := func(n, parent tree_sitter.Node) {
		id := n.Id()
		idx.parents[id] = parent
		if isScopeOwner(n.Kind()) {
			idx.owners[id] = n
		} else if o, ok := idx.owners[parent.Id()]; ok {
			idx.owners[id] = o
		}

		switch parent.Kind() {
		case kindInvocation:
			fn, seen := nameofCalls[parent.Id()]
			if !seen {
				fn = parent.ChildByFieldName("function")
				if fn == nil || fn.Kind() != kindIdentifier || nodeText(fn, src) != "nameof" {
					fn = nil
				}
				nameofCalls[parent.Id()] = fn
			}
			if fn != nil && fn.Id() != id {
				idx.nameof[id] = true
			}
		case kindArgument, kindArgumentList, kindMemberAccess:
			if idx.nameof[parent.Id()] {
				idx.nameof[id] = true
			}
		}
	}

	c := root.Walk()
	defer c.Close()
	stack := []tree_sitter.Node{*root}
	for {
		if c.GotoFirstChild() {
			n := *c.Node()
			record(n, stack[len(stack)-1])
			stack = append(stack, n)
			if len(stack) > idx.depth {
				idx.depth = len(stack)
			}
			continue
		}
		for !c.GotoNextSibling() {
			if !c.GotoParent() {
				return idx
			}
			stack = stack[:len(stack)-1]
		}
		stack = stack[:len(stack)-1]
		n := *c.Node()
		record(n, stack[len(stack)-1])
		stack = append(stack, n)
	}
}

func (f *file) index() *treeIndex {
	if f.idx == nil {
		f.idx = buildTreeIndex(f.root, f.src)
	}
	return f.idx
}

// parent returns the parent of n, or nil at the root
func (f *file) parent(n *tree_sitter.Node) *tree_sitter.Node {
	if n == nil {
		return nil
	}
	p, ok := f.index().parents[n.Id()]
	if !ok {
		return nil
	}
	return &p
}

// owner returns the scope-opening node at or above n
func (f *file) owner(n *tree_sitter.Node) *tree_sitter.Node {
	if n == nil {
		return nil
	}
	o, ok := f.index().owners[n.Id()]
	if !ok {
		return nil
	}
	return &o
}

// inNameof reports whether n is part of a nameof argument, where names are
// mentioned but never used
func (f *file) inNameof(n *tree_sitter.Node) bool {
	return n != nil && f.index().nameof[n.Id()]
}
