package metadata

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/standardbeagle/snippetgate/internal/symbols"
)

// Table indexes named types by full name and arity, and records every
// namespace that contains at least one type. A table built from a catalog is
// frozen after loading and shared read-only between analyses.
type Table struct {
	mu         sync.RWMutex
	types      map[string]*symbols.Type
	namespaces map[string]bool
	order      []*symbols.Type
	frozen     bool
}

// NewTable creates an empty table
func NewTable() *Table {
	return &Table{
		types:      make(map[string]*symbols.Type),
		namespaces: map[string]bool{"": true},
	}
}

func typeKey(fullName string, arity int) string {
	if arity == 0 {
		return fullName
	}
	return fullName + "`" + strconv.Itoa(arity)
}

// Add registers a type definition. Adding a type whose key already exists
// returns the existing definition so partial declarations merge into one
// symbol.
func (t *Table) Add(typ *symbols.Type) *symbols.Type {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := typeKey(typ.FullName(), len(typ.TypeParameters))
	if existing, ok := t.types[key]; ok {
		return existing
	}
	if t.frozen {
		return typ
	}
	t.types[key] = typ
	t.order = append(t.order, typ)

	ns := typ.Namespace
	for ns != "" {
		t.namespaces[ns] = true
		i := strings.LastIndexByte(ns, '.')
		if i < 0 {
			break
		}
		ns = ns[:i]
	}
	return typ
}

// Freeze stops further additions
func (t *Table) Freeze() {
	t.mu.Lock()
	t.frozen = true
	t.mu.Unlock()
}

// Lookup finds a type by full name (Namespace.Outer.Name) and arity
func (t *Table) Lookup(fullName string, arity int) *symbols.Type {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.types[typeKey(fullName, arity)]
}

// HasNamespace reports whether ns contains types in this table
func (t *Table) HasNamespace(ns string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.namespaces[ns]
}

// Types returns every registered type in registration order
func (t *Table) Types() []*symbols.Type {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*symbols.Type, len(t.order))
	copy(out, t.order)
	return out
}

// Namespaces returns the known namespaces sorted by name
func (t *Table) Namespaces() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.namespaces))
	for ns := range t.namespaces {
		if ns != "" {
			out = append(out, ns)
		}
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered types
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.order)
}
