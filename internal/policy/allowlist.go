// Package policy compares the canonical names a snippet uses against
// administrator-supplied allow lists.
//
// An absent allow list (a nil *AllowList) places no restriction on its kind.
// A present list with no names allows nothing. The two are never collapsed.
package policy

import (
	"encoding/json"
	"sort"
)

// AllowList is an ordered set of canonical names
type AllowList struct {
	names []string
	set   map[string]struct{}
}

// NewAllowList returns a present allow list holding names. Duplicates are
// kept once, in first-seen order. NewAllowList() is the empty, deny-all list.
func NewAllowList(names ...string) *AllowList {
	a := &AllowList{names: []string{}, set: make(map[string]struct{}, len(names))}
	for _, n := range names {
		a.add(n)
	}
	return a
}

func (a *AllowList) add(name string) {
	if _, ok := a.set[name]; ok {
		return
	}
	a.set[name] = struct{}{}
	a.names = append(a.names, name)
}

// Contains reports whether name is allowed. Matching is exact and case
// sensitive. A nil list contains nothing.
func (a *AllowList) Contains(name string) bool {
	if a == nil {
		return false
	}
	_, ok := a.set[name]
	return ok
}

// Names returns a copy of the allowed names in insertion order
func (a *AllowList) Names() []string {
	if a == nil {
		return nil
	}
	return append([]string{}, a.names...)
}

// Sorted returns the allowed names in lexical order
func (a *AllowList) Sorted() []string {
	out := a.Names()
	sort.Strings(out)
	return out
}

func (a *AllowList) Len() int {
	if a == nil {
		return 0
	}
	return len(a.names)
}

// Merge returns a list holding the names of both lists. Merging with an
// absent list yields the other list unchanged.
func (a *AllowList) Merge(b *AllowList) *AllowList {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	out := NewAllowList(a.names...)
	for _, n := range b.names {
		out.add(n)
	}
	return out
}

// MarshalJSON renders the list as a JSON array, or null when absent
func (a *AllowList) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("null"), nil
	}
	return json.Marshal(a.names)
}

// UnmarshalJSON reads a JSON array. A JSON null leaves an *AllowList field
// nil, so absence survives a round trip.
func (a *AllowList) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	*a = *NewAllowList(names...)
	return nil
}

// Config is the policy applied to one analysis. A nil *Config, or a Config
// whose lists are both nil, restricts nothing.
type Config struct {
	AllowedVariableTypes    *AllowList `json:"allowedVariableTypes"`
	AllowedMethodSignatures *AllowList `json:"allowedMethodSignatures"`
}

// IsEmpty reports whether c restricts nothing
func (c *Config) IsEmpty() bool {
	return c == nil || (c.AllowedVariableTypes == nil && c.AllowedMethodSignatures == nil)
}

// Merge layers o over c. A list present in o replaces the one in c.
func (c *Config) Merge(o *Config) *Config {
	if c == nil {
		return o
	}
	if o == nil {
		return c
	}
	out := *c
	if o.AllowedVariableTypes != nil {
		out.AllowedVariableTypes = o.AllowedVariableTypes
	}
	if o.AllowedMethodSignatures != nil {
		out.AllowedMethodSignatures = o.AllowedMethodSignatures
	}
	return &out
}
