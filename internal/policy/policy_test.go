package policy

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		used    []string
		allowed *AllowList
		want    Report
	}{
		{
			name: "absent list never violates",
			used: []string{"System.IO.File"},
			want: Report{Violated: false, Offending: []string{}},
		},
		{
			name:    "all allowed",
			used:    []string{"System.Int32"},
			allowed: NewAllowList("System.Int32"),
			want:    Report{Violated: false, Offending: []string{}},
		},
		{
			name:    "offending in use order",
			used:    []string{"System.String", "System.Collections.Generic.List<System.Int32>", "System.Object"},
			allowed: NewAllowList("System.String"),
			want:    Report{Violated: true, Offending: []string{"System.Collections.Generic.List<System.Int32>", "System.Object"}},
		},
		{
			name:    "empty list denies everything",
			used:    []string{"void System.Console.WriteLine(string)"},
			allowed: NewAllowList(),
			want:    Report{Violated: true, Offending: []string{"void System.Console.WriteLine(string)"}},
		},
		{
			name:    "duplicates preserved",
			used:    []string{"a", "b", "a", "a"},
			allowed: NewAllowList("b"),
			want:    Report{Violated: true, Offending: []string{"a", "a", "a"}},
		},
		{
			name:    "matching is case sensitive",
			used:    []string{"system.int32"},
			allowed: NewAllowList("System.Int32"),
			want:    Report{Violated: true, Offending: []string{"system.int32"}},
		},
		{
			name:    "nothing used",
			allowed: NewAllowList(),
			want:    Report{Violated: false, Offending: []string{}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Check(tt.used, tt.allowed))
		})
	}
}

func TestReportDistinct(t *testing.T) {
	r := Check([]string{"a", "b", "a", "c", "b"}, NewAllowList("c"))
	assert.Equal(t, []string{"a", "b", "a", "b"}, r.Offending)
	assert.Equal(t, []string{"a", "b"}, r.Distinct())
	assert.Empty(t, Report{}.Distinct())
}

func TestAllowList(t *testing.T) {
	a := NewAllowList("b", "a", "b")
	assert.Equal(t, 2, a.Len())
	assert.Equal(t, []string{"b", "a"}, a.Names())
	assert.Equal(t, []string{"a", "b"}, a.Sorted())
	assert.True(t, a.Contains("a"))
	assert.False(t, a.Contains("c"))

	var absent *AllowList
	assert.False(t, absent.Contains("a"))
	assert.Zero(t, absent.Len())
	assert.Nil(t, absent.Names())

	merged := a.Merge(NewAllowList("c", "a"))
	assert.Equal(t, []string{"b", "a", "c"}, merged.Names())
	assert.Same(t, a, a.Merge(nil))
	assert.Same(t, a, absent.Merge(a))
}

func TestConfigJSONKeepsAbsenceDistinctFromEmpty(t *testing.T) {
	var cfg Config
	require.NoError(t, json.Unmarshal([]byte(`{"allowedVariableTypes": [], "allowedMethodSignatures": null}`), &cfg))
	require.NotNil(t, cfg.AllowedVariableTypes)
	assert.Zero(t, cfg.AllowedVariableTypes.Len())
	assert.Nil(t, cfg.AllowedMethodSignatures)
	assert.False(t, cfg.IsEmpty())

	out, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"allowedVariableTypes": [], "allowedMethodSignatures": null}`, string(out))

	require.NoError(t, json.Unmarshal([]byte(`{"allowedVariableTypes": ["System.Int32", "System.String"]}`), &cfg))
	assert.Equal(t, []string{"System.Int32", "System.String"}, cfg.AllowedVariableTypes.Names())

	assert.Error(t, json.Unmarshal([]byte(`{"allowedVariableTypes": "System.Int32"}`), &cfg))
}

func TestConfigMerge(t *testing.T) {
	base := &Config{AllowedVariableTypes: NewAllowList("System.Int32")}
	over := &Config{AllowedMethodSignatures: NewAllowList()}

	merged := base.Merge(over)
	assert.Equal(t, []string{"System.Int32"}, merged.AllowedVariableTypes.Names())
	require.NotNil(t, merged.AllowedMethodSignatures)
	assert.Zero(t, merged.AllowedMethodSignatures.Len())
	assert.Nil(t, base.AllowedMethodSignatures)

	var none *Config
	assert.True(t, none.IsEmpty())
	assert.Same(t, base, none.Merge(base))
	assert.Same(t, base, base.Merge(nil))
}

func TestSuggest(t *testing.T) {
	allowed := NewAllowList(
		"void System.Console.WriteLine(string)",
		"void System.Console.WriteLine(int)",
		"int System.Math.Abs(int)",
	)

	got := Suggest("void System.Console.WriteLine(object)", allowed, 2)
	require.Len(t, got, 2)
	assert.ElementsMatch(t, []string{
		"void System.Console.WriteLine(string)",
		"void System.Console.WriteLine(int)",
	}, got)

	assert.Empty(t, Suggest("Foo", allowed, 3))
	assert.Nil(t, Suggest("x", nil, 3))
	assert.Nil(t, Suggest("x", allowed, 0))
}

func TestMatcherSimilarity(t *testing.T) {
	m := NewMatcher(2)
	assert.Equal(t, DefaultSuggestThreshold, m.Threshold())

	assert.Equal(t, 1.0, m.Similarity("System.Int32", "System.Int32"))
	assert.Equal(t, 0.0, m.Similarity("", "System.Int32"))
	assert.Greater(t, m.Similarity("System.Int32", "System.Int64"), 0.9)
	assert.Less(t, m.Similarity("System.Int32", "void X.Y()"), 0.6)

	strict := NewMatcher(0.99)
	assert.Empty(t, strict.Suggest("System.Int32", NewAllowList("System.Int64", "System.Int32"), 5))
}
