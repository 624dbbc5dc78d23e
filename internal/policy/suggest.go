package policy

import (
	"sort"

	"github.com/hbollon/go-edlib"
)

// DefaultSuggestThreshold is the minimum Jaro-Winkler similarity for an
// allowed name to be offered as a suggestion
const DefaultSuggestThreshold = 0.80

// Suggestion is an allowed name close to an offending one
type Suggestion struct {
	Name       string  `json:"name"`
	Similarity float64 `json:"similarity"`
}

// Matcher finds allowed names similar to offending ones
type Matcher struct {
	threshold float64
}

// NewMatcher creates a matcher. Thresholds outside [0, 1] fall back to
// DefaultSuggestThreshold.
func NewMatcher(threshold float64) *Matcher {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultSuggestThreshold
	}
	return &Matcher{threshold: threshold}
}

func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Similarity returns the Jaro-Winkler similarity of two names (0.0-1.0)
func (m *Matcher) Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	score, err := edlib.StringsSimilarity(a, b, edlib.JaroWinkler)
	if err != nil {
		return 0.0
	}
	return float64(score)
}

// Suggest returns up to limit allowed names whose similarity to name reaches
// the threshold, best first. Ties keep allow-list order.
func (m *Matcher) Suggest(name string, allowed *AllowList, limit int) []Suggestion {
	if allowed == nil || limit <= 0 {
		return nil
	}
	var out []Suggestion
	for _, cand := range allowed.names {
		if cand == name {
			continue
		}
		if s := m.Similarity(name, cand); s >= m.threshold {
			out = append(out, Suggestion{Name: cand, Similarity: s})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Similarity > out[j].Similarity
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Suggest returns the names of up to limit allowed entries closest to name
// using the default threshold
func Suggest(name string, allowed *AllowList, limit int) []string {
	var names []string
	for _, s := range NewMatcher(DefaultSuggestThreshold).Suggest(name, allowed, limit) {
		names = append(names, s.Name)
	}
	return names
}
