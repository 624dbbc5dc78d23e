package policy

// Report is the outcome of checking one kind of name against its allow list
type Report struct {
	Violated bool `json:"violated"`
	// Offending lists every used name missing from the allow list in use
	// order, once per use
	Offending []string `json:"offendingNames"`
}

// Check compares used against allowed. An absent allow list never
// violates. Otherwise every used name that is not allowed is reported, one
// entry per occurrence, in the order the names were used.
func Check(used []string, allowed *AllowList) Report {
	r := Report{Offending: []string{}}
	if allowed == nil {
		return r
	}
	for _, name := range used {
		if !allowed.Contains(name) {
			r.Offending = append(r.Offending, name)
		}
	}
	r.Violated = len(r.Offending) > 0
	return r
}

// Distinct returns the offending names with repeats removed, keeping first
// occurrence order. It is for display; Check itself never deduplicates.
func (r Report) Distinct() []string {
	seen := make(map[string]struct{}, len(r.Offending))
	out := make([]string, 0, len(r.Offending))
	for _, n := range r.Offending {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
