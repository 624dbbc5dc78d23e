// Package analyzer runs the full gate over one snippet: parse, extract the
// variable types and method references it uses, canonicalize them and check
// each kind against its allow list.
package analyzer

import (
	"errors"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/snippetgate/internal/cache"
	"github.com/standardbeagle/snippetgate/internal/csharp"
	"github.com/standardbeagle/snippetgate/internal/debug"
	sgerrors "github.com/standardbeagle/snippetgate/internal/errors"
	"github.com/standardbeagle/snippetgate/internal/extract"
	"github.com/standardbeagle/snippetgate/internal/frontend"
	"github.com/standardbeagle/snippetgate/internal/naming"
	"github.com/standardbeagle/snippetgate/internal/policy"
)

// Result is the combined report for one snippet
type Result struct {
	VariableTypes policy.Report `json:"variableTypes"`
	Methods       policy.Report `json:"methods"`

	// UsedVariableTypes and UsedMethods are the canonical names that were
	// checked. They stay nil when no policy was supplied.
	UsedVariableTypes []string `json:"usedVariableTypes,omitempty"`
	UsedMethods       []string `json:"usedMethods,omitempty"`

	// Skipped counts variable declarations whose type did not resolve
	Skipped int `json:"skipped,omitempty"`

	// Digest fingerprints the two reports so identical outcomes compare
	// equal across runs
	Digest string `json:"digest"`
}

// Violated reports whether either kind has an offending name
func (r *Result) Violated() bool {
	return r.VariableTypes.Violated || r.Methods.Violated
}

// Name is a canonical name with the place it was used
type Name struct {
	Name     string            `json:"name"`
	Position frontend.Position `json:"position"`
	Text     string            `json:"text"`
}

// Inventory lists every canonical name a snippet uses without applying a
// policy
type Inventory struct {
	VariableTypes []Name `json:"variableTypes"`
	Methods       []Name `json:"methods"`
	Skipped       int    `json:"skipped,omitempty"`
}

// TypeNames returns the variable type names in use order
func (inv *Inventory) TypeNames() []string {
	return names(inv.VariableTypes)
}

// MethodNames returns the method names in use order
func (inv *Inventory) MethodNames() []string {
	return names(inv.Methods)
}

func names(in []Name) []string {
	out := make([]string, len(in))
	for i, n := range in {
		out[i] = n.Name
	}
	return out
}

// Analyzer is safe for concurrent use when its parser is
type Analyzer struct {
	parser frontend.Parser
	cache  *cache.Cache[*usedNames]
}

// usedNames are the canonical names one source text uses
type usedNames struct {
	types   []string
	methods []string
	skipped int
}

// New creates an analyzer over any front end
func New(parser frontend.Parser) *Analyzer {
	return &Analyzer{parser: parser}
}

// NewCSharp creates an analyzer over the C# front end and the given catalog.
// A nil catalog selects the embedded default.
func NewCSharp(catalog *csharp.Catalog, opts csharp.Options) (*Analyzer, error) {
	if catalog == nil {
		var err error
		if catalog, err = csharp.DefaultCatalog(); err != nil {
			return nil, err
		}
	}
	return New(csharp.New(catalog, opts)), nil
}

// EnableCache memoizes the names each distinct source uses so repeated
// snippets are checked without reparsing. Call Close to stop the cache's
// cleanup goroutine.
func (a *Analyzer) EnableCache(cfg cache.Config) *Analyzer {
	a.cache = cache.New[*usedNames](cfg)
	return a
}

// CacheStats reports cache activity; the zero Stats when caching is off
func (a *Analyzer) CacheStats() cache.Stats {
	if a.cache == nil {
		return cache.Stats{}
	}
	return a.cache.Stats()
}

// Close releases the cache, if any
func (a *Analyzer) Close() {
	if a.cache != nil {
		a.cache.Close()
	}
}

// Analyze checks source against cfg. Blank source fails with an
// *errors.EmptyInputError before anything else runs. A nil cfg restricts
// nothing and skips parsing entirely. Source that does not parse fails with
// an *errors.InvalidInputError; declarations that merely fail to resolve are
// skipped.
func (a *Analyzer) Analyze(source string, cfg *policy.Config) (*Result, error) {
	return a.AnalyzeNamed("", source, cfg)
}

// AnalyzeNamed is Analyze with name recorded in input errors
func (a *Analyzer) AnalyzeNamed(name, source string, cfg *policy.Config) (*Result, error) {
	if strings.TrimSpace(source) == "" {
		return nil, sgerrors.NewEmptyInputError(name)
	}
	if cfg == nil {
		return finish(&Result{
			VariableTypes: policy.Check(nil, nil),
			Methods:       policy.Check(nil, nil),
		}), nil
	}

	start := time.Now()
	used, err := a.names(name, source)
	if err != nil {
		return nil, err
	}

	res := &Result{
		VariableTypes:     policy.Check(used.types, cfg.AllowedVariableTypes),
		Methods:           policy.Check(used.methods, cfg.AllowedMethodSignatures),
		UsedVariableTypes: slices.Clone(used.types),
		UsedMethods:       slices.Clone(used.methods),
		Skipped:           used.skipped,
	}
	debug.LogAnalysis("analyzer: %d types, %d methods, %d skipped in %v\n",
		len(res.UsedVariableTypes), len(res.UsedMethods), res.Skipped, time.Since(start))
	return finish(res), nil
}

// Inspect lists the canonical names source uses. Errors are the same as
// Analyze's.
func (a *Analyzer) Inspect(source string) (*Inventory, error) {
	return a.InspectNamed("", source)
}

// InspectNamed is Inspect with name recorded in input errors
func (a *Analyzer) InspectNamed(name, source string) (*Inventory, error) {
	if strings.TrimSpace(source) == "" {
		return nil, sgerrors.NewEmptyInputError(name)
	}
	types, methods, err := a.extract(name, source)
	if err != nil {
		return nil, err
	}
	inv := &Inventory{
		VariableTypes: []Name{},
		Methods:       []Name{},
		Skipped:       types.Skipped,
	}
	for _, it := range types.Items {
		if n := naming.TypeName(it); n != "" {
			inv.VariableTypes = append(inv.VariableTypes, Name{Name: n, Position: it.Position, Text: it.Text})
		}
	}
	for _, it := range methods.Items {
		if n := naming.MethodName(it.Symbol); n != "" {
			inv.Methods = append(inv.Methods, Name{Name: n, Position: it.Position, Text: it.Text})
		}
	}
	return inv, nil
}

func (a *Analyzer) names(name, source string) (*usedNames, error) {
	var key uint64
	if a.cache != nil {
		key = cache.Key([]byte(source), "")
		if used, ok := a.cache.Get(key); ok {
			return used, nil
		}
	}
	types, methods, err := a.extract(name, source)
	if err != nil {
		return nil, err
	}
	used := &usedNames{
		types:   naming.TypeNames(types),
		methods: naming.MethodNames(methods),
		skipped: types.Skipped,
	}
	if a.cache != nil {
		a.cache.Put(key, used)
	}
	return used, nil
}

func (a *Analyzer) extract(name, source string) (types, methods extract.Result, err error) {
	u, err := a.parser.Parse([]byte(source))
	if err != nil {
		var invalid *sgerrors.InvalidInputError
		if name != "" && errors.As(err, &invalid) {
			invalid.WithSource(name)
		}
		return types, methods, err
	}
	defer u.Close()
	return extract.VariableTypes(u), extract.MethodReferences(u), nil
}

// finish stamps the digest over both reports
func finish(r *Result) *Result {
	h := xxhash.New()
	for _, rep := range []policy.Report{r.VariableTypes, r.Methods} {
		if rep.Violated {
			_, _ = h.WriteString("1")
		} else {
			_, _ = h.WriteString("0")
		}
		for _, n := range rep.Offending {
			_, _ = h.WriteString(n)
			_, _ = h.WriteString("\x00")
		}
		_, _ = h.WriteString("\x01")
	}
	r.Digest = strconv.FormatUint(h.Sum64(), 16)
	return r
}
