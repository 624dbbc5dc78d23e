package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	sgerrors "github.com/standardbeagle/snippetgate/internal/errors"
	"github.com/standardbeagle/snippetgate/internal/policy"
)

// MaxSourceBytesLimit caps the configurable snippet size
const MaxSourceBytesLimit = 64 << 20

// Validator validates configuration and sets smart defaults
type Validator struct{}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults checks every section and reports all problems at
// once as a *errors.MultiError of *errors.ConfigError values
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	var errs []error
	add := func(field string, err error) {
		if err != nil {
			errs = append(errs, sgerrors.NewConfigError(field, "", err))
		}
	}

	add("project", v.validateProjectConfig(&cfg.Project))
	add("policy", v.validatePolicy(cfg.Policy))
	add("frontend", v.validateFrontendConfig(&cfg.Frontend))
	add("batch", v.validateBatchConfig(&cfg.Batch))
	add("watch", v.validateWatchConfig(&cfg.Watch))
	add("report", v.validateReportConfig(&cfg.Report))
	for _, c := range cfg.Catalogs {
		if _, err := os.Stat(cfg.Resolve(c)); err != nil {
			errs = append(errs, sgerrors.NewConfigError("catalog", c, err))
		}
	}

	if len(errs) > 0 {
		return sgerrors.NewMultiError(errs)
	}
	v.setSmartDefaults(cfg)
	return nil
}

// Validate is ValidateAndSetDefaults with a fresh validator
func Validate(cfg *Config) error {
	return NewValidator().ValidateAndSetDefaults(cfg)
}

func (v *Validator) validateProjectConfig(project *Project) error {
	if project.Root == "" {
		return errors.New("project root cannot be empty")
	}
	return nil
}

// validatePolicy rejects blank names; they can never match a canonical name
// and usually mean a quoting mistake
func (v *Validator) validatePolicy(p *policy.Config) error {
	if p == nil {
		return nil
	}
	lists := []struct {
		kind string
		list *policy.AllowList
	}{
		{"variable-types", p.AllowedVariableTypes},
		{"methods", p.AllowedMethodSignatures},
	}
	for _, l := range lists {
		for _, n := range l.list.Names() {
			if strings.TrimSpace(n) == "" {
				return fmt.Errorf("%s allow list contains a blank name", l.kind)
			}
		}
	}
	return nil
}

func (v *Validator) validateFrontendConfig(fe *Frontend) error {
	if fe.MaxSourceBytes <= 0 {
		return fmt.Errorf("MaxSourceBytes must be positive, got %d", fe.MaxSourceBytes)
	}
	if fe.MaxSourceBytes > MaxSourceBytesLimit {
		return fmt.Errorf("MaxSourceBytes should not exceed 64MB, got %d", fe.MaxSourceBytes)
	}
	if fe.MaxDepth <= 0 {
		return fmt.Errorf("MaxDepth must be positive, got %d", fe.MaxDepth)
	}
	for _, u := range fe.Usings {
		if strings.TrimSpace(u) == "" || strings.ContainsAny(u, " ;") {
			return fmt.Errorf("invalid using namespace %q", u)
		}
	}
	return nil
}

func (v *Validator) validateBatchConfig(b *Batch) error {
	if b.Workers < 0 {
		return fmt.Errorf("Workers cannot be negative, got %d", b.Workers)
	}
	for _, p := range append(append([]string{}, b.Include...), b.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid glob pattern %q", p)
		}
	}
	return nil
}

func (v *Validator) validateWatchConfig(w *Watch) error {
	if w.DebounceMs < 0 {
		return fmt.Errorf("DebounceMs cannot be negative, got %d", w.DebounceMs)
	}
	return nil
}

func (v *Validator) validateReportConfig(r *Report) error {
	if r.Suggestions < 0 {
		return fmt.Errorf("Suggestions cannot be negative, got %d", r.Suggestions)
	}
	return nil
}

func (v *Validator) setSmartDefaults(cfg *Config) {
	if cfg.Watch.DebounceMs == 0 {
		cfg.Watch.DebounceMs = DefaultDebounceMs
	}
	if len(cfg.Batch.Include) == 0 {
		cfg.Batch.Include = Default(cfg.Project.Root).Batch.Include
	}
	cfg.Batch.Exclude = DeduplicatePatterns(cfg.Batch.Exclude)
}
