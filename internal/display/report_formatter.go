package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/standardbeagle/snippetgate/internal/analyzer"
	"github.com/standardbeagle/snippetgate/internal/batch"
	"github.com/standardbeagle/snippetgate/internal/policy"
)

// Output formats
const (
	FormatText    = "text"
	FormatCompact = "compact"
)

// ReportFormatter renders gate results for a terminal
type ReportFormatter struct {
	options FormatterOptions
}

// FormatterOptions controls report formatting
type FormatterOptions struct {
	Format        string // "text" or "compact"
	Distinct      bool   // list each offending name once
	ShowPositions bool   // show line:column for inventory names
}

// NewReportFormatter creates a new report formatter
func NewReportFormatter(options FormatterOptions) *ReportFormatter {
	if options.Format == "" {
		options.Format = FormatText
	}
	return &ReportFormatter{options: options}
}

// FormatResult renders one checked snippet. near maps offending names to
// suggested allowed names and may be nil.
func (rf *ReportFormatter) FormatResult(name string, res *analyzer.Result, near map[string][]string) string {
	if !res.Violated() {
		return fmt.Sprintf("PASS %s\n", name)
	}
	if rf.options.Format == FormatCompact {
		return fmt.Sprintf("FAIL %s types=%s methods=%s\n", name,
			compactNames(rf.offending(res.VariableTypes)), compactNames(rf.offending(res.Methods)))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "FAIL %s\n", name)
	var groups []group
	if res.VariableTypes.Violated {
		groups = append(groups, group{label: "variable types not allowed", items: rf.offending(res.VariableTypes)})
	}
	if res.Methods.Violated {
		groups = append(groups, group{label: "methods not allowed", items: rf.offending(res.Methods)})
	}
	for i := range groups {
		for j, n := range groups[i].items {
			if s := near[n]; len(s) > 0 {
				groups[i].items[j] = fmt.Sprintf("%s (did you mean %s?)", n, strings.Join(s, ", "))
			}
		}
	}
	writeTree(&sb, groups)
	return sb.String()
}

// FormatInventory renders the names a snippet uses
func (rf *ReportFormatter) FormatInventory(inv *analyzer.Inventory) string {
	types, methods := rf.inventoryItems(inv.VariableTypes), rf.inventoryItems(inv.Methods)
	if rf.options.Format == FormatCompact {
		return fmt.Sprintf("types=%s methods=%s\n", compactNames(inv.TypeNames()), compactNames(inv.MethodNames()))
	}

	var sb strings.Builder
	writeTree(&sb, []group{
		{label: fmt.Sprintf("variable types (%d)", len(types)), items: types},
		{label: fmt.Sprintf("methods (%d)", len(methods)), items: methods},
	})
	if inv.Skipped > 0 {
		fmt.Fprintf(&sb, "skipped %d unresolved declaration(s)\n", inv.Skipped)
	}
	return sb.String()
}

// FormatError renders a snippet that could not be checked
func (rf *ReportFormatter) FormatError(name string, err error) string {
	return fmt.Sprintf("ERROR %s: %v\n", name, err)
}

// FormatSummary renders batch totals
func (rf *ReportFormatter) FormatSummary(s batch.Summary) string {
	return fmt.Sprintf("%d files: %d passed, %d violated, %d failed in %v\n",
		s.Files, s.Passed, s.Violated, s.Failed, s.Elapsed.Round(time.Millisecond))
}

func (rf *ReportFormatter) offending(rep policy.Report) []string {
	if rf.options.Distinct {
		return rep.Distinct()
	}
	return append([]string(nil), rep.Offending...)
}

func (rf *ReportFormatter) inventoryItems(names []analyzer.Name) []string {
	out := make([]string, len(names))
	for i, n := range names {
		if rf.options.ShowPositions {
			out[i] = fmt.Sprintf("%s [%d:%d]", n.Name, n.Position.Line, n.Position.Column)
		} else {
			out[i] = n.Name
		}
	}
	return out
}

type group struct {
	label string
	items []string
}

// writeTree draws groups as a two-level tree
func writeTree(sb *strings.Builder, groups []group) {
	for i, g := range groups {
		last := i == len(groups)-1
		branch, prefix := "├─→ ", "│   "
		if last {
			branch, prefix = "└─→ ", "    "
		}
		sb.WriteString(branch)
		sb.WriteString(g.label)
		sb.WriteString("\n")
		for j, item := range g.items {
			if j == len(g.items)-1 {
				sb.WriteString(prefix + "└─→ ")
			} else {
				sb.WriteString(prefix + "├─→ ")
			}
			sb.WriteString(item)
			sb.WriteString("\n")
		}
	}
}

func compactNames(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ",")
}
