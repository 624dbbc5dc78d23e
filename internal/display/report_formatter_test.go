package display

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/standardbeagle/snippetgate/internal/analyzer"
	"github.com/standardbeagle/snippetgate/internal/batch"
	"github.com/standardbeagle/snippetgate/internal/frontend"
	"github.com/standardbeagle/snippetgate/internal/policy"
)

func violatedResult() *analyzer.Result {
	return &analyzer.Result{
		VariableTypes: policy.Report{Violated: true, Offending: []string{"System.Double", "System.Double"}},
		Methods:       policy.Report{Violated: true, Offending: []string{"void System.Console.WriteLine(string)"}},
	}
}

func TestFormatResultPass(t *testing.T) {
	rf := NewReportFormatter(FormatterOptions{})
	res := &analyzer.Result{
		VariableTypes: policy.Report{Offending: []string{}},
		Methods:       policy.Report{Offending: []string{}},
	}
	assert.Equal(t, "PASS a.cs\n", rf.FormatResult("a.cs", res, nil))
}

func TestFormatResultText(t *testing.T) {
	rf := NewReportFormatter(FormatterOptions{})
	near := map[string][]string{"System.Double": {"System.Int32"}}

	want := "FAIL a.cs\n" +
		"├─→ variable types not allowed\n" +
		"│   ├─→ System.Double (did you mean System.Int32?)\n" +
		"│   └─→ System.Double (did you mean System.Int32?)\n" +
		"└─→ methods not allowed\n" +
		"    └─→ void System.Console.WriteLine(string)\n"
	res := violatedResult()
	assert.Equal(t, want, rf.FormatResult("a.cs", res, near))
	assert.Equal(t, []string{"System.Double", "System.Double"}, res.VariableTypes.Offending, "result must not be modified")
}

func TestFormatResultDistinctOneKind(t *testing.T) {
	rf := NewReportFormatter(FormatterOptions{Distinct: true})
	res := violatedResult()
	res.Methods = policy.Report{Offending: []string{}}

	want := "FAIL a.cs\n" +
		"└─→ variable types not allowed\n" +
		"    └─→ System.Double\n"
	assert.Equal(t, want, rf.FormatResult("a.cs", res, nil))
}

func TestFormatResultCompact(t *testing.T) {
	rf := NewReportFormatter(FormatterOptions{Format: FormatCompact, Distinct: true})
	res := violatedResult()
	assert.Equal(t, "FAIL a.cs types=System.Double methods=void System.Console.WriteLine(string)\n",
		rf.FormatResult("a.cs", res, nil))

	res.Methods = policy.Report{Offending: []string{}}
	assert.Equal(t, "FAIL a.cs types=System.Double methods=-\n", rf.FormatResult("a.cs", res, nil))
}

func TestFormatInventory(t *testing.T) {
	inv := &analyzer.Inventory{
		VariableTypes: []analyzer.Name{{Name: "System.Int32", Position: frontend.Position{Line: 1, Column: 1}}},
		Methods:       []analyzer.Name{},
		Skipped:       1,
	}

	rf := NewReportFormatter(FormatterOptions{ShowPositions: true})
	want := "├─→ variable types (1)\n" +
		"│   └─→ System.Int32 [1:1]\n" +
		"└─→ methods (0)\n" +
		"skipped 1 unresolved declaration(s)\n"
	assert.Equal(t, want, rf.FormatInventory(inv))

	compact := NewReportFormatter(FormatterOptions{Format: FormatCompact})
	assert.Equal(t, "types=System.Int32 methods=-\n", compact.FormatInventory(inv))
}

func TestFormatErrorAndSummary(t *testing.T) {
	rf := NewReportFormatter(FormatterOptions{})
	assert.Equal(t, "ERROR b.cs: boom\n", rf.FormatError("b.cs", errors.New("boom")))
	assert.Equal(t, "3 files: 1 passed, 1 violated, 1 failed in 1.5s\n", rf.FormatSummary(batch.Summary{
		Files: 3, Passed: 1, Violated: 1, Failed: 1, Elapsed: 1500 * time.Millisecond,
	}))
}
