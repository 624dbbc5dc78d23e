package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/snippetgate/internal/analyzer"
	"github.com/standardbeagle/snippetgate/internal/config"
	"github.com/standardbeagle/snippetgate/internal/display"
	sgerrors "github.com/standardbeagle/snippetgate/internal/errors"
	"github.com/standardbeagle/snippetgate/internal/policy"
)

// checkOutput is the JSON shape of one checked snippet
type checkOutput struct {
	Source string `json:"source,omitempty"`
	*analyzer.Result
	Suggestions map[string][]string `json:"suggestions,omitempty"`
}

// readSource returns the snippet text and a name for it: --source, a file
// argument, or stdin for "-" or no argument
func readSource(c *cli.Context) (name, text string, err error) {
	if c.IsSet("source") {
		return "<source>", c.String("source"), nil
	}
	path := c.Args().First()
	if path == "" || path == "-" {
		data, err := io.ReadAll(c.App.Reader)
		if err != nil {
			return "", "", sgerrors.NewFileError("read", "stdin", err)
		}
		return "stdin", string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", sgerrors.NewFileError("read", path, err)
	}
	return path, string(data), nil
}

func checkCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	a, err := newAnalyzer(cfg)
	if err != nil {
		return err
	}
	name, text, err := readSource(c)
	if err != nil {
		return err
	}

	res, err := a.AnalyzeNamed(name, text, cfg.Policy)
	if err != nil {
		return err
	}

	out := &checkOutput{
		Source:      name,
		Result:      res,
		Suggestions: suggestions(cfg, res),
	}
	if c.Bool("json") {
		if err := writeJSON(c.App.Writer, out); err != nil {
			return err
		}
	} else {
		fmt.Fprint(c.App.Writer, formatter(c, cfg).FormatResult(name, res, out.Suggestions))
	}

	if res.Violated() {
		return errViolation
	}
	return nil
}

func inspectCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	a, err := newAnalyzer(cfg)
	if err != nil {
		return err
	}
	name, text, err := readSource(c)
	if err != nil {
		return err
	}

	inv, err := a.InspectNamed(name, text)
	if err != nil {
		return err
	}

	switch {
	case c.Bool("emit-policy"):
		data, err := config.MarshalPolicyTOML(&policy.Config{
			AllowedVariableTypes:    policy.NewAllowList(inv.TypeNames()...),
			AllowedMethodSignatures: policy.NewAllowList(inv.MethodNames()...),
		})
		if err != nil {
			return err
		}
		_, err = c.App.Writer.Write(data)
		return err
	case c.Bool("json"):
		return writeJSON(c.App.Writer, inv)
	}

	fmt.Fprint(c.App.Writer, formatter(c, cfg).FormatInventory(inv))
	return nil
}

// suggestions maps offending names to close allowed names
func suggestions(cfg *config.Config, res *analyzer.Result) map[string][]string {
	if cfg.Policy == nil || cfg.Report.Suggestions <= 0 {
		return nil
	}
	m := policy.NewMatcher(policy.DefaultSuggestThreshold)
	var out map[string][]string
	add := func(rep policy.Report, allowed *policy.AllowList) {
		for _, name := range rep.Distinct() {
			var near []string
			for _, s := range m.Suggest(name, allowed, cfg.Report.Suggestions) {
				near = append(near, s.Name)
			}
			if len(near) == 0 {
				continue
			}
			if out == nil {
				out = make(map[string][]string)
			}
			out[name] = near
		}
	}
	add(res.VariableTypes, cfg.Policy.AllowedVariableTypes)
	add(res.Methods, cfg.Policy.AllowedMethodSignatures)
	return out
}

// formatter builds the text renderer for the current flags
func formatter(c *cli.Context, cfg *config.Config) *display.ReportFormatter {
	format := display.FormatText
	if c.Bool("compact") {
		format = display.FormatCompact
	}
	return display.NewReportFormatter(display.FormatterOptions{
		Format:        format,
		Distinct:      cfg.Report.Distinct,
		ShowPositions: true,
	})
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
