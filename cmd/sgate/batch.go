package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/snippetgate/internal/batch"
	"github.com/standardbeagle/snippetgate/internal/cache"
	"github.com/standardbeagle/snippetgate/internal/config"
	"github.com/standardbeagle/snippetgate/internal/debug"
	"github.com/standardbeagle/snippetgate/internal/display"
	"github.com/standardbeagle/snippetgate/internal/watch"
	"github.com/standardbeagle/snippetgate/pkg/pathutil"
)

type batchOutput struct {
	Results []batch.FileResult `json:"results"`
	Summary batch.Summary      `json:"summary"`
}

func batchCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if w := c.Int("workers"); w > 0 {
		cfg.Batch.Workers = w
	}
	a, err := newAnalyzer(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	files := c.Args().Slice()
	if len(files) == 0 {
		scanner, err := batch.NewScanner(cfg)
		if err != nil {
			return err
		}
		if files, err = scanner.Scan(ctx); err != nil {
			return err
		}
	}

	results, summary, err := batch.NewRunner(a, cfg.Policy, cfg.Workers()).Run(ctx, files)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		if err := writeJSON(c.App.Writer, &batchOutput{Results: results, Summary: summary}); err != nil {
			return err
		}
	} else {
		rf := formatter(c, cfg)
		printBatch(c.App.Writer, rf, cfg, results)
		fmt.Fprint(c.App.Writer, rf.FormatSummary(summary))
	}

	switch {
	case summary.Failed > 0:
		return cli.Exit("", exitError)
	case summary.Violated > 0:
		return errViolation
	}
	return nil
}

func printBatch(w io.Writer, rf *display.ReportFormatter, cfg *config.Config, results []batch.FileResult) {
	for _, fr := range results {
		name := pathutil.ToRelative(fr.Path, cfg.Project.Root)
		if fr.Err != nil {
			fmt.Fprint(w, rf.FormatError(name, fr.Err))
			continue
		}
		fmt.Fprint(w, rf.FormatResult(name, fr.Result, suggestions(cfg, fr.Result)))
	}
}

func watchCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	a, err := newAnalyzer(cfg)
	if err != nil {
		return err
	}
	a.EnableCache(cache.DefaultConfig())
	defer a.Close()
	scanner, err := batch.NewScanner(cfg)
	if err != nil {
		return err
	}
	w, err := watch.New(scanner, time.Duration(cfg.Watch.DebounceMs)*time.Millisecond)
	if err != nil {
		return err
	}

	runner := batch.NewRunner(a, cfg.Policy, cfg.Workers())
	w.SetCallbacks(
		recheck(c.App.Writer, c.App.ErrWriter, runner, formatter(c, cfg), cfg, c.Bool("json")),
		func(paths []string) {
			for _, p := range pathutil.ToRelativeAll(paths, cfg.Project.Root) {
				debug.LogWatch("sgate: removed %s\n", p)
			}
		},
	)

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	fmt.Fprintf(c.App.ErrWriter, "watching %s\n", scanner.Root())
	return w.Run(ctx)
}

// recheck returns the watch callback that analyzes changed files and prints
// one report per file
func recheck(out, errOut io.Writer, runner *batch.Runner, rf *display.ReportFormatter, cfg *config.Config, asJSON bool) func(context.Context, []string) {
	return func(ctx context.Context, paths []string) {
		results, _, err := runner.Run(ctx, paths)
		if err != nil {
			if ctx.Err() == nil {
				fmt.Fprintf(errOut, "sgate: %v\n", err)
			}
			debug.LogWatch("sgate: run interrupted: %v\n", err)
			return
		}
		if asJSON {
			for i := range results {
				_ = writeJSON(out, &results[i])
			}
			return
		}
		printBatch(out, rf, cfg, results)
	}
}
