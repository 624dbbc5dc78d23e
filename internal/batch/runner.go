// Package batch checks many snippet files against one policy in parallel.
package batch

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/snippetgate/internal/analyzer"
	"github.com/standardbeagle/snippetgate/internal/debug"
	sgerrors "github.com/standardbeagle/snippetgate/internal/errors"
	"github.com/standardbeagle/snippetgate/internal/policy"
	"github.com/standardbeagle/snippetgate/internal/security"
)

// FileResult is the outcome for one file. Exactly one of Result and Err is
// set.
type FileResult struct {
	Path   string           `json:"path"`
	Result *analyzer.Result `json:"result,omitempty"`
	Err    error            `json:"-"`
	Error  string           `json:"error,omitempty"`
	// DuplicateOf names another file with identical content whose
	// result was reused
	DuplicateOf string `json:"duplicateOf,omitempty"`
}

// Summary counts outcomes across a run
type Summary struct {
	Files    int           `json:"files"`
	Passed   int           `json:"passed"`
	Violated int           `json:"violated"`
	Failed   int           `json:"failed"`
	Elapsed  time.Duration `json:"elapsedNs"`
}

// Runner analyzes files with a bounded number of workers
type Runner struct {
	analyzer  *analyzer.Analyzer
	policy    *policy.Config
	workers   int
	validator *security.FileValidator
}

// NewRunner creates a runner. workers < 1 runs one file at a time. Files
// that look binary fail without being parsed.
func NewRunner(a *analyzer.Analyzer, p *policy.Config, workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		analyzer:  a,
		policy:    p,
		workers:   workers,
		validator: security.NewFileValidator(),
	}
}

// Run analyzes files and returns one result per file in input order,
// regardless of worker count. Per-file failures are recorded in the
// result; Run itself only fails when ctx is cancelled. Files with
// identical content are analyzed once.
func (r *Runner) Run(ctx context.Context, files []string) ([]FileResult, Summary, error) {
	start := time.Now()
	results := make([]FileResult, len(files))

	var (
		mu    sync.Mutex
		first = make(map[uint64]int)
		// done is closed once the first file with a given hash is finished
		done = make(map[uint64]chan struct{})
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, path := range files {
		i, path := i, path
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i].Path = path

			data, err := os.ReadFile(path)
			if err != nil {
				results[i].setErr(sgerrors.NewFileError("read", path, err))
				return nil
			}

			h := xxhash.Sum64(data)
			mu.Lock()
			owner, seen := first[h]
			if !seen {
				first[h] = i
				done[h] = make(chan struct{})
			}
			wait := done[h]
			mu.Unlock()

			if seen {
				select {
				case <-wait:
				case <-gctx.Done():
					return gctx.Err()
				}
				results[i].Result = results[owner].Result
				results[i].Err = results[owner].Err
				results[i].Error = results[owner].Error
				results[i].DuplicateOf = files[owner]
				return nil
			}

			defer close(wait)
			if err := r.validator.Validate(path, data); err != nil {
				results[i].setErr(err)
				return nil
			}
			res, err := r.analyzer.AnalyzeNamed(path, string(data), r.policy)
			if err != nil {
				results[i].setErr(err)
				return nil
			}
			results[i].Result = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, Summary{}, err
	}
	// gctx is always cancelled by Wait, so only the caller's ctx counts here
	if err := ctx.Err(); err != nil {
		return nil, Summary{}, err
	}

	sum := Summarize(results)
	sum.Elapsed = time.Since(start)
	debug.LogBatch("batch: %d files (%d passed, %d violated, %d failed) in %v\n",
		sum.Files, sum.Passed, sum.Violated, sum.Failed, sum.Elapsed)
	return results, sum, nil
}

func (fr *FileResult) setErr(err error) {
	fr.Err = err
	fr.Error = err.Error()
}

// Summarize counts passed, violated and failed files
func Summarize(results []FileResult) Summary {
	s := Summary{Files: len(results)}
	for _, fr := range results {
		switch {
		case fr.Err != nil:
			s.Failed++
		case fr.Result != nil && fr.Result.Violated():
			s.Violated++
		default:
			s.Passed++
		}
	}
	return s
}
