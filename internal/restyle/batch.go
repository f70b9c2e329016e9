package restyle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/syncs"
	"github.com/google/uuid"
)

// Extensions are the input extensions Discover picks up, in discovery order.
// Each is matched in lower and upper case.
var Extensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".tiff", ".webp"}

// Discover lists input images directly under dir, grouped by extension in
// Extensions order, lexical within a group. Subdirectories are not visited.
func Discover(dir string) ([]string, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("failed to access input dir %s: %w", dir, err)
	}

	var res []string
	seen := map[string]bool{}
	for _, ext := range Extensions {
		for _, e := range []string{ext, strings.ToUpper(ext)} {
			matches, err := filepath.Glob(filepath.Join(dir, "*"+e))
			if err != nil {
				return nil, fmt.Errorf("failed to list %s: %w", dir, err)
			}
			for _, m := range matches {
				if seen[m] {
					continue
				}
				if fi, err := os.Stat(m); err != nil || !fi.Mode().IsRegular() {
					continue
				}
				seen[m] = true
				res = append(res, m)
			}
		}
	}
	return res, nil
}

// Processor handles one image, implemented by Pipeline.
type Processor interface {
	Process(ctx context.Context, path string) Result
}

// Batch runs a Processor over a list of images.
type Batch struct {
	Processor   Processor
	Concurrency int
	Log         lgr.L
}

// Summary aggregates a batch run. Successful + len(Failures) == Total.
type Summary struct {
	RunID      string
	Total      int
	Successful int
	Failures   []string        // failed names in input order
	Results    map[string]bool // keyed by file name
	OutputDir  string
}

// Run processes all paths and never stops on a per-image failure. With
// Concurrency 1 images run one at a time in input order.
func (b *Batch) Run(ctx context.Context, paths []string) Summary {
	l := b.Log
	if l == nil {
		l = lgr.Default()
	}
	concur := b.Concurrency
	if concur < 1 {
		concur = 1
	}

	runID := uuid.NewString()
	l.Logf("[INFO] run %s, %d images, concurrency %d", runID, len(paths), concur)

	results := make([]Result, len(paths))
	gr := syncs.NewSizedGroup(concur, syncs.Preemptive, syncs.Context(ctx))
	for i, p := range paths {
		gr.Go(func(ctx context.Context) {
			defer func() {
				if r := recover(); r != nil {
					results[i] = Result{Name: filepath.Base(p), Input: p, Err: fmt.Errorf("panic: %v", r)}
				}
			}()
			results[i] = b.Processor.Process(ctx, p)
			if results[i].Name == "" {
				results[i].Name = filepath.Base(p)
			}
		})
	}
	gr.Wait()

	sum := Summary{RunID: runID, Total: len(paths), Results: make(map[string]bool, len(paths))}
	for i, r := range results {
		if r.Name == "" { // never started, group context canceled
			r = Result{Name: filepath.Base(paths[i]), Input: paths[i], Err: ctx.Err()}
		}
		if r.OK() {
			sum.Successful++
		} else {
			sum.Failures = append(sum.Failures, r.Name)
			if isCanceled(r.Err) {
				l.Logf("[DEBUG] run %s, %s canceled", runID, r.Name)
			}
		}
		sum.Results[r.Name] = r.OK()
	}
	l.Logf("[INFO] run %s done, %d of %d successful", runID, sum.Successful, sum.Total)
	return sum
}

// String renders the console report.
func (s Summary) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Processing complete! %d of %d images processed successfully.", s.Successful, s.Total)
	if s.OutputDir != "" {
		fmt.Fprintf(&sb, "\nCheck %s for the stylized images.", s.OutputDir)
	}
	if len(s.Failures) > 0 {
		fmt.Fprintf(&sb, "\n\nFailed to process %d images:", len(s.Failures))
		for _, name := range s.Failures {
			fmt.Fprintf(&sb, "\n  - %s", name)
		}
	}
	return sb.String()
}
