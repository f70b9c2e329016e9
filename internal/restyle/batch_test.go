package restyle

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-pkgz/lgr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.png", "c.jpg", "D.JPG", "e.webp", "f.txt", "g.tif", "h.JPEG", "i.tiff"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.jpg"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub.jpg", "nested.jpg"), []byte("x"), 0o600))

	res, err := Discover(dir)
	require.NoError(t, err)

	var names []string
	for _, p := range res {
		assert.Equal(t, dir, filepath.Dir(p))
		names = append(names, filepath.Base(p))
	}
	assert.Equal(t, []string{"c.jpg", "D.JPG", "h.JPEG", "a.png", "b.png", "i.tiff", "e.webp"}, names)
}

func TestDiscover_Empty(t *testing.T) {
	res, err := Discover(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestDiscover_MissingDir(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

// mapProcessor fails the names listed in fail and records processing order.
type mapProcessor struct {
	mu    sync.Mutex
	fail  map[string]bool
	order []string
}

func (m *mapProcessor) Process(_ context.Context, path string) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	name := filepath.Base(path)
	m.order = append(m.order, name)
	if m.fail[name] {
		return Result{Name: name, Input: path, Err: errors.New("failed")}
	}
	return Result{Name: name, Input: path, Output: path + ".out"}
}

func TestBatch_RunSequential(t *testing.T) {
	proc := &mapProcessor{fail: map[string]bool{"b.jpg": true, "d.jpg": true}}
	b := Batch{Processor: proc, Concurrency: 1, Log: lgr.NoOp}

	paths := []string{"in/a.jpg", "in/b.jpg", "in/c.jpg", "in/d.jpg"}
	sum := b.Run(context.Background(), paths)

	assert.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg"}, proc.order)
	assert.Equal(t, 4, sum.Total)
	assert.Equal(t, 2, sum.Successful)
	assert.Equal(t, []string{"b.jpg", "d.jpg"}, sum.Failures)
	assert.Equal(t, map[string]bool{"a.jpg": true, "b.jpg": false, "c.jpg": true, "d.jpg": false}, sum.Results)
	assert.Equal(t, sum.Total, sum.Successful+len(sum.Failures))
	assert.NotEmpty(t, sum.RunID)
}

func TestBatch_RunConcurrent(t *testing.T) {
	proc := &mapProcessor{fail: map[string]bool{"3.png": true}}
	b := Batch{Processor: proc, Concurrency: 4, Log: lgr.NoOp}

	var paths []string
	for _, n := range []string{"1", "2", "3", "4", "5", "6", "7", "8"} {
		paths = append(paths, filepath.Join("in", n+".png"))
	}
	sum := b.Run(context.Background(), paths)

	assert.Len(t, proc.order, 8)
	assert.Equal(t, 8, sum.Total)
	assert.Equal(t, 7, sum.Successful)
	assert.Equal(t, []string{"3.png"}, sum.Failures)
	assert.Equal(t, sum.Total, sum.Successful+len(sum.Failures))
}

func TestBatch_RunEmpty(t *testing.T) {
	b := Batch{Processor: &mapProcessor{}, Log: lgr.NoOp}
	sum := b.Run(context.Background(), nil)
	assert.Equal(t, 0, sum.Total)
	assert.Equal(t, 0, sum.Successful)
	assert.Empty(t, sum.Failures)
}

func TestBatch_RunWithPipeline(t *testing.T) {
	f, ts := newFakeAPI(t, "Processing", "Ready")
	cfg := testConfig(t, ts)
	p := newTestPipeline(NewClient(cfg), cfg)

	paths := []string{writeInput(t, "one.jpg"), writeInput(t, "two.png")}
	b := Batch{Processor: p, Concurrency: 1, Log: lgr.NoOp}
	sum := b.Run(context.Background(), paths)

	assert.Equal(t, 2, sum.Successful)
	assert.Empty(t, sum.Failures)
	_, _, downloads := f.counts()
	assert.Equal(t, 2, downloads)
	assert.ElementsMatch(t, []string{"one_stylized_1748779200.jpg", "two_stylized_1748779200.png"},
		outputFiles(t, cfg.OutputDir))
}

func TestBatch_RunFailuresListed(t *testing.T) {
	f, ts := newFakeAPI(t, "Queued", "Pending")
	cfg := testConfig(t, ts)
	cfg.MaxPolls = 2
	cfg.MaxAttempts = 2
	p := newTestPipeline(NewClient(cfg), cfg)

	paths := []string{writeInput(t, "never.jpg"), writeInput(t, "again.jpg")}
	b := Batch{Processor: p, Concurrency: 1, Log: lgr.NoOp}
	sum := b.Run(context.Background(), paths)

	assert.Equal(t, 0, sum.Successful)
	assert.Equal(t, []string{"never.jpg", "again.jpg"}, sum.Failures)
	assert.Equal(t, sum.Total, sum.Successful+len(sum.Failures))
	submits, polls, downloads := f.counts()
	assert.Equal(t, 4, submits, "two attempts per image")
	assert.Equal(t, 8, polls)
	assert.Equal(t, 0, downloads)
	assert.Empty(t, outputFiles(t, cfg.OutputDir))
}

func TestSummary_String(t *testing.T) {
	s := Summary{Total: 3, Successful: 1, Failures: []string{"b.jpg", "c.png"}, OutputDir: "output_theatre"}
	want := "Processing complete! 1 of 3 images processed successfully.\n" +
		"Check output_theatre for the stylized images.\n\n" +
		"Failed to process 2 images:\n  - b.jpg\n  - c.png"
	assert.Equal(t, want, s.String())

	s = Summary{Total: 2, Successful: 2}
	assert.Equal(t, "Processing complete! 2 of 2 images processed successfully.", s.String())
}
