package restyle

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"
)

// API is the remote side of the pipeline, implemented by Client.
type API interface {
	Submit(ctx context.Context, prompt, imageB64 string) (string, error)
	Poll(ctx context.Context, id string) (PollResult, error)
	Download(ctx context.Context, url string) ([]byte, error)
}

// Repeater runs fun until it succeeds or the strategy is exhausted.
type Repeater interface {
	Do(ctx context.Context, fun func() error, errors ...error) (err error)
}

// Result is the outcome of one image.
type Result struct {
	Name     string // base name of the input
	Input    string
	Output   string // written file, empty on failure
	URL      string
	Attempts int
	Err      error
}

// OK reports whether the image was generated and saved.
func (r Result) OK() bool { return r.Err == nil }

// Pipeline restyles single images: encode, submit, poll, download, save.
type Pipeline struct {
	api  API
	cfg  Config
	log  lgr.L
	rptr Repeater

	now    func() time.Time
	jitter func() time.Duration
}

// NewPipeline makes a pipeline. cfg is expected to be validated.
func NewPipeline(api API, cfg Config, l lgr.L) *Pipeline {
	if l == nil {
		l = lgr.Default()
	}
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	p := &Pipeline{
		api:  api,
		cfg:  cfg,
		log:  l,
		rptr: repeater.New(&strategy.FixedDelay{Repeats: attempts}),
		now:  time.Now,
	}
	p.jitter = func() time.Duration { return randomDuration(cfg.JitterMin, cfg.JitterMax) }
	return p
}

// EncodeImage returns base64 of the raw file bytes.
func EncodeImage(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the input dir listing
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %v: %w", path, err, ErrEncoding)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Generate runs up to MaxAttempts attempts and returns the result url.
// A failed attempt is followed by a random wait in [JitterMin, JitterMax).
func (p *Pipeline) Generate(ctx context.Context, path string) (string, error) {
	resURL, _, err := p.generate(ctx, path)
	return resURL, err
}

func (p *Pipeline) generate(ctx context.Context, path string) (resURL string, attempts int, err error) {
	name := filepath.Base(path)
	err = p.rptr.Do(ctx, func() error {
		if attempts > 0 {
			d := p.jitter()
			p.log.Logf("[INFO] %s - retrying in %v", name, d.Round(time.Millisecond))
			if e := sleep(ctx, d); e != nil {
				return e
			}
		}
		attempts++
		u, e := p.attempt(ctx, path)
		if e != nil {
			p.log.Logf("[WARN] %s - attempt %d of %d failed, %v", name, attempts, p.cfg.MaxAttempts, e)
			return e
		}
		resURL = u
		return nil
	}, context.Canceled, context.DeadlineExceeded)
	if err != nil {
		return "", attempts, err
	}
	if resURL == "" {
		// strategy closed before the first attempt
		if ctx.Err() != nil {
			return "", attempts, ctx.Err()
		}
		return "", attempts, fmt.Errorf("no attempt made for %s: %w", name, ErrPollTimeout)
	}
	return resURL, attempts, nil
}

// attempt is one full round: encode, submit, then poll until ready.
func (p *Pipeline) attempt(ctx context.Context, path string) (string, error) {
	name := filepath.Base(path)
	b64, err := EncodeImage(path)
	if err != nil {
		return "", err
	}

	id, err := p.api.Submit(ctx, p.cfg.Prompt, b64)
	if err != nil {
		return "", err
	}
	p.log.Logf("[DEBUG] %s - submitted, id %s", name, id)

	res, err := p.waitReady(ctx, name, id)
	if err != nil {
		return "", err
	}
	switch res.State {
	case StateReady:
		return res.URL, nil
	case StateFailed:
		return "", fmt.Errorf("job %s status %q: %w", id, res.Status, ErrStatusFailure)
	default:
		return "", fmt.Errorf("job %s not ready after %d polls: %w", id, p.cfg.MaxPolls, ErrPollTimeout)
	}
}

// waitReady polls the job until it leaves the pending state. Each poll is
// preceded by PollInterval. After MaxPolls pending answers the result is
// StateTimedOut.
func (p *Pipeline) waitReady(ctx context.Context, name, id string) (PollResult, error) {
	for i := 0; i < p.cfg.MaxPolls; i++ {
		if err := sleep(ctx, p.cfg.PollInterval); err != nil {
			return PollResult{}, err
		}
		res, err := p.api.Poll(ctx, id)
		if err != nil {
			return PollResult{}, err
		}
		p.log.Logf("[INFO] %s - status: %s", name, res.Status)
		if res.State != StatePending {
			return res, nil
		}
	}
	return PollResult{State: StateTimedOut}, nil
}

// Process generates, downloads and saves one image. Errors land in
// Result.Err.
func (p *Pipeline) Process(ctx context.Context, path string) Result {
	name := filepath.Base(path)
	res := Result{Name: name, Input: path}
	p.log.Logf("[INFO] processing image: %s", name)

	resURL, attempts, err := p.generate(ctx, path)
	res.Attempts = attempts
	if err != nil {
		p.log.Logf("[WARN] failed to generate stylized image for %s, %v", name, err)
		res.Err = err
		return res
	}
	res.URL = resURL
	p.log.Logf("[INFO] %s - success: %s", name, resURL)

	data, err := p.api.Download(ctx, resURL)
	if err != nil {
		p.log.Logf("[WARN] failed to download image for %s, %v", name, err)
		res.Err = err
		return res
	}

	if err := os.MkdirAll(p.cfg.OutputDir, 0o750); err != nil {
		res.Err = fmt.Errorf("failed to create output dir %s: %w", p.cfg.OutputDir, err)
		return res
	}
	out := filepath.Join(p.cfg.OutputDir, OutputName(name, p.now()))
	if err := os.WriteFile(out, data, 0o600); err != nil {
		res.Err = fmt.Errorf("failed to write %s: %w", out, err)
		return res
	}
	res.Output = out
	p.log.Logf("[INFO] image saved as %s", out)
	return res
}

// OutputName is "<base>_stylized_<unix seconds><ext>" for the input name.
func OutputName(name string, ts time.Time) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s_stylized_%d%s", base, ts.Unix(), ext)
}

// randomDuration is uniform in [lo, hi), lo when the range is empty.
func randomDuration(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo) //nolint:gosec // jitter, not security
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// isCanceled reports whether err comes from context cancellation.
func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
