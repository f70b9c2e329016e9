package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/routegroup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions(t *testing.T, apiURL string) options {
	t.Helper()
	dir := t.TempDir()
	var opts options
	opts.Input = filepath.Join(dir, "input_theatre")
	opts.Output = filepath.Join(dir, "output_theatre")
	opts.Preset = "theatre"
	opts.Concurrency = 1
	opts.SubmitKey = "key"
	opts.API.SubmitURL = apiURL + "/v1/flux-kontext-pro"
	opts.API.PollURL = apiURL + "/v1/get_result"
	opts.API.Quality = "high"
	opts.API.Seed = 1
	opts.API.Timeout = 5 * time.Second
	opts.Poll.Interval = time.Millisecond
	opts.Poll.Max = 5
	opts.Retry.JitterMin = time.Millisecond
	opts.Retry.JitterMax = 2 * time.Millisecond
	return opts
}

func fakeServer(t *testing.T, failFor string) (*httptest.Server, *int32) {
	t.Helper()
	var submits int32
	router := routegroup.New(http.NewServeMux())
	router.HandleFunc("POST /v1/flux-kontext-pro", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&submits, 1)
		var req struct {
			InputImage string `json:"input_image"`
		}
		_ = rest.DecodeJSON(r, &req)
		id := "job"
		if failFor != "" && strings.Contains(req.InputImage, failFor) {
			id = "bad"
		}
		rest.RenderJSON(w, rest.JSON{"id": id, "n": n})
	})
	router.HandleFunc("GET /v1/get_result", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") == "bad" {
			rest.RenderJSON(w, rest.JSON{"status": "Error"})
			return
		}
		rest.RenderJSON(w, rest.JSON{"status": "Ready", "result": rest.JSON{"sample": "http://" + r.Host + "/img"}})
	})
	router.HandleFunc("GET /img", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("stylized"))
	})
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts, &submits
}

func TestRun(t *testing.T) {
	ts, submits := fakeServer(t, "")
	opts := testOptions(t, ts.URL)
	require.NoError(t, os.MkdirAll(opts.Input, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(opts.Input, "stalls_r1.jpg"), []byte("one"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(opts.Input, "stalls_r2.png"), []byte("two"), 0o600))

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), opts, &out))

	assert.Contains(t, out.String(), "Found 2 images in "+opts.Input)
	assert.Contains(t, out.String(), "Processing images sequentially")
	assert.Contains(t, out.String(), "Processing complete! 2 of 2 images processed successfully.")
	assert.Equal(t, int32(2), atomic.LoadInt32(submits))

	entries, err := os.ReadDir(opts.Output)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRun_Failure(t *testing.T) {
	ts, submits := fakeServer(t, "YmFk") // base64 of "bad"
	opts := testOptions(t, ts.URL)
	require.NoError(t, os.MkdirAll(opts.Input, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(opts.Input, "a.jpg"), []byte("bad"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(opts.Input, "b.jpg"), []byte("good"), 0o600))

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), opts, &out))
	assert.Contains(t, out.String(), "Processing complete! 1 of 2 images processed successfully.")
	assert.Contains(t, out.String(), "Failed to process 1 images:\n  - a.jpg")
	assert.Equal(t, int32(2), atomic.LoadInt32(submits), "theatre preset makes a single attempt")
}

func TestRun_NoImages(t *testing.T) {
	opts := testOptions(t, "http://127.0.0.1:1")
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), opts, &out))
	assert.Equal(t, "No images found in "+opts.Input+". Please add some images and run again.\n", out.String())
	assert.DirExists(t, opts.Input)
	assert.DirExists(t, opts.Output)
}

func TestMakeConfig(t *testing.T) {
	opts := testOptions(t, "http://localhost")

	cfg, err := makeConfig(opts)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.MaxAttempts, "theatre preset")
	assert.Contains(t, cfg.Prompt, "#770F0F")
	assert.Equal(t, "key", cfg.PollKey)

	opts.Preset = "cartoon"
	cfg, err = makeConfig(opts)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MaxAttempts)

	opts.Retry.Attempts = 5
	opts.Prompt = "custom prompt"
	opts.Preset = "no-such-preset"
	cfg, err = makeConfig(opts)
	require.NoError(t, err, "preset is not needed with explicit prompt and attempts")
	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, "custom prompt", cfg.Prompt)

	opts.Retry.Attempts = 0
	_, err = makeConfig(opts)
	require.Error(t, err)

	opts = testOptions(t, "http://localhost")
	opts.SubmitKey = ""
	_, err = makeConfig(opts)
	require.Error(t, err)
}

func TestMakeConfig_PresetsFile(t *testing.T) {
	opts := testOptions(t, "http://localhost")
	opts.PresetsFile = filepath.Join(t.TempDir(), "presets.yml")
	require.NoError(t, os.WriteFile(opts.PresetsFile, []byte("presets:\n  noir:\n    prompt: film noir\n    max_attempts: 2\n"), 0o600))
	opts.Preset = "noir"

	cfg, err := makeConfig(opts)
	require.NoError(t, err)
	assert.Equal(t, "film noir", cfg.Prompt)
	assert.Equal(t, 2, cfg.MaxAttempts)
}

func TestEnvFileFromArgs(t *testing.T) {
	t.Setenv("RESTYLE_ENV_FILE", "")
	assert.Equal(t, ".env", envFileFromArgs(nil))
	assert.Equal(t, "a.env", envFileFromArgs([]string{"--input", "x", "--env-file", "a.env"}))
	assert.Equal(t, "b.env", envFileFromArgs([]string{"--env-file=b.env"}))

	t.Setenv("RESTYLE_ENV_FILE", "c.env")
	assert.Equal(t, "c.env", envFileFromArgs([]string{"--input", "x"}))
}
