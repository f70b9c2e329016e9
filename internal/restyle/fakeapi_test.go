package restyle

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/routegroup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI imitates the submit/poll/download endpoints. Each submitted job
// walks through statuses, one per poll, and stays on the last one.
type fakeAPI struct {
	t *testing.T

	mu           sync.Mutex
	statuses     []string // status sequence served to polls
	noID         bool     // submit answers without id
	downloadCode int      // status for image downloads, 200 if zero
	image        []byte

	submits   int
	polls     int
	downloads int
	jobs      map[string]int // job id -> polls served
	lastKeys  map[string]string
	lastBody  submitRequest
}

func newFakeAPI(t *testing.T, statuses ...string) (*fakeAPI, *httptest.Server) {
	t.Helper()
	f := &fakeAPI{t: t, statuses: statuses, image: []byte("fake image"), jobs: map[string]int{},
		lastKeys: map[string]string{}}

	router := routegroup.New(http.NewServeMux())
	router.HandleFunc("POST /v1/flux-kontext-pro", f.submit)
	router.HandleFunc("GET /v1/get_result", f.poll)
	router.HandleFunc("GET /images/{id}", f.download)

	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return f, ts
}

func (f *fakeAPI) submit(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits++
	f.lastKeys["submit"] = r.Header.Get("x-key")

	var req submitRequest
	assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))
	f.lastBody = req

	if f.noID {
		w.WriteHeader(http.StatusForbidden)
		rest.RenderJSON(w, rest.JSON{"detail": "invalid key"})
		return
	}
	id := fmt.Sprintf("job-%d", f.submits)
	f.jobs[id] = 0
	rest.RenderJSON(w, rest.JSON{"id": id, "polling_url": "unused"})
}

func (f *fakeAPI) poll(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	f.lastKeys["poll"] = r.Header.Get("x-key")

	id := r.URL.Query().Get("id")
	n, ok := f.jobs[id]
	if !ok {
		rest.RenderJSON(w, rest.JSON{"id": id, "status": "Task not found"})
		return
	}
	f.jobs[id] = n + 1
	status := f.statuses[min(n, len(f.statuses)-1)]
	resp := rest.JSON{"id": id, "status": status}
	if status == "Ready" {
		resp["result"] = rest.JSON{"sample": "http://" + r.Host + "/images/" + id}
	}
	rest.RenderJSON(w, resp)
}

func (f *fakeAPI) download(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloads++
	if f.downloadCode != 0 && f.downloadCode != http.StatusOK {
		w.WriteHeader(f.downloadCode)
		return
	}
	_, _ = w.Write(f.image)
}

func (f *fakeAPI) counts() (submits, polls, downloads int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submits, f.polls, f.downloads
}

// testConfig points the config at ts with millisecond timings.
func testConfig(t *testing.T, ts *httptest.Server) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.SubmitURL = ts.URL + "/v1/flux-kontext-pro"
	cfg.PollURL = ts.URL + "/v1/get_result"
	cfg.SubmitKey = "submit-key"
	cfg.PollKey = "poll-key"
	cfg.Prompt = "make it a theatre"
	cfg.RequestTimeout = 5 * time.Second
	cfg.PollInterval = time.Millisecond
	cfg.JitterMin = time.Millisecond
	cfg.JitterMax = 2 * time.Millisecond
	cfg.OutputDir = t.TempDir()
	require.NoError(t, cfg.Validate())
	return cfg
}

func (f *fakeAPI) set(fn func(f *fakeAPI)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeAPI) keys() (submit, poll string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastKeys["submit"], f.lastKeys["poll"]
}
