package restyle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

var (
	// ErrEncoding is returned when the input image can't be read for upload.
	ErrEncoding = errors.New("image encoding failed")
	// ErrProtocol is returned when the API answers without the expected fields.
	ErrProtocol = errors.New("unexpected api response")
	// ErrStatusFailure is returned when a job reports a terminal status other than Ready.
	ErrStatusFailure = errors.New("generation failed")
	// ErrPollTimeout is returned when a job is still pending after the poll budget.
	ErrPollTimeout = errors.New("generation timed out")
	// ErrDownload is returned when the result image can't be fetched.
	ErrDownload = errors.New("download failed")
)

// PollState is the outcome of a single status poll.
type PollState int

// poll states
const (
	StatePending PollState = iota
	StateReady
	StateFailed
	StateTimedOut
)

func (s PollState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateTimedOut:
		return "timed out"
	default:
		return fmt.Sprintf("PollState(%d)", int(s))
	}
}

// PollResult is a decoded status response. URL is set for StateReady only.
type PollResult struct {
	State  PollState
	Status string
	URL    string
}

// Client talks to the BFL image API. Submit uses SubmitKey, Poll uses PollKey.
type Client struct {
	HTTPClient *http.Client
	SubmitURL  string
	PollURL    string
	SubmitKey  string
	PollKey    string
	Quality    string
	Seed       int
	Timeout    time.Duration // per request, zero means no limit
}

// NewClient makes a client from the config.
func NewClient(cfg Config) *Client {
	pollKey := cfg.PollKey
	if pollKey == "" {
		pollKey = cfg.SubmitKey
	}
	return &Client{
		HTTPClient: &http.Client{},
		SubmitURL:  cfg.SubmitURL,
		PollURL:    cfg.PollURL,
		SubmitKey:  cfg.SubmitKey,
		PollKey:    pollKey,
		Quality:    cfg.Quality,
		Seed:       cfg.Seed,
		Timeout:    cfg.RequestTimeout,
	}
}

type submitRequest struct {
	Prompt     string `json:"prompt"`
	InputImage string `json:"input_image"`
	Quality    string `json:"quality"`
	Seed       int    `json:"seed"`
}

type submitResponse struct {
	ID string `json:"id"`
}

type pollResponse struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Result json.RawMessage `json:"result"`
}

type pollSample struct {
	Sample string `json:"sample"`
}

// Submit sends a generation request and returns the job id.
func (c *Client) Submit(ctx context.Context, prompt, imageB64 string) (string, error) {
	body, err := json.Marshal(submitRequest{Prompt: prompt, InputImage: imageB64, Quality: c.Quality, Seed: c.Seed})
	if err != nil {
		return "", fmt.Errorf("failed to marshal submit request: %w", err)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.SubmitURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to make submit request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("x-key", c.SubmitKey)
	req.Header.Set("Content-Type", "application/json")

	var resp submitResponse
	status, err := c.doJSON(req, &resp)
	if err != nil {
		return "", fmt.Errorf("failed to submit: %w", err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("no id in submit response, status %d: %w", status, ErrProtocol)
	}
	return resp.ID, nil
}

// Poll asks for the status of a job once.
func (c *Client) Poll(ctx context.Context, id string) (PollResult, error) {
	u, err := url.Parse(c.PollURL)
	if err != nil {
		return PollResult{}, fmt.Errorf("failed to parse poll url %q: %w", c.PollURL, err)
	}
	q := u.Query()
	q.Set("id", id)
	u.RawQuery = q.Encode()

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return PollResult{}, fmt.Errorf("failed to make poll request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("x-key", c.PollKey)

	var resp pollResponse
	if _, err := c.doJSON(req, &resp); err != nil {
		return PollResult{}, fmt.Errorf("failed to poll %s: %w", id, err)
	}

	res := PollResult{Status: resp.Status}
	switch resp.Status {
	case "Ready":
		res.State = StateReady
		var sample pollSample
		if len(resp.Result) > 0 {
			if err := json.Unmarshal(resp.Result, &sample); err != nil {
				return res, fmt.Errorf("can't decode result of %s: %v: %w", id, err, ErrProtocol)
			}
		}
		if sample.Sample == "" {
			return res, fmt.Errorf("no image url in result of %s: %w", id, ErrProtocol)
		}
		res.URL = sample.Sample
	case "Processing", "Queued", "Pending":
		res.State = StatePending
	default:
		res.State = StateFailed
	}
	return res, nil
}

// Download fetches the generated image.
func (c *Client) Download(ctx context.Context, imageURL string) ([]byte, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to make download request: %v: %w", err, ErrDownload)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %v: %w", imageURL, err, ErrDownload)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download status %d: %w", resp.StatusCode, ErrDownload)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read downloaded image: %v: %w", err, ErrDownload)
	}
	return data, nil
}

// doJSON runs the request and decodes the body whatever the status code,
// error bodies are json too and carry no id or status.
func (c *Client) doJSON(req *http.Request, v any) (int, error) {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return resp.StatusCode, fmt.Errorf("can't decode response, status %d: %v: %w", resp.StatusCode, err, ErrProtocol)
	}
	return resp.StatusCode, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.Timeout)
}
