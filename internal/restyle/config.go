package restyle

import (
	"errors"
	"fmt"
	"time"
)

// Config carries everything the pipeline needs. Nothing in this package
// reads the environment, the command fills Config from flags and .env.
type Config struct {
	SubmitURL string
	PollURL   string
	SubmitKey string
	PollKey   string // falls back to SubmitKey when empty

	Prompt  string
	Quality string
	Seed    int

	RequestTimeout time.Duration
	PollInterval   time.Duration
	MaxPolls       int

	MaxAttempts int
	JitterMin   time.Duration
	JitterMax   time.Duration

	OutputDir   string
	Concurrency int
}

// DefaultConfig returns the configuration the restyle command starts from.
// Prompt and keys are left empty.
func DefaultConfig() Config {
	return Config{
		SubmitURL:      "https://api.bfl.ai/v1/flux-kontext-pro",
		PollURL:        "https://api.bfl.ai/v1/get_result",
		Quality:        "high",
		Seed:           1,
		RequestTimeout: 30 * time.Second,
		PollInterval:   1500 * time.Millisecond,
		MaxPolls:       20,
		MaxAttempts:    3,
		JitterMin:      time.Second,
		JitterMax:      3 * time.Second,
		OutputDir:      "output_theatre",
		Concurrency:    1,
	}
}

// Validate checks the config and normalizes the fields that have a floor.
func (c *Config) Validate() error {
	var errs []error
	if c.SubmitURL == "" {
		errs = append(errs, errors.New("submit url is required"))
	}
	if c.PollURL == "" {
		errs = append(errs, errors.New("poll url is required"))
	}
	if c.SubmitKey == "" {
		errs = append(errs, errors.New("submit api key is required"))
	}
	if c.Prompt == "" {
		errs = append(errs, errors.New("prompt is required"))
	}
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output dir is required"))
	}
	if c.JitterMax < c.JitterMin {
		errs = append(errs, fmt.Errorf("jitter max %v is below jitter min %v", c.JitterMax, c.JitterMin))
	}
	if c.PollInterval < 0 || c.JitterMin < 0 || c.RequestTimeout < 0 {
		errs = append(errs, errors.New("durations must not be negative"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid restyle config: %w", err)
	}

	if c.PollKey == "" {
		c.PollKey = c.SubmitKey
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	if c.MaxPolls < 1 {
		c.MaxPolls = 1
	}
	if c.Concurrency < 1 {
		c.Concurrency = 1
	}
	return nil
}
