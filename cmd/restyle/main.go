package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/joho/godotenv"
	"github.com/umputun/go-flags"

	"github.com/ironsheep/stage-tools/internal/cli"
	"github.com/ironsheep/stage-tools/internal/restyle"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

type options struct {
	Input       string `short:"i" long:"input" env:"RESTYLE_INPUT" default:"input_theatre" description:"input images directory"`
	Output      string `short:"o" long:"output" env:"RESTYLE_OUTPUT" default:"output_theatre" description:"output directory"`
	EnvFile     string `long:"env-file" env:"RESTYLE_ENV_FILE" default:".env" description:"secrets file loaded before flags"`
	Preset      string `short:"p" long:"preset" env:"RESTYLE_PRESET" default:"theatre" description:"prompt preset"`
	PresetsFile string `long:"presets" env:"RESTYLE_PRESETS" description:"yaml file with extra presets"`
	Prompt      string `long:"prompt" env:"RESTYLE_PROMPT" description:"prompt text, overrides the preset prompt"`
	Concurrency int    `short:"c" long:"concurrency" env:"RESTYLE_CONCURRENCY" default:"1" description:"images in flight"`

	API struct {
		SubmitURL string        `long:"submit-url" env:"SUBMIT_URL" default:"https://api.bfl.ai/v1/flux-kontext-pro" description:"generation endpoint"`
		PollURL   string        `long:"poll-url" env:"POLL_URL" default:"https://api.bfl.ai/v1/get_result" description:"result endpoint"`
		Quality   string        `long:"quality" env:"QUALITY" default:"high" description:"requested quality"`
		Seed      int           `long:"seed" env:"SEED" default:"1" description:"generation seed"`
		Timeout   time.Duration `long:"timeout" env:"TIMEOUT" default:"30s" description:"per request timeout"`
	} `group:"api" namespace:"api" env-namespace:"RESTYLE_API"`

	SubmitKey string `long:"submit-key" env:"BFL_HACKIN_API_KEY" description:"api key for submits"`
	PollKey   string `long:"poll-key" env:"BFL_API_KEY" description:"api key for polls, submit key if empty"`

	Poll struct {
		Interval time.Duration `long:"interval" env:"INTERVAL" default:"1500ms" description:"wait before each poll"`
		Max      int           `long:"max" env:"MAX" default:"20" description:"polls per attempt"`
	} `group:"poll" namespace:"poll" env-namespace:"RESTYLE_POLL"`

	Retry struct {
		Attempts  int           `long:"attempts" env:"ATTEMPTS" description:"attempts per image, preset value if not set"`
		JitterMin time.Duration `long:"jitter-min" env:"JITTER_MIN" default:"1s" description:"min wait between attempts"`
		JitterMax time.Duration `long:"jitter-max" env:"JITTER_MAX" default:"3s" description:"max wait between attempts"`
	} `group:"retry" namespace:"retry" env-namespace:"RESTYLE_RETRY"`

	Log cli.LogOptions `group:"log" namespace:"log" env-namespace:"RESTYLE_LOG"`

	Dbg     bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"print version information"`
}

func main() {
	// secrets have to be in the environment before flags read env tags
	envFile := envFileFromArgs(os.Args[1:])
	if err := godotenv.Overload(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", envFile, err)
	}

	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(2)
	}
	if opts.Version {
		fmt.Println(cli.BuildInfo{App: "restyle", Version: Version, BuildTime: BuildTime, GitCommit: GitCommit})
		return
	}
	closer := cli.SetupLogs(opts.Dbg, opts.Log)
	defer closer.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, opts, os.Stdout); err != nil {
		log.Printf("[ERROR] %v", err)
		cancel()
		closer.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, w io.Writer) error {
	cfg, err := makeConfig(opts)
	if err != nil {
		return err
	}

	for _, dir := range []string{opts.Input, opts.Output} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	paths, err := restyle.Discover(opts.Input)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		fmt.Fprintf(w, "No images found in %s. Please add some images and run again.\n", opts.Input)
		return nil
	}

	fmt.Fprintf(w, "Found %d images in %s\n", len(paths), opts.Input)
	fmt.Fprintf(w, "Using prompt: %s\n", cfg.Prompt)
	if cfg.Concurrency == 1 {
		fmt.Fprintln(w, "Processing images sequentially")
	} else {
		fmt.Fprintf(w, "Processing up to %d images at a time\n", cfg.Concurrency)
	}

	p := restyle.NewPipeline(restyle.NewClient(cfg), cfg, log.Default())
	b := restyle.Batch{Processor: p, Concurrency: cfg.Concurrency, Log: log.Default()}
	sum := b.Run(ctx, paths)
	sum.OutputDir = cfg.OutputDir
	fmt.Fprintf(w, "\n%s\n", sum)
	return nil
}

// makeConfig resolves the preset and builds a validated pipeline config.
func makeConfig(opts options) (restyle.Config, error) {
	presets := restyle.BuiltinPresets()
	if opts.PresetsFile != "" {
		fh, err := os.Open(opts.PresetsFile)
		if err != nil {
			return restyle.Config{}, fmt.Errorf("failed to open presets: %w", err)
		}
		defer fh.Close()
		user, err := restyle.LoadPresets(fh)
		if err != nil {
			return restyle.Config{}, fmt.Errorf("failed to load %s: %w", opts.PresetsFile, err)
		}
		presets = presets.Merge(user)
	}

	cfg := restyle.DefaultConfig()
	cfg.SubmitURL = opts.API.SubmitURL
	cfg.PollURL = opts.API.PollURL
	cfg.SubmitKey = opts.SubmitKey
	cfg.PollKey = opts.PollKey
	cfg.Quality = opts.API.Quality
	cfg.Seed = opts.API.Seed
	cfg.RequestTimeout = opts.API.Timeout
	cfg.PollInterval = opts.Poll.Interval
	cfg.MaxPolls = opts.Poll.Max
	cfg.JitterMin = opts.Retry.JitterMin
	cfg.JitterMax = opts.Retry.JitterMax
	cfg.OutputDir = opts.Output
	cfg.Concurrency = opts.Concurrency

	preset := restyle.Preset{}
	if opts.Prompt == "" || opts.Retry.Attempts == 0 {
		var err error
		if preset, err = presets.Get(opts.Preset); err != nil {
			return restyle.Config{}, err
		}
	}
	cfg.Prompt = preset.Prompt
	if opts.Prompt != "" {
		cfg.Prompt = opts.Prompt
	}
	if preset.MaxAttempts > 0 {
		cfg.MaxAttempts = preset.MaxAttempts
	}
	if opts.Retry.Attempts > 0 {
		cfg.MaxAttempts = opts.Retry.Attempts
	}

	if err := cfg.Validate(); err != nil {
		return restyle.Config{}, err
	}
	log.Printf("[DEBUG] preset %q, %d attempts, %d polls every %v", opts.Preset, cfg.MaxAttempts, cfg.MaxPolls, cfg.PollInterval)
	return cfg, nil
}

// envFileFromArgs finds --env-file ahead of flag parsing, falling back to
// RESTYLE_ENV_FILE and then ".env".
func envFileFromArgs(args []string) string {
	for i, a := range args {
		if a == "--env-file" && i+1 < len(args) {
			return args[i+1]
		}
		if v, ok := strings.CutPrefix(a, "--env-file="); ok && v != "" {
			return v
		}
	}
	if v := os.Getenv("RESTYLE_ENV_FILE"); v != "" {
		return v
	}
	return ".env"
}
