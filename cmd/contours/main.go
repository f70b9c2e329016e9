package main

import (
	"errors"
	"fmt"
	"os"

	log "github.com/go-pkgz/lgr"
	"github.com/umputun/go-flags"

	"github.com/ironsheep/stage-tools/internal/cli"
	"github.com/ironsheep/stage-tools/internal/imaging"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

type options struct {
	Input      string  `short:"i" long:"input" env:"CONTOURS_INPUT" default:"input.png" description:"input image"`
	Output     string  `short:"o" long:"output" env:"CONTOURS_OUTPUT" default:"contour_output.png" description:"contour image, png"`
	Preview    string  `long:"preview" env:"CONTOURS_PREVIEW" default:"contour_preview.png" description:"side by side preview, png"`
	NoPreview  bool    `long:"no-preview" env:"CONTOURS_NO_PREVIEW" description:"skip the preview"`
	Blur       int     `long:"blur" env:"CONTOURS_BLUR" default:"5" description:"gaussian kernel size, odd"`
	Threshold1 float64 `long:"threshold1" env:"CONTOURS_THRESHOLD1" default:"100" description:"canny low threshold"`
	Threshold2 float64 `long:"threshold2" env:"CONTOURS_THRESHOLD2" default:"200" description:"canny high threshold"`
	Stroke     string  `long:"stroke" env:"CONTOURS_STROKE" default:"#FFFFFF" description:"contour color, #RRGGBB"`

	Log cli.LogOptions `group:"log" namespace:"log" env-namespace:"CONTOURS_LOG"`

	Dbg     bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"print version information"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(2)
	}
	if opts.Version {
		fmt.Println(cli.BuildInfo{App: "contours", Version: Version, BuildTime: BuildTime, GitCommit: GitCommit})
		return
	}
	closer := cli.SetupLogs(opts.Dbg, opts.Log)
	defer closer.Close()

	log.Printf("[DEBUG] contours %s (built %s, commit %s)", Version, BuildTime, GitCommit)
	res, err := run(opts)
	if err != nil {
		if errors.Is(err, imaging.ErrNotFound) {
			log.Printf("[ERROR] could not read the image at %s", opts.Input)
		}
		log.Printf("[ERROR] %v", err)
		closer.Close()
		os.Exit(1)
	}
	fmt.Printf("Contour image saved to %s\n", opts.Output)
	if preview := previewPath(opts); preview != "" {
		fmt.Printf("Preview saved to %s\n", preview)
	}
	log.Printf("[INFO] %d contours drawn on %dx%d", len(res.Contours), res.Width, res.Height)
}

func run(opts options) (*imaging.ContourResult, error) {
	info, err := imaging.LoadImageInfo(opts.Input)
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] input %s, %dx%d %s, %d bytes", opts.Input, info.Width, info.Height, info.Format, info.FileSizeBytes)

	return imaging.GenerateContours(opts.Input, opts.Output, previewPath(opts), imaging.Options{
		BlurKernelSize: opts.Blur,
		Threshold1:     opts.Threshold1,
		Threshold2:     opts.Threshold2,
		StrokeColor:    opts.Stroke,
	})
}

func previewPath(opts options) string {
	if opts.NoPreview {
		return ""
	}
	return opts.Preview
}
