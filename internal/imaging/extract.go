package imaging

import (
	"fmt"
	"image"
)

// Options controls contour extraction.
type Options struct {
	// BlurKernelSize is the Gaussian kernel side length. Must be odd and positive.
	BlurKernelSize int `json:"blur_kernel_size"`

	// Threshold1 and Threshold2 are the Canny hysteresis thresholds.
	Threshold1 float64 `json:"threshold1"`
	Threshold2 float64 `json:"threshold2"`

	// StrokeColor is the "#RRGGBB" color used to draw contours.
	StrokeColor string `json:"stroke_color"`
}

// DefaultOptions returns the defaults tuned for photographs: 5x5 blur,
// thresholds 100/200 and white strokes.
func DefaultOptions() Options {
	return Options{
		BlurKernelSize: 5,
		Threshold1:     100,
		Threshold2:     200,
		StrokeColor:    "#FFFFFF",
	}
}

// Tracer turns an image into external contours. The pure Go tracer is used
// unless the binary is built with the gocv tag, which switches to OpenCV.
type Tracer interface {
	Trace(img image.Image, opts Options) ([]Contour, error)
}

// ContourResult contains the traced contours and their rendering.
type ContourResult struct {
	// Width and Height of the rendered image in pixels (same as input).
	Width  int `json:"width"`
	Height int `json:"height"`

	// Contours are the external contours, simplified.
	Contours []Contour `json:"contours"`

	// Image is the black canvas with contours stroked in the stroke color.
	Image *image.RGBA `json:"-"`
}

// ExtractContours traces img with the default tracer and renders the contours
// onto a blank canvas the size of img.
func ExtractContours(img image.Image, opts Options) (*ContourResult, error) {
	return ExtractContoursWith(DefaultTracer(), img, opts)
}

// ExtractContoursWith is ExtractContours with an explicit tracer.
func ExtractContoursWith(t Tracer, img image.Image, opts Options) (*ContourResult, error) {
	stroke, err := ParseStrokeColor(opts.StrokeColor)
	if err != nil {
		return nil, err
	}

	contours, err := t.Trace(img, opts)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	canvas := NewCanvas(bounds)
	DrawContours(canvas, contours, stroke)

	return &ContourResult{
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Contours: contours,
		Image:    canvas,
	}, nil
}

// GenerateContours runs the whole contour pipeline on files.
//
// Parameters:
//   - inputPath: Image to read. A missing file fails with ErrNotFound.
//   - outputPath: Where the contour image is written as PNG.
//   - previewPath: Where the side-by-side sheet is written as PNG; empty
//     skips the preview.
//   - opts: Extraction options, see DefaultOptions.
func GenerateContours(inputPath, outputPath, previewPath string, opts Options) (*ContourResult, error) {
	img, err := Load(inputPath)
	if err != nil {
		return nil, err
	}

	res, err := ExtractContours(img, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to extract contours: %w", err)
	}

	if err := Save(outputPath, res.Image); err != nil {
		return nil, err
	}

	if previewPath != "" {
		if err := Save(previewPath, SideBySide(img, res.Image)); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// pureTracer is the dependency-free tracer: grayscale, Gaussian blur, Canny
// and border following, all in Go.
type pureTracer struct{}

func (pureTracer) Trace(img image.Image, opts Options) ([]Contour, error) {
	blurred, err := GaussianBlur(Grayscale(img), opts.BlurKernelSize)
	if err != nil {
		return nil, err
	}
	edges := Canny(blurred, opts.Threshold1, opts.Threshold2)
	return FindExternalContours(edges), nil
}
