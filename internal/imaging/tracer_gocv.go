//go:build gocv

package imaging

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// DefaultTracer returns the OpenCV tracer. Build without the gocv tag to use
// the pure Go one.
func DefaultTracer() Tracer {
	return gocvTracer{}
}

// gocvTracer delegates blur, edge detection and border following to OpenCV.
type gocvTracer struct{}

func (gocvTracer) Trace(img image.Image, opts Options) ([]Contour, error) {
	if opts.BlurKernelSize <= 0 || opts.BlurKernelSize%2 == 0 {
		return nil, fmt.Errorf("blur kernel size must be odd and positive, got %d: %w", opts.BlurKernelSize, ErrInvalidArgument)
	}

	if img.Bounds().Empty() {
		return nil, fmt.Errorf("empty image: %w", ErrInvalidArgument)
	}

	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image to mat: %w", err)
	}
	defer src.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	if err := gocv.CvtColor(src, &gray, gocv.ColorBGRToGray); err != nil {
		return nil, fmt.Errorf("failed to convert to grayscale: %w", err)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	ksize := image.Pt(opts.BlurKernelSize, opts.BlurKernelSize)
	if err := gocv.GaussianBlur(gray, &blurred, ksize, 0, 0, gocv.BorderDefault); err != nil {
		return nil, fmt.Errorf("failed to blur: %w", err)
	}

	edges := gocv.NewMat()
	defer edges.Close()
	if err := gocv.Canny(blurred, &edges, float32(opts.Threshold1), float32(opts.Threshold2)); err != nil {
		return nil, fmt.Errorf("failed to run canny: %w", err)
	}

	found := gocv.FindContours(edges, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer found.Close()

	min := img.Bounds().Min
	contours := make([]Contour, 0, found.Size())
	for _, pts := range found.ToPoints() {
		c := make(Contour, len(pts))
		for i, p := range pts {
			c[i] = p.Add(min)
		}
		contours = append(contours, c)
	}
	return contours, nil
}
