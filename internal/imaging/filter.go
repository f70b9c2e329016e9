package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/anthonynsimon/bild/effect"
)

// ErrInvalidArgument is returned when a filter parameter is outside the range
// the underlying primitive accepts.
var ErrInvalidArgument = errors.New("invalid argument")

// Grayscale converts img to a single-channel intensity image using the
// BT.601 luma weights (0.299, 0.587, 0.114), the same as OpenCV's BGR2GRAY.
// The result keeps the bounds of img.
func Grayscale(img image.Image) *image.Gray {
	g := effect.GrayscaleWithWeights(img, 0.299, 0.587, 0.114)

	bounds := img.Bounds()
	origin := g.Bounds().Min
	dst := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := g.RGBAAt(origin.X+x-bounds.Min.X, origin.Y+y-bounds.Min.Y)
			dst.SetGray(x, y, color.Gray{Y: c.R})
		}
	}
	return dst
}

// GaussianBlur smooths a grayscale image with a square Gaussian kernel.
//
// Parameters:
//   - src: Single-channel source image.
//   - ksize: Kernel side length in pixels. Must be odd and positive.
//     A ksize of 1 leaves the image unchanged.
//
// Returns:
//   - *image.Gray: The blurred image, same bounds as src.
//   - error: ErrInvalidArgument (wrapped) if ksize is even or not positive.
//
// # Kernel
//
// The standard deviation is derived from the kernel size the same way OpenCV
// does when sigma is left at zero:
//
//	sigma = 0.3*((ksize-1)*0.5 - 1) + 0.8
//
// The 2D kernel is separable, so the image is convolved with a horizontal
// 1D kernel and then with its transpose. Border pixels use clamped
// (replicated) edge values. Each pass truncates to uint8 where OpenCV rounds,
// so values can sit up to one level below OpenCV's output.
func GaussianBlur(src *image.Gray, ksize int) (*image.Gray, error) {
	if ksize <= 0 || ksize%2 == 0 {
		return nil, fmt.Errorf("blur kernel size must be odd and positive, got %d: %w", ksize, ErrInvalidArgument)
	}
	if ksize == 1 {
		dst := image.NewGray(src.Bounds())
		copy(dst.Pix, src.Pix)
		return dst, nil
	}

	k := gaussianKernel(ksize)
	opts := &convolution.Options{Bias: 0, Wrap: false, KeepAlpha: true}
	horizontal := convolution.Convolve(src, k, opts)
	blurred := convolution.Convolve(horizontal, k.Transposed(), opts)

	bounds := src.Bounds()
	origin := blurred.Bounds().Min
	dst := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := blurred.RGBAAt(origin.X+x-bounds.Min.X, origin.Y+y-bounds.Min.Y)
			dst.SetGray(x, y, color.Gray{Y: c.R})
		}
	}
	return dst, nil
}

// gaussianKernel builds a normalized 1D Gaussian kernel of the given odd size.
func gaussianKernel(ksize int) convolution.Matrix {
	sigma := 0.3*(float64(ksize-1)*0.5-1) + 0.8
	radius := ksize / 2

	k := convolution.NewKernel(ksize, 1)
	for i := 0; i < ksize; i++ {
		d := float64(i - radius)
		k.Matrix[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
	}
	return k.Normalized()
}
