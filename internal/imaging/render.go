package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/lucasb-eyer/go-colorful"
)

// ParseStrokeColor parses a "#RRGGBB" hex string into an opaque color.
func ParseStrokeColor(hex string) (color.RGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid stroke color %q: %w", hex, ErrInvalidArgument)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// NewCanvas returns an opaque black image with the given bounds.
func NewCanvas(bounds image.Rectangle) *image.RGBA {
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, image.NewUniform(color.Black), image.Point{}, draw.Src)
	return canvas
}

// DrawContours strokes every contour onto dst as a closed 1-pixel polyline.
//
// Segments are rasterized with Bresenham's algorithm, which yields
// 8-connected lines without anti-aliasing, so every stroked pixel has exactly
// the requested color. Points outside dst are clipped.
func DrawContours(dst draw.Image, contours []Contour, c color.Color) {
	for _, contour := range contours {
		switch len(contour) {
		case 0:
			continue
		case 1:
			setClipped(dst, contour[0], c)
			continue
		case 2:
			// a closed two-point contour is a single segment traced both ways
			drawLine(dst, contour[0], contour[1], c)
			continue
		}
		for i := range contour {
			drawLine(dst, contour[i], contour[(i+1)%len(contour)], c)
		}
	}
}

// drawLine rasterizes the segment a-b inclusive of both end points.
func drawLine(dst draw.Image, a, b image.Point, c color.Color) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}

	err := dx + dy
	p := a
	for {
		setClipped(dst, p, c)
		if p == b {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			p.X += sx
		}
		if e2 <= dx {
			err += dx
			p.Y += sy
		}
	}
}

func setClipped(dst draw.Image, p image.Point, c color.Color) {
	if p.In(dst.Bounds()) {
		dst.Set(p.X, p.Y, c)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
