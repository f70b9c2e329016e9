package imaging

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
)

const (
	previewMaxPanelHeight = 600
	previewMargin         = 16
	previewTitleBand      = 28
)

// SideBySide lays out the original and the contour image next to each other
// on a light sheet, titled "Original Image" and "Contour Image".
//
// Both panels are scaled to a common height (at most 600 pixels, never
// upscaled) with their aspect ratio kept.
func SideBySide(original, result image.Image) image.Image {
	panelHeight := original.Bounds().Dy()
	if h := result.Bounds().Dy(); h > panelHeight {
		panelHeight = h
	}
	if panelHeight > previewMaxPanelHeight {
		panelHeight = previewMaxPanelHeight
	}
	if panelHeight < 1 {
		panelHeight = 1
	}

	left := imaging.Resize(original, 0, panelHeight, imaging.Lanczos)
	right := imaging.Resize(result, 0, panelHeight, imaging.NearestNeighbor)

	width := left.Bounds().Dx() + right.Bounds().Dx() + 3*previewMargin
	height := panelHeight + previewTitleBand + 2*previewMargin

	sheet := imaging.New(width, height, color.White)
	top := previewMargin + previewTitleBand
	sheet = imaging.Paste(sheet, left, image.Pt(previewMargin, top))
	rightX := 2*previewMargin + left.Bounds().Dx()
	sheet = imaging.Paste(sheet, right, image.Pt(rightX, top))

	dc := gg.NewContextForImage(sheet)
	dc.SetColor(color.Black)
	titleY := float64(previewMargin + previewTitleBand/2)
	dc.DrawStringAnchored("Original Image", float64(previewMargin+left.Bounds().Dx()/2), titleY, 0.5, 0.5)
	dc.DrawStringAnchored("Contour Image", float64(rightX+right.Bounds().Dx()/2), titleY, 0.5, 0.5)
	return dc.Image()
}
