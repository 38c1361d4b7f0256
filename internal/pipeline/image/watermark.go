package image

import (
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/imageforge/imageforge/internal/pipeline"
)

var fontPaths = []string{
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/TTF/DejaVuSans.ttf",
	"/System/Library/Fonts/Helvetica.ttc",
}

// drawWatermark renders the step's text at its gravity anchor. The base image
// is never resized; text that would not fit is clamped by the font sizing
// below.
func drawWatermark(img *image.NRGBA, step pipeline.Step) (*image.NRGBA, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	dc := gg.NewContext(width, height)
	dc.DrawImage(img, 0, 0)

	fontSize := float64(step.FontSize)
	if fontSize < 8 {
		fontSize = 8
	}
	if minDim := float64(min(width, height)); fontSize > minDim/4 {
		fontSize = minDim / 4
	}

	loadFontFace(dc, fontSize)

	opacity := float64(step.Opacity) / 100.0
	if opacity > 1 {
		opacity = 1
	}

	x, y, ax, ay := anchorPoint(width, height, step.Gravity, fontSize)

	// Drop shadow first so light text stays readable on light images.
	dc.SetRGBA(0, 0, 0, opacity*0.5)
	dc.DrawStringAnchored(step.Text, x+2, y+2, ax, ay)

	dc.SetRGBA(1, 1, 1, opacity)
	dc.DrawStringAnchored(step.Text, x, y, ax, ay)

	return imaging.Clone(dc.Image()), nil
}

func loadFontFace(dc *gg.Context, size float64) {
	for _, path := range fontPaths {
		if err := dc.LoadFontFace(path, size); err == nil {
			return
		}
	}
	// gg falls back to its built-in basicfont face.
}

// anchorPoint maps one of the nine gravity names onto coordinates plus the
// gg anchor weights (0 = left/top edge at the point, 1 = right/bottom edge).
func anchorPoint(width, height int, gravity string, fontSize float64) (x, y, ax, ay float64) {
	padding := fontSize * 0.5
	w := float64(width)
	h := float64(height)

	switch strings.ToLower(gravity) {
	case "top-left":
		return padding, padding, 0, 0
	case "top-center":
		return w / 2, padding, 0.5, 0
	case "top-right":
		return w - padding, padding, 1, 0
	case "center-left":
		return padding, h / 2, 0, 0.5
	case "center":
		return w / 2, h / 2, 0.5, 0.5
	case "center-right":
		return w - padding, h / 2, 1, 0.5
	case "bottom-left":
		return padding, h - padding, 0, 1
	case "bottom-center":
		return w / 2, h - padding, 0.5, 1
	default:
		return w - padding, h - padding, 1, 1
	}
}
