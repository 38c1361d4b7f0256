package options

import (
	"math"
	"strings"

	"github.com/imageforge/imageforge/internal/imagemeta"
	"github.com/imageforge/imageforge/internal/pipeline"
)

// Translate maps validated options onto an ordered step sequence. It is pure
// and deterministic: the same options and source info always produce the same
// steps. Step order is fixed because transform order changes visual output:
//
//	color profile, crop, resize, rotate, flip, color correction,
//	sharpen, blur, brightness/contrast, saturation, watermark, encode.
//
// Steps whose options are disabled or whose magnitude is the identity value
// are omitted entirely; only the final encode step is always present.
func Translate(opts ProcessingOptions, src imagemeta.Info) []pipeline.Step {
	steps := make([]pipeline.Step, 0, 8)

	// Track the working extent through geometric steps so later decisions
	// (crop clamping, shrink-to-fit) see the dimensions they will actually
	// operate on.
	curW, curH := src.Width, src.Height

	if profile := normalizeProfile(opts.ColorProfile); profile != "" {
		steps = append(steps, pipeline.Step{Kind: pipeline.StepColorProfile, Profile: profile})
	}

	cropped := false
	if opts.Crop.Enabled && curW > 0 && curH > 0 {
		if step, ok := clampCrop(opts.Crop, curW, curH); ok {
			steps = append(steps, step)
			curW, curH = step.Width, step.Height
			cropped = true
		}
	}

	if opts.Resize.Enabled && opts.Resize.Width > 0 && opts.Resize.Height > 0 {
		if step, ok := resizeStep(opts.Resize, curW, curH, cropped); ok {
			steps = append(steps, step)
			curW, curH = step.Width, step.Height
		}
	}

	if deg := normalizeDegrees(opts.Rotate); deg != 0 {
		steps = append(steps, pipeline.Step{Kind: pipeline.StepRotate, Degrees: deg})
	}

	if opts.Flip != "" {
		steps = append(steps, pipeline.Step{Kind: pipeline.StepFlip, Direction: pipeline.FlipDirection(opts.Flip)})
	}

	if opts.ColorCorrection {
		steps = append(steps, pipeline.Step{Kind: pipeline.StepColorCorrect})
	}

	steps = append(steps, enhancementSteps(opts.Enhancement)...)

	if wm, ok := watermarkStep(opts.Watermark); ok {
		steps = append(steps, wm)
	}

	steps = append(steps, pipeline.Step{
		Kind:    pipeline.StepEncode,
		Format:  normalizeFormat(opts.Format),
		Quality: opts.EffectiveQuality(),
	})

	return steps
}

// clampCrop clamps the requested rectangle to the image extents.
// Out-of-bounds coordinates are not an error. A rectangle that clamps to the
// full image (or to nothing) produces no step.
func clampCrop(c CropOptions, srcW, srcH int) (pipeline.Step, bool) {
	x, y := c.X, c.Y
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	if x >= srcW || y >= srcH {
		return pipeline.Step{}, false
	}

	w, h := c.Width, c.Height
	if w <= 0 || h <= 0 {
		return pipeline.Step{}, false
	}
	if x+w > srcW {
		w = srcW - x
	}
	if y+h > srcH {
		h = srcH - y
	}

	if x == 0 && y == 0 && w == srcW && h == srcH {
		return pipeline.Step{}, false
	}

	return pipeline.Step{Kind: pipeline.StepCrop, X: x, Y: y, Width: w, Height: h}, true
}

// resizeStep decides the resize target. With aspect ratio maintained (or
// after a crop) the policy is shrink-to-fit: scale down to fit inside the
// box, never enlarge past the current size. Without it the dimensions are
// forced exactly.
func resizeStep(r ResizeOptions, curW, curH int, cropped bool) (pipeline.Step, bool) {
	fit := r.MaintainAspectRatio || cropped
	if !fit {
		if r.Width == curW && r.Height == curH {
			return pipeline.Step{}, false
		}
		return pipeline.Step{Kind: pipeline.StepResize, Width: r.Width, Height: r.Height, Stretch: true}, true
	}

	if curW <= 0 || curH <= 0 {
		return pipeline.Step{}, false
	}

	scale := math.Min(float64(r.Width)/float64(curW), float64(r.Height)/float64(curH))
	if scale >= 1 {
		// Box is at least as large as the image: never upscale.
		return pipeline.Step{}, false
	}

	w := int(math.Round(float64(curW) * scale))
	h := int(math.Round(float64(curH) * scale))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	return pipeline.Step{Kind: pipeline.StepResize, Width: w, Height: h}, true
}

// enhancementSteps emits the enhancement block in its fixed sub-order:
// sharpen, blur, brightness/contrast, saturation. Zero magnitudes emit
// nothing.
func enhancementSteps(e EnhancementOptions) []pipeline.Step {
	var steps []pipeline.Step

	if e.Sharpen > 0 {
		steps = append(steps, pipeline.Step{Kind: pipeline.StepSharpen, Sigma: e.Sharpen})
	}
	if e.Blur > 0 {
		steps = append(steps, pipeline.Step{Kind: pipeline.StepBlur, Sigma: e.Blur})
	}
	if e.Brightness != 0 || e.Contrast != 0 {
		steps = append(steps, pipeline.Step{
			Kind:       pipeline.StepBrightnessContrast,
			Brightness: e.Brightness,
			Contrast:   e.Contrast,
		})
	}
	if e.Saturation != 0 {
		steps = append(steps, pipeline.Step{Kind: pipeline.StepSaturation, Saturation: e.Saturation})
	}

	return steps
}

func watermarkStep(w WatermarkOptions) (pipeline.Step, bool) {
	if !w.Enabled || strings.TrimSpace(w.Text) == "" {
		return pipeline.Step{}, false
	}
	if w.Opacity == 0 {
		// Fully transparent text is an identity transform.
		return pipeline.Step{}, false
	}

	gravity := w.Position
	if gravity == "" {
		gravity = "bottom-right"
	}
	fontSize := w.FontSize
	if fontSize <= 0 {
		fontSize = 24
	}

	return pipeline.Step{
		Kind:     pipeline.StepWatermark,
		Text:     strings.TrimSpace(w.Text),
		Gravity:  gravity,
		FontSize: fontSize,
		Opacity:  w.Opacity,
	}, true
}

func normalizeFormat(format string) string {
	switch strings.ToLower(format) {
	case "jpg", "jpeg":
		return "jpeg"
	case "png":
		return "png"
	case "webp":
		return "webp"
	default:
		return "jpeg"
	}
}

func normalizeProfile(profile string) string {
	switch strings.ToLower(profile) {
	case "gray", "grayscale":
		return "gray"
	default:
		// Decoding already lands in sRGB, so an sRGB target is an identity
		// conversion and is omitted like any other no-op.
		return ""
	}
}

// normalizeDegrees folds rotation into [0,360) so a full turn is a no-op.
func normalizeDegrees(deg int) int {
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	return deg
}
