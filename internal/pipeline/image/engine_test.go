package image

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/imageforge/imageforge/internal/pipeline"
)

func encodeStep(format string, quality int) pipeline.Step {
	return pipeline.Step{Kind: pipeline.StepEncode, Format: format, Quality: quality}
}

func TestEngine_EncodeOnly(t *testing.T) {
	e := NewEngine(nil)
	input := encodeTestPNG(t, createTestImage(100, 80))

	result, err := e.Execute(context.Background(), input, []pipeline.Step{encodeStep("jpeg", 85)})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	if result.ContentType != "image/jpeg" {
		t.Errorf("ContentType = %q, want image/jpeg", result.ContentType)
	}
	if result.Info.Format != "jpeg" {
		t.Errorf("Info.Format = %q, want jpeg", result.Info.Format)
	}
	if w, h := decodeDimensions(t, result.Data); w != 100 || h != 80 {
		t.Errorf("result dimensions = %dx%d, want 100x80", w, h)
	}
	if result.Info.SizeBytes != int64(len(result.Data)) {
		t.Errorf("Info.SizeBytes = %d, want %d", result.Info.SizeBytes, len(result.Data))
	}
}

func TestEngine_CorruptedInput(t *testing.T) {
	e := NewEngine(nil)

	_, err := e.Execute(context.Background(), []byte("not pixels"), []pipeline.Step{encodeStep("png", 0)})
	if !errors.Is(err, pipeline.ErrCorruptedFile) {
		t.Errorf("Execute() = %v, want ErrCorruptedFile", err)
	}
}

func TestEngine_UnknownStep(t *testing.T) {
	e := NewEngine(nil)
	input := encodeTestPNG(t, createTestImage(10, 10))

	_, err := e.Execute(context.Background(), input, []pipeline.Step{{Kind: "sepia"}})
	if !errors.Is(err, pipeline.ErrInvalidStep) {
		t.Errorf("Execute() = %v, want ErrInvalidStep", err)
	}
}

func TestEngine_UnsupportedEncodeFormat(t *testing.T) {
	e := NewEngine(nil)
	input := encodeTestPNG(t, createTestImage(10, 10))

	_, err := e.Execute(context.Background(), input, []pipeline.Step{encodeStep("tiff", 0)})
	if !errors.Is(err, pipeline.ErrUnsupportedFormat) {
		t.Errorf("Execute() = %v, want ErrUnsupportedFormat", err)
	}
}

func TestEngine_Cancellation(t *testing.T) {
	e := NewEngine(nil)
	input := encodeTestPNG(t, createTestImage(10, 10))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Execute(ctx, input, []pipeline.Step{encodeStep("png", 0)})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() = %v, want context.Canceled", err)
	}
}

func TestEngine_Resize(t *testing.T) {
	tests := []struct {
		name       string
		step       pipeline.Step
		wantWidth  int
		wantHeight int
	}{
		{
			name:       "fit preserves aspect ratio",
			step:       pipeline.Step{Kind: pipeline.StepResize, Width: 100, Height: 100},
			wantWidth:  100,
			wantHeight: 50,
		},
		{
			name:       "stretch forces exact dimensions",
			step:       pipeline.Step{Kind: pipeline.StepResize, Width: 100, Height: 100, Stretch: true},
			wantWidth:  100,
			wantHeight: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(nil)
			input := encodeTestPNG(t, createTestImage(400, 200))

			result, err := e.Execute(context.Background(), input, []pipeline.Step{tt.step, encodeStep("png", 0)})
			if err != nil {
				t.Fatalf("Execute() error: %v", err)
			}
			if w, h := decodeDimensions(t, result.Data); w != tt.wantWidth || h != tt.wantHeight {
				t.Errorf("dimensions = %dx%d, want %dx%d", w, h, tt.wantWidth, tt.wantHeight)
			}
		})
	}
}

func TestEngine_Crop(t *testing.T) {
	e := NewEngine(nil)
	input := encodeTestPNG(t, createTestImage(200, 100))

	steps := []pipeline.Step{
		{Kind: pipeline.StepCrop, X: 20, Y: 10, Width: 50, Height: 40},
		encodeStep("png", 0),
	}
	result, err := e.Execute(context.Background(), input, steps)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if w, h := decodeDimensions(t, result.Data); w != 50 || h != 40 {
		t.Errorf("dimensions = %dx%d, want 50x40", w, h)
	}
}

// TestEngine_RotateClockwise verifies rotation direction using an off-center
// marker pixel: a 90° clockwise turn moves the top-left corner to the
// top-right.
func TestEngine_RotateClockwise(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			src.Set(x, y, color.RGBA{A: 255})
		}
	}
	src.Set(0, 0, color.RGBA{R: 255, A: 255})

	e := NewEngine(nil)
	input := encodeTestPNG(t, src)

	result, err := e.Execute(context.Background(), input, []pipeline.Step{
		{Kind: pipeline.StepRotate, Degrees: 90},
		encodeStep("png", 0),
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(result.Data))
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}

	b := img.Bounds()
	if b.Dx() != 2 || b.Dy() != 4 {
		t.Fatalf("dimensions = %dx%d, want 2x4 after 90° turn", b.Dx(), b.Dy())
	}

	r, _, _, _ := img.At(b.Max.X-1, b.Min.Y).RGBA()
	if r>>8 < 200 {
		t.Errorf("marker not at top-right after clockwise rotation (r=%d)", r>>8)
	}
}

func TestEngine_FlipHorizontal(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			src.Set(x, y, color.RGBA{A: 255})
		}
	}
	src.Set(0, 0, color.RGBA{R: 255, A: 255})

	e := NewEngine(nil)
	input := encodeTestPNG(t, src)

	result, err := e.Execute(context.Background(), input, []pipeline.Step{
		{Kind: pipeline.StepFlip, Direction: pipeline.FlipHorizontal},
		encodeStep("png", 0),
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(result.Data))
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	r, _, _, _ := img.At(img.Bounds().Max.X-1, 0).RGBA()
	if r>>8 < 200 {
		t.Errorf("marker not mirrored to the right edge (r=%d)", r>>8)
	}
}

func TestEngine_Grayscale(t *testing.T) {
	e := NewEngine(nil)
	input := encodeTestPNG(t, createSolidImage(10, 10, color.RGBA{R: 200, G: 50, B: 50, A: 255}))

	result, err := e.Execute(context.Background(), input, []pipeline.Step{
		{Kind: pipeline.StepColorProfile, Profile: "gray"},
		encodeStep("png", 0),
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(result.Data))
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	r, g, b, _ := img.At(5, 5).RGBA()
	if r != g || g != b {
		t.Errorf("pixel = (%d,%d,%d), want equal channels after grayscale", r>>8, g>>8, b>>8)
	}
}

// TestEngine_ColorCorrect verifies the auto-level stretches a low-contrast
// image to the full range.
func TestEngine_ColorCorrect(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	src.Set(0, 0, color.RGBA{R: 100, G: 100, B: 100, A: 255})
	src.Set(1, 0, color.RGBA{R: 150, G: 150, B: 150, A: 255})

	e := NewEngine(nil)
	input := encodeTestPNG(t, src)

	result, err := e.Execute(context.Background(), input, []pipeline.Step{
		{Kind: pipeline.StepColorCorrect},
		encodeStep("png", 0),
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	img, _, err := image.Decode(bytes.NewReader(result.Data))
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}

	dark, _, _, _ := img.At(0, 0).RGBA()
	bright, _, _, _ := img.At(1, 0).RGBA()
	if dark>>8 > 10 {
		t.Errorf("darkest pixel = %d, want stretched toward 0", dark>>8)
	}
	if bright>>8 < 245 {
		t.Errorf("brightest pixel = %d, want stretched toward 255", bright>>8)
	}
}

// TestEngine_QualityAffectsSize verifies lower quality produces smaller
// JPEG output for the same image.
func TestEngine_QualityAffectsSize(t *testing.T) {
	e := NewEngine(nil)
	input := encodeTestPNG(t, createTestImage(300, 300))

	high, err := e.Execute(context.Background(), input, []pipeline.Step{encodeStep("jpeg", 95)})
	if err != nil {
		t.Fatalf("Execute(q95) error: %v", err)
	}
	low, err := e.Execute(context.Background(), input, []pipeline.Step{encodeStep("jpeg", 10)})
	if err != nil {
		t.Fatalf("Execute(q10) error: %v", err)
	}

	if len(low.Data) >= len(high.Data) {
		t.Errorf("q10 output (%d bytes) not smaller than q95 (%d bytes)", len(low.Data), len(high.Data))
	}
}

func TestEngine_Watermark(t *testing.T) {
	e := NewEngine(nil)
	input := encodeTestPNG(t, createSolidImage(200, 100, color.RGBA{R: 10, G: 10, B: 10, A: 255}))

	result, err := e.Execute(context.Background(), input, []pipeline.Step{
		{Kind: pipeline.StepWatermark, Text: "sample", Gravity: "bottom-right", FontSize: 16, Opacity: 80},
		encodeStep("png", 0),
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	// The watermark must have lightened at least one pixel of the dark field.
	img, _, err := image.Decode(bytes.NewReader(result.Data))
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	changed := false
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y && !changed; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if r, _, _, _ := img.At(x, y).RGBA(); r>>8 > 50 {
				changed = true
				break
			}
		}
	}
	if !changed {
		t.Error("watermark left no visible trace")
	}
}

// TestEngine_FullPipeline runs a representative multi-step sequence.
func TestEngine_FullPipeline(t *testing.T) {
	e := NewEngine(nil)
	input := encodeTestJPEG(t, createTestImage(800, 600))

	steps := []pipeline.Step{
		{Kind: pipeline.StepCrop, X: 0, Y: 0, Width: 600, Height: 600},
		{Kind: pipeline.StepResize, Width: 300, Height: 300},
		{Kind: pipeline.StepRotate, Degrees: 180},
		{Kind: pipeline.StepSharpen, Sigma: 1},
		{Kind: pipeline.StepBrightnessContrast, Brightness: 10, Contrast: 5},
		{Kind: pipeline.StepSaturation, Saturation: 20},
		encodeStep("png", 0),
	}

	result, err := e.Execute(context.Background(), input, steps)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if w, h := decodeDimensions(t, result.Data); w != 300 || h != 300 {
		t.Errorf("dimensions = %dx%d, want 300x300", w, h)
	}
	if result.ContentType != "image/png" {
		t.Errorf("ContentType = %q, want image/png", result.ContentType)
	}
}
