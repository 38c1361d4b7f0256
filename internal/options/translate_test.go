package options

import (
	"reflect"
	"testing"

	"github.com/imageforge/imageforge/internal/imagemeta"
	"github.com/imageforge/imageforge/internal/pipeline"
)

func srcInfo(w, h int) imagemeta.Info {
	return imagemeta.Info{Width: w, Height: h, Format: "jpeg"}
}

func stepKinds(steps []pipeline.Step) []pipeline.StepKind {
	kinds := make([]pipeline.StepKind, 0, len(steps))
	for _, s := range steps {
		kinds = append(kinds, s.Kind)
	}
	return kinds
}

// TestTranslate_Deterministic verifies that translating the same options
// twice yields structurally identical step lists.
func TestTranslate_Deterministic(t *testing.T) {
	opts := ProcessingOptions{
		Format:  "webp",
		Quality: 70,
		Resize:  ResizeOptions{Enabled: true, Width: 800, Height: 600, MaintainAspectRatio: true},
		Enhancement: EnhancementOptions{
			Brightness: 10,
			Contrast:   -5,
			Saturation: 20,
			Sharpen:    1.5,
		},
		Watermark: WatermarkOptions{Enabled: true, Text: "sample", Opacity: 40},
		Rotate:    90,
	}
	src := srcInfo(1600, 1200)

	first := Translate(opts, src)
	second := Translate(opts, src)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Translate() not deterministic:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

// TestTranslate_DefaultOptions verifies that fully defaulted options produce
// only the final encode step.
func TestTranslate_DefaultOptions(t *testing.T) {
	opts := ProcessingOptions{Format: "jpg"}

	steps := Translate(opts, srcInfo(640, 480))

	if len(steps) != 1 {
		t.Fatalf("Translate() = %d steps, want 1 (encode only): %v", len(steps), stepKinds(steps))
	}
	if steps[0].Kind != pipeline.StepEncode {
		t.Errorf("steps[0].Kind = %q, want %q", steps[0].Kind, pipeline.StepEncode)
	}
	if steps[0].Format != "jpeg" {
		t.Errorf("encode format = %q, want %q", steps[0].Format, "jpeg")
	}
	if steps[0].Quality != DefaultQuality {
		t.Errorf("encode quality = %d, want %d", steps[0].Quality, DefaultQuality)
	}
}

func TestTranslate_StepOrder(t *testing.T) {
	opts := ProcessingOptions{
		Format:       "png",
		ColorProfile: "gray",
		Crop:         CropOptions{Enabled: true, X: 10, Y: 10, Width: 500, Height: 500},
		Resize:       ResizeOptions{Enabled: true, Width: 300, Height: 300, MaintainAspectRatio: true},
		Rotate:       180,
		Flip:         "horizontal",
		Enhancement: EnhancementOptions{
			Sharpen:    1,
			Blur:       0.5,
			Brightness: 10,
			Saturation: -20,
		},
		ColorCorrection: true,
		Watermark:       WatermarkOptions{Enabled: true, Text: "wm", Opacity: 60},
	}

	steps := Translate(opts, srcInfo(1000, 1000))

	want := []pipeline.StepKind{
		pipeline.StepColorProfile,
		pipeline.StepCrop,
		pipeline.StepResize,
		pipeline.StepRotate,
		pipeline.StepFlip,
		pipeline.StepColorCorrect,
		pipeline.StepSharpen,
		pipeline.StepBlur,
		pipeline.StepBrightnessContrast,
		pipeline.StepSaturation,
		pipeline.StepWatermark,
		pipeline.StepEncode,
	}

	got := stepKinds(steps)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("step order = %v, want %v", got, want)
	}
}

// TestTranslate_EffectiveQuality verifies that an enabled compression level
// overrides the plain quality setting.
func TestTranslate_EffectiveQuality(t *testing.T) {
	tests := []struct {
		name        string
		quality     int
		compression CompressionOptions
		want        int
	}{
		{
			name:        "compression level wins over quality",
			quality:     90,
			compression: CompressionOptions{Enabled: true, Level: 42},
			want:        42,
		},
		{
			name:    "plain quality when compression disabled",
			quality: 90,
			want:    90,
		},
		{
			name: "default quality when nothing set",
			want: DefaultQuality,
		},
		{
			name:        "zero level falls back to default",
			quality:     90,
			compression: CompressionOptions{Enabled: true, Level: 0},
			want:        DefaultQuality,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := ProcessingOptions{
				Format:      "jpg",
				Quality:     tt.quality,
				Compression: tt.compression,
			}

			steps := Translate(opts, srcInfo(100, 100))
			encode := steps[len(steps)-1]
			if encode.Kind != pipeline.StepEncode {
				t.Fatalf("last step = %q, want encode", encode.Kind)
			}
			if encode.Quality != tt.want {
				t.Errorf("encode quality = %d, want %d", encode.Quality, tt.want)
			}
		})
	}
}

func TestTranslate_ResizeFit(t *testing.T) {
	tests := []struct {
		name       string
		src        imagemeta.Info
		resize     ResizeOptions
		wantStep   bool
		wantWidth  int
		wantHeight int
		wantStretch bool
	}{
		{
			name:       "landscape shrinks to fit box",
			src:        srcInfo(2000, 1000),
			resize:     ResizeOptions{Enabled: true, Width: 400, Height: 300, MaintainAspectRatio: true},
			wantStep:   true,
			wantWidth:  400,
			wantHeight: 200,
		},
		{
			name:     "box larger than image never upscales",
			src:      srcInfo(400, 300),
			resize:   ResizeOptions{Enabled: true, Width: 2000, Height: 2000, MaintainAspectRatio: true},
			wantStep: false,
		},
		{
			name:        "exact stretch without aspect ratio",
			src:         srcInfo(800, 600),
			resize:      ResizeOptions{Enabled: true, Width: 100, Height: 100},
			wantStep:    true,
			wantWidth:   100,
			wantHeight:  100,
			wantStretch: true,
		},
		{
			name:     "stretch to current size is a no-op",
			src:      srcInfo(800, 600),
			resize:   ResizeOptions{Enabled: true, Width: 800, Height: 600},
			wantStep: false,
		},
		{
			name:     "zero dimension disables the step",
			src:      srcInfo(800, 600),
			resize:   ResizeOptions{Enabled: true, Width: 0, Height: 300},
			wantStep: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps := Translate(ProcessingOptions{Format: "jpg", Resize: tt.resize}, tt.src)

			var resize *pipeline.Step
			for i := range steps {
				if steps[i].Kind == pipeline.StepResize {
					resize = &steps[i]
				}
			}

			if !tt.wantStep {
				if resize != nil {
					t.Fatalf("unexpected resize step: %+v", *resize)
				}
				return
			}
			if resize == nil {
				t.Fatalf("missing resize step, got %v", stepKinds(steps))
			}
			if resize.Width != tt.wantWidth || resize.Height != tt.wantHeight {
				t.Errorf("resize target = %dx%d, want %dx%d", resize.Width, resize.Height, tt.wantWidth, tt.wantHeight)
			}
			if resize.Stretch != tt.wantStretch {
				t.Errorf("resize stretch = %v, want %v", resize.Stretch, tt.wantStretch)
			}
		})
	}
}

func TestTranslate_CropClamping(t *testing.T) {
	tests := []struct {
		name     string
		crop     CropOptions
		wantStep bool
		want     pipeline.Step
	}{
		{
			name:     "rectangle clamped to image bounds",
			crop:     CropOptions{Enabled: true, X: 500, Y: 500, Width: 1000, Height: 1000},
			wantStep: true,
			want:     pipeline.Step{Kind: pipeline.StepCrop, X: 500, Y: 500, Width: 300, Height: 100},
		},
		{
			name: "origin outside the image drops the step",
			crop: CropOptions{Enabled: true, X: 900, Y: 0, Width: 100, Height: 100},
		},
		{
			name: "full-image rectangle drops the step",
			crop: CropOptions{Enabled: true, X: 0, Y: 0, Width: 800, Height: 600},
		},
		{
			name: "zero area drops the step",
			crop: CropOptions{Enabled: true, X: 10, Y: 10, Width: 0, Height: 50},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps := Translate(ProcessingOptions{Format: "jpg", Crop: tt.crop}, srcInfo(800, 600))

			var crop *pipeline.Step
			for i := range steps {
				if steps[i].Kind == pipeline.StepCrop {
					crop = &steps[i]
				}
			}

			if !tt.wantStep {
				if crop != nil {
					t.Fatalf("unexpected crop step: %+v", *crop)
				}
				return
			}
			if crop == nil {
				t.Fatal("missing crop step")
			}
			if *crop != tt.want {
				t.Errorf("crop step = %+v, want %+v", *crop, tt.want)
			}
		})
	}
}

// TestTranslate_CropThenResize verifies the resize step sees the cropped
// extent, and that a crop forces fit semantics even without the aspect flag.
func TestTranslate_CropThenResize(t *testing.T) {
	opts := ProcessingOptions{
		Format: "jpg",
		Crop:   CropOptions{Enabled: true, X: 0, Y: 0, Width: 600, Height: 400},
		Resize: ResizeOptions{Enabled: true, Width: 300, Height: 300},
	}

	steps := Translate(opts, srcInfo(800, 600))

	var resize *pipeline.Step
	for i := range steps {
		if steps[i].Kind == pipeline.StepResize {
			resize = &steps[i]
		}
	}
	if resize == nil {
		t.Fatalf("missing resize step, got %v", stepKinds(steps))
	}
	if resize.Stretch {
		t.Error("resize after crop should fit, not stretch")
	}
	// 600x400 into a 300x300 box scales by 0.5.
	if resize.Width != 300 || resize.Height != 200 {
		t.Errorf("resize target = %dx%d, want 300x200", resize.Width, resize.Height)
	}
}

func TestTranslate_RotationNormalized(t *testing.T) {
	tests := []struct {
		degrees  int
		wantStep bool
		want     int
	}{
		{degrees: 90, wantStep: true, want: 90},
		{degrees: 450, wantStep: true, want: 90},
		{degrees: -90, wantStep: true, want: 270},
		{degrees: 360, wantStep: false},
		{degrees: 0, wantStep: false},
	}

	for _, tt := range tests {
		steps := Translate(ProcessingOptions{Format: "jpg", Rotate: tt.degrees}, srcInfo(100, 100))

		var rotate *pipeline.Step
		for i := range steps {
			if steps[i].Kind == pipeline.StepRotate {
				rotate = &steps[i]
			}
		}

		if !tt.wantStep {
			if rotate != nil {
				t.Errorf("Rotate=%d: unexpected rotate step %+v", tt.degrees, *rotate)
			}
			continue
		}
		if rotate == nil {
			t.Errorf("Rotate=%d: missing rotate step", tt.degrees)
			continue
		}
		if rotate.Degrees != tt.want {
			t.Errorf("Rotate=%d: degrees = %d, want %d", tt.degrees, rotate.Degrees, tt.want)
		}
	}
}

func TestTranslate_WatermarkDefaults(t *testing.T) {
	opts := ProcessingOptions{
		Format:    "jpg",
		Watermark: WatermarkOptions{Enabled: true, Text: "  hello  ", Opacity: 50},
	}

	steps := Translate(opts, srcInfo(100, 100))

	var wm *pipeline.Step
	for i := range steps {
		if steps[i].Kind == pipeline.StepWatermark {
			wm = &steps[i]
		}
	}
	if wm == nil {
		t.Fatal("missing watermark step")
	}
	if wm.Text != "hello" {
		t.Errorf("watermark text = %q, want %q", wm.Text, "hello")
	}
	if wm.Gravity != "bottom-right" {
		t.Errorf("watermark gravity = %q, want bottom-right", wm.Gravity)
	}
	if wm.FontSize != 24 {
		t.Errorf("watermark font size = %d, want 24", wm.FontSize)
	}
}

func TestTranslate_WatermarkOmitted(t *testing.T) {
	tests := []struct {
		name string
		wm   WatermarkOptions
	}{
		{name: "disabled", wm: WatermarkOptions{Text: "x", Opacity: 50}},
		{name: "blank text", wm: WatermarkOptions{Enabled: true, Text: "   ", Opacity: 50}},
		{name: "zero opacity", wm: WatermarkOptions{Enabled: true, Text: "x", Opacity: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps := Translate(ProcessingOptions{Format: "jpg", Watermark: tt.wm}, srcInfo(100, 100))
			for _, s := range steps {
				if s.Kind == pipeline.StepWatermark {
					t.Errorf("unexpected watermark step: %+v", s)
				}
			}
		})
	}
}

func TestTranslate_ColorProfile(t *testing.T) {
	tests := []struct {
		profile  string
		wantStep bool
	}{
		{profile: "gray", wantStep: true},
		{profile: "grayscale", wantStep: true},
		{profile: "srgb", wantStep: false},
		{profile: "", wantStep: false},
	}

	for _, tt := range tests {
		steps := Translate(ProcessingOptions{Format: "jpg", ColorProfile: tt.profile}, srcInfo(100, 100))

		found := false
		for _, s := range steps {
			if s.Kind == pipeline.StepColorProfile {
				found = true
				if s.Profile != "gray" {
					t.Errorf("profile %q: step profile = %q, want gray", tt.profile, s.Profile)
				}
			}
		}
		if found != tt.wantStep {
			t.Errorf("profile %q: step present = %v, want %v", tt.profile, found, tt.wantStep)
		}
	}
}
