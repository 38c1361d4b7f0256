package pipeline

import (
	"context"
	"errors"

	"github.com/imageforge/imageforge/internal/imagemeta"
)

var (
	ErrCorruptedFile     = errors.New("pipeline: file appears corrupted")
	ErrUnsupportedFormat = errors.New("pipeline: unsupported output format")
	ErrInvalidStep       = errors.New("pipeline: invalid step")
	ErrExecutionFailed   = errors.New("pipeline: execution failed")
)

type StepKind string

const (
	StepColorProfile       StepKind = "color_profile"
	StepCrop               StepKind = "crop"
	StepResize             StepKind = "resize"
	StepRotate             StepKind = "rotate"
	StepFlip               StepKind = "flip"
	StepColorCorrect       StepKind = "color_correct"
	StepSharpen            StepKind = "sharpen"
	StepBlur               StepKind = "blur"
	StepBrightnessContrast StepKind = "brightness_contrast"
	StepSaturation         StepKind = "saturation"
	StepWatermark          StepKind = "watermark"
	StepQuality            StepKind = "quality"
	StepEncode             StepKind = "encode"
)

type FlipDirection string

const (
	FlipHorizontal FlipDirection = "horizontal"
	FlipVertical   FlipDirection = "vertical"
	FlipBoth       FlipDirection = "both"
)

// Step is a single transformation in an ordered pipeline. Kind selects the
// operation; only the fields that operation reads are meaningful.
type Step struct {
	Kind StepKind `json:"kind"`

	// color_profile
	Profile string `json:"profile,omitempty"`

	// crop
	X      int `json:"x,omitempty"`
	Y      int `json:"y,omitempty"`
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`

	// resize: Width/Height above carry the target box. Stretch forces exact
	// dimensions; otherwise the image is fitted inside the box.
	Stretch bool `json:"stretch,omitempty"`

	// rotate, positive degrees = clockwise
	Degrees int `json:"degrees,omitempty"`

	// flip
	Direction FlipDirection `json:"direction,omitempty"`

	// sharpen / blur
	Sigma float64 `json:"sigma,omitempty"`

	// brightness_contrast / saturation, percentages in [-100,100]
	Brightness int `json:"brightness,omitempty"`
	Contrast   int `json:"contrast,omitempty"`
	Saturation int `json:"saturation,omitempty"`

	// watermark
	Text     string `json:"text,omitempty"`
	Gravity  string `json:"gravity,omitempty"`
	FontSize int    `json:"fontSize,omitempty"`
	Opacity  int    `json:"opacity,omitempty"`

	// quality / encode
	Format  string `json:"format,omitempty"`
	Quality int    `json:"quality,omitempty"`
}

// Result is the outcome of executing a pipeline against image bytes.
type Result struct {
	Data        []byte
	ContentType string
	Info        imagemeta.Info
}

// Executor runs an ordered step sequence against the input bytes. Errors are
// surfaced verbatim to the caller, not interpreted.
type Executor interface {
	Execute(ctx context.Context, input []byte, steps []Step) (*Result, error)
}

type Config struct {
	TempDir      string
	Quality      int
	MaxDimension int
}

func DefaultConfig() *Config {
	return &Config{
		TempDir:      "/tmp/imageforge",
		Quality:      85,
		MaxDimension: 8192,
	}
}
