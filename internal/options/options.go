// Package options holds the declarative processing options a client submits
// and their translation into an ordered pipeline of transformation steps.
package options

import (
	"encoding/json"
	"fmt"
	"io"
)

const (
	FormatJPG  = "jpg"
	FormatPNG  = "png"
	FormatWebP = "webp"
)

const DefaultQuality = 85

// Gravity anchor names accepted for watermark placement.
var GravityPoints = []string{
	"top-left", "top-center", "top-right",
	"center-left", "center", "center-right",
	"bottom-left", "bottom-center", "bottom-right",
}

type ResizeOptions struct {
	Enabled             bool `json:"enabled"`
	Width               int  `json:"width"`
	Height              int  `json:"height"`
	MaintainAspectRatio bool `json:"maintainAspectRatio"`
}

type EnhancementOptions struct {
	Brightness int     `json:"brightness"`
	Contrast   int     `json:"contrast"`
	Saturation int     `json:"saturation"`
	Sharpen    float64 `json:"sharpen,omitempty"`
	Blur       float64 `json:"blur,omitempty"`
}

type CompressionOptions struct {
	Enabled bool `json:"enabled"`
	Level   int  `json:"level"`
}

type WatermarkOptions struct {
	Enabled  bool   `json:"enabled"`
	Text     string `json:"text"`
	Position string `json:"position"`
	FontSize int    `json:"fontSize"`
	Opacity  int    `json:"opacity"`
}

type CropOptions struct {
	Enabled bool `json:"enabled"`
	X       int  `json:"x"`
	Y       int  `json:"y"`
	Width   int  `json:"width"`
	Height  int  `json:"height"`
}

// ProcessingOptions is the full declarative request. It is immutable once
// validated; Translate never mutates it.
type ProcessingOptions struct {
	Format  string `json:"format"`
	Quality int    `json:"quality"`

	Resize      ResizeOptions      `json:"resize"`
	Enhancement EnhancementOptions `json:"enhancement"`
	Compression CompressionOptions `json:"compression"`
	Watermark   WatermarkOptions   `json:"watermark"`
	Crop        CropOptions        `json:"crop"`

	Rotate int    `json:"rotate,omitempty"`
	Flip   string `json:"flip,omitempty"`

	ColorCorrection bool   `json:"colorCorrection,omitempty"`
	ColorProfile    string `json:"colorProfile,omitempty"`
}

// ProcessRequest wraps options with the business fields of the extended
// requirements workflow.
type ProcessRequest struct {
	Label   string            `json:"label"`
	FileIDs []string          `json:"fileIds"`
	Options ProcessingOptions `json:"options"`
}

// Decode parses options from JSON, rejecting unknown-shaped input rather
// than silently defaulting.
func Decode(r io.Reader) (ProcessingOptions, error) {
	var opts ProcessingOptions
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&opts); err != nil {
		return ProcessingOptions{}, fmt.Errorf("decode processing options: %w", err)
	}
	return opts, nil
}

// DecodeRequest parses a full process request with the same strictness.
func DecodeRequest(r io.Reader) (ProcessRequest, error) {
	var req ProcessRequest
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return ProcessRequest{}, fmt.Errorf("decode process request: %w", err)
	}
	return req, nil
}

// EffectiveQuality resolves the single value handed to the encoder: the
// compression level when compression is enabled, the plain quality otherwise.
func (o ProcessingOptions) EffectiveQuality() int {
	q := o.Quality
	if o.Compression.Enabled {
		q = o.Compression.Level
	}
	if q < 1 {
		q = DefaultQuality
	}
	if q > 100 {
		q = 100
	}
	return q
}
