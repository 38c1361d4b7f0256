package imagemeta

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

var ErrUndecodable = errors.New("imagemeta: image could not be decoded")

// Info describes a stored image. It is captured once after upload and again
// after processing so the two can be diffed.
type Info struct {
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Format     string `json:"format"`
	ColorSpace string `json:"colorSpace"`
	HasAlpha   bool   `json:"hasAlpha"`
	Channels   int    `json:"channels"`
	SizeBytes  int64  `json:"size"`
}

// Probe inspects image bytes without a full pixel decode.
func Probe(data []byte) (Info, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}

	space, channels, alpha := classifyColorModel(cfg.ColorModel)

	return Info{
		Width:      cfg.Width,
		Height:     cfg.Height,
		Format:     format,
		ColorSpace: space,
		HasAlpha:   alpha,
		Channels:   channels,
		SizeBytes:  int64(len(data)),
	}, nil
}

func classifyColorModel(m color.Model) (space string, channels int, alpha bool) {
	switch m {
	case color.GrayModel, color.Gray16Model:
		return "gray", 1, false
	case color.RGBAModel, color.RGBA64Model, color.NRGBAModel, color.NRGBA64Model:
		return "srgb", 4, true
	case color.YCbCrModel:
		return "srgb", 3, false
	case color.CMYKModel:
		return "cmyk", 4, false
	case color.AlphaModel, color.Alpha16Model:
		return "gray", 1, true
	}

	// Paletted and exotic models: inspect a converted sample.
	if _, ok := m.(color.Palette); ok {
		return "srgb", 3, true
	}
	return "srgb", 3, false
}

// CompressionRatio reports the size reduction as a percentage string with two
// decimals, e.g. "25.00%". A processed file larger than the original yields a
// negative percentage; a rounding artifact of "-0.00%" is clamped to "0.00%".
func CompressionRatio(originalBytes, processedBytes int64) string {
	if originalBytes <= 0 {
		return "0.00%"
	}

	ratio := float64(originalBytes-processedBytes) / float64(originalBytes) * 100
	s := fmt.Sprintf("%.2f%%", ratio)
	if s == "-0.00%" {
		return "0.00%"
	}
	return s
}
