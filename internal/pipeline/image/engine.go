package image

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	"image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/imageforge/imageforge/internal/imagemeta"
	"github.com/imageforge/imageforge/internal/pipeline"
)

var _ pipeline.Executor = (*Engine)(nil)

// Engine executes ordered transformation steps with in-process library calls.
// Steps are structured parameters end to end; nothing here builds a command
// string from user input.
type Engine struct {
	config *pipeline.Config
}

func NewEngine(cfg *pipeline.Config) *Engine {
	if cfg == nil {
		cfg = pipeline.DefaultConfig()
	}
	return &Engine{config: cfg}
}

func (e *Engine) Execute(ctx context.Context, input []byte, steps []pipeline.Step) (*pipeline.Result, error) {
	img, srcFormat, err := image.Decode(bytes.NewReader(input))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pipeline.ErrCorruptedFile, err)
	}

	out := imaging.Clone(img)
	encodeFormat := srcFormat
	quality := e.config.Quality

	for _, step := range steps {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		switch step.Kind {
		case pipeline.StepColorProfile:
			out = e.applyProfile(out, step.Profile)

		case pipeline.StepCrop:
			rect := image.Rect(step.X, step.Y, step.X+step.Width, step.Y+step.Height)
			out = imaging.Crop(out, rect)

		case pipeline.StepResize:
			if step.Stretch {
				out = imaging.Resize(out, step.Width, step.Height, imaging.Lanczos)
			} else {
				out = imaging.Fit(out, step.Width, step.Height, imaging.Lanczos)
			}

		case pipeline.StepRotate:
			out = rotate(out, step.Degrees)

		case pipeline.StepFlip:
			out = flip(out, step.Direction)

		case pipeline.StepColorCorrect:
			out = stretchHistogram(out)

		case pipeline.StepSharpen:
			out = imaging.Sharpen(out, step.Sigma)

		case pipeline.StepBlur:
			out = imaging.Blur(out, step.Sigma)

		case pipeline.StepBrightnessContrast:
			if step.Brightness != 0 {
				out = imaging.AdjustBrightness(out, float64(step.Brightness))
			}
			if step.Contrast != 0 {
				out = imaging.AdjustContrast(out, float64(step.Contrast))
			}

		case pipeline.StepSaturation:
			out = imaging.AdjustSaturation(out, float64(step.Saturation))

		case pipeline.StepWatermark:
			out, err = drawWatermark(out, step)
			if err != nil {
				return nil, fmt.Errorf("%w: watermark: %v", pipeline.ErrExecutionFailed, err)
			}

		case pipeline.StepQuality:
			quality = step.Quality

		case pipeline.StepEncode:
			encodeFormat = step.Format
			if step.Quality > 0 {
				quality = step.Quality
			}

		default:
			return nil, fmt.Errorf("%w: unknown kind %q", pipeline.ErrInvalidStep, step.Kind)
		}
	}

	data, contentType, err := e.encode(ctx, out, encodeFormat, quality)
	if err != nil {
		return nil, err
	}

	info, err := imagemeta.Probe(data)
	if err != nil {
		return nil, fmt.Errorf("%w: probing result: %v", pipeline.ErrExecutionFailed, err)
	}

	return &pipeline.Result{
		Data:        data,
		ContentType: contentType,
		Info:        info,
	}, nil
}

func (e *Engine) applyProfile(img *image.NRGBA, profile string) *image.NRGBA {
	switch profile {
	case "gray", "grayscale":
		return imaging.Grayscale(img)
	default:
		return img
	}
}

func (e *Engine) encode(ctx context.Context, img *image.NRGBA, format string, quality int) ([]byte, string, error) {
	if quality < 1 || quality > 100 {
		quality = e.config.Quality
	}

	var buf bytes.Buffer
	switch format {
	case "jpeg", "jpg":
		if err := jpeg.Encode(&buf, flatten(img), &jpeg.Options{Quality: quality}); err != nil {
			return nil, "", fmt.Errorf("encode jpeg: %w", err)
		}
		return buf.Bytes(), "image/jpeg", nil

	case "png":
		encoder := png.Encoder{CompressionLevel: png.DefaultCompression}
		if err := encoder.Encode(&buf, img); err != nil {
			return nil, "", fmt.Errorf("encode png: %w", err)
		}
		return buf.Bytes(), "image/png", nil

	case "webp":
		data, err := e.encodeWebP(ctx, img, quality)
		if err != nil {
			return nil, "", err
		}
		return data, "image/webp", nil

	default:
		return nil, "", fmt.Errorf("%w: %q", pipeline.ErrUnsupportedFormat, format)
	}
}

// rotate turns the image clockwise by the given degrees. Right angles use
// exact transforms; anything else resamples against a transparent backdrop.
func rotate(img *image.NRGBA, degrees int) *image.NRGBA {
	switch degrees {
	case 90:
		return imaging.Rotate270(img)
	case 180:
		return imaging.Rotate180(img)
	case 270:
		return imaging.Rotate90(img)
	default:
		// imaging rotates counter-clockwise.
		return imaging.Rotate(img, float64(360-degrees), color.NRGBA{})
	}
}

func flip(img *image.NRGBA, dir pipeline.FlipDirection) *image.NRGBA {
	switch dir {
	case pipeline.FlipHorizontal:
		return imaging.FlipH(img)
	case pipeline.FlipVertical:
		return imaging.FlipV(img)
	case pipeline.FlipBoth:
		return imaging.FlipV(imaging.FlipH(img))
	default:
		return img
	}
}

// stretchHistogram applies a global auto-level: the darkest and brightest
// values found anywhere in the image are stretched to the full range. One
// scale for all channels, so it is not a per-channel white balance.
func stretchHistogram(img *image.NRGBA) *image.NRGBA {
	bounds := img.Bounds()
	lo, hi := uint8(255), uint8(0)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		row := img.Pix[(y-bounds.Min.Y)*img.Stride : (y-bounds.Min.Y)*img.Stride+bounds.Dx()*4]
		for x := 0; x < len(row); x += 4 {
			for c := 0; c < 3; c++ {
				v := row[x+c]
				if v < lo {
					lo = v
				}
				if v > hi {
					hi = v
				}
			}
		}
	}

	if lo == 0 && hi == 255 || lo >= hi {
		return img
	}

	scale := 255.0 / float64(hi-lo)
	out := imaging.Clone(img)
	for i := 0; i < len(out.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			v := float64(out.Pix[i+c])
			v = (v - float64(lo)) * scale
			if v < 0 {
				v = 0
			}
			if v > 255 {
				v = 255
			}
			out.Pix[i+c] = uint8(v + 0.5)
		}
	}
	return out
}

// flatten composites the image over black so alpha does not surprise the
// JPEG encoder.
func flatten(img *image.NRGBA) image.Image {
	bg := imaging.New(img.Bounds().Dx(), img.Bounds().Dy(), color.NRGBA{0, 0, 0, 255})
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}
