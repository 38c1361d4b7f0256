package options

import (
	"fmt"
	"strings"
)

// Validate checks every rule independently and returns the full list of
// violations. An empty list means the options are valid. It never
// short-circuits: a request with three problems reports three messages.
func Validate(opts ProcessingOptions) []string {
	var violations []string

	switch opts.Format {
	case FormatJPG, FormatPNG, FormatWebP:
	default:
		violations = append(violations, fmt.Sprintf("format must be one of jpg, png, webp (got %q)", opts.Format))
	}

	if opts.Quality != 0 && (opts.Quality < 1 || opts.Quality > 100) {
		violations = append(violations, "quality must be between 1 and 100")
	}

	if opts.Resize.Enabled && (opts.Resize.Width <= 0 || opts.Resize.Height <= 0) {
		violations = append(violations, "resize dimensions must be greater than zero")
	}

	if opts.Compression.Enabled && (opts.Compression.Level < 0 || opts.Compression.Level > 100) {
		violations = append(violations, "compression level must be between 0 and 100")
	}

	if opts.Watermark.Enabled {
		if strings.TrimSpace(opts.Watermark.Text) == "" {
			violations = append(violations, "watermark text must not be empty")
		}
		if opts.Watermark.Opacity < 0 || opts.Watermark.Opacity > 100 {
			violations = append(violations, "watermark opacity must be between 0 and 100")
		}
		if opts.Watermark.Position != "" && !validGravity(opts.Watermark.Position) {
			violations = append(violations, fmt.Sprintf("watermark position must be one of %s", strings.Join(GravityPoints, ", ")))
		}
	}

	if opts.Crop.Enabled && (opts.Crop.X < 0 || opts.Crop.Y < 0 || opts.Crop.Width < 0 || opts.Crop.Height < 0) {
		violations = append(violations, "crop geometry must not be negative")
	}

	if opts.Flip != "" && opts.Flip != "horizontal" && opts.Flip != "vertical" && opts.Flip != "both" {
		violations = append(violations, "flip must be horizontal, vertical, or both")
	}

	violations = append(violations, validateEnhancement(opts.Enhancement)...)

	if opts.ColorProfile != "" && !validProfile(opts.ColorProfile) {
		violations = append(violations, "color profile must be srgb, gray, or grayscale")
	}

	return violations
}

// ValidateRequest applies the extended workflow rules on top of the plain
// option rules: batch requests must carry a human-readable job label.
func ValidateRequest(req ProcessRequest) []string {
	var violations []string

	if strings.TrimSpace(req.Label) == "" {
		violations = append(violations, "job label is required")
	}

	return append(violations, Validate(req.Options)...)
}

func validateEnhancement(e EnhancementOptions) []string {
	var violations []string

	if e.Brightness < -100 || e.Brightness > 100 {
		violations = append(violations, "brightness must be between -100 and 100")
	}
	if e.Contrast < -100 || e.Contrast > 100 {
		violations = append(violations, "contrast must be between -100 and 100")
	}
	if e.Saturation < -100 || e.Saturation > 100 {
		violations = append(violations, "saturation must be between -100 and 100")
	}
	if e.Sharpen < 0 {
		violations = append(violations, "sharpen must not be negative")
	}
	if e.Blur < 0 {
		violations = append(violations, "blur must not be negative")
	}

	return violations
}

func validGravity(position string) bool {
	for _, g := range GravityPoints {
		if position == g {
			return true
		}
	}
	return false
}

func validProfile(profile string) bool {
	switch strings.ToLower(profile) {
	case "srgb", "gray", "grayscale":
		return true
	}
	return false
}
