package image

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/imageforge/imageforge/internal/pipeline"
)

// encodeWebP shells out to cwebp because the Go ecosystem decodes WebP but
// does not encode it. Arguments are passed as a structured argv, never
// concatenated into a shell string.
func (e *Engine) encodeWebP(ctx context.Context, img *image.NRGBA, quality int) ([]byte, error) {
	if _, err := exec.LookPath("cwebp"); err != nil {
		return nil, fmt.Errorf("%w: webp (cwebp binary not found)", pipeline.ErrUnsupportedFormat)
	}

	tempDir := e.config.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}

	inputFile, err := os.CreateTemp(tempDir, "webp-input-*.png")
	if err != nil {
		return nil, fmt.Errorf("create input temp file: %w", err)
	}
	inputPath := inputFile.Name()
	defer func() { _ = os.Remove(inputPath) }()

	if err := png.Encode(inputFile, img); err != nil {
		_ = inputFile.Close()
		return nil, fmt.Errorf("write webp input: %w", err)
	}
	_ = inputFile.Close()

	outputPath := filepath.Join(tempDir, filepath.Base(inputPath)+".webp")
	defer func() { _ = os.Remove(outputPath) }()

	args := []string{
		"-q", strconv.Itoa(quality),
		inputPath,
		"-o", outputPath,
	}

	cmd := exec.CommandContext(ctx, "cwebp", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: cwebp: %v, stderr: %s", pipeline.ErrExecutionFailed, err, stderr.String())
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, fmt.Errorf("read webp output: %w", err)
	}

	return data, nil
}
