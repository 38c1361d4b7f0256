package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/imageforge/imageforge/internal/options"
)

var processCmd = &cobra.Command{
	Use:   "process [file-ids...]",
	Short: "Run a processing pipeline over uploaded files",
	Long: `Apply format conversion, resizing, and adjustments to files that were
already uploaded. The server processes the batch strictly one file at
a time; a failure on one file does not stop the rest.

Examples:
  forge process <id> --format webp --quality 80
  forge process <id> --width 800 --height 600 --keep-aspect
  forge process <id> <id> --compress --compress-level 60 --label "press kit"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProcess,
}

var (
	processLabel         string
	processFormat        string
	processQuality       int
	processWidth         int
	processHeight        int
	processKeepAspect    bool
	processCompress      bool
	processCompressLevel int
	processRotate        int
	processFlip          string
	processBrightness    int
	processContrast      int
	processSaturation    int
	processSharpen       float64
	processBlur          float64
	processGrayscale     bool
	processColorCorrect  bool
	processCropSpec      []int
	processWatermark     string
	processWMPosition    string
	processWMOpacity     int
)

func init() {
	f := processCmd.Flags()
	f.StringVarP(&processLabel, "label", "l", "", "Job label")
	f.StringVarP(&processFormat, "format", "f", "jpg", "Output format (jpg, png, webp)")
	f.IntVarP(&processQuality, "quality", "q", 0, "Output quality 1-100")
	f.IntVar(&processWidth, "width", 0, "Target width")
	f.IntVar(&processHeight, "height", 0, "Target height")
	f.BoolVar(&processKeepAspect, "keep-aspect", false, "Fit inside the box instead of stretching")
	f.BoolVar(&processCompress, "compress", false, "Enable compression")
	f.IntVar(&processCompressLevel, "compress-level", 0, "Compression level 0-100")
	f.IntVar(&processRotate, "rotate", 0, "Rotate clockwise in degrees")
	f.StringVar(&processFlip, "flip", "", "Flip: horizontal or vertical")
	f.IntVar(&processBrightness, "brightness", 0, "Brightness -100..100")
	f.IntVar(&processContrast, "contrast", 0, "Contrast -100..100")
	f.IntVar(&processSaturation, "saturation", 0, "Saturation -100..100")
	f.Float64Var(&processSharpen, "sharpen", 0, "Sharpen sigma")
	f.Float64Var(&processBlur, "blur", 0, "Blur sigma")
	f.BoolVar(&processGrayscale, "grayscale", false, "Convert to grayscale")
	f.BoolVar(&processColorCorrect, "color-correct", false, "Auto color correction")
	f.IntSliceVar(&processCropSpec, "crop", nil, "Crop as x,y,width,height")
	f.StringVar(&processWatermark, "watermark", "", "Watermark text")
	f.StringVar(&processWMPosition, "watermark-position", "", "Watermark position (default bottom-right)")
	f.IntVar(&processWMOpacity, "watermark-opacity", 50, "Watermark opacity 0-100")
}

func buildOptions() (options.ProcessingOptions, error) {
	opts := options.ProcessingOptions{
		Format:  processFormat,
		Quality: processQuality,
		Rotate:  processRotate,
		Flip:    processFlip,
	}

	if processWidth > 0 || processHeight > 0 {
		opts.Resize = options.ResizeOptions{
			Enabled:             true,
			Width:               processWidth,
			Height:              processHeight,
			MaintainAspectRatio: processKeepAspect,
		}
	}

	if processCompress {
		opts.Compression = options.CompressionOptions{
			Enabled: true,
			Level:   processCompressLevel,
		}
	}

	opts.Enhancement = options.EnhancementOptions{
		Brightness: processBrightness,
		Contrast:   processContrast,
		Saturation: processSaturation,
		Sharpen:    processSharpen,
		Blur:       processBlur,
	}

	if len(processCropSpec) > 0 {
		if len(processCropSpec) != 4 {
			return opts, fmt.Errorf("--crop expects x,y,width,height")
		}
		opts.Crop = options.CropOptions{
			Enabled: true,
			X:       processCropSpec[0],
			Y:       processCropSpec[1],
			Width:   processCropSpec[2],
			Height:  processCropSpec[3],
		}
	}

	if processWatermark != "" {
		opts.Watermark = options.WatermarkOptions{
			Enabled:  true,
			Text:     processWatermark,
			Position: processWMPosition,
			Opacity:  processWMOpacity,
		}
	}

	if processGrayscale {
		opts.ColorProfile = "gray"
	}
	opts.ColorCorrection = processColorCorrect

	return opts, nil
}

func runProcess(cmd *cobra.Command, args []string) error {
	opts, err := buildOptions()
	if err != nil {
		return err
	}

	req := options.ProcessRequest{
		Label:   processLabel,
		FileIDs: args,
		Options: opts,
	}

	printer.Info("processing %d file(s)", len(args))
	resp, err := apiClient.Process(cmd.Context(), req)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printer.JSON(resp)
	}

	var failed int
	for _, f := range resp.Files {
		if f.Success {
			line := fmt.Sprintf("%s → %s", f.ID, f.URL)
			if f.Ratio != "" {
				line += fmt.Sprintf(" (saved %s)", f.Ratio)
			}
			printer.Success("%s", line)
		} else {
			failed++
			printer.Error("%s: %s", f.ID, f.Error)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(resp.Files))
	}
	return nil
}
