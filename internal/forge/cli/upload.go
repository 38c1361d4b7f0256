package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/imageforge/imageforge/internal/forge/client"
	"github.com/imageforge/imageforge/internal/forge/output"
)

var uploadCmd = &cobra.Command{
	Use:   "upload [files...]",
	Short: "Upload images to imageforge",
	Long: `Upload one or more images. Files are validated locally by the server
before any bytes land in storage; uploads run one at a time.

Examples:
  forge upload photo.jpg
  forge upload a.png b.png c.webp`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	bar := output.NewProgress(len(args), "uploading",
		output.ProgressWithQuiet(quietMode || jsonOutput),
	)

	var results []*client.UploadResponse
	var failed int

	// The server holds a single upload slot, so the client sends strictly
	// sequentially as well.
	for _, path := range args {
		res, err := apiClient.Upload(ctx, path)
		bar.Add(1)
		if err != nil {
			failed++
			printer.Error("%s: %v", path, err)
			continue
		}
		results = append(results, res)
		printer.Success("%s uploaded (id=%s)", path, res.ID)
		if res.Metadata != nil {
			printer.Printf("  %dx%d %s, %d bytes\n",
				res.Metadata.Width, res.Metadata.Height, res.Metadata.Format, res.Metadata.SizeBytes)
		}
	}
	bar.Finish()

	if jsonOutput {
		if err := printer.JSON(results); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(args))
	}
	return nil
}
