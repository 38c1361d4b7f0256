package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download [key]",
	Short: "Download a stored file by key",
	Long: `Fetch the stored bytes for an original or processed file.

Examples:
  forge download 1724-ab12cd34.jpg -o photo.jpg
  forge download 1724-ab12cd34-processed.webp`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

var downloadOutput string

func init() {
	downloadCmd.Flags().StringVarP(&downloadOutput, "output", "o", "", "Output path (default: the key itself)")
}

func runDownload(cmd *cobra.Command, args []string) error {
	key := args[0]

	dest := downloadOutput
	if dest == "" {
		dest = key
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer func() { _ = out.Close() }()

	n, err := apiClient.Download(cmd.Context(), key, out)
	if err != nil {
		_ = os.Remove(dest)
		return err
	}

	printer.Success("wrote %s (%d bytes)", dest, n)
	return nil
}
