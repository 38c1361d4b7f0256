package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/imageforge/imageforge/internal/forge/client"
	"github.com/imageforge/imageforge/internal/forge/output"
)

var (
	apiURL     string
	jsonOutput bool
	quietMode  bool
	apiClient  *client.Client
	printer    *output.Printer
)

var rootCmd = &cobra.Command{
	Use:   "forge",
	Short: "imageforge CLI - upload and process images from the terminal",
	Long: `forge is the command-line interface for imageforge.

Upload images, run processing pipelines, and fetch results without
leaving the terminal.

Get started:
  forge upload photo.jpg                 # Upload a file
  forge process <id> --format webp       # Convert it
  forge status <id>                      # Check where it stands`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		printer = output.New(
			output.WithJSON(jsonOutput),
			output.WithQuiet(quietMode),
		)
		apiClient = client.New(apiURL)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	defaultURL := os.Getenv("FORGE_API_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8080"
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", defaultURL, "Base URL of the imageforge API")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON (for scripting)")
	rootCmd.PersistentFlags().BoolVar(&quietMode, "quiet", false, "Suppress non-error output")

	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(deleteCmd)
}
