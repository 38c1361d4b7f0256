package cli

import (
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status [file-id]",
	Short: "Show the lifecycle status of a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	resp, err := apiClient.Status(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		return printer.JSON(resp)
	}

	switch resp.Status {
	case "success":
		printer.Success("%s: %s", resp.ID, resp.Status)
	case "error":
		printer.Error("%s: %s (%s)", resp.ID, resp.Status, resp.Error)
	default:
		printer.Info("%s: %s (%d%%)", resp.ID, resp.Status, resp.Progress)
	}
	return nil
}
