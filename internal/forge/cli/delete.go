package cli

import (
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete [file-id]",
	Short: "Delete a file and its processed output",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	if err := apiClient.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	printer.Success("deleted %s", args[0])
	return nil
}
