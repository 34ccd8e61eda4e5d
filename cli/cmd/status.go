package cmd

import (
	"github.com/parley-systems/parley-stack/cli/pkg/output"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Manage room statuses",
}

var statusSetCmd = &cobra.Command{
	Use:   "set <room-id> <status>",
	Short: "Set a room's status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		note, _ := cmd.Flags().GetString("note")

		c := hubClient()
		update, err := c.SetStatus(args[0], args[1], note)
		if err != nil {
			output.Error("Failed to set status: %v", err)
			return err
		}

		output.Success("Room %s is now %q", update.RoomID, update.Status)
		return nil
	},
}

func init() {
	statusSetCmd.Flags().String("note", "", "note attached to the transition")

	statusCmd.AddCommand(statusSetCmd)
	rootCmd.AddCommand(statusCmd)
}
