package cmd

import (
	"github.com/parley-systems/parley-stack/cli/internal/client"
	"github.com/parley-systems/parley-stack/cli/pkg/output"
	"github.com/spf13/cobra"
)

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "Manage rooms",
}

var roomsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rooms",
	RunE: func(cmd *cobra.Command, args []string) error {
		includeArchived, _ := cmd.Flags().GetBool("archived")

		c := hubClient()
		rooms, err := c.ListRooms(includeArchived)
		if err != nil {
			output.Error("Failed to list rooms: %v", err)
			return err
		}

		if outputFormat(cmd) == "json" {
			return output.JSON(rooms)
		}

		table := output.NewTable("ID", "NAME", "STATUS", "TOPIC", "UPDATED")
		for _, room := range rooms {
			table.AddRow(room.ID, room.Name, room.Status, room.Topic,
				room.UpdatedAt.Format("2006-01-02 15:04:05"))
		}
		table.Render()
		return nil
	},
}

var roomsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a room",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topic, _ := cmd.Flags().GetString("topic")

		c := hubClient()
		room, err := c.CreateRoom(args[0], topic)
		if err != nil {
			output.Error("Failed to create room: %v", err)
			return err
		}

		output.Success("Created room %s (%s)", room.Name, room.ID)
		return nil
	},
}

var roomsArchiveCmd = &cobra.Command{
	Use:   "archive <room-id>",
	Short: "Archive a room",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := hubClient()
		if err := c.ArchiveRoom(args[0]); err != nil {
			output.Error("Failed to archive room: %v", err)
			return err
		}

		output.Success("Archived room %s", args[0])
		return nil
	},
}

var roomsHistoryCmd = &cobra.Command{
	Use:   "history <room-id>",
	Short: "Show a room's recent status transitions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		c := hubClient()
		updates, err := c.StatusHistory(args[0], limit)
		if err != nil {
			output.Error("Failed to get history: %v", err)
			return err
		}

		if outputFormat(cmd) == "json" {
			return output.JSON(updates)
		}

		table := output.NewTable("TIME", "STATUS", "ACTOR", "NOTE")
		for _, u := range updates {
			table.AddRow(u.CreatedAt.Format("2006-01-02 15:04:05"), u.Status, u.Actor, u.Note)
		}
		table.Render()
		return nil
	},
}

func hubClient() *client.HubClient {
	return client.NewHubClient(cfg.HubURL(profile), cfg.AccessToken(profile))
}

func init() {
	roomsListCmd.Flags().Bool("archived", false, "include archived rooms")
	roomsCreateCmd.Flags().String("topic", "", "room topic")
	roomsHistoryCmd.Flags().Int("limit", 20, "maximum transitions to show")

	roomsCmd.AddCommand(roomsListCmd, roomsCreateCmd, roomsArchiveCmd, roomsHistoryCmd)
	rootCmd.AddCommand(roomsCmd)
}
