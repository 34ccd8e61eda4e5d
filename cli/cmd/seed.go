package cmd

import (
	"fmt"
	"math/rand"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/parley-systems/parley-stack/cli/pkg/output"
	"github.com/spf13/cobra"
)

var seedStatuses = []string{"idle", "active", "reviewing", "closed"}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the hub with fake rooms and status history",
	Long: `seed creates a batch of fake rooms through the hub API and walks each
one through a few random status transitions. Useful for populating a
development hub with realistic-looking data.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetInt("rooms")
		transitions, _ := cmd.Flags().GetInt("transitions")
		if count < 1 {
			return fmt.Errorf("--rooms must be at least 1")
		}

		c := hubClient()

		for i := 0; i < count; i++ {
			name := fmt.Sprintf("%s-%s", gofakeit.AdjectiveDescriptive(), gofakeit.NounConcrete())
			room, err := c.CreateRoom(name, gofakeit.HackerPhrase())
			if err != nil {
				return fmt.Errorf("create room %q: %w", name, err)
			}

			for j := 0; j < transitions; j++ {
				status := seedStatuses[rand.Intn(len(seedStatuses)-1)] // keep seeded rooms open
				if _, err := c.SetStatus(room.ID, status, gofakeit.Sentence(6)); err != nil {
					return fmt.Errorf("set status on room %s: %w", room.ID, err)
				}
			}

			output.Success("Seeded room %s (%s)", room.Name, room.ID)
		}

		output.Info("Created %d rooms with up to %d transitions each", count, transitions)
		return nil
	},
}

func init() {
	seedCmd.Flags().Int("rooms", 5, "number of rooms to create")
	seedCmd.Flags().Int("transitions", 3, "status transitions per room")
	rootCmd.AddCommand(seedCmd)
}
