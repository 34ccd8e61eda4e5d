package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/parley-systems/parley-stack/cli/pkg/output"
	"github.com/parley-systems/parley-stack/hub/pkg/statusclient"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch <room-id>",
	Short: "Watch a room's status over the live channel",
	Long: `watch subscribes to a room's live channel and prints every status
transition as it happens. The connection is retried with backoff if it
drops. Interrupt with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		roomID := args[0]

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		watcher, err := statusclient.Watch(ctx, statusclient.Config{
			BaseURL: cfg.HubURL(profile),
			Token:   cfg.AccessToken(profile),
		}, roomID)
		if err != nil {
			return err
		}
		defer watcher.Close()

		output.Info("Watching room %s (Ctrl-C to stop)", roomID)

		for update := range watcher.Updates() {
			if update.Note != "" {
				output.Info("%s  %-12s %s (%s)", update.TS.Format("15:04:05"), update.Status, update.Actor, update.Note)
			} else {
				output.Info("%s  %-12s %s", update.TS.Format("15:04:05"), update.Status, update.Actor)
			}
		}

		if err := watcher.Err(); err != nil && ctx.Err() == nil {
			output.Error("Live channel failed: %v", err)
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
