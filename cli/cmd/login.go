package cmd

import (
	"fmt"
	"syscall"

	"github.com/parley-systems/parley-stack/cli/internal/client"
	"github.com/parley-systems/parley-stack/cli/pkg/output"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Authenticate against the hub and store the access token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := args[0]
		hubURL, _ := cmd.Flags().GetString("url")
		if hubURL == "" {
			hubURL = cfg.HubURL(profile)
		}

		fmt.Print("Password: ")
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}

		c := client.NewHubClient(hubURL, "")
		resp, err := c.Login(username, string(password))
		if err != nil {
			output.Error("Login failed: %v", err)
			return err
		}

		profileName := profile
		if profileName == "" {
			profileName = "default"
		}
		if err := cfg.SaveProfile(profileName, hubURL, resp.AccessToken); err != nil {
			return fmt.Errorf("failed to save profile: %w", err)
		}

		output.Success("Logged in as %s (profile %q, token valid %ds)", username, profileName, resp.ExpiresIn)
		return nil
	},
}

func init() {
	loginCmd.Flags().String("url", "", "hub base URL (default from profile)")
	rootCmd.AddCommand(loginCmd)
}
