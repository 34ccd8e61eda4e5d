package cmd

import (
	"fmt"
	"os"

	"github.com/parley-systems/parley-stack/cli/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	profile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Parley Stack CLI",
	Long: `parley is the command-line interface for the Parley hub.

Log in, manage rooms, set and watch room statuses over the live
channel, all from your terminal.`,
	Version: "0.1.0",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.parley/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "", "profile to use")
	rootCmd.PersistentFlags().String("output", "table", "output format: table, json")
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not load config: %v\n", err)
		cfg = config.Default()
	}
}

func outputFormat(cmd *cobra.Command) string {
	format, _ := cmd.Flags().GetString("output")
	return format
}
