// Asistan is a Turkish voice and text assistant daemon. It keeps one
// conversation, turns recognised commands into actions that wait for the
// user's confirmation, and forwards everything else to a completion service.
//
// Usage:
//
//	asistan serve --config /path/to/asistan.yaml
//	asistan chat [--addr localhost:50051]
//	asistan version
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

var configFile string

var rootCmd = &cobra.Command{
	Use:   "asistan",
	Short: "Turkish voice and text assistant",
	Long: `asistan keeps a single conversation with the user. Typed or spoken
requests to open an app, search media or create a reminder become pending
actions that run only after the user confirms them; anything else is answered
by the configured completion service.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A .env file is optional.
		_ = godotenv.Load()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and exit",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "asistan %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to config file (e.g. configs/asistan.yaml)")
	rootCmd.AddCommand(serveCmd, chatCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
