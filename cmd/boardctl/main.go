package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "boardctl",
	Short:         "Command line client for the redisboard API",
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().String("api-url", "", "redisboard API base URL")
	rootCmd.PersistentFlags().String("token", "", "Bearer token for the API")
	rootCmd.PersistentFlags().String("profile", "", "Profile name in config (overrides active)")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "Output format (table|json)")

	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newServersCmd())
	rootCmd.AddCommand(newInspectCmd())
	rootCmd.AddCommand(newAuditCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
