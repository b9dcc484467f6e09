package main

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/faciam-dev/redisboard/internal/config"
	"github.com/faciam-dev/redisboard/internal/server"
)

// v holds the merged settings of flags, environment and config file.
var v = viper.New()

var rootCmd = &cobra.Command{
	Use:           "redisboard",
	Short:         "Web panel for inspecting Redis servers",
	Version:       server.Version,
	SilenceUsage:  true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "YAML config file")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text|json)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newOpenAPICmd())
	rootCmd.AddCommand(newTokenCmd())
}

func initConfig() {
	// a missing .env file is not an error
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	config.Defaults(v)
	v.SetEnvPrefix("REDISBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// bindFlags makes the command's flags visible through v and reads the
// config file when one was given.
func bindFlags(cmd *cobra.Command) error {
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if f := v.GetString("config"); f != "" {
		v.SetConfigFile(f)
		if err := v.ReadInConfig(); err != nil {
			return err
		}
	}
	return nil
}
