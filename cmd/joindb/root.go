package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"joindb/pkg/logging"
)

var rootCmd = &cobra.Command{
	Use:   "joindb",
	Short: "An embeddable join executor with cost-based planning",
	Long: "joindb runs cost-planned joins over in-memory tables:\n" +
		"filters are linked into a join tree, the optimizer picks the\n" +
		"cheapest order and index per table, and rows stream out one\n" +
		"at a time.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logging.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("log-path", "", "log file path (stderr when empty)")

	viper.SetEnvPrefix("JOINDB")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	for _, key := range []string{"log-level", "log-format", "log-path"} {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(key)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(demoCmd)
}

func setupLogging() error {
	level, err := logging.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	return logging.Init(logging.Config{
		Level:      level,
		Format:     viper.GetString("log-format"),
		OutputPath: viper.GetString("log-path"),
	})
}
