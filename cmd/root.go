package cmd

import (
	"os"

	"github.com/burnwise/burnwise/internal/config"
	"github.com/spf13/cobra"
)

var flagConfig string

var rootCmd = &cobra.Command{
	Use:   "burnwise",
	Short: "Project financial analytics",
	Long:  "Track project budgets, contract amendments, time and expenses, and report burn rate health.",
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", config.DefaultPath, "Path to the YAML configuration file")
}

func loadConfig() (config.Application, error) {
	return config.Load(flagConfig)
}
