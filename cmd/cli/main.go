package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ssaatdesigns-web/aquahealthos-demo/internal/cli/commands"
)

var rootCmd = &cobra.Command{
	Use:   "aquahealth",
	Short: "AquaHealthOS CLI - pond water-quality monitoring",
	Long: `AquaHealthOS CLI is a command-line tool for the pond monitoring API.
It lists ponds and alerts, controls the simulator and fetches forecasts.`,
}

func init() {
	_ = godotenv.Load()

	commands.RegisterGlobalFlags(rootCmd)

	rootCmd.AddCommand(commands.NewPondCommand())
	rootCmd.AddCommand(commands.NewAlertCommand())
	rootCmd.AddCommand(commands.NewSimCommand())
	rootCmd.AddCommand(commands.NewForecastCommand())
	rootCmd.AddCommand(commands.NewSimulateCommand())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
