package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	day        uint8
	rootCmd    = &cobra.Command{
		Use:   "advent-runner --day N",
		Short: "Build and test Advent of Code solutions",
		Long: `advent-runner builds the solution for one day, runs it against every
input/expectation pair in the day's test directories and stops at the first
wrong answer. Days are mapped to project roots in the registry file; each
root describes its build, clean and test steps in a run config.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runDay,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path")
	rootCmd.Flags().Uint8VarP(&day, "day", "d", 0, "day to build and test")
	_ = rootCmd.MarkFlagRequired("day")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
