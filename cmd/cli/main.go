package main

import (
	"fmt"
	"os"

	"github.com/jkorri/gumshoe/cmd/cli/cases"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func init() {
	// A missing .env file is fine; the commands only need it for deployments
	// that configure the database location through the environment.
	_ = godotenv.Load()
	rootCmd.AddGroup(cases.Group)
	rootCmd.AddCommand(cases.Import)
	rootCmd.AddCommand(cases.List)
	rootCmd.AddCommand(cases.Show)
}

var rootCmd = &cobra.Command{
	Use:  "gumshoe-cli",
	Long: `Command line utilities for Gumshoe`,
	Run: func(cmd *cobra.Command, args []string) {
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
