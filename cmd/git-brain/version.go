package main

import (
	"github.com/spf13/cobra"

	"github.com/FanaticPythoner/git-brain/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(_ *cobra.Command, _ []string) {
		newPrinter().Println(version.Get().String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
