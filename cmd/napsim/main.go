// Package main implements napsim, which replays scripted nap sessions.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "napsim",
	Short:        "Replay scripted nap sessions against the nap timer",
	SilenceUsage: true,
}
