package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const exampleScenario = `name = "twenty minute nap"
until = "22m"

[config]
hold_release = "10s"
nap = "20m"
max = "30m"
max_from_hold = false

[[step]]
at = "0s"
event = "press"

[[step]]
at = "45s"
event = "release"

[[expect]]
at = "21m"
phase = "alarming"
reason = "nap_complete"

[[step]]
at = "21m30s"
event = "dismiss"
`

var exampleCmd = &cobra.Command{
	Use:   "example",
	Short: "Print an example scenario file",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), exampleScenario)
	},
}

func init() {
	rootCmd.AddCommand(exampleCmd)
}
