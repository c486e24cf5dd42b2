package main

import (
	"fmt"
	"time"

	"napkeeper/internal/sim"

	"github.com/spf13/cobra"
)

var (
	runTick        time.Duration
	runMaxFromHold bool
)

var runCmd = &cobra.Command{
	Use:   "run <scenario.toml>",
	Short: "Replay a scenario and check its expectations",
	Args:  cobra.ExactArgs(1),
	RunE:  runScenario,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().DurationVar(&runTick, "tick", time.Second, "Clock step between samples")
	runCmd.Flags().BoolVar(&runMaxFromHold, "max-from-hold", false, "Start the max countdown on the first press")
}

func runScenario(cmd *cobra.Command, args []string) error {
	if runTick <= 0 {
		return fmt.Errorf("--tick must be positive, got %s", runTick)
	}

	scenario, err := sim.LoadScenario(args[0])
	if err != nil {
		return err
	}

	result, err := sim.Run(scenario, sim.Options{Tick: runTick, MaxFromHold: runMaxFromHold})
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), sim.Render(result))
	if !result.Passed() {
		return fmt.Errorf("%d expectation(s) failed", result.Failures)
	}
	return nil
}
