package main

import (
	"context"

	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what a run would change without applying anything",
	Long: `Plan checks every provisioning step against the machine's current
state and prints what 'up' would do. Nothing is modified.`,
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
}

func runPlan(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	rig, err := newRigstrap()
	if err != nil {
		printError(err)
		return err
	}

	rig.PrintPlan(rig.Plan(ctx))
	return nil
}
