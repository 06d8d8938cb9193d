package main

import (
	"github.com/spf13/cobra"
)

var planFlags struct {
	instance  string
	algorithm string
	output    string
	seed      int64
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Assign cartons to vehicles and route them",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planFlags.instance, "instance", "i", "", "instance file (yaml or json)")
	planCmd.Flags().StringVar(&planFlags.algorithm, "algorithm", "", "ca or cbs, overrides planner.algorithm")
	planCmd.Flags().StringVarP(&planFlags.output, "output", "o", "", "output file, stdout when empty")
	planCmd.Flags().Int64Var(&planFlags.seed, "seed", 0, "clustering seed, overrides planner.seed")
	_ = planCmd.MarkFlagRequired("instance")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if planFlags.algorithm != "" {
		a.cfg.Planner.Algorithm = planFlags.algorithm
	}
	if planFlags.seed != 0 {
		a.cfg.Planner.Seed = planFlags.seed
	}
	if err := a.cfg.Planner.Validate(); err != nil {
		return err
	}

	inst, err := a.loadInstance(planFlags.instance)
	if err != nil {
		return err
	}
	out, err := a.pipeline(pipelineOptions(a)).Plan(cmd.Context(), inst)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), planFlags.output, out)
}
