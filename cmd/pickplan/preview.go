package main

import (
	"github.com/spf13/cobra"

	"github.com/elektrokombinacija/pickplan/internal/pipeline"
)

var previewFlags struct {
	instance string
	output   string
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Compare naive, CA and CBS routing on the same jobs",
	RunE:  runPreview,
}

func init() {
	previewCmd.Flags().StringVarP(&previewFlags.instance, "instance", "i", "", "instance file (yaml or json)")
	previewCmd.Flags().StringVarP(&previewFlags.output, "output", "o", "", "output file, stdout when empty")
	_ = previewCmd.MarkFlagRequired("instance")
	rootCmd.AddCommand(previewCmd)
}

func pipelineOptions(a *app) pipeline.Options {
	return pipeline.OptionsFrom(a.cfg.Planner)
}

func runPreview(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	inst, err := a.loadInstance(previewFlags.instance)
	if err != nil {
		return err
	}
	out, err := a.pipeline(pipelineOptions(a)).Preview(cmd.Context(), inst)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), previewFlags.output, out)
}
