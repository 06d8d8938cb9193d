package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/elektrokombinacija/pickplan/internal/instance"
)

var genFlags struct {
	params  instance.Params
	output  string
	format  string
	scaling bool
}

var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate synthetic warehouse instances",
	RunE:  runGen,
}

func init() {
	f := genCmd.Flags()
	f.Int64Var(&genFlags.params.Seed, "seed", 42, "random seed for deterministic generation")
	f.IntVar(&genFlags.params.Vehicles, "vehicles", 4, "number of vehicles")
	f.IntVar(&genFlags.params.Items, "items", 12, "number of cartons")
	f.IntVar(&genFlags.params.Width, "width", 13, "grid width")
	f.IntVar(&genFlags.params.Height, "height", 10, "grid height")
	f.StringVarP(&genFlags.output, "output", "o", "testdata", "output directory")
	f.StringVar(&genFlags.format, "format", "yaml", "yaml or json")
	f.BoolVar(&genFlags.scaling, "scaling", false, "generate the scaling suite instead of one instance")
	rootCmd.AddCommand(genCmd)
}

func runGen(cmd *cobra.Command, args []string) error {
	ext := ".yaml"
	switch genFlags.format {
	case "yaml":
	case "json":
		ext = ".json"
	default:
		return fmt.Errorf("unknown format %q", genFlags.format)
	}
	if err := os.MkdirAll(genFlags.output, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	var files []*instance.File
	if genFlags.scaling {
		suite, err := instance.GenerateSuite(genFlags.params.Seed)
		if err != nil {
			return err
		}
		files = suite
	} else {
		f, err := instance.Generate(genFlags.params)
		if err != nil {
			return err
		}
		files = append(files, f)
	}

	for _, f := range files {
		path := filepath.Join(genFlags.output, f.Name+ext)
		if err := instance.Save(path, f); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Generated: %s (%d vehicles, %d items, %dx%d grid)\n",
			path, len(f.Vehicles), len(f.Items), f.Params.Width, f.Params.Height)
	}
	return nil
}
