package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/elektrokombinacija/pickplan/internal/config"
	"github.com/elektrokombinacija/pickplan/internal/core"
	"github.com/elektrokombinacija/pickplan/internal/instance"
	"github.com/elektrokombinacija/pickplan/internal/logger"
	"github.com/elektrokombinacija/pickplan/internal/pipeline"
	"github.com/elektrokombinacija/pickplan/internal/telemetry"
)

var (
	cfgPath  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:           "pickplan",
	Short:         "Warehouse picking planner",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level")
}

// app bundles what every subcommand needs.
type app struct {
	cfg      *config.Config
	log      logger.Logger
	recorder *telemetry.PromRecorder
}

func newApp() (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return nil, err
	}
	rec, err := telemetry.NewPromRecorder(cfg.Metrics.Namespace, nil)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	return &app{cfg: cfg, log: logger.New("pickplan"), recorder: rec}, nil
}

func (a *app) pipeline(opts pipeline.Options) *pipeline.Pipeline {
	return pipeline.New(opts, a.log, a.recorder)
}

// loadInstance reads and builds an instance file, defaulting its obstacle
// code from the configuration.
func (a *app) loadInstance(path string) (*core.Instance, error) {
	f, err := instance.Load(path)
	if err != nil {
		return nil, err
	}
	if f.Obstacle == "" {
		f.Obstacle = a.cfg.Planner.ObstacleCode
	}
	return f.Build()
}

// close flushes the metrics textfile when one is configured.
func (a *app) close() {
	if a.cfg.Metrics.Textfile == "" {
		return
	}
	if err := a.recorder.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		a.log.Errorf("metrics textfile %s: %v", a.cfg.Metrics.Textfile, err)
	}
}

// writeJSON writes v to path, or to w when path is empty or "-".
func writeJSON(w io.Writer, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" || path == "-" {
		_, err = w.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}
