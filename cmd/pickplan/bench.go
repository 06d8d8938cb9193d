package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/elektrokombinacija/pickplan/internal/config"
	"github.com/elektrokombinacija/pickplan/internal/sim"
)

var benchFlags struct {
	dir        string
	csv        string
	algorithms string
	timeout    time.Duration
	verbose    bool
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Plan every instance in a directory with each planner and write a CSV",
	RunE:  runBench,
}

func init() {
	f := benchCmd.Flags()
	f.StringVarP(&benchFlags.dir, "dir", "d", "testdata", "directory of instance files")
	f.StringVar(&benchFlags.csv, "csv", "evidence/benchmark_results.csv", "output CSV file")
	f.StringVar(&benchFlags.algorithms, "algorithms", "ca,cbs", "comma-separated planners")
	f.DurationVar(&benchFlags.timeout, "timeout", 5*time.Minute, "timeout per planner run")
	f.BoolVarP(&benchFlags.verbose, "verbose", "v", false, "print every run")
	rootCmd.AddCommand(benchCmd)
}

// benchResult is one planner run on one instance.
type benchResult struct {
	Timestamp      string
	GoVersion      string
	OS             string
	Arch           string
	Instance       string
	Vehicles       int
	Items          int
	GridSize       string
	Planner        string
	RuntimeMs      float64
	Success        bool
	Degraded       int
	PickingTime    int
	IdleSteps      int
	PathLength     int
	NodesExpanded  int
	StatesExpanded int
	Collisions     int
	Error          string
}

var benchHeader = []string{
	"timestamp", "go_version", "os", "arch",
	"instance", "vehicles", "items", "grid_size", "planner",
	"runtime_ms", "success", "degraded", "picking_time", "idle_steps", "path_length",
	"nodes_expanded", "states_expanded", "collisions", "error",
}

func (r benchResult) row() []string {
	return []string{
		r.Timestamp, r.GoVersion, r.OS, r.Arch,
		r.Instance, strconv.Itoa(r.Vehicles), strconv.Itoa(r.Items), r.GridSize, r.Planner,
		strconv.FormatFloat(r.RuntimeMs, 'f', 3, 64), strconv.FormatBool(r.Success),
		strconv.Itoa(r.Degraded), strconv.Itoa(r.PickingTime), strconv.Itoa(r.IdleSteps),
		strconv.Itoa(r.PathLength), strconv.Itoa(r.NodesExpanded), strconv.Itoa(r.StatesExpanded),
		strconv.Itoa(r.Collisions), r.Error,
	}
}

func runBench(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	algorithms := strings.Split(benchFlags.algorithms, ",")
	for _, alg := range algorithms {
		if alg != config.AlgorithmCA && alg != config.AlgorithmCBS {
			return fmt.Errorf("unknown algorithm %q", alg)
		}
	}

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml", "*.json"} {
		m, err := filepath.Glob(filepath.Join(benchFlags.dir, pattern))
		if err != nil {
			return err
		}
		files = append(files, m...)
	}
	slices.Sort(files)
	if len(files) == 0 {
		return fmt.Errorf("no instance files in %s, run pickplan gen first", benchFlags.dir)
	}

	out := cmd.OutOrStdout()
	total := len(files) * len(algorithms)
	fmt.Fprintf(out, "Running benchmarks: %d instances x %d planners = %d runs\n", len(files), len(algorithms), total)

	p := a.pipeline(pipelineOptions(a))
	var results []benchResult
	run := 0
	for _, file := range files {
		inst, err := a.loadInstance(file)
		if err != nil {
			a.log.Warnf("skipping %s: %v", file, err)
			continue
		}
		for _, alg := range algorithms {
			run++
			ctx, cancel := context.WithTimeout(cmd.Context(), benchFlags.timeout)
			start := time.Now()
			planned, err := p.PlanWith(ctx, inst, alg)
			elapsed := time.Since(start)
			cancel()
			if errors.Is(err, context.Canceled) {
				return err
			}

			r := benchResult{
				Timestamp: time.Now().UTC().Format(time.RFC3339),
				GoVersion: runtime.Version(),
				OS:        runtime.GOOS,
				Arch:      runtime.GOARCH,
				Instance:  inst.Name,
				Vehicles:  len(inst.Vehicles),
				Items:     len(inst.Items),
				GridSize:  fmt.Sprintf("%dx%d", inst.Grid.Width(), inst.Grid.Height()),
				Planner:   strings.ToUpper(alg),
				RuntimeMs: float64(elapsed.Microseconds()) / 1000.0,
				Success:   err == nil,
			}
			if err != nil {
				r.Error = err.Error()
			} else {
				res := planned.Result
				r.Degraded = res.Stats.Degraded
				r.Success = res.Stats.Degraded == 0
				r.PickingTime = res.Metrics.EstimatedPickingTime
				r.IdleSteps = res.Metrics.IdleSteps
				r.PathLength = res.Metrics.TotalPathLength
				r.NodesExpanded = res.Stats.NodesExpanded
				r.StatesExpanded = res.Stats.StatesExpanded
				r.Collisions = len(sim.Replay(res.Plans).Collisions)
			}
			results = append(results, r)

			if benchFlags.verbose {
				status := "OK"
				if !r.Success {
					status = "FAILED"
				}
				fmt.Fprintf(out, "[%d/%d] %s / %s ... %s (%.2fms, picking time %d)\n",
					run, total, r.Instance, r.Planner, status, r.RuntimeMs, r.PickingTime)
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(benchFlags.csv), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := writeBenchCSV(benchFlags.csv, results); err != nil {
		return err
	}
	fmt.Fprintf(out, "Results written to: %s\n", benchFlags.csv)
	printBenchSummary(out, results)
	return nil
}

func writeBenchCSV(path string, results []benchResult) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	if err := encodeBenchCSV(file, results); err != nil {
		return err
	}
	return file.Close()
}

func encodeBenchCSV(w io.Writer, results []benchResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(benchHeader); err != nil {
		return err
	}
	for _, r := range results {
		if err := cw.Write(r.row()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// benchSummary aggregates runs of one planner.
type benchSummary struct {
	Runs        int
	Successes   int
	RuntimeMs   float64
	PickingTime int
	Collisions  int
}

func printBenchSummary(w io.Writer, results []benchResult) {
	byPlanner := make(map[string]*benchSummary)
	for _, r := range results {
		s, ok := byPlanner[r.Planner]
		if !ok {
			s = &benchSummary{}
			byPlanner[r.Planner] = s
		}
		s.Runs++
		s.Collisions += r.Collisions
		if r.Success {
			s.Successes++
			s.RuntimeMs += r.RuntimeMs
			s.PickingTime += r.PickingTime
		}
	}

	fmt.Fprintln(w, "\n=== BENCHMARK SUMMARY ===")
	fmt.Fprintf(w, "%-10s %6s %8s %13s %15s %11s\n", "Planner", "Runs", "Success", "Avg Time(ms)", "Avg PickTime", "Collisions")
	fmt.Fprintln(w, strings.Repeat("-", 68))

	names := make([]string, 0, len(byPlanner))
	for name := range byPlanner {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		s := byPlanner[name]
		var avgTime, avgPick float64
		if s.Successes > 0 {
			avgTime = s.RuntimeMs / float64(s.Successes)
			avgPick = float64(s.PickingTime) / float64(s.Successes)
		}
		fmt.Fprintf(w, "%-10s %6d %8d %13.2f %15.2f %11d\n", name, s.Runs, s.Successes, avgTime, avgPick, s.Collisions)
	}
}
