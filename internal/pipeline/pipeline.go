// Package pipeline runs the full planning flow for an instance: cluster the
// cartons into jobs, sequence each job, route the vehicles and aggregate
// metrics.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/elektrokombinacija/pickplan/internal/algo"
	"github.com/elektrokombinacija/pickplan/internal/cluster"
	"github.com/elektrokombinacija/pickplan/internal/config"
	"github.com/elektrokombinacija/pickplan/internal/core"
	"github.com/elektrokombinacija/pickplan/internal/logger"
	"github.com/elektrokombinacija/pickplan/internal/sequence"
	"github.com/elektrokombinacija/pickplan/internal/sim"
	"github.com/elektrokombinacija/pickplan/internal/telemetry"
)

// AlgorithmNaive selects the uncoordinated planner.
const AlgorithmNaive = "naive"

// ErrUnknownAlgorithm is returned for an algorithm name no planner answers to.
var ErrUnknownAlgorithm = errors.New("pipeline: unknown algorithm")

// Options tune a pipeline.
type Options struct {
	Algorithm   string
	Seed        int64 // 0 derives a seed from the clock
	MaxCBSNodes int
	Parallel    bool
	Slack       int
}

// OptionsFrom maps the planner configuration section onto pipeline options.
func OptionsFrom(cfg config.PlannerConfig) Options {
	return Options{
		Algorithm:   cfg.Algorithm,
		Seed:        cfg.Seed,
		MaxCBSNodes: cfg.MaxCBSNodes,
		Parallel:    cfg.IsParallel(),
		Slack:       cfg.Horizon,
	}
}

// Pipeline plans instances. It is safe for concurrent use.
type Pipeline struct {
	opts Options
	log  logger.Logger
	rec  telemetry.Recorder
	now  func() time.Time
}

// New creates a pipeline. A nil log or recorder disables that concern.
func New(opts Options, log logger.Logger, rec telemetry.Recorder) *Pipeline {
	if log == nil {
		log = logger.NopLogger{}
	}
	if rec == nil {
		rec = telemetry.NopRecorder{}
	}
	if opts.Algorithm == "" {
		opts.Algorithm = config.AlgorithmCA
	}
	return &Pipeline{opts: opts, log: log, rec: rec, now: time.Now}
}

// NewPlanner returns the planner for an algorithm name.
func (p *Pipeline) NewPlanner(algorithm, runID string) (algo.Planner, error) {
	switch algorithm {
	case config.AlgorithmCA:
		return algo.NewCooperative(p.opts.Slack), nil
	case config.AlgorithmCBS:
		obs := algo.MultiObserver{&logObserver{log: p.log, runID: runID}}
		if o, ok := p.rec.(algo.Observer); ok {
			obs = append(obs, o)
		}
		return &algo.CBS{
			MaxNodes: p.opts.MaxCBSNodes,
			Slack:    p.opts.Slack,
			Parallel: p.opts.Parallel,
			Observer: obs,
		}, nil
	case AlgorithmNaive:
		return &algo.Naive{Slack: p.opts.Slack}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
}

func (p *Pipeline) seed() int64 {
	if p.opts.Seed != 0 {
		return p.opts.Seed
	}
	return p.now().UnixNano()
}

// Assign clusters the instance's cartons into one job per vehicle and
// sequences every job. The returned vehicles are copies in roster order.
func (p *Pipeline) Assign(inst *core.Instance, seed int64) []*core.Vehicle {
	vehicles := make([]*core.Vehicle, len(inst.Vehicles))
	if len(vehicles) == 0 {
		return vehicles
	}
	jobs := cluster.KMeans(inst.Items, len(vehicles), cluster.NewRand(seed))
	for i, v := range inst.Vehicles {
		vehicles[i] = &core.Vehicle{
			Code:  v.Code,
			Start: v.Start,
			Drop:  inst.Drop,
			Job:   sequence.Optimize(jobs[i], v.Start, inst.Drop),
		}
	}
	return vehicles
}

// Plan routes the instance with the configured algorithm.
func (p *Pipeline) Plan(ctx context.Context, inst *core.Instance) (*PlanOutput, error) {
	return p.PlanWith(ctx, inst, p.opts.Algorithm)
}

// PlanWith routes the instance with the named algorithm.
func (p *Pipeline) PlanWith(ctx context.Context, inst *core.Instance, algorithm string) (*PlanOutput, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	planner, err := p.NewPlanner(algorithm, runID)
	if err != nil {
		return nil, err
	}
	seed := p.seed()
	p.log.Infof("run %s: planning %s with %s (%d vehicles, %d items, seed %d)",
		runID, inst.Name, planner.Name(), len(inst.Vehicles), len(inst.Items), seed)

	vehicles := p.Assign(inst, seed)
	res, err := p.run(ctx, runID, planner, inst.Grid, vehicles)
	if err != nil {
		return nil, fmt.Errorf("planning %s with %s: %w", inst.Name, planner.Name(), err)
	}
	return &PlanOutput{
		RunID:    runID,
		Instance: inst.Name,
		Planner:  res.Planner,
		Seed:     seed,
		Vehicles: vehicleOutputs(res.Plans, res.Reservations != nil),
		Metrics:  res.Metrics,
		Stats:    res.Stats,
		Result:   res,
	}, nil
}

// Preview plans the same jobs with the naive, CA and CBS planners. A CBS
// failure is reported in the output, not as an error.
func (p *Pipeline) Preview(ctx context.Context, inst *core.Instance) (*PreviewOutput, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	seed := p.seed()
	vehicles := p.Assign(inst, seed)
	p.log.Infof("run %s: previewing %s (%d vehicles, %d items, seed %d)",
		runID, inst.Name, len(vehicles), len(inst.Items), seed)

	names := [...]string{AlgorithmNaive, config.AlgorithmCA, config.AlgorithmCBS}
	var results [len(names)]*algo.Result
	var errs [len(names)]error

	var planners [len(names)]algo.Planner
	for i, name := range names {
		planner, err := p.NewPlanner(name, runID)
		if err != nil {
			return nil, err
		}
		planners[i] = planner
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, planner := range planners {
		g.Go(func() error {
			results[i], errs[i] = p.run(gctx, runID, planner, inst.Grid, vehicles)
			// Only cancellation aborts the preview.
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i := range names[:2] {
		if errs[i] != nil {
			return nil, fmt.Errorf("previewing %s with %s: %w", inst.Name, names[i], errs[i])
		}
	}

	naive := results[0]
	return &PreviewOutput{
		RunID:    runID,
		Instance: inst.Name,
		Seed:     seed,
		Naive: NaivePreview{
			Metrics:            naive.Metrics,
			ConflictsToResolve: conflictsToResolve(naive.Plans),
		},
		CA:  plannerPreview(results[1], nil, true),
		CBS: plannerPreview(results[2], errs[2], false),
	}, nil
}

func conflictsToResolve(plans []core.VehiclePlan) []sim.Collision {
	out := sim.Replay(plans).Collisions
	if out == nil {
		out = []sim.Collision{}
	}
	return out
}

// run invokes one planner, then logs and records the outcome.
func (p *Pipeline) run(ctx context.Context, runID string, planner algo.Planner, g *core.Grid, vehicles []*core.Vehicle) (*algo.Result, error) {
	start := p.now()
	res, err := planner.Plan(ctx, g, vehicles)
	elapsed := p.now().Sub(start)

	sample := telemetry.RunSample{Planner: planner.Name(), Duration: elapsed}
	if err != nil {
		sample.Outcome = telemetry.OutcomeFailed
		p.rec.RecordRun(sample)
		p.log.Errorf("run %s: %s failed after %s: %v", runID, planner.Name(), elapsed, err)
		return nil, err
	}

	sample.Outcome = telemetry.OutcomeOK
	if res.Stats.Degraded > 0 {
		sample.Outcome = telemetry.OutcomeDegraded
	}
	sample.Makespan = core.Makespan(res.Plans)
	sample.IdleSteps = res.Metrics.IdleSteps
	p.rec.RecordRun(sample)

	for _, vp := range res.Plans {
		p.log.Debugw("vehicle routed", map[string]any{
			"run":     runID,
			"planner": planner.Name(),
			"vehicle": string(vp.Code),
			"items":   vp.Job.Len(),
			"steps":   len(vp.Path),
			"picks":   vp.Path.Count(core.ActionPick),
		})
		if vp.Degraded {
			p.log.Warnf("run %s: %s vehicle %s degraded: %v", runID, planner.Name(), vp.Code, vp.Err)
		}
	}
	p.log.Infof("run %s: %s finished in %s, picking time %d, idle %d",
		runID, planner.Name(), elapsed, res.Metrics.EstimatedPickingTime, res.Metrics.IdleSteps)
	return res, nil
}
