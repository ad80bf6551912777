// Package experiments provides the experiment runner and the four
// context-window experiments: needle-in-haystack position sensitivity,
// context size impact, RAG versus full context, and multi-step context
// strategies. An Experiment supplies the five template hooks; the Runner
// drives them over N iterations, sequentially or on a goroutine pool,
// then analyzes, visualizes and persists the merged rows.
package experiments

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/contextwindows/ctxlab/pkg/errors"
	"github.com/contextwindows/ctxlab/pkg/logging"
)

// State tracks where a run is in its lifecycle.
type State int32

const (
	StateInit State = iota
	StateGenerating
	StateQuerying
	StateEvaluating
	StateAnalyzing
	StateVisualizing
	StatePersisted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateGenerating:
		return "GENERATING"
	case StateQuerying:
		return "QUERYING"
	case StateEvaluating:
		return "EVALUATING"
	case StateAnalyzing:
		return "ANALYZING"
	case StateVisualizing:
		return "VISUALIZING"
	case StatePersisted:
		return "PERSISTED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Config is the immutable run configuration.
type Config struct {
	Name                   string `json:"name"`
	OutputDir              string `json:"output_dir"`
	Iterations             int    `json:"iterations"`
	UseParallel            bool   `json:"use_parallel"`
	MaxWorkers             int    `json:"max_workers"`
	Seed                   int64  `json:"seed"`
	SaveResults            bool   `json:"save_results"`
	GenerateVisualizations bool   `json:"generate_visualizations"`
}

// Row is one JSON-ready evaluation record.
type Row = map[string]any

// Results is the outcome of a complete run.
type Results struct {
	RunID              string         `json:"run_id"`
	ExperimentName     string         `json:"experiment_name"`
	Config             Config         `json:"config"`
	RawResults         []Row          `json:"raw_results"`
	Statistics         map[string]any `json:"statistics"`
	VisualizationPaths []string       `json:"visualization_paths"`
	Success            bool           `json:"success"`
	Error              string         `json:"error,omitempty"`
}

// Experiment supplies the template hooks the Runner drives. GenerateData,
// ExecuteQueries and EvaluateResponses run once per iteration and must not
// share mutable state across iterations; Analyze and Visualize run once
// over the merged rows.
type Experiment interface {
	Name() string
	GenerateData(ctx context.Context, iteration int) (any, error)
	ExecuteQueries(ctx context.Context, data any) (any, error)
	EvaluateResponses(ctx context.Context, responses any) ([]Row, error)
	Analyze(rows []Row) (map[string]any, error)
	Visualize(rows []Row, stats map[string]any) ([]string, error)
}

// Runner executes an Experiment per its Config.
type Runner struct {
	cfg   Config
	state atomic.Int32
}

// NewRunner validates the config and returns a runner in StateInit.
func NewRunner(cfg Config) (*Runner, error) {
	if cfg.Name == "" {
		return nil, errors.New(errors.InvalidParameter, "experiment name is required")
	}
	if cfg.Iterations < 1 {
		return nil, errors.WithFields(
			errors.New(errors.InvalidParameter, "iterations must be at least 1"),
			errors.Fields{"iterations": cfg.Iterations})
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = runtime.NumCPU()
	}
	return &Runner{cfg: cfg}, nil
}

// State returns the current lifecycle state.
func (r *Runner) State() State { return State(r.state.Load()) }

func (r *Runner) setState(s State) { r.state.Store(int32(s)) }

// Run drives the experiment. A sequential iteration failure aborts the
// run; in parallel mode a failed or panicking iteration is isolated and
// simply contributes no rows.
func (r *Runner) Run(ctx context.Context, exp Experiment) (*Results, error) {
	logger := logging.GetLogger()
	results := &Results{
		RunID:          uuid.New().String(),
		ExperimentName: exp.Name(),
		Config:         r.cfg,
	}

	logger.Info(ctx, "Starting experiment %q: %d iteration(s), parallel=%v",
		exp.Name(), r.cfg.Iterations, r.cfg.UseParallel)

	var rows []Row
	var err error
	if r.cfg.UseParallel && r.cfg.Iterations > 1 {
		rows = r.runParallel(ctx, exp)
	} else {
		rows, err = r.runSequential(ctx, exp)
		if err != nil {
			return r.fail(ctx, results, err), err
		}
	}
	results.RawResults = rows

	r.setState(StateAnalyzing)
	stats, err := exp.Analyze(rows)
	if err != nil {
		return r.fail(ctx, results, errors.Wrap(err, errors.ExperimentFailure, "analysis failed")), err
	}
	results.Statistics = stats

	if r.cfg.GenerateVisualizations {
		r.setState(StateVisualizing)
		paths, err := exp.Visualize(rows, stats)
		if err != nil {
			return r.fail(ctx, results, errors.Wrap(err, errors.ExperimentFailure, "visualization failed")), err
		}
		results.VisualizationPaths = paths
	}

	if r.cfg.SaveResults {
		if err := r.persist(results); err != nil {
			return r.fail(ctx, results, err), err
		}
	}

	r.setState(StatePersisted)
	results.Success = true
	logger.Info(ctx, "Experiment %q completed: %d rows", exp.Name(), len(rows))
	return results, nil
}

func (r *Runner) runSequential(ctx context.Context, exp Experiment) ([]Row, error) {
	var rows []Row
	for iteration := 0; iteration < r.cfg.Iterations; iteration++ {
		iterRows, err := r.runIteration(ctx, exp, iteration)
		if err != nil {
			return nil, errors.WithFields(
				errors.Wrap(err, errors.IterationFailure, "iteration failed"),
				errors.Fields{"iteration": iteration})
		}
		rows = append(rows, iterRows...)
	}
	return rows, nil
}

func (r *Runner) runParallel(ctx context.Context, exp Experiment) []Row {
	logger := logging.GetLogger()

	var mu sync.Mutex
	var rows []Row

	p := pool.New().WithMaxGoroutines(r.cfg.MaxWorkers)
	for iteration := 0; iteration < r.cfg.Iterations; iteration++ {
		p.Go(func() {
			iterRows, err := r.runIterationIsolated(ctx, exp, iteration)
			if err != nil {
				logger.Warn(ctx, "Iteration %d failed, contributing no rows: %v", iteration, err)
				return
			}
			mu.Lock()
			rows = append(rows, iterRows...)
			mu.Unlock()
		})
	}
	p.Wait()
	return rows
}

// runIterationIsolated converts a panic into an IterationFailure error so
// one bad iteration cannot take down the pool.
func (r *Runner) runIterationIsolated(ctx context.Context, exp Experiment, iteration int) (rows []Row, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			rows = nil
			err = errors.WithFields(
				errors.New(errors.IterationFailure, fmt.Sprintf("iteration panicked: %v", rec)),
				errors.Fields{"iteration": iteration})
		}
	}()
	return r.runIteration(ctx, exp, iteration)
}

func (r *Runner) runIteration(ctx context.Context, exp Experiment, iteration int) ([]Row, error) {
	if err := errors.CheckContext(ctx, "experiment iteration"); err != nil {
		return nil, err
	}

	r.setState(StateGenerating)
	data, err := exp.GenerateData(ctx, iteration)
	if err != nil {
		return nil, err
	}

	r.setState(StateQuerying)
	responses, err := exp.ExecuteQueries(ctx, data)
	if err != nil {
		return nil, err
	}

	r.setState(StateEvaluating)
	return exp.EvaluateResponses(ctx, responses)
}

func (r *Runner) persist(results *Results) error {
	if err := os.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
		return errors.WithFields(
			errors.Wrap(err, errors.Unknown, "failed to create output directory"),
			errors.Fields{"dir": r.cfg.OutputDir})
	}

	payload := map[string]any{
		"experiment": results.ExperimentName,
		"config": map[string]any{
			"iterations": r.cfg.Iterations,
		},
		"raw_results": results.RawResults,
		"statistics":  results.Statistics,
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.Unknown, "failed to marshal results")
	}

	path := filepath.Join(r.cfg.OutputDir, "results.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.WithFields(
			errors.Wrap(err, errors.Unknown, "failed to write results file"),
			errors.Fields{"path": path})
	}
	return nil
}

func (r *Runner) fail(ctx context.Context, results *Results, err error) *Results {
	r.setState(StateFailed)
	results.Success = false
	results.Error = err.Error()
	logging.GetLogger().Error(ctx, "Experiment %q failed: %v", results.ExperimentName, err)
	return results
}
