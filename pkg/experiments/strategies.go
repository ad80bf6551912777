package experiments

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/contextwindows/ctxlab/pkg/docgen"
	"github.com/contextwindows/ctxlab/pkg/errors"
	"github.com/contextwindows/ctxlab/pkg/eval"
	"github.com/contextwindows/ctxlab/pkg/llm"
	"github.com/contextwindows/ctxlab/pkg/logging"
	"github.com/contextwindows/ctxlab/pkg/memory"
	"github.com/contextwindows/ctxlab/pkg/rag"
	"github.com/contextwindows/ctxlab/pkg/strategy"
	"github.com/contextwindows/ctxlab/pkg/viz"
)

// ContextStrategies runs the SELECT, COMPRESS and WRITE strategies over
// the same multi-step script and compares how well each keeps earlier
// facts answerable as the interaction grows.
type ContextStrategies struct {
	client    llm.Client
	evaluator *eval.Evaluator
	plotter   *viz.Plotter
	outputDir string

	numDocuments     int
	wordsPerDocument int
	script           strategy.Script
	topK             int
	maxSummaryWords  int
	seed             int64

	newStore func() rag.Store
	newPad   func() *memory.Scratchpad
}

// StrategiesOption configures a ContextStrategies experiment.
type StrategiesOption func(*ContextStrategies)

// WithStrategiesScript overrides the interaction script.
func WithStrategiesScript(script strategy.Script) StrategiesOption {
	return func(e *ContextStrategies) { e.script = script }
}

// WithStrategiesDocuments sets corpus size and words per document.
func WithStrategiesDocuments(numDocs, wordsPerDoc int) StrategiesOption {
	return func(e *ContextStrategies) {
		e.numDocuments = numDocs
		e.wordsPerDocument = wordsPerDoc
	}
}

// WithStrategiesTopK sets retrieval depth for SELECT and WRITE.
func WithStrategiesTopK(topK int) StrategiesOption {
	return func(e *ContextStrategies) { e.topK = topK }
}

// WithStrategiesSummaryBudget sets the COMPRESS word budget.
func WithStrategiesSummaryBudget(maxWords int) StrategiesOption {
	return func(e *ContextStrategies) { e.maxSummaryWords = maxWords }
}

// WithStrategiesStore overrides the vector store factory.
func WithStrategiesStore(newStore func() rag.Store) StrategiesOption {
	return func(e *ContextStrategies) { e.newStore = newStore }
}

// WithStrategiesScratchpad overrides the scratchpad factory, e.g. for a
// SQLite-backed pad.
func WithStrategiesScratchpad(newPad func() *memory.Scratchpad) StrategiesOption {
	return func(e *ContextStrategies) { e.newPad = newPad }
}

// WithStrategiesSeed sets the base generation seed.
func WithStrategiesSeed(seed int64) StrategiesOption {
	return func(e *ContextStrategies) { e.seed = seed }
}

// NewContextStrategies creates the experiment over the first five steps of
// the default script, top-5 retrieval and a 200-word summary budget.
func NewContextStrategies(client llm.Client, outputDir string, opts ...StrategiesOption) (*ContextStrategies, error) {
	evaluator, err := eval.NewEvaluator(eval.MethodContains, false)
	if err != nil {
		return nil, err
	}

	e := &ContextStrategies{
		client:           client,
		evaluator:        evaluator,
		plotter:          viz.NewPlotter(),
		outputDir:        outputDir,
		numDocuments:     20,
		wordsPerDocument: 200,
		script:           strategy.DefaultScript()[:5],
		topK:             5,
		maxSummaryWords:  200,
		seed:             42,
		newStore:         func() rag.Store { return rag.NewMemoryStore() },
		newPad:           func() *memory.Scratchpad { return memory.NewScratchpad(nil) },
	}
	for _, opt := range opts {
		opt(e)
	}
	if len(e.script) == 0 {
		return nil, errors.New(errors.InvalidParameter, "script cannot be empty")
	}
	return e, nil
}

// Name implements Experiment.
func (e *ContextStrategies) Name() string { return "context_strategies" }

type strategyResponses map[string][]*llm.Response

// GenerateData implements Experiment: the shared base corpus. The
// placeholder fact never carries answer material; facts arrive per step.
func (e *ContextStrategies) GenerateData(_ context.Context, iteration int) (any, error) {
	generator := docgen.NewGenerator(docgen.WithSeed(e.seed + int64(iteration)))
	return generator.Generate(e.numDocuments, e.wordsPerDocument,
		"This document covers routine operational matters.", docgen.PositionMiddle)
}

// ExecuteQueries implements Experiment. Strategies are constructed here so
// every iteration gets its own stores and scratchpad.
func (e *ContextStrategies) ExecuteQueries(ctx context.Context, data any) (any, error) {
	docs, ok := data.([]docgen.Document)
	if !ok {
		return nil, errors.New(errors.InvalidParameter, "unexpected data type for strategies experiment")
	}
	logger := logging.GetLogger()

	contents := make([]string, 0, len(docs))
	for _, doc := range docs {
		contents = append(contents, doc.Content)
	}

	sel, err := strategy.NewSelect(ctx, e.newStore(), contents, e.script, e.topK)
	if err != nil {
		return nil, err
	}
	comp, err := strategy.NewCompress(contents, e.script,
		memory.NewSummarizer(e.maxSummaryWords), memory.CompressFirstLast)
	if err != nil {
		return nil, err
	}
	wr, err := strategy.NewWrite(ctx, e.newPad(), e.newStore(), contents, e.script, e.topK)
	if err != nil {
		return nil, err
	}
	strategies := []strategy.Strategy{sel, comp, wr}

	responses := make(strategyResponses, len(strategies))
	for step := range e.script {
		logger.Debug(ctx, "Step %d/%d: %s", step+1, len(e.script), e.script[step].Question)

		for _, strat := range strategies {
			contextText, err := strat.BuildContext(ctx, step)
			if err != nil {
				return nil, err
			}

			resp, err := e.client.Query(ctx, contextText, e.script[step].Question)
			if err != nil {
				return nil, err
			}
			responses[strat.Name()] = append(responses[strat.Name()], resp)

			if err := strat.Observe(ctx, step); err != nil {
				return nil, err
			}
		}
	}
	return responses, nil
}

// EvaluateResponses implements Experiment: one row per strategy per step.
func (e *ContextStrategies) EvaluateResponses(_ context.Context, responses any) ([]Row, error) {
	byStrategy, ok := responses.(strategyResponses)
	if !ok {
		return nil, errors.New(errors.InvalidParameter, "unexpected responses type for strategies experiment")
	}

	var rows []Row
	for _, name := range e.strategyNames() {
		for step, resp := range byStrategy[name] {
			accuracy, err := e.evaluator.Evaluate(resp.Text, e.script[step].Expected)
			if err != nil {
				return nil, err
			}
			rows = append(rows, Row{
				"strategy":        name,
				"step":            step + 1,
				"question":        e.script[step].Question,
				"expected_answer": e.script[step].Expected,
				"response":        resp.Text,
				"accuracy":        accuracy,
				"latency_ms":      resp.LatencyMs,
				"tokens_used":     resp.TokensUsed,
				"success":         resp.Success,
			})
		}
	}
	return rows, nil
}

// Analyze implements Experiment: overall and per-step stats per strategy.
func (e *ContextStrategies) Analyze(rows []Row) (map[string]any, error) {
	stats := make(map[string]any)
	for _, name := range e.strategyNames() {
		var accuracies, latencies, tokens []float64
		byStep := map[int][]Row{}
		for _, row := range rows {
			if row["strategy"] != name {
				continue
			}
			accuracies = append(accuracies, row["accuracy"].(float64))
			latencies = append(latencies, row["latency_ms"].(float64))
			tokens = append(tokens, float64(row["tokens_used"].(int)))
			step := row["step"].(int)
			byStep[step] = append(byStep[step], row)
		}
		if len(accuracies) == 0 {
			continue
		}

		accStats, err := eval.Summarize(accuracies)
		if err != nil {
			return nil, err
		}
		latStats, err := eval.Summarize(latencies)
		if err != nil {
			return nil, err
		}
		tokStats, err := eval.Summarize(tokens)
		if err != nil {
			return nil, err
		}

		stepMetrics := make(map[string]any, len(byStep))
		for step := 1; step <= len(e.script); step++ {
			stepRows := byStep[step]
			if len(stepRows) == 0 {
				continue
			}
			var stepAcc, stepLat []float64
			for _, row := range stepRows {
				stepAcc = append(stepAcc, row["accuracy"].(float64))
				stepLat = append(stepLat, row["latency_ms"].(float64))
			}
			sAcc, err := eval.Summarize(stepAcc)
			if err != nil {
				return nil, err
			}
			sLat, err := eval.Summarize(stepLat)
			if err != nil {
				return nil, err
			}
			stepMetrics[fmt.Sprintf("step_%d", step)] = map[string]any{
				"accuracy":   map[string]any{"mean": sAcc.Mean},
				"latency_ms": map[string]any{"mean": sLat.Mean},
			}
		}

		stats[name] = map[string]any{
			"overall": map[string]any{
				"accuracy":    map[string]any{"mean": accStats.Mean, "std": accStats.Std},
				"latency_ms":  map[string]any{"mean": latStats.Mean, "std": latStats.Std},
				"tokens_used": map[string]any{"mean": tokStats.Mean, "std": tokStats.Std},
			},
			"by_step": stepMetrics,
		}
	}
	return stats, nil
}

// Visualize implements Experiment: overall accuracy and latency bar charts
// by strategy.
func (e *ContextStrategies) Visualize(_ []Row, stats map[string]any) ([]string, error) {
	var labels []string
	var accuracies, latencies []float64
	for _, name := range e.strategyNames() {
		stratStats, ok := stats[name].(map[string]any)
		if !ok {
			continue
		}
		overall := stratStats["overall"].(map[string]any)
		labels = append(labels, name)
		accuracies = append(accuracies, overall["accuracy"].(map[string]any)["mean"].(float64))
		latencies = append(latencies, overall["latency_ms"].(map[string]any)["mean"].(float64))
	}
	if len(labels) == 0 {
		return nil, nil
	}

	var paths []string

	accuracyPath := filepath.Join(e.outputDir, "overall_accuracy_by_strategy.png")
	if err := e.plotter.BarChart(labels, accuracies,
		"Overall Accuracy by Strategy", "Strategy", "Accuracy", accuracyPath); err != nil {
		return nil, err
	}
	paths = append(paths, accuracyPath)

	latencyPath := filepath.Join(e.outputDir, "latency_by_strategy.png")
	if err := e.plotter.BarChart(labels, latencies,
		"Average Latency by Strategy", "Strategy", "Latency (ms)", latencyPath); err != nil {
		return nil, err
	}
	paths = append(paths, latencyPath)

	return paths, nil
}

func (e *ContextStrategies) strategyNames() []string {
	return []string{"SELECT", "COMPRESS", "WRITE"}
}
