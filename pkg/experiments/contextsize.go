package experiments

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/contextwindows/ctxlab/pkg/docgen"
	"github.com/contextwindows/ctxlab/pkg/errors"
	"github.com/contextwindows/ctxlab/pkg/eval"
	"github.com/contextwindows/ctxlab/pkg/llm"
	"github.com/contextwindows/ctxlab/pkg/logging"
	"github.com/contextwindows/ctxlab/pkg/viz"
)

// ContextSize measures how retrieval accuracy and latency change as the
// number of concatenated documents grows, with the fact pinned to the
// middle position.
type ContextSize struct {
	client    llm.Client
	evaluator *eval.Evaluator
	plotter   *viz.Plotter
	outputDir string

	documentCounts   []int
	wordsPerDocument int
	fact             string
	question         string
	expected         string
	factPosition     docgen.Position
	seed             int64
}

// ContextSizeOption configures a ContextSize experiment.
type ContextSizeOption func(*ContextSize)

// WithDocumentCounts overrides the tested context sizes.
func WithDocumentCounts(counts ...int) ContextSizeOption {
	return func(e *ContextSize) { e.documentCounts = counts }
}

// WithContextSizeFact overrides the fact, question and expected answer.
func WithContextSizeFact(fact, question, expected string) ContextSizeOption {
	return func(e *ContextSize) {
		e.fact = fact
		e.question = question
		e.expected = expected
	}
}

// WithContextSizeSeed sets the base generation seed.
func WithContextSizeSeed(seed int64) ContextSizeOption {
	return func(e *ContextSize) { e.seed = seed }
}

// NewContextSize creates the experiment with the standard deadline fact
// over 5, 10, 20 and 50 documents.
func NewContextSize(client llm.Client, outputDir string, opts ...ContextSizeOption) (*ContextSize, error) {
	evaluator, err := eval.NewEvaluator(eval.MethodContains, false)
	if err != nil {
		return nil, err
	}

	e := &ContextSize{
		client:           client,
		evaluator:        evaluator,
		plotter:          viz.NewPlotter(),
		outputDir:        outputDir,
		documentCounts:   []int{5, 10, 20, 50},
		wordsPerDocument: 200,
		fact:             "The project deadline is December 15th, 2025.",
		question:         "When is the project deadline?",
		expected:         "December 15th, 2025",
		factPosition:     docgen.PositionMiddle,
		seed:             42,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Name implements Experiment.
func (e *ContextSize) Name() string { return "context_size" }

type contextSizeData map[int][]docgen.Document

type contextSizeResponses map[int]*llm.Response

// GenerateData implements Experiment: one document set per tested count.
func (e *ContextSize) GenerateData(ctx context.Context, iteration int) (any, error) {
	logger := logging.GetLogger()
	generator := docgen.NewGenerator(docgen.WithSeed(e.seed + int64(iteration)))

	data := make(contextSizeData, len(e.documentCounts))
	for _, count := range e.documentCounts {
		logger.Debug(ctx, "Generating %d documents with fact at %s", count, e.factPosition)
		docs, err := generator.Generate(count, e.wordsPerDocument, e.fact, e.factPosition)
		if err != nil {
			return nil, err
		}
		data[count] = docs
	}
	return data, nil
}

// ExecuteQueries implements Experiment: one query over the concatenated
// documents per count.
func (e *ContextSize) ExecuteQueries(ctx context.Context, data any) (any, error) {
	docsByCount, ok := data.(contextSizeData)
	if !ok {
		return nil, errors.New(errors.InvalidParameter, "unexpected data type for context size experiment")
	}

	responses := make(contextSizeResponses, len(docsByCount))
	for _, count := range e.documentCounts {
		contents := make([]string, 0, count)
		for _, doc := range docsByCount[count] {
			contents = append(contents, doc.Content)
		}
		contextText := strings.Join(contents, "\n\n")

		resp, err := e.client.Query(ctx, contextText, e.question)
		if err != nil {
			return nil, err
		}
		responses[count] = resp
	}
	return responses, nil
}

// EvaluateResponses implements Experiment. A query that exhausted its
// retries becomes a zero-accuracy row rather than an error.
func (e *ContextSize) EvaluateResponses(_ context.Context, responses any) ([]Row, error) {
	byCount, ok := responses.(contextSizeResponses)
	if !ok {
		return nil, errors.New(errors.InvalidParameter, "unexpected responses type for context size experiment")
	}

	var rows []Row
	for _, count := range e.documentCounts {
		resp := byCount[count]
		if !resp.Success {
			rows = append(rows, Row{
				"document_count": count,
				"accuracy":       0.0,
				"latency_ms":     0.0,
				"tokens_used":    0,
				"response_text":  "",
				"success":        false,
				"error":          resp.Error,
			})
			continue
		}

		accuracy, err := e.evaluator.Evaluate(resp.Text, e.expected)
		if err != nil {
			return nil, err
		}
		rows = append(rows, Row{
			"document_count": count,
			"accuracy":       accuracy,
			"latency_ms":     resp.LatencyMs,
			"tokens_used":    resp.TokensUsed,
			"response_text":  resp.Text,
			"success":        true,
		})
	}
	return rows, nil
}

// Analyze implements Experiment: stats per document count, keyed by the
// count as a string for JSON stability.
func (e *ContextSize) Analyze(rows []Row) (map[string]any, error) {
	stats := make(map[string]any, len(e.documentCounts))
	for _, count := range e.documentCounts {
		var accuracies, latencies, tokens []float64
		for _, row := range rows {
			if row["document_count"] != count {
				continue
			}
			accuracies = append(accuracies, row["accuracy"].(float64))
			latencies = append(latencies, row["latency_ms"].(float64))
			tokens = append(tokens, float64(row["tokens_used"].(int)))
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

		stats[strconv.Itoa(count)] = map[string]any{
			"accuracy": map[string]any{
				"mean":  accStats.Mean,
				"std":   accStats.Std,
				"ci_95": accStats.ConfidenceInterval95,
			},
			"latency_ms":  map[string]any{"mean": latStats.Mean, "std": latStats.Std},
			"tokens_used": map[string]any{"mean": tokStats.Mean, "std": tokStats.Std},
		}
	}
	return stats, nil
}

// Visualize implements Experiment: accuracy and latency line charts plus a
// bar chart comparison.
func (e *ContextSize) Visualize(_ []Row, stats map[string]any) ([]string, error) {
	var labels []string
	var xs, accuracies, latencies []float64
	for _, count := range e.documentCounts {
		countStats, ok := stats[strconv.Itoa(count)].(map[string]any)
		if !ok {
			continue
		}
		labels = append(labels, strconv.Itoa(count))
		xs = append(xs, float64(count))
		accuracies = append(accuracies, countStats["accuracy"].(map[string]any)["mean"].(float64))
		latencies = append(latencies, countStats["latency_ms"].(map[string]any)["mean"].(float64))
	}
	if len(xs) == 0 {
		return nil, nil
	}

	var paths []string

	accuracyPath := filepath.Join(e.outputDir, "accuracy_vs_context_size.png")
	if err := e.plotter.LineChart(xs, accuracies,
		"Accuracy vs Context Size", "Number of Documents", "Accuracy (0.0-1.0)", accuracyPath); err != nil {
		return nil, err
	}
	paths = append(paths, accuracyPath)

	latencyPath := filepath.Join(e.outputDir, "latency_vs_context_size.png")
	if err := e.plotter.LineChart(xs, latencies,
		"Latency vs Context Size", "Number of Documents", "Latency (ms)", latencyPath); err != nil {
		return nil, err
	}
	paths = append(paths, latencyPath)

	comparisonPath := filepath.Join(e.outputDir, "context_size_comparison.png")
	if err := e.plotter.BarChart(labels, accuracies,
		"Accuracy by Context Size", "Number of Documents", "Accuracy (0.0-1.0)", comparisonPath); err != nil {
		return nil, err
	}
	paths = append(paths, comparisonPath)

	return paths, nil
}
