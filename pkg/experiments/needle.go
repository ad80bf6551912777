package experiments

import (
	"context"
	"path/filepath"

	"github.com/contextwindows/ctxlab/pkg/docgen"
	"github.com/contextwindows/ctxlab/pkg/errors"
	"github.com/contextwindows/ctxlab/pkg/eval"
	"github.com/contextwindows/ctxlab/pkg/llm"
	"github.com/contextwindows/ctxlab/pkg/logging"
	"github.com/contextwindows/ctxlab/pkg/viz"
)

// NeedleInHaystack measures accuracy for a fact embedded at the start,
// middle and end of a document, demonstrating the lost-in-the-middle
// effect.
type NeedleInHaystack struct {
	client    llm.Client
	evaluator *eval.Evaluator
	plotter   *viz.Plotter
	outputDir string

	numDocuments     int
	wordsPerDocument int
	fact             string
	question         string
	expected         string
	seed             int64
}

// NeedleOption configures a NeedleInHaystack experiment.
type NeedleOption func(*NeedleInHaystack)

// WithNeedleDocuments sets documents per position and words per document.
func WithNeedleDocuments(numDocs, wordsPerDoc int) NeedleOption {
	return func(e *NeedleInHaystack) {
		e.numDocuments = numDocs
		e.wordsPerDocument = wordsPerDoc
	}
}

// WithNeedleFact overrides the embedded fact, question and expected answer.
func WithNeedleFact(fact, question, expected string) NeedleOption {
	return func(e *NeedleInHaystack) {
		e.fact = fact
		e.question = question
		e.expected = expected
	}
}

// WithNeedleSeed sets the base generation seed.
func WithNeedleSeed(seed int64) NeedleOption {
	return func(e *NeedleInHaystack) { e.seed = seed }
}

// NewNeedleInHaystack creates the experiment with the standard CEO fact.
func NewNeedleInHaystack(client llm.Client, outputDir string, opts ...NeedleOption) (*NeedleInHaystack, error) {
	evaluator, err := eval.NewEvaluator(eval.MethodContains, false)
	if err != nil {
		return nil, err
	}

	e := &NeedleInHaystack{
		client:           client,
		evaluator:        evaluator,
		plotter:          viz.NewPlotter(),
		outputDir:        outputDir,
		numDocuments:     5,
		wordsPerDocument: 200,
		fact:             "The CEO of the company is David Cohen.",
		question:         "Who is the CEO of the company?",
		expected:         "David Cohen",
		seed:             42,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Name implements Experiment.
func (e *NeedleInHaystack) Name() string { return "needle_in_haystack" }

type needleData map[docgen.Position][]docgen.Document

type needleResponses map[docgen.Position][]*llm.Response

// GenerateData implements Experiment: documents per position, seeded per
// iteration so parallel iterations draw distinct filler text.
func (e *NeedleInHaystack) GenerateData(ctx context.Context, iteration int) (any, error) {
	logger := logging.GetLogger()
	generator := docgen.NewGenerator(docgen.WithSeed(e.seed + int64(iteration)))

	data := make(needleData, len(docgen.Positions))
	for _, pos := range docgen.Positions {
		logger.Debug(ctx, "Generating %d documents with fact at %s", e.numDocuments, pos)
		docs, err := generator.Generate(e.numDocuments, e.wordsPerDocument, e.fact, pos)
		if err != nil {
			return nil, err
		}
		data[pos] = docs
	}
	return data, nil
}

// ExecuteQueries implements Experiment: one query per document.
func (e *NeedleInHaystack) ExecuteQueries(ctx context.Context, data any) (any, error) {
	docsByPosition, ok := data.(needleData)
	if !ok {
		return nil, errors.New(errors.InvalidParameter, "unexpected data type for needle experiment")
	}

	responses := make(needleResponses, len(docsByPosition))
	for _, pos := range docgen.Positions {
		for _, doc := range docsByPosition[pos] {
			resp, err := e.client.Query(ctx, doc.Content, e.question)
			if err != nil {
				return nil, err
			}
			responses[pos] = append(responses[pos], resp)
		}
	}
	return responses, nil
}

// EvaluateResponses implements Experiment.
func (e *NeedleInHaystack) EvaluateResponses(_ context.Context, responses any) ([]Row, error) {
	byPosition, ok := responses.(needleResponses)
	if !ok {
		return nil, errors.New(errors.InvalidParameter, "unexpected responses type for needle experiment")
	}

	var rows []Row
	for _, pos := range docgen.Positions {
		for i, resp := range byPosition[pos] {
			accuracy, err := e.evaluator.Evaluate(resp.Text, e.expected)
			if err != nil {
				return nil, err
			}
			rows = append(rows, Row{
				"position":      string(pos),
				"doc_index":     i,
				"accuracy":      accuracy,
				"latency_ms":    resp.LatencyMs,
				"tokens_used":   resp.TokensUsed,
				"response_text": resp.Text,
				"success":       resp.Success,
			})
		}
	}
	return rows, nil
}

// Analyze implements Experiment: accuracy and latency stats per position.
func (e *NeedleInHaystack) Analyze(rows []Row) (map[string]any, error) {
	stats := make(map[string]any, len(docgen.Positions))
	for _, pos := range docgen.Positions {
		var accuracies, latencies []float64
		for _, row := range rows {
			if row["position"] != string(pos) {
				continue
			}
			accuracies = append(accuracies, row["accuracy"].(float64))
			latencies = append(latencies, row["latency_ms"].(float64))
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
		stats[string(pos)] = map[string]any{
			"accuracy": accStats.ToMap(),
			"latency_ms": map[string]any{
				"mean": latStats.Mean,
				"std":  latStats.Std,
			},
		}
	}
	return stats, nil
}

// Visualize implements Experiment: accuracy bar chart by position.
func (e *NeedleInHaystack) Visualize(_ []Row, stats map[string]any) ([]string, error) {
	labels := make([]string, 0, len(docgen.Positions))
	values := make([]float64, 0, len(docgen.Positions))
	for _, pos := range docgen.Positions {
		posStats, ok := stats[string(pos)].(map[string]any)
		if !ok {
			continue
		}
		accuracy := posStats["accuracy"].(map[string]any)
		labels = append(labels, string(pos))
		values = append(values, accuracy["mean"].(float64))
	}
	if len(labels) == 0 {
		return nil, nil
	}

	path := filepath.Join(e.outputDir, "accuracy_by_position.png")
	if err := e.plotter.BarChart(labels, values,
		"Lost in the Middle: Accuracy by Fact Position",
		"Fact Position in Context", "Accuracy (0.0 - 1.0)", path); err != nil {
		return nil, err
	}
	return []string{path}, nil
}
