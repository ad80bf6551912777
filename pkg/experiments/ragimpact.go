package experiments

import (
	"context"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/contextwindows/ctxlab/pkg/docgen"
	"github.com/contextwindows/ctxlab/pkg/errors"
	"github.com/contextwindows/ctxlab/pkg/eval"
	"github.com/contextwindows/ctxlab/pkg/llm"
	"github.com/contextwindows/ctxlab/pkg/logging"
	"github.com/contextwindows/ctxlab/pkg/rag"
	"github.com/contextwindows/ctxlab/pkg/viz"
)

const (
	modeFullContext = "full_context"
	modeRAG         = "rag"
)

var ragModes = []string{modeFullContext, modeRAG}

// modeTitle renders mode names as chart labels ("full context" → "Full Context").
var modeTitle = cases.Title(language.English)

// RAGImpact compares sending the whole corpus to the model against
// sending only the top-k retrieved documents, on accuracy, latency and
// token usage.
type RAGImpact struct {
	client    llm.Client
	evaluator *eval.Evaluator
	plotter   *viz.Plotter
	outputDir string

	numDocuments     int
	wordsPerDocument int
	fact             string
	question         string
	expected         string
	topK             int
	seed             int64
	corpus           []string

	// newStore builds a fresh per-iteration vector store.
	newStore func() rag.Store
}

// RAGImpactOption configures a RAGImpact experiment.
type RAGImpactOption func(*RAGImpact)

// WithRAGDocuments sets corpus size and words per document.
func WithRAGDocuments(numDocs, wordsPerDoc int) RAGImpactOption {
	return func(e *RAGImpact) {
		e.numDocuments = numDocs
		e.wordsPerDocument = wordsPerDoc
	}
}

// WithRAGFact overrides the fact, question and expected answer.
func WithRAGFact(fact, question, expected string) RAGImpactOption {
	return func(e *RAGImpact) {
		e.fact = fact
		e.question = question
		e.expected = expected
	}
}

// WithRAGTopK sets how many documents RAG mode retrieves.
func WithRAGTopK(topK int) RAGImpactOption {
	return func(e *RAGImpact) { e.topK = topK }
}

// WithRAGCorpus runs the comparison over a fixed external corpus instead
// of generated documents. The fact is assumed to already be present in the
// corpus; pair this with WithRAGFact to match.
func WithRAGCorpus(texts []string) RAGImpactOption {
	return func(e *RAGImpact) { e.corpus = texts }
}

// WithRAGStore overrides the vector store factory.
func WithRAGStore(newStore func() rag.Store) RAGImpactOption {
	return func(e *RAGImpact) { e.newStore = newStore }
}

// WithRAGSeed sets the base generation seed.
func WithRAGSeed(seed int64) RAGImpactOption {
	return func(e *RAGImpact) { e.seed = seed }
}

// NewRAGImpact creates the experiment with the standard revenue fact over
// 20 documents and top-3 retrieval.
func NewRAGImpact(client llm.Client, outputDir string, opts ...RAGImpactOption) (*RAGImpact, error) {
	evaluator, err := eval.NewEvaluator(eval.MethodContains, false)
	if err != nil {
		return nil, err
	}

	e := &RAGImpact{
		client:           client,
		evaluator:        evaluator,
		plotter:          viz.NewPlotter(),
		outputDir:        outputDir,
		numDocuments:     20,
		wordsPerDocument: 200,
		fact:             "The quarterly revenue increased by 47% compared to last year.",
		question:         "What was the quarterly revenue growth?",
		expected:         "47%",
		topK:             3,
		seed:             42,
		newStore:         func() rag.Store { return rag.NewMemoryStore() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Name implements Experiment.
func (e *RAGImpact) Name() string { return "rag_impact" }

type ragResponses map[string]*llm.Response

// GenerateData implements Experiment: one corpus with the fact in the
// middle position, or the fixed external corpus when one was supplied.
func (e *RAGImpact) GenerateData(_ context.Context, iteration int) (any, error) {
	if len(e.corpus) > 0 {
		docs := make([]docgen.Document, len(e.corpus))
		for i, text := range e.corpus {
			docs[i] = docgen.Document{Content: text}
		}
		return docs, nil
	}
	generator := docgen.NewGenerator(docgen.WithSeed(e.seed + int64(iteration)))
	return generator.Generate(e.numDocuments, e.wordsPerDocument, e.fact, docgen.PositionMiddle)
}

// ExecuteQueries implements Experiment: one query per mode. The vector
// store is built here so every iteration gets its own.
func (e *RAGImpact) ExecuteQueries(ctx context.Context, data any) (any, error) {
	docs, ok := data.([]docgen.Document)
	if !ok {
		return nil, errors.New(errors.InvalidParameter, "unexpected data type for RAG impact experiment")
	}
	logger := logging.GetLogger()

	contents := make([]string, 0, len(docs))
	for _, doc := range docs {
		contents = append(contents, doc.Content)
	}

	responses := make(ragResponses, 2)

	logger.Debug(ctx, "Querying with full context (%d documents)", len(docs))
	fullResp, err := e.client.Query(ctx, strings.Join(contents, "\n\n"), e.question)
	if err != nil {
		return nil, err
	}
	responses[modeFullContext] = fullResp

	logger.Debug(ctx, "Querying with RAG (top-%d retrieved documents)", e.topK)
	store := e.newStore()
	if err := store.Add(ctx, contents, nil); err != nil {
		return nil, err
	}
	retrieved, err := store.Retrieve(ctx, e.question, e.topK)
	if err != nil {
		return nil, err
	}
	ragContents := make([]string, 0, len(retrieved))
	for _, doc := range retrieved {
		ragContents = append(ragContents, doc.Content)
	}

	ragResp, err := e.client.Query(ctx, strings.Join(ragContents, "\n\n"), e.question)
	if err != nil {
		return nil, err
	}
	responses[modeRAG] = ragResp

	return responses, nil
}

// EvaluateResponses implements Experiment.
func (e *RAGImpact) EvaluateResponses(_ context.Context, responses any) ([]Row, error) {
	byMode, ok := responses.(ragResponses)
	if !ok {
		return nil, errors.New(errors.InvalidParameter, "unexpected responses type for RAG impact experiment")
	}

	var rows []Row
	for _, mode := range ragModes {
		resp := byMode[mode]
		if !resp.Success {
			rows = append(rows, Row{
				"mode":          mode,
				"accuracy":      0.0,
				"latency_ms":    0.0,
				"tokens_used":   0,
				"response_text": "",
				"success":       false,
				"error":         resp.Error,
			})
			continue
		}

		accuracy, err := e.evaluator.Evaluate(resp.Text, e.expected)
		if err != nil {
			return nil, err
		}
		rows = append(rows, Row{
			"mode":          mode,
			"accuracy":      accuracy,
			"latency_ms":    resp.LatencyMs,
			"tokens_used":   resp.TokensUsed,
			"response_text": resp.Text,
			"success":       true,
		})
	}
	return rows, nil
}

// Analyze implements Experiment: stats per mode.
func (e *RAGImpact) Analyze(rows []Row) (map[string]any, error) {
	stats := make(map[string]any, len(ragModes))
	for _, mode := range ragModes {
		var accuracies, latencies, tokens []float64
		for _, row := range rows {
			if row["mode"] != mode {
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

		stats[mode] = map[string]any{
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

// Visualize implements Experiment: accuracy, latency and token bar charts.
func (e *RAGImpact) Visualize(_ []Row, stats map[string]any) ([]string, error) {
	var labels []string
	var accuracies, latencies, tokens []float64
	for _, mode := range ragModes {
		modeStats, ok := stats[mode].(map[string]any)
		if !ok {
			continue
		}
		labels = append(labels, modeTitle.String(strings.ReplaceAll(mode, "_", " ")))
		accuracies = append(accuracies, modeStats["accuracy"].(map[string]any)["mean"].(float64))
		latencies = append(latencies, modeStats["latency_ms"].(map[string]any)["mean"].(float64))
		tokens = append(tokens, modeStats["tokens_used"].(map[string]any)["mean"].(float64))
	}
	if len(labels) == 0 {
		return nil, nil
	}

	charts := []struct {
		values []float64
		title  string
		ylabel string
		file   string
	}{
		{accuracies, "Accuracy: Full Context vs RAG", "Accuracy (0.0-1.0)", "accuracy_comparison.png"},
		{latencies, "Latency: Full Context vs RAG", "Latency (ms)", "latency_comparison.png"},
		{tokens, "Token Usage: Full Context vs RAG", "Tokens Used", "tokens_comparison.png"},
	}

	paths := make([]string, 0, len(charts))
	for _, c := range charts {
		path := filepath.Join(e.outputDir, c.file)
		if err := e.plotter.BarChart(labels, c.values, c.title, "Mode", c.ylabel, path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
