package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/contextwindows/ctxlab/pkg/config"
	"github.com/contextwindows/ctxlab/pkg/corpus"
	"github.com/contextwindows/ctxlab/pkg/errors"
	"github.com/contextwindows/ctxlab/pkg/experiments"
	"github.com/contextwindows/ctxlab/pkg/llm"
	"github.com/contextwindows/ctxlab/pkg/logging"
)

func NewRunCommand() *cobra.Command {
	var (
		experiment int
		runAll     bool
		iterations int
		parallel   bool
		workers    int
		outputDir  string
		seed       int64
		configPath string
		corpusDir  string
		scriptPath string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one or all context-window experiments",
		Long: `Run the numbered experiments against the configured LLM backend:

  1  Needle in Haystack   fact recall by position (start / middle / end)
  2  Context Size Impact  accuracy and latency vs document count
  3  RAG Impact           full context vs top-k retrieval
  4  Context Strategies   SELECT vs COMPRESS vs WRITE over a multi-step script

Results are written as results.json plus PNG charts into
<output-dir>/experiment_<N>/.`,
		Example: `  # Run the needle-in-haystack experiment with 5 iterations
  ctxlab run --experiment 1 --iterations 5

  # Run everything in parallel with 8 workers
  ctxlab run --all --parallel --workers 8

  # Run the RAG comparison over an external corpus
  ctxlab run --experiment 3 --corpus-dir data/medicine

  # Run the strategies experiment with a Parquet script
  ctxlab run --experiment 4 --script data/script.parquet

  # Use a config file and verbose logging
  ctxlab run --all --config ctxlab.yaml -v`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !runAll && experiment == 0 {
				return errors.New(errors.InvalidParameter, "nothing to run: use --experiment N or --all")
			}
			if experiment != 0 && (experiment < 1 || experiment > 4) {
				return errors.WithFields(
					errors.New(errors.InvalidParameter, "experiment number must be between 1 and 4"),
					errors.Fields{"experiment": experiment})
			}

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			applyRunFlags(cmd, cfg, iterations, parallel, workers, outputDir, seed)

			if err := setupLogging(cfg.Logging, verbose); err != nil {
				return err
			}
			ctx := cmd.Context()
			logger := logging.GetLogger()
			logger.Info(ctx, "Context Windows Lab - starting (provider=%s model=%s)", cfg.LLM.Provider, cfg.LLM.Model)

			client, err := buildClient(cfg.LLM)
			if err != nil {
				return err
			}
			if !client.CheckAvailability(ctx) {
				return backendUnavailable(cfg.LLM)
			}
			logger.Info(ctx, "✓ %s backend is available", cfg.LLM.Provider)

			selected := []int{experiment}
			if runAll {
				selected = []int{1, 2, 3, 4}
			}

			succeeded := true
			for _, number := range selected {
				if err := runExperiment(ctx, number, client, cfg, corpusDir, scriptPath); err != nil {
					logger.Error(ctx, "✗ Experiment %d failed: %v", number, err)
					succeeded = false
				}
			}
			if !succeeded {
				return errors.New(errors.Unknown, "one or more experiments failed")
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&experiment, "experiment", "e", 0, "Run a specific experiment (1-4)")
	cmd.Flags().BoolVar(&runAll, "all", false, "Run all experiments sequentially")
	cmd.Flags().IntVarP(&iterations, "iterations", "i", 0, "Iterations per experiment (overrides config)")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "Run iterations in parallel")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Max parallel workers (0 = CPU count)")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Output directory for results (overrides config)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Base generation seed (overrides config)")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	cmd.Flags().StringVar(&corpusDir, "corpus-dir", "", "Directory of .txt documents for experiment 3 (replaces generated corpus)")
	cmd.Flags().StringVar(&scriptPath, "script", "", "Parquet script (fact/question/answer columns) for experiment 4")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	return cmd
}

// applyRunFlags merges explicitly-set flags over the loaded configuration.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config, iterations int, parallel bool, workers int, outputDir string, seed int64) {
	flags := cmd.Flags()
	if flags.Changed("iterations") {
		cfg.Experiments.Iterations = iterations
	}
	if flags.Changed("parallel") {
		cfg.Experiments.Parallel = parallel
	}
	if flags.Changed("workers") {
		cfg.Experiments.MaxWorkers = workers
	}
	if flags.Changed("output-dir") {
		cfg.Experiments.OutputDir = outputDir
	}
	if flags.Changed("seed") {
		cfg.Experiments.Seed = seed
	}
}

func backendUnavailable(cfg config.LLMConfig) error {
	if cfg.Provider == "ollama" {
		return errors.WithFields(
			errors.New(errors.LLMGenerationFailed,
				"Ollama is not responding; start it with `ollama serve` and pull the model with `ollama pull "+cfg.Model+"`"),
			errors.Fields{"provider": cfg.Provider, "model": cfg.Model})
	}
	return errors.WithFields(
		errors.New(errors.LLMGenerationFailed, "LLM backend is not responding"),
		errors.Fields{"provider": cfg.Provider, "model": cfg.Model})
}

// runExperiment builds the numbered experiment and drives it to completion.
func runExperiment(ctx context.Context, number int, client llm.Client, cfg *config.Config, corpusDir, scriptPath string) error {
	logger := logging.GetLogger()
	exp, err := buildExperiment(ctx, number, client, cfg, corpusDir, scriptPath)
	if err != nil {
		return err
	}

	expOutput := experimentOutputDir(cfg.Experiments.OutputDir, number)
	runner, err := experiments.NewRunner(experiments.Config{
		Name:                   exp.Name(),
		OutputDir:              expOutput,
		Iterations:             cfg.Experiments.Iterations,
		UseParallel:            cfg.Experiments.Parallel,
		MaxWorkers:             cfg.Experiments.MaxWorkers,
		Seed:                   cfg.Experiments.Seed,
		SaveResults:            cfg.Experiments.SaveResults,
		GenerateVisualizations: cfg.Experiments.GenerateVisualizations,
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "EXPERIMENT %d: %s (%d iterations)", number, exp.Name(), cfg.Experiments.Iterations)
	results, err := runner.Run(ctx, exp)
	if err != nil {
		return err
	}
	if !results.Success {
		return errors.WithFields(
			errors.New(errors.Unknown, "experiment run did not succeed"),
			errors.Fields{"experiment": exp.Name(), "error": results.Error})
	}

	logger.Info(ctx, "✓ Experiment %d completed: %d rows, %d visualizations, results in %s",
		number, len(results.RawResults), len(results.VisualizationPaths), expOutput)
	return nil
}

func experimentOutputDir(base string, number int) string {
	return filepath.Join(base, fmt.Sprintf("experiment_%d", number))
}

func buildExperiment(ctx context.Context, number int, client llm.Client, cfg *config.Config, corpusDir, scriptPath string) (experiments.Experiment, error) {
	seed := cfg.Experiments.Seed
	expOutput := experimentOutputDir(cfg.Experiments.OutputDir, number)

	switch number {
	case 1:
		return experiments.NewNeedleInHaystack(client, expOutput, experiments.WithNeedleSeed(seed))
	case 2:
		return experiments.NewContextSize(client, expOutput, experiments.WithContextSizeSeed(seed))
	case 3:
		opts := []experiments.RAGImpactOption{experiments.WithRAGSeed(seed)}
		if corpusDir != "" {
			docs, err := corpus.LoadDirectory(corpusDir)
			if err != nil {
				return nil, err
			}
			texts := make([]string, len(docs))
			for i, doc := range docs {
				texts[i] = doc.Content
			}
			opts = append(opts, experiments.WithRAGCorpus(texts))
		}
		return experiments.NewRAGImpact(client, expOutput, opts...)
	case 4:
		opts := []experiments.StrategiesOption{experiments.WithStrategiesSeed(seed)}
		if scriptPath != "" {
			script, err := corpus.LoadScriptParquet(ctx, scriptPath)
			if err != nil {
				return nil, err
			}
			opts = append(opts, experiments.WithStrategiesScript(script))
		}
		return experiments.NewContextStrategies(client, expOutput, opts...)
	default:
		return nil, errors.WithFields(
			errors.New(errors.InvalidParameter, "unknown experiment number"),
			errors.Fields{"experiment": number})
	}
}
