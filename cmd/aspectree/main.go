// Command aspectree breaks questions down into aspect trees using a language
// model, prunes them for relevance, and writes the trees, paths, and audit
// ledgers as JSON.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/smhanov/aspectree"
	"github.com/smhanov/aspectree/oracle"
)

var (
	cfgPath string
	cfg     *Config
	logger  *zap.Logger
)

func main() {
	root := &cobra.Command{
		Use:   "aspectree",
		Short: "Decompose questions into pruned aspect trees",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = loadConfig(cfgPath)
			if err != nil {
				return err
			}
			if cfg.Verbose {
				logger, err = zap.NewDevelopment()
			} else {
				logger, err = zap.NewProduction()
			}
			if err != nil {
				return fmt.Errorf("failed to build logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to YAML config file")

	root.AddCommand(newAskCmd(), newBatchCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newAskCmd() *cobra.Command {
	var narrate bool
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Build and prune an aspect tree for a single question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := buildEngine()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			tree, err := engine.BuildTree(ctx, args[0])
			if err != nil {
				return err
			}
			if err := engine.Prune(ctx, tree); err != nil {
				return err
			}

			fmt.Println(tree.Render())
			for _, p := range tree.Paths() {
				fmt.Println(joinPath(p))
			}
			if narrate {
				for _, p := range tree.Paths() {
					answer, cost, err := engine.Generator().NarrateAnswer(ctx, tree.Question, p)
					if err != nil {
						logger.Warn("narration failed", zap.Strings("path", p), zap.Error(err))
						continue
					}
					tree.Cost += cost
					fmt.Printf("\n--- %s ---\n%s\n", joinPath(p), answer)
				}
			}
			logger.Info("done", zap.Float64("cost", tree.Cost))
			return writeRunOutputs(filepath.Join(cfg.Output, "q0"), tree)
		},
	}
	cmd.Flags().BoolVar(&narrate, "narrate", false, "narrate an answer along each surviving path")
	return cmd
}

func newBatchCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "batch <file.jsonl>",
		Short: "Process a JSONL file of {\"prompt\": ...} records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			questions, err := readPrompts(args[0], limit)
			if err != nil {
				return err
			}
			if len(questions) == 0 {
				return fmt.Errorf("no prompts found in %s", args[0])
			}

			engine, err := buildEngine()
			if err != nil {
				return err
			}
			runner := aspectree.NewRunner(engine, aspectree.WithWorkers(cfg.Workers))
			trees, err := runner.Process(cmd.Context(), questions)
			if err != nil {
				return err
			}

			type result struct {
				Question  string     `json:"question"`
				Paths     [][]string `json:"paths"`
				Cost      float64    `json:"cost"`
				OutputDir string     `json:"output_dir"`
			}
			results := make([]result, 0, len(trees))
			var total float64
			for i, tree := range trees {
				dir := filepath.Join(cfg.Output, fmt.Sprintf("q%d", i))
				if err := writeRunOutputs(dir, tree); err != nil {
					return err
				}
				total += tree.Cost
				results = append(results, result{
					Question:  tree.Question,
					Paths:     tree.Paths(),
					Cost:      tree.Cost,
					OutputDir: dir,
				})
			}
			logger.Info("batch done",
				zap.Int("questions", len(trees)),
				zap.Float64("total_cost", total))
			return writeJSON(filepath.Join(cfg.Output, "results.json"), results)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "process at most this many prompts (0 = all)")
	return cmd
}

func buildEngine() (*aspectree.Engine, error) {
	var llm aspectree.Oracle
	switch cfg.Oracle.Backend {
	case "openai":
		opts := []oracle.OpenAIOption{
			oracle.WithModel(cfg.Oracle.Model),
			oracle.WithBaseURL(cfg.Oracle.Endpoint),
		}
		if cfg.Oracle.RPS > 0 {
			opts = append(opts, oracle.WithRateLimit(cfg.Oracle.RPS, 1))
		}
		llm = oracle.NewOpenAI(cfg.Oracle.APIKey, opts...)
	case "ollama":
		endpoint := cfg.Oracle.Endpoint
		if endpoint == "" {
			endpoint = "localhost:11434"
		}
		llm = oracle.NewOllama(endpoint, oracle.WithOllamaModel(cfg.Oracle.Model))
	default:
		return nil, fmt.Errorf("unknown oracle backend %q", cfg.Oracle.Backend)
	}

	opts := []aspectree.Option{
		aspectree.WithOracle(llm),
		aspectree.WithLogger(logger),
		aspectree.WithKeepOnEvaluationError(cfg.Engine.KeepOnError),
	}
	if cfg.Engine.MaxDepth > 0 {
		opts = append(opts, aspectree.WithMaxDepth(cfg.Engine.MaxDepth))
	}
	if cfg.Engine.MaxChildren > 0 {
		opts = append(opts, aspectree.WithMaxChildren(cfg.Engine.MaxChildren))
	}
	if cfg.Engine.PruneThreshold > 0 {
		opts = append(opts, aspectree.WithPruneThreshold(cfg.Engine.PruneThreshold))
	}
	return aspectree.New(opts...), nil
}

// readPrompts reads a JSONL file of {"prompt": ...} records, skipping blank
// lines. A positive limit caps how many are returned.
func readPrompts(path string, limit int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open prompts file: %w", err)
	}
	defer f.Close()

	var prompts []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec struct {
			Prompt string `json:"prompt"`
		}
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("malformed JSONL line: %w", err)
		}
		if rec.Prompt == "" {
			continue
		}
		prompts = append(prompts, rec.Prompt)
		if limit > 0 && len(prompts) >= limit {
			break
		}
	}
	return prompts, scanner.Err()
}

// writeRunOutputs writes one run's tree, paths, and ledger under dir.
func writeRunOutputs(dir string, t *aspectree.Tree) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	if err := writeJSON(filepath.Join(dir, "tree.json"), t.Root); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, "paths.json"), t.Paths()); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, "ledger.json"), t.Ledger)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func joinPath(p []string) string {
	return strings.Join(p, " -> ")
}
