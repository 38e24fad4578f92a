package aspectree

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultRunnerWorkers = 4

// Runner processes independent questions concurrently, one full
// build-then-prune pipeline per question. Each run owns its Tree and Ledger,
// so the only shared resource is the engine's oracle client, which is
// thread-safe by contract.
type Runner struct {
	engine  *Engine
	workers int
	logger  *zap.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithWorkers bounds how many questions are processed at once.
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// NewRunner constructs a Runner around an engine.
func NewRunner(e *Engine, opts ...RunnerOption) *Runner {
	r := &Runner{engine: e, workers: defaultRunnerWorkers, logger: e.logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Process builds and prunes one tree per question, returning results in
// input order. Oracle failures are absorbed inside each run as usual; only
// configuration errors (or a cancelled context) abort the batch.
func (r *Runner) Process(ctx context.Context, questions []string) ([]*Tree, error) {
	trees := make([]*Tree, len(questions))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, question := range questions {
		i, question := i, question
		g.Go(func() error {
			r.logger.Info("processing question",
				zap.Int("index", i),
				zap.String("question", question))
			tree, err := r.engine.BuildTree(ctx, question)
			if err != nil {
				return err
			}
			if err := r.engine.Prune(ctx, tree); err != nil {
				return err
			}
			r.logger.Info("question done",
				zap.Int("index", i),
				zap.Int("paths", len(tree.Paths())),
				zap.Float64("cost", tree.Cost))
			trees[i] = tree
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return trees, nil
}
