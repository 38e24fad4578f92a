package aspectree

import "go.uber.org/zap"

// Engine coordinates the tree expander, reflection evaluator, and relevance
// pruner for one configuration. An Engine is immutable after New and safe to
// share across concurrent runs; all mutable state lives in the Tree each run
// returns.
type Engine struct {
	oracle               Oracle
	gen                  *Generator
	maxDepth             int
	maxChildren          int
	threshold            float64
	reflectionFailClosed bool
	keepOnEvalError      bool
	logger               *zap.Logger
}

// New constructs an Engine with optional configuration.
func New(opts ...Option) *Engine {
	e := &Engine{
		maxDepth:    defaultMaxDepth,
		maxChildren: defaultMaxChildren,
		threshold:   defaultPruneThreshold,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.oracle != nil {
		e.gen = NewGenerator(e.oracle, e.logger)
		e.gen.batchSize = e.maxChildren
	}
	return e
}

// Generator returns the aspect generator backed by this engine's oracle, for
// callers that want to narrate answers over the surviving paths. Nil until
// an oracle is configured.
func (e *Engine) Generator() *Generator { return e.gen }

// checkConfig validates the parameters a traversal depends on. Called at the
// top of BuildTree and Prune so misconfiguration surfaces before any oracle
// call, never mid-tree.
func (e *Engine) checkConfig() error {
	if e.oracle == nil {
		return &ConfigError{Reason: "oracle is not configured"}
	}
	if e.maxDepth < 1 {
		return &ConfigError{Reason: "max depth must be at least 1"}
	}
	if e.maxChildren < 1 {
		return &ConfigError{Reason: "max children must be at least 1"}
	}
	if e.threshold < 0 {
		return &ConfigError{Reason: "prune threshold must not be negative"}
	}
	return nil
}
