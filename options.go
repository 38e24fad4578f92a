package aspectree

import "go.uber.org/zap"

const (
	defaultMaxDepth       = 3
	defaultMaxChildren    = 3
	defaultPruneThreshold = 7.0
)

// Option configures an Engine.
type Option func(*Engine)

// WithOracle sets the language model client. Required.
func WithOracle(o Oracle) Option {
	return func(e *Engine) { e.oracle = o }
}

// WithMaxDepth bounds the tree depth. Expansion stops unconditionally once a
// node sits at this depth, before any oracle call is made.
func WithMaxDepth(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxDepth = n
		}
	}
}

// WithMaxChildren caps how many candidate sub-aspects are kept per expansion.
// The oracle may return fewer; extras are truncated.
func WithMaxChildren(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxChildren = n
		}
	}
}

// WithPruneThreshold sets the adjusted-relevance score below which a node is
// removed during pruning.
func WithPruneThreshold(t float64) Option {
	return func(e *Engine) { e.threshold = t }
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithReflectionFailClosed makes an unparseable reflection verdict discard
// the candidate batch instead of keeping it. The default keeps the batch:
// dropping a whole sibling set over a formatting hiccup costs more than
// letting the pruning pass judge the nodes individually later.
func WithReflectionFailClosed(failClosed bool) Option {
	return func(e *Engine) { e.reflectionFailClosed = failClosed }
}

// WithKeepOnEvaluationError makes an oracle failure during pruning keep the
// node instead of dropping it. The default drops it: a spuriously pruned
// node can be recovered by re-running, while a spuriously kept one pollutes
// every downstream stage.
func WithKeepOnEvaluationError(keep bool) Option {
	return func(e *Engine) { e.keepOnEvalError = keep }
}
