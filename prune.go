package aspectree

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// rootSentinel is the parent content reported for the root node, which has
// no parent of its own.
const rootSentinel = "ROOT"

// Prune runs the bottom-up relevance pass over a completed tree, removing
// every subtree whose own root scores below the threshold or adds no value.
// The tree is mutated in place and one EvaluationRecord is appended per node
// visited; a pruned node's descendants are discarded without being scored.
//
// The root is scored like any other node but never removed, so a fully
// pruned tree is a bare root, a valid outcome rather than an error. Oracle
// failures prune the affected node unless WithKeepOnEvaluationError was set.
func (e *Engine) Prune(ctx context.Context, t *Tree) error {
	if err := e.checkConfig(); err != nil {
		return err
	}
	if t == nil || t.Root == nil {
		return &ConfigError{Reason: "tree has no root"}
	}
	e.pruneNode(ctx, t, t.Root, rootSentinel, 0, nil)
	return nil
}

// pruneNode scores one node and reports whether its parent should drop it.
// Children are filtered with the same predicate, recursively, only when the
// node itself survives.
func (e *Engine) pruneNode(ctx context.Context, t *Tree, node *Node, parentContent string, depth int, pathToRoot []string) bool {
	score, addsValue := e.evaluateRelevance(ctx, t, node, parentContent, depth, pathToRoot)

	if node.parent != nil && (score < e.threshold || !addsValue) {
		e.logger.Debug("pruning node",
			zap.String("aspect", node.Content),
			zap.Float64("score", score),
			zap.Bool("adds_value", addsValue))
		return true
	}

	currentPath := make([]string, 0, len(pathToRoot)+1)
	currentPath = append(currentPath, pathToRoot...)
	currentPath = append(currentPath, node.Content)

	// Children is reassigned only after every child has been judged:
	// evaluateRelevance reads the sibling set through the parent, so it must
	// stay intact for the whole loop.
	kept := make([]*Node, 0, len(node.Children))
	for _, child := range node.Children {
		if !e.pruneNode(ctx, t, child, node.Content, depth+1, currentPath) {
			kept = append(kept, child)
		}
	}
	node.Children = kept
	return false
}

// evaluateRelevance asks the oracle to score one node against the original
// question, applies the qualitative adjustments, and records the judgment.
// On oracle failure it records a zero score and returns the configured
// failure policy (drop by default).
func (e *Engine) evaluateRelevance(ctx context.Context, t *Tree, node *Node, parentContent string, depth int, pathToRoot []string) (float64, bool) {
	siblings := siblingContents(node)
	rec := EvaluationRecord{
		NodeContent:   node.Content,
		ParentContent: parentContent,
		Depth:         depth,
		Siblings:      siblings,
		PathToRoot:    append([]string(nil), pathToRoot...),
	}

	fullPath := strings.Join(append(append([]string(nil), pathToRoot...), node.Content), " -> ")
	prompt, err := renderTemplate(tmplEvaluate, map[string]any{
		"Question": t.Question,
		"Depth":    depth,
		"Path":     fullPath,
		"Parent":   parentContent,
		"Content":  node.Content,
		"Siblings": siblings,
	})
	if err == nil {
		var resp Completion
		resp, err = e.oracle.Complete(ctx, CompletionRequest{
			System:      evaluateSystemPrompt,
			Prompt:      prompt,
			Temperature: 0.3,
			MaxTokens:   200,
		})
		t.Cost += resp.Cost
		if err == nil {
			ev := parseEvaluation(resp.Text)
			rec.RelevanceScore = adjustScore(ev)
			rec.AddsValue = ev.AddsValue
			t.Ledger.AddEvaluation(node.ID(), node.Content, rec)
			return rec.RelevanceScore, rec.AddsValue
		}
	}

	e.logger.Warn("relevance evaluation failed",
		zap.String("aspect", node.Content),
		zap.Int("depth", depth),
		zap.Bool("keeping", e.keepOnEvalError),
		zap.Error(err))
	if e.keepOnEvalError {
		// Record the fallback values so a ledger replay reaches the
		// same keep decision.
		rec.RelevanceScore = e.threshold
		rec.AddsValue = true
	}
	t.Ledger.AddEvaluation(node.ID(), node.Content, rec)
	return rec.RelevanceScore, rec.AddsValue
}

// adjustScore applies the multiplicative adjustments in their fixed order:
// redundancy, then complementarity, then path coherence. The result is
// deliberately unclamped.
func adjustScore(ev evaluation) float64 {
	score := ev.Score
	if ev.Redundancy {
		score *= 0.8
	}
	switch ev.Complementarity {
	case "High":
		score *= 1.2
	case "Low":
		score *= 0.8
	}
	switch ev.PathCoherence {
	case "High":
		score *= 1.2
	case "Low":
		score *= 0.8
	}
	return score
}
