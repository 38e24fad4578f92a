package aspectree

import (
	"context"

	"go.uber.org/zap"
)

// reflect submits a freshly generated sibling batch to the oracle for a
// batch-level quality judgment before it joins the tree. It returns the
// final child list and whether to attach it. Exactly one ReflectionRecord is
// appended per call, whatever the outcome.
//
// An oracle failure keeps the originals: a transient outage must never
// silently shrink the tree. An unparseable verdict keeps them too unless the
// engine was configured fail-closed.
func (e *Engine) reflect(ctx context.Context, t *Tree, node *Node, candidates []string, depth int) ([]string, bool) {
	rec := ReflectionRecord{
		ParentContent: node.Content,
		Depth:         depth,
		Proposed:      candidates,
	}

	prompt, err := renderTemplate(tmplReflect, map[string]any{
		"Parent":     node.Content,
		"Candidates": candidates,
		"Count":      e.maxChildren,
	})
	if err != nil {
		rec.Decision = DecisionKeep
		t.Ledger.AddReflection(node.ID(), node.Content, rec)
		return candidates, true
	}

	resp, err := e.oracle.Complete(ctx, CompletionRequest{
		System:      reflectSystemPrompt,
		Prompt:      prompt,
		Temperature: 0.7,
		MaxTokens:   1000,
	})
	t.Cost += resp.Cost
	if err != nil {
		e.logger.Warn("reflection call failed, keeping candidates",
			zap.String("aspect", node.Content),
			zap.Int("depth", depth),
			zap.Error(err))
		rec.Decision = DecisionKeep
		t.Ledger.AddReflection(node.ID(), node.Content, rec)
		return candidates, true
	}

	verdict := parseReflection(resp.Text)
	if len(verdict.Modified) > e.maxChildren {
		verdict.Modified = verdict.Modified[:e.maxChildren]
	}

	final := candidates
	attach := true
	switch verdict.Recommendation {
	case DecisionKeep:
		rec.Decision = DecisionKeep
	case DecisionModify:
		rec.Decision = DecisionModify
		if len(verdict.Modified) > 0 {
			rec.Modified = verdict.Modified
			final = verdict.Modified
		}
	case DecisionPrune:
		rec.Decision = DecisionPrune
		final = nil
		attach = false
	default:
		// No recognizable recommendation in the response.
		if e.reflectionFailClosed {
			rec.Decision = DecisionPrune
			final = nil
			attach = false
		} else {
			rec.Decision = DecisionKeep
		}
	}

	t.Ledger.AddReflection(node.ID(), node.Content, rec)
	return final, attach
}
