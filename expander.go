package aspectree

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// BuildTree creates a root node holding the question and expands it
// depth-first until the depth bound or a stop decision. Oracle failures are
// absorbed: the worst outcome of any single failed call is that one branch
// stops growing, so construction always terminates and the returned tree is
// always valid. The only errors returned are configuration problems detected
// before the traversal starts.
func (e *Engine) BuildTree(ctx context.Context, question string) (*Tree, error) {
	if err := e.checkConfig(); err != nil {
		return nil, err
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, &ConfigError{Reason: "question is empty"}
	}

	t := &Tree{
		Question: question,
		Root:     NewRoot(question),
		Ledger:   NewLedger(),
	}
	e.expand(ctx, t, t.Root, 1)
	return t, nil
}

// expand grows one node: decide whether to continue, generate candidates,
// reflect on the batch, attach survivors, and recurse.
func (e *Engine) expand(ctx context.Context, t *Tree, node *Node, depth int) {
	if !e.shouldContinue(ctx, t, node.Content, depth) {
		return
	}

	candidates, cost, err := e.gen.ProposeSubAspects(ctx, node.Content)
	t.Cost += cost
	if err != nil {
		// Fail closed: the branch stays a leaf.
		e.logger.Warn("sub-aspect generation failed, stopping branch",
			zap.String("aspect", node.Content),
			zap.Int("depth", depth),
			zap.Error(err))
		return
	}
	if len(candidates) > e.maxChildren {
		candidates = candidates[:e.maxChildren]
	}
	if len(candidates) == 0 {
		return
	}

	final, attach := e.reflect(ctx, t, node, candidates, depth)
	if !attach || len(final) == 0 {
		e.logger.Debug("reflection pruned candidate batch",
			zap.String("aspect", node.Content),
			zap.Int("depth", depth))
		return
	}

	children := node.Expand(final)
	e.logger.Debug("attached children",
		zap.String("aspect", node.Content),
		zap.Int("depth", depth),
		zap.Strings("children", final))
	for _, child := range children {
		e.expand(ctx, t, child, depth+1)
	}
}

// shouldContinue decides whether an aspect needs further breakdown. The
// depth bound is enforced before any oracle call; past that, only a
// "yes"-prefixed oracle reply continues, and an oracle failure stops the
// branch.
func (e *Engine) shouldContinue(ctx context.Context, t *Tree, content string, depth int) bool {
	if depth >= e.maxDepth {
		return false
	}

	prompt, err := renderTemplate(tmplContinue, map[string]any{"Content": content})
	if err != nil {
		return false
	}
	resp, err := e.oracle.Complete(ctx, CompletionRequest{
		System:      continueSystemPrompt,
		Prompt:      prompt,
		Temperature: 0,
		MaxTokens:   10,
	})
	t.Cost += resp.Cost
	if err != nil {
		e.logger.Warn("continue check failed, stopping branch",
			zap.String("aspect", content),
			zap.Int("depth", depth),
			zap.Error(err))
		return false
	}
	return isYes(resp.Text)
}
