package aspectree

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// Generator turns a parent aspect into a batch of candidate sub-aspects, and
// can narrate an answer along one root-to-leaf aspect path. It is stateless
// apart from its oracle and safe for concurrent use.
type Generator struct {
	oracle    Oracle
	logger    *zap.Logger
	batchSize int
}

// NewGenerator constructs a Generator. A nil logger means no logging.
func NewGenerator(o Oracle, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{oracle: o, logger: logger, batchSize: defaultMaxChildren}
}

// ProposeSubAspects asks the oracle for sub-aspects of the parent aspect and
// returns the line-split, trimmed, non-empty output together with the call
// cost. No count is guaranteed: the oracle may return more or fewer than
// requested, and truncation is the caller's job.
func (g *Generator) ProposeSubAspects(ctx context.Context, parentAspect string) ([]string, float64, error) {
	prompt, err := renderTemplate(tmplPropose, map[string]any{
		"Content": parentAspect,
		"Count":   g.batchSize,
	})
	if err != nil {
		return nil, 0, err
	}
	resp, err := g.oracle.Complete(ctx, CompletionRequest{
		System:      proposeSystemPrompt,
		Prompt:      prompt,
		Temperature: 0.7,
		MaxTokens:   500,
	})
	if err != nil {
		return nil, resp.Cost, err
	}
	aspects := splitAspects(resp.Text)
	g.logger.Debug("proposed sub-aspects",
		zap.String("parent", parentAspect),
		zap.Strings("aspects", aspects))
	return aspects, resp.Cost, nil
}

// NarrateAnswer produces a narrative answer to the question through the lens
// of one aspect path (root to leaf).
func (g *Generator) NarrateAnswer(ctx context.Context, question string, aspectPath []string) (string, float64, error) {
	if len(aspectPath) == 0 {
		return "", 0, errors.New("aspect path is empty")
	}
	prompt, err := renderTemplate(tmplNarrate, map[string]any{
		"Question": question,
		"Path":     strings.Join(aspectPath, " -> "),
	})
	if err != nil {
		return "", 0, err
	}
	resp, err := g.oracle.Complete(ctx, CompletionRequest{
		System:      narrateSystemPrompt,
		Prompt:      prompt,
		Temperature: 0.7,
		MaxTokens:   1000,
	})
	if err != nil {
		return "", resp.Cost, err
	}
	return strings.TrimSpace(resp.Text), resp.Cost, nil
}
