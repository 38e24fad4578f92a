package aspectree

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRunnerProcessesQuestionsInOrder(t *testing.T) {
	llm := newEchoOracle().
		set(continueSystemPrompt, "No").
		set(evaluateSystemPrompt, keepEvaluation)
	e := New(WithOracle(llm))
	r := NewRunner(e, WithWorkers(2))

	questions := []string{"Q1", "Q2", "Q3", "Q4"}
	trees, err := r.Process(context.Background(), questions)
	require.NoError(t, err)
	require.Len(t, trees, 4)
	for i, tree := range trees {
		assert.Equal(t, questions[i], tree.Question)
		assert.True(t, tree.Root.IsLeaf())
	}
}

func TestRunnerSeparateLedgersPerRun(t *testing.T) {
	llm := newEchoOracle().
		set(continueSystemPrompt, "Yes").
		set(proposeSystemPrompt, "A\nB\nC").
		set(reflectSystemPrompt, "RECOMMENDATION: Keep")
	e := New(WithOracle(llm), WithMaxDepth(2))
	r := NewRunner(e)

	trees, err := r.Process(context.Background(), []string{"Q1", "Q2"})
	require.NoError(t, err)
	require.Len(t, trees, 2)
	assert.NotSame(t, trees[0].Ledger, trees[1].Ledger)
	for _, tree := range trees {
		assert.Len(t, tree.Ledger.Reflections(), 1)
		assert.Equal(t, []string{"A", "B", "C"}, childContents(tree.Root))
	}
}

func TestRunnerPropagatesConfigError(t *testing.T) {
	r := NewRunner(New()) // no oracle

	_, err := r.Process(context.Background(), []string{"Q"})
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestRunnerOracleFailuresDoNotAbortBatch(t *testing.T) {
	e := New(WithOracle(failingOracle{err: errors.New("down")}))
	r := NewRunner(e)

	trees, err := r.Process(context.Background(), []string{"Q1", "Q2"})
	require.NoError(t, err)
	require.Len(t, trees, 2)
	for _, tree := range trees {
		assert.True(t, tree.Root.IsLeaf())
	}
}
