package aspectree

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const badEvaluation = "RELEVANCE_SCORE: 3\nADDS_VALUE: No\nCOMPLEMENTARITY: Low\nREDUNDANCY: Yes\nPATH_COHERENCE: Low"

// handTree builds a 10-node tree without the oracle: a root with three
// children, each with two children of its own.
func handTree() *Tree {
	root := NewRoot("How do autonomous agents work?")
	children := root.Expand([]string{"Understanding", "Tool Usage", "Collaboration"})
	children[0].Expand([]string{"Parsing", "Context"})
	children[1].Expand([]string{"APIs", "Sandboxing"})
	children[2].Expand([]string{"Delegation", "Consensus"})
	return &Tree{Question: root.Content, Root: root, Ledger: NewLedger()}
}

func TestPruneKeepsEverythingAboveThreshold(t *testing.T) {
	llm := fullTreeOracle().scriptRepeat(evaluateSystemPrompt, keepEvaluation, 13)
	e := New(WithOracle(llm), WithMaxDepth(3), WithMaxChildren(3))

	tree, err := e.BuildTree(context.Background(), "Q")
	require.NoError(t, err)
	require.NoError(t, e.Prune(context.Background(), tree))

	assert.Len(t, tree.Paths(), 9)
	recs := tree.Ledger.Evaluations()
	require.Len(t, recs, 13)

	// The root is scored like everything else, against the ROOT sentinel.
	assert.Equal(t, "Q", recs[0].NodeContent)
	assert.Equal(t, "ROOT", recs[0].ParentContent)
	assert.Equal(t, 0, recs[0].Depth)
	assert.Empty(t, recs[0].PathToRoot)
	assert.InDelta(t, 8.0, recs[0].RelevanceScore, 1e-9)
	assert.True(t, recs[0].AddsValue)
}

func TestPruneRemovesSubtreeAndSkipsDescendants(t *testing.T) {
	// Pre-order: root, Understanding, its two children, then Tool Usage,
	// which fails the bar. Its children are never scored; the traversal
	// continues with Collaboration.
	llm := newScriptedOracle().
		script(evaluateSystemPrompt,
			keepEvaluation, // root
			keepEvaluation, // Understanding
			keepEvaluation, // Parsing
			keepEvaluation, // Context
			badEvaluation,  // Tool Usage
			keepEvaluation, // Collaboration
			keepEvaluation, // Delegation
			keepEvaluation) // Consensus
	e := New(WithOracle(llm))

	tree := handTree()
	require.NoError(t, e.Prune(context.Background(), tree))

	assert.Equal(t, []string{"Understanding", "Collaboration"}, childContents(tree.Root))
	for _, p := range tree.Paths() {
		assert.NotContains(t, p, "Tool Usage")
	}

	recs := tree.Ledger.Evaluations()
	require.Len(t, recs, 8)
	assert.Equal(t, "Tool Usage", recs[4].NodeContent)
	assert.False(t, recs[4].AddsValue)

	// Sibling metadata reflects the tree as built, not as pruned.
	assert.Equal(t, []string{"Tool Usage", "Collaboration"}, recs[1].Siblings)
	assert.Equal(t, []string{"How do autonomous agents work?", "Understanding"}, recs[2].PathToRoot)
}

func TestPruneFirstChildLeavesSiblingSetIntact(t *testing.T) {
	// Removing an early child must not disturb the sibling context of the
	// children still waiting to be scored: B and C are each evaluated
	// against the full original sibling set, A included.
	llm := newScriptedOracle().
		script(evaluateSystemPrompt,
			keepEvaluation, // root
			badEvaluation,  // A
			keepEvaluation, // B
			keepEvaluation) // C
	e := New(WithOracle(llm))

	root := NewRoot("Q")
	root.Expand([]string{"A", "B", "C"})
	tree := &Tree{Question: "Q", Root: root, Ledger: NewLedger()}
	require.NoError(t, e.Prune(context.Background(), tree))

	assert.Equal(t, []string{"B", "C"}, childContents(tree.Root))

	recs := tree.Ledger.Evaluations()
	require.Len(t, recs, 4)
	assert.Equal(t, []string{"B", "C"}, recs[1].Siblings)
	assert.Equal(t, []string{"A", "C"}, recs[2].Siblings)
	assert.Equal(t, []string{"A", "B"}, recs[3].Siblings)
}

func TestPruneRootNeverRemoved(t *testing.T) {
	llm := newScriptedOracle().script(evaluateSystemPrompt, badEvaluation)
	e := New(WithOracle(llm))

	root := NewRoot("Q")
	tree := &Tree{Question: "Q", Root: root, Ledger: NewLedger()}
	require.NoError(t, e.Prune(context.Background(), tree))

	assert.Same(t, root, tree.Root)
	require.Len(t, tree.Ledger.Evaluations(), 1)
}

func TestPruneAddsValueNoOverridesScore(t *testing.T) {
	// A high score still loses to an explicit "adds no value".
	llm := newScriptedOracle().script(evaluateSystemPrompt,
		keepEvaluation,
		"RELEVANCE_SCORE: 9\nADDS_VALUE: No\nCOMPLEMENTARITY: Medium\nREDUNDANCY: No\nPATH_COHERENCE: Medium",
		keepEvaluation)
	e := New(WithOracle(llm))

	root := NewRoot("Q")
	root.Expand([]string{"A", "B"})
	tree := &Tree{Question: "Q", Root: root, Ledger: NewLedger()}
	require.NoError(t, e.Prune(context.Background(), tree))

	assert.Equal(t, []string{"B"}, childContents(tree.Root))
}

func TestPruneMultiplierPushesBelowThreshold(t *testing.T) {
	// 8 * 0.8 (redundancy) = 6.4, under the default threshold of 7.
	llm := newScriptedOracle().script(evaluateSystemPrompt,
		keepEvaluation,
		"RELEVANCE_SCORE: 8\nADDS_VALUE: Yes\nCOMPLEMENTARITY: Medium\nREDUNDANCY: Yes\nPATH_COHERENCE: Medium")
	e := New(WithOracle(llm))

	root := NewRoot("Q")
	root.Expand([]string{"A"})
	tree := &Tree{Question: "Q", Root: root, Ledger: NewLedger()}
	require.NoError(t, e.Prune(context.Background(), tree))

	assert.True(t, tree.Root.IsLeaf())
	recs := tree.Ledger.Evaluations()
	require.Len(t, recs, 2)
	assert.InDelta(t, 6.4, recs[1].RelevanceScore, 1e-9)
}

func TestPruneIdempotent(t *testing.T) {
	llm := newEchoOracle().set(evaluateSystemPrompt, keepEvaluation)
	e := New(WithOracle(llm))

	tree := handTree()
	require.NoError(t, e.Prune(context.Background(), tree))
	pathsAfterFirst := tree.Paths()

	require.NoError(t, e.Prune(context.Background(), tree))
	assert.Equal(t, pathsAfterFirst, tree.Paths())
	// The ledger is append-only: the second pass added a fresh set.
	assert.Len(t, tree.Ledger.Evaluations(), 20)
}

func TestPruneOracleFailureDropsByDefault(t *testing.T) {
	llm := newScriptedOracle().script(evaluateSystemPrompt, keepEvaluation)
	e := New(WithOracle(llm))

	root := NewRoot("Q")
	root.Expand([]string{"A"})
	tree := &Tree{Question: "Q", Root: root, Ledger: NewLedger()}
	require.NoError(t, e.Prune(context.Background(), tree))

	assert.True(t, tree.Root.IsLeaf())
	recs := tree.Ledger.Evaluations()
	require.Len(t, recs, 2)
	assert.Zero(t, recs[1].RelevanceScore)
	assert.False(t, recs[1].AddsValue)
}

func TestPruneOracleFailureKeepsWhenConfigured(t *testing.T) {
	e := New(
		WithOracle(failingOracle{err: errors.New("timeout")}),
		WithKeepOnEvaluationError(true))

	tree := handTree()
	require.NoError(t, e.Prune(context.Background(), tree))

	assert.Len(t, tree.Paths(), 6)
	recs := tree.Ledger.Evaluations()
	require.Len(t, recs, 10)
	// Fallback records carry the values that justify keeping the node.
	assert.InDelta(t, defaultPruneThreshold, recs[0].RelevanceScore, 1e-9)
	assert.True(t, recs[0].AddsValue)
}

func TestPruneNilTree(t *testing.T) {
	e := New(WithOracle(newScriptedOracle()))

	var cfgErr *ConfigError
	require.ErrorAs(t, e.Prune(context.Background(), nil), &cfgErr)
	require.ErrorAs(t, e.Prune(context.Background(), &Tree{}), &cfgErr)
}

func TestAdjustScore(t *testing.T) {
	cases := []struct {
		name string
		ev   evaluation
		want float64
	}{
		{"neutral", evaluation{Score: 8, Complementarity: "Medium", PathCoherence: "Medium"}, 8},
		{"redundant", evaluation{Score: 8, Redundancy: true, Complementarity: "Medium", PathCoherence: "Medium"}, 6.4},
		{"high both", evaluation{Score: 5, Complementarity: "High", PathCoherence: "High"}, 7.2},
		{"low both", evaluation{Score: 10, Complementarity: "Low", PathCoherence: "Low"}, 6.4},
		{"all penalties", evaluation{Score: 10, Redundancy: true, Complementarity: "Low", PathCoherence: "Low"}, 5.12},
		{"boost above ten", evaluation{Score: 9, Complementarity: "High", PathCoherence: "High"}, 12.96},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, adjustScore(tc.ev), 1e-9)
		})
	}
}
