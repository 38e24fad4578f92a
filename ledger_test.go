package aspectree

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerInsertionOrder(t *testing.T) {
	l := NewLedger()
	l.AddReflection("id1", "A", ReflectionRecord{ParentContent: "Q", Depth: 1, Decision: DecisionKeep})
	l.AddEvaluation("id1", "A", EvaluationRecord{NodeContent: "A", RelevanceScore: 8})
	l.AddReflection("id2", "B", ReflectionRecord{ParentContent: "Q", Depth: 1, Decision: DecisionPrune})

	assert.Equal(t, 3, l.Len())

	refs := l.Reflections()
	require.Len(t, refs, 2)
	assert.Equal(t, DecisionKeep, refs[0].Decision)
	assert.Equal(t, DecisionPrune, refs[1].Decision)

	evals := l.Evaluations()
	require.Len(t, evals, 1)
	assert.Equal(t, "A", evals[0].NodeContent)
}

func TestLedgerKeysByNodeID(t *testing.T) {
	// Two distinct nodes with identical wording stay distinct internally.
	l := NewLedger()
	l.AddEvaluation("id1", "Cost", EvaluationRecord{NodeContent: "Cost", RelevanceScore: 8})
	l.AddEvaluation("id2", "Cost", EvaluationRecord{NodeContent: "Cost", RelevanceScore: 3})

	assert.Equal(t, 1, l.NodeRecordCount("id1"))
	assert.Equal(t, 1, l.NodeRecordCount("id2"))
	assert.Zero(t, l.NodeRecordCount("id3"))
}

func TestLedgerMarshalGroupsByContent(t *testing.T) {
	l := NewLedger()
	l.AddReflection("id1", "A", ReflectionRecord{
		ParentContent: "Q",
		Depth:         1,
		Proposed:      []string{"A1", "A2"},
		Decision:      DecisionKeep,
	})
	l.AddEvaluation("id1", "A", EvaluationRecord{
		NodeContent:    "A",
		ParentContent:  "Q",
		Depth:          1,
		RelevanceScore: 8,
		AddsValue:      true,
	})
	// A second node sharing content merges into the same group.
	l.AddEvaluation("id2", "A", EvaluationRecord{
		NodeContent:    "A",
		ParentContent:  "B",
		Depth:          2,
		RelevanceScore: 5,
	})

	data, err := json.Marshal(l)
	require.NoError(t, err)

	var decoded map[string][]map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Contains(t, decoded, "A")
	records := decoded["A"]
	require.Len(t, records, 3)

	assert.Equal(t, "reflection", records[0]["type"])
	assert.Equal(t, "Q", records[0]["parent_content"])
	assert.Equal(t, []any{"A1", "A2"}, records[0]["proposed_children"])

	assert.Equal(t, "pruning_evaluation", records[1]["type"])
	assert.Equal(t, 8.0, records[1]["relevance_score"])
	assert.Equal(t, true, records[1]["adds_value"])

	assert.Equal(t, "pruning_evaluation", records[2]["type"])
	assert.Equal(t, "B", records[2]["parent_content"])
}

func TestLedgerMarshalEmpty(t *testing.T) {
	data, err := json.Marshal(NewLedger())
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))
}
