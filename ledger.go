package aspectree

import "encoding/json"

// Decision is the reflection verdict over a batch of sibling candidates.
type Decision string

const (
	DecisionKeep   Decision = "keep"
	DecisionModify Decision = "modify"
	DecisionPrune  Decision = "prune"
)

// ReflectionRecord captures one batch-level judgment made during
// construction, before the candidates were attached to the tree.
type ReflectionRecord struct {
	ParentContent string   `json:"parent_content"`
	Depth         int      `json:"depth"`
	Proposed      []string `json:"proposed_children"`
	Decision      Decision `json:"decision"`
	Modified      []string `json:"modified_children,omitempty"`
}

// EvaluationRecord captures one node-level relevance judgment made during
// pruning. PathToRoot holds the ancestor contents, excluding the node itself.
type EvaluationRecord struct {
	NodeContent    string   `json:"node_content"`
	ParentContent  string   `json:"parent_content"`
	Depth          int      `json:"depth"`
	Siblings       []string `json:"siblings"`
	PathToRoot     []string `json:"path_to_root"`
	RelevanceScore float64  `json:"relevance_score"`
	AddsValue      bool     `json:"adds_value"`
}

// ledgerEntry pairs a record with the node it belongs to. Exactly one of
// reflection/evaluation is set.
type ledgerEntry struct {
	nodeID     string
	content    string
	reflection *ReflectionRecord
	evaluation *EvaluationRecord
}

// Ledger is the append-only audit trail of a single run. Records are keyed
// internally by node ID, so distinct nodes with identical wording never
// collapse; the serialized form groups them by content string, which is the
// contract downstream audit tooling consumes. Entry order equals call order.
//
// A Ledger belongs to one run and is not safe for concurrent use; concurrent
// question pipelines each get their own (see Runner).
type Ledger struct {
	entries []ledgerEntry
	byNode  map[string][]int
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{byNode: make(map[string][]int)}
}

// AddReflection appends a reflection record for the given node.
func (l *Ledger) AddReflection(nodeID, content string, rec ReflectionRecord) {
	l.append(ledgerEntry{nodeID: nodeID, content: content, reflection: &rec})
}

// AddEvaluation appends a pruning evaluation record for the given node.
func (l *Ledger) AddEvaluation(nodeID, content string, rec EvaluationRecord) {
	l.append(ledgerEntry{nodeID: nodeID, content: content, evaluation: &rec})
}

func (l *Ledger) append(e ledgerEntry) {
	l.byNode[e.nodeID] = append(l.byNode[e.nodeID], len(l.entries))
	l.entries = append(l.entries, e)
}

// Len returns the total number of records.
func (l *Ledger) Len() int { return len(l.entries) }

// Reflections returns every reflection record in insertion order.
func (l *Ledger) Reflections() []ReflectionRecord {
	var out []ReflectionRecord
	for _, e := range l.entries {
		if e.reflection != nil {
			out = append(out, *e.reflection)
		}
	}
	return out
}

// Evaluations returns every pruning evaluation record in insertion order.
func (l *Ledger) Evaluations() []EvaluationRecord {
	var out []EvaluationRecord
	for _, e := range l.entries {
		if e.evaluation != nil {
			out = append(out, *e.evaluation)
		}
	}
	return out
}

// NodeRecordCount returns how many records were appended for one node ID.
func (l *Ledger) NodeRecordCount(nodeID string) int {
	return len(l.byNode[nodeID])
}

// MarshalJSON encodes the ledger as a mapping from node content to its
// ordered record list. A "type" tag tells the two record kinds apart. Nodes
// sharing content merge in this view only.
func (l *Ledger) MarshalJSON() ([]byte, error) {
	grouped := make(map[string][]json.RawMessage)
	for _, e := range l.entries {
		var (
			raw []byte
			err error
		)
		if e.reflection != nil {
			raw, err = json.Marshal(struct {
				Type string `json:"type"`
				ReflectionRecord
			}{"reflection", *e.reflection})
		} else {
			raw, err = json.Marshal(struct {
				Type string `json:"type"`
				EvaluationRecord
			}{"pruning_evaluation", *e.evaluation})
		}
		if err != nil {
			return nil, err
		}
		grouped[e.content] = append(grouped[e.content], raw)
	}
	return json.Marshal(grouped)
}
