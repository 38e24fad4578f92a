package aspectree

// Tree is the per-run state: the question being explored, the aspect tree
// built for it, the audit ledger, and the accumulated oracle cost. Each run
// gets a fresh Tree, so concurrent runs share nothing mutable.
type Tree struct {
	Question string
	Root     *Node
	Ledger   *Ledger
	Cost     float64
}

// Paths returns every surviving root-to-leaf content path, in depth-first
// order. Downstream stages consume these as search queries.
func (t *Tree) Paths() [][]string {
	if t.Root == nil {
		return nil
	}
	return t.Root.Paths()
}

// Render returns an ASCII sketch of the tree.
func (t *Tree) Render() string {
	if t.Root == nil {
		return ""
	}
	return t.Root.Render()
}
