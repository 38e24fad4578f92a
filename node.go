package aspectree

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
)

// Node is a vertex in the aspect tree. It owns its children; the parent link
// is a non-owning back-reference used for path reconstruction. Children are
// kept in generation order.
type Node struct {
	id       string
	Content  string
	parent   *Node
	Children []*Node
}

// NewRoot creates a detached root node holding the given content. The
// engine creates roots itself during BuildTree; NewRoot exists for callers
// that assemble trees by hand (tests, replays, pruning-only use).
func NewRoot(content string) *Node {
	return &Node{id: uuid.NewString(), Content: content}
}

// ID returns the node's stable identifier, assigned at creation. The Ledger
// keys records by ID so that two nodes with identical wording at different
// tree positions stay distinct.
func (n *Node) ID() string { return n.id }

// Parent returns the node's parent, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// Expand appends one child per content string, in order, and returns the new
// children. Children are only ever created here — never re-parented — so the
// tree is acyclic by construction.
func (n *Node) Expand(contents []string) []*Node {
	added := make([]*Node, 0, len(contents))
	for _, content := range contents {
		child := &Node{id: uuid.NewString(), Content: content, parent: n}
		n.Children = append(n.Children, child)
		added = append(added, child)
	}
	return added
}

// Path walks the parent links and returns the contents from the root down to
// this node, inclusive.
func (n *Node) Path() []string {
	var rev []string
	for node := n; node != nil; node = node.parent {
		rev = append(rev, node.Content)
	}
	path := make([]string, 0, len(rev))
	for i := len(rev) - 1; i >= 0; i-- {
		path = append(path, rev[i])
	}
	return path
}

// Depth returns the number of edges between the node and its root.
func (n *Node) Depth() int {
	d := 0
	for node := n.parent; node != nil; node = node.parent {
		d++
	}
	return d
}

// Paths collects every root-to-leaf path in the subtree rooted at n, in
// depth-first order. A childless node yields a single one-element path.
func (n *Node) Paths() [][]string {
	var paths [][]string
	var walk func(node *Node, prefix []string)
	walk = func(node *Node, prefix []string) {
		current := append(prefix, node.Content)
		if node.IsLeaf() {
			paths = append(paths, append([]string(nil), current...))
			return
		}
		for _, child := range node.Children {
			walk(child, current)
		}
	}
	walk(n, nil)
	return paths
}

// siblingContents returns the contents of the node's same-parent siblings,
// excluding the node itself. Empty for the root.
func siblingContents(n *Node) []string {
	if n.parent == nil {
		return nil
	}
	siblings := make([]string, 0, len(n.parent.Children)-1)
	for _, child := range n.parent.Children {
		if child != n {
			siblings = append(siblings, child.Content)
		}
	}
	return siblings
}

// nodeJSON is the serialized shape consumed by downstream stages.
type nodeJSON struct {
	Content  string      `json:"content"`
	Children []*nodeJSON `json:"children"`
}

func toNodeJSON(n *Node) *nodeJSON {
	out := &nodeJSON{Content: n.Content, Children: make([]*nodeJSON, 0, len(n.Children))}
	for _, child := range n.Children {
		out.Children = append(out.Children, toNodeJSON(child))
	}
	return out
}

// MarshalJSON encodes the subtree as nested {content, children} records.
func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(toNodeJSON(n))
}

// Render returns an ASCII sketch of the subtree, one node per line.
func (n *Node) Render() string {
	var b strings.Builder
	var walk func(node *Node, level int)
	walk = func(node *Node, level int) {
		if level == 0 {
			b.WriteString("└── ")
		} else {
			b.WriteString(strings.Repeat("    ", level-1))
			b.WriteString("├── ")
		}
		b.WriteString(node.Content)
		b.WriteString("\n")
		for _, child := range node.Children {
			walk(child, level+1)
		}
	}
	walk(n, 0)
	return b.String()
}
