// Package aspectree explores a question by recursively decomposing it into a
// tree of "aspects" (short phrases naming one facet of the question), using
// a language-model oracle both to propose decompositions and to judge them.
//
// # Architecture
//
// The engine runs two passes per question:
//
//  1. Construction (top-down): starting from the question as the root, each
//     node is expanded depth-first. The oracle decides whether an aspect
//     needs further breakdown, proposes a batch of sub-aspects, and a
//     reflection call judges the batch as a whole (keep, modify, or prune)
//     before it joins the tree.
//  2. Pruning (second pass): every node is scored for relevance against the
//     original question, in the context of its siblings and its path from
//     the root. Nodes scoring below the threshold are removed together with
//     their subtrees.
//
// Every reflection and pruning judgment is appended to a per-run Ledger for
// auditing. The surviving root-to-leaf paths are the engine's main product;
// downstream stages consume them as search queries.
//
// # Cost Tracking
//
// Every oracle call can report a cost. Oracle.Complete returns a Completion
// carrying both text and cost, and the Tree accumulates the total spent on a
// run.
//
// # Basic Usage
//
//	engine := aspectree.New(
//	    aspectree.WithOracle(myOracle),
//	    aspectree.WithMaxDepth(3),
//	    aspectree.WithMaxChildren(3),
//	    aspectree.WithPruneThreshold(7),
//	)
//
//	tree, err := engine.BuildTree(ctx, "How to improve productivity")
//	if err != nil {
//	    return err
//	}
//	if err := engine.Prune(ctx, tree); err != nil {
//	    return err
//	}
//	fmt.Println(tree.Render())
//	for _, path := range tree.Paths() {
//	    fmt.Println(strings.Join(path, " -> "))
//	}
//
// # Interfaces
//
// Implement Oracle to connect any language model:
//
//	type Oracle interface {
//	    Complete(ctx context.Context, req CompletionRequest) (Completion, error)
//	}
//
// The oracle subpackage ships OpenAI-compatible and Ollama backends with
// rate limiting and retries built in. Oracle failures never abort a run: a
// failed call during construction stops that branch from growing, and a
// failed call during pruning drops that node. A tree whose children were all
// pruned away is a valid result, not an error.
//
// Independent questions can be processed concurrently with a Runner; each
// run owns its tree and ledger, so the oracle client is the only shared
// resource.
package aspectree
