package aspectree

import "context"

// CompletionRequest is a single prompt sent to the oracle. Temperature and
// MaxTokens are chosen per call site: judgment calls run cold and short,
// generation calls run warmer with more room.
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Completion is returned by Oracle.Complete and carries both the generated
// text and the cost (in dollars) of the call.
type Completion struct {
	Text string
	Cost float64
}

// Oracle is implemented by user-supplied language model clients. The engine
// shares one Oracle across concurrent runs, so implementations must be safe
// for concurrent use and are responsible for their own rate limiting and
// retries. See the oracle subpackage for ready-made backends.
type Oracle interface {
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
}
