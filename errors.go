package aspectree

import "fmt"

// OracleError wraps a transport, timeout, or quota failure from an Oracle
// implementation. The engine never propagates these: during construction the
// affected branch stops growing, during pruning the affected node is dropped
// (or kept, see WithKeepOnEvaluationError).
type OracleError struct {
	Op  string // which call failed, e.g. "complete"
	Err error
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("oracle %s: %v", e.Op, e.Err)
}

func (e *OracleError) Unwrap() error { return e.Err }

// ConfigError reports an invalid engine configuration. It is returned before
// any traversal starts; once a build or prune pass is underway no error
// escapes it.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "aspectree config: " + e.Reason
}
