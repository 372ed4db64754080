package candishared

import (
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// ExecutionRequest GraphQL operation sent to a subgraph executor
type ExecutionRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName,omitempty"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
}

// ExecutionResult GraphQL response, field errors are collected in Errors
type ExecutionResult struct {
	Data   map[string]interface{} `json:"data"`
	Errors gqlerror.List          `json:"errors,omitempty"`
}

// HasErrors check result has field errors
func (r *ExecutionResult) HasErrors() bool {
	return len(r.Errors) > 0
}
