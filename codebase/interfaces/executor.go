package interfaces

import (
	"context"

	"github.com/golangid/meshserve/candishared"
)

// Executor abstraction, run GraphQL operation against one subgraph backend
type Executor interface {
	Execute(ctx context.Context, req *candishared.ExecutionRequest) (*candishared.ExecutionResult, error)
	Health() error
	Closer
}
