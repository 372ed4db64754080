package mysql

import (
	"github.com/golangid/meshserve/codebase/interfaces"
	"github.com/golangid/meshserve/transport"
)

// Kind transport kind served by this package
const Kind = "mysql"

var getMySQLExecutor = GetMySQLExecutor

// GetSubgraphExecutor transport factory of mysql subgraphs, forward options to GetMySQLExecutor
// and return its result unchanged
func GetSubgraphExecutor(opts transport.GetSubgraphExecutorOptions) (interfaces.Executor, error) {
	return getMySQLExecutor(transport.GetSubgraphExecutorOptions{
		Subgraph: opts.Subgraph,
		PubSub:   opts.PubSub,
		Logger:   opts.Logger,
	})
}

var _ transport.ExecutorFactoryFunc = GetSubgraphExecutor
