package transport

import (
	"context"
	"errors"
	"testing"

	"github.com/golangid/meshserve/candishared"
	"github.com/golangid/meshserve/codebase/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopExecutor struct{}

func (nopExecutor) Execute(context.Context, *candishared.ExecutionRequest) (*candishared.ExecutionResult, error) {
	return &candishared.ExecutionResult{}, nil
}
func (nopExecutor) Health() error                    { return nil }
func (nopExecutor) Disconnect(context.Context) error { return nil }

func TestRegistry(t *testing.T) {
	registry := NewRegistry()
	var got GetSubgraphExecutorOptions
	registry.Register("mysql", func(opts GetSubgraphExecutorOptions) (interfaces.Executor, error) {
		got = opts
		return nopExecutor{}, nil
	})
	registry.Register("rest", func(GetSubgraphExecutorOptions) (interfaces.Executor, error) {
		return nil, errors.New("not implemented")
	})
	assert.Equal(t, []string{"mysql", "rest"}, registry.Kinds())

	assert.PanicsWithValue(t, "Register transport: mysql has been registered", func() {
		registry.Register("mysql", nil)
	})

	subgraph := &Subgraph{Name: "users", Transport: Entry{Kind: "mysql"}}
	executor, err := registry.GetSubgraphExecutor(GetSubgraphExecutorOptions{Subgraph: subgraph})
	require.NoError(t, err)
	assert.Equal(t, nopExecutor{}, executor)
	assert.Same(t, subgraph, got.Subgraph)

	_, err = registry.GetSubgraphExecutor(GetSubgraphExecutorOptions{Subgraph: &Subgraph{Name: "x", Transport: Entry{Kind: "soap"}}})
	assert.ErrorIs(t, err, ErrUnknownTransport)

	_, err = registry.GetSubgraphExecutor(GetSubgraphExecutorOptions{})
	assert.Error(t, err)
}
