package transport

import (
	"errors"
	"fmt"
	"sync"

	"github.com/golangid/meshserve/candihelper"
	"github.com/golangid/meshserve/codebase/interfaces"
)

// ErrUnknownTransport returned when no factory is registered for subgraph transport kind
var ErrUnknownTransport = errors.New("unknown transport")

// GetSubgraphExecutorOptions arguments of executor factory
type GetSubgraphExecutorOptions struct {
	Subgraph *Subgraph
	PubSub   interfaces.PubSub
	Logger   interfaces.Logger
}

// ExecutorFactoryFunc build executor for one subgraph
type ExecutorFactoryFunc func(opts GetSubgraphExecutorOptions) (interfaces.Executor, error)

// Registry executor factory per transport kind
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ExecutorFactoryFunc
}

// NewRegistry constructor
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]ExecutorFactoryFunc)}
}

// Register factory for transport kind, panic if kind has been registered
func (r *Registry) Register(kind string, factory ExecutorFactoryFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[kind]; ok {
		panic("Register transport: " + kind + " has been registered")
	}
	r.factories[kind] = factory
}

// Kinds registered transport kinds, sorted
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return candihelper.SortedKeys(r.factories)
}

// GetSubgraphExecutor dispatch to factory of subgraph transport kind
func (r *Registry) GetSubgraphExecutor(opts GetSubgraphExecutorOptions) (interfaces.Executor, error) {
	if opts.Subgraph == nil {
		return nil, errors.New("subgraph is required")
	}

	r.mu.RLock()
	factory, ok := r.factories[opts.Subgraph.Transport.Kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q for subgraph %s", ErrUnknownTransport, opts.Subgraph.Transport.Kind, opts.Subgraph.Name)
	}
	return factory(opts)
}
