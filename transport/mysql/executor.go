package mysql

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/golangid/meshserve/candishared"
	"github.com/golangid/meshserve/codebase/interfaces"
	"github.com/golangid/meshserve/config/database"
	"github.com/golangid/meshserve/logger"
	"github.com/golangid/meshserve/pubsub"
	"github.com/golangid/meshserve/tracer"
	"github.com/golangid/meshserve/transport"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"
)

// ErrExecutorClosed returned by Execute after the pool has been closed
var ErrExecutorClosed = errors.New("mysql executor: closed")

type executor struct {
	subgraph *transport.Subgraph
	db       interfaces.SQLDatabase
	pubsub   interfaces.PubSub
	logger   interfaces.Logger
	bindings *schemaBindings

	destroyID  int
	subscribed bool

	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// GetMySQLExecutor open connection pool of subgraph transport location and return executor resolving
// root fields annotated with mysql directives. Pool is closed when "destroy" is published on pubsub.
func GetMySQLExecutor(opts transport.GetSubgraphExecutorOptions) (interfaces.Executor, error) {
	if opts.Subgraph == nil {
		return nil, errors.New("mysql: subgraph is required")
	}
	subgraph := opts.Subgraph

	endpoint, err := ParseEndpointURI(subgraph.Transport.Location)
	if err != nil {
		return nil, fmt.Errorf("subgraph %s: %w", subgraph.Name, err)
	}
	if limit, ok := subgraph.Transport.Options["connectionLimit"]; ok {
		n, ok := limit.(int64)
		if !ok || n < 0 {
			return nil, fmt.Errorf("subgraph %s: invalid connectionLimit option %v", subgraph.Name, limit)
		}
		endpoint.ConnectionLimit = int(n)
	}

	bindings, err := compileBindings(subgraph.Document)
	if err != nil {
		return nil, fmt.Errorf("subgraph %s: %w", subgraph.Name, err)
	}

	poolOpts := []database.SQLOptionFunc{database.SQLSetMaxOpenConns(endpoint.ConnectionLimit)}
	if endpoint.ConnectionLimit > 0 {
		poolOpts = append(poolOpts, database.SQLSetMaxIdleConns(endpoint.ConnectionLimit))
	}
	db, err := database.InitSQLDatabase("mysql", endpoint.DSN(), poolOpts...)
	if err != nil {
		return nil, fmt.Errorf("subgraph %s: %w", subgraph.Name, err)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}
	log = log.Child("mysql:" + subgraph.Name)

	e, err := newExecutor(subgraph, db, opts.PubSub, log, bindings)
	if err != nil {
		db.Disconnect(context.Background())
		return nil, err
	}
	log.Infof("subgraph %s uses %s", subgraph.Name, endpoint.Redacted())
	return e, nil
}

func newExecutor(subgraph *transport.Subgraph, db interfaces.SQLDatabase, ps interfaces.PubSub, log interfaces.Logger, bindings *schemaBindings) (*executor, error) {
	e := &executor{
		subgraph: subgraph,
		db:       db,
		pubsub:   ps,
		logger:   log,
		bindings: bindings,
	}
	if ps != nil {
		id, err := ps.Subscribe(pubsub.TopicDestroy, func(interface{}) {
			if err := e.Disconnect(context.Background()); err != nil {
				e.logger.Errorf("close pool: %v", err)
			}
		})
		if err != nil {
			return nil, fmt.Errorf("subgraph %s: subscribe %s: %w", subgraph.Name, pubsub.TopicDestroy, err)
		}
		e.destroyID, e.subscribed = id, true
	}
	return e, nil
}

func (e *executor) Execute(ctx context.Context, req *candishared.ExecutionRequest) (*candishared.ExecutionResult, error) {
	if e.closed.Load() {
		return nil, ErrExecutorClosed
	}

	trace, ctx := tracer.StartTrace(ctx, "mysql:execute")
	defer trace.Finish()
	trace.SetTag("subgraph", e.subgraph.Name)
	trace.SetTag("operation_name", req.OperationName)
	trace.Log("query", req.Query)
	trace.Log("variables", req.Variables)

	doc, err := parser.ParseQuery(&ast.Source{Name: e.subgraph.Name, Input: req.Query})
	if err != nil {
		return &candishared.ExecutionResult{Errors: gqlerror.List{gqlerror.WrapIfUnwrapped(err)}}, nil
	}

	op, err := selectOperation(doc, req.OperationName)
	if err != nil {
		return &candishared.ExecutionResult{Errors: gqlerror.List{gqlerror.Wrap(err)}}, nil
	}

	var rootType string
	switch op.Operation {
	case ast.Mutation:
		rootType = e.bindings.mutationType
	case ast.Subscription:
		return &candishared.ExecutionResult{Errors: gqlerror.List{
			gqlerror.ErrorPosf(op.Position, "subscriptions are not supported by mysql subgraph %s", e.subgraph.Name),
		}}, nil
	default:
		rootType = e.bindings.queryType
	}
	trace.SetTag("operation", string(op.Operation))

	vars, err := coerceVariables(op, req.Variables)
	if err != nil {
		return &candishared.ExecutionResult{Errors: gqlerror.List{gqlerror.Wrap(err)}}, nil
	}

	r := &resolver{executor: e, ctx: ctx, doc: doc, vars: vars}
	fields, err := r.collectFields(op.SelectionSet)
	if err != nil {
		return &candishared.ExecutionResult{Errors: gqlerror.List{gqlerror.Wrap(err)}}, nil
	}

	result := &candishared.ExecutionResult{Data: make(map[string]interface{}, len(fields))}
	for _, field := range fields {
		if field.Name == "__typename" {
			result.Data[field.Alias] = rootType
			continue
		}

		value, err := r.resolveRoot(rootType, field)
		if err != nil {
			gqlErr := gqlerror.WrapPath(ast.Path{ast.PathName(field.Alias)}, err)
			if field.Position != nil {
				gqlErr.Locations = []gqlerror.Location{{Line: field.Position.Line, Column: field.Position.Column}}
			}
			result.Errors = append(result.Errors, gqlErr)
			result.Data[field.Alias] = nil
			trace.SetError(err)
			continue
		}
		result.Data[field.Alias] = value
	}
	return result, nil
}

func (e *executor) Health() error {
	if e.closed.Load() {
		return ErrExecutorClosed
	}
	for _, err := range e.db.Health() {
		if err != nil {
			return err
		}
	}
	return nil
}

// Disconnect unsubscribe from pubsub and close pool, next calls return the first result
func (e *executor) Disconnect(ctx context.Context) error {
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		if e.subscribed {
			e.pubsub.Unsubscribe(e.destroyID)
		}
		e.closeErr = database.DisconnectWithLog(ctx, "mysql:"+e.subgraph.Name, e.db)
	})
	return e.closeErr
}

func (e *executor) publish(ctx context.Context, table, action string, payload interface{}) {
	if e.pubsub == nil {
		return
	}
	topic := fmt.Sprintf("%s:%s:%s", e.subgraph.Name, table, action)
	if err := e.pubsub.Publish(ctx, topic, payload); err != nil {
		e.logger.Errorf("publish %s: %v", topic, err)
	}
}

func selectOperation(doc *ast.QueryDocument, name string) (*ast.OperationDefinition, error) {
	if name == "" {
		switch len(doc.Operations) {
		case 0:
			return nil, errors.New("document does not contain any operation")
		case 1:
			return doc.Operations[0], nil
		}
		return nil, errors.New("operation name is required when document contains multiple operations")
	}
	if op := doc.Operations.ForName(name); op != nil {
		return op, nil
	}
	return nil, fmt.Errorf("unknown operation named %q", name)
}

func coerceVariables(op *ast.OperationDefinition, input map[string]interface{}) (map[string]interface{}, error) {
	vars := make(map[string]interface{}, len(op.VariableDefinitions))
	for k, v := range input {
		vars[k] = v
	}
	for _, def := range op.VariableDefinitions {
		if _, ok := vars[def.Variable]; ok {
			continue
		}
		if def.DefaultValue != nil {
			v, err := def.DefaultValue.Value(nil)
			if err != nil {
				return nil, fmt.Errorf("variable $%s: %w", def.Variable, err)
			}
			vars[def.Variable] = v
			continue
		}
		if def.Type != nil && def.Type.NonNull {
			return nil, fmt.Errorf("variable $%s of required type %s was not provided", def.Variable, def.Type.String())
		}
	}
	return vars, nil
}
