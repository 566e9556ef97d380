package bus

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"
)

// Query is a read against a session or the process
type Query interface {
	Validate() error
}

// QueryHandler answers one query type
type QueryHandler interface {
	Handle(ctx context.Context, query Query) (interface{}, error)
}

// QueryHandlerFunc adapts a function to QueryHandler
type QueryHandlerFunc func(ctx context.Context, query Query) (interface{}, error)

// Handle implements QueryHandler
func (f QueryHandlerFunc) Handle(ctx context.Context, query Query) (interface{}, error) {
	return f(ctx, query)
}

// Middleware decorates a handler. It applies to handlers registered after
// it was added.
type Middleware func(QueryHandler) QueryHandler

// QueryBus routes queries to handlers by their concrete type
type QueryBus struct {
	mu       sync.RWMutex
	handlers map[reflect.Type]QueryHandler
	chain    []Middleware
}

// NewQueryBus creates an empty bus
func NewQueryBus() *QueryBus {
	return &QueryBus{handlers: make(map[reflect.Type]QueryHandler)}
}

// Use appends mw to the chain; the first added runs outermost
func (b *QueryBus) Use(mw Middleware) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.chain = append(b.chain, mw)
}

// Register binds handler to the type of query
func (b *QueryBus) Register(query Query, handler QueryHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := reflect.TypeOf(query)
	if _, exists := b.handlers[t]; exists {
		return fmt.Errorf("handler already registered for query type %s", t.Name())
	}
	for i := len(b.chain) - 1; i >= 0; i-- {
		handler = b.chain[i](handler)
	}
	b.handlers[t] = handler
	return nil
}

// Ask validates query and runs its handler
func (b *QueryBus) Ask(ctx context.Context, query Query) (interface{}, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("query validation failed: %w", err)
	}

	b.mu.RLock()
	handler, exists := b.handlers[reflect.TypeOf(query)]
	b.mu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("%w: %T", ErrHandlerNotFound, query)
	}
	return handler.Handle(ctx, query)
}

// AskFor is Ask for callers that know the view type they get back
func AskFor[V any](ctx context.Context, b *QueryBus, query Query) (V, error) {
	var zero V
	result, err := b.Ask(ctx, query)
	if err != nil {
		return zero, err
	}
	view, ok := result.(V)
	if !ok {
		return zero, fmt.Errorf("%T answered with %T, want %T", query, result, zero)
	}
	return view, nil
}

// ErrHandlerNotFound is returned for queries nobody registered
var ErrHandlerNotFound = errors.New("query handler not found")

// Observer receives one observation per handled query, named by the query
// type
type Observer interface {
	ObserveQuery(name string, err error, elapsed time.Duration)
}

// ObserveMiddleware reports every query to o
func ObserveMiddleware(o Observer) Middleware {
	return func(next QueryHandler) QueryHandler {
		return QueryHandlerFunc(func(ctx context.Context, query Query) (interface{}, error) {
			start := time.Now()
			result, err := next.Handle(ctx, query)
			o.ObserveQuery(reflect.TypeOf(query).Name(), err, time.Since(start))
			return result, err
		})
	}
}
