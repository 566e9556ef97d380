package bus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoQuery struct {
	Text string
}

func (q echoQuery) Validate() error {
	if q.Text == "" {
		return errors.New("text is required")
	}
	return nil
}

type unregisteredQuery struct{}

func (unregisteredQuery) Validate() error { return nil }

type observation struct {
	name string
	err  error
}

type recordingObserver struct {
	seen []observation
}

func (o *recordingObserver) ObserveQuery(name string, err error, _ time.Duration) {
	o.seen = append(o.seen, observation{name: name, err: err})
}

func echo(ctx context.Context, q Query) (interface{}, error) {
	text := q.(echoQuery).Text
	if text == "fail" {
		return nil, errors.New("echo failed")
	}
	return &text, nil
}

func TestQueryBus_AskFor(t *testing.T) {
	// Arrange
	b := NewQueryBus()
	require.NoError(t, b.Register(echoQuery{}, QueryHandlerFunc(echo)))

	// Act
	got, err := AskFor[*string](context.Background(), b, echoQuery{Text: "hi"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "hi", *got)

	_, err = AskFor[*int](context.Background(), b, echoQuery{Text: "hi"})
	assert.ErrorContains(t, err, "answered with *string")
}

func TestQueryBus_MiddlewareOrderAndObserver(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next QueryHandler) QueryHandler {
			return QueryHandlerFunc(func(ctx context.Context, q Query) (interface{}, error) {
				order = append(order, name)
				return next.Handle(ctx, q)
			})
		}
	}
	observer := &recordingObserver{}
	b := NewQueryBus()
	b.Use(tag("outer"))
	b.Use(tag("inner"))
	b.Use(ObserveMiddleware(observer))
	require.NoError(t, b.Register(echoQuery{}, QueryHandlerFunc(echo)))

	_, err := b.Ask(context.Background(), echoQuery{Text: "ok"})
	require.NoError(t, err)
	_, err = b.Ask(context.Background(), echoQuery{Text: "fail"})
	require.Error(t, err)

	assert.Equal(t, []string{"outer", "inner", "outer", "inner"}, order)
	require.Len(t, observer.seen, 2)
	assert.Equal(t, "echoQuery", observer.seen[0].name)
	assert.NoError(t, observer.seen[0].err)
	assert.Error(t, observer.seen[1].err)
}

func TestQueryBus_Errors(t *testing.T) {
	b := NewQueryBus()
	require.NoError(t, b.Register(echoQuery{}, QueryHandlerFunc(echo)))

	tests := []struct {
		name  string
		query Query
		check func(t *testing.T, err error)
	}{
		{"invalid", echoQuery{}, func(t *testing.T, err error) { assert.ErrorContains(t, err, "query validation failed") }},
		{"unregistered", unregisteredQuery{}, func(t *testing.T, err error) { assert.ErrorIs(t, err, ErrHandlerNotFound) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Ask(context.Background(), tt.query)
			tt.check(t, err)
		})
	}

	assert.Error(t, b.Register(echoQuery{}, QueryHandlerFunc(echo)))
}
