package handlers

import (
	"context"
	"testing"
	"time"

	"taxonomy/application/queries"
	"taxonomy/application/queries/bus"
	"taxonomy/application/services"
	pkgerrors "taxonomy/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newQueryBus(t *testing.T) (*bus.QueryBus, *services.TaxonomyService) {
	t.Helper()
	logger := zap.NewNop()
	service := services.NewTaxonomyService(
		services.NewSessionRegistry(time.Hour, nil, logger),
		services.NewClassificationGateway(nil, nil, logger),
		nil, nil, nil, nil, nil, nil, nil,
		logger,
	)
	b := bus.NewQueryBus()
	require.NoError(t, RegisterAll(b, service, nil, logger))
	return b, service
}

func TestQueries_SeedSession(t *testing.T) {
	// Arrange
	b, service := newQueryBus(t)
	ctx := context.Background()
	session, err := service.CreateSession(ctx, services.ModeMemory)
	require.NoError(t, err)

	// Act
	graphResult, err := b.Ask(ctx, queries.GetGraphQuery{SessionID: session.ID()})
	require.NoError(t, err)
	nodeResult, err := b.Ask(ctx, queries.GetNodeQuery{SessionID: session.ID(), NodeKey: "Root"})
	require.NoError(t, err)
	sessionResult, err := b.Ask(ctx, queries.GetSessionQuery{SessionID: session.ID()})
	require.NoError(t, err)
	statusResult, err := b.Ask(ctx, queries.GetStatusQuery{})
	require.NoError(t, err)

	// Assert
	graph := graphResult.(*queries.GraphView)
	assert.Len(t, graph.Graph.Nodes, 1)
	assert.Empty(t, graph.Graph.Edges)
	assert.NotNil(t, graph.Graph.Nodes[0].Actions.Delete)

	node := nodeResult.(*queries.NodeView)
	assert.Equal(t, "Root", node.Key)
	assert.Len(t, node.Items, 10)
	assert.Equal(t, 0, node.Depth)

	view := sessionResult.(*queries.SessionView)
	assert.Equal(t, "memory", view.Mode)
	assert.Equal(t, graph.Checksum, view.Checksum)
	assert.Equal(t, 1, view.NodeCount)

	status := statusResult.(*queries.StatusView)
	assert.False(t, status.Loading)
	assert.Equal(t, 1, status.Sessions)
}

func TestQueries_Errors(t *testing.T) {
	b, service := newQueryBus(t)
	ctx := context.Background()
	session, err := service.CreateSession(ctx, services.ModeMemory)
	require.NoError(t, err)

	_, err = b.Ask(ctx, queries.GetNodeQuery{SessionID: session.ID(), NodeKey: "missing"})
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidTarget)

	_, err = b.Ask(ctx, queries.GetGraphQuery{SessionID: "nope"})
	assert.ErrorIs(t, err, pkgerrors.ErrSessionNotFound)

	_, err = b.Ask(ctx, queries.GetGraphQuery{})
	assert.True(t, pkgerrors.IsValidation(err))

	_, err = b.Ask(ctx, queries.GetSessionEventsQuery{SessionID: session.ID()})
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeUnavailable))
}
