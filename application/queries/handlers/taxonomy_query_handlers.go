package handlers

import (
	"context"
	"fmt"

	"taxonomy/application/ports"
	"taxonomy/application/projections"
	"taxonomy/application/queries"
	"taxonomy/application/queries/bus"
	"taxonomy/application/services"
	"taxonomy/domain/versioning"
	pkgerrors "taxonomy/pkg/errors"

	"go.uber.org/zap"
)

// GetGraphHandler projects a session's current tree
type GetGraphHandler struct {
	service *services.TaxonomyService
	logger  *zap.Logger
}

// NewGetGraphHandler creates a new handler instance
func NewGetGraphHandler(service *services.TaxonomyService, logger *zap.Logger) *GetGraphHandler {
	return &GetGraphHandler{service: service, logger: logger}
}

// Handle executes the query
func (h *GetGraphHandler) Handle(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(queries.GetGraphQuery)
	if !ok {
		return nil, unexpected(q)
	}

	session, err := h.service.Session(query.SessionID)
	if err != nil {
		return nil, err
	}
	tree := session.Current()
	checksum, err := versioning.Checksum(tree)
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to fingerprint tree").WithCause(err)
	}

	return &queries.GraphView{
		Graph:    projections.Project(tree, h.service.Operations(query.SessionID, query.APIKey)),
		Version:  tree.Version(),
		Checksum: checksum,
	}, nil
}

// GetNodeHandler finds one node
type GetNodeHandler struct {
	service *services.TaxonomyService
}

// NewGetNodeHandler creates a new handler instance
func NewGetNodeHandler(service *services.TaxonomyService) *GetNodeHandler {
	return &GetNodeHandler{service: service}
}

// Handle executes the query
func (h *GetNodeHandler) Handle(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(queries.GetNodeQuery)
	if !ok {
		return nil, unexpected(q)
	}

	session, err := h.service.Session(query.SessionID)
	if err != nil {
		return nil, err
	}
	tree := session.Current()
	node, found := tree.FindByKey(query.NodeKey)
	if !found {
		return nil, pkgerrors.NewInvalidTarget(query.NodeKey)
	}

	strategy := tree.KeyStrategy()
	children := make([]string, 0, node.ChildCount())
	for _, child := range node.Children() {
		children = append(children, child.Key(strategy))
	}
	parentKey, _ := tree.ParentKey(query.NodeKey)
	depth, _ := tree.Depth(query.NodeKey)

	return &queries.NodeView{
		Key:       query.NodeKey,
		ParentKey: parentKey,
		Depth:     depth,
		Category:  node.Value(),
		Items:     node.Items(),
		Children:  children,
		Position:  node.Position(),
	}, nil
}

// GetSessionHandler summarizes a session
type GetSessionHandler struct {
	service *services.TaxonomyService
}

// NewGetSessionHandler creates a new handler instance
func NewGetSessionHandler(service *services.TaxonomyService) *GetSessionHandler {
	return &GetSessionHandler{service: service}
}

// Handle executes the query
func (h *GetSessionHandler) Handle(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(queries.GetSessionQuery)
	if !ok {
		return nil, unexpected(q)
	}

	session, err := h.service.Session(query.SessionID)
	if err != nil {
		return nil, err
	}
	version, err := versioning.NewTreeVersion(session.Current())
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to fingerprint tree").WithCause(err)
	}

	return &queries.SessionView{
		ID:        session.ID(),
		Mode:      string(session.Mode()),
		Version:   version.Version,
		Checksum:  version.Checksum,
		NodeCount: version.NodeCount,
		ItemCount: version.ItemCount,
		Warnings:  session.Warnings(),
		CreatedAt: session.CreatedAt(),
	}, nil
}

// GetSessionEventsHandler reads the event journal
type GetSessionEventsHandler struct {
	journal ports.EventStore
}

// NewGetSessionEventsHandler creates a new handler instance. journal may be
// nil when no journal is configured.
func NewGetSessionEventsHandler(journal ports.EventStore) *GetSessionEventsHandler {
	return &GetSessionEventsHandler{journal: journal}
}

// Handle executes the query
func (h *GetSessionEventsHandler) Handle(ctx context.Context, q bus.Query) (interface{}, error) {
	query, ok := q.(queries.GetSessionEventsQuery)
	if !ok {
		return nil, unexpected(q)
	}
	if h.journal == nil {
		return nil, pkgerrors.NewUnavailableError("event journal")
	}

	records, err := h.journal.GetEvents(ctx, query.SessionID)
	if err != nil {
		return nil, err
	}
	return &queries.EventsView{SessionID: query.SessionID, Events: records}, nil
}

// GetStatusHandler reports the loading indicator
type GetStatusHandler struct {
	service *services.TaxonomyService
}

// NewGetStatusHandler creates a new handler instance
func NewGetStatusHandler(service *services.TaxonomyService) *GetStatusHandler {
	return &GetStatusHandler{service: service}
}

// Handle executes the query
func (h *GetStatusHandler) Handle(ctx context.Context, q bus.Query) (interface{}, error) {
	if _, ok := q.(queries.GetStatusQuery); !ok {
		return nil, unexpected(q)
	}
	return &queries.StatusView{
		Loading:  h.service.Loading(),
		InFlight: h.service.InFlight(),
		Sessions: h.service.SessionCount(),
	}, nil
}

// RegisterAll registers every query handler on b
func RegisterAll(b *bus.QueryBus, service *services.TaxonomyService, journal ports.EventStore, logger *zap.Logger) error {
	registrations := []struct {
		query   bus.Query
		handler bus.QueryHandler
	}{
		{queries.GetGraphQuery{}, NewGetGraphHandler(service, logger)},
		{queries.GetNodeQuery{}, NewGetNodeHandler(service)},
		{queries.GetSessionQuery{}, NewGetSessionHandler(service)},
		{queries.GetSessionEventsQuery{}, NewGetSessionEventsHandler(journal)},
		{queries.GetStatusQuery{}, NewGetStatusHandler(service)},
	}

	for _, r := range registrations {
		if err := b.Register(r.query, r.handler); err != nil {
			return err
		}
	}
	return nil
}

func unexpected(q bus.Query) error {
	return fmt.Errorf("unexpected query type %T", q)
}
