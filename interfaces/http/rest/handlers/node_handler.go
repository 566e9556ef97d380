package handlers

import (
	"encoding/json"
	"net/http"

	"taxonomy/application/commands"
	"taxonomy/application/commands/bus"
	"taxonomy/application/queries"
	querybus "taxonomy/application/queries/bus"
	"taxonomy/domain/core/entities"
	"taxonomy/pkg/common"
	pkgerrors "taxonomy/pkg/errors"

	"go.uber.org/zap"
)

// NodeHandler handles node-related HTTP requests
type NodeHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *NodeHandler {
	return &NodeHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		errors:     errorHandler,
		logger:     logger,
	}
}

// GenerateRequest represents the request body for generating children
type GenerateRequest struct {
	NumCategories    int    `json:"num_categories" validate:"min=0,max=50"`
	GenerationMethod string `json:"generation_method" validate:"omitempty,max=64"`
}

// EditNodeRequest represents the request body for editing a node. Items stay
// raw until the handler checks their shape.
type EditNodeRequest struct {
	Category entities.Category `json:"category"`
	Items    json.RawMessage   `json:"items"`
}

// MoveNodeRequest represents the request body for moving a node
type MoveNodeRequest struct {
	X *float64 `json:"x" validate:"required"`
	Y *float64 `json:"y" validate:"required"`
}

// GetNode handles GET /sessions/{sessionID}/nodes/{key}
func (h *NodeHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	view, err := h.queryBus.Ask(r.Context(), queries.GetNodeQuery{
		SessionID: sessionID(r),
		NodeKey:   nodeKey(r),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, view)
}

// Generate handles POST /sessions/{sessionID}/nodes/{key}/generate
func (h *NodeHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.send(w, r, commands.GenerateChildrenCommand{
		SessionID:        sessionID(r),
		NodeKey:          nodeKey(r),
		NumCategories:    req.NumCategories,
		GenerationMethod: req.GenerationMethod,
		APIKey:           common.GetAPIKey(r.Context()),
	})
}

// Classify handles POST /sessions/{sessionID}/nodes/{key}/classify
func (h *NodeHandler) Classify(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, commands.ClassifyItemsCommand{
		SessionID: sessionID(r),
		NodeKey:   nodeKey(r),
		APIKey:    common.GetAPIKey(r.Context()),
	})
}

// EditNode handles PUT /sessions/{sessionID}/nodes/{key}
func (h *NodeHandler) EditNode(w http.ResponseWriter, r *http.Request) {
	var req EditNodeRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	items, err := entities.ParseItems(req.Items)
	if err != nil {
		h.errors.Handle(w, r, pkgerrors.NewInvalidItems(err.Error()))
		return
	}

	h.send(w, r, commands.EditNodeCommand{
		SessionID: sessionID(r),
		NodeKey:   nodeKey(r),
		Category:  req.Category,
		Items:     items,
	})
}

// DeleteNode handles DELETE /sessions/{sessionID}/nodes/{key}
func (h *NodeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, commands.DeleteNodeCommand{
		SessionID: sessionID(r),
		NodeKey:   nodeKey(r),
	})
}

// MoveNode handles PATCH /sessions/{sessionID}/nodes/{key}/position
func (h *NodeHandler) MoveNode(w http.ResponseWriter, r *http.Request) {
	var req MoveNodeRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.send(w, r, commands.MoveNodeCommand{
		SessionID: sessionID(r),
		NodeKey:   nodeKey(r),
		X:         *req.X,
		Y:         *req.Y,
	})
}

// send dispatches a tree command. A committed change whose durable write
// failed is reported as the write error; the new tree is already live and
// the next graph read shows it.
func (h *NodeHandler) send(w http.ResponseWriter, r *http.Request, cmd bus.Command) {
	result, err := h.commandBus.Send(r.Context(), cmd)
	if err != nil {
		if result != nil && result.Data != nil {
			h.logger.Warn("Command committed locally but failed afterwards",
				zap.String("sessionID", sessionID(r)),
				zap.String("nodeKey", nodeKey(r)),
				zap.Error(err),
			)
		}
		h.errors.Handle(w, r, err)
		return
	}

	response, err := toResponse(result.Data)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, response)
}
