package handlers

import (
	"context"
	"fmt"

	"taxonomy/application/commands"
	"taxonomy/application/commands/bus"
	"taxonomy/application/services"
	"taxonomy/domain/core/aggregates"
	"taxonomy/domain/core/valueobjects"

	"go.uber.org/zap"
)

// MoveResult reports the tree after a move and whether anything changed
type MoveResult struct {
	Tree    *aggregates.Tree
	Updated bool
}

// GenerateChildrenHandler handles GenerateChildrenCommand
type GenerateChildrenHandler struct {
	service *services.TaxonomyService
	logger  *zap.Logger
}

// NewGenerateChildrenHandler creates a new handler instance
func NewGenerateChildrenHandler(service *services.TaxonomyService, logger *zap.Logger) *GenerateChildrenHandler {
	return &GenerateChildrenHandler{service: service, logger: logger}
}

// Handle executes the command
func (h *GenerateChildrenHandler) Handle(ctx context.Context, c bus.Command) (*bus.CommandResult, error) {
	cmd, ok := c.(commands.GenerateChildrenCommand)
	if !ok {
		return nil, unexpected(c)
	}

	result, err := h.service.Generate(ctx, services.GenerateRequest{
		SessionID:        cmd.SessionID,
		NodeKey:          cmd.NodeKey,
		NumCategories:    cmd.NumCategories,
		GenerationMethod: cmd.GenerationMethod,
		APIKey:           cmd.APIKey,
	})
	return mutationResult(result, err)
}

// ClassifyItemsHandler handles ClassifyItemsCommand
type ClassifyItemsHandler struct {
	service *services.TaxonomyService
	logger  *zap.Logger
}

// NewClassifyItemsHandler creates a new handler instance
func NewClassifyItemsHandler(service *services.TaxonomyService, logger *zap.Logger) *ClassifyItemsHandler {
	return &ClassifyItemsHandler{service: service, logger: logger}
}

// Handle executes the command
func (h *ClassifyItemsHandler) Handle(ctx context.Context, c bus.Command) (*bus.CommandResult, error) {
	cmd, ok := c.(commands.ClassifyItemsCommand)
	if !ok {
		return nil, unexpected(c)
	}

	result, err := h.service.Classify(ctx, services.ClassifyRequest{
		SessionID: cmd.SessionID,
		NodeKey:   cmd.NodeKey,
		APIKey:    cmd.APIKey,
	})
	if result != nil && len(result.Warnings) > 0 {
		h.logger.Info("Classification finished with warnings",
			zap.String("sessionID", cmd.SessionID),
			zap.String("nodeKey", cmd.NodeKey),
			zap.Int("warnings", len(result.Warnings)),
		)
	}
	return mutationResult(result, err)
}

// EditNodeHandler handles EditNodeCommand
type EditNodeHandler struct {
	service *services.TaxonomyService
}

// NewEditNodeHandler creates a new handler instance
func NewEditNodeHandler(service *services.TaxonomyService) *EditNodeHandler {
	return &EditNodeHandler{service: service}
}

// Handle executes the command
func (h *EditNodeHandler) Handle(ctx context.Context, c bus.Command) (*bus.CommandResult, error) {
	cmd, ok := c.(commands.EditNodeCommand)
	if !ok {
		return nil, unexpected(c)
	}

	result, err := h.service.Edit(ctx, services.EditRequest{
		SessionID: cmd.SessionID,
		NodeKey:   cmd.NodeKey,
		Category:  cmd.Category,
		Items:     cmd.Items,
	})
	return mutationResult(result, err)
}

// DeleteNodeHandler handles DeleteNodeCommand
type DeleteNodeHandler struct {
	service *services.TaxonomyService
}

// NewDeleteNodeHandler creates a new handler instance
func NewDeleteNodeHandler(service *services.TaxonomyService) *DeleteNodeHandler {
	return &DeleteNodeHandler{service: service}
}

// Handle executes the command
func (h *DeleteNodeHandler) Handle(ctx context.Context, c bus.Command) (*bus.CommandResult, error) {
	cmd, ok := c.(commands.DeleteNodeCommand)
	if !ok {
		return nil, unexpected(c)
	}

	result, err := h.service.Delete(ctx, cmd.SessionID, cmd.NodeKey)
	return mutationResult(result, err)
}

// MoveNodeHandler handles MoveNodeCommand
type MoveNodeHandler struct {
	service *services.TaxonomyService
}

// NewMoveNodeHandler creates a new handler instance
func NewMoveNodeHandler(service *services.TaxonomyService) *MoveNodeHandler {
	return &MoveNodeHandler{service: service}
}

// Handle executes the command
func (h *MoveNodeHandler) Handle(ctx context.Context, c bus.Command) (*bus.CommandResult, error) {
	cmd, ok := c.(commands.MoveNodeCommand)
	if !ok {
		return nil, unexpected(c)
	}

	position, err := valueobjects.NewPosition(cmd.X, cmd.Y)
	if err != nil {
		return nil, err
	}
	tree, updated, err := h.service.Move(ctx, cmd.SessionID, cmd.NodeKey, position)
	if err != nil {
		return nil, err
	}
	return bus.Succeeded(&MoveResult{Tree: tree, Updated: updated}), nil
}

// mutationResult keeps a committed tree visible to the caller even when a
// durable write failed afterwards.
func mutationResult(result *services.MutationResult, err error) (*bus.CommandResult, error) {
	if result == nil {
		return nil, err
	}
	return bus.Partial(result, err), err
}

func unexpected(c bus.Command) error {
	return fmt.Errorf("unexpected command type %T", c)
}
