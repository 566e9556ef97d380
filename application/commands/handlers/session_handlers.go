package handlers

import (
	"context"

	"taxonomy/application/commands"
	"taxonomy/application/commands/bus"
	"taxonomy/application/services"

	"go.uber.org/zap"
)

// CreateSessionHandler handles CreateSessionCommand
type CreateSessionHandler struct {
	service *services.TaxonomyService
}

// NewCreateSessionHandler creates a new handler instance
func NewCreateSessionHandler(service *services.TaxonomyService) *CreateSessionHandler {
	return &CreateSessionHandler{service: service}
}

// Handle executes the command. The result data is the new *services.Session.
func (h *CreateSessionHandler) Handle(ctx context.Context, c bus.Command) (*bus.CommandResult, error) {
	cmd, ok := c.(commands.CreateSessionCommand)
	if !ok {
		return nil, unexpected(c)
	}

	mode, err := services.ParseMode(cmd.Mode)
	if err != nil {
		return nil, err
	}
	session, err := h.service.CreateSession(ctx, mode)
	if err != nil {
		return nil, err
	}
	return bus.Succeeded(session), nil
}

// ReloadSessionHandler handles ReloadSessionCommand
type ReloadSessionHandler struct {
	service *services.TaxonomyService
}

// NewReloadSessionHandler creates a new handler instance
func NewReloadSessionHandler(service *services.TaxonomyService) *ReloadSessionHandler {
	return &ReloadSessionHandler{service: service}
}

// Handle executes the command
func (h *ReloadSessionHandler) Handle(ctx context.Context, c bus.Command) (*bus.CommandResult, error) {
	cmd, ok := c.(commands.ReloadSessionCommand)
	if !ok {
		return nil, unexpected(c)
	}

	tree, err := h.service.Reload(ctx, cmd.SessionID)
	if err != nil {
		return nil, err
	}
	return bus.Succeeded(&services.MutationResult{Tree: tree}), nil
}

// AttachSessionHandler handles AttachSessionCommand
type AttachSessionHandler struct {
	service *services.TaxonomyService
}

// NewAttachSessionHandler creates a new handler instance
func NewAttachSessionHandler(service *services.TaxonomyService) *AttachSessionHandler {
	return &AttachSessionHandler{service: service}
}

// Handle executes the command. The result data is the attached *services.Session.
func (h *AttachSessionHandler) Handle(ctx context.Context, c bus.Command) (*bus.CommandResult, error) {
	cmd, ok := c.(commands.AttachSessionCommand)
	if !ok {
		return nil, unexpected(c)
	}

	session, err := h.service.Attach(ctx, cmd.SessionID)
	if err != nil {
		return nil, err
	}
	return bus.Succeeded(session), nil
}

// RegisterAll registers every command handler on b
func RegisterAll(b *bus.CommandBus, service *services.TaxonomyService, logger *zap.Logger) error {
	registrations := []struct {
		cmd     bus.Command
		handler bus.CommandHandler
	}{
		{commands.CreateSessionCommand{}, NewCreateSessionHandler(service)},
		{commands.ReloadSessionCommand{}, NewReloadSessionHandler(service)},
		{commands.AttachSessionCommand{}, NewAttachSessionHandler(service)},
		{commands.GenerateChildrenCommand{}, NewGenerateChildrenHandler(service, logger)},
		{commands.ClassifyItemsCommand{}, NewClassifyItemsHandler(service, logger)},
		{commands.EditNodeCommand{}, NewEditNodeHandler(service)},
		{commands.DeleteNodeCommand{}, NewDeleteNodeHandler(service)},
		{commands.MoveNodeCommand{}, NewMoveNodeHandler(service)},
	}

	for _, r := range registrations {
		if err := b.Register(r.cmd, r.handler); err != nil {
			return err
		}
	}
	return nil
}
