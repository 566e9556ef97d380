package handlers

import (
	"fmt"
	"net/http"

	"taxonomy/application/commands"
	"taxonomy/application/commands/bus"
	"taxonomy/application/queries"
	querybus "taxonomy/application/queries/bus"
	"taxonomy/application/services"
	"taxonomy/pkg/common"
	pkgerrors "taxonomy/pkg/errors"

	"go.uber.org/zap"
)

// SessionHandler handles session lifecycle requests
type SessionHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *SessionHandler {
	return &SessionHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		errors:     errorHandler,
		logger:     logger,
	}
}

// CreateSessionRequest represents the request body for opening a session
type CreateSessionRequest struct {
	Mode string `json:"mode" validate:"omitempty,oneof=memory remote"`
}

// CreateSession handles POST /sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.CreateSessionCommand{Mode: req.Mode})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	session, ok := result.Data.(*services.Session)
	if !ok {
		h.errors.Handle(w, r, fmt.Errorf("unexpected command result %T", result.Data))
		return
	}

	view, err := h.queryBus.Ask(r.Context(), queries.GetSessionQuery{SessionID: session.ID()})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.logger.Info("Session created",
		zap.String("sessionID", session.ID()),
		zap.String("mode", string(session.Mode())),
	)
	w.Header().Set("Location", "/api/v1/sessions/"+session.ID())
	common.RespondJSON(w, http.StatusCreated, view)
}

// GetSession handles GET /sessions/{sessionID}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.queryBus.Ask(r.Context(), queries.GetSessionQuery{SessionID: sessionID(r)})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, view)
}

// AttachSession handles POST /sessions/{sessionID}/attach
func (h *SessionHandler) AttachSession(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	if _, err := h.commandBus.Send(r.Context(), commands.AttachSessionCommand{SessionID: id}); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	view, err := h.queryBus.Ask(r.Context(), queries.GetSessionQuery{SessionID: id})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, view)
}

// ReloadSession handles POST /sessions/{sessionID}/reload
func (h *SessionHandler) ReloadSession(w http.ResponseWriter, r *http.Request) {
	result, err := h.commandBus.Send(r.Context(), commands.ReloadSessionCommand{SessionID: sessionID(r)})
	if err != nil {
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

// GetEvents handles GET /sessions/{sessionID}/events
func (h *SessionHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	view, err := h.queryBus.Ask(r.Context(), queries.GetSessionEventsQuery{SessionID: sessionID(r)})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, view)
}
