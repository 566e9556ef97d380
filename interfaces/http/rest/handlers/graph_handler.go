package handlers

import (
	"fmt"
	"net/http"

	"taxonomy/application/queries"
	querybus "taxonomy/application/queries/bus"
	"taxonomy/pkg/common"
	pkgerrors "taxonomy/pkg/errors"

	"go.uber.org/zap"
)

// GraphHandler serves the projected graph and the loading indicator
type GraphHandler struct {
	queryBus *querybus.QueryBus
	errors   *pkgerrors.ErrorHandler
	logger   *zap.Logger
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(queryBus *querybus.QueryBus, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{queryBus: queryBus, errors: errorHandler, logger: logger}
}

// GetGraph handles GET /sessions/{sessionID}/graph. The ETag is the tree
// checksum, so an unchanged tree answers 304.
func (h *GraphHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.GetGraphQuery{
		SessionID: sessionID(r),
		APIKey:    common.GetAPIKey(r.Context()),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	view, ok := result.(*queries.GraphView)
	if !ok {
		h.errors.Handle(w, r, fmt.Errorf("unexpected query result %T", result))
		return
	}

	etag := `"` + view.Checksum + `"`
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	common.RespondJSON(w, http.StatusOK, view)
}

// GetStatus handles GET /status
func (h *GraphHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	view, err := h.queryBus.Ask(r.Context(), queries.GetStatusQuery{})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, view)
}
