package handlers

import (
	"fmt"
	"net/http"
	"net/url"

	cmdhandlers "taxonomy/application/commands/handlers"
	"taxonomy/application/projections"
	"taxonomy/application/services"
	"taxonomy/domain/core/aggregates"
	"taxonomy/pkg/common"
	pkgerrors "taxonomy/pkg/errors"
	"taxonomy/pkg/utils"

	"github.com/go-chi/chi/v5"
)

// MutationResponse is returned by every command that changes a tree
type MutationResponse struct {
	Version  int                `json:"version"`
	Graph    *projections.Graph `json:"graph"`
	Warnings []string           `json:"warnings,omitempty"`
}

// MoveResponse is returned by a position change
type MoveResponse struct {
	Updated bool `json:"updated"`
	Version int  `json:"version"`
}

func newMutationResponse(tree *aggregates.Tree, warnings []string) *MutationResponse {
	return &MutationResponse{
		Version:  tree.Version(),
		Graph:    projections.Project(tree, nil),
		Warnings: warnings,
	}
}

// toResponse converts command result data into its HTTP shape
func toResponse(data interface{}) (interface{}, error) {
	switch d := data.(type) {
	case *services.MutationResult:
		return newMutationResponse(d.Tree, d.Warnings), nil
	case *cmdhandlers.MoveResult:
		return &MoveResponse{Updated: d.Updated, Version: d.Tree.Version()}, nil
	default:
		return nil, fmt.Errorf("unexpected command result %T", data)
	}
}

// decodeBody parses and validates a JSON request body
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if err := common.ParseJSONBody(w, r, v, common.MaxBodyBytes); err != nil {
		return pkgerrors.NewValidationError("invalid request body: " + err.Error())
	}
	return utils.ValidateStruct(v)
}

// nodeKey reads the key path segment. Keys are category names in memory
// sessions and may arrive percent-encoded.
func nodeKey(r *http.Request) string {
	raw := chi.URLParam(r, "key")
	if key, err := url.PathUnescape(raw); err == nil {
		return key
	}
	return raw
}

func sessionID(r *http.Request) string {
	return chi.URLParam(r, "sessionID")
}
