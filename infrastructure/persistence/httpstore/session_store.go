// Package httpstore implements the session store against the remote
// persistence service.
package httpstore

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"taxonomy/application/ports"
	"taxonomy/domain/core/entities"
	"taxonomy/infrastructure/remote"
	pkgerrors "taxonomy/pkg/errors"
)

type initializeResponse struct {
	ID string `json:"id"`
}

type sessionResponse struct {
	Tree []entities.SnapshotNode `json:"tree"`
}

type createCategoryRequest struct {
	SessionID string            `json:"session_id"`
	Category  entities.Category `json:"category"`
	IsChildOf string            `json:"is_child_of"`
}

type updateCategoryRequest struct {
	SessionID  string            `json:"session_id"`
	CategoryID string            `json:"category_id"`
	Category   entities.Category `json:"category"`
}

type updateCategoryItemsRequest struct {
	SessionID  string          `json:"session_id"`
	Items      []entities.Item `json:"items"`
	CategoryID string          `json:"category_id"`
}

type updateItemsRequest struct {
	SessionID         string          `json:"session_id"`
	Items             []entities.Item `json:"items"`
	IsContainedInside string          `json:"is_contained_inside"`
}

type deleteCategoryRequest struct {
	SessionID  string `json:"session_id"`
	CategoryID string `json:"category_id"`
}

// SessionStore implements ports.SessionStore over HTTP
type SessionStore struct {
	transport *remote.JSONClient
}

// NewSessionStore creates a store over the given transport
func NewSessionStore(transport *remote.JSONClient) *SessionStore {
	return &SessionStore{transport: transport}
}

// InitializeSession creates a session and returns its id
func (s *SessionStore) InitializeSession(ctx context.Context) (string, error) {
	var resp initializeResponse
	if err := s.transport.Post(ctx, "initialize_session", "/initialize_session", struct{}{}, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("initialize_session returned no id")
	}
	return resp.ID, nil
}

// LoadSession fetches the stored tree. The first element of the tree list
// is the root.
func (s *SessionStore) LoadSession(ctx context.Context, sessionID string) (*entities.SnapshotNode, error) {
	var resp sessionResponse
	err := s.transport.Get(ctx, "load_session", "/session/"+url.PathEscape(sessionID), &resp)
	if remote.IsStatus(err, http.StatusNotFound) {
		return nil, pkgerrors.NewSessionNotFound(sessionID).WithCause(err)
	}
	if err != nil {
		return nil, pkgerrors.NewExternalError("persistence", err)
	}
	if len(resp.Tree) == 0 {
		return nil, pkgerrors.NewInvalidItems("stored session has no root category")
	}
	return &resp.Tree[0], nil
}

// CreateCategory stores a category below parentID
func (s *SessionStore) CreateCategory(ctx context.Context, sessionID string, category entities.Category, parentID string) (entities.Category, error) {
	var created entities.Category
	err := s.transport.Post(ctx, "create_category", "/create_category", createCategoryRequest{
		SessionID: sessionID,
		Category:  entities.Category{Name: category.Name, Description: category.Description},
		IsChildOf: parentID,
	}, &created)
	return created, err
}

// UpdateCategory replaces a category's name and description
func (s *SessionStore) UpdateCategory(ctx context.Context, sessionID, categoryID string, category entities.Category) error {
	return s.transport.Post(ctx, "update_category", "/update_category", updateCategoryRequest{
		SessionID:  sessionID,
		CategoryID: categoryID,
		Category:   entities.Category{Name: category.Name, Description: category.Description},
	}, nil)
}

// UpdateCategoryItems replaces the items held by a category
func (s *SessionStore) UpdateCategoryItems(ctx context.Context, sessionID, categoryID string, items []entities.Item) error {
	return s.transport.Post(ctx, "update_category_items", "/update_category_items", updateCategoryItemsRequest{
		SessionID:  sessionID,
		Items:      nonNil(items),
		CategoryID: categoryID,
	}, nil)
}

// UpdateItems places items inside a container category
func (s *SessionStore) UpdateItems(ctx context.Context, sessionID, containerID string, items []entities.Item) error {
	return s.transport.Post(ctx, "update_items", "/update_items", updateItemsRequest{
		SessionID:         sessionID,
		Items:             nonNil(items),
		IsContainedInside: containerID,
	}, nil)
}

// DeleteCategory removes a category and its subtree
func (s *SessionStore) DeleteCategory(ctx context.Context, sessionID, categoryID string) error {
	return s.transport.Post(ctx, "delete_category", "/delete_category", deleteCategoryRequest{
		SessionID:  sessionID,
		CategoryID: categoryID,
	}, nil)
}

func nonNil(items []entities.Item) []entities.Item {
	if items == nil {
		return []entities.Item{}
	}
	return items
}

var _ ports.SessionStore = (*SessionStore)(nil)
