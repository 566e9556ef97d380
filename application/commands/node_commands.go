package commands

import (
	"taxonomy/domain/core/entities"
	pkgerrors "taxonomy/pkg/errors"
)

// MaxCategoriesPerRequest caps num_categories on a generate request
const MaxCategoriesPerRequest = 50

// GenerateChildrenCommand asks the classifier for children of a node
type GenerateChildrenCommand struct {
	SessionID        string `json:"session_id" validate:"required"`
	NodeKey          string `json:"node_key" validate:"required"`
	NumCategories    int    `json:"num_categories" validate:"min=0,max=50"`
	GenerationMethod string `json:"generation_method"`
	APIKey           string `json:"-"`
}

// Validate validates the command
func (cmd GenerateChildrenCommand) Validate() error {
	if err := requireTarget(cmd.SessionID, cmd.NodeKey); err != nil {
		return err
	}
	if cmd.NumCategories < 0 || cmd.NumCategories > MaxCategoriesPerRequest {
		return pkgerrors.NewValidationError("num_categories must be between 0 and 50")
	}
	return nil
}

// ClassifyItemsCommand spreads a node's items over its children
type ClassifyItemsCommand struct {
	SessionID string `json:"session_id" validate:"required"`
	NodeKey   string `json:"node_key" validate:"required"`
	APIKey    string `json:"-"`
}

// Validate validates the command
func (cmd ClassifyItemsCommand) Validate() error {
	return requireTarget(cmd.SessionID, cmd.NodeKey)
}

// EditNodeCommand replaces a node's category and items
type EditNodeCommand struct {
	SessionID string            `json:"session_id" validate:"required"`
	NodeKey   string            `json:"node_key" validate:"required"`
	Category  entities.Category `json:"category"`
	Items     []entities.Item   `json:"items"`
}

// Validate validates the command
func (cmd EditNodeCommand) Validate() error {
	return requireTarget(cmd.SessionID, cmd.NodeKey)
}

// DeleteNodeCommand removes a node and its subtree
type DeleteNodeCommand struct {
	SessionID string `json:"session_id" validate:"required"`
	NodeKey   string `json:"node_key" validate:"required"`
}

// Validate validates the command
func (cmd DeleteNodeCommand) Validate() error {
	return requireTarget(cmd.SessionID, cmd.NodeKey)
}

// MoveNodeCommand changes a node's layout position
type MoveNodeCommand struct {
	SessionID string  `json:"session_id" validate:"required"`
	NodeKey   string  `json:"node_key" validate:"required"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// Validate validates the command
func (cmd MoveNodeCommand) Validate() error {
	return requireTarget(cmd.SessionID, cmd.NodeKey)
}

func requireTarget(sessionID, nodeKey string) error {
	if sessionID == "" {
		return pkgerrors.NewValidationError("session ID is required")
	}
	if nodeKey == "" {
		return pkgerrors.NewValidationError("node key is required")
	}
	return nil
}
