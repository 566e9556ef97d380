package queries

import (
	"time"

	"taxonomy/application/ports"
	"taxonomy/application/projections"
	"taxonomy/domain/core/entities"
	"taxonomy/domain/core/valueobjects"
	pkgerrors "taxonomy/pkg/errors"
)

// GetGraphQuery asks for the projected graph of a session
type GetGraphQuery struct {
	SessionID string `json:"session_id"`
	APIKey    string `json:"-"`
}

// Validate validates the query
func (q GetGraphQuery) Validate() error {
	return requireSession(q.SessionID)
}

// GraphView is a projected graph plus the fingerprint of its tree
type GraphView struct {
	Graph    *projections.Graph `json:"graph"`
	Version  int                `json:"version"`
	Checksum string             `json:"checksum"`
}

// GetNodeQuery looks up one node by key
type GetNodeQuery struct {
	SessionID string `json:"session_id"`
	NodeKey   string `json:"node_key"`
}

// Validate validates the query
func (q GetNodeQuery) Validate() error {
	if err := requireSession(q.SessionID); err != nil {
		return err
	}
	if q.NodeKey == "" {
		return pkgerrors.NewValidationError("node key is required")
	}
	return nil
}

// NodeView describes one node and where it sits
type NodeView struct {
	Key       string                `json:"key"`
	ParentKey string                `json:"parent_key,omitempty"`
	Depth     int                   `json:"depth"`
	Category  entities.Category     `json:"category"`
	Items     []entities.Item       `json:"items"`
	Children  []string              `json:"children"`
	Position  valueobjects.Position `json:"position"`
}

// GetSessionQuery asks for a session summary
type GetSessionQuery struct {
	SessionID string `json:"session_id"`
}

// Validate validates the query
func (q GetSessionQuery) Validate() error {
	return requireSession(q.SessionID)
}

// SessionView summarizes a session
type SessionView struct {
	ID        string    `json:"id"`
	Mode      string    `json:"mode"`
	Version   int       `json:"version"`
	Checksum  string    `json:"checksum"`
	NodeCount int       `json:"node_count"`
	ItemCount int       `json:"item_count"`
	Warnings  []string  `json:"warnings"`
	CreatedAt time.Time `json:"created_at"`
}

// GetSessionEventsQuery asks for the journaled events of a session
type GetSessionEventsQuery struct {
	SessionID string `json:"session_id"`
}

// Validate validates the query
func (q GetSessionEventsQuery) Validate() error {
	return requireSession(q.SessionID)
}

// EventsView lists journaled events in version order
type EventsView struct {
	SessionID string              `json:"session_id"`
	Events    []ports.EventRecord `json:"events"`
}

// GetStatusQuery asks whether the engine has remote work in flight
type GetStatusQuery struct{}

// Validate validates the query
func (q GetStatusQuery) Validate() error {
	return nil
}

// StatusView reports the loading indicator
type StatusView struct {
	Loading  bool `json:"loading"`
	InFlight int  `json:"in_flight"`
	Sessions int  `json:"sessions"`
}

func requireSession(id string) error {
	if id == "" {
		return pkgerrors.NewValidationError("session ID is required")
	}
	return nil
}
