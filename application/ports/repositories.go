package ports

import (
	"context"
	"encoding/json"
	"time"

	"taxonomy/domain/core/entities"
	"taxonomy/domain/events"
)

// SessionStore is the durable session backend. Its operations mirror the
// persistence service: a session is created empty with a root category, the
// stored tree is fetched whole, and every change is one small write keyed by
// category id.
type SessionStore interface {
	// InitializeSession creates a session and returns its id
	InitializeSession(ctx context.Context) (string, error)

	// LoadSession returns the stored tree of a session
	LoadSession(ctx context.Context, sessionID string) (*entities.SnapshotNode, error)

	// CreateCategory stores a new category below parentID and returns it with its id
	CreateCategory(ctx context.Context, sessionID string, category entities.Category, parentID string) (entities.Category, error)

	// UpdateCategory replaces a category's name and description
	UpdateCategory(ctx context.Context, sessionID, categoryID string, category entities.Category) error

	// UpdateCategoryItems replaces the items held by a category
	UpdateCategoryItems(ctx context.Context, sessionID, categoryID string, items []entities.Item) error

	// UpdateItems places items inside a container category
	UpdateItems(ctx context.Context, sessionID, containerID string, items []entities.Item) error

	// DeleteCategory removes a category and everything below it
	DeleteCategory(ctx context.Context, sessionID, categoryID string) error
}

// EventStore defines the interface for event persistence
type EventStore interface {
	// SaveEvents persists domain events
	SaveEvents(ctx context.Context, events []events.DomainEvent) error

	// GetEvents retrieves the raw event records of a session in version order
	GetEvents(ctx context.Context, aggregateID string) ([]EventRecord, error)
}

// EventRecord is a stored event as read back from the journal
type EventRecord struct {
	EventID     string          `json:"event_id"`
	AggregateID string          `json:"aggregate_id"`
	EventType   string          `json:"event_type"`
	Version     int             `json:"version"`
	Timestamp   time.Time       `json:"timestamp"`
	Payload     json.RawMessage `json:"payload"`
}

// Cache defines the interface for caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value in cache with a TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error
}
