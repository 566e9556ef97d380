package ports

import (
	"context"
	"time"

	"taxonomy/domain/core/entities"
	"taxonomy/domain/events"
)

// ClassifierClient is the raw transport to the classification service.
// Response shaping (dedup, truncation, id reconciliation) happens above it.
type ClassifierClient interface {
	GenerateClasses(ctx context.Context, req GenerateClassesRequest) (*GenerateClassesResponse, error)
	ClassifyItems(ctx context.Context, req ClassifyItemsRequest) (*ClassifyItemsResponse, error)
}

// GenerateClassesRequest is the body of POST /generate_classes
type GenerateClassesRequest struct {
	Items            []entities.Item   `json:"items"`
	Category         entities.Category `json:"category"`
	NumCategories    int               `json:"num_categories"`
	GenerationMethod string            `json:"generation_method"`
	APIKey           string            `json:"api_key"`
}

// GenerateClassesResponse is the body returned by POST /generate_classes
type GenerateClassesResponse struct {
	Categories []entities.Category `json:"categories"`
}

// ClassifyItemsRequest is the body of POST /classify_items
type ClassifyItemsRequest struct {
	Categories []entities.Category `json:"categories"`
	Items      []entities.Item     `json:"items"`
	APIKey     string              `json:"api_key"`
}

// ClassifyItemsResponse is the body returned by POST /classify_items
type ClassifyItemsResponse struct {
	ClassifiedItems []entities.ClassifiedItem `json:"classified_items"`
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// Metrics records engine activity
type Metrics interface {
	// RecordMutation counts one tree mutation attempt and its duration
	RecordMutation(operation, outcome string, duration time.Duration)

	// RecordRemoteCall counts one call to the classifier or the persistence service
	RecordRemoteCall(service, operation string, err error, duration time.Duration)

	// SetActiveSessions reports the number of live sessions
	SetActiveSessions(n int)

	// SetInFlight reports the number of mutations currently awaiting remote work
	SetInFlight(n int)
}
