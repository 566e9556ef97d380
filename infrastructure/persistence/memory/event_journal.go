package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"taxonomy/application/ports"
	"taxonomy/domain/events"

	"github.com/google/uuid"
)

// EventJournal keeps journaled events per session in process memory
type EventJournal struct {
	mu      sync.RWMutex
	records map[string][]ports.EventRecord
}

// NewEventJournal creates an empty journal
func NewEventJournal() *EventJournal {
	return &EventJournal{records: make(map[string][]ports.EventRecord)}
}

// SaveEvents appends events to their session's journal
func (j *EventJournal) SaveEvents(_ context.Context, domainEvents []events.DomainEvent) error {
	converted := make([]ports.EventRecord, 0, len(domainEvents))
	for _, event := range domainEvents {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal %s: %w", event.GetEventType(), err)
		}
		converted = append(converted, ports.EventRecord{
			EventID:     uuid.New().String(),
			AggregateID: event.GetAggregateID(),
			EventType:   event.GetEventType(),
			Version:     event.GetVersion(),
			Timestamp:   event.GetTimestamp(),
			Payload:     payload,
		})
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	for _, rec := range converted {
		j.records[rec.AggregateID] = append(j.records[rec.AggregateID], rec)
	}
	return nil
}

// GetEvents returns a copy of a session's events in version order
func (j *EventJournal) GetEvents(_ context.Context, aggregateID string) ([]ports.EventRecord, error) {
	j.mu.RLock()
	out := make([]ports.EventRecord, len(j.records[aggregateID]))
	copy(out, j.records[aggregateID])
	j.mu.RUnlock()

	sort.SliceStable(out, func(a, b int) bool { return out[a].Version < out[b].Version })
	return out, nil
}

var _ ports.EventStore = (*EventJournal)(nil)
