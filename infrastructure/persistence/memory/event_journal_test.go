package memory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"taxonomy/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventJournal_SaveAndGet(t *testing.T) {
	// Arrange
	journal := NewEventJournal()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, journal.SaveEvents(ctx, []events.DomainEvent{
		events.NewNodeDeleted("s1", "Birds", "Root", []string{"Birds"}, 3, now),
		events.NewTreeLoaded("s1", "Root", 1, "seed", 1, now),
		events.NewTreeLoaded("s2", "Root", 1, "seed", 1, now),
	}))

	// Act
	records, err := journal.GetEvents(ctx, "s1")

	// Assert
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "tree.loaded", records[0].EventType)
	assert.Equal(t, "tree.node_deleted", records[1].EventType)
	assert.NotEmpty(t, records[1].EventID)
	assert.JSONEq(t, `["Birds"]`, string(mustField(t, records[1].Payload, "removed_keys")))
}

func TestEventJournal_UnknownSessionIsEmpty(t *testing.T) {
	records, err := NewEventJournal().GetEvents(context.Background(), "missing")

	require.NoError(t, err)
	assert.Empty(t, records)
}

func mustField(t *testing.T, payload json.RawMessage, name string) json.RawMessage {
	t.Helper()
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(payload, &fields))
	return fields[name]
}
