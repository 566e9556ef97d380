package dynamodb

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"taxonomy/domain/events"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestEventJournal_SaveEvents(t *testing.T) {
	// Arrange
	client := &mockAPI{}
	var batch *dynamodb.BatchWriteItemInput
	client.On("BatchWriteItem", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { batch = args.Get(1).(*dynamodb.BatchWriteItemInput) }).
		Return(&dynamodb.BatchWriteItemOutput{}, nil)
	journal := NewEventJournal(client, "taxonomy", 24*time.Hour)
	raised := []events.DomainEvent{
		events.NewChildrenGenerated("s1", "Root", []string{"A", "B"}, 2, fixedNow),
		events.NewNodeDeleted("s1", "A", "Root", []string{"A"}, 3, fixedNow),
	}

	// Act
	err := journal.SaveEvents(context.Background(), raised)

	// Assert
	require.NoError(t, err)
	writes := batch.RequestItems["taxonomy"]
	require.Len(t, writes, 2)
	var first eventItem
	require.NoError(t, attributevalue.UnmarshalMap(writes[0].PutRequest.Item, &first))
	assert.Equal(t, "EVENTS#s1", first.PK)
	assert.Contains(t, first.SK, "EVENT#0000000002#")
	assert.Equal(t, "tree.children_generated", first.EventType)
	assert.Equal(t, fixedNow.Add(24*time.Hour).Unix(), first.TTL)
}

func TestEventJournal_SaveEvents_Unprocessed(t *testing.T) {
	client := &mockAPI{}
	client.On("BatchWriteItem", mock.Anything, mock.Anything).Return(&dynamodb.BatchWriteItemOutput{
		UnprocessedItems: map[string][]types.WriteRequest{"taxonomy": {{}}},
	}, nil)

	err := NewEventJournal(client, "taxonomy", 0).SaveEvents(context.Background(), []events.DomainEvent{
		events.NewTreeLoaded("s1", "Root", 1, "seed", 0, fixedNow),
	})

	assert.Error(t, err)
}

func TestEventJournal_GetEvents(t *testing.T) {
	// Arrange
	client := &mockAPI{}
	journal := NewEventJournal(client, "taxonomy", 0)
	item, err := journal.eventToItem(events.NewTreeLoaded("s1", "Root", 1, "seed", 0, fixedNow))
	require.NoError(t, err)
	av, err := attributevalue.MarshalMap(item)
	require.NoError(t, err)
	client.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{
		Items: []map[string]types.AttributeValue{av},
	}, nil)

	// Act
	recs, err := journal.GetEvents(context.Background(), "s1")

	// Assert
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "tree.loaded", recs[0].EventType)
	assert.True(t, fixedNow.Equal(recs[0].Timestamp))
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(recs[0].Payload, &payload))
	assert.Equal(t, "seed", payload["source"])
}
