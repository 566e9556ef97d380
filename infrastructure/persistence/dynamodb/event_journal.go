package dynamodb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"taxonomy/application/ports"
	"taxonomy/domain/events"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// eventItem represents how events are stored in DynamoDB
type eventItem struct {
	PK          string `dynamodbav:"PK"` // EVENTS#<session_id>
	SK          string `dynamodbav:"SK"` // EVENT#<version>#<event_id>
	EventID     string `dynamodbav:"EventID"`
	EventType   string `dynamodbav:"EventType"`
	AggregateID string `dynamodbav:"AggregateID"`
	EventData   string `dynamodbav:"EventData"`
	Timestamp   string `dynamodbav:"Timestamp"`
	Version     int    `dynamodbav:"Version"`
	TTL         int64  `dynamodbav:"TTL,omitempty"`
}

// EventJournal implements ports.EventStore using DynamoDB. Sort keys embed
// the zero-padded tree version so a query returns events in version order.
type EventJournal struct {
	client    API
	tableName string
	retention time.Duration
}

// NewEventJournal creates a journal whose records expire after retention;
// zero keeps them forever
func NewEventJournal(client API, tableName string, retention time.Duration) *EventJournal {
	return &EventJournal{client: client, tableName: tableName, retention: retention}
}

// SaveEvents persists domain events
func (j *EventJournal) SaveEvents(ctx context.Context, domainEvents []events.DomainEvent) error {
	if len(domainEvents) == 0 {
		return nil
	}

	requests := make([]types.WriteRequest, 0, len(domainEvents))
	for _, event := range domainEvents {
		item, err := j.eventToItem(event)
		if err != nil {
			return fmt.Errorf("failed to convert event to record: %w", err)
		}
		av, err := attributevalue.MarshalMap(item)
		if err != nil {
			return fmt.Errorf("failed to marshal event record: %w", err)
		}
		requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: av}})
	}

	if err := batchWrite(ctx, j.client, j.tableName, requests); err != nil {
		return fmt.Errorf("failed to write events: %w", err)
	}
	return nil
}

// GetEvents retrieves all events of a session in version order
func (j *EventJournal) GetEvents(ctx context.Context, aggregateID string) ([]ports.EventRecord, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("PK").Equal(expression.Value(eventsPK(aggregateID)))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build key condition: %w", err)
	}

	items, err := queryAll(ctx, j.client, &dynamodb.QueryInput{
		TableName:                 aws.String(j.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}

	out := make([]ports.EventRecord, 0, len(items))
	for _, av := range items {
		var item eventItem
		if err := attributevalue.UnmarshalMap(av, &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event record: %w", err)
		}
		timestamp, err := time.Parse(time.RFC3339Nano, item.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to parse timestamp: %w", err)
		}
		out = append(out, ports.EventRecord{
			EventID:     item.EventID,
			AggregateID: item.AggregateID,
			EventType:   item.EventType,
			Version:     item.Version,
			Timestamp:   timestamp,
			Payload:     json.RawMessage(item.EventData),
		})
	}
	return out, nil
}

func (j *EventJournal) eventToItem(event events.DomainEvent) (eventItem, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return eventItem{}, fmt.Errorf("failed to marshal event: %w", err)
	}

	eventID := uuid.New().String()
	timestamp := event.GetTimestamp()
	item := eventItem{
		PK:          eventsPK(event.GetAggregateID()),
		SK:          fmt.Sprintf("EVENT#%010d#%s", event.GetVersion(), eventID),
		EventID:     eventID,
		EventType:   event.GetEventType(),
		AggregateID: event.GetAggregateID(),
		EventData:   string(data),
		Timestamp:   timestamp.Format(time.RFC3339Nano),
		Version:     event.GetVersion(),
	}
	if j.retention > 0 {
		item.TTL = timestamp.Add(j.retention).Unix()
	}
	return item, nil
}

func eventsPK(aggregateID string) string { return "EVENTS#" + aggregateID }

var _ ports.EventStore = (*EventJournal)(nil)
