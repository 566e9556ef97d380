package dynamodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"taxonomy/application/ports"
	"taxonomy/domain/config"
	"taxonomy/domain/core/entities"
	"taxonomy/infrastructure/persistence/records"
	pkgerrors "taxonomy/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	sessionMetaSK  = "META"
	categoryPrefix = "CATEGORY#"
)

// sessionItem is the per-session metadata row. Seq hands out sibling order.
type sessionItem struct {
	PK         string `dynamodbav:"PK"` // SESSION#<id>
	SK         string `dynamodbav:"SK"` // META
	EntityType string `dynamodbav:"EntityType"`
	SessionID  string `dynamodbav:"SessionID"`
	Seq        int    `dynamodbav:"Seq"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
}

// categoryItem is one stored category. Items are kept as a JSON document
// because item fields are free-form.
type categoryItem struct {
	PK          string `dynamodbav:"PK"` // SESSION#<id>
	SK          string `dynamodbav:"SK"` // CATEGORY#<id>
	EntityType  string `dynamodbav:"EntityType"`
	SessionID   string `dynamodbav:"SessionID"`
	CategoryID  string `dynamodbav:"CategoryID"`
	ParentID    string `dynamodbav:"ParentID,omitempty"`
	Name        string `dynamodbav:"Name"`
	Description string `dynamodbav:"Description"`
	Items       string `dynamodbav:"Items"`
	Seq         int    `dynamodbav:"Seq"`
	UpdatedAt   string `dynamodbav:"UpdatedAt"`
}

func sessionPK(sessionID string) string { return "SESSION#" + sessionID }

func categorySK(categoryID string) string { return categoryPrefix + categoryID }

func categoryKey(sessionID, categoryID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: sessionPK(sessionID)},
		"SK": &types.AttributeValueMemberS{Value: categorySK(categoryID)},
	}
}

func toCategoryItem(sessionID string, rec records.CategoryRecord, now time.Time) (categoryItem, error) {
	items := rec.Items
	if items == nil {
		items = []entities.Item{}
	}
	encoded, err := json.Marshal(items)
	if err != nil {
		return categoryItem{}, fmt.Errorf("failed to encode items: %w", err)
	}
	return categoryItem{
		PK:          sessionPK(sessionID),
		SK:          categorySK(rec.ID),
		EntityType:  "CATEGORY",
		SessionID:   sessionID,
		CategoryID:  rec.ID,
		ParentID:    rec.ParentID,
		Name:        rec.Name,
		Description: rec.Description,
		Items:       string(encoded),
		Seq:         rec.Seq,
		UpdatedAt:   now.Format(time.RFC3339),
	}, nil
}

func (c categoryItem) record() (records.CategoryRecord, error) {
	var items []entities.Item
	if c.Items != "" {
		if err := json.Unmarshal([]byte(c.Items), &items); err != nil {
			return records.CategoryRecord{}, pkgerrors.NewInvalidItems(fmt.Sprintf("category %s: %v", c.CategoryID, err))
		}
	}
	return records.CategoryRecord{
		ID:          c.CategoryID,
		ParentID:    c.ParentID,
		Name:        c.Name,
		Description: c.Description,
		Items:       items,
		Seq:         c.Seq,
	}, nil
}

// SessionStore implements ports.SessionStore on a single DynamoDB table
type SessionStore struct {
	client    API
	tableName string
	cfg       *config.DomainConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewSessionStore creates a new DynamoDB session store
func NewSessionStore(client API, tableName string, cfg *config.DomainConfig, logger *zap.Logger) *SessionStore {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionStore{client: client, tableName: tableName, cfg: cfg, logger: logger, now: time.Now}
}

// InitializeSession writes the session row and its root category in one
// transaction
func (s *SessionStore) InitializeSession(ctx context.Context) (string, error) {
	sessionID := uuid.New().String()
	now := s.now()

	meta, err := attributevalue.MarshalMap(sessionItem{
		PK:         sessionPK(sessionID),
		SK:         sessionMetaSK,
		EntityType: "SESSION",
		SessionID:  sessionID,
		Seq:        1,
		CreatedAt:  now.Format(time.RFC3339),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal session: %w", err)
	}

	rootItem, err := toCategoryItem(sessionID, records.CategoryRecord{
		ID:          uuid.New().String(),
		Name:        s.cfg.RootName,
		Description: s.cfg.RootDescription,
		Items:       entities.SampleItems(),
	}, now)
	if err != nil {
		return "", err
	}
	root, err := attributevalue.MarshalMap(rootItem)
	if err != nil {
		return "", fmt.Errorf("failed to marshal root category: %w", err)
	}

	cond, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build condition: %w", err)
	}

	_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:                aws.String(s.tableName),
				Item:                     meta,
				ConditionExpression:      cond.Condition(),
				ExpressionAttributeNames: cond.Names(),
			}},
			{Put: &types.Put{
				TableName: aws.String(s.tableName),
				Item:      root,
			}},
		},
	})
	if err != nil {
		return "", pkgerrors.NewDatabaseError("initialize_session", err)
	}

	s.logger.Debug("Session initialized in DynamoDB", zap.String("sessionID", sessionID))
	return sessionID, nil
}

// LoadSession reads every category of the session and assembles the tree
func (s *SessionStore) LoadSession(ctx context.Context, sessionID string) (*entities.SnapshotNode, error) {
	recs, err := s.categories(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, pkgerrors.NewSessionNotFound(sessionID)
	}
	root, err := records.AssembleSnapshot(recs)
	if err != nil {
		return nil, pkgerrors.NewInvalidItems(err.Error())
	}
	return root, nil
}

// CreateCategory reserves a sequence number on the session row and stores
// the category with it
func (s *SessionStore) CreateCategory(ctx context.Context, sessionID string, category entities.Category, parentID string) (entities.Category, error) {
	seq, err := s.nextSeq(ctx, sessionID)
	if err != nil {
		return entities.Category{}, err
	}

	rec := records.CategoryRecord{
		ID:          uuid.New().String(),
		ParentID:    parentID,
		Name:        category.Name,
		Description: category.Description,
		Seq:         seq,
	}
	item, err := toCategoryItem(sessionID, rec, s.now())
	if err != nil {
		return entities.Category{}, err
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return entities.Category{}, fmt.Errorf("failed to marshal category: %w", err)
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	}); err != nil {
		return entities.Category{}, pkgerrors.NewDatabaseError("create_category", err)
	}
	return rec.Category(), nil
}

// UpdateCategory replaces a category's name and description
func (s *SessionStore) UpdateCategory(ctx context.Context, sessionID, categoryID string, category entities.Category) error {
	update := expression.
		Set(expression.Name("Name"), expression.Value(category.Name)).
		Set(expression.Name("Description"), expression.Value(category.Description)).
		Set(expression.Name("UpdatedAt"), expression.Value(s.now().Format(time.RFC3339)))
	return s.updateCategory(ctx, "update_category", sessionID, categoryID, update)
}

// UpdateCategoryItems replaces the items held by a category
func (s *SessionStore) UpdateCategoryItems(ctx context.Context, sessionID, categoryID string, items []entities.Item) error {
	if items == nil {
		items = []entities.Item{}
	}
	encoded, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode items: %w", err)
	}
	update := expression.
		Set(expression.Name("Items"), expression.Value(string(encoded))).
		Set(expression.Name("UpdatedAt"), expression.Value(s.now().Format(time.RFC3339)))
	return s.updateCategory(ctx, "update_category_items", sessionID, categoryID, update)
}

// UpdateItems moves items into a container, removing them from whichever
// categories held them before
func (s *SessionStore) UpdateItems(ctx context.Context, sessionID, containerID string, items []entities.Item) error {
	recs, err := s.categories(ctx, sessionID)
	if err != nil {
		return err
	}

	moved := make(map[string]bool, len(items))
	for _, item := range items {
		moved[item.ID] = true
	}

	now := s.now()
	var requests []types.WriteRequest
	found := false
	for _, rec := range recs {
		switch {
		case rec.ID == containerID:
			found = true
			rec.Items = items
		case containsAny(rec.Items, moved):
			rec.Items = records.WithoutItems(rec.Items, moved)
		default:
			continue
		}

		item, err := toCategoryItem(sessionID, rec, now)
		if err != nil {
			return err
		}
		av, err := attributevalue.MarshalMap(item)
		if err != nil {
			return fmt.Errorf("failed to marshal category: %w", err)
		}
		requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: av}})
	}
	if !found {
		return pkgerrors.NewNotFoundError("category " + containerID)
	}

	if err := batchWrite(ctx, s.client, s.tableName, requests); err != nil {
		return pkgerrors.NewDatabaseError("update_items", err)
	}
	return nil
}

// DeleteCategory removes a category and every category below it
func (s *SessionStore) DeleteCategory(ctx context.Context, sessionID, categoryID string) error {
	recs, err := s.categories(ctx, sessionID)
	if err != nil {
		return err
	}

	var target *records.CategoryRecord
	for i := range recs {
		if recs[i].ID == categoryID {
			target = &recs[i]
			break
		}
	}
	if target == nil {
		return pkgerrors.NewNotFoundError("category " + categoryID)
	}
	if target.ParentID == "" {
		return pkgerrors.NewRootDeletionForbidden(categoryID)
	}

	ids := records.SubtreeIDs(recs, categoryID)
	requests := make([]types.WriteRequest, 0, len(ids))
	for _, id := range ids {
		requests = append(requests, types.WriteRequest{
			DeleteRequest: &types.DeleteRequest{Key: categoryKey(sessionID, id)},
		})
	}

	if err := batchWrite(ctx, s.client, s.tableName, requests); err != nil {
		return pkgerrors.NewDatabaseError("delete_category", err)
	}

	s.logger.Debug("Categories deleted",
		zap.String("sessionID", sessionID),
		zap.String("categoryID", categoryID),
		zap.Int("count", len(ids)),
	)
	return nil
}

func (s *SessionStore) categories(ctx context.Context, sessionID string) ([]records.CategoryRecord, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(sessionPK(sessionID))).
		And(expression.Key("SK").BeginsWith(categoryPrefix))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build key condition: %w", err)
	}

	items, err := queryAll(ctx, s.client, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("load_session", err)
	}

	recs := make([]records.CategoryRecord, 0, len(items))
	for _, av := range items {
		var item categoryItem
		if err := attributevalue.UnmarshalMap(av, &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal category: %w", err)
		}
		rec, err := item.record()
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (s *SessionStore) nextSeq(ctx context.Context, sessionID string) (int, error) {
	expr, err := expression.NewBuilder().
		WithUpdate(expression.Add(expression.Name("Seq"), expression.Value(1))).
		WithCondition(expression.AttributeExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return 0, fmt.Errorf("failed to build update: %w", err)
	}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: sessionPK(sessionID)},
			"SK": &types.AttributeValueMemberS{Value: sessionMetaSK},
		},
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return 0, pkgerrors.NewSessionNotFound(sessionID)
		}
		return 0, pkgerrors.NewDatabaseError("create_category", err)
	}

	var seq int
	if err := attributevalue.Unmarshal(out.Attributes["Seq"], &seq); err != nil {
		return 0, fmt.Errorf("failed to read sequence: %w", err)
	}
	return seq, nil
}

func (s *SessionStore) updateCategory(ctx context.Context, operation, sessionID, categoryID string, update expression.UpdateBuilder) error {
	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name("SK"))).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build update: %w", err)
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       categoryKey(sessionID, categoryID),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return pkgerrors.NewNotFoundError("category " + categoryID)
		}
		return pkgerrors.NewDatabaseError(operation, err)
	}
	return nil
}

func containsAny(items []entities.Item, ids map[string]bool) bool {
	for _, item := range items {
		if ids[item.ID] {
			return true
		}
	}
	return false
}

var _ ports.SessionStore = (*SessionStore)(nil)
