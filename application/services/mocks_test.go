package services

import (
	"context"

	"taxonomy/application/ports"
	"taxonomy/domain/core/entities"
	"taxonomy/domain/events"

	"github.com/stretchr/testify/mock"
)

type mockClassifier struct {
	mock.Mock
}

func (m *mockClassifier) GenerateClasses(ctx context.Context, req ports.GenerateClassesRequest) (*ports.GenerateClassesResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.GenerateClassesResponse), args.Error(1)
}

func (m *mockClassifier) ClassifyItems(ctx context.Context, req ports.ClassifyItemsRequest) (*ports.ClassifyItemsResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.ClassifyItemsResponse), args.Error(1)
}

type mockSessionStore struct {
	mock.Mock
}

func (m *mockSessionStore) InitializeSession(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockSessionStore) LoadSession(ctx context.Context, sessionID string) (*entities.SnapshotNode, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SnapshotNode), args.Error(1)
}

func (m *mockSessionStore) CreateCategory(ctx context.Context, sessionID string, category entities.Category, parentID string) (entities.Category, error) {
	args := m.Called(ctx, sessionID, category, parentID)
	return args.Get(0).(entities.Category), args.Error(1)
}

func (m *mockSessionStore) UpdateCategory(ctx context.Context, sessionID, categoryID string, category entities.Category) error {
	return m.Called(ctx, sessionID, categoryID, category).Error(0)
}

func (m *mockSessionStore) UpdateCategoryItems(ctx context.Context, sessionID, categoryID string, items []entities.Item) error {
	return m.Called(ctx, sessionID, categoryID, items).Error(0)
}

func (m *mockSessionStore) UpdateItems(ctx context.Context, sessionID, containerID string, items []entities.Item) error {
	return m.Called(ctx, sessionID, containerID, items).Error(0)
}

func (m *mockSessionStore) DeleteCategory(ctx context.Context, sessionID, categoryID string) error {
	return m.Called(ctx, sessionID, categoryID).Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockPublisher) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	return m.Called(ctx, batch).Error(0)
}
