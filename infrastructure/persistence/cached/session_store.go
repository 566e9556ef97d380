// Package cached decorates a session store with a snapshot cache.
package cached

import (
	"context"
	"encoding/json"
	"time"

	"taxonomy/application/ports"
	"taxonomy/domain/core/entities"

	"go.uber.org/zap"
)

// SessionStore serves LoadSession from a cache and drops the cached
// snapshot after every write to the same session. Cache failures are
// logged and fall through to the wrapped store.
type SessionStore struct {
	next   ports.SessionStore
	cache  ports.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewSessionStore wraps next with cache
func NewSessionStore(next ports.SessionStore, cache ports.Cache, ttl time.Duration, logger *zap.Logger) *SessionStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionStore{next: next, cache: cache, ttl: ttl, logger: logger}
}

func snapshotKey(sessionID string) string {
	return "session:" + sessionID + ":snapshot"
}

// InitializeSession delegates
func (s *SessionStore) InitializeSession(ctx context.Context) (string, error) {
	return s.next.InitializeSession(ctx)
}

// LoadSession returns the cached snapshot when present
func (s *SessionStore) LoadSession(ctx context.Context, sessionID string) (*entities.SnapshotNode, error) {
	key := snapshotKey(sessionID)

	data, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Snapshot cache read failed", zap.String("sessionID", sessionID), zap.Error(err))
	}
	if ok {
		var snapshot entities.SnapshotNode
		if err := json.Unmarshal(data, &snapshot); err == nil {
			return &snapshot, nil
		}
		s.logger.Warn("Discarding unreadable cached snapshot", zap.String("sessionID", sessionID))
	}

	snapshot, err := s.next.LoadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if encoded, err := json.Marshal(snapshot); err == nil {
		if err := s.cache.Set(ctx, key, encoded, s.ttl); err != nil {
			s.logger.Warn("Snapshot cache write failed", zap.String("sessionID", sessionID), zap.Error(err))
		}
	}
	return snapshot, nil
}

// CreateCategory delegates and invalidates
func (s *SessionStore) CreateCategory(ctx context.Context, sessionID string, category entities.Category, parentID string) (entities.Category, error) {
	created, err := s.next.CreateCategory(ctx, sessionID, category, parentID)
	s.invalidate(ctx, sessionID)
	return created, err
}

// UpdateCategory delegates and invalidates
func (s *SessionStore) UpdateCategory(ctx context.Context, sessionID, categoryID string, category entities.Category) error {
	defer s.invalidate(ctx, sessionID)
	return s.next.UpdateCategory(ctx, sessionID, categoryID, category)
}

// UpdateCategoryItems delegates and invalidates
func (s *SessionStore) UpdateCategoryItems(ctx context.Context, sessionID, categoryID string, items []entities.Item) error {
	defer s.invalidate(ctx, sessionID)
	return s.next.UpdateCategoryItems(ctx, sessionID, categoryID, items)
}

// UpdateItems delegates and invalidates
func (s *SessionStore) UpdateItems(ctx context.Context, sessionID, containerID string, items []entities.Item) error {
	defer s.invalidate(ctx, sessionID)
	return s.next.UpdateItems(ctx, sessionID, containerID, items)
}

// DeleteCategory delegates and invalidates
func (s *SessionStore) DeleteCategory(ctx context.Context, sessionID, categoryID string) error {
	defer s.invalidate(ctx, sessionID)
	return s.next.DeleteCategory(ctx, sessionID, categoryID)
}

// invalidate also runs after failed writes, which may have been partially
// applied
func (s *SessionStore) invalidate(ctx context.Context, sessionID string) {
	if err := s.cache.Delete(ctx, snapshotKey(sessionID)); err != nil {
		s.logger.Warn("Snapshot cache invalidation failed", zap.String("sessionID", sessionID), zap.Error(err))
	}
}

var _ ports.SessionStore = (*SessionStore)(nil)
