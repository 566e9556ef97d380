// Package memory provides an in-process session store used for local runs
// and tests in place of the persistence service.
package memory

import (
	"context"
	"sync"

	"taxonomy/application/ports"
	"taxonomy/domain/config"
	"taxonomy/domain/core/entities"
	"taxonomy/infrastructure/persistence/records"
	pkgerrors "taxonomy/pkg/errors"

	"github.com/google/uuid"
)

type session struct {
	categories map[string]*records.CategoryRecord
	seq        int
}

func (s *session) list() []records.CategoryRecord {
	out := make([]records.CategoryRecord, 0, len(s.categories))
	for _, rec := range s.categories {
		out = append(out, *rec)
	}
	return out
}

// SessionStore keeps sessions in a map guarded by a mutex
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
	cfg      *config.DomainConfig
}

// NewSessionStore creates an empty store. New sessions get a root category
// holding the sample items.
func NewSessionStore(cfg *config.DomainConfig) *SessionStore {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &SessionStore{sessions: make(map[string]*session), cfg: cfg}
}

// InitializeSession creates a session with its root category
func (s *SessionStore) InitializeSession(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	rootID := uuid.New().String()
	s.sessions[id] = &session{
		categories: map[string]*records.CategoryRecord{
			rootID: {
				ID:          rootID,
				Name:        s.cfg.RootName,
				Description: s.cfg.RootDescription,
				Items:       entities.SampleItems(),
			},
		},
		seq: 1,
	}
	return id, nil
}

// LoadSession assembles the stored tree
func (s *SessionStore) LoadSession(ctx context.Context, sessionID string) (*entities.SnapshotNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, pkgerrors.NewSessionNotFound(sessionID)
	}
	return records.AssembleSnapshot(sess.list())
}

// CreateCategory stores a new category below parentID
func (s *SessionStore) CreateCategory(ctx context.Context, sessionID string, category entities.Category, parentID string) (entities.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return entities.Category{}, err
	}
	if _, ok := sess.categories[parentID]; !ok {
		return entities.Category{}, pkgerrors.NewNotFoundError("category " + parentID)
	}

	rec := &records.CategoryRecord{
		ID:          uuid.New().String(),
		ParentID:    parentID,
		Name:        category.Name,
		Description: category.Description,
		Seq:         sess.seq,
	}
	sess.seq++
	sess.categories[rec.ID] = rec
	return rec.Category(), nil
}

// UpdateCategory replaces a category's name and description
func (s *SessionStore) UpdateCategory(ctx context.Context, sessionID, categoryID string, category entities.Category) error {
	return s.update(sessionID, categoryID, func(_ *session, rec *records.CategoryRecord) {
		rec.Name = category.Name
		rec.Description = category.Description
	})
}

// UpdateCategoryItems replaces the items held by a category
func (s *SessionStore) UpdateCategoryItems(ctx context.Context, sessionID, categoryID string, items []entities.Item) error {
	return s.update(sessionID, categoryID, func(_ *session, rec *records.CategoryRecord) {
		rec.Items = append([]entities.Item(nil), items...)
	})
}

// UpdateItems moves items into a container. Items are removed from any
// other category of the session that held them.
func (s *SessionStore) UpdateItems(ctx context.Context, sessionID, containerID string, items []entities.Item) error {
	moved := make(map[string]bool, len(items))
	for _, item := range items {
		moved[item.ID] = true
	}
	return s.update(sessionID, containerID, func(sess *session, rec *records.CategoryRecord) {
		for _, other := range sess.categories {
			if other.ID != containerID {
				other.Items = records.WithoutItems(other.Items, moved)
			}
		}
		rec.Items = append([]entities.Item(nil), items...)
	})
}

// DeleteCategory removes a category and its subtree
func (s *SessionStore) DeleteCategory(ctx context.Context, sessionID, categoryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return err
	}
	rec, ok := sess.categories[categoryID]
	if !ok {
		return pkgerrors.NewNotFoundError("category " + categoryID)
	}
	if rec.ParentID == "" {
		return pkgerrors.NewRootDeletionForbidden(categoryID)
	}
	for _, id := range records.SubtreeIDs(sess.list(), categoryID) {
		delete(sess.categories, id)
	}
	return nil
}

func (s *SessionStore) update(sessionID, categoryID string, apply func(*session, *records.CategoryRecord)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.session(sessionID)
	if err != nil {
		return err
	}
	rec, ok := sess.categories[categoryID]
	if !ok {
		return pkgerrors.NewNotFoundError("category " + categoryID)
	}
	apply(sess, rec)
	return nil
}

func (s *SessionStore) session(id string) (*session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, pkgerrors.NewSessionNotFound(id)
	}
	return sess, nil
}

var _ ports.SessionStore = (*SessionStore)(nil)
