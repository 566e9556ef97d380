package services

import (
	"context"
	"time"

	"taxonomy/application/ports"
	"taxonomy/domain/core/entities"
	pkgerrors "taxonomy/pkg/errors"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Synchronizer pairs tree mutations with durable writes. Local state is
// updated regardless of the outcome; failures are reported, never rolled
// back.
type Synchronizer interface {
	// CreateChildren stores proposed categories below parent and returns the
	// ones that now exist, in proposal order. On partial failure it returns
	// the created subset together with the error.
	CreateChildren(ctx context.Context, sessionID string, parent entities.Category, proposed []entities.Category) ([]entities.Category, error)

	// PersistEdit stores a node's new category and items
	PersistEdit(ctx context.Context, sessionID string, category entities.Category, items []entities.Item) error

	// PersistClassification stores each child's new item list
	PersistClassification(ctx context.Context, sessionID string, children []*entities.TreeNode) error

	// PersistDelete removes a category and its subtree
	PersistDelete(ctx context.Context, sessionID string, category entities.Category) error
}

// MemorySynchronizer is used by sessions that live only in process
type MemorySynchronizer struct{}

func (MemorySynchronizer) CreateChildren(_ context.Context, _ string, _ entities.Category, proposed []entities.Category) ([]entities.Category, error) {
	return proposed, nil
}

func (MemorySynchronizer) PersistEdit(context.Context, string, entities.Category, []entities.Item) error {
	return nil
}

func (MemorySynchronizer) PersistClassification(context.Context, string, []*entities.TreeNode) error {
	return nil
}

func (MemorySynchronizer) PersistDelete(context.Context, string, entities.Category) error {
	return nil
}

// RemoteSynchronizer writes every change through a SessionStore
type RemoteSynchronizer struct {
	store       ports.SessionStore
	metrics     ports.Metrics
	logger      *zap.Logger
	concurrency int
}

// NewRemoteSynchronizer creates a synchronizer issuing at most concurrency
// writes at once; zero or less means unbounded.
func NewRemoteSynchronizer(store ports.SessionStore, metrics ports.Metrics, logger *zap.Logger, concurrency int) *RemoteSynchronizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RemoteSynchronizer{store: store, metrics: metrics, logger: logger, concurrency: concurrency}
}

// CreateChildren issues one create_category per proposal concurrently
func (s *RemoteSynchronizer) CreateChildren(ctx context.Context, sessionID string, parent entities.Category, proposed []entities.Category) ([]entities.Category, error) {
	created := make([]entities.Category, len(proposed))
	errs := make([]error, len(proposed))

	s.fanOut(len(proposed), func(i int) {
		start := time.Now()
		category, err := s.store.CreateCategory(ctx, sessionID, proposed[i], parent.ID)
		s.record("create_category", err, start)
		if err == nil && category.ID == "" {
			err = pkgerrors.NewInvalidItems("persistence service returned a category without id")
		}
		created[i], errs[i] = category, err
	})

	var out []entities.Category
	for i, category := range created {
		if errs[i] == nil {
			out = append(out, category)
		}
	}

	if err := multierr.Combine(errs...); err != nil {
		s.logger.Error("Some categories were not created",
			zap.String("sessionID", sessionID),
			zap.Int("created", len(out)),
			zap.Int("proposed", len(proposed)),
			zap.Error(err),
		)
		return out, pkgerrors.NewPersistenceWriteFailed("create_category", err)
	}
	return out, nil
}

// PersistEdit updates the category first and its items second
func (s *RemoteSynchronizer) PersistEdit(ctx context.Context, sessionID string, category entities.Category, items []entities.Item) error {
	start := time.Now()
	err := s.store.UpdateCategory(ctx, sessionID, category.ID, category)
	s.record("update_category", err, start)
	if err != nil {
		return pkgerrors.NewPersistenceWriteFailed("update_category", err)
	}

	start = time.Now()
	err = s.store.UpdateCategoryItems(ctx, sessionID, category.ID, items)
	s.record("update_category_items", err, start)
	if err != nil {
		return pkgerrors.NewPersistenceWriteFailed("update_category_items", err)
	}
	return nil
}

// PersistClassification issues update_items for every child that received
// items, concurrently, and joins the failures into one error.
func (s *RemoteSynchronizer) PersistClassification(ctx context.Context, sessionID string, children []*entities.TreeNode) error {
	var targets []*entities.TreeNode
	for _, child := range children {
		if child.ItemCount() > 0 {
			targets = append(targets, child)
		}
	}

	errs := make([]error, len(targets))
	s.fanOut(len(targets), func(i int) {
		start := time.Now()
		errs[i] = s.store.UpdateItems(ctx, sessionID, targets[i].Value().ID, targets[i].Items())
		s.record("update_items", errs[i], start)
	})

	if err := multierr.Combine(errs...); err != nil {
		return pkgerrors.NewPersistenceWriteFailed("update_items", err)
	}
	return nil
}

// PersistDelete removes the category remotely
func (s *RemoteSynchronizer) PersistDelete(ctx context.Context, sessionID string, category entities.Category) error {
	start := time.Now()
	err := s.store.DeleteCategory(ctx, sessionID, category.ID)
	s.record("delete_category", err, start)
	if err != nil {
		return pkgerrors.NewPersistenceWriteFailed("delete_category", err)
	}
	return nil
}

// fanOut runs work for 0..n-1 and waits for all of them. Errors are kept by
// the callers per index so one failure never cancels its siblings.
func (s *RemoteSynchronizer) fanOut(n int, work func(i int)) {
	var g errgroup.Group
	if s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			work(i)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *RemoteSynchronizer) record(operation string, err error, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordRemoteCall("persistence", operation, err, time.Since(start))
	}
}
