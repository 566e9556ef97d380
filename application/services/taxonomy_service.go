package services

import (
	"context"
	"time"

	"taxonomy/application/ports"
	"taxonomy/domain/config"
	"taxonomy/domain/core/aggregates"
	"taxonomy/domain/core/entities"
	"taxonomy/domain/core/validators"
	"taxonomy/domain/core/valueobjects"
	pkgerrors "taxonomy/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// MutationResult is what a committed mutation hands back to its caller
type MutationResult struct {
	Tree     *aggregates.Tree
	Warnings []string
}

// GenerateRequest asks for new children below a node
type GenerateRequest struct {
	SessionID        string
	NodeKey          string
	NumCategories    int
	GenerationMethod string
	APIKey           string
}

// ClassifyRequest asks for a node's items to be spread over its children
type ClassifyRequest struct {
	SessionID string
	NodeKey   string
	APIKey    string
}

// EditRequest replaces a node's category and items
type EditRequest struct {
	SessionID string
	NodeKey   string
	Category  entities.Category
	Items     []entities.Item
}

// TaxonomyService runs the engine's mutations against live sessions.
//
// Remote work (classifier calls, durable writes) runs outside the session
// lock. The tree mutation itself is applied at commit time against whatever
// tree is current then, so a node deleted in the meantime makes the commit
// fail with InvalidTarget.
type TaxonomyService struct {
	registry  *SessionRegistry
	gateway   *ClassificationGateway
	store     ports.SessionStore
	remote    Synchronizer
	publisher ports.EventPublisher
	journal   ports.EventStore
	metrics   ports.Metrics
	tracker   *LoadingTracker
	validator *validators.CategoryValidator
	cfg       *config.DomainConfig
	logger    *zap.Logger
}

// NewTaxonomyService wires the engine. publisher, journal and metrics may be nil.
func NewTaxonomyService(
	registry *SessionRegistry,
	gateway *ClassificationGateway,
	store ports.SessionStore,
	remote Synchronizer,
	publisher ports.EventPublisher,
	journal ports.EventStore,
	metrics ports.Metrics,
	tracker *LoadingTracker,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *TaxonomyService {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if tracker == nil {
		tracker = NewLoadingTracker(metrics)
	}
	return &TaxonomyService{
		registry:  registry,
		gateway:   gateway,
		store:     store,
		remote:    remote,
		publisher: publisher,
		journal:   journal,
		metrics:   metrics,
		tracker:   tracker,
		validator: validators.NewCategoryValidator(cfg),
		cfg:       cfg,
		logger:    logger,
	}
}

// Loading reports whether any mutation is waiting on remote work
func (s *TaxonomyService) Loading() bool {
	return s.tracker.Loading()
}

// InFlight returns the number of mutations waiting on remote work
func (s *TaxonomyService) InFlight() int {
	return s.tracker.InFlight()
}

// SessionCount returns the number of live sessions
func (s *TaxonomyService) SessionCount() int {
	return s.registry.Len()
}

// CreateSession opens a session. Memory sessions start from the seed tree;
// remote sessions are initialized by the persistence service and loaded
// from it.
func (s *TaxonomyService) CreateSession(ctx context.Context, mode Mode) (*Session, error) {
	var tree *aggregates.Tree
	switch mode {
	case ModeRemote:
		if s.store == nil {
			return nil, pkgerrors.NewUnavailableError("persistence")
		}
		end := s.tracker.Begin()
		defer end()

		id, err := s.store.InitializeSession(ctx)
		if err != nil {
			return nil, pkgerrors.NewPersistenceWriteFailed("initialize_session", err)
		}
		tree, err = s.loadRemoteTree(ctx, id)
		if err != nil {
			return nil, err
		}
	default:
		mode = ModeMemory
		tree = aggregates.NewSeedTree(uuid.New().String(), s.cfg)
	}

	session := NewSession(tree.ID(), mode, tree, s.cfg.MaxWarningsRetained)
	s.registry.Put(session)
	s.publish(ctx, tree)

	s.logger.Info("Session created",
		zap.String("sessionID", session.ID()),
		zap.String("mode", string(mode)),
		zap.Int("nodes", tree.Size()),
	)
	return session, nil
}

// Session returns a live session
func (s *TaxonomyService) Session(id string) (*Session, error) {
	session, ok := s.registry.Get(id)
	if !ok {
		return nil, pkgerrors.NewSessionNotFound(id)
	}
	return session, nil
}

// Attach returns a live session, loading a remote one from the
// persistence service when this process does not hold it. Sessions evicted
// from the registry or opened by another process come back this way.
func (s *TaxonomyService) Attach(ctx context.Context, sessionID string) (*Session, error) {
	if session, ok := s.registry.Get(sessionID); ok {
		return session, nil
	}
	if s.store == nil {
		return nil, pkgerrors.NewUnavailableError("persistence")
	}

	end := s.tracker.Begin()
	defer end()

	tree, err := s.loadRemoteTree(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session := NewSession(sessionID, ModeRemote, tree, s.cfg.MaxWarningsRetained)
	s.registry.Put(session)

	s.logger.Info("Session attached",
		zap.String("sessionID", sessionID),
		zap.Int("nodes", tree.Size()),
	)
	return session, nil
}

// Reload replaces a remote session's tree with the stored one. Memory
// sessions have nothing to reload and keep their tree.
func (s *TaxonomyService) Reload(ctx context.Context, sessionID string) (*aggregates.Tree, error) {
	session, err := s.Session(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Mode() != ModeRemote {
		return session.Current(), nil
	}

	end := s.tracker.Begin()
	defer end()

	tree, err := s.loadRemoteTree(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session.Replace(tree)
	s.publish(ctx, tree)
	return tree, nil
}

func (s *TaxonomyService) loadRemoteTree(ctx context.Context, sessionID string) (*aggregates.Tree, error) {
	snapshot, err := s.store.LoadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return aggregates.NewTreeFromSnapshot(sessionID, *snapshot, valueobjects.KeyByID, s.cfg)
}

// Generate asks the classifier for child categories of a node and appends
// them. In remote sessions each category is created durably first and only
// the created ones are inserted.
func (s *TaxonomyService) Generate(ctx context.Context, req GenerateRequest) (*MutationResult, error) {
	start := time.Now()
	session, err := s.Session(req.SessionID)
	if err != nil {
		return nil, err
	}
	node, ok := session.Current().FindByKey(req.NodeKey)
	if !ok {
		return nil, s.done("generate", start, pkgerrors.NewInvalidTarget(req.NodeKey))
	}

	end := s.tracker.Begin()
	defer end()

	proposed, err := s.gateway.Generate(ctx, GenerateInput{
		Items:            node.Items(),
		Category:         node.Value(),
		NumCategories:    req.NumCategories,
		GenerationMethod: req.GenerationMethod,
		APIKey:           req.APIKey,
	})
	if err != nil {
		return nil, s.done("generate", start, err)
	}
	if err := s.validator.ValidateGenerated(node.ChildCount(), proposed); err != nil {
		return nil, s.done("generate", start, err)
	}

	created, syncErr := s.synchronizer(session).CreateChildren(ctx, session.ID(), node.Value(), proposed)
	tree, changed, err := session.Commit(func(current *aggregates.Tree) (*aggregates.Tree, error) {
		return current.GenerateChildren(req.NodeKey, created)
	})
	if err != nil {
		if orphaned := persistedIDs(created); len(orphaned) > 0 {
			s.logger.Warn("Created categories left without a local node",
				zap.String("sessionID", session.ID()),
				zap.String("nodeKey", req.NodeKey),
				zap.Strings("categoryIDs", orphaned),
				zap.Error(err),
			)
		}
		return nil, s.done("generate", start, multierr.Append(err, syncErr))
	}

	if changed {
		s.logger.Info("Children generated",
			zap.String("sessionID", session.ID()),
			zap.String("nodeKey", req.NodeKey),
			zap.Strings("categories", trimmedNames(created)),
		)
		s.publish(ctx, tree)
	}
	return &MutationResult{Tree: tree}, s.done("generate", start, syncErr)
}

func persistedIDs(categories []entities.Category) []string {
	var ids []string
	for _, c := range categories {
		if c.IsPersisted() {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// Classify sends the node's pool of items to the classifier and spreads the
// result over the node's existing children.
func (s *TaxonomyService) Classify(ctx context.Context, req ClassifyRequest) (*MutationResult, error) {
	start := time.Now()
	session, err := s.Session(req.SessionID)
	if err != nil {
		return nil, err
	}
	current := session.Current()
	node, ok := current.FindByKey(req.NodeKey)
	if !ok {
		return nil, s.done("classify", start, pkgerrors.NewInvalidTarget(req.NodeKey))
	}
	if node.ChildCount() == 0 || node.ItemCount() == 0 {
		return nil, s.done("classify", start, pkgerrors.NewNothingToClassify(req.NodeKey, node.ChildCount(), node.ItemCount()))
	}

	pool, err := current.ClassificationPool(req.NodeKey)
	if err != nil {
		return nil, s.done("classify", start, err)
	}
	categories := make([]entities.Category, 0, node.ChildCount())
	for _, child := range node.Children() {
		categories = append(categories, child.Value())
	}

	end := s.tracker.Begin()
	defer end()

	classified, err := s.gateway.Classify(ctx, categories, pool, req.APIKey)
	if err != nil {
		return nil, s.done("classify", start, err)
	}

	var outcome *aggregates.ClassificationOutcome
	tree, _, err := session.Commit(func(current *aggregates.Tree) (*aggregates.Tree, error) {
		next, o, err := current.ClassifyItems(req.NodeKey, classified.Pairs)
		outcome = o
		return next, err
	})
	if err != nil {
		return nil, s.done("classify", start, err)
	}

	warnings := outcome.Warnings
	for _, w := range warnings {
		s.logger.Warn("Classification warning", zap.String("sessionID", session.ID()), zap.String("warning", w))
	}
	session.AddWarnings(warnings...)
	s.publish(ctx, tree)

	committed, _ := tree.FindByKey(req.NodeKey)
	syncErr := s.synchronizer(session).PersistClassification(ctx, session.ID(), committed.Children())
	return &MutationResult{Tree: tree, Warnings: warnings}, s.done("classify", start, syncErr)
}

// Edit replaces a node's category and items, then writes them durably
func (s *TaxonomyService) Edit(ctx context.Context, req EditRequest) (*MutationResult, error) {
	start := time.Now()
	session, err := s.Session(req.SessionID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.ValidateItems(req.Items); err != nil {
		return nil, s.done("edit", start, err)
	}
	if err := s.validator.ValidateCategory(req.Category); err != nil {
		return nil, s.done("edit", start, err)
	}

	var editedKey string
	tree, _, err := session.Commit(func(current *aggregates.Tree) (*aggregates.Tree, error) {
		next, err := current.EditNode(req.NodeKey, req.Category, req.Items)
		if err != nil {
			return next, err
		}
		editedKey = editedKeyIn(current, next, req.NodeKey)
		return next, nil
	})
	if err != nil {
		return nil, s.done("edit", start, err)
	}
	s.publish(ctx, tree)

	edited, ok := tree.FindByKey(editedKey)
	if !ok {
		return &MutationResult{Tree: tree}, s.done("edit", start,
			pkgerrors.NewInternalError("edited node "+req.NodeKey+" is missing from the committed tree"))
	}

	end := s.tracker.Begin()
	defer end()

	syncErr := s.synchronizer(session).PersistEdit(ctx, session.ID(), edited.Value(), edited.Items())
	return &MutationResult{Tree: tree}, s.done("edit", start, syncErr)
}

// editedKeyIn returns the key the node formerly at key carries in next. An
// edit leaves the node in its parent's child slot.
func editedKeyIn(before, next *aggregates.Tree, key string) string {
	parentKey, hasParent := before.ParentKey(key)
	if !hasParent {
		return next.RootKey()
	}
	parent, _ := before.FindByKey(parentKey)
	after, _ := next.FindByKey(parentKey)
	for i, child := range parent.Children() {
		if child.Key(before.KeyStrategy()) == key && after != nil && i < after.ChildCount() {
			return after.Children()[i].Key(next.KeyStrategy())
		}
	}
	return key
}

// Delete removes a node and its subtree, then deletes it durably
func (s *TaxonomyService) Delete(ctx context.Context, sessionID, nodeKey string) (*MutationResult, error) {
	start := time.Now()
	session, err := s.Session(sessionID)
	if err != nil {
		return nil, err
	}

	var removed entities.Category
	tree, _, err := session.Commit(func(current *aggregates.Tree) (*aggregates.Tree, error) {
		if node, ok := current.FindByKey(nodeKey); ok {
			removed = node.Value()
		}
		return current.DeleteNode(nodeKey)
	})
	if err != nil {
		return nil, s.done("delete", start, err)
	}
	s.publish(ctx, tree)

	end := s.tracker.Begin()
	defer end()

	syncErr := s.synchronizer(session).PersistDelete(ctx, session.ID(), removed)
	return &MutationResult{Tree: tree}, s.done("delete", start, syncErr)
}

// Move changes a node's position. It is never persisted. updated is false
// when the key is unknown or the position did not change.
func (s *TaxonomyService) Move(ctx context.Context, sessionID, nodeKey string, position valueobjects.Position) (*aggregates.Tree, bool, error) {
	start := time.Now()
	session, err := s.Session(sessionID)
	if err != nil {
		return nil, false, err
	}

	tree, updated, _ := session.Commit(func(current *aggregates.Tree) (*aggregates.Tree, error) {
		next, _ := current.MoveNode(nodeKey, position)
		return next, nil
	})
	if updated {
		s.publish(ctx, tree)
	}
	s.done("move", start, nil)
	return tree, updated, nil
}

func (s *TaxonomyService) synchronizer(session *Session) Synchronizer {
	if session.Mode() == ModeRemote && s.remote != nil {
		return s.remote
	}
	return MemorySynchronizer{}
}

// publish forwards the events of a committed tree. Delivery failures are
// logged; they never fail the mutation.
func (s *TaxonomyService) publish(ctx context.Context, tree *aggregates.Tree) {
	raised := tree.Events()
	if len(raised) == 0 {
		return
	}
	if s.journal != nil {
		if err := s.journal.SaveEvents(ctx, raised); err != nil {
			s.logger.Error("Failed to journal events", zap.String("sessionID", tree.ID()), zap.Error(err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishBatch(ctx, raised); err != nil {
			s.logger.Error("Failed to publish events", zap.String("sessionID", tree.ID()), zap.Error(err))
		}
	}
}

func (s *TaxonomyService) done(operation string, start time.Time, err error) error {
	if s.metrics != nil {
		outcome := "success"
		switch {
		case err == nil:
		case pkgerrors.IsLocalShapeError(err):
			outcome = "rejected"
		default:
			outcome = "failed"
		}
		s.metrics.RecordMutation(operation, outcome, time.Since(start))
	}
	if err != nil {
		s.logger.Debug("Mutation finished with error", zap.String("operation", operation), zap.Error(err))
	}
	return err
}
