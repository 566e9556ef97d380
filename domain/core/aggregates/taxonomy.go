package aggregates

import (
	"fmt"
	"time"

	"taxonomy/domain/config"
	"taxonomy/domain/core/entities"
	"taxonomy/domain/core/valueobjects"
	"taxonomy/domain/events"
	pkgerrors "taxonomy/pkg/errors"
)

// Tree is the aggregate root for one taxonomy. A Tree value is never
// modified: every mutation returns a new *Tree whose root is a fresh object
// along the path to the change, and failed mutations return the receiver
// itself so callers can compare by identity.
type Tree struct {
	id       string
	root     *entities.TreeNode
	strategy valueobjects.KeyStrategy
	cfg      *config.DomainConfig

	// derived indexes, rebuilt for every new tree
	nodes   map[string]*entities.TreeNode
	parents map[string]string
	depths  map[string]int
	order   []string

	version int
	events  []events.DomainEvent
	now     func() time.Time
}

// NewTree wraps an existing root. It fails when a node has an empty key or
// two nodes share a key.
func NewTree(id string, root *entities.TreeNode, strategy valueobjects.KeyStrategy, cfg *config.DomainConfig) (*Tree, error) {
	if root == nil {
		return nil, pkgerrors.NewValidationError("tree root is required")
	}
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	t := &Tree{
		id:       id,
		root:     root,
		strategy: strategy,
		cfg:      cfg,
		version:  1,
		now:      time.Now,
	}
	if err := t.index(); err != nil {
		return nil, err
	}

	t.events = []events.DomainEvent{
		events.NewTreeLoaded(id, root.Key(strategy), len(t.order), "constructed", t.version, t.now()),
	}
	return t, nil
}

// ID returns the id of the session that owns this tree
func (t *Tree) ID() string {
	return t.id
}

// Root returns the root node
func (t *Tree) Root() *entities.TreeNode {
	return t.root
}

// RootKey returns the key of the root node
func (t *Tree) RootKey() string {
	return t.root.Key(t.strategy)
}

// KeyStrategy returns how nodes in this tree are keyed
func (t *Tree) KeyStrategy() valueobjects.KeyStrategy {
	return t.strategy
}

// Config returns the domain configuration the tree was built with
func (t *Tree) Config() *config.DomainConfig {
	return t.cfg
}

// Version increases by one with every successful mutation
func (t *Tree) Version() int {
	return t.version
}

// Events returns the events raised by the mutation that produced this tree
func (t *Tree) Events() []events.DomainEvent {
	out := make([]events.DomainEvent, len(t.events))
	copy(out, t.events)
	return out
}

// FindByKey returns the node with the given key
func (t *Tree) FindByKey(key string) (*entities.TreeNode, bool) {
	node, ok := t.nodes[key]
	return node, ok
}

// ParentKey returns the key of the node's parent. The root has none.
func (t *Tree) ParentKey(key string) (string, bool) {
	parent, ok := t.parents[key]
	return parent, ok
}

// IsRoot reports whether key names the root
func (t *Tree) IsRoot(key string) bool {
	_, known := t.nodes[key]
	_, hasParent := t.parents[key]
	return known && !hasParent
}

// Depth returns how many edges separate the node from the root
func (t *Tree) Depth(key string) (int, bool) {
	d, ok := t.depths[key]
	return d, ok
}

// Keys returns every key in pre-order
func (t *Tree) Keys() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Size returns the number of nodes
func (t *Tree) Size() int {
	return len(t.order)
}

// ItemCount returns the number of items held anywhere in the tree
func (t *Tree) ItemCount() int {
	total := 0
	for _, node := range t.nodes {
		total += node.ItemCount()
	}
	return total
}

// Walk visits every node in pre-order. parent is nil for the root.
func (t *Tree) Walk(visit func(node, parent *entities.TreeNode, depth int)) {
	var walk func(node, parent *entities.TreeNode, depth int)
	walk = func(node, parent *entities.TreeNode, depth int) {
		visit(node, parent, depth)
		for _, child := range node.Children() {
			walk(child, node, depth+1)
		}
	}
	walk(t.root, nil, 0)
}

// Snapshot returns the tree in the persistence service's stored shape
func (t *Tree) Snapshot() entities.SnapshotNode {
	return t.root.ToSnapshot()
}

// Validate checks the structural invariants. Trees built through this
// package always pass; the check exists for trees assembled by hand.
func (t *Tree) Validate() error {
	roots := 0
	for _, key := range t.order {
		parentKey, ok := t.parents[key]
		if !ok {
			roots++
			continue
		}
		parent, ok := t.nodes[parentKey]
		if !ok {
			return fmt.Errorf("node %q references unknown parent %q", key, parentKey)
		}
		seen := 0
		for _, child := range parent.Children() {
			if child.Key(t.strategy) == key {
				seen++
			}
		}
		if seen != 1 {
			return fmt.Errorf("node %q appears %d times under %q", key, seen, parentKey)
		}
	}
	if roots != 1 {
		return fmt.Errorf("tree has %d roots", roots)
	}
	return nil
}

// index rebuilds the key lookups. Pointer identity is tracked so that a node
// object placed twice in the tree is rejected along with duplicate keys.
func (t *Tree) index() error {
	t.nodes = make(map[string]*entities.TreeNode)
	t.parents = make(map[string]string)
	t.depths = make(map[string]int)
	t.order = t.order[:0]
	seen := make(map[*entities.TreeNode]bool)

	var visit func(node *entities.TreeNode, parentKey string, depth int) error
	visit = func(node *entities.TreeNode, parentKey string, depth int) error {
		if seen[node] {
			return pkgerrors.NewValidationError("a node object appears twice in the tree")
		}
		seen[node] = true

		key := node.Key(t.strategy)
		if key == "" {
			return pkgerrors.NewValidationError(fmt.Sprintf("node %q has an empty %s key", node.Value().Name, t.strategy))
		}
		if _, exists := t.nodes[key]; exists {
			return pkgerrors.NewDuplicateKey(key)
		}

		t.nodes[key] = node
		t.depths[key] = depth
		t.order = append(t.order, key)
		if depth > 0 {
			t.parents[key] = parentKey
		}

		for _, child := range node.Children() {
			if err := visit(child, key, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	return visit(t.root, "", 0)
}

// derive builds the successor tree around a new root.
func (t *Tree) derive(root *entities.TreeNode, raised func(version int, at time.Time) []events.DomainEvent) (*Tree, error) {
	next := &Tree{
		id:       t.id,
		root:     root,
		strategy: t.strategy,
		cfg:      t.cfg,
		version:  t.version + 1,
		now:      t.now,
	}
	if err := next.index(); err != nil {
		return nil, err
	}
	next.events = raised(next.version, t.now())
	return next, nil
}

// rebuildPath places replacement where the node keyed by key used to be and
// copies each ancestor up to a new root.
func (t *Tree) rebuildPath(key string, replacement *entities.TreeNode) *entities.TreeNode {
	current := replacement
	childKey := key
	for {
		parentKey, ok := t.parents[childKey]
		if !ok {
			return current
		}
		parent := t.nodes[parentKey]
		current = parent.WithChildReplaced(t.childIndex(parent, childKey), current)
		childKey = parentKey
	}
}

func (t *Tree) childIndex(parent *entities.TreeNode, childKey string) int {
	for idx, child := range parent.Children() {
		if child.Key(t.strategy) == childKey {
			return idx
		}
	}
	return -1
}

func (t *Tree) subtreeKeys(node *entities.TreeNode) []string {
	keys := []string{node.Key(t.strategy)}
	for _, child := range node.Children() {
		keys = append(keys, t.subtreeKeys(child)...)
	}
	return keys
}
