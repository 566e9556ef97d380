package aggregates

import (
	"fmt"
	"time"

	"taxonomy/domain/core/entities"
	"taxonomy/domain/core/valueobjects"
	"taxonomy/domain/events"
	pkgerrors "taxonomy/pkg/errors"
)

// ClassificationOutcome describes what classifyItems did beyond the new tree
type ClassificationOutcome struct {
	// Assigned counts items placed per child key
	Assigned map[string]int
	// Dropped holds pairs whose category matched no child
	Dropped []entities.ClassifiedItem
	// Unassigned holds pool items no pair mentioned; they stay on the node
	Unassigned []entities.Item
	Warnings   []string
}

// GenerateChildren appends one empty child per category below the node,
// spaced symmetrically around the parent's x and one row lower. An empty
// category list is a no-op that returns the receiver.
func (t *Tree) GenerateChildren(key string, categories []entities.Category) (*Tree, error) {
	node, ok := t.nodes[key]
	if !ok {
		return t, pkgerrors.NewInvalidTarget(key)
	}
	if len(categories) == 0 {
		return t, nil
	}

	proposed := make(map[string]bool, len(categories))
	for _, category := range categories {
		childKey := category.Key(t.strategy)
		if childKey == "" {
			return t, pkgerrors.NewInvalidItems(fmt.Sprintf("category %q has no %s", category.Name, t.strategy))
		}
		if _, exists := t.nodes[childKey]; exists || proposed[childKey] {
			return t, pkgerrors.NewDuplicateKey(childKey)
		}
		proposed[childKey] = true
	}

	children := make([]*entities.TreeNode, len(categories))
	childKeys := make([]string, len(categories))
	for i, category := range categories {
		children[i] = entities.NewTreeNode(category, nil, t.childPosition(node.Position(), i, len(categories)))
		childKeys[i] = category.Key(t.strategy)
	}

	root := t.rebuildPath(key, node.WithChildAppended(children...))
	return t.derive(root, func(version int, at time.Time) []events.DomainEvent {
		return []events.DomainEvent{events.NewChildrenGenerated(t.id, key, childKeys, version, at)}
	})
}

// childPosition computes x = px + (i-(n-1)/2)*dx, y = py + dy
func (t *Tree) childPosition(parent valueobjects.Position, i, n int) valueobjects.Position {
	offset := (float64(i) - float64(n-1)/2) * t.cfg.ChildSpacingX
	return parent.Translate(offset, t.cfg.ChildOffsetY)
}

// ClassifyItems redistributes the node's items among its direct children.
//
// The pool is the node's own items followed by its children's items. Every
// child is cleared, then each pair whose category name matches a child puts
// the pooled item into that child. Pairs naming no child are dropped with a
// warning. Pool items that no pair mentions stay on the node with a warning.
// A pair naming an item outside the pool, or naming one item more often than
// the pool holds it, fails with ClassificationDataMismatch.
func (t *Tree) ClassifyItems(key string, pairs []entities.ClassifiedItem) (*Tree, *ClassificationOutcome, error) {
	node, ok := t.nodes[key]
	if !ok {
		return t, nil, pkgerrors.NewInvalidTarget(key)
	}
	if node.ChildCount() == 0 || node.ItemCount() == 0 {
		return t, nil, pkgerrors.NewNothingToClassify(key, node.ChildCount(), node.ItemCount())
	}

	pool := t.classificationPool(node)
	remaining := make(map[string]int, len(pool))
	byID := make(map[string]entities.Item, len(pool))
	for _, item := range pool {
		remaining[item.ID]++
		if _, seen := byID[item.ID]; !seen {
			byID[item.ID] = item
		}
	}

	children := node.Children()
	childByName := make(map[string]int, len(children))
	for idx, child := range children {
		if _, taken := childByName[child.Value().Name]; !taken {
			childByName[child.Value().Name] = idx
		}
	}

	outcome := &ClassificationOutcome{Assigned: make(map[string]int)}
	buckets := make([][]entities.Item, len(children))
	for _, pair := range pairs {
		item, known := byID[pair.Item.ID]
		if !known {
			return t, nil, pkgerrors.NewClassificationDataMismatch(pair.Item.ID, "item was not part of the classification request")
		}
		if remaining[pair.Item.ID] == 0 {
			return t, nil, pkgerrors.NewClassificationDataMismatch(pair.Item.ID, "item was classified more than once")
		}
		remaining[pair.Item.ID]--

		idx, matched := childByName[pair.Category.Name]
		if !matched {
			outcome.Dropped = append(outcome.Dropped, entities.ClassifiedItem{Item: item, Category: pair.Category})
			outcome.Warnings = append(outcome.Warnings,
				fmt.Sprintf("no child node found for category name %q; dropped item %s", pair.Category.Name, item.Label()))
			continue
		}
		buckets[idx] = append(buckets[idx], item)
	}

	for _, item := range pool {
		if remaining[item.ID] > 0 {
			remaining[item.ID]--
			outcome.Unassigned = append(outcome.Unassigned, item)
			outcome.Warnings = append(outcome.Warnings,
				fmt.Sprintf("item %s was not classified and stays on %q", item.Label(), key))
		}
	}

	newChildren := make([]*entities.TreeNode, len(children))
	for idx, child := range children {
		newChildren[idx] = child.WithItems(buckets[idx])
		if len(buckets[idx]) > 0 {
			outcome.Assigned[child.Key(t.strategy)] = len(buckets[idx])
		}
	}

	replacement := node.WithItems(outcome.Unassigned).WithChildren(newChildren)
	next, err := t.derive(t.rebuildPath(key, replacement), func(version int, at time.Time) []events.DomainEvent {
		return []events.DomainEvent{events.NewItemsClassified(
			t.id, key, outcome.Assigned, len(outcome.Dropped), len(outcome.Unassigned), version, at,
		)}
	})
	if err != nil {
		return t, nil, err
	}
	return next, outcome, nil
}

// ClassificationPool returns the items a classify call on key would send
func (t *Tree) ClassificationPool(key string) ([]entities.Item, error) {
	node, ok := t.nodes[key]
	if !ok {
		return nil, pkgerrors.NewInvalidTarget(key)
	}
	return t.classificationPool(node), nil
}

func (t *Tree) classificationPool(node *entities.TreeNode) []entities.Item {
	pool := node.Items()
	for _, child := range node.Children() {
		pool = append(pool, child.Items()...)
	}
	return pool
}

// EditNode replaces the node's category and items wholesale. The node keeps
// its persisted id whatever the incoming category carries, and the name is
// trimmed before it is used as a key.
func (t *Tree) EditNode(key string, category entities.Category, items []entities.Item) (*Tree, error) {
	node, ok := t.nodes[key]
	if !ok {
		return t, pkgerrors.NewInvalidTarget(key)
	}
	for idx, item := range items {
		if item.ID == "" {
			return t, pkgerrors.NewInvalidItems(fmt.Sprintf("item at index %d has no id", idx))
		}
	}

	category = entities.NewCategory(category.Name, category.Description).WithID(node.Value().ID)
	newKey := category.Key(t.strategy)
	if newKey == "" {
		return t, pkgerrors.NewInvalidItems(fmt.Sprintf("category has no %s", t.strategy))
	}
	if newKey != key {
		if _, exists := t.nodes[newKey]; exists {
			return t, pkgerrors.NewDuplicateKey(newKey)
		}
	}

	replacement := node.WithValue(category).WithItems(items)
	return t.derive(t.rebuildPath(key, replacement), func(version int, at time.Time) []events.DomainEvent {
		return []events.DomainEvent{events.NewNodeEdited(t.id, key, newKey, len(items), version, at)}
	})
}

// DeleteNode detaches the node and its whole subtree from its parent
func (t *Tree) DeleteNode(key string) (*Tree, error) {
	node, ok := t.nodes[key]
	if !ok {
		return t, pkgerrors.NewInvalidTarget(key)
	}
	parentKey, hasParent := t.parents[key]
	if !hasParent {
		return t, pkgerrors.NewRootDeletionForbidden(key)
	}

	parent := t.nodes[parentKey]
	removed := t.subtreeKeys(node)
	replacement := parent.WithoutChild(t.childIndex(parent, key))

	return t.derive(t.rebuildPath(parentKey, replacement), func(version int, at time.Time) []events.DomainEvent {
		return []events.DomainEvent{events.NewNodeDeleted(t.id, key, parentKey, removed, version, at)}
	})
}

// MoveNode updates only the node's position. It reports false, and returns
// the receiver, when the key is unknown or the position is unchanged.
func (t *Tree) MoveNode(key string, position valueobjects.Position) (*Tree, bool) {
	node, ok := t.nodes[key]
	if !ok || node.Position().Equals(position) {
		return t, false
	}

	old := node.Position()
	next, err := t.derive(t.rebuildPath(key, node.WithPosition(position)), func(version int, at time.Time) []events.DomainEvent {
		return []events.DomainEvent{events.NewNodeMoved(t.id, key, old, position, version, at)}
	})
	if err != nil {
		// keys are untouched, so re-indexing cannot fail
		return t, false
	}
	return next, true
}
