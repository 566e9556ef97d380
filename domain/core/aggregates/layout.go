package aggregates

import (
	"taxonomy/domain/config"
	"taxonomy/domain/core/entities"
	"taxonomy/domain/core/valueobjects"
	"taxonomy/domain/events"
	pkgerrors "taxonomy/pkg/errors"
)

// NewSeedTree returns the name-keyed starting tree: a single root category
// holding the sample items.
func NewSeedTree(id string, cfg *config.DomainConfig) *Tree {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	position := rootAnchor(cfg)
	root := entities.NewTreeNode(
		entities.NewCategory(cfg.RootName, cfg.RootDescription),
		entities.SampleItems(),
		position,
	)

	tree, err := NewTree(id, root, valueobjects.KeyByName, cfg)
	if err != nil {
		// a single node with a configured name always indexes
		panic(err)
	}
	tree.events = []events.DomainEvent{
		events.NewTreeLoaded(id, tree.RootKey(), 1, "seed", tree.version, tree.now()),
	}
	return tree
}

// NewTreeFromSnapshot rebuilds a stored session tree. Nodes are laid out
// from the root anchor: each node sits at
// x = parent.x + (len(children)-1)*dx, y = parent.y + depth*dy,
// where children are the node's own children.
func NewTreeFromSnapshot(id string, snapshot entities.SnapshotNode, strategy valueobjects.KeyStrategy, cfg *config.DomainConfig) (*Tree, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	for _, item := range collectSnapshotItems(snapshot) {
		if item.ID == "" {
			return nil, pkgerrors.NewInvalidItems("stored item has no id")
		}
	}

	root := buildSnapshotNode(snapshot, 0, rootAnchor(cfg), cfg)
	tree, err := NewTree(id, root, strategy, cfg)
	if err != nil {
		return nil, err
	}
	tree.events = []events.DomainEvent{
		events.NewTreeLoaded(id, tree.RootKey(), tree.Size(), "snapshot", tree.version, tree.now()),
	}
	return tree, nil
}

func buildSnapshotNode(data entities.SnapshotNode, depth int, parent valueobjects.Position, cfg *config.DomainConfig) *entities.TreeNode {
	position := parent.Translate(
		float64(len(data.Children)-1)*cfg.ChildSpacingX,
		float64(depth)*cfg.ChildOffsetY,
	)

	children := make([]*entities.TreeNode, len(data.Children))
	for i, child := range data.Children {
		children[i] = buildSnapshotNode(child, depth+1, position, cfg)
	}

	return entities.NewTreeNode(data.Value, data.Items, position).WithChildren(children)
}

func collectSnapshotItems(data entities.SnapshotNode) []entities.Item {
	items := append([]entities.Item{}, data.Items...)
	for _, child := range data.Children {
		items = append(items, collectSnapshotItems(child)...)
	}
	return items
}

func rootAnchor(cfg *config.DomainConfig) valueobjects.Position {
	position, err := valueobjects.NewPosition(cfg.RootX, cfg.RootY)
	if err != nil {
		return valueobjects.Position{}
	}
	return position
}
