package projections

import (
	"context"

	"taxonomy/domain/core/aggregates"
	"taxonomy/domain/core/entities"
	"taxonomy/domain/core/valueobjects"
)

// Graph is the flat node/edge rendering of a tree
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
	Stats GraphStats  `json:"stats"`
}

// GraphNode is one tree node as drawn. Actions are bound to this node's key
// and are not serialized; Capabilities names the ones that apply.
type GraphNode struct {
	ID           string                `json:"id"`
	Position     valueobjects.Position `json:"position"`
	Data         NodeData              `json:"data"`
	Capabilities []string              `json:"capabilities"`
	Actions      NodeActions           `json:"-"`
}

// NodeData is the node's content snapshot
type NodeData struct {
	Category entities.Category `json:"category"`
	Items    []entities.Item   `json:"items"`
}

// GraphEdge connects a parent to one of its children
type GraphEdge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// GraphStats summarizes the projected tree
type GraphStats struct {
	NodeCount int `json:"node_count"`
	EdgeCount int `json:"edge_count"`
	ItemCount int `json:"item_count"`
	LeafCount int `json:"leaf_count"`
	Depth     int `json:"depth"`
	Version   int `json:"version"`
}

// Operations is what node actions dispatch to
type Operations interface {
	Generate(ctx context.Context, key string, numCategories int, generationMethod string) error
	Classify(ctx context.Context, key string) error
	Delete(ctx context.Context, key string) error
	Edit(ctx context.Context, key string, category entities.Category, items []entities.Item) error
}

// NodeActions are the node's operations with the key already applied
type NodeActions struct {
	Generate func(ctx context.Context, numCategories int, generationMethod string) error
	Classify func(ctx context.Context) error
	Delete   func(ctx context.Context) error
	Edit     func(ctx context.Context, category entities.Category, items []entities.Item) error
}

const (
	CapabilityGenerate = "generate"
	CapabilityClassify = "classify"
	CapabilityDelete   = "delete"
	CapabilityEdit     = "edit"
)

// EdgeID returns the id of the edge from parentKey to childKey
func EdgeID(parentKey, childKey string) string {
	return parentKey + "-" + childKey
}

// Project renders tree in pre-order. ops may be nil, in which case the
// nodes carry no actions.
func Project(tree *aggregates.Tree, ops Operations) *Graph {
	graph := &Graph{
		Nodes: make([]GraphNode, 0, tree.Size()),
		Edges: make([]GraphEdge, 0, tree.Size()),
	}
	strategy := tree.KeyStrategy()

	tree.Walk(func(node, parent *entities.TreeNode, depth int) {
		key := node.Key(strategy)
		graph.Nodes = append(graph.Nodes, GraphNode{
			ID:       key,
			Position: node.Position(),
			Data: NodeData{
				Category: node.Value(),
				Items:    node.Items(),
			},
			Capabilities: capabilities(node, parent == nil),
			Actions:      bind(ops, key),
		})

		if parent != nil {
			parentKey := parent.Key(strategy)
			graph.Edges = append(graph.Edges, GraphEdge{
				ID:     EdgeID(parentKey, key),
				Source: parentKey,
				Target: key,
			})
		}

		graph.Stats.ItemCount += node.ItemCount()
		if node.IsLeaf() {
			graph.Stats.LeafCount++
		}
		if depth > graph.Stats.Depth {
			graph.Stats.Depth = depth
		}
	})

	graph.Stats.NodeCount = len(graph.Nodes)
	graph.Stats.EdgeCount = len(graph.Edges)
	graph.Stats.Version = tree.Version()
	return graph
}

func capabilities(node *entities.TreeNode, isRoot bool) []string {
	caps := []string{CapabilityGenerate, CapabilityEdit}
	if node.ChildCount() > 0 && node.ItemCount() > 0 {
		caps = append(caps, CapabilityClassify)
	}
	if !isRoot {
		caps = append(caps, CapabilityDelete)
	}
	return caps
}

func bind(ops Operations, key string) NodeActions {
	if ops == nil {
		return NodeActions{}
	}
	return NodeActions{
		Generate: func(ctx context.Context, numCategories int, generationMethod string) error {
			return ops.Generate(ctx, key, numCategories, generationMethod)
		},
		Classify: func(ctx context.Context) error {
			return ops.Classify(ctx, key)
		},
		Delete: func(ctx context.Context) error {
			return ops.Delete(ctx, key)
		},
		Edit: func(ctx context.Context, category entities.Category, items []entities.Item) error {
			return ops.Edit(ctx, key, category, items)
		},
	}
}
