package entities

import (
	"taxonomy/domain/core/valueobjects"
)

// TreeNode is one category in the taxonomy together with the items that
// currently sit in it. A TreeNode is never modified after construction; the
// With* methods return copies so that a new tree can share untouched
// subtrees with the one it was derived from.
//
// A node holds no reference to its parent. The tree aggregate keeps a
// key-to-parent index instead.
type TreeNode struct {
	value    Category
	items    []Item
	children []*TreeNode
	position valueobjects.Position
}

// NewTreeNode creates a leaf node
func NewTreeNode(value Category, items []Item, position valueobjects.Position) *TreeNode {
	return &TreeNode{
		value:    value,
		items:    copyItems(items),
		children: nil,
		position: position,
	}
}

// Value returns the node's category
func (n *TreeNode) Value() Category {
	return n.value
}

// Key returns the node's identifying value under the given strategy
func (n *TreeNode) Key(strategy valueobjects.KeyStrategy) string {
	return n.value.Key(strategy)
}

// Items returns a copy of the items currently assigned to this node
func (n *TreeNode) Items() []Item {
	return copyItems(n.items)
}

// ItemCount returns the number of items held directly by this node
func (n *TreeNode) ItemCount() int {
	return len(n.items)
}

// Children returns the child nodes in display order
func (n *TreeNode) Children() []*TreeNode {
	out := make([]*TreeNode, len(n.children))
	copy(out, n.children)
	return out
}

// ChildCount returns the number of direct children
func (n *TreeNode) ChildCount() int {
	return len(n.children)
}

// IsLeaf reports whether the node has no children
func (n *TreeNode) IsLeaf() bool {
	return len(n.children) == 0
}

// Position returns the layout coordinate
func (n *TreeNode) Position() valueobjects.Position {
	return n.position
}

// WithValue returns a copy with a different category
func (n *TreeNode) WithValue(value Category) *TreeNode {
	c := n.shallowCopy()
	c.value = value
	return c
}

// WithItems returns a copy holding exactly the given items
func (n *TreeNode) WithItems(items []Item) *TreeNode {
	c := n.shallowCopy()
	c.items = copyItems(items)
	return c
}

// WithPosition returns a copy at a different position
func (n *TreeNode) WithPosition(position valueobjects.Position) *TreeNode {
	c := n.shallowCopy()
	c.position = position
	return c
}

// WithChildren returns a copy with a different child list
func (n *TreeNode) WithChildren(children []*TreeNode) *TreeNode {
	c := n.shallowCopy()
	c.children = make([]*TreeNode, len(children))
	copy(c.children, children)
	return c
}

// WithChildAppended returns a copy with extra children at the end
func (n *TreeNode) WithChildAppended(children ...*TreeNode) *TreeNode {
	merged := make([]*TreeNode, 0, len(n.children)+len(children))
	merged = append(merged, n.children...)
	merged = append(merged, children...)
	return n.WithChildren(merged)
}

// WithChildReplaced returns a copy where the child at index idx is swapped
func (n *TreeNode) WithChildReplaced(idx int, child *TreeNode) *TreeNode {
	c := n.WithChildren(n.children)
	c.children[idx] = child
	return c
}

// WithoutChild returns a copy where the child at index idx is removed
func (n *TreeNode) WithoutChild(idx int) *TreeNode {
	remaining := make([]*TreeNode, 0, len(n.children)-1)
	remaining = append(remaining, n.children[:idx]...)
	remaining = append(remaining, n.children[idx+1:]...)
	return n.WithChildren(remaining)
}

func (n *TreeNode) shallowCopy() *TreeNode {
	c := *n
	return &c
}

func copyItems(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}

// SnapshotNode is the recursive shape the persistence service uses for a
// stored session tree.
type SnapshotNode struct {
	Value    Category       `json:"value"`
	Children []SnapshotNode `json:"children,omitempty"`
	Items    []Item         `json:"items,omitempty"`
}

// ToSnapshot converts a subtree to its stored shape
func (n *TreeNode) ToSnapshot() SnapshotNode {
	snap := SnapshotNode{
		Value: n.value,
		Items: n.Items(),
	}
	for _, child := range n.children {
		snap.Children = append(snap.Children, child.ToSnapshot())
	}
	return snap
}
