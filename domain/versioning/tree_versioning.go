package versioning

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"time"

	"taxonomy/domain/core/aggregates"
	"taxonomy/domain/core/entities"
)

// TreeVersion fingerprints one state of a session tree
type TreeVersion struct {
	TreeID    string    `json:"tree_id"`
	Version   int       `json:"version"`
	Checksum  string    `json:"checksum"`
	NodeCount int       `json:"node_count"`
	ItemCount int       `json:"item_count"`
	CreatedAt time.Time `json:"created_at"`
}

// Change represents one node-level difference between two trees
type Change struct {
	Type    ChangeType `json:"type"`
	NodeKey string     `json:"node_key"`
}

// ChangeType represents the type of change
type ChangeType string

const (
	ChangeTypeNodeAdded   ChangeType = "node_added"
	ChangeTypeNodeRemoved ChangeType = "node_removed"
	ChangeTypeNodeUpdated ChangeType = "node_updated"
	ChangeTypeNodeMoved   ChangeType = "node_moved"
	ChangeTypeItemsMoved  ChangeType = "items_changed"
)

// VersionDiff represents the difference between two versions
type VersionDiff struct {
	FromVersion int      `json:"from_version"`
	ToVersion   int      `json:"to_version"`
	Changes     []Change `json:"changes"`
}

// Counts tallies the diff's changes by type
func (d *VersionDiff) Counts() map[ChangeType]int {
	counts := make(map[ChangeType]int)
	for _, c := range d.Changes {
		counts[c.Type]++
	}
	return counts
}

// NewTreeVersion fingerprints a tree
func NewTreeVersion(tree *aggregates.Tree) (*TreeVersion, error) {
	if tree == nil {
		return nil, fmt.Errorf("tree cannot be nil")
	}

	checksum, err := Checksum(tree)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate checksum: %w", err)
	}

	return &TreeVersion{
		TreeID:    tree.ID(),
		Version:   tree.Version(),
		Checksum:  checksum,
		NodeCount: tree.Size(),
		ItemCount: tree.ItemCount(),
		CreatedAt: time.Now(),
	}, nil
}

// layoutNode is the hashed form of a node: its stored shape plus position,
// so a move changes the checksum as well.
type layoutNode struct {
	Value    entities.Category `json:"value"`
	Items    []entities.Item   `json:"items"`
	X        float64           `json:"x"`
	Y        float64           `json:"y"`
	Children []layoutNode      `json:"children"`
}

func toLayoutNode(node *entities.TreeNode) layoutNode {
	out := layoutNode{
		Value: node.Value(),
		Items: node.Items(),
		X:     node.Position().X(),
		Y:     node.Position().Y(),
	}
	for _, child := range node.Children() {
		out.Children = append(out.Children, toLayoutNode(child))
	}
	return out
}

// Checksum hashes the tree's content. Two trees with the same nodes, items
// and positions hash equally regardless of their version numbers.
func Checksum(tree *aggregates.Tree) (string, error) {
	// encoding/json sorts map keys, which keeps item fields deterministic
	jsonData, err := json.Marshal(toLayoutNode(tree.Root()))
	if err != nil {
		return "", err
	}

	hash := sha256.Sum256(jsonData)
	return hex.EncodeToString(hash[:]), nil
}

// Diff compares two states of the same tree node by node
func Diff(from, to *aggregates.Tree) (*VersionDiff, error) {
	if from == nil || to == nil {
		return nil, fmt.Errorf("trees cannot be nil")
	}

	diff := &VersionDiff{
		FromVersion: from.Version(),
		ToVersion:   to.Version(),
	}

	for _, key := range from.Keys() {
		if _, ok := to.FindByKey(key); !ok {
			diff.Changes = append(diff.Changes, Change{Type: ChangeTypeNodeRemoved, NodeKey: key})
		}
	}

	for _, key := range to.Keys() {
		after, _ := to.FindByKey(key)
		before, existed := from.FindByKey(key)
		if !existed {
			diff.Changes = append(diff.Changes, Change{Type: ChangeTypeNodeAdded, NodeKey: key})
			continue
		}
		if before == after {
			continue
		}
		if before.Value() != after.Value() {
			diff.Changes = append(diff.Changes, Change{Type: ChangeTypeNodeUpdated, NodeKey: key})
		}
		if !sameItems(before.Items(), after.Items()) {
			diff.Changes = append(diff.Changes, Change{Type: ChangeTypeItemsMoved, NodeKey: key})
		}
		if !before.Position().Equals(after.Position()) {
			diff.Changes = append(diff.Changes, Change{Type: ChangeTypeNodeMoved, NodeKey: key})
		}
	}

	sort.SliceStable(diff.Changes, func(i, j int) bool {
		return diff.Changes[i].NodeKey < diff.Changes[j].NodeKey
	})
	return diff, nil
}

func sameItems(a, b []entities.Item) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || !reflect.DeepEqual(a[i].Fields, b[i].Fields) {
			return false
		}
	}
	return true
}
