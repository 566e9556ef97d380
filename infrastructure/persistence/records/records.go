// Package records holds the flat category-record model shared by the
// in-process and DynamoDB session stores.
package records

import (
	"fmt"
	"sort"

	"taxonomy/domain/core/entities"
)

// CategoryRecord is one stored category. Seq orders siblings by creation.
type CategoryRecord struct {
	ID          string
	ParentID    string
	Name        string
	Description string
	Items       []entities.Item
	Seq         int
}

// Category returns the record's category value
func (r CategoryRecord) Category() entities.Category {
	return entities.Category{ID: r.ID, Name: r.Name, Description: r.Description}
}

// AssembleSnapshot rebuilds the recursive stored tree from flat records.
// Exactly one record must have no parent.
func AssembleSnapshot(recs []CategoryRecord) (*entities.SnapshotNode, error) {
	children := make(map[string][]CategoryRecord)
	var roots []CategoryRecord
	for _, rec := range recs {
		if rec.ParentID == "" {
			roots = append(roots, rec)
			continue
		}
		children[rec.ParentID] = append(children[rec.ParentID], rec)
	}
	if len(roots) != 1 {
		return nil, fmt.Errorf("session must have exactly one root category, found %d", len(roots))
	}
	for parent := range children {
		siblings := children[parent]
		sort.SliceStable(siblings, func(i, j int) bool { return siblings[i].Seq < siblings[j].Seq })
	}

	var build func(rec CategoryRecord, seen map[string]bool) (entities.SnapshotNode, error)
	build = func(rec CategoryRecord, seen map[string]bool) (entities.SnapshotNode, error) {
		if seen[rec.ID] {
			return entities.SnapshotNode{}, fmt.Errorf("category %s appears twice", rec.ID)
		}
		seen[rec.ID] = true

		node := entities.SnapshotNode{Value: rec.Category(), Items: rec.Items}
		for _, child := range children[rec.ID] {
			sub, err := build(child, seen)
			if err != nil {
				return entities.SnapshotNode{}, err
			}
			node.Children = append(node.Children, sub)
		}
		return node, nil
	}

	seen := make(map[string]bool, len(recs))
	root, err := build(roots[0], seen)
	if err != nil {
		return nil, err
	}
	if len(seen) != len(recs) {
		return nil, fmt.Errorf("%d categories are not reachable from the root", len(recs)-len(seen))
	}
	return &root, nil
}

// SubtreeIDs returns id and the ids of every record below it, parents first
func SubtreeIDs(recs []CategoryRecord, id string) []string {
	children := make(map[string][]string)
	for _, rec := range recs {
		if rec.ParentID != "" {
			children[rec.ParentID] = append(children[rec.ParentID], rec.ID)
		}
	}

	ids := []string{id}
	for i := 0; i < len(ids); i++ {
		ids = append(ids, children[ids[i]]...)
	}
	return ids
}

// WithoutItems returns items minus those whose id is in ids
func WithoutItems(items []entities.Item, ids map[string]bool) []entities.Item {
	var kept []entities.Item
	for _, item := range items {
		if !ids[item.ID] {
			kept = append(kept, item)
		}
	}
	return kept
}
