package events

import (
	"time"

	"taxonomy/domain/core/valueobjects"
)

// SourceEngine is the event source name used when events leave the process
const SourceEngine = "taxonomy.engine"

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields. AggregateID is the session id and
// Version is the tree version the event produced.
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

func newBase(treeID, eventType string, version int, timestamp time.Time) BaseEvent {
	return BaseEvent{
		AggregateID: treeID,
		EventType:   eventType,
		Timestamp:   timestamp,
		Version:     version,
	}
}

// Tree Events

// TreeLoaded is raised when a tree is seeded or rebuilt from a snapshot
type TreeLoaded struct {
	BaseEvent
	RootKey   string `json:"root_key"`
	NodeCount int    `json:"node_count"`
	Source    string `json:"source"`
}

// NewTreeLoaded creates a TreeLoaded event
func NewTreeLoaded(treeID, rootKey string, nodeCount int, source string, version int, timestamp time.Time) TreeLoaded {
	return TreeLoaded{
		BaseEvent: newBase(treeID, "tree.loaded", version, timestamp),
		RootKey:   rootKey,
		NodeCount: nodeCount,
		Source:    source,
	}
}

// ChildrenGenerated is raised when new child categories are appended
type ChildrenGenerated struct {
	BaseEvent
	ParentKey string   `json:"parent_key"`
	ChildKeys []string `json:"child_keys"`
}

// NewChildrenGenerated creates a ChildrenGenerated event
func NewChildrenGenerated(treeID, parentKey string, childKeys []string, version int, timestamp time.Time) ChildrenGenerated {
	return ChildrenGenerated{
		BaseEvent: newBase(treeID, "tree.children_generated", version, timestamp),
		ParentKey: parentKey,
		ChildKeys: childKeys,
	}
}

// ItemsClassified is raised when a node's items are redistributed
type ItemsClassified struct {
	BaseEvent
	NodeKey    string         `json:"node_key"`
	Assigned   map[string]int `json:"assigned"`
	Dropped    int            `json:"dropped"`
	Unassigned int            `json:"unassigned"`
}

// NewItemsClassified creates an ItemsClassified event
func NewItemsClassified(treeID, nodeKey string, assigned map[string]int, dropped, unassigned, version int, timestamp time.Time) ItemsClassified {
	return ItemsClassified{
		BaseEvent:  newBase(treeID, "tree.items_classified", version, timestamp),
		NodeKey:    nodeKey,
		Assigned:   assigned,
		Dropped:    dropped,
		Unassigned: unassigned,
	}
}

// NodeEdited is raised when a node's category or items are replaced
type NodeEdited struct {
	BaseEvent
	OldKey    string `json:"old_key"`
	NewKey    string `json:"new_key"`
	ItemCount int    `json:"item_count"`
}

// NewNodeEdited creates a NodeEdited event
func NewNodeEdited(treeID, oldKey, newKey string, itemCount, version int, timestamp time.Time) NodeEdited {
	return NodeEdited{
		BaseEvent: newBase(treeID, "tree.node_edited", version, timestamp),
		OldKey:    oldKey,
		NewKey:    newKey,
		ItemCount: itemCount,
	}
}

// NodeDeleted is raised when a node and its subtree are detached
type NodeDeleted struct {
	BaseEvent
	NodeKey     string   `json:"node_key"`
	ParentKey   string   `json:"parent_key"`
	RemovedKeys []string `json:"removed_keys"`
}

// NewNodeDeleted creates a NodeDeleted event
func NewNodeDeleted(treeID, nodeKey, parentKey string, removed []string, version int, timestamp time.Time) NodeDeleted {
	return NodeDeleted{
		BaseEvent:   newBase(treeID, "tree.node_deleted", version, timestamp),
		NodeKey:     nodeKey,
		ParentKey:   parentKey,
		RemovedKeys: removed,
	}
}

// NodeMoved is raised when a node is moved to a new position
type NodeMoved struct {
	BaseEvent
	NodeKey     string                `json:"node_key"`
	OldPosition valueobjects.Position `json:"old_position"`
	NewPosition valueobjects.Position `json:"new_position"`
}

// NewNodeMoved creates a NodeMoved event
func NewNodeMoved(treeID, nodeKey string, oldPos, newPos valueobjects.Position, version int, timestamp time.Time) NodeMoved {
	return NodeMoved{
		BaseEvent:   newBase(treeID, "tree.node_moved", version, timestamp),
		NodeKey:     nodeKey,
		OldPosition: oldPos,
		NewPosition: newPos,
	}
}
