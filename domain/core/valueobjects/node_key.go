package valueobjects

import (
	"encoding/json"
	"errors"
	"strings"
)

// NodeKey is the value that identifies a node within one tree. It doubles
// as the graph node id and as half of every edge id.
type NodeKey struct {
	value string
}

// NewNodeKey creates a NodeKey from a category name or id
func NewNodeKey(key string) (NodeKey, error) {
	if strings.TrimSpace(key) == "" {
		return NodeKey{}, errors.New("node key cannot be empty")
	}
	return NodeKey{value: key}, nil
}

// MustNodeKey is NewNodeKey for literals known to be valid
func MustNodeKey(key string) NodeKey {
	k, err := NewNodeKey(key)
	if err != nil {
		panic(err)
	}
	return k
}

// String returns the string representation of the NodeKey
func (k NodeKey) String() string {
	return k.value
}

// Equals checks if two NodeKeys are equal
func (k NodeKey) Equals(other NodeKey) bool {
	return k.value == other.value
}

// IsZero checks if the NodeKey is the zero value
func (k NodeKey) IsZero() bool {
	return k.value == ""
}

// MarshalJSON implements json.Marshaler
func (k NodeKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.value)
}

// UnmarshalJSON implements json.Unmarshaler
func (k *NodeKey) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.New("NodeKey must be a string")
	}
	k.value = s
	return nil
}

// KeyStrategy selects which category field identifies a node.
type KeyStrategy int

const (
	// KeyByName keys nodes by category name; used by in-memory trees.
	KeyByName KeyStrategy = iota
	// KeyByID keys nodes by the id the persistence service assigned.
	KeyByID
)

// String returns the strategy name
func (s KeyStrategy) String() string {
	if s == KeyByID {
		return "id"
	}
	return "name"
}
