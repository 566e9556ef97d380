package entities

import (
	"strings"

	"taxonomy/domain/core/valueobjects"
)

// Category describes one taxonomy node. ID is only present once the
// persistence service has stored the category.
type Category struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// NewCategory creates a category that has not been persisted yet
func NewCategory(name, description string) Category {
	return Category{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
	}
}

// Key returns the identifying value under the given strategy
func (c Category) Key(strategy valueobjects.KeyStrategy) string {
	if strategy == valueobjects.KeyByID {
		return c.ID
	}
	return c.Name
}

// IsPersisted reports whether the persistence service assigned an id
func (c Category) IsPersisted() bool {
	return c.ID != ""
}

// WithID returns a copy carrying the persisted id
func (c Category) WithID(id string) Category {
	c.ID = id
	return c
}
