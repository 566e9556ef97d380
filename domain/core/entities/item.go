package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Item is one thing being classified. Only ID is interpreted; every other
// field is carried through untouched.
type Item struct {
	ID     string
	Fields map[string]interface{}
}

// NewItem creates an item with the given id and extra fields
func NewItem(id string, fields map[string]interface{}) Item {
	copied := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if k == "id" {
			continue
		}
		copied[k] = v
	}
	return Item{ID: id, Fields: copied}
}

// Field returns an extra field by name
func (i Item) Field(name string) (interface{}, bool) {
	v, ok := i.Fields[name]
	return v, ok
}

// Label returns a human readable name for logs and the CLI
func (i Item) Label() string {
	if name, ok := i.Fields["name"].(string); ok && name != "" {
		return fmt.Sprintf("%s (%s)", name, i.ID)
	}
	return i.ID
}

// MarshalJSON flattens the extra fields next to the id
func (i Item) MarshalJSON() ([]byte, error) {
	flat := make(map[string]interface{}, len(i.Fields)+1)
	for k, v := range i.Fields {
		flat[k] = v
	}
	flat["id"] = i.ID
	return json.Marshal(flat)
}

// UnmarshalJSON accepts any object with a string or numeric id
func (i *Item) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("item must be a JSON object: %w", err)
	}
	if raw == nil {
		return fmt.Errorf("item must be a JSON object")
	}

	var head struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return fmt.Errorf("item must be a JSON object: %w", err)
	}
	id, err := itemID(head.ID)
	if err != nil {
		return err
	}
	delete(raw, "id")

	i.ID = id
	i.Fields = raw
	return nil
}

// itemID reads a string id, or a numeric id in its literal form
func itemID(raw json.RawMessage) (string, error) {
	var v interface{}
	if len(raw) > 0 {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&v); err != nil {
			return "", err
		}
	}
	switch id := v.(type) {
	case string:
		return id, nil
	case json.Number:
		return id.String(), nil
	case nil:
		return "", fmt.Errorf("item id is required")
	default:
		return "", fmt.Errorf("item id must be a string, got %T", v)
	}
}

// ParseItems decodes a JSON array of item objects. Anything else, including
// an object without an id, is rejected.
func ParseItems(data []byte) ([]Item, error) {
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	if items == nil {
		return nil, fmt.Errorf("items must be a JSON array")
	}
	return items, nil
}

// ItemIDs returns the ids of items in order
func ItemIDs(items []Item) []string {
	ids := make([]string, len(items))
	for idx, item := range items {
		ids[idx] = item.ID
	}
	return ids
}

// SortedItemIDs returns the ids sorted, for multiset comparisons
func SortedItemIDs(items []Item) []string {
	ids := ItemIDs(items)
	sort.Strings(ids)
	return ids
}

// SampleItems returns the items a fresh in-memory tree starts with
func SampleItems() []Item {
	animal := func(emoji, name, funFact string, lifespan int) Item {
		return NewItem(emoji, map[string]interface{}{
			"name":           name,
			"fun_fact":       funFact,
			"lifespan_years": lifespan,
			"emoji":          emoji,
		})
	}

	return []Item{
		animal("🦘", "Kangaroo", "Can hop at high speeds", 23),
		animal("🐨", "Koala", "Sleeps up to 22 hours a day", 18),
		animal("🐘", "Elephant", "Largest land animal", 60),
		animal("🐕", "Dog", "Best friend of humans", 15),
		animal("🐄", "Cow", "Gives milk", 20),
		animal("🐁", "Mouse", "Can squeeze through tiny gaps", 2),
		animal("🐊", "Crocodile", "Lives in water and land", 70),
		animal("🐍", "Snake", "No legs", 9),
		animal("🐢", "Turtle", "Can live over 100 years", 100),
		animal("🦎", "Gecko", "Can climb walls", 5),
	}
}

// ClassifiedItem pairs an item with the category the classifier chose for it
type ClassifiedItem struct {
	Item     Item     `json:"item"`
	Category Category `json:"category"`
}
