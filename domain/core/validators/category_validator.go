package validators

import (
	"strings"
	"unicode/utf8"

	"taxonomy/domain/config"
	"taxonomy/domain/core/entities"
	"taxonomy/pkg/errors"
)

// CategoryValidator validates categories and item lists before they reach
// the tree. Structural rules (keys, duplicates) stay in the aggregate.
type CategoryValidator struct {
	nameMaxLength        int
	descriptionMaxLength int
	maxChildren          int
	maxItems             int
}

// NewCategoryValidator creates a validator bounded by the domain limits
func NewCategoryValidator(cfg *config.DomainConfig) *CategoryValidator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &CategoryValidator{
		nameMaxLength:        cfg.MaxCategoryNameLen,
		descriptionMaxLength: cfg.MaxDescriptionLen,
		maxChildren:          cfg.MaxChildrenPerNode,
		maxItems:             cfg.MaxItemsPerNode,
	}
}

// ValidateCategory checks one category's name and description
func (v *CategoryValidator) ValidateCategory(category entities.Category) error {
	validationErrors := errors.NewValidationErrors()

	name := strings.TrimSpace(category.Name)
	switch {
	case name == "":
		validationErrors.Add("name", "category name is required")
	case utf8.RuneCountInString(name) > v.nameMaxLength:
		validationErrors.AddError(errors.NewDomainError(
			errors.DomainValidationError,
			"CATEGORY_NAME_TOO_LONG",
			"Category name exceeds maximum length",
		).WithDetail("actual_length", utf8.RuneCountInString(name)).
			WithDetail("max_length", v.nameMaxLength))
	}

	if utf8.RuneCountInString(category.Description) > v.descriptionMaxLength {
		validationErrors.AddError(errors.NewDomainError(
			errors.DomainValidationError,
			"CATEGORY_DESCRIPTION_TOO_LONG",
			"Category description exceeds maximum length",
		).WithDetail("max_length", v.descriptionMaxLength))
	}

	if validationErrors.HasErrors() {
		return validationErrors
	}
	return nil
}

// ValidateGenerated checks a batch of proposed children against the
// per-node limit, given how many children the parent already has.
func (v *CategoryValidator) ValidateGenerated(existing int, categories []entities.Category) error {
	if existing+len(categories) > v.maxChildren {
		return errors.NewDomainError(
			errors.DomainBusinessRuleError,
			"TOO_MANY_CHILDREN",
			"Node would exceed the maximum number of children",
		).WithDetail("existing", existing).
			WithDetail("proposed", len(categories)).
			WithDetail("max_children", v.maxChildren)
	}
	for _, category := range categories {
		if err := v.ValidateCategory(category); err != nil {
			return err
		}
	}
	return nil
}

// ValidateItems checks an item list supplied by a caller. Every item needs
// an id; ids may repeat.
func (v *CategoryValidator) ValidateItems(items []entities.Item) error {
	if len(items) > v.maxItems {
		return errors.NewInvalidItems("too many items for one node").
			WithDetail("count", len(items)).
			WithDetail("max_items", v.maxItems)
	}
	for idx, item := range items {
		if strings.TrimSpace(item.ID) == "" {
			return errors.NewInvalidItems("item has no id").WithDetail("index", idx)
		}
	}
	return nil
}
