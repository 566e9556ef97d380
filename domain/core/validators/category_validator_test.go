package validators

import (
	"strings"
	"testing"

	"taxonomy/domain/config"
	"taxonomy/domain/core/entities"
	"taxonomy/pkg/errors"

	"github.com/stretchr/testify/assert"
)

func TestCategoryValidator_ValidateCategory(t *testing.T) {
	v := NewCategoryValidator(nil)

	tests := []struct {
		name     string
		category entities.Category
		wantErr  bool
	}{
		{"valid", entities.NewCategory("Mammals", "Warm blooded"), false},
		{"blank name", entities.Category{Name: "   "}, true},
		{"name too long", entities.Category{Name: strings.Repeat("x", 201)}, true},
		{"description too long", entities.Category{Name: "ok", Description: strings.Repeat("d", 2001)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateCategory(tt.category)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCategoryValidator_ValidateGenerated(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.MaxChildrenPerNode = 3
	v := NewCategoryValidator(cfg)

	assert.NoError(t, v.ValidateGenerated(1, []entities.Category{
		entities.NewCategory("A", ""), entities.NewCategory("B", ""),
	}))

	err := v.ValidateGenerated(2, []entities.Category{
		entities.NewCategory("A", ""), entities.NewCategory("B", ""),
	})
	domainErr := errors.GetDomainError(err)
	if assert.NotNil(t, domainErr) {
		assert.Equal(t, "TOO_MANY_CHILDREN", domainErr.Code)
	}
}

func TestCategoryValidator_ValidateItems(t *testing.T) {
	v := NewCategoryValidator(nil)

	assert.NoError(t, v.ValidateItems(nil))
	assert.NoError(t, v.ValidateItems([]entities.Item{entities.NewItem("a", nil), entities.NewItem("a", nil)}))

	err := v.ValidateItems([]entities.Item{entities.NewItem("a", nil), {ID: ""}})
	assert.ErrorIs(t, err, errors.ErrInvalidItems)
}
