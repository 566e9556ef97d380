package utils

import (
	"errors"
	"testing"

	pkgerrors "taxonomy/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type generateBody struct {
	NumCategories    int    `json:"num_categories" validate:"min=0,max=50"`
	GenerationMethod string `json:"generation_method,omitempty" validate:"omitempty,max=64"`
	Mode             string `json:"mode" validate:"omitempty,oneof=memory remote"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name   string
		input  generateBody
		fields map[string][]string
	}{
		{name: "valid", input: generateBody{NumCategories: 3, Mode: "remote"}},
		{
			name:   "too many categories",
			input:  generateBody{NumCategories: 51},
			fields: map[string][]string{"num_categories": {"num_categories must be at most 50"}},
		},
		{
			name:   "bad mode",
			input:  generateBody{Mode: "disk"},
			fields: map[string][]string{"mode": {"mode must be one of: memory remote"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.input)

			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			var verrs *pkgerrors.ValidationErrors
			require.True(t, errors.As(err, &verrs))
			assert.Equal(t, tt.fields, verrs.ToMap())
		})
	}
}
