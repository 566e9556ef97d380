package services

import (
	"context"
	"errors"
	"testing"

	"taxonomy/application/ports"
	"taxonomy/domain/core/entities"
	pkgerrors "taxonomy/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClassificationGateway_Generate(t *testing.T) {
	tests := []struct {
		name      string
		num       int
		response  []entities.Category
		respErr   error
		wantNames []string
		wantErr   *pkgerrors.DomainError
	}{
		{
			name:      "returns categories in order",
			num:       0,
			response:  []entities.Category{{Name: "Mammals"}, {Name: "Reptiles"}},
			wantNames: []string{"Mammals", "Reptiles"},
		},
		{
			name:      "collapses repeated names to the first",
			num:       0,
			response:  []entities.Category{{Name: "Mammals", Description: "first"}, {Name: "Reptiles"}, {Name: "Mammals", Description: "second"}},
			wantNames: []string{"Mammals", "Reptiles"},
		},
		{
			name:      "truncates to the requested count",
			num:       2,
			response:  []entities.Category{{Name: "A"}, {Name: "B"}, {Name: "C"}},
			wantNames: []string{"A", "B"},
		},
		{
			name:     "blank name fails",
			response: []entities.Category{{Name: "A"}, {Name: "  "}},
			wantErr:  pkgerrors.ErrGenerationFailed,
		},
		{
			name:    "transport failure",
			respErr: errors.New("connection refused"),
			wantErr: pkgerrors.ErrGenerationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			client := new(mockClassifier)
			var resp *ports.GenerateClassesResponse
			if tt.respErr == nil {
				resp = &ports.GenerateClassesResponse{Categories: tt.response}
			}
			client.On("GenerateClasses", mock.Anything, mock.MatchedBy(func(req ports.GenerateClassesRequest) bool {
				return req.NumCategories == tt.num && req.APIKey == "key" && req.Items != nil
			})).Return(resp, tt.respErr).Once()
			gateway := NewClassificationGateway(client, nil, zap.NewNop())

			// Act
			categories, err := gateway.Generate(context.Background(), GenerateInput{
				Category:      entities.NewCategory("Root", ""),
				NumCategories: tt.num,
				APIKey:        "key",
			})

			// Assert
			client.AssertExpectations(t)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, categories)
				return
			}
			require.NoError(t, err)
			names := make([]string, len(categories))
			for i, c := range categories {
				names[i] = c.Name
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}
}

func TestClassificationGateway_Classify(t *testing.T) {
	snake := entities.NewItem("🐍", map[string]interface{}{"name": "Snake"})
	dog := entities.NewItem("🐕", map[string]interface{}{"name": "Dog"})
	request := []entities.Item{snake, dog}
	categories := []entities.Category{entities.NewCategory("Reptiles", ""), entities.NewCategory("Mammals", "")}

	pairOf := func(id, category string) entities.ClassifiedItem {
		return entities.ClassifiedItem{Item: entities.NewItem(id, nil), Category: entities.NewCategory(category, "")}
	}

	tests := []struct {
		name        string
		response    []entities.ClassifiedItem
		respErr     error
		wantPairs   int
		wantOmitted int
		wantErr     *pkgerrors.DomainError
	}{
		{
			name:      "every item classified",
			response:  []entities.ClassifiedItem{pairOf("🐍", "Reptiles"), pairOf("🐕", "Mammals")},
			wantPairs: 2,
		},
		{
			name:        "omitted item becomes a warning",
			response:    []entities.ClassifiedItem{pairOf("🐍", "Reptiles")},
			wantPairs:   1,
			wantOmitted: 1,
		},
		{
			name:     "unknown id",
			response: []entities.ClassifiedItem{pairOf("🦄", "Mammals")},
			wantErr:  pkgerrors.ErrClassificationDataMismatch,
		},
		{
			name:     "repeated id",
			response: []entities.ClassifiedItem{pairOf("🐍", "Reptiles"), pairOf("🐍", "Mammals")},
			wantErr:  pkgerrors.ErrClassificationDataMismatch,
		},
		{
			name:    "transport failure",
			respErr: errors.New("502"),
			wantErr: pkgerrors.ErrClassificationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(mockClassifier)
			var resp *ports.ClassifyItemsResponse
			if tt.respErr == nil {
				resp = &ports.ClassifyItemsResponse{ClassifiedItems: tt.response}
			}
			client.On("ClassifyItems", mock.Anything, ports.ClassifyItemsRequest{
				Categories: categories, Items: request, APIKey: "key",
			}).Return(resp, tt.respErr)
			gateway := NewClassificationGateway(client, nil, zap.NewNop())

			out, err := gateway.Classify(context.Background(), categories, request, "key")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, out.Pairs, tt.wantPairs)
			assert.Len(t, out.Omitted, tt.wantOmitted)
			// request objects are carried, not the response's
			assert.Equal(t, "Snake", out.Pairs[0].Item.Fields["name"])
		})
	}
}
