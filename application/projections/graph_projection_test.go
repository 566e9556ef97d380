package projections

import (
	"context"
	"encoding/json"
	"testing"

	"taxonomy/domain/core/aggregates"
	"taxonomy/domain/core/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockOperations struct {
	mock.Mock
}

func (m *mockOperations) Generate(ctx context.Context, key string, numCategories int, generationMethod string) error {
	return m.Called(ctx, key, numCategories, generationMethod).Error(0)
}

func (m *mockOperations) Classify(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockOperations) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockOperations) Edit(ctx context.Context, key string, category entities.Category, items []entities.Item) error {
	return m.Called(ctx, key, category, items).Error(0)
}

func grownTree(t *testing.T) *aggregates.Tree {
	t.Helper()
	tree := aggregates.NewSeedTree("s", nil)
	tree, err := tree.GenerateChildren("Root", []entities.Category{
		entities.NewCategory("A", ""), entities.NewCategory("B", ""),
	})
	require.NoError(t, err)
	tree, err = tree.GenerateChildren("B", []entities.Category{entities.NewCategory("B1", "")})
	require.NoError(t, err)
	return tree
}

func TestProject_DeleteLeafRemovesOneEdge(t *testing.T) {
	// Arrange
	tree := aggregates.NewSeedTree("s", nil)
	tree, err := tree.GenerateChildren("Root", []entities.Category{
		entities.NewCategory("A", ""), entities.NewCategory("B", ""),
	})
	require.NoError(t, err)

	// Act
	graph := Project(tree, nil)

	// Assert
	require.Len(t, graph.Nodes, 3)
	assert.Equal(t, []string{"Root", "A", "B"}, []string{graph.Nodes[0].ID, graph.Nodes[1].ID, graph.Nodes[2].ID})
	assert.Equal(t, []GraphEdge{
		{ID: "Root-A", Source: "Root", Target: "A"},
		{ID: "Root-B", Source: "Root", Target: "B"},
	}, graph.Edges)

	// Act: delete the leaf B
	tree, err = tree.DeleteNode("B")
	require.NoError(t, err)
	graph = Project(tree, nil)

	// Assert
	assert.Len(t, graph.Nodes, 2)
	assert.Equal(t, []GraphEdge{{ID: "Root-A", Source: "Root", Target: "A"}}, graph.Edges)
}

func TestProject_CountsMatchTree(t *testing.T) {
	tree := grownTree(t)

	graph := Project(tree, nil)

	assert.Equal(t, tree.Size(), len(graph.Nodes))
	assert.Equal(t, tree.Size()-1, len(graph.Edges))
	assert.Equal(t, GraphStats{
		NodeCount: 4,
		EdgeCount: 3,
		ItemCount: 10,
		LeafCount: 2,
		Depth:     2,
		Version:   tree.Version(),
	}, graph.Stats)
}

func TestProject_Capabilities(t *testing.T) {
	graph := Project(grownTree(t), nil)

	byID := map[string][]string{}
	for _, n := range graph.Nodes {
		byID[n.ID] = n.Capabilities
	}
	assert.ElementsMatch(t, []string{"generate", "edit", "classify"}, byID["Root"])
	assert.ElementsMatch(t, []string{"generate", "edit", "delete"}, byID["A"])
}

func TestProject_ActionsCloseOverKey(t *testing.T) {
	// Arrange
	ops := new(mockOperations)
	ctx := context.Background()
	ops.On("Generate", ctx, "A", 3, "llm").Return(nil)
	ops.On("Classify", ctx, "Root").Return(nil)
	ops.On("Delete", ctx, "B1").Return(nil)

	graph := Project(grownTree(t), ops)
	byID := map[string]GraphNode{}
	for _, n := range graph.Nodes {
		byID[n.ID] = n
	}

	// Act
	require.NoError(t, byID["A"].Actions.Generate(ctx, 3, "llm"))
	require.NoError(t, byID["Root"].Actions.Classify(ctx))
	require.NoError(t, byID["B1"].Actions.Delete(ctx))

	// Assert
	ops.AssertExpectations(t)
}

func TestProject_JSONOmitsActions(t *testing.T) {
	graph := Project(grownTree(t), new(mockOperations))

	data, err := json.Marshal(graph.Nodes[1])

	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.NotContains(t, decoded, "Actions")
	assert.Equal(t, "A", decoded["id"])
	assert.Equal(t, map[string]interface{}{"x": 150.0, "y": 155.0}, decoded["position"])
}
