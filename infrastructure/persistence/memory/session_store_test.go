package memory

import (
	"context"
	"testing"

	"taxonomy/domain/core/entities"
	pkgerrors "taxonomy/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_Lifecycle(t *testing.T) {
	// Arrange
	store := NewSessionStore(nil)
	ctx := context.Background()
	id, err := store.InitializeSession(ctx)
	require.NoError(t, err)
	root, err := store.LoadSession(ctx, id)
	require.NoError(t, err)
	rootID := root.Value.ID

	// Act
	mammals, err := store.CreateCategory(ctx, id, entities.NewCategory("Mammals", ""), rootID)
	require.NoError(t, err)
	reptiles, err := store.CreateCategory(ctx, id, entities.NewCategory("Reptiles", ""), rootID)
	require.NoError(t, err)
	sample := entities.SampleItems()
	require.NoError(t, store.UpdateItems(ctx, id, mammals.ID, sample[:5]))
	require.NoError(t, store.UpdateItems(ctx, id, reptiles.ID, sample[6:9]))
	require.NoError(t, store.UpdateCategory(ctx, id, reptiles.ID, entities.NewCategory("Reptilia", "scaly")))
	loaded, err := store.LoadSession(ctx, id)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Root", loaded.Value.Name)
	assert.Len(t, loaded.Items, 2)
	require.Len(t, loaded.Children, 2)
	assert.Equal(t, "Mammals", loaded.Children[0].Value.Name)
	assert.Len(t, loaded.Children[0].Items, 5)
	assert.Equal(t, "Reptilia", loaded.Children[1].Value.Name)
	assert.Len(t, loaded.Children[1].Items, 3)
}

func TestSessionStore_DeleteSubtree(t *testing.T) {
	store := NewSessionStore(nil)
	ctx := context.Background()
	id, _ := store.InitializeSession(ctx)
	root, _ := store.LoadSession(ctx, id)
	a, _ := store.CreateCategory(ctx, id, entities.NewCategory("A", ""), root.Value.ID)
	_, _ = store.CreateCategory(ctx, id, entities.NewCategory("A1", ""), a.ID)

	require.NoError(t, store.DeleteCategory(ctx, id, a.ID))
	loaded, err := store.LoadSession(ctx, id)

	require.NoError(t, err)
	assert.Empty(t, loaded.Children)
	assert.ErrorIs(t, store.DeleteCategory(ctx, id, root.Value.ID), pkgerrors.ErrRootDeletionForbidden)
	assert.True(t, pkgerrors.IsNotFound(store.DeleteCategory(ctx, id, a.ID)))
}

func TestSessionStore_UnknownSession(t *testing.T) {
	store := NewSessionStore(nil)

	_, err := store.LoadSession(context.Background(), "nope")
	assert.ErrorIs(t, err, pkgerrors.ErrSessionNotFound)

	err = store.UpdateItems(context.Background(), "nope", "x", nil)
	assert.ErrorIs(t, err, pkgerrors.ErrSessionNotFound)
}
