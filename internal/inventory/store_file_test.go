package inventory

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vehicles.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)
	return store, path
}

func TestFileStoreCRUD(t *testing.T) {
	store, _ := newTestFileStore(t)
	ctx := context.Background()

	v := Vehicle{DealerID: "dealer-1", Make: "Toyota", Model: "Camry", Year: 2022, IsAvailable: true}
	require.NoError(t, store.Insert(ctx, &v))
	require.NotEmpty(t, v.ID)
	assert.False(t, v.CreatedAt.IsZero())

	got, err := store.Get(ctx, "dealer-1", v.ID)
	require.NoError(t, err)
	assert.Equal(t, "Camry", got.Model)

	got.Price = 29000
	require.NoError(t, store.Update(ctx, &got))
	updated, err := store.Get(ctx, "dealer-1", v.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(29000), updated.Price)
	assert.Equal(t, v.CreatedAt.Unix(), updated.CreatedAt.Unix())

	require.NoError(t, store.Delete(ctx, "dealer-1", v.ID))
	_, err = store.Get(ctx, "dealer-1", v.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStoreDealerScoping(t *testing.T) {
	store, _ := newTestFileStore(t)
	ctx := context.Background()

	mine := Vehicle{DealerID: "dealer-1", Make: "Honda", Model: "Civic", Year: 2021}
	theirs := Vehicle{DealerID: "dealer-2", Make: "Ford", Model: "Focus", Year: 2019}
	require.NoError(t, store.Insert(ctx, &mine))
	require.NoError(t, store.Insert(ctx, &theirs))

	listed, err := store.List(ctx, "dealer-1", Filters{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "Civic", listed[0].Model)

	_, err = store.Get(ctx, "dealer-1", theirs.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	count, err := store.CountByDealer(ctx, "dealer-2")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestFileStoreListPreservesInsertionOrder(t *testing.T) {
	store, _ := newTestFileStore(t)
	ctx := context.Background()

	models := []string{"First", "Second", "Third"}
	for _, model := range models {
		v := Vehicle{DealerID: "dealer-1", Make: "Test", Model: model, Year: 2020}
		require.NoError(t, store.Insert(ctx, &v))
	}

	listed, err := store.List(ctx, "dealer-1", Filters{})
	require.NoError(t, err)
	require.Len(t, listed, 3)
	for i, model := range models {
		assert.Equal(t, model, listed[i].Model)
	}
}

func TestFileStorePersistsAcrossReload(t *testing.T) {
	store, path := newTestFileStore(t)
	ctx := context.Background()

	v := Vehicle{DealerID: "dealer-1", Make: "Tesla", Model: "Model 3", Year: 2023, Features: []string{"Autopilot"}}
	require.NoError(t, store.Insert(ctx, &v))
	require.NoError(t, store.AddImages(ctx, v.ID, []VehicleImage{
		{StorageID: "img-1", URL: "memory://img-1", IsPrimary: true, DisplayOrder: 0},
	}))

	reloaded, err := NewFileStore(path)
	require.NoError(t, err)

	got, err := reloaded.Get(ctx, "dealer-1", v.ID)
	require.NoError(t, err)
	assert.Equal(t, "Model 3", got.Model)
	assert.Equal(t, []string{"Autopilot"}, got.Features)
	require.Len(t, got.Images, 1)
	assert.True(t, got.Images[0].IsPrimary)
}

func TestFileStoreDiscardsIncompatibleVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vehicles.json")
	stale, err := json.Marshal(map[string]any{
		"version":  fileSchemaVersion + 1,
		"vehicles": []map[string]any{{"id": "old", "make": "Relic"}},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, stale, 0o644))

	store, err := NewFileStore(path)
	require.NoError(t, err)

	count, err := store.CountByDealer(context.Background(), "dealer-1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestFileStoreDiscardsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vehicles.json")
	require.NoError(t, os.WriteFile(path, []byte("not-json{"), 0o644))

	store, err := NewFileStore(path)
	require.NoError(t, err)

	listed, err := store.List(context.Background(), "dealer-1", Filters{})
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestFileStoreMediaOperations(t *testing.T) {
	store, _ := newTestFileStore(t)
	ctx := context.Background()

	v := Vehicle{DealerID: "dealer-1", Make: "Honda", Model: "CR-V", Year: 2021}
	require.NoError(t, store.Insert(ctx, &v))

	require.NoError(t, store.AddImages(ctx, v.ID, []VehicleImage{
		{StorageID: "img-1", IsPrimary: true, DisplayOrder: 0},
		{StorageID: "img-2", DisplayOrder: 1},
	}))
	require.NoError(t, store.AddVideos(ctx, v.ID, []VehicleVideo{
		{StorageID: "vid-1", DisplayOrder: 0},
	}))

	require.NoError(t, store.RemoveImages(ctx, v.ID, []string{"img-1"}))
	require.NoError(t, store.SetPrimaryImage(ctx, v.ID, "img-2"))

	got, err := store.Get(ctx, "dealer-1", v.ID)
	require.NoError(t, err)
	require.Len(t, got.Images, 1)
	assert.Equal(t, "img-2", got.Images[0].StorageID)
	assert.True(t, got.Images[0].IsPrimary)
	require.Len(t, got.Videos, 1)

	require.NoError(t, store.RemoveVideos(ctx, v.ID, []string{"vid-1"}))
	got, err = store.Get(ctx, "dealer-1", v.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Videos)

	assert.ErrorIs(t, store.AddImages(ctx, "missing", nil), ErrNotFound)
}
