package inventory

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/motorlot/inventory/internal/media"
	"github.com/motorlot/inventory/pkg/eventbus"
)

const testDealer = "dealer-1"

func newTestRepository(t *testing.T) (*Repository, *media.LocalUploader, *eventbus.Bus) {
	t.Helper()
	store, err := NewFileStore(filepath.Join(t.TempDir(), "vehicles.json"))
	require.NoError(t, err)
	uploader := media.NewLocalUploader()
	bus := eventbus.New()
	return NewWithStore(store, uploader, bus, testDealer), uploader, bus
}

func imageFile(name string) media.File {
	return media.File{Name: name, ContentType: "image/jpeg", Data: []byte("jpeg-bytes")}
}

func imagesOf(data map[string]any) []map[string]any {
	images, _ := data["images"].([]map[string]any)
	return images
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestCreateVehicle(t *testing.T) {
	repo, _, _ := newTestRepository(t)

	result := repo.CreateVehicle(context.Background(), map[string]any{
		"make":  "Toyota",
		"model": "Camry",
		"year":  2022,
		"price": 28500.0,
	}, MediaUpload{})

	require.True(t, result.Success, result.Error)
	assert.Equal(t, "Toyota", result.Data["make"])
	assert.Equal(t, StatusAvailable, result.Data["status"])
	assert.NotEmpty(t, result.Data["id"])
}

func TestCreateVehicleValidationFailure(t *testing.T) {
	repo, _, bus := newTestRepository(t)

	var events []eventbus.Event
	bus.Subscribe(func(e eventbus.Event) { events = append(events, e) })

	result := repo.CreateVehicle(context.Background(), map[string]any{
		"model": "Camry",
		"year":  1850,
	}, MediaUpload{})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "Make is required")
	assert.Empty(t, events, "failed creation emits no event")

	listed := repo.GetVehicles(context.Background(), Filters{})
	assert.Equal(t, 0, listed.Count)
}

func TestCreateVehicleWithPartialUploadFailure(t *testing.T) {
	repo, uploader, _ := newTestRepository(t)
	uploader.FailNames["broken.jpg"] = true

	result := repo.CreateVehicle(context.Background(), map[string]any{
		"make":  "Honda",
		"model": "CR-V",
		"year":  2021,
	}, MediaUpload{
		Images: []media.File{imageFile("front.jpg"), imageFile("broken.jpg"), imageFile("rear.jpg")},
	})

	require.True(t, result.Success, "partial upload failure must not fail creation")
	images := imagesOf(result.Data)
	require.Len(t, images, 2)
	assert.Equal(t, true, images[0]["isPrimary"])
	assert.Equal(t, false, images[1]["isPrimary"])
	assert.Equal(t, 0, images[0]["displayOrder"])
	assert.Equal(t, 1, images[1]["displayOrder"])
	assert.Equal(t, 2, uploader.Count())
}

func TestCreateVehiclePrimaryIsFirstSuccess(t *testing.T) {
	repo, uploader, _ := newTestRepository(t)
	uploader.FailNames["first.jpg"] = true

	result := repo.CreateVehicle(context.Background(), map[string]any{
		"make":  "Ford",
		"model": "F-150",
		"year":  2020,
	}, MediaUpload{
		Images: []media.File{imageFile("first.jpg"), imageFile("second.jpg")},
	})

	require.True(t, result.Success)
	images := imagesOf(result.Data)
	require.Len(t, images, 1)
	assert.Equal(t, true, images[0]["isPrimary"])
}

// ---------------------------------------------------------------------------
// Get / List
// ---------------------------------------------------------------------------

func TestGetVehicleNotFound(t *testing.T) {
	repo, _, _ := newTestRepository(t)

	result := repo.GetVehicle(context.Background(), "missing-id")

	assert.False(t, result.Success)
	assert.Equal(t, "vehicle not found", result.Error)
	assert.Nil(t, result.Data)
}

func TestGetVehiclesFiltered(t *testing.T) {
	repo, _, _ := newTestRepository(t)
	ctx := context.Background()

	repo.CreateVehicle(ctx, map[string]any{"make": "Toyota", "model": "Camry", "year": 2022, "bodyStyle": "Sedan"}, MediaUpload{})
	repo.CreateVehicle(ctx, map[string]any{"make": "Honda", "model": "CR-V", "year": 2021, "bodyStyle": "SUV"}, MediaUpload{})

	result := repo.GetVehicles(ctx, Filters{BodyStyle: strPtr("SUV")})

	require.True(t, result.Success)
	require.Equal(t, 1, result.Count)
	assert.Equal(t, "CR-V", result.Data[0]["model"])
}

func TestGetVehiclesRejectsInvalidFilters(t *testing.T) {
	repo, _, _ := newTestRepository(t)

	result := repo.GetVehicles(context.Background(), Filters{MinPrice: floatPtr(-5)})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "MinPrice")
	assert.NotNil(t, result.Data)
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func TestUpdateVehicleFields(t *testing.T) {
	repo, _, _ := newTestRepository(t)
	ctx := context.Background()

	created := repo.CreateVehicle(ctx, map[string]any{"make": "Toyota", "model": "Camry", "year": 2022}, MediaUpload{})
	require.True(t, created.Success)
	id := created.Data["id"].(string)

	result := repo.UpdateVehicle(ctx, id, map[string]any{
		"price":  27000.0,
		"status": "Sold",
		"color":  "Midnight Blue",
	}, MediaUpload{}, MediaRemoval{})

	require.True(t, result.Success, result.Error)
	assert.Equal(t, 27000.0, result.Data["price"])
	assert.Equal(t, StatusSold, result.Data["status"])
	assert.Equal(t, "Midnight Blue", result.Data["exteriorColor"])
	assert.Equal(t, "Toyota", result.Data["make"], "untouched fields survive")
}

func TestUpdateVehicleNotFound(t *testing.T) {
	repo, _, _ := newTestRepository(t)

	result := repo.UpdateVehicle(context.Background(), "missing-id", map[string]any{"price": 1.0}, MediaUpload{}, MediaRemoval{})

	assert.False(t, result.Success)
	assert.Equal(t, "vehicle not found", result.Error)
}

func TestUpdateRemovesPrimaryAndPromotesNewUpload(t *testing.T) {
	repo, uploader, _ := newTestRepository(t)
	ctx := context.Background()

	created := repo.CreateVehicle(ctx, map[string]any{"make": "Tesla", "model": "Model 3", "year": 2023}, MediaUpload{
		Images: []media.File{imageFile("old-primary.jpg"), imageFile("old-second.jpg")},
	})
	require.True(t, created.Success)
	id := created.Data["id"].(string)
	oldImages := imagesOf(created.Data)
	require.Len(t, oldImages, 2)
	primaryID := oldImages[0]["storageId"].(string)

	result := repo.UpdateVehicle(ctx, id, nil, MediaUpload{
		Images: []media.File{imageFile("new.jpg")},
	}, MediaRemoval{ImageStorageIDs: []string{primaryID}})

	require.True(t, result.Success, result.Error)
	images := imagesOf(result.Data)
	require.Len(t, images, 2)

	assert.False(t, uploader.Stored(primaryID), "removed object is deleted from storage")

	primaries := 0
	for _, img := range images {
		if img["isPrimary"] == true {
			primaries++
			assert.NotEqual(t, primaryID, img["storageId"])
		}
	}
	assert.Equal(t, 1, primaries, "exactly one primary after promotion")

	// New upload's display order continues after the surviving image.
	assert.Equal(t, 1, images[0]["displayOrder"])
	assert.Equal(t, 2, images[1]["displayOrder"])
}

func TestUpdateRemovesPrimaryPromotesRemaining(t *testing.T) {
	repo, _, _ := newTestRepository(t)
	ctx := context.Background()

	created := repo.CreateVehicle(ctx, map[string]any{"make": "Honda", "model": "Civic", "year": 2021}, MediaUpload{
		Images: []media.File{imageFile("a.jpg"), imageFile("b.jpg")},
	})
	require.True(t, created.Success)
	id := created.Data["id"].(string)
	primaryID := imagesOf(created.Data)[0]["storageId"].(string)

	result := repo.UpdateVehicle(ctx, id, nil, MediaUpload{}, MediaRemoval{ImageStorageIDs: []string{primaryID}})

	require.True(t, result.Success)
	images := imagesOf(result.Data)
	require.Len(t, images, 1)
	assert.Equal(t, true, images[0]["isPrimary"], "surviving image promoted to primary")
}

// ---------------------------------------------------------------------------
// Delete
// ---------------------------------------------------------------------------

func TestDeleteVehicleRemovesMedia(t *testing.T) {
	repo, uploader, _ := newTestRepository(t)
	ctx := context.Background()

	created := repo.CreateVehicle(ctx, map[string]any{"make": "Ford", "model": "F-150", "year": 2020}, MediaUpload{
		Images: []media.File{imageFile("a.jpg")},
		Videos: []media.File{{Name: "tour.mp4", ContentType: "video/mp4", Data: []byte("mp4")}},
	})
	require.True(t, created.Success)
	id := created.Data["id"].(string)
	require.Equal(t, 2, uploader.Count())

	result := repo.DeleteVehicle(ctx, id)

	require.True(t, result.Success)
	assert.Equal(t, 0, uploader.Count())
	assert.False(t, repo.GetVehicle(ctx, id).Success)
}

func TestDeleteVehicleSucceedsWhenObjectDeleteFails(t *testing.T) {
	repo, uploader, _ := newTestRepository(t)
	ctx := context.Background()

	created := repo.CreateVehicle(ctx, map[string]any{"make": "Ford", "model": "Escape", "year": 2019}, MediaUpload{
		Images: []media.File{imageFile("a.jpg")},
	})
	require.True(t, created.Success)
	id := created.Data["id"].(string)

	uploader.FailDeletes = true
	result := repo.DeleteVehicle(ctx, id)

	assert.True(t, result.Success, "object store failure must not fail the deletion")
	assert.False(t, repo.GetVehicle(ctx, id).Success)
}

// sequenceUploader records object deletions into a shared event log.
type sequenceUploader struct {
	*media.LocalUploader
	events *[]string
}

func (u sequenceUploader) Delete(ctx context.Context, storageID string) error {
	*u.events = append(*u.events, "object "+storageID)
	return u.LocalUploader.Delete(ctx, storageID)
}

func TestDeleteVehicleRemovesObjectsBeforeRow(t *testing.T) {
	var events []string

	store := &mockStore{}
	vehicle := Vehicle{
		ID:       "veh-1",
		DealerID: testDealer,
		Images:   []VehicleImage{{StorageID: "img-1", IsPrimary: true}},
		Videos:   []VehicleVideo{{StorageID: "vid-1"}},
	}
	store.On("Get", mock.Anything, testDealer, "veh-1").Return(vehicle, nil)
	store.On("Delete", mock.Anything, testDealer, "veh-1").
		Run(func(mock.Arguments) { events = append(events, "row") }).
		Return(nil)

	uploader := sequenceUploader{LocalUploader: media.NewLocalUploader(), events: &events}
	repo := NewWithStore(store, uploader, eventbus.New(), testDealer)

	result := repo.DeleteVehicle(context.Background(), "veh-1")

	require.True(t, result.Success)
	assert.Equal(t, []string{"object img-1", "object vid-1", "row"}, events)
	store.AssertExpectations(t)
}

func TestDeleteVehicleNotFound(t *testing.T) {
	repo, _, _ := newTestRepository(t)

	result := repo.DeleteVehicle(context.Background(), "missing-id")

	assert.False(t, result.Success)
	assert.Equal(t, "vehicle not found", result.Error)
}

// ---------------------------------------------------------------------------
// Bulk delete
// ---------------------------------------------------------------------------

func TestBulkDeleteVehiclesPartialFailure(t *testing.T) {
	repo, _, bus := newTestRepository(t)
	ctx := context.Background()

	created := repo.CreateVehicle(ctx, map[string]any{"make": "Toyota", "model": "Camry", "year": 2022}, MediaUpload{})
	require.True(t, created.Success)
	id := created.Data["id"].(string)

	var events []eventbus.Event
	bus.Subscribe(func(e eventbus.Event) { events = append(events, e) })

	result := repo.BulkDeleteVehicles(ctx, []string{id, "missing-id"})

	assert.False(t, result.Success)
	assert.Equal(t, 1, result.Deleted)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "missing-id")

	require.Len(t, events, 1, "one event for the whole batch")
	assert.Equal(t, eventbus.ActionBulkDelete, events[0].Action)
}

func TestBulkDeleteVehiclesAllMissing(t *testing.T) {
	repo, _, bus := newTestRepository(t)

	var events []eventbus.Event
	bus.Subscribe(func(e eventbus.Event) { events = append(events, e) })

	result := repo.BulkDeleteVehicles(context.Background(), []string{"a", "b"})

	assert.False(t, result.Success)
	assert.Equal(t, 0, result.Deleted)
	assert.Equal(t, 2, result.Failed)
	assert.Empty(t, events, "no event when nothing was deleted")
}

// ---------------------------------------------------------------------------
// Change notifications
// ---------------------------------------------------------------------------

func TestChangeNotificationsFanOut(t *testing.T) {
	repo, _, _ := newTestRepository(t)
	ctx := context.Background()

	var first, second []eventbus.Event
	repo.OnVehicleChange(func(e eventbus.Event) { first = append(first, e) })
	unsubscribe := repo.OnVehicleChange(func(e eventbus.Event) { second = append(second, e) })

	created := repo.CreateVehicle(ctx, map[string]any{"make": "Toyota", "model": "Camry", "year": 2022}, MediaUpload{})
	require.True(t, created.Success)
	id := created.Data["id"].(string)

	repo.UpdateVehicle(ctx, id, map[string]any{"price": 1000.0}, MediaUpload{}, MediaRemoval{})
	unsubscribe()
	repo.DeleteVehicle(ctx, id)

	require.Len(t, first, 3)
	assert.Equal(t, eventbus.ActionCreate, first[0].Action)
	assert.Equal(t, id, first[0].VehicleID)
	assert.Equal(t, testDealer, first[0].DealerID)
	assert.Equal(t, eventbus.ActionUpdate, first[1].Action)
	assert.Equal(t, eventbus.ActionDelete, first[2].Action)

	assert.Len(t, second, 2, "unsubscribed before the delete")
}

// ---------------------------------------------------------------------------
// Infrastructure failures
// ---------------------------------------------------------------------------

type mockStore struct {
	mock.Mock
}

func (m *mockStore) List(ctx context.Context, dealerID string, filters Filters) ([]Vehicle, error) {
	args := m.Called(ctx, dealerID, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Vehicle), args.Error(1)
}

func (m *mockStore) Get(ctx context.Context, dealerID, vehicleID string) (Vehicle, error) {
	args := m.Called(ctx, dealerID, vehicleID)
	return args.Get(0).(Vehicle), args.Error(1)
}

func (m *mockStore) Insert(ctx context.Context, v *Vehicle) error {
	return m.Called(ctx, v).Error(0)
}

func (m *mockStore) Update(ctx context.Context, v *Vehicle) error {
	return m.Called(ctx, v).Error(0)
}

func (m *mockStore) Delete(ctx context.Context, dealerID, vehicleID string) error {
	return m.Called(ctx, dealerID, vehicleID).Error(0)
}

func (m *mockStore) CountByDealer(ctx context.Context, dealerID string) (int, error) {
	args := m.Called(ctx, dealerID)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) AddImages(ctx context.Context, vehicleID string, images []VehicleImage) error {
	return m.Called(ctx, vehicleID, images).Error(0)
}

func (m *mockStore) AddVideos(ctx context.Context, vehicleID string, videos []VehicleVideo) error {
	return m.Called(ctx, vehicleID, videos).Error(0)
}

func (m *mockStore) RemoveImages(ctx context.Context, vehicleID string, storageIDs []string) error {
	return m.Called(ctx, vehicleID, storageIDs).Error(0)
}

func (m *mockStore) RemoveVideos(ctx context.Context, vehicleID string, storageIDs []string) error {
	return m.Called(ctx, vehicleID, storageIDs).Error(0)
}

func (m *mockStore) SetPrimaryImage(ctx context.Context, vehicleID, storageID string) error {
	return m.Called(ctx, vehicleID, storageID).Error(0)
}

func TestGetVehiclesStoreFailure(t *testing.T) {
	store := new(mockStore)
	repo := NewWithStore(store, media.NewLocalUploader(), nil, testDealer)

	store.On("List", mock.Anything, testDealer, mock.Anything).Return(nil, errors.New("connection refused"))

	result := repo.GetVehicles(context.Background(), Filters{})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "connection refused")
	assert.NotNil(t, result.Data, "data stays an empty slice, never nil")
	assert.Equal(t, 0, result.Count)
}

func TestCreateVehicleInsertFailure(t *testing.T) {
	store := new(mockStore)
	repo := NewWithStore(store, media.NewLocalUploader(), nil, testDealer)

	store.On("Insert", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	result := repo.CreateVehicle(context.Background(), map[string]any{
		"make": "Toyota", "model": "Camry", "year": 2022,
	}, MediaUpload{})

	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "disk full")
}

// ---------------------------------------------------------------------------
// Demo seeding
// ---------------------------------------------------------------------------

func TestInitializeDemoVehicles(t *testing.T) {
	repo, _, bus := newTestRepository(t)
	ctx := context.Background()

	var events []eventbus.Event
	bus.Subscribe(func(e eventbus.Event) { events = append(events, e) })

	result := repo.InitializeDemoVehicles(ctx)
	require.True(t, result.Success)
	assert.Equal(t, len(demoVehicles), result.Created)
	assert.False(t, result.Skipped)

	listed := repo.GetVehicles(ctx, Filters{})
	assert.Equal(t, len(demoVehicles), listed.Count)

	require.Len(t, events, 1)
	assert.Equal(t, eventbus.ActionRefresh, events[0].Action)

	again := repo.InitializeDemoVehicles(ctx)
	require.True(t, again.Success)
	assert.True(t, again.Skipped)
	assert.Equal(t, 0, again.Created)
	assert.Len(t, events, 1, "idempotent rerun emits nothing")
}
