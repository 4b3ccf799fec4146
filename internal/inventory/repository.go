package inventory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/motorlot/inventory/internal/media"
	"github.com/motorlot/inventory/pkg/cache"
	"github.com/motorlot/inventory/pkg/common"
	"github.com/motorlot/inventory/pkg/config"
	apperrors "github.com/motorlot/inventory/pkg/errors"
	"github.com/motorlot/inventory/pkg/eventbus"
	"github.com/motorlot/inventory/pkg/logger"
	"github.com/motorlot/inventory/pkg/metrics"
	"github.com/motorlot/inventory/pkg/validation"
)

// Repository is the single entry point for vehicle inventory access.
// All methods return result envelopes; business failures are reported
// inside the envelope, never as a returned error or panic.
type Repository struct {
	store    Store
	uploader media.Uploader
	bus      *eventbus.Bus
	mapper   *Mapper
	dealerID string
}

// Deps carries the infrastructure a live-mode repository needs.
type Deps struct {
	Pool     *pgxpool.Pool
	Cache    *cache.Manager
	Uploader media.Uploader
	Bus      *eventbus.Bus
}

// New builds a repository for the configured mode. The mode is fixed
// for the lifetime of the repository; callers never switch at runtime.
func New(cfg config.InventoryConfig, deps Deps) (*Repository, error) {
	var store Store
	switch cfg.Mode {
	case config.ModeLive:
		if deps.Pool == nil {
			return nil, fmt.Errorf("live mode requires a database pool")
		}
		store = NewPostgresStore(deps.Pool, deps.Cache)
	case config.ModeMock:
		fileStore, err := NewFileStore(cfg.MockStorePath)
		if err != nil {
			return nil, fmt.Errorf("open mock store: %w", err)
		}
		store = fileStore
	default:
		return nil, fmt.Errorf("unknown inventory mode %q", cfg.Mode)
	}

	uploader := deps.Uploader
	if uploader == nil {
		uploader = media.NewLocalUploader()
	}

	return NewWithStore(store, uploader, deps.Bus, cfg.DealerID), nil
}

// NewWithStore wires a repository over an explicit store, used by
// tests and callers with bespoke storage.
func NewWithStore(store Store, uploader media.Uploader, bus *eventbus.Bus, dealerID string) *Repository {
	if bus == nil {
		bus = eventbus.New()
	}
	return &Repository{
		store:    store,
		uploader: uploader,
		bus:      bus,
		mapper:   NewMapper(),
		dealerID: dealerID,
	}
}

// OnVehicleChange registers a handler for inventory change events and
// returns its unsubscribe function.
func (r *Repository) OnVehicleChange(handler eventbus.Handler) func() {
	return r.bus.Subscribe(handler)
}

// GetVehicles lists the dealer's vehicles matching the filters.
func (r *Repository) GetVehicles(ctx context.Context, filters Filters) ListResult {
	if err := validation.ValidateStruct(filters); err != nil {
		return ListResult{Success: false, Data: []map[string]any{}, Error: common.NewValidationError(err.Error()).Message}
	}

	start := time.Now()
	vehicles, err := r.store.List(ctx, r.dealerID, filters)
	metrics.ObserveListDuration(time.Since(start).Seconds())
	if err != nil {
		return ListResult{Success: false, Data: []map[string]any{}, Error: r.fail("list vehicles", err)}
	}

	views := make([]map[string]any, len(vehicles))
	for i, v := range vehicles {
		views[i] = r.mapper.FromStorage(v)
	}
	return ListResult{Success: true, Data: views, Count: len(views)}
}

// GetVehicle fetches one vehicle by ID.
func (r *Repository) GetVehicle(ctx context.Context, vehicleID string) GetResult {
	v, err := r.store.Get(ctx, r.dealerID, vehicleID)
	if err == ErrNotFound {
		return GetResult{Success: false, Error: common.NewNotFoundError("vehicle not found", err).Message}
	}
	if err != nil {
		return GetResult{Success: false, Error: r.fail("get vehicle", err)}
	}
	return GetResult{Success: true, Data: r.mapper.FromStorage(v)}
}

// CreateVehicle inserts a new vehicle and uploads its media. Media
// uploads run concurrently; a partial upload failure does not fail the
// creation.
func (r *Repository) CreateVehicle(ctx context.Context, input map[string]any, upload MediaUpload) MutationResult {
	record := r.mapper.ToStorage(input)

	v := Vehicle{DealerID: r.dealerID, IsAvailable: true}
	applyRecord(&v, record)

	if err := validation.ValidateStruct(v); err != nil {
		metrics.RecordMutation(string(eventbus.ActionCreate), "failure")
		return MutationResult{Success: false, Error: common.NewValidationError(err.Error()).Message}
	}

	if err := r.store.Insert(ctx, &v); err != nil {
		metrics.RecordMutation(string(eventbus.ActionCreate), "failure")
		return MutationResult{Success: false, Error: r.fail("create vehicle", err)}
	}

	r.attachMedia(ctx, v.ID, upload, true, 0, 0)

	stored, err := r.store.Get(ctx, r.dealerID, v.ID)
	if err != nil {
		metrics.RecordMutation(string(eventbus.ActionCreate), "failure")
		return MutationResult{Success: false, Error: r.fail("reload created vehicle", err)}
	}

	metrics.RecordMutation(string(eventbus.ActionCreate), "success")
	r.bus.Emit(eventbus.ActionCreate, v.ID, r.dealerID)
	return MutationResult{Success: true, Data: r.mapper.FromStorage(stored)}
}

// UpdateVehicle applies field changes, removals and new media to an
// existing vehicle. Removals are processed before additions.
func (r *Repository) UpdateVehicle(ctx context.Context, vehicleID string, input map[string]any, upload MediaUpload, removal MediaRemoval) MutationResult {
	current, err := r.store.Get(ctx, r.dealerID, vehicleID)
	if err == ErrNotFound {
		metrics.RecordMutation(string(eventbus.ActionUpdate), "failure")
		return MutationResult{Success: false, Error: common.NewNotFoundError("vehicle not found", err).Message}
	}
	if err != nil {
		metrics.RecordMutation(string(eventbus.ActionUpdate), "failure")
		return MutationResult{Success: false, Error: r.fail("get vehicle", err)}
	}

	record := r.mapper.ToStorage(input)
	updated := current
	applyRecord(&updated, record)

	if err := validation.ValidateStruct(updated); err != nil {
		metrics.RecordMutation(string(eventbus.ActionUpdate), "failure")
		return MutationResult{Success: false, Error: common.NewValidationError(err.Error()).Message}
	}

	if err := r.store.Update(ctx, &updated); err != nil {
		metrics.RecordMutation(string(eventbus.ActionUpdate), "failure")
		return MutationResult{Success: false, Error: r.fail("update vehicle", err)}
	}

	primaryRemoved := r.removeMedia(ctx, current, removal)

	remainingImages := 0
	remainingVideos := 0
	removedImages := toSet(removal.ImageStorageIDs)
	removedVideos := toSet(removal.VideoStorageIDs)
	maxImageOrder := -1
	maxVideoOrder := -1
	for _, img := range current.Images {
		if !removedImages[img.StorageID] {
			remainingImages++
			if img.DisplayOrder > maxImageOrder {
				maxImageOrder = img.DisplayOrder
			}
		}
	}
	for _, vid := range current.Videos {
		if !removedVideos[vid.StorageID] {
			remainingVideos++
			if vid.DisplayOrder > maxVideoOrder {
				maxVideoOrder = vid.DisplayOrder
			}
		}
	}

	needPrimary := remainingImages == 0 || primaryRemoved
	attachedImages := r.attachMedia(ctx, vehicleID, upload, needPrimary, maxImageOrder+1, maxVideoOrder+1)

	if primaryRemoved && attachedImages == 0 && remainingImages > 0 {
		r.promotePrimary(ctx, vehicleID)
	}

	stored, err := r.store.Get(ctx, r.dealerID, vehicleID)
	if err != nil {
		metrics.RecordMutation(string(eventbus.ActionUpdate), "failure")
		return MutationResult{Success: false, Error: r.fail("reload updated vehicle", err)}
	}

	metrics.RecordMutation(string(eventbus.ActionUpdate), "success")
	r.bus.Emit(eventbus.ActionUpdate, vehicleID, r.dealerID)
	return MutationResult{Success: true, Data: r.mapper.FromStorage(stored)}
}

// DeleteVehicle removes a vehicle and best-effort deletes its stored
// media objects.
func (r *Repository) DeleteVehicle(ctx context.Context, vehicleID string) DeleteResult {
	if err := r.deleteOne(ctx, vehicleID); err != nil {
		metrics.RecordMutation(string(eventbus.ActionDelete), "failure")
		if err == ErrNotFound {
			return DeleteResult{Success: false, Error: common.NewNotFoundError("vehicle not found", err).Message}
		}
		return DeleteResult{Success: false, Error: r.fail("delete vehicle", err)}
	}

	metrics.RecordMutation(string(eventbus.ActionDelete), "success")
	r.bus.Emit(eventbus.ActionDelete, vehicleID, r.dealerID)
	return DeleteResult{Success: true}
}

// BulkDeleteVehicles deletes each listed vehicle independently and
// reports per-vehicle outcomes. One change event covers the whole
// batch.
func (r *Repository) BulkDeleteVehicles(ctx context.Context, vehicleIDs []string) BulkDeleteResult {
	result := BulkDeleteResult{}
	for _, id := range vehicleIDs {
		if err := r.deleteOne(ctx, id); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", id, err))
			continue
		}
		result.Deleted++
	}

	result.Success = result.Failed == 0
	if result.Deleted > 0 {
		metrics.RecordMutation(string(eventbus.ActionBulkDelete), "success")
		r.bus.Emit(eventbus.ActionBulkDelete, "", r.dealerID)
	}
	if result.Failed > 0 {
		metrics.RecordMutation(string(eventbus.ActionBulkDelete), "failure")
	}
	return result
}

// deleteOne best-effort deletes the vehicle's media objects, then
// removes the row. A failed object deletion never fails the call.
func (r *Repository) deleteOne(ctx context.Context, vehicleID string) error {
	v, err := r.store.Get(ctx, r.dealerID, vehicleID)
	if err != nil {
		return err
	}

	for _, img := range v.Images {
		r.deleteObject(ctx, img.StorageID)
	}
	for _, vid := range v.Videos {
		r.deleteObject(ctx, vid.StorageID)
	}

	return r.store.Delete(ctx, r.dealerID, vehicleID)
}

// attachMedia uploads all files concurrently and records the
// successful ones, returning how many images were attached. Upload
// order determines display order; when needPrimary is set, the
// successful image with the lowest input index becomes primary.
func (r *Repository) attachMedia(ctx context.Context, vehicleID string, upload MediaUpload, needPrimary bool, imageOrderBase, videoOrderBase int) int {
	images := r.uploadAll(ctx, vehicleID, media.KindImage, upload.Images)
	videos := r.uploadAll(ctx, vehicleID, media.KindVideo, upload.Videos)

	attachedImages := 0
	if len(images) > 0 {
		records := make([]VehicleImage, len(images))
		for i, outcome := range images {
			records[i] = VehicleImage{
				StorageID:    outcome.result.StorageID,
				URL:          outcome.result.URL,
				IsPrimary:    needPrimary && i == 0,
				DisplayOrder: imageOrderBase + i,
			}
		}
		if err := r.store.AddImages(ctx, vehicleID, records); err != nil {
			r.fail("attach images", err)
		} else {
			attachedImages = len(records)
		}
	}

	if len(videos) > 0 {
		records := make([]VehicleVideo, len(videos))
		for i, outcome := range videos {
			records[i] = VehicleVideo{
				StorageID:    outcome.result.StorageID,
				URL:          outcome.result.URL,
				DisplayOrder: videoOrderBase + i,
			}
		}
		if err := r.store.AddVideos(ctx, vehicleID, records); err != nil {
			r.fail("attach videos", err)
		}
	}
	return attachedImages
}

type uploadOutcome struct {
	index  int
	result media.UploadResult
}

// uploadAll fans the files out to concurrent uploads and collects the
// successes ordered by their input index. Failures are logged and
// counted, never propagated.
func (r *Repository) uploadAll(ctx context.Context, vehicleID string, kind media.Kind, files []media.File) []uploadOutcome {
	if len(files) == 0 {
		return nil
	}

	results := make(chan uploadOutcome, len(files))
	var wg sync.WaitGroup
	for i, file := range files {
		wg.Add(1)
		go func(index int, file media.File) {
			defer wg.Done()
			result, err := r.uploader.Upload(ctx, r.dealerID, vehicleID, kind, file)
			if err != nil {
				metrics.RecordMediaUploadFailure(string(kind))
				apperrors.CaptureError(err, map[string]string{"vehicleId": vehicleID, "kind": string(kind)})
				logger.Warn("media upload failed",
					zap.String("vehicleId", vehicleID),
					zap.String("file", file.Name),
					zap.Error(err),
				)
				return
			}
			results <- uploadOutcome{index: index, result: result}
		}(i, file)
	}
	wg.Wait()
	close(results)

	var outcomes []uploadOutcome
	for outcome := range results {
		outcomes = append(outcomes, outcome)
	}
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].index < outcomes[j].index })
	return outcomes
}

// removeMedia detaches the named media and best-effort deletes the
// objects. It reports whether the primary image was removed.
func (r *Repository) removeMedia(ctx context.Context, v Vehicle, removal MediaRemoval) bool {
	primaryRemoved := false
	removed := toSet(removal.ImageStorageIDs)
	for _, img := range v.Images {
		if removed[img.StorageID] && img.IsPrimary {
			primaryRemoved = true
		}
	}

	if len(removal.ImageStorageIDs) > 0 {
		if err := r.store.RemoveImages(ctx, v.ID, removal.ImageStorageIDs); err != nil {
			r.fail("remove images", err)
		} else {
			for _, id := range removal.ImageStorageIDs {
				r.deleteObject(ctx, id)
			}
		}
	}
	if len(removal.VideoStorageIDs) > 0 {
		if err := r.store.RemoveVideos(ctx, v.ID, removal.VideoStorageIDs); err != nil {
			r.fail("remove videos", err)
		} else {
			for _, id := range removal.VideoStorageIDs {
				r.deleteObject(ctx, id)
			}
		}
	}
	return primaryRemoved
}

// promotePrimary marks the first remaining image primary after the
// previous primary was removed.
func (r *Repository) promotePrimary(ctx context.Context, vehicleID string) {
	v, err := r.store.Get(ctx, r.dealerID, vehicleID)
	if err != nil || len(v.Images) == 0 {
		return
	}

	first := v.Images[0]
	for _, img := range v.Images[1:] {
		if img.DisplayOrder < first.DisplayOrder {
			first = img
		}
	}
	if err := r.store.SetPrimaryImage(ctx, vehicleID, first.StorageID); err != nil {
		r.fail("promote primary image", err)
	}
}

// deleteObject removes a stored media object, tolerating failure.
func (r *Repository) deleteObject(ctx context.Context, storageID string) {
	if err := r.uploader.Delete(ctx, storageID); err != nil {
		metrics.RecordMediaDeleteFailure()
		logger.Warn("media delete failed",
			zap.String("storageId", storageID),
			zap.Error(err),
		)
	}
}

// fail classifies and reports an infrastructure error and returns the
// message placed in result envelopes.
func (r *Repository) fail(operation string, err error) string {
	appErr := common.NewInternalError(operation+" failed", err)
	apperrors.CaptureError(appErr, map[string]string{"operation": operation, "dealerId": r.dealerID})
	logger.Error(operation+" failed",
		zap.String("dealerId", r.dealerID),
		zap.Error(err),
	)
	return fmt.Sprintf("%s: %v", operation, err)
}
