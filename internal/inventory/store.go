package inventory

import (
	"context"
	"errors"
)

// ErrNotFound is returned by stores when a vehicle does not exist for
// the given dealer.
var ErrNotFound = errors.New("vehicle not found")

// Store persists vehicles and their media references. Both the
// Postgres-backed and the file-backed implementations satisfy it, and
// the repository never knows which one it holds.
//
// Insert assigns the vehicle's ID and timestamps; Update refreshes
// UpdatedAt. All operations are dealer-scoped.
type Store interface {
	List(ctx context.Context, dealerID string, filters Filters) ([]Vehicle, error)
	Get(ctx context.Context, dealerID, vehicleID string) (Vehicle, error)
	Insert(ctx context.Context, v *Vehicle) error
	Update(ctx context.Context, v *Vehicle) error
	Delete(ctx context.Context, dealerID, vehicleID string) error
	CountByDealer(ctx context.Context, dealerID string) (int, error)

	AddImages(ctx context.Context, vehicleID string, images []VehicleImage) error
	AddVideos(ctx context.Context, vehicleID string, videos []VehicleVideo) error
	RemoveImages(ctx context.Context, vehicleID string, storageIDs []string) error
	RemoveVideos(ctx context.Context, vehicleID string, storageIDs []string) error
	SetPrimaryImage(ctx context.Context, vehicleID, storageID string) error
}
