// Package inventory implements the vehicle data-access layer: schema
// mapping, filtering, media handling and the repository itself.
package inventory

import (
	"time"

	"github.com/motorlot/inventory/internal/media"
)

// Vehicle is the storage-shaped record for a listed vehicle.
type Vehicle struct {
	ID            string         `db:"id" json:"id"`
	DealerID      string         `db:"dealer_id" json:"dealerId"`
	Make          string         `db:"make" json:"make" validate:"required"`
	Model         string         `db:"model" json:"model" validate:"required"`
	Year          int            `db:"year" json:"year" validate:"vehicle_year"`
	Price         float64        `db:"price" json:"price" validate:"min=0"`
	Mileage       int            `db:"mileage" json:"mileage" validate:"min=0"`
	Transmission  string         `db:"transmission" json:"transmission"`
	Engine        string         `db:"engine" json:"engine"`
	VIN           string         `db:"vin" json:"vin" validate:"vin"`
	Description   string         `db:"description" json:"description"`
	Features      []string       `db:"features" json:"features"`
	BodyStyle     string         `db:"body_style" json:"bodyStyle"`
	FuelType      string         `db:"fuel_type" json:"fuelType"`
	ExteriorColor string         `db:"exterior_color" json:"exteriorColor"`
	InteriorColor string         `db:"interior_color" json:"interiorColor"`
	IsAvailable   bool           `db:"is_available" json:"isAvailable"`
	IsFeatured    bool           `db:"is_featured" json:"isFeatured"`
	CreatedAt     time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updatedAt"`
	Images        []VehicleImage `db:"-" json:"images"`
	Videos        []VehicleVideo `db:"-" json:"videos"`
}

// VehicleImage is one stored image attached to a vehicle.
type VehicleImage struct {
	StorageID    string `db:"storage_id" json:"storageId"`
	URL          string `db:"url" json:"url"`
	IsPrimary    bool   `db:"is_primary" json:"isPrimary"`
	DisplayOrder int    `db:"display_order" json:"displayOrder"`
}

// VehicleVideo is one stored video attached to a vehicle.
type VehicleVideo struct {
	StorageID    string `db:"storage_id" json:"storageId"`
	URL          string `db:"url" json:"url"`
	DisplayOrder int    `db:"display_order" json:"displayOrder"`
}

// Filters narrows a vehicle listing. Nil fields are ignored; all set
// fields must match. String matches are case-insensitive substring
// matches, with wildcard characters treated literally. A vehicle with
// the matched field empty is skipped by that predicate rather than
// excluded.
type Filters struct {
	Make         *string  `json:"make,omitempty"`
	Model        *string  `json:"model,omitempty"`
	Color        *string  `json:"color,omitempty"`
	Transmission *string  `json:"transmission,omitempty"`
	FuelType     *string  `json:"fuelType,omitempty"`
	BodyStyle    *string  `json:"bodyStyle,omitempty"`
	MinPrice     *float64 `json:"minPrice,omitempty" validate:"omitempty,min=0"`
	MaxPrice     *float64 `json:"maxPrice,omitempty" validate:"omitempty,min=0"`
	MinMileage   *int     `json:"minMileage,omitempty" validate:"omitempty,min=0"`
	MaxMileage   *int     `json:"maxMileage,omitempty" validate:"omitempty,min=0"`
	MinYear      *int     `json:"minYear,omitempty" validate:"omitempty,min=1900"`
	MaxYear      *int     `json:"maxYear,omitempty" validate:"omitempty,min=1900"`
	IsAvailable  *bool    `json:"isAvailable,omitempty"`
	IsFeatured   *bool    `json:"isFeatured,omitempty"`
	Search       *string  `json:"search,omitempty"`
}

// MediaUpload carries new media for a create or update call.
type MediaUpload struct {
	Images []media.File
	Videos []media.File
}

// MediaRemoval names media to detach and delete during an update.
type MediaRemoval struct {
	ImageStorageIDs []string
	VideoStorageIDs []string
}

// ListResult is the envelope for list queries.
type ListResult struct {
	Success bool             `json:"success"`
	Data    []map[string]any `json:"data"`
	Count   int              `json:"count"`
	Error   string           `json:"error,omitempty"`
}

// GetResult is the envelope for single-vehicle reads.
type GetResult struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// MutationResult is the envelope for create and update calls.
type MutationResult struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// DeleteResult is the envelope for single deletions.
type DeleteResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// BulkDeleteResult reports per-vehicle outcomes of a bulk deletion.
type BulkDeleteResult struct {
	Success bool     `json:"success"`
	Deleted int      `json:"deleted"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// SeedResult reports the outcome of demo-data initialization.
type SeedResult struct {
	Success bool   `json:"success"`
	Created int    `json:"created"`
	Skipped bool   `json:"skipped"`
	Error   string `json:"error,omitempty"`
}
