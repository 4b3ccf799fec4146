package inventory

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/motorlot/inventory/pkg/logger"
)

// Availability labels derived from the stored isAvailable flag.
const (
	StatusAvailable = "Available"
	StatusSold      = "Sold"
	StatusPending   = "Pending"
)

// mutableFields are the canonical input keys a caller may set on a
// vehicle. Identity and timestamp fields are managed by the store.
var mutableFields = map[string]bool{
	"make":          true,
	"model":         true,
	"year":          true,
	"price":         true,
	"mileage":       true,
	"transmission":  true,
	"engine":        true,
	"vin":           true,
	"description":   true,
	"features":      true,
	"bodyStyle":     true,
	"fuelType":      true,
	"exteriorColor": true,
	"interiorColor": true,
	"isAvailable":   true,
	"isFeatured":    true,
}

// storeManagedFields are supported columns whose values the store
// assigns; they pass through the mapper without a warning but are
// never applied from caller input.
var storeManagedFields = map[string]bool{
	"dealerId":  true,
	"createdAt": true,
	"updatedAt": true,
}

// aliasTable maps legacy input keys onto canonical fields. Aliases are
// applied after canonical keys, in declaration order, so a later alias
// overrides an earlier one targeting the same field.
var aliasTable = []struct {
	alias     string
	canonical string
}{
	{"bodyType", "bodyStyle"},
	{"color", "exteriorColor"},
}

// Mapper translates between caller-facing vehicle maps and the
// storage-shaped record the stores persist.
type Mapper struct{}

// NewMapper returns the schema mapper.
func NewMapper() *Mapper {
	return &Mapper{}
}

// ToStorage normalizes a caller-supplied vehicle map into a record of
// canonical mutable fields. Unknown keys are dropped with a warning,
// never an error.
func (m *Mapper) ToStorage(input map[string]any) map[string]any {
	record := make(map[string]any, len(input))
	var dropped []string

	for key, value := range input {
		if mutableFields[key] || storeManagedFields[key] {
			record[key] = value
		}
	}

	if status, ok := input["status"].(string); ok {
		record["isAvailable"] = status == StatusAvailable
	}

	for _, entry := range aliasTable {
		if value, ok := input[entry.alias]; ok {
			record[entry.canonical] = value
		}
	}

	for key := range input {
		if mutableFields[key] || storeManagedFields[key] || key == "status" || isAlias(key) {
			continue
		}
		dropped = append(dropped, key)
	}

	if len(dropped) > 0 {
		sort.Strings(dropped)
		logger.Warn("dropping unsupported vehicle fields",
			zap.String("fields", strings.Join(dropped, ",")),
		)
	}

	return record
}

// FromStorage renders a stored vehicle as the caller-facing map,
// including the derived status label and legacy alias keys.
func (m *Mapper) FromStorage(v Vehicle) map[string]any {
	status := StatusSold
	if v.IsAvailable {
		status = StatusAvailable
	}

	images := make([]map[string]any, len(v.Images))
	for i, img := range v.Images {
		images[i] = map[string]any{
			"storageId":    img.StorageID,
			"url":          img.URL,
			"isPrimary":    img.IsPrimary,
			"displayOrder": img.DisplayOrder,
		}
	}

	videos := make([]map[string]any, len(v.Videos))
	for i, vid := range v.Videos {
		videos[i] = map[string]any{
			"storageId":    vid.StorageID,
			"url":          vid.URL,
			"displayOrder": vid.DisplayOrder,
		}
	}

	view := map[string]any{
		"id":            v.ID,
		"dealerId":      v.DealerID,
		"make":          v.Make,
		"model":         v.Model,
		"year":          v.Year,
		"price":         v.Price,
		"mileage":       v.Mileage,
		"transmission":  v.Transmission,
		"engine":        v.Engine,
		"vin":           v.VIN,
		"description":   v.Description,
		"features":      append([]string(nil), v.Features...),
		"bodyStyle":     v.BodyStyle,
		"fuelType":      v.FuelType,
		"exteriorColor": v.ExteriorColor,
		"interiorColor": v.InteriorColor,
		"isAvailable":   v.IsAvailable,
		"isFeatured":    v.IsFeatured,
		"status":        status,
		"createdAt":     v.CreatedAt,
		"updatedAt":     v.UpdatedAt,
		"images":        images,
		"videos":        videos,
	}

	// Legacy alias keys mirror their canonical fields on the way out.
	view["bodyType"] = v.BodyStyle
	view["color"] = v.ExteriorColor

	return view
}

func isAlias(key string) bool {
	for _, entry := range aliasTable {
		if entry.alias == key {
			return true
		}
	}
	return false
}

// applyRecord copies a normalized record onto a vehicle, coercing the
// loose numeric and slice types JSON decoding produces.
func applyRecord(v *Vehicle, record map[string]any) {
	for key, value := range record {
		switch key {
		case "make":
			v.Make = asString(value)
		case "model":
			v.Model = asString(value)
		case "year":
			v.Year = asInt(value)
		case "price":
			v.Price = asFloat(value)
		case "mileage":
			v.Mileage = asInt(value)
		case "transmission":
			v.Transmission = asString(value)
		case "engine":
			v.Engine = asString(value)
		case "vin":
			v.VIN = asString(value)
		case "description":
			v.Description = asString(value)
		case "features":
			v.Features = asStringSlice(value)
		case "bodyStyle":
			v.BodyStyle = asString(value)
		case "fuelType":
			v.FuelType = asString(value)
		case "exteriorColor":
			v.ExteriorColor = asString(value)
		case "interiorColor":
			v.InteriorColor = asString(value)
		case "isAvailable":
			v.IsAvailable = asBool(value)
		case "isFeatured":
			v.IsFeatured = asBool(value)
		}
	}
}

func asString(value any) string {
	s, _ := value.(string)
	return s
}

func asInt(value any) int {
	switch n := value.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func asFloat(value any) float64 {
	switch n := value.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

func asBool(value any) bool {
	b, _ := value.(bool)
	return b
}

func asStringSlice(value any) []string {
	switch list := value.(type) {
	case []string:
		return append([]string(nil), list...)
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
