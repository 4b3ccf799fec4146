package inventory

import (
	"strconv"
	"strings"
)

// ApplyFilters returns the vehicles matching every set field of f.
// It never mutates its input and treats an empty filter as match-all.
func ApplyFilters(vehicles []Vehicle, f Filters) []Vehicle {
	matched := make([]Vehicle, 0, len(vehicles))
	for _, v := range vehicles {
		if matchesFilters(v, f) {
			matched = append(matched, v)
		}
	}
	return matched
}

func matchesFilters(v Vehicle, f Filters) bool {
	if !matchSubstring(v.Make, f.Make) {
		return false
	}
	if !matchSubstring(v.Model, f.Model) {
		return false
	}
	if !matchSubstring(v.ExteriorColor, f.Color) {
		return false
	}
	if !matchSubstring(v.Transmission, f.Transmission) {
		return false
	}
	if !matchSubstring(v.FuelType, f.FuelType) {
		return false
	}
	if !matchSubstring(v.BodyStyle, f.BodyStyle) {
		return false
	}
	if f.MinPrice != nil && v.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && v.Price > *f.MaxPrice {
		return false
	}
	if f.MinMileage != nil && v.Mileage < *f.MinMileage {
		return false
	}
	if f.MaxMileage != nil && v.Mileage > *f.MaxMileage {
		return false
	}
	if f.MinYear != nil && v.Year < *f.MinYear {
		return false
	}
	if f.MaxYear != nil && v.Year > *f.MaxYear {
		return false
	}
	if f.IsAvailable != nil && v.IsAvailable != *f.IsAvailable {
		return false
	}
	if f.IsFeatured != nil && v.IsFeatured != *f.IsFeatured {
		return false
	}
	if f.Search != nil && !matchesSearch(v, *f.Search) {
		return false
	}
	return true
}

// matchSubstring is a case-insensitive substring predicate. A vehicle
// with the field empty is never excluded by it.
func matchSubstring(value string, filter *string) bool {
	if filter == nil || value == "" {
		return true
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(*filter))
}

// matchesSearch does a case-insensitive substring scan over the
// human-facing text fields.
func matchesSearch(v Vehicle, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}

	haystacks := []string{
		v.Make,
		v.Model,
		strconv.Itoa(v.Year),
		v.ExteriorColor,
		v.Description,
	}
	for _, h := range haystacks {
		if strings.Contains(strings.ToLower(h), term) {
			return true
		}
	}
	return false
}
