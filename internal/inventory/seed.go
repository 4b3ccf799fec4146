package inventory

import (
	"context"

	"go.uber.org/zap"

	"github.com/motorlot/inventory/pkg/eventbus"
	"github.com/motorlot/inventory/pkg/logger"
	"github.com/motorlot/inventory/pkg/metrics"
)

// demoVehicles is the starter inventory for fresh mock-mode or demo
// deployments.
var demoVehicles = []Vehicle{
	{
		Make: "Toyota", Model: "Camry", Year: 2022, Price: 28500, Mileage: 15200,
		Transmission: "Automatic", Engine: "2.5L I4", Description: "One-owner sedan with a clean history report.",
		Features: []string{"Backup Camera", "Bluetooth", "Lane Assist"},
		BodyStyle: "Sedan", FuelType: "Gasoline", ExteriorColor: "Silver", InteriorColor: "Black",
		IsAvailable: true, IsFeatured: true,
	},
	{
		Make: "Honda", Model: "CR-V", Year: 2021, Price: 31900, Mileage: 22400,
		Transmission: "CVT", Engine: "1.5L Turbo I4", Description: "All-wheel drive compact SUV, dealer maintained.",
		Features: []string{"AWD", "Heated Seats", "Apple CarPlay"},
		BodyStyle: "SUV", FuelType: "Gasoline", ExteriorColor: "Blue", InteriorColor: "Gray",
		IsAvailable: true,
	},
	{
		Make: "Ford", Model: "F-150", Year: 2020, Price: 38750, Mileage: 41000,
		Transmission: "Automatic", Engine: "3.5L EcoBoost V6", Description: "Crew cab with towing package.",
		Features: []string{"Tow Package", "Bed Liner", "Remote Start"},
		BodyStyle: "Truck", FuelType: "Gasoline", ExteriorColor: "Black", InteriorColor: "Black",
		IsAvailable: true,
	},
	{
		Make: "Tesla", Model: "Model 3", Year: 2023, Price: 42200, Mileage: 8100,
		Transmission: "Automatic", Engine: "Electric", Description: "Long range battery, single owner.",
		Features: []string{"Autopilot", "Glass Roof", "Supercharging"},
		BodyStyle: "Sedan", FuelType: "Electric", ExteriorColor: "White", InteriorColor: "White",
		IsAvailable: true, IsFeatured: true,
	},
	{
		Make: "Chevrolet", Model: "Equinox", Year: 2019, Price: 19400, Mileage: 56300,
		Transmission: "Automatic", Engine: "1.5L Turbo I4", Description: "Budget-friendly SUV, recently serviced.",
		Features: []string{"Backup Camera", "Keyless Entry"},
		BodyStyle: "SUV", FuelType: "Gasoline", ExteriorColor: "Red", InteriorColor: "Gray",
		IsAvailable: false,
	},
}

// InitializeDemoVehicles seeds the dealer's inventory with demo data.
// It is idempotent: a dealer that already has vehicles is left alone.
func (r *Repository) InitializeDemoVehicles(ctx context.Context) SeedResult {
	count, err := r.store.CountByDealer(ctx, r.dealerID)
	if err != nil {
		return SeedResult{Success: false, Error: r.fail("count vehicles for seeding", err)}
	}
	if count > 0 {
		return SeedResult{Success: true, Skipped: true}
	}

	created := 0
	for _, demo := range demoVehicles {
		v := demo
		v.DealerID = r.dealerID
		if err := r.store.Insert(ctx, &v); err != nil {
			return SeedResult{Success: false, Created: created, Error: r.fail("seed vehicle", err)}
		}
		created++
	}

	logger.Info("seeded demo inventory",
		zap.String("dealerId", r.dealerID),
		zap.Int("created", created),
	)
	metrics.RecordMutation(string(eventbus.ActionRefresh), "success")
	r.bus.Emit(eventbus.ActionRefresh, "", r.dealerID)
	return SeedResult{Success: true, Created: created}
}
