package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/motorlot/inventory/pkg/cache"
	"github.com/motorlot/inventory/pkg/logger"
)

const vehicleColumns = `id, dealer_id, make, model, year, price, mileage, transmission, engine,
	vin, description, features, body_style, fuel_type, exterior_color, interior_color,
	is_available, is_featured, created_at, updated_at`

const vehicleCacheTTL = 5 * time.Minute

// PostgresStore persists vehicles in Postgres via pgxpool. An optional
// cache manager memoizes single-vehicle reads.
type PostgresStore struct {
	pool  *pgxpool.Pool
	cache *cache.Manager
}

// NewPostgresStore wraps a connection pool. cacheManager may be nil.
func NewPostgresStore(pool *pgxpool.Pool, cacheManager *cache.Manager) *PostgresStore {
	return &PostgresStore{pool: pool, cache: cacheManager}
}

func vehicleCacheKey(dealerID, vehicleID string) string {
	return fmt.Sprintf("vehicle:%s:%s", dealerID, vehicleID)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds an ILIKE substring pattern, treating the term's
// wildcard characters as literals.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

func (s *PostgresStore) List(ctx context.Context, dealerID string, filters Filters) ([]Vehicle, error) {
	query := fmt.Sprintf("SELECT %s FROM vehicles WHERE dealer_id = $1", vehicleColumns)
	args := []any{dealerID}

	addClause := func(clause string, value any) {
		args = append(args, value)
		query += fmt.Sprintf(" AND %s $%d", clause, len(args))
	}
	// Case-insensitive substring match; rows with the column empty pass,
	// mirroring the in-memory predicate.
	addTextMatch := func(column string, value string) {
		args = append(args, likePattern(value))
		query += fmt.Sprintf(" AND (%s = '' OR %s ILIKE $%d)", column, column, len(args))
	}

	if filters.Make != nil {
		addTextMatch("make", *filters.Make)
	}
	if filters.Model != nil {
		addTextMatch("model", *filters.Model)
	}
	if filters.Color != nil {
		addTextMatch("exterior_color", *filters.Color)
	}
	if filters.Transmission != nil {
		addTextMatch("transmission", *filters.Transmission)
	}
	if filters.FuelType != nil {
		addTextMatch("fuel_type", *filters.FuelType)
	}
	if filters.BodyStyle != nil {
		addTextMatch("body_style", *filters.BodyStyle)
	}
	if filters.MinPrice != nil {
		addClause("price >=", *filters.MinPrice)
	}
	if filters.MaxPrice != nil {
		addClause("price <=", *filters.MaxPrice)
	}
	if filters.MinMileage != nil {
		addClause("mileage >=", *filters.MinMileage)
	}
	if filters.MaxMileage != nil {
		addClause("mileage <=", *filters.MaxMileage)
	}
	if filters.MinYear != nil {
		addClause("year >=", *filters.MinYear)
	}
	if filters.MaxYear != nil {
		addClause("year <=", *filters.MaxYear)
	}
	if filters.IsAvailable != nil {
		addClause("is_available =", *filters.IsAvailable)
	}
	if filters.IsFeatured != nil {
		addClause("is_featured =", *filters.IsFeatured)
	}
	if filters.Search != nil && strings.TrimSpace(*filters.Search) != "" {
		args = append(args, likePattern(strings.TrimSpace(*filters.Search)))
		n := len(args)
		query += fmt.Sprintf(
			" AND (make ILIKE $%d OR model ILIKE $%d OR year::text ILIKE $%d OR exterior_color ILIKE $%d OR description ILIKE $%d)",
			n, n, n, n, n)
	}

	query += " ORDER BY created_at ASC, id ASC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}

	if err := s.loadMedia(ctx, vehicles); err != nil {
		return nil, err
	}
	return vehicles, nil
}

func (s *PostgresStore) Get(ctx context.Context, dealerID, vehicleID string) (Vehicle, error) {
	if s.cache != nil {
		var cached Vehicle
		if err := s.cache.Get(ctx, vehicleCacheKey(dealerID, vehicleID), &cached); err == nil {
			return cached, nil
		} else if !cache.IsMiss(err) {
			logger.Warn("vehicle cache read failed", zap.Error(err))
		}
	}

	query := fmt.Sprintf("SELECT %s FROM vehicles WHERE dealer_id = $1 AND id = $2", vehicleColumns)
	row := s.pool.QueryRow(ctx, query, dealerID, vehicleID)

	v, err := scanVehicle(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Vehicle{}, ErrNotFound
	}
	if err != nil {
		return Vehicle{}, fmt.Errorf("get vehicle %s: %w", vehicleID, err)
	}

	vehicles := []Vehicle{v}
	if err := s.loadMedia(ctx, vehicles); err != nil {
		return Vehicle{}, err
	}
	v = vehicles[0]

	if s.cache != nil {
		if err := s.cache.Set(ctx, vehicleCacheKey(dealerID, vehicleID), v, vehicleCacheTTL); err != nil {
			logger.Warn("vehicle cache write failed", zap.Error(err))
		}
	}
	return v, nil
}

func (s *PostgresStore) Insert(ctx context.Context, v *Vehicle) error {
	now := time.Now().UTC()
	v.ID = uuid.New().String()
	v.CreatedAt = now
	v.UpdatedAt = now

	_, err := s.pool.Exec(ctx, `
		INSERT INTO vehicles (id, dealer_id, make, model, year, price, mileage, transmission,
			engine, vin, description, features, body_style, fuel_type, exterior_color,
			interior_color, is_available, is_featured, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		v.ID, v.DealerID, v.Make, v.Model, v.Year, v.Price, v.Mileage, v.Transmission,
		v.Engine, v.VIN, v.Description, v.Features, v.BodyStyle, v.FuelType, v.ExteriorColor,
		v.InteriorColor, v.IsAvailable, v.IsFeatured, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert vehicle: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, v *Vehicle) error {
	v.UpdatedAt = time.Now().UTC()

	tag, err := s.pool.Exec(ctx, `
		UPDATE vehicles SET make = $3, model = $4, year = $5, price = $6, mileage = $7,
			transmission = $8, engine = $9, vin = $10, description = $11, features = $12,
			body_style = $13, fuel_type = $14, exterior_color = $15, interior_color = $16,
			is_available = $17, is_featured = $18, updated_at = $19
		WHERE dealer_id = $1 AND id = $2`,
		v.DealerID, v.ID, v.Make, v.Model, v.Year, v.Price, v.Mileage,
		v.Transmission, v.Engine, v.VIN, v.Description, v.Features,
		v.BodyStyle, v.FuelType, v.ExteriorColor, v.InteriorColor,
		v.IsAvailable, v.IsFeatured, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update vehicle %s: %w", v.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	s.invalidate(ctx, v.DealerID, v.ID)
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, dealerID, vehicleID string) error {
	tag, err := s.pool.Exec(ctx,
		"DELETE FROM vehicles WHERE dealer_id = $1 AND id = $2", dealerID, vehicleID)
	if err != nil {
		return fmt.Errorf("delete vehicle %s: %w", vehicleID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	s.invalidate(ctx, dealerID, vehicleID)
	return nil
}

func (s *PostgresStore) CountByDealer(ctx context.Context, dealerID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM vehicles WHERE dealer_id = $1", dealerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count vehicles: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) AddImages(ctx context.Context, vehicleID string, images []VehicleImage) error {
	for _, img := range images {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO vehicle_images (vehicle_id, storage_id, url, is_primary, display_order)
			VALUES ($1, $2, $3, $4, $5)`,
			vehicleID, img.StorageID, img.URL, img.IsPrimary, img.DisplayOrder,
		)
		if err != nil {
			return fmt.Errorf("insert vehicle image: %w", err)
		}
	}
	s.invalidateByVehicle(ctx, vehicleID)
	return nil
}

func (s *PostgresStore) AddVideos(ctx context.Context, vehicleID string, videos []VehicleVideo) error {
	for _, vid := range videos {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO vehicle_videos (vehicle_id, storage_id, url, display_order)
			VALUES ($1, $2, $3, $4)`,
			vehicleID, vid.StorageID, vid.URL, vid.DisplayOrder,
		)
		if err != nil {
			return fmt.Errorf("insert vehicle video: %w", err)
		}
	}
	s.invalidateByVehicle(ctx, vehicleID)
	return nil
}

func (s *PostgresStore) RemoveImages(ctx context.Context, vehicleID string, storageIDs []string) error {
	if len(storageIDs) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		"DELETE FROM vehicle_images WHERE vehicle_id = $1 AND storage_id = ANY($2)",
		vehicleID, storageIDs)
	if err != nil {
		return fmt.Errorf("remove vehicle images: %w", err)
	}
	s.invalidateByVehicle(ctx, vehicleID)
	return nil
}

func (s *PostgresStore) RemoveVideos(ctx context.Context, vehicleID string, storageIDs []string) error {
	if len(storageIDs) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		"DELETE FROM vehicle_videos WHERE vehicle_id = $1 AND storage_id = ANY($2)",
		vehicleID, storageIDs)
	if err != nil {
		return fmt.Errorf("remove vehicle videos: %w", err)
	}
	s.invalidateByVehicle(ctx, vehicleID)
	return nil
}

func (s *PostgresStore) SetPrimaryImage(ctx context.Context, vehicleID, storageID string) error {
	_, err := s.pool.Exec(ctx,
		"UPDATE vehicle_images SET is_primary = (storage_id = $2) WHERE vehicle_id = $1",
		vehicleID, storageID)
	if err != nil {
		return fmt.Errorf("set primary image: %w", err)
	}
	s.invalidateByVehicle(ctx, vehicleID)
	return nil
}

// loadMedia attaches images and videos to the given vehicles in
// display order.
func (s *PostgresStore) loadMedia(ctx context.Context, vehicles []Vehicle) error {
	if len(vehicles) == 0 {
		return nil
	}

	ids := make([]string, len(vehicles))
	index := make(map[string]*Vehicle, len(vehicles))
	for i := range vehicles {
		ids[i] = vehicles[i].ID
		index[vehicles[i].ID] = &vehicles[i]
	}

	rows, err := s.pool.Query(ctx, `
		SELECT vehicle_id, storage_id, url, is_primary, display_order
		FROM vehicle_images WHERE vehicle_id = ANY($1)
		ORDER BY vehicle_id, display_order ASC`, ids)
	if err != nil {
		return fmt.Errorf("load vehicle images: %w", err)
	}
	for rows.Next() {
		var vehicleID string
		var img VehicleImage
		if err := rows.Scan(&vehicleID, &img.StorageID, &img.URL, &img.IsPrimary, &img.DisplayOrder); err != nil {
			rows.Close()
			return fmt.Errorf("scan vehicle image: %w", err)
		}
		if v := index[vehicleID]; v != nil {
			v.Images = append(v.Images, img)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load vehicle images: %w", err)
	}

	rows, err = s.pool.Query(ctx, `
		SELECT vehicle_id, storage_id, url, display_order
		FROM vehicle_videos WHERE vehicle_id = ANY($1)
		ORDER BY vehicle_id, display_order ASC`, ids)
	if err != nil {
		return fmt.Errorf("load vehicle videos: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var vehicleID string
		var vid VehicleVideo
		if err := rows.Scan(&vehicleID, &vid.StorageID, &vid.URL, &vid.DisplayOrder); err != nil {
			return fmt.Errorf("scan vehicle video: %w", err)
		}
		if v := index[vehicleID]; v != nil {
			v.Videos = append(v.Videos, vid)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load vehicle videos: %w", err)
	}
	return nil
}

func (s *PostgresStore) invalidate(ctx context.Context, dealerID, vehicleID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, vehicleCacheKey(dealerID, vehicleID)); err != nil {
		logger.Warn("vehicle cache invalidation failed", zap.Error(err))
	}
}

// invalidateByVehicle drops any cached copy regardless of dealer. Media
// tables are keyed by vehicle only, so the dealer is looked up first.
func (s *PostgresStore) invalidateByVehicle(ctx context.Context, vehicleID string) {
	if s.cache == nil {
		return
	}
	var dealerID string
	err := s.pool.QueryRow(ctx,
		"SELECT dealer_id FROM vehicles WHERE id = $1", vehicleID).Scan(&dealerID)
	if err != nil {
		return
	}
	s.invalidate(ctx, dealerID, vehicleID)
}

func scanVehicle(row pgx.Row) (Vehicle, error) {
	var v Vehicle
	err := row.Scan(
		&v.ID, &v.DealerID, &v.Make, &v.Model, &v.Year, &v.Price, &v.Mileage,
		&v.Transmission, &v.Engine, &v.VIN, &v.Description, &v.Features,
		&v.BodyStyle, &v.FuelType, &v.ExteriorColor, &v.InteriorColor,
		&v.IsAvailable, &v.IsFeatured, &v.CreatedAt, &v.UpdatedAt,
	)
	return v, err
}
