package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/motorlot/inventory/pkg/logger"
)

// fileSchemaVersion is bumped whenever the persisted shape changes. A
// mismatched file is discarded and regenerated rather than migrated.
const fileSchemaVersion = 1

type storeFile struct {
	Version  int       `json:"version"`
	Vehicles []Vehicle `json:"vehicles"`
}

// FileStore is the mock-mode store: an in-memory slice persisted
// wholesale to a JSON file after every mutation. Listing preserves
// insertion order.
type FileStore struct {
	mu       sync.Mutex
	path     string
	vehicles []Vehicle
}

// NewFileStore loads (or initializes) the store at path. An empty path
// keeps the store memory-only.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store file: %w", err)
	}

	var contents storeFile
	if err := json.Unmarshal(data, &contents); err != nil || contents.Version != fileSchemaVersion {
		logger.Warn("discarding incompatible store file",
			zap.String("path", path),
			zap.Int("version", contents.Version),
		)
		return s, nil
	}

	s.vehicles = contents.Vehicles
	return s, nil
}

// persist writes the store wholesale via a temp file and rename. The
// caller must hold the mutex.
func (s *FileStore) persist() error {
	if s.path == "" {
		return nil
	}

	data, err := json.MarshalIndent(storeFile{Version: fileSchemaVersion, Vehicles: s.vehicles}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store file: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".vehicles-*.json")
	if err != nil {
		return fmt.Errorf("create temp store file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close store file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace store file: %w", err)
	}
	return nil
}

func (s *FileStore) indexOf(dealerID, vehicleID string) int {
	for i, v := range s.vehicles {
		if v.ID == vehicleID && v.DealerID == dealerID {
			return i
		}
	}
	return -1
}

func (s *FileStore) List(_ context.Context, dealerID string, filters Filters) ([]Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owned := make([]Vehicle, 0, len(s.vehicles))
	for _, v := range s.vehicles {
		if v.DealerID == dealerID {
			owned = append(owned, cloneVehicle(v))
		}
	}
	return ApplyFilters(owned, filters), nil
}

func (s *FileStore) Get(_ context.Context, dealerID, vehicleID string) (Vehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(dealerID, vehicleID); i >= 0 {
		return cloneVehicle(s.vehicles[i]), nil
	}
	return Vehicle{}, ErrNotFound
}

func (s *FileStore) Insert(_ context.Context, v *Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	v.ID = uuid.New().String()
	v.CreatedAt = now
	v.UpdatedAt = now

	s.vehicles = append(s.vehicles, cloneVehicle(*v))
	return s.persist()
}

func (s *FileStore) Update(_ context.Context, v *Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(v.DealerID, v.ID)
	if i < 0 {
		return ErrNotFound
	}

	v.CreatedAt = s.vehicles[i].CreatedAt
	v.UpdatedAt = time.Now().UTC()
	// Media is managed through the media operations, not Update.
	v.Images = s.vehicles[i].Images
	v.Videos = s.vehicles[i].Videos

	s.vehicles[i] = cloneVehicle(*v)
	return s.persist()
}

func (s *FileStore) Delete(_ context.Context, dealerID, vehicleID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(dealerID, vehicleID)
	if i < 0 {
		return ErrNotFound
	}

	s.vehicles = append(s.vehicles[:i], s.vehicles[i+1:]...)
	return s.persist()
}

func (s *FileStore) CountByDealer(_ context.Context, dealerID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, v := range s.vehicles {
		if v.DealerID == dealerID {
			count++
		}
	}
	return count, nil
}

func (s *FileStore) AddImages(_ context.Context, vehicleID string, images []VehicleImage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfAny(vehicleID)
	if i < 0 {
		return ErrNotFound
	}
	s.vehicles[i].Images = append(s.vehicles[i].Images, images...)
	return s.persist()
}

func (s *FileStore) AddVideos(_ context.Context, vehicleID string, videos []VehicleVideo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfAny(vehicleID)
	if i < 0 {
		return ErrNotFound
	}
	s.vehicles[i].Videos = append(s.vehicles[i].Videos, videos...)
	return s.persist()
}

func (s *FileStore) RemoveImages(_ context.Context, vehicleID string, storageIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfAny(vehicleID)
	if i < 0 {
		return ErrNotFound
	}

	remove := toSet(storageIDs)
	kept := s.vehicles[i].Images[:0]
	for _, img := range s.vehicles[i].Images {
		if !remove[img.StorageID] {
			kept = append(kept, img)
		}
	}
	s.vehicles[i].Images = kept
	return s.persist()
}

func (s *FileStore) RemoveVideos(_ context.Context, vehicleID string, storageIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfAny(vehicleID)
	if i < 0 {
		return ErrNotFound
	}

	remove := toSet(storageIDs)
	kept := s.vehicles[i].Videos[:0]
	for _, vid := range s.vehicles[i].Videos {
		if !remove[vid.StorageID] {
			kept = append(kept, vid)
		}
	}
	s.vehicles[i].Videos = kept
	return s.persist()
}

func (s *FileStore) SetPrimaryImage(_ context.Context, vehicleID, storageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOfAny(vehicleID)
	if i < 0 {
		return ErrNotFound
	}

	for j := range s.vehicles[i].Images {
		s.vehicles[i].Images[j].IsPrimary = s.vehicles[i].Images[j].StorageID == storageID
	}
	return s.persist()
}

func (s *FileStore) indexOfAny(vehicleID string) int {
	for i, v := range s.vehicles {
		if v.ID == vehicleID {
			return i
		}
	}
	return -1
}

func cloneVehicle(v Vehicle) Vehicle {
	v.Features = append([]string(nil), v.Features...)
	v.Images = append([]VehicleImage(nil), v.Images...)
	v.Videos = append([]VehicleVideo(nil), v.Videos...)
	return v
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
