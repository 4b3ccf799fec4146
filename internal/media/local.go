package media

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
)

// LocalUploader keeps uploads in memory. It backs the mock store mode
// and tests, producing deterministic storage IDs and URLs.
type LocalUploader struct {
	mu      sync.Mutex
	nextID  int
	objects map[string]File

	// FailNames lists file names whose upload should fail.
	FailNames map[string]bool
	// FailDeletes makes every Delete call return an error.
	FailDeletes bool
}

// NewLocalUploader returns an empty in-memory uploader.
func NewLocalUploader() *LocalUploader {
	return &LocalUploader{
		objects:   make(map[string]File),
		FailNames: make(map[string]bool),
	}
}

func (u *LocalUploader) Upload(_ context.Context, dealerID, vehicleID string, kind Kind, file File) (UploadResult, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.FailNames[file.Name] {
		return UploadResult{}, fmt.Errorf("upload %s: simulated failure", file.Name)
	}
	if len(file.Data) == 0 {
		return UploadResult{}, fmt.Errorf("upload %s for vehicle %s: empty file", kind, vehicleID)
	}

	u.nextID++
	ext := strings.ToLower(path.Ext(file.Name))
	key := fmt.Sprintf("vehicles/%s/%s/%ss/local-%d%s", dealerID, vehicleID, kind, u.nextID, ext)
	u.objects[key] = file

	return UploadResult{
		StorageID: key,
		URL:       "memory://" + key,
	}, nil
}

func (u *LocalUploader) Delete(_ context.Context, storageID string) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.FailDeletes {
		return fmt.Errorf("delete %s: simulated failure", storageID)
	}
	delete(u.objects, storageID)
	return nil
}

// Stored reports whether an object with the given ID is currently held.
func (u *LocalUploader) Stored(storageID string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	_, ok := u.objects[storageID]
	return ok
}

// Count returns the number of stored objects.
func (u *LocalUploader) Count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.objects)
}
