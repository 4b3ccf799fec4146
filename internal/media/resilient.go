package media

import (
	"context"
	"time"

	"github.com/motorlot/inventory/pkg/resilience"
)

// ResilientUploader wraps another uploader with retries and a circuit
// breaker so a flaky object store does not fail every mutation.
type ResilientUploader struct {
	inner   Uploader
	breaker *resilience.CircuitBreaker
	retry   resilience.RetryConfig
}

// NewResilientUploader wraps inner with default retry and breaker settings.
func NewResilientUploader(inner Uploader) *ResilientUploader {
	breaker := resilience.NewCircuitBreaker(resilience.Settings{
		Name:             "media-storage",
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}, nil)

	return &ResilientUploader{
		inner:   inner,
		breaker: breaker,
		retry:   resilience.DefaultRetryConfig(),
	}
}

func (u *ResilientUploader) Upload(ctx context.Context, dealerID, vehicleID string, kind Kind, file File) (UploadResult, error) {
	result, err := resilience.RetryWithBreaker(ctx, "media-upload", u.retry, u.breaker, func(ctx context.Context) (interface{}, error) {
		return u.inner.Upload(ctx, dealerID, vehicleID, kind, file)
	})
	if err != nil {
		return UploadResult{}, err
	}
	return result.(UploadResult), nil
}

// Delete goes through the breaker but is not retried; deletions are
// best-effort and callers tolerate failure.
func (u *ResilientUploader) Delete(ctx context.Context, storageID string) error {
	_, err := u.breaker.Execute(ctx, func(ctx context.Context) (interface{}, error) {
		return nil, u.inner.Delete(ctx, storageID)
	})
	return err
}
