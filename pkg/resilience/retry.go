package resilience

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/motorlot/inventory/pkg/logger"
)

// RetryConfig controls exponential backoff behaviour.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	JitterFactor float64
}

// DefaultRetryConfig returns conservative retry defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.2,
	}
}

// Retry executes operation with exponential backoff and jitter.
func Retry(ctx context.Context, name string, cfg RetryConfig, operation Operation) (interface{}, error) {
	if operation == nil {
		return nil, errors.New("operation cannot be nil")
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		result, err := operation(ctx)
		if err == nil {
			if attempt > 1 {
				recordRetrySuccess(name)
			}
			return result, nil
		}

		lastErr = err
		if !shouldRetry(err) || attempt == cfg.MaxAttempts {
			break
		}

		recordRetryAttempt(name)
		delay := backoffDelay(cfg, attempt)
		logger.Warn("retrying operation",
			zap.String("operation", name),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("operation %s failed after %d attempts: %w", name, cfg.MaxAttempts, lastErr)
}

// RetryWithBreaker combines retries with a circuit breaker.
func RetryWithBreaker(ctx context.Context, name string, cfg RetryConfig, breaker *CircuitBreaker, operation Operation) (interface{}, error) {
	return Retry(ctx, name, cfg, func(ctx context.Context) (interface{}, error) {
		return breaker.Execute(ctx, operation)
	})
}

func backoffDelay(cfg RetryConfig, attempt int) time.Duration {
	delay := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt-1))
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	if cfg.JitterFactor > 0 {
		jitter := delay * cfg.JitterFactor * (rand.Float64()*2 - 1)
		delay += jitter
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

func shouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	// An open breaker will not recover within a retry window.
	if errors.Is(err, ErrCircuitOpen) {
		return false
	}
	return true
}
