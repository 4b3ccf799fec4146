// Package errors wires optional Sentry reporting for failures surfaced at
// the repository boundary. When no DSN is configured every call is a no-op,
// so callers never need to branch on whether reporting is enabled.
package errors

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/motorlot/inventory/pkg/config"
)

var enabled bool

// InitSentry initializes the Sentry SDK. Returns without error when the DSN
// is empty; reporting simply stays disabled.
func InitSentry(cfg *config.SentryConfig, serviceName string) error {
	if cfg == nil || cfg.DSN == "" {
		return nil
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		SampleRate:       cfg.SampleRate,
		ServerName:       serviceName,
		AttachStacktrace: true,
	})
	if err != nil {
		return fmt.Errorf("init sentry: %w", err)
	}

	enabled = true
	return nil
}

// CaptureError reports an error with optional key/value tags.
func CaptureError(err error, tags map[string]string) {
	if !enabled || err == nil {
		return
	}

	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureException(err)
	})
}

// Flush waits for buffered events to be delivered before shutdown.
func Flush(timeout time.Duration) {
	if !enabled {
		return
	}
	sentry.Flush(timeout)
}
