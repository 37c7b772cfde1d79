// Package telemetry reports unexpected command failures to Sentry.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

const flushTimeout = 2 * time.Second

// Options configures the Sentry client.
type Options struct {
	DSN         string
	Environment string
	Release     string
}

// Reporter sends errors to Sentry on its own hub. A nil *Reporter is valid
// and drops everything, which is what an empty DSN yields.
type Reporter struct {
	hub    *sentry.Hub
	logger *zap.Logger
}

// New returns a reporter, or nil when opts.DSN is empty.
func New(opts Options, logger *zap.Logger) (*Reporter, error) {
	if opts.DSN == "" {
		return nil, nil
	}
	return newReporter(sentry.ClientOptions{
		Dsn:         opts.DSN,
		Environment: opts.Environment,
		Release:     opts.Release,
	}, logger)
}

func newReporter(opts sentry.ClientOptions, logger *zap.Logger) (*Reporter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client, err := sentry.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("creating sentry client: %w", err)
	}
	return &Reporter{
		hub:    sentry.NewHub(client, sentry.NewScope()),
		logger: logger.Named("telemetry"),
	}, nil
}

// Report captures err with tags attached to the event.
func (r *Reporter) Report(_ context.Context, err error, tags map[string]string) {
	if r == nil || err == nil {
		return
	}
	r.hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		if id := r.hub.CaptureException(err); id != nil {
			r.logger.Debug("error reported", zap.String("event_id", string(*id)))
		}
	})
}

// Flush waits for buffered events to be sent.
func (r *Reporter) Flush() {
	if r == nil {
		return
	}
	if !r.hub.Flush(flushTimeout) {
		r.logger.Warn("sentry flush timed out")
	}
}
