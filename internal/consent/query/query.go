// Package query answers read-only consent questions for application code.
//
// Every call reads the store; there is no cache in front of it, so an update
// saved earlier in the same request is visible immediately. Anything that
// cannot be answered from a usable record is answered "no".
package query

import (
	"context"
	"log/slog"

	"consentkit/internal/consent/metrics"
	"consentkit/internal/consent/models"
)

// RecordLoader is the read side of a consent store.
type RecordLoader interface {
	Load(ctx context.Context) *models.Record
}

// Query is the consent query API over one store.
type Query struct {
	store   RecordLoader
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Query.
type Option func(*Query)

func WithLogger(logger *slog.Logger) Option {
	return func(q *Query) {
		if logger != nil {
			q.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(q *Query) {
		q.metrics = m
	}
}

func New(store RecordLoader, opts ...Option) *Query {
	q := &Query{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(q)
		}
	}
	return q
}

// IsServiceEnabled reports whether the user permitted serviceID. It is false
// when no decision exists and for ids the record does not contain.
func (q *Query) IsServiceEnabled(ctx context.Context, serviceID string) bool {
	enabled := false
	if record := q.store.Load(ctx); record != nil {
		enabled = record.Enabled(serviceID)
	}
	q.metrics.IncrementServiceChecks(enabled)
	q.logger.DebugContext(ctx, "consent service check",
		"service_id", serviceID,
		"enabled", enabled,
	)
	return enabled
}

// HasConsent reports whether a non-expired decision exists.
func (q *Query) HasConsent(ctx context.Context) bool {
	return q.store.Load(ctx) != nil
}

// AllPreferences returns a copy of the stored preferences, or an empty map.
func (q *Query) AllPreferences(ctx context.Context) models.Preferences {
	record := q.store.Load(ctx)
	if record == nil {
		return models.Preferences{}
	}
	return record.Preferences.Clone()
}

// ServicesEnabled answers IsServiceEnabled for several ids from a single load.
func (q *Query) ServicesEnabled(ctx context.Context, serviceIDs ...string) map[string]bool {
	record := q.store.Load(ctx)
	out := make(map[string]bool, len(serviceIDs))
	for _, id := range serviceIDs {
		enabled := record != nil && record.Enabled(id)
		out[id] = enabled
		q.metrics.IncrementServiceChecks(enabled)
	}
	return out
}
