// Package store owns the single persisted consent record of a profile.
//
// A Store wraps one Slot key. Reads never fail outward: a missing,
// undecodable, version-mismatched or expired value is reported as "no
// consent". Writes always replace the whole record.
//
// Concurrency: a store assumes one writer at a time per key, which holds for
// a browser profile acting through one request at a time. Two concurrent
// writers for the same key (two tabs submitting at once) race and the last
// write wins; there is no lock and none is wanted.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"consentkit/internal/consent/codec"
	"consentkit/internal/consent/metrics"
	"consentkit/internal/consent/models"
	"consentkit/pkg/platform/sentinel"
	"consentkit/pkg/requestcontext"
)

// Store mediates all reads and writes of one consent record.
type Store struct {
	slot    Slot
	name    string
	maxAge  time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for absorbed read failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics enables store metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// New builds a store for the value named name in slot. maxAge is added to the
// save time to compute a record's expiry.
func New(slot Slot, name string, maxAge time.Duration, opts ...Option) *Store {
	s := &Store{
		slot:   slot,
		name:   name,
		maxAge: maxAge,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Name returns the slot key this store owns.
func (s *Store) Name() string {
	return s.name
}

// Load returns the current record, or nil when there is no usable one.
func (s *Store) Load(ctx context.Context) *models.Record {
	start := time.Now()
	defer func() {
		s.metrics.ObserveStoreOperationLatency("load", time.Since(start).Seconds())
	}()

	raw, err := s.slot.Get(ctx, s.name)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.WarnContext(ctx, "consent slot read failed",
				"slot", s.name,
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
			s.metrics.IncrementRecordsDiscarded("unavailable")
		}
		return nil
	}

	record, err := codec.Decode(raw)
	if err != nil {
		reason := "malformed"
		if errors.Is(err, models.ErrSchemaVersionMismatch) {
			reason = "version_mismatch"
		}
		s.logger.InfoContext(ctx, "discarding stored consent record",
			"slot", s.name,
			"reason", reason,
			"error", err,
		)
		s.metrics.IncrementRecordsDiscarded(reason)
		return nil
	}

	if record.Expired(requestcontext.Now(ctx)) {
		s.metrics.IncrementRecordsDiscarded("expired")
		return nil
	}
	return &record
}

// Save persists a new record built from prefs. Every required service in h is
// recorded as true whatever prefs says, and ids that h does not define are
// dropped. The record is written with one Slot.Set call.
func (s *Store) Save(ctx context.Context, prefs models.Preferences, h models.Hierarchy) (models.Record, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveStoreOperationLatency("save", time.Since(start).Seconds())
	}()

	now := requestcontext.Now(ctx).UTC()
	record := models.Record{
		Version:     models.CurrentVersion,
		Timestamp:   now,
		ExpiresAt:   now.Add(s.maxAge),
		Preferences: applyRequiredFloor(prefs, h),
	}

	encoded, err := codec.Encode(record)
	if err != nil {
		return models.Record{}, err
	}
	if err := s.slot.Set(ctx, s.name, encoded, s.maxAge); err != nil {
		return models.Record{}, fmt.Errorf("write consent slot %q: %w", s.name, err)
	}
	return record, nil
}

// Clear removes the persisted record; the next Load returns nil.
func (s *Store) Clear(ctx context.Context) error {
	start := time.Now()
	defer func() {
		s.metrics.ObserveStoreOperationLatency("clear", time.Since(start).Seconds())
	}()

	if err := s.slot.Remove(ctx, s.name); err != nil {
		return fmt.Errorf("clear consent slot %q: %w", s.name, err)
	}
	return nil
}

func applyRequiredFloor(prefs models.Preferences, h models.Hierarchy) models.Preferences {
	out := make(models.Preferences)
	for _, svc := range h.Services() {
		out[svc.ID] = svc.Required || prefs[svc.ID]
	}
	return out
}
