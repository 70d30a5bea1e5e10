package store

//go:generate mockgen -source=slot.go -destination=mocks/slot_mock.go -package=mocks Slot

import (
	"context"
	"time"
)

// Slot is the storage primitive behind a consent store: one textual value per
// name with an optional host-managed expiry.
//
// Error Contract:
//   - Get returns sentinel.ErrNotFound when the name holds no value, including
//     when the host has already expired it
//   - Set replaces the value in a single write; readers see either the old or
//     the new value, never a partial one
//   - Remove on a missing name is not an error
//
// ttl is a hint. Zero means the host keeps the value until it is removed; the
// store enforces the record's own expiry on every load regardless.
type Slot interface {
	Get(ctx context.Context, name string) (string, error)
	Set(ctx context.Context, name, value string, ttl time.Duration) error
	Remove(ctx context.Context, name string) error
}
