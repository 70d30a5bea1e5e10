package models

import (
	"maps"
	"time"
)

// CurrentVersion is the schema version written into every record. Bump it when
// the persisted layout changes; records carrying another version are treated
// as no decision.
const CurrentVersion = 1

// Preferences maps service ids to decisions.
type Preferences map[string]bool

// Clone returns a copy that can be handed to callers as a snapshot.
func (p Preferences) Clone() Preferences {
	if p == nil {
		return Preferences{}
	}
	return maps.Clone(p)
}

// Record is the persisted consent decision for one profile.
type Record struct {
	Version     int
	Timestamp   time.Time
	ExpiresAt   time.Time
	Preferences Preferences
}

// Expired reports whether the record has reached its expiry. A record whose
// expiry equals now (max-age zero) is already expired.
func (r Record) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Enabled reports the decision for one service; unknown ids are not enabled.
func (r Record) Enabled(serviceID string) bool {
	return r.Preferences[serviceID]
}

// Equal compares every field, using time.Time.Equal for the instants.
func (r Record) Equal(other Record) bool {
	return r.Version == other.Version &&
		r.Timestamp.Equal(other.Timestamp) &&
		r.ExpiresAt.Equal(other.ExpiresAt) &&
		maps.Equal(r.Preferences, other.Preferences)
}
