// Package config resolves the consent engine settings: built-in defaults,
// the partial overrides an integrator supplies, and the validation that turns
// the two into one fully-populated Settings value.
package config

import (
	"time"

	"consentkit/internal/consent/models"
)

// Settings is the resolved configuration. It is produced once at startup and
// shared read-only afterwards; Resolve never hands out slices or pointers
// that alias its inputs.
type Settings struct {
	// CookieName is the storage key the consent store writes under.
	CookieName string `json:"cookieName"`
	// CookieMaxAge is the record lifetime in seconds.
	CookieMaxAge       int64                   `json:"cookieMaxAge"`
	AllowEmptyPurposes bool                    `json:"allowEmptyPurposes"`
	InitialModal       models.InitialModal     `json:"initialModal"`
	PreferencesModal   models.PreferencesModal `json:"preferencesModal"`
}

// MaxAge returns CookieMaxAge as a duration.
func (s Settings) MaxAge() time.Duration {
	return time.Duration(s.CookieMaxAge) * time.Second
}

// Hierarchy returns a copy of the purpose/service hierarchy.
func (s Settings) Hierarchy() models.Hierarchy {
	return s.PreferencesModal.Hierarchy.Clone()
}

// Clone returns a deep copy of s.
func (s Settings) Clone() Settings {
	s.InitialModal = s.InitialModal.Clone()
	s.PreferencesModal = s.PreferencesModal.Clone()
	return s
}
