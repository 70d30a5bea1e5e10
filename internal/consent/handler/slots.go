package handler

import (
	"net/http"

	"consentkit/internal/consent/store"
	"consentkit/pkg/requestcontext"
)

// SlotResolver picks the slot and key that hold the requesting profile's
// consent record.
type SlotResolver interface {
	Resolve(w http.ResponseWriter, r *http.Request) (slot store.Slot, key string)
	// ProfileScoped reports whether keys depend on the profile cookie.
	ProfileScoped() bool
}

// CookieSlots stores the record in the browser under the cookie name itself.
type CookieSlots struct {
	Name    string
	Options CookieOptions
}

func (c CookieSlots) Resolve(w http.ResponseWriter, r *http.Request) (store.Slot, string) {
	return NewCookieSlot(w, r, c.Options), c.Name
}

func (CookieSlots) ProfileScoped() bool { return false }

// SharedSlots stores records in a server-side slot keyed by
// "<name>:<profile id>".
type SharedSlots struct {
	Slot store.Slot
	Name string
}

func (s SharedSlots) Resolve(_ http.ResponseWriter, r *http.Request) (store.Slot, string) {
	return s.Slot, s.Name + ":" + requestcontext.ProfileID(r.Context())
}

func (SharedSlots) ProfileScoped() bool { return true }
