package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Slots and other storage adapters
// return these (optionally wrapped) so the consent store can translate them
// into its "no consent" default.
//
// - ErrNotFound: the named value does not exist in the slot
// - ErrExpired: the value exists but its host-managed expiry has passed
// - ErrUnavailable: the backing storage could not be reached
var (
	ErrNotFound    = errors.New("not found")
	ErrExpired     = errors.New("expired")
	ErrUnavailable = errors.New("unavailable")
)
