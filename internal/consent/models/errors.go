package models

import "errors"

// Hierarchy errors. ValidateHierarchy wraps these with the offending id.
var (
	ErrDuplicatePurposeID = errors.New("duplicate purpose id")
	ErrDuplicateServiceID = errors.New("duplicate service id")
	ErrEmptyPurpose       = errors.New("purpose has no services")
	ErrMissingID          = errors.New("missing id")
)

// Configuration errors.
var (
	// ErrConfigurationInvalid is the one fatal condition: the resolved settings
	// failed validation at startup and the update protocol must not run.
	ErrConfigurationInvalid = errors.New("consent configuration invalid")
	ErrInvalidDisplayMode   = errors.New("invalid display mode")
)

// Record errors. The store absorbs both and reports "no consent".
var (
	ErrMalformedRecord       = errors.New("malformed consent record")
	ErrSchemaVersionMismatch = errors.New("consent record schema version mismatch")
)

// ErrRequiredServiceViolation describes a caller trying to decline a required
// service. It is logged and overridden, never returned.
var ErrRequiredServiceViolation = errors.New("required service cannot be declined")
