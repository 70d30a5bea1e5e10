package handler

import (
	dErrors "consentkit/pkg/domain-errors"
)

// SaveConsentRequest is the body of PUT /consent.
type SaveConsentRequest struct {
	Selections map[string]bool `json:"selections"`
}

// Validate rejects a body without a selections object.
func (r *SaveConsentRequest) Validate() error {
	if r.Selections == nil {
		return dErrors.New(dErrors.CodeBadRequest, "selections is required")
	}
	return nil
}
