package testutil

import (
	"net/http"
	"time"

	"consentkit/pkg/requestcontext"
)

// WithProfileID adds a profile id to the request context, as the profile
// middleware would for a returning browser.
func WithProfileID(req *http.Request, profileID string) *http.Request {
	return req.WithContext(requestcontext.WithProfileID(req.Context(), profileID))
}

// WithRequestTime pins the request clock so expiry is independent of wall time.
func WithRequestTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}
