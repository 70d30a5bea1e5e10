package handler

import (
	"net/http"

	"github.com/google/uuid"

	"consentkit/pkg/requestcontext"
)

// ProfileCookieSuffix is appended to the consent cookie name to form the
// cookie that carries the profile id.
const ProfileCookieSuffix = "_profile"

// ProfileMiddleware identifies the browser profile for server-side slots. It
// reuses a valid UUID from the profile cookie or issues a new one.
func ProfileMiddleware(cookieName string, maxAge int, opts CookieOptions) func(http.Handler) http.Handler {
	name := cookieName + ProfileCookieSuffix
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if requestcontext.ProfileID(r.Context()) != "" {
				next.ServeHTTP(w, r)
				return
			}

			var profileID string
			if ck, err := r.Cookie(name); err == nil {
				if id, err := uuid.Parse(ck.Value); err == nil {
					profileID = id.String()
				}
			}
			if profileID == "" {
				profileID = uuid.NewString()
				http.SetCookie(w, opts.cookie(name, profileID, maxAge, true))
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithProfileID(r.Context(), profileID)))
		})
	}
}
