package config

import (
	"fmt"
	"math"
	"net/http"
	"time"

	"consentkit/internal/consent/models"
)

// MaxCookieMaxAge is the largest lifetime, in seconds, that fits a
// time.Duration.
const MaxCookieMaxAge = math.MaxInt64 / int64(time.Second)

// Resolve merges user over defaults and validates the result.
//
// Present fields in user win, nested records merge field by field, and the
// purposes list is replaced wholesale: a partial hierarchy cannot be merged
// element-wise without guessing which default services should survive.
// defaults is never modified.
//
// Errors: every validation failure is wrapped in models.ErrConfigurationInvalid
// together with the specific cause (ErrInvalidDisplayMode, the hierarchy
// errors, or a bad cookie setting).
func Resolve(user Partial, defaults Settings) (Settings, error) {
	out := defaults.Clone()

	setString(&out.CookieName, user.CookieName)
	if user.CookieMaxAge != nil {
		out.CookieMaxAge = *user.CookieMaxAge
	}
	if user.AllowEmptyPurposes != nil {
		out.AllowEmptyPurposes = *user.AllowEmptyPurposes
	}
	user.InitialModal.apply(&out.InitialModal)
	user.PreferencesModal.apply(&out.PreferencesModal)

	if err := validate(out); err != nil {
		return Settings{}, fmt.Errorf("%w: %w", models.ErrConfigurationInvalid, err)
	}
	return out, nil
}

func validate(s Settings) error {
	if s.CookieName == "" {
		return fmt.Errorf("cookieName must not be empty")
	}
	if err := (&http.Cookie{Name: s.CookieName}).Valid(); err != nil {
		return fmt.Errorf("cookieName %q is not a valid cookie name: %w", s.CookieName, err)
	}
	if s.CookieMaxAge < 0 {
		return fmt.Errorf("cookieMaxAge must be >= 0, got %d", s.CookieMaxAge)
	}
	if s.CookieMaxAge > MaxCookieMaxAge {
		return fmt.Errorf("cookieMaxAge must be <= %d, got %d", MaxCookieMaxAge, s.CookieMaxAge)
	}

	actions := []struct {
		name   string
		action models.Action
	}{
		{"decline", s.InitialModal.Decline},
		{"more", s.InitialModal.More},
		{"privacyPolicy", s.InitialModal.PrivacyPolicy},
	}
	for _, a := range actions {
		if !a.action.Type.IsValid() {
			return fmt.Errorf("initialModal.%s type %q: %w", a.name, a.action.Type, models.ErrInvalidDisplayMode)
		}
	}
	if !s.InitialModal.Accept.Type.IsValidForAccept() {
		return fmt.Errorf("initialModal.accept type %q: %w", s.InitialModal.Accept.Type, models.ErrInvalidDisplayMode)
	}

	var opts []models.ValidateOption
	if s.AllowEmptyPurposes {
		opts = append(opts, models.AllowEmptyPurposes())
	}
	if _, err := models.ValidateHierarchy(s.PreferencesModal.Hierarchy, opts...); err != nil {
		return fmt.Errorf("preferencesModal.purposes: %w", err)
	}
	return nil
}
