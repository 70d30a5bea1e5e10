package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"consentkit/internal/consent/store"
	"consentkit/pkg/platform/sentinel"
)

// MaxCookieSize is the largest name plus value length browsers are required
// to store; longer cookies are dropped without notice.
const MaxCookieSize = 4096

// ErrCookieTooLarge is returned by CookieSlot.Set when the escaped value would
// not fit in one cookie.
var ErrCookieTooLarge = errors.New("cookie exceeds browser size limit")

// CookieOptions are the attributes written on every cookie the handler sets.
type CookieOptions struct {
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

// DefaultCookieOptions returns Path "/" and SameSite=Lax.
func DefaultCookieOptions() CookieOptions {
	return CookieOptions{Path: "/", SameSite: http.SameSiteLaxMode}
}

func (o CookieOptions) cookie(name, value string, maxAge int, httpOnly bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     o.Path,
		Domain:   o.Domain,
		MaxAge:   maxAge,
		Secure:   o.Secure,
		HttpOnly: httpOnly,
		SameSite: o.SameSite,
	}
}

// CookieSlot keeps values in browser cookies for the duration of one request.
// Reads see writes made earlier in the same request, so a save followed by a
// query inside one handler observes the new record before the browser does.
//
// The consent cookie is not HttpOnly: front-end code reads it directly.
type CookieSlot struct {
	w       http.ResponseWriter
	r       *http.Request
	opts    CookieOptions
	pending map[string]*string // nil value: removed in this request
}

func NewCookieSlot(w http.ResponseWriter, r *http.Request, opts CookieOptions) *CookieSlot {
	return &CookieSlot{w: w, r: r, opts: opts, pending: make(map[string]*string)}
}

func (c *CookieSlot) Get(_ context.Context, name string) (string, error) {
	if v, ok := c.pending[name]; ok {
		if v == nil {
			return "", sentinel.ErrNotFound
		}
		return *v, nil
	}
	ck, err := c.r.Cookie(name)
	if errors.Is(err, http.ErrNoCookie) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	value, err := url.QueryUnescape(ck.Value)
	if err != nil {
		// Hand the raw text to the codec; it reports the record as malformed.
		return ck.Value, nil
	}
	return value, nil
}

// Set writes the cookie with Max-Age from ttl. A zero ttl writes a session
// cookie. A cookie the browser would drop is an error and leaves the slot
// unchanged.
func (c *CookieSlot) Set(_ context.Context, name, value string, ttl time.Duration) error {
	ck := c.opts.cookie(name, url.QueryEscape(value), int(ttl/time.Second), false)
	if n := len(ck.Name) + len(ck.Value); n > MaxCookieSize {
		return fmt.Errorf("%w: cookie %q is %d bytes, limit %d", ErrCookieTooLarge, name, n, MaxCookieSize)
	}
	if err := c.write(ck); err != nil {
		return err
	}
	c.pending[name] = &value
	return nil
}

func (c *CookieSlot) Remove(_ context.Context, name string) error {
	if err := c.write(c.opts.cookie(name, "", -1, false)); err != nil {
		return err
	}
	c.pending[name] = nil
	return nil
}

// write refuses cookies that http.SetCookie would silently drop.
func (c *CookieSlot) write(ck *http.Cookie) error {
	if err := ck.Valid(); err != nil {
		return fmt.Errorf("write cookie %q: %w", ck.Name, err)
	}
	http.SetCookie(c.w, ck)
	return nil
}

var _ store.Slot = (*CookieSlot)(nil)
