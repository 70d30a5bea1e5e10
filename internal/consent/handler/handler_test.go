package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"consentkit/internal/consent/codec"
	"consentkit/internal/consent/config"
	"consentkit/internal/consent/models"
	"consentkit/internal/consent/service"
	"consentkit/internal/consent/store"
	"consentkit/internal/consent/store/mocks"
	"consentkit/pkg/testutil"
)

const googlebot = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"

type ConsentHandlerSuite struct {
	suite.Suite
	settings config.Settings
	router   chi.Router
	jar      *testutil.CookieJar
	changes  []service.Change
}

func TestConsentHandlerSuite(t *testing.T) {
	suite.Run(t, new(ConsentHandlerSuite))
}

func (s *ConsentHandlerSuite) SetupTest() {
	s.settings = config.Defaults()
	s.jar = testutil.NewCookieJar()
	s.changes = nil
	s.router = s.newRouter(CookieSlots{Name: s.settings.CookieName, Options: DefaultCookieOptions()})
}

func (s *ConsentHandlerSuite) newRouter(slots SlotResolver) chi.Router {
	h := New(s.settings, slots, WithNotifiers(service.NotifierFunc(func(_ context.Context, c service.Change) {
		s.changes = append(s.changes, c)
	})))
	r := chi.NewRouter()
	h.Register(r)
	r.With(h.RequireService("meta-pixel")).Get("/pixel", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

// do sends req with the jar's cookies and keeps whatever the response sets.
func (s *ConsentHandlerSuite) do(req *http.Request) *httptest.ResponseRecorder {
	rr := testutil.DoRequest(s.router, s.jar.Attach(req))
	s.jar.Store(rr)
	return rr
}

func (s *ConsentHandlerSuite) get(path string) *httptest.ResponseRecorder {
	return s.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (s *ConsentHandlerSuite) consent() *ConsentResponse {
	rr := s.get("/consent")
	s.Require().Equal(http.StatusOK, rr.Code)
	return testutil.UnmarshalResponse[ConsentResponse](s.T(), rr)
}

func (s *ConsentHandlerSuite) TestNoDecision() {
	resp := s.consent()
	s.False(resp.HasConsent)
	s.Empty(resp.Preferences)

	rr := s.get("/consent/services/session")
	s.Equal(ServiceResponse{ServiceID: "session", Enabled: false}, *testutil.UnmarshalResponse[ServiceResponse](s.T(), rr))

	rr = s.get("/pixel")
	testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, "missing_consent")
}

func (s *ConsentHandlerSuite) TestAcceptAll() {
	rr := s.do(httptest.NewRequest(http.MethodPost, "/consent/accept-all", nil))
	s.Require().Equal(http.StatusOK, rr.Code)

	resp := testutil.UnmarshalResponse[ConsentResponse](s.T(), rr)
	s.True(resp.HasConsent)
	s.Len(resp.Preferences, 5)

	s.Run("cookie carries the encoded record", func() {
		ck := s.jar.Get("consent")
		s.Require().NotNil(ck)
		s.Equal(int(s.settings.CookieMaxAge), ck.MaxAge)
		raw, err := url.QueryUnescape(ck.Value)
		s.Require().NoError(err)
		record, err := codec.Decode(raw)
		s.Require().NoError(err)
		s.True(record.Preferences["meta-pixel"])
	})

	s.Run("later requests see the decision", func() {
		s.True(s.consent().HasConsent)
		s.Equal(http.StatusNoContent, s.get("/pixel").Code)
	})

	s.Require().Len(s.changes, 1)
	s.Equal(service.ActionAcceptAll, s.changes[0].Action)
}

func (s *ConsentHandlerSuite) TestDeclineAll() {
	rr := s.do(httptest.NewRequest(http.MethodPost, "/consent/decline-all", nil))
	s.Require().Equal(http.StatusOK, rr.Code)

	s.Equal(models.Preferences{
		"session":            true,
		"consent-management": true,
		"matomo-analytics":   false,
		"conversion-api":     false,
		"meta-pixel":         false,
	}, s.consent().Preferences)
	testutil.AssertStatusAndError(s.T(), s.get("/pixel"), http.StatusForbidden, "missing_consent")
}

func (s *ConsentHandlerSuite) TestSaveConsent() {
	s.Run("selections with whitespace in ids", func() {
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPut, "/consent", SaveConsentRequest{
			Selections: map[string]bool{" meta-pixel ": true, "session": false},
		}))
		s.Require().Equal(http.StatusOK, rr.Code)

		prefs := testutil.UnmarshalResponse[ConsentResponse](s.T(), rr).Preferences
		s.True(prefs["meta-pixel"])
		s.True(prefs["session"], "required services cannot be declined")
		s.False(prefs["matomo-analytics"])
	})

	s.Run("omitted services keep their stored value", func() {
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPut, "/consent", SaveConsentRequest{
			Selections: map[string]bool{"matomo-analytics": true},
		}))
		s.Require().Equal(http.StatusOK, rr.Code)

		prefs := s.consent().Preferences
		s.True(prefs["meta-pixel"])
		s.True(prefs["matomo-analytics"])
	})

	s.Run("ids that collide after trimming keep an explicit decline", func() {
		for range 20 {
			rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPut, "/consent", SaveConsentRequest{
				Selections: map[string]bool{"meta-pixel": false, " meta-pixel": true, "meta-pixel ": true},
			}))
			s.Require().Equal(http.StatusOK, rr.Code)
			s.False(s.consent().Preferences["meta-pixel"])
		}
	})

	s.Run("invalid bodies", func() {
		rr := s.do(testutil.NewRequestWithBody(s.T(), http.MethodPut, "/consent", "{"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")

		rr = s.do(testutil.NewRequestWithBody(s.T(), http.MethodPut, "/consent", "{}"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "bad_request")
	})
}

func (s *ConsentHandlerSuite) TestWithdraw() {
	s.do(httptest.NewRequest(http.MethodPost, "/consent/accept-all", nil))
	s.Require().True(s.consent().HasConsent)

	rr := s.do(httptest.NewRequest(http.MethodDelete, "/consent", nil))
	s.Equal(http.StatusNoContent, rr.Code)
	s.Nil(s.jar.Get("consent"))
	s.False(s.consent().HasConsent)
}

func (s *ConsentHandlerSuite) TestPrompt() {
	prompt := func(userAgent string) bool {
		req := httptest.NewRequest(http.MethodGet, "/consent/prompt", nil)
		req.Header.Set("User-Agent", userAgent)
		rr := s.do(req)
		s.Require().Equal(http.StatusOK, rr.Code)
		return testutil.UnmarshalResponse[PromptResponse](s.T(), rr).Show
	}

	firefox := "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"
	s.True(prompt(firefox))
	s.False(prompt(googlebot), "crawlers never get the prompt")

	s.do(httptest.NewRequest(http.MethodPost, "/consent/decline-all", nil))
	s.False(prompt(firefox), "a decision has been made")
}

func (s *ConsentHandlerSuite) TestConfig() {
	rr := s.get("/consent/config")
	s.Require().Equal(http.StatusOK, rr.Code)

	resp := testutil.UnmarshalResponse[ConfigResponse](s.T(), rr)
	s.Equal("consent", resp.CookieName)
	s.Equal(models.DisplayLink, resp.InitialModal.Accept.Type)
	s.Nil(resp.InitialModal.Accept.Inline)
	s.Require().NotNil(resp.InitialModal.Decline.Inline)
	s.Equal("decline", resp.InitialModal.Decline.Inline.Link)
	s.Len(resp.PreferencesModal.Hierarchy.Purposes, 3)
}

func (s *ConsentHandlerSuite) TestServicesBatch() {
	s.do(testutil.NewJSONRequest(s.T(), http.MethodPut, "/consent", SaveConsentRequest{
		Selections: map[string]bool{"meta-pixel": true},
	}))

	rr := s.get("/consent/services?ids=meta-pixel,%20conversion-api&ids=unknown")
	s.Require().Equal(http.StatusOK, rr.Code)
	s.Equal(map[string]bool{
		"meta-pixel":     true,
		"conversion-api": false,
		"unknown":        false,
	}, testutil.UnmarshalResponse[ServicesResponse](s.T(), rr).Services)

	testutil.AssertStatusAndError(s.T(), s.get("/consent/services?ids=,"), http.StatusBadRequest, "bad_request")
}

func (s *ConsentHandlerSuite) TestZeroMaxAge() {
	s.settings.CookieMaxAge = 0
	s.router = s.newRouter(CookieSlots{Name: s.settings.CookieName, Options: DefaultCookieOptions()})

	rr := s.do(httptest.NewRequest(http.MethodPost, "/consent/accept-all", nil))
	s.Require().Equal(http.StatusOK, rr.Code)
	s.False(testutil.UnmarshalResponse[ConsentResponse](s.T(), rr).HasConsent)
	s.False(s.consent().HasConsent)
}

func (s *ConsentHandlerSuite) TestTamperedCookieIsNoDecision() {
	req := httptest.NewRequest(http.MethodGet, "/consent", nil)
	req.AddCookie(&http.Cookie{Name: "consent", Value: url.QueryEscape(`{"version":1}`)})
	rr := testutil.DoRequest(s.router, req)

	s.Require().Equal(http.StatusOK, rr.Code)
	s.False(testutil.UnmarshalResponse[ConsentResponse](s.T(), rr).HasConsent)
}

func (s *ConsentHandlerSuite) TestSharedSlots() {
	shared := store.NewMemorySlot()
	s.router = s.newRouter(SharedSlots{Slot: shared, Name: s.settings.CookieName})

	rr := s.do(httptest.NewRequest(http.MethodPost, "/consent/accept-all", nil))
	s.Require().Equal(http.StatusOK, rr.Code)

	profile := s.jar.Get("consent" + ProfileCookieSuffix)
	s.Require().NotNil(profile)
	s.True(profile.HttpOnly)
	s.Nil(s.jar.Get("consent"), "shared slots do not write the consent cookie")

	s.Run("same profile sees the decision", func() {
		s.True(s.consent().HasConsent)
		_, err := shared.Get(context.Background(), "consent:"+profile.Value)
		s.NoError(err)
	})

	s.Run("another browser does not", func() {
		rr := testutil.DoRequest(s.router, httptest.NewRequest(http.MethodGet, "/consent", nil))
		s.False(testutil.UnmarshalResponse[ConsentResponse](s.T(), rr).HasConsent)
	})

	s.Run("an invalid profile cookie is replaced", func() {
		req := httptest.NewRequest(http.MethodGet, "/consent", nil)
		req.AddCookie(&http.Cookie{Name: "consent" + ProfileCookieSuffix, Value: "not-a-uuid"})
		rr := testutil.DoRequest(s.router, req)
		s.NotEmpty(rr.Result().Cookies())
		s.False(testutil.UnmarshalResponse[ConsentResponse](s.T(), rr).HasConsent)
	})
}

func (s *ConsentHandlerSuite) TestStorageFailures() {
	ctrl := gomock.NewController(s.T())
	slot := mocks.NewMockSlot(ctrl)
	s.router = s.newRouter(SharedSlots{Slot: slot, Name: "consent"})

	s.Run("write failure is a 500 without details", func() {
		slot.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))
		rr := s.do(httptest.NewRequest(http.MethodPost, "/consent/accept-all", nil))
		s.Equal(http.StatusInternalServerError, rr.Code)
		s.NotContains(rr.Body.String(), "connection reset")
	})

	s.Run("read failure gates like no consent", func() {
		slot.EXPECT().Get(gomock.Any(), gomock.Any()).Return("", errors.New("connection reset"))
		testutil.AssertStatusAndError(s.T(), s.get("/pixel"), http.StatusForbidden, "missing_consent")
	})

	s.Empty(s.changes)
}

func (s *ConsentHandlerSuite) TestUnwritableCookieFailsTheSave() {
	s.router = s.newRouter(CookieSlots{Name: "my consent", Options: DefaultCookieOptions()})

	rr := s.do(httptest.NewRequest(http.MethodPost, "/consent/accept-all", nil))
	s.Equal(http.StatusInternalServerError, rr.Code)
	s.Empty(rr.Result().Cookies())
	s.Empty(s.changes)
}

func TestCookieSlotRejectsCookiesBrowsersDrop(t *testing.T) {
	ctx := context.Background()

	testutil.Given(t, "a cookie name that is not a token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		slot := NewCookieSlot(rec, httptest.NewRequest(http.MethodGet, "/", nil), DefaultCookieOptions())

		testutil.Then(t, "Set and Remove fail and nothing is written", func(t *testing.T) {
			if err := slot.Set(ctx, "my consent", "v", time.Hour); err == nil {
				t.Fatal("expected Set to fail")
			}
			if err := slot.Remove(ctx, "my consent"); err == nil {
				t.Fatal("expected Remove to fail")
			}
			if _, err := slot.Get(ctx, "my consent"); err == nil {
				t.Fatal("failed Set must not be visible to later reads")
			}
			if got := rec.Result().Cookies(); len(got) != 0 {
				t.Fatalf("unexpected cookies: %+v", got)
			}
		})
	})

	testutil.Given(t, "a value that exceeds the browser limit once escaped", func(t *testing.T) {
		rec := httptest.NewRecorder()
		slot := NewCookieSlot(rec, httptest.NewRequest(http.MethodGet, "/", nil), DefaultCookieOptions())
		value := strings.Repeat(`"`, MaxCookieSize/2)

		testutil.Then(t, "Set reports ErrCookieTooLarge", func(t *testing.T) {
			err := slot.Set(ctx, "consent", value, time.Hour)
			if !errors.Is(err, ErrCookieTooLarge) {
				t.Fatalf("Set error = %v", err)
			}
			if got := rec.Result().Cookies(); len(got) != 0 {
				t.Fatalf("unexpected cookies: %+v", got)
			}
		})
	})
}

func TestCookieSlot(t *testing.T) {
	ctx := context.Background()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "consent", Value: url.QueryEscape(`{"a":"b c"}`)})
	rec := httptest.NewRecorder()
	slot := NewCookieSlot(rec, req, DefaultCookieOptions())

	testutil.Given(t, "a request carrying a consent cookie", func(t *testing.T) {
		testutil.Then(t, "Get returns the unescaped value", func(t *testing.T) {
			v, err := slot.Get(ctx, "consent")
			if err != nil || v != `{"a":"b c"}` {
				t.Fatalf("Get = %q, %v", v, err)
			}
		})
	})

	testutil.When(t, "the value is replaced and removed within the request", func(t *testing.T) {
		if err := slot.Set(ctx, "consent", "new", time.Hour); err != nil {
			t.Fatal(err)
		}
		if v, _ := slot.Get(ctx, "consent"); v != "new" {
			t.Fatalf("Get after Set = %q", v)
		}
		if err := slot.Remove(ctx, "consent"); err != nil {
			t.Fatal(err)
		}

		testutil.Then(t, "reads reflect the removal and both cookies were written", func(t *testing.T) {
			if _, err := slot.Get(ctx, "consent"); err == nil {
				t.Fatal("expected not found after Remove")
			}
			cookies := rec.Result().Cookies()
			if len(cookies) != 2 || cookies[0].MaxAge != 3600 || cookies[1].MaxAge >= 0 {
				t.Fatalf("unexpected cookies: %+v", cookies)
			}
		})
	})
}

func (s *ConsentHandlerSuite) TestRecordExpiresAfterMaxAge() {
	decidedAt := time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	s.do(testutil.WithRequestTime(httptest.NewRequest(http.MethodPost, "/consent/accept-all", nil), decidedAt))

	stillValid := testutil.WithRequestTime(httptest.NewRequest(http.MethodGet, "/consent", nil), decidedAt.Add(s.settings.MaxAge()-time.Second))
	s.True(testutil.UnmarshalResponse[ConsentResponse](s.T(), s.do(stillValid)).HasConsent)

	expired := testutil.WithRequestTime(httptest.NewRequest(http.MethodGet, "/consent", nil), decidedAt.Add(s.settings.MaxAge()))
	s.False(testutil.UnmarshalResponse[ConsentResponse](s.T(), s.do(expired)).HasConsent)
}

func (s *ConsentHandlerSuite) TestProfileFromUpstreamContext() {
	shared := store.NewMemorySlot()
	s.router = s.newRouter(SharedSlots{Slot: shared, Name: s.settings.CookieName})

	req := testutil.WithProfileID(httptest.NewRequest(http.MethodPost, "/consent/decline-all", nil), "account-42")
	rr := testutil.DoRequest(s.router, req)
	s.Require().Equal(http.StatusOK, rr.Code)
	s.Empty(rr.Result().Cookies(), "no profile cookie is issued when the profile is already known")

	_, err := shared.Get(context.Background(), "consent:account-42")
	s.NoError(err)
}
