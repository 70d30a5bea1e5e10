package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mssola/useragent"

	"consentkit/internal/consent/config"
	"consentkit/internal/consent/metrics"
	"consentkit/internal/consent/models"
	"consentkit/internal/consent/query"
	"consentkit/internal/consent/service"
	"consentkit/internal/consent/store"
	"consentkit/internal/platform/tracer"
	dErrors "consentkit/pkg/domain-errors"
	"consentkit/pkg/platform/httputil"
	"consentkit/pkg/platform/strings"
	"consentkit/pkg/requestcontext"
)

// Handler serves the consent endpoints. It holds no per-profile state: each
// request resolves its slot, then builds the store, query and service over it.
type Handler struct {
	settings      config.Settings
	hierarchy     models.Hierarchy
	slots         SlotResolver
	cookieOptions CookieOptions
	logger        *slog.Logger
	metrics       *metrics.Metrics
	tracer        tracer.Tracer
	notifiers     []service.Notifier
	timeout       time.Duration
}

// Option configures a Handler.
type Option func(*Handler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(h *Handler) {
		h.tracer = t
	}
}

func WithNotifiers(notifiers ...service.Notifier) Option {
	return func(h *Handler) {
		h.notifiers = append(h.notifiers, notifiers...)
	}
}

// WithCookieOptions sets the attributes of the profile cookie. The consent
// cookie itself takes its attributes from CookieSlots.
func WithCookieOptions(opts CookieOptions) Option {
	return func(h *Handler) {
		h.cookieOptions = opts
	}
}

// WithTransitionTimeout bounds each consent write.
func WithTransitionTimeout(d time.Duration) Option {
	return func(h *Handler) {
		h.timeout = d
	}
}

// New creates a consent handler over resolved settings.
func New(settings config.Settings, slots SlotResolver, opts ...Option) *Handler {
	h := &Handler{
		settings:      settings.Clone(),
		hierarchy:     settings.Hierarchy(),
		slots:         slots,
		cookieOptions: DefaultCookieOptions(),
		logger:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Register registers the consent routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/consent", func(r chi.Router) {
		r.Use(h.Profile)
		r.Get("/", h.handleGetConsent)
		r.Put("/", h.handleSaveConsent)
		r.Delete("/", h.handleWithdraw)
		r.Get("/prompt", h.handlePrompt)
		r.Get("/config", h.handleConfig)
		r.Get("/services", h.handleServices)
		r.Get("/services/{serviceID}", h.handleService)
		r.Post("/accept-all", h.handleAcceptAll)
		r.Post("/decline-all", h.handleDeclineAll)
	})
}

// Profile establishes the profile id when the slots are profile-scoped and
// passes the request through untouched otherwise.
func (h *Handler) Profile(next http.Handler) http.Handler {
	if !h.slots.ProfileScoped() {
		return next
	}
	return ProfileMiddleware(h.settings.CookieName, int(h.settings.CookieMaxAge), h.cookieOptions)(next)
}

// RequireService gates application routes on consent for serviceID. Requests
// without it get 403 missing_consent.
func (h *Handler) RequireService(serviceID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return h.Profile(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !h.query(w, r).IsServiceEnabled(r.Context(), serviceID) {
				httputil.WriteError(w, dErrors.New(dErrors.CodeMissingConsent, "consent required for service "+serviceID))
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

func (h *Handler) store(w http.ResponseWriter, r *http.Request) *store.Store {
	slot, key := h.slots.Resolve(w, r)
	return store.New(slot, key, h.settings.MaxAge(),
		store.WithLogger(h.logger),
		store.WithMetrics(h.metrics),
	)
}

func (h *Handler) query(w http.ResponseWriter, r *http.Request) *query.Query {
	return query.New(h.store(w, r), query.WithLogger(h.logger), query.WithMetrics(h.metrics))
}

func (h *Handler) handleGetConsent(w http.ResponseWriter, r *http.Request) {
	q := h.query(w, r)
	httputil.WriteJSON(w, http.StatusOK, ConsentResponse{
		HasConsent:  q.HasConsent(r.Context()),
		Preferences: q.AllPreferences(r.Context()),
	})
}

// handlePrompt answers whether the first-visit prompt should be shown. Crawlers
// cannot consent, so they never get it.
func (h *Handler) handlePrompt(w http.ResponseWriter, r *http.Request) {
	show := !h.query(w, r).HasConsent(r.Context())
	if show && useragent.New(r.UserAgent()).Bot() {
		show = false
	}
	httputil.WriteJSON(w, http.StatusOK, PromptResponse{Show: show})
}

func (h *Handler) handleConfig(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, ConfigResponse{
		CookieName:       h.settings.CookieName,
		InitialModal:     presentInitialModal(h.settings.InitialModal),
		PreferencesModal: h.settings.PreferencesModal.Clone(),
	})
}

func (h *Handler) handleService(w http.ResponseWriter, r *http.Request) {
	serviceID := chi.URLParam(r, "serviceID")
	httputil.WriteJSON(w, http.StatusOK, ServiceResponse{
		ServiceID: serviceID,
		Enabled:   h.query(w, r).IsServiceEnabled(r.Context(), serviceID),
	})
}

func (h *Handler) handleServices(w http.ResponseWriter, r *http.Request) {
	ids := strings.SplitList(r.URL.Query()["ids"]...)
	if len(ids) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "ids is required"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ServicesResponse{
		Services: h.query(w, r).ServicesEnabled(r.Context(), ids...),
	})
}

func (h *Handler) handleAcceptAll(w http.ResponseWriter, r *http.Request) {
	record, err := h.service(w, r).AcceptAll(r.Context())
	h.writeRecord(w, r, record, err)
}

func (h *Handler) handleDeclineAll(w http.ResponseWriter, r *http.Request) {
	record, err := h.service(w, r).DeclineAll(r.Context())
	h.writeRecord(w, r, record, err)
}

func (h *Handler) handleSaveConsent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SaveConsentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid save consent request",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.service(w, r).SaveCustom(ctx, sanitizeSelections(req.Selections))
	h.writeRecord(w, r, record, err)
}

func (h *Handler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	if err := h.service(w, r).Withdraw(r.Context()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) service(w http.ResponseWriter, r *http.Request) *service.Service {
	return service.New(h.store(w, r), &h.hierarchy,
		service.WithLogger(h.logger),
		service.WithMetrics(h.metrics),
		service.WithTracer(h.tracer),
		service.WithNotifiers(h.notifiers...),
		service.WithTimeout(h.timeout),
	)
}

func (h *Handler) writeRecord(w http.ResponseWriter, r *http.Request, record models.Record, err error) {
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeConfigurationInvalid) {
			h.logger.ErrorContext(r.Context(), "consent transition failed",
				"request_id", requestcontext.RequestID(r.Context()),
				"error", err,
			)
		}
		httputil.WriteError(w, err)
		return
	}
	// A zero max age yields a record that is expired as soon as it is written.
	if record.Expired(requestcontext.Now(r.Context())) {
		httputil.WriteJSON(w, http.StatusOK, ConsentResponse{Preferences: models.Preferences{}})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ConsentResponse{
		HasConsent:  true,
		Preferences: record.Preferences.Clone(),
	})
}

// presentInitialModal drops inline payloads from actions that do not render
// inline.
func presentInitialModal(m models.InitialModal) models.InitialModal {
	m = m.Clone()
	for _, a := range []*models.Action{&m.Decline, &m.More, &m.PrivacyPolicy, &m.Accept} {
		a.Inline = a.InlineText()
	}
	return m
}
