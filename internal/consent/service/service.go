// Package service implements the consent update protocol: the only way a
// decision is written. Every transition builds a full preference map for the
// configured hierarchy and saves it in one store write, so a reader never
// observes a partially applied decision.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"consentkit/internal/consent/metrics"
	"consentkit/internal/consent/models"
	"consentkit/internal/platform/tracer"
	pkgerrors "consentkit/pkg/domain-errors"
	"consentkit/pkg/requestcontext"
)

// Store is the persistence the protocol needs. *store.Store satisfies it.
type Store interface {
	Load(ctx context.Context) *models.Record
	Save(ctx context.Context, prefs models.Preferences, h models.Hierarchy) (models.Record, error)
	Clear(ctx context.Context) error
}

// Action names a transition. It labels metrics, spans and notifications.
type Action string

const (
	ActionAcceptAll  Action = "accept_all"
	ActionDeclineAll Action = "decline_all"
	ActionSaveCustom Action = "save_custom"
	ActionWithdraw   Action = "withdraw"
)

// Service applies consent transitions to one store.
type Service struct {
	store     Store
	hierarchy models.Hierarchy
	configErr error
	timeout   time.Duration
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    tracer.Tracer
	notifiers []Notifier
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithNotifiers registers observers called after each successful transition.
func WithNotifiers(notifiers ...Notifier) Option {
	return func(s *Service) {
		for _, n := range notifiers {
			if n != nil {
				s.notifiers = append(s.notifiers, n)
			}
		}
	}
}

// WithTimeout bounds each transition when the caller's context has no
// deadline. Zero leaves the context alone.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.timeout = d
	}
}

// New builds a service for store over the validated hierarchy h. A nil h
// yields a service that refuses every transition.
func New(store Store, h *models.Hierarchy, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
		tracer: tracer.NewNoop(),
	}
	if h == nil {
		s.configErr = models.ErrConfigurationInvalid
	} else {
		s.hierarchy = h.Clone()
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// NewUnconfigured returns a service whose transitions all fail with cause,
// for hosts that keep serving reads after settings failed to resolve.
func NewUnconfigured(cause error, opts ...Option) *Service {
	switch {
	case cause == nil:
		cause = models.ErrConfigurationInvalid
	case !errors.Is(cause, models.ErrConfigurationInvalid):
		cause = fmt.Errorf("%w: %w", models.ErrConfigurationInvalid, cause)
	}
	s := New(nil, nil, opts...)
	s.configErr = cause
	return s
}

// AcceptAll enables every service in the hierarchy.
func (s *Service) AcceptAll(ctx context.Context) (models.Record, error) {
	prefs := make(models.Preferences)
	for _, svc := range s.hierarchy.Services() {
		prefs[svc.ID] = true
	}
	return s.apply(ctx, ActionAcceptAll, tracer.SpanAcceptAll, prefs)
}

// DeclineAll disables every service that is not required.
func (s *Service) DeclineAll(ctx context.Context) (models.Record, error) {
	prefs := make(models.Preferences)
	for _, svc := range s.hierarchy.Services() {
		prefs[svc.ID] = svc.Required
	}
	return s.apply(ctx, ActionDeclineAll, tracer.SpanDeclineAll, prefs)
}

// SaveCustom records selections. A service without a selection keeps its
// stored value, or false when nothing is stored. Selections for ids outside
// the hierarchy are ignored, and a required service is always recorded true.
func (s *Service) SaveCustom(ctx context.Context, selections map[string]bool) (models.Record, error) {
	if err := s.configErr; err != nil {
		return models.Record{}, s.refuse(ctx, ActionSaveCustom, err)
	}

	var current models.Preferences
	if record := s.store.Load(ctx); record != nil {
		current = record.Preferences
	}

	prefs := make(models.Preferences)
	for _, svc := range s.hierarchy.Services() {
		selected, ok := selections[svc.ID]
		if !ok {
			selected = current[svc.ID]
		}
		if svc.Required && ok && !selected {
			s.logger.DebugContext(ctx, models.ErrRequiredServiceViolation.Error(),
				"service_id", svc.ID,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		prefs[svc.ID] = selected
	}

	var ignored []string
	for id := range selections {
		if _, ok := s.hierarchy.Lookup(id); !ok {
			ignored = append(ignored, id)
		}
	}
	if len(ignored) > 0 {
		slices.Sort(ignored)
		s.logger.InfoContext(ctx, "ignoring selections for unknown services",
			"service_ids", ignored,
			"request_id", requestcontext.RequestID(ctx),
		)
	}

	return s.apply(ctx, ActionSaveCustom, tracer.SpanSaveCustom, prefs,
		tracer.Attribute{Key: tracer.AttrIgnoredIDs, Value: ignored})
}

// Withdraw removes the stored decision. Queries report no consent until the
// next transition.
func (s *Service) Withdraw(ctx context.Context) (err error) {
	if err := s.configErr; err != nil {
		return s.refuse(ctx, ActionWithdraw, err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	ctx, span := s.tracer.Start(ctx, tracer.SpanWithdraw, tracer.String(tracer.AttrAction, string(ActionWithdraw)))
	defer func() { span.End(err) }()

	if err = s.store.Clear(ctx); err != nil {
		s.logger.ErrorContext(ctx, "failed to withdraw consent",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to withdraw consent")
	}
	s.metrics.IncrementConsentsWithdrawn()
	s.notify(ctx, Change{Action: ActionWithdraw})
	return nil
}

func (s *Service) apply(ctx context.Context, action Action, spanName string, prefs models.Preferences, attrs ...tracer.Attribute) (record models.Record, err error) {
	if err := s.configErr; err != nil {
		return models.Record{}, s.refuse(ctx, action, err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	ctx, span := s.tracer.Start(ctx, spanName, append(attrs, tracer.String(tracer.AttrAction, string(action)))...)
	defer func() { span.End(err) }()

	for _, id := range s.hierarchy.RequiredIDs() {
		if !prefs[id] {
			span.AddEvent(tracer.EventRequiredOverride, tracer.String("service_id", id))
		}
	}

	record, err = s.store.Save(ctx, prefs, s.hierarchy)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to save consent",
			"action", string(action),
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return models.Record{}, pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to save consent")
	}

	enabled := 0
	for _, v := range record.Preferences {
		if v {
			enabled++
		}
	}
	span.SetAttributes(
		tracer.Int(tracer.AttrServicesTotal, len(record.Preferences)),
		tracer.Int(tracer.AttrServicesEnabled, enabled),
	)
	s.metrics.IncrementDecisionsRecorded(string(action))
	s.logger.InfoContext(ctx, "consent decision recorded",
		"action", string(action),
		"services_enabled", enabled,
		"services_total", len(record.Preferences),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.notify(ctx, Change{Action: action, Record: &record})
	return record, nil
}

func (s *Service) refuse(ctx context.Context, action Action, cause error) error {
	s.logger.WarnContext(ctx, "refusing consent transition",
		"action", string(action),
		"error", cause,
	)
	return pkgerrors.Wrap(cause, pkgerrors.CodeConfigurationInvalid, "consent configuration is invalid")
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Service) notify(ctx context.Context, change Change) {
	for _, n := range s.notifiers {
		n.ConsentChanged(ctx, change)
	}
}
