package service

import (
	"context"
	"log/slog"

	"consentkit/internal/consent/models"
	"consentkit/pkg/requestcontext"
)

// Change describes a completed transition. Record is nil for ActionWithdraw.
type Change struct {
	Action Action
	Record *models.Record
}

// Notifier observes completed transitions, e.g. to load or unload third-party
// scripts. Notifiers run synchronously after the write and cannot fail it.
type Notifier interface {
	ConsentChanged(ctx context.Context, change Change)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, change Change)

func (f NotifierFunc) ConsentChanged(ctx context.Context, change Change) {
	f(ctx, change)
}

// LogNotifier writes every change to a logger.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) ConsentChanged(ctx context.Context, change Change) {
	attrs := []any{
		"action", string(change.Action),
		"profile_id", requestcontext.ProfileID(ctx),
	}
	if change.Record != nil {
		attrs = append(attrs,
			"timestamp", change.Record.Timestamp,
			"expires_at", change.Record.ExpiresAt,
		)
	}
	n.logger.InfoContext(ctx, "consent changed", attrs...)
}
