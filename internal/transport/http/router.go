package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"consentkit/internal/platform/metrics"
	"consentkit/internal/platform/middleware"
)

// Registrar mounts a feature's routes.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter wires the shared middleware chain, the metrics endpoint and every
// feature registrar. Handlers hold no transport concerns beyond their routes.
func NewRouter(logger *slog.Logger, m *metrics.Metrics, registrars ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Latency(m))

	r.Handle("/metrics", m.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(timeout(30 * time.Second))
		for _, reg := range registrars {
			reg.Register(r)
		}
	})
	return r
}

func timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "Request Timeout")
	}
}
