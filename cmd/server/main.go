package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	consentconfig "consentkit/internal/consent/config"
	"consentkit/internal/consent/handler"
	consentmetrics "consentkit/internal/consent/metrics"
	"consentkit/internal/consent/service"
	"consentkit/internal/platform/config"
	"consentkit/internal/platform/health"
	"consentkit/internal/platform/httpserver"
	"consentkit/internal/platform/logger"
	"consentkit/internal/platform/metrics"
	"consentkit/internal/platform/tracer"
	httptransport "consentkit/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Consent logic lives in internal/consent.
func main() {
	if err := run(); err != nil {
		slog.Error("consentkit exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	config.LoadDotEnv()
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)

	settings, err := consentconfig.LoadAndResolve(cfg.ConfigFile)
	if err != nil {
		log.Error("consent configuration invalid", "config_file", cfg.ConfigFile, "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	healthHandler := health.New(cfg.Environment)

	backend, err := openStorage(ctx, cfg, settings, healthHandler)
	if err != nil {
		log.Error("failed to open consent storage", "storage", cfg.Storage, "error", err)
		return err
	}
	defer backend.Close()

	consentHandler := handler.New(settings, backend.slots,
		handler.WithLogger(log),
		handler.WithMetrics(consentmetrics.New(m.Registerer())),
		handler.WithTracer(tracer.NewOTel()),
		handler.WithNotifiers(service.NewLogNotifier(log)),
		handler.WithCookieOptions(cookieOptions(cfg)),
		handler.WithTransitionTimeout(cfg.TransitionTimeout),
	)

	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(log, m, consentHandler, healthHandler))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting consentkit", "addr", cfg.Addr, "storage", cfg.Storage)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if backend.prune != nil {
		g.Go(func() error {
			backend.prune(ctx, log)
			return nil
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down consentkit")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func cookieOptions(cfg config.Server) handler.CookieOptions {
	opts := handler.DefaultCookieOptions()
	opts.Secure = cfg.Cookie.Secure
	opts.Domain = cfg.Cookie.Domain
	return opts
}
