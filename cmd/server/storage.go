package main

import (
	"context"
	"log/slog"
	"time"

	consentconfig "consentkit/internal/consent/config"
	"consentkit/internal/consent/handler"
	"consentkit/internal/consent/store"
	"consentkit/internal/platform/config"
	"consentkit/internal/platform/database"
	"consentkit/internal/platform/health"
	"consentkit/internal/platform/redis"
)

const pruneInterval = time.Hour

// storage is the consent slot backend chosen by CONSENT_STORAGE.
type storage struct {
	slots handler.SlotResolver
	// prune runs until ctx ends; nil when the backend expires values itself.
	prune func(ctx context.Context, log *slog.Logger)
	close func() error
}

func (s *storage) Close() {
	if s.close != nil {
		_ = s.close()
	}
}

func openStorage(ctx context.Context, cfg config.Server, settings consentconfig.Settings, hc *health.Handler) (*storage, error) {
	name := settings.CookieName

	switch cfg.Storage {
	case config.StorageMemory:
		slot := store.NewMemorySlot()
		return &storage{
			slots: handler.SharedSlots{Slot: slot, Name: name},
			prune: func(ctx context.Context, log *slog.Logger) { pruneLoop(ctx, slot, log) },
		}, nil

	case config.StorageRedis:
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		hc.RegisterCheck("redis", client.Health)
		slot := store.NewRedisSlot(client.Client, store.WithRedisKeyPrefix(cfg.Redis.KeyPrefix))
		return &storage{
			slots: handler.SharedSlots{Slot: slot, Name: name},
			close: client.Close,
		}, nil

	case config.StoragePostgres:
		pool, err := database.New(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		slot := store.NewPostgresSlot(pool.DB(), store.WithTable(cfg.Database.Table))
		if err := slot.EnsureSchema(ctx); err != nil {
			_ = pool.Close()
			return nil, err
		}
		hc.RegisterCheck("database", pool.Health)
		return &storage{
			slots: handler.SharedSlots{Slot: slot, Name: name},
			prune: func(ctx context.Context, log *slog.Logger) { pruneLoop(ctx, slot, log) },
			close: pool.Close,
		}, nil

	default:
		return &storage{slots: handler.CookieSlots{Name: name, Options: cookieOptions(cfg)}}, nil
	}
}

// pruner is a slot that keeps expired values until asked to drop them.
type pruner interface {
	Prune(ctx context.Context) (int64, error)
}

func pruneLoop(ctx context.Context, slot pruner, log *slog.Logger) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := slot.Prune(ctx)
			if err != nil {
				log.WarnContext(ctx, "failed to prune consent slots", "error", err)
				continue
			}
			log.DebugContext(ctx, "pruned consent slots", "rows", n)
		}
	}
}
