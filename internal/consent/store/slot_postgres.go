package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"consentkit/pkg/platform/sentinel"
	"consentkit/pkg/requestcontext"
)

const defaultSlotTable = "consent_slots"

// PostgresSlot stores values in a PostgreSQL table keyed by name. Expired rows
// are invisible to Get; Prune deletes them.
type PostgresSlot struct {
	db    *sql.DB
	table string
}

// PostgresSlotOption configures a PostgresSlot instance.
type PostgresSlotOption func(*PostgresSlot)

// WithTable overrides the table name. The name is quoted, never interpolated raw.
func WithTable(name string) PostgresSlotOption {
	return func(p *PostgresSlot) {
		if name != "" {
			p.table = pq.QuoteIdentifier(name)
		}
	}
}

// NewPostgresSlot constructs a PostgreSQL-backed slot.
func NewPostgresSlot(db *sql.DB, opts ...PostgresSlotOption) *PostgresSlot {
	p := &PostgresSlot{
		db:    db,
		table: pq.QuoteIdentifier(defaultSlotTable),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// EnsureSchema creates the slot table when it does not exist.
func (p *PostgresSlot) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			name       TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			expires_at TIMESTAMPTZ
		)`, p.table)
	if _, err := p.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ensure consent slot schema: %w", err)
	}
	return nil
}

func (p *PostgresSlot) Get(ctx context.Context, name string) (string, error) {
	query := fmt.Sprintf(`
		SELECT value FROM %s
		WHERE name = $1 AND (expires_at IS NULL OR expires_at > $2)`, p.table)
	var value string
	err := p.db.QueryRowContext(ctx, query, name, requestcontext.Now(ctx)).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("select consent slot: %w", errors.Join(sentinel.ErrUnavailable, err))
	}
	return value, nil
}

// Set upserts the row in one statement.
func (p *PostgresSlot) Set(ctx context.Context, name, value string, ttl time.Duration) error {
	now := requestcontext.Now(ctx)
	var expiresAt sql.NullTime
	if ttl > 0 {
		expiresAt = sql.NullTime{Time: now.Add(ttl), Valid: true}
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (name, value, updated_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at,
			expires_at = EXCLUDED.expires_at`, p.table)
	if _, err := p.db.ExecContext(ctx, query, name, value, now, expiresAt); err != nil {
		return fmt.Errorf("upsert consent slot: %w", errors.Join(sentinel.ErrUnavailable, err))
	}
	return nil
}

func (p *PostgresSlot) Remove(ctx context.Context, name string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE name = $1`, p.table)
	if _, err := p.db.ExecContext(ctx, query, name); err != nil {
		return fmt.Errorf("delete consent slot: %w", errors.Join(sentinel.ErrUnavailable, err))
	}
	return nil
}

// Prune deletes rows whose host expiry has passed and returns how many went.
func (p *PostgresSlot) Prune(ctx context.Context) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE expires_at IS NOT NULL AND expires_at <= $1`, p.table)
	res, err := p.db.ExecContext(ctx, query, requestcontext.Now(ctx))
	if err != nil {
		return 0, fmt.Errorf("prune consent slots: %w", err)
	}
	return res.RowsAffected()
}

var _ Slot = (*PostgresSlot)(nil)
