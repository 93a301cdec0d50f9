package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
)

// DBPool matches the methods from *pgxpool.Pool that we use.
// This allows us to mock the database in tests.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PostgresSlot keeps cart values in the cart_slots table. The value column
// is TEXT rather than JSONB so a corrupt value can still be stored and read
// back; the cart store decides what to do with it.
type PostgresSlot struct {
	pool DBPool
}

func NewPostgresSlot(pool DBPool) *PostgresSlot {
	return &PostgresSlot{pool: pool}
}

func (p *PostgresSlot) Load(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := p.pool.QueryRow(ctx, `SELECT value FROM cart_slots WHERE slot_key=$1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrSlotEmpty
		}
		return nil, fmt.Errorf("select slot: %w", err)
	}
	return []byte(value), nil
}

func (p *PostgresSlot) Save(ctx context.Context, key string, value []byte) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO cart_slots(slot_key, value)
		VALUES($1, $2)
		ON CONFLICT (slot_key) DO UPDATE SET value=EXCLUDED.value, updated_at=now()
	`, key, string(value))
	if err != nil {
		return fmt.Errorf("upsert slot: %w", err)
	}
	return nil
}

func (p *PostgresSlot) Delete(ctx context.Context, key string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM cart_slots WHERE slot_key=$1`, key); err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	return nil
}
