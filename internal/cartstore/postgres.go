package cartstore

import (
	"context"

	"github.com/go-faster/errors"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"servicecart/db"
	"servicecart/internal/domain/cart"
)

// NewPool creates a pgxpool.Pool configured with shopspring/decimal support
// for NUMERIC columns.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parsing database config")
	}

	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "creating connection pool")
	}

	return pool, nil
}

// RunMigrations executes the embedded DDL schema against the pool.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, db.Schema); err != nil {
		return errors.Wrap(err, "running migrations")
	}
	return nil
}

// PostgresStore keeps cart slots in a database table, one row per item.
// It implements the same slot contract as FileStore for deployments where
// the storefront state should survive the host.
type PostgresStore struct {
	pool *pgxpool.Pool
	slot string
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a PostgresStore for the named slot.
func NewPostgresStore(pool *pgxpool.Pool, slot string) *PostgresStore {
	return &PostgresStore{pool: pool, slot: slot}
}

// Load reads all items of the slot in insertion order. An absent slot yields
// an empty cart.
func (s *PostgresStore) Load(ctx context.Context) (cart.Cart, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT item_id, name, price, image, quantity
		FROM cart_items
		WHERE slot = $1
		ORDER BY position
	`, s.slot)
	if err != nil {
		return cart.Cart{}, errors.Wrapf(err, "load slot %q", s.slot)
	}
	defer rows.Close()

	var items []cart.Item
	for rows.Next() {
		var it cart.Item
		if err := rows.Scan(&it.ID, &it.Name, &it.Price, &it.Image, &it.Quantity); err != nil {
			return cart.Cart{}, errors.Wrapf(err, "scan slot %q", s.slot)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return cart.Cart{}, errors.Wrapf(err, "iterate slot %q", s.slot)
	}

	return cart.New(items...), nil
}

// Save atomically replaces the slot's rows with the cart's items.
func (s *PostgresStore) Save(ctx context.Context, c cart.Cart) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin save")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE slot = $1`, s.slot); err != nil {
		return errors.Wrapf(err, "clear slot %q", s.slot)
	}

	for pos, it := range c.Items() {
		_, err := tx.Exec(ctx, `
			INSERT INTO cart_items (slot, position, item_id, name, price, image, quantity)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, s.slot, pos, it.ID, it.Name, it.Price, it.Image, it.Quantity)
		if err != nil {
			return errors.Wrapf(err, "insert item %q into slot %q", it.ID, s.slot)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit save")
	}
	return nil
}

// Clear removes every row of the slot.
func (s *PostgresStore) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM cart_items WHERE slot = $1`, s.slot); err != nil {
		return errors.Wrapf(err, "clear slot %q", s.slot)
	}
	return nil
}
