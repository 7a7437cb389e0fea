package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Initialize the Postgres database schema.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createRestaurantsQuery := `
	CREATE TABLE IF NOT EXISTS restaurants (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		contact_phone TEXT NOT NULL DEFAULT ''
	);
	`

	createProductsQuery := `
	CREATE TABLE IF NOT EXISTS products (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		price_cents BIGINT NOT NULL CHECK (price_cents >= 0),
		description TEXT NOT NULL DEFAULT '',
		special BOOLEAN NOT NULL DEFAULT FALSE
	);
	`

	createMenuItemsQuery := `
	CREATE TABLE IF NOT EXISTS restaurant_menu_items (
		restaurant_id BIGINT NOT NULL REFERENCES restaurants(id) ON DELETE CASCADE,
		product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		availability BOOLEAN NOT NULL DEFAULT TRUE,
		PRIMARY KEY (restaurant_id, product_id)
	);
	`

	createOrdersQuery := `
	CREATE TABLE IF NOT EXISTS orders (
		id BIGSERIAL PRIMARY KEY,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		phone TEXT NOT NULL,
		address TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'UNPROCESSED',
		payment TEXT NOT NULL DEFAULT 'EPAY',
		comment TEXT NOT NULL DEFAULT '',
		restaurant_id BIGINT NULL REFERENCES restaurants(id) ON DELETE SET NULL,
		registered_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		called_at TIMESTAMPTZ NULL,
		delivered_at TIMESTAMPTZ NULL
	);
	`

	createOrderElementsQuery := `
	CREATE TABLE IF NOT EXISTS order_elements (
		id BIGSERIAL PRIMARY KEY,
		order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id BIGINT NOT NULL REFERENCES products(id),
		quantity INTEGER NOT NULL CHECK (quantity BETWEEN 1 AND 999),
		price_cents BIGINT NOT NULL CHECK (price_cents >= 0)
	);
	`

	createGeocodeCacheQuery := `
	CREATE TABLE IF NOT EXISTS geocode_cache (
		address TEXT PRIMARY KEY,
		lat DOUBLE PRECISION NULL,
		lon DOUBLE PRECISION NULL,
		resolved_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	createOrderStatusIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
	`

	createOrderElementsIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_order_elements_order ON order_elements(order_id);
	`

	statements := []string{
		createRestaurantsQuery,
		createProductsQuery,
		createMenuItemsQuery,
		createOrdersQuery,
		createOrderElementsQuery,
		createGeocodeCacheQuery,
		createOrderStatusIndexQuery,
		createOrderElementsIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
