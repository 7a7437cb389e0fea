package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"order-board-service/internal/domain"
)

type MenuItemSeed struct {
	ProductID int64 `json:"product_id"`
	Available bool  `json:"available"`
}

type RestaurantSeed struct {
	ID           int64          `json:"id"`
	Name         string         `json:"name"`
	Address      string         `json:"address"`
	ContactPhone string         `json:"contact_phone"`
	Menu         []MenuItemSeed `json:"menu"`
}

type ProductSeed struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	PriceCents  int64  `json:"price_cents"`
	Description string `json:"description"`
	Special     bool   `json:"special"`
}

type OrderLineSeed struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type OrderSeed struct {
	ID           int64           `json:"id"`
	FirstName    string          `json:"first_name"`
	LastName     string          `json:"last_name"`
	Phone        string          `json:"phone"`
	Address      string          `json:"address"`
	Status       string          `json:"status"`
	Payment      string          `json:"payment"`
	Comment      string          `json:"comment"`
	RestaurantID *int64          `json:"restaurant_id"`
	Lines        []OrderLineSeed `json:"lines"`
}

// Seed is the layout of the JSON seed file.
type Seed struct {
	Products    []ProductSeed    `json:"products"`
	Restaurants []RestaurantSeed `json:"restaurants"`
	Orders      []OrderSeed      `json:"orders"`
}

// Populate the database with catalog and order data from a JSON file.
// Rows are upserted by id so the seed can be applied repeatedly.
func SeedFromJSON(ctx context.Context, db *sql.DB, jsonPath string) error {
	if db == nil {
		return errors.New("seed: DB is nil")
	}

	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed: read %q: %w", jsonPath, err)
	}

	var data Seed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("seed: parse json: %w", err)
	}

	if err := data.validate(); err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range data.Products {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO products (id, name, category, price_cents, description, special)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
			category = EXCLUDED.category,
			price_cents = EXCLUDED.price_cents,
			description = EXCLUDED.description,
			special = EXCLUDED.special;
		`, p.ID, p.Name, p.Category, p.PriceCents, p.Description, p.Special); err != nil {
			return fmt.Errorf("seed: insert product id=%d: %w", p.ID, err)
		}
	}

	prices := make(map[int64]int64, len(data.Products))
	for _, p := range data.Products {
		prices[p.ID] = p.PriceCents
	}

	for _, r := range data.Restaurants {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO restaurants (id, name, address, contact_phone)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
			address = EXCLUDED.address,
			contact_phone = EXCLUDED.contact_phone;
		`, r.ID, r.Name, domain.NormalizeAddress(r.Address), r.ContactPhone); err != nil {
			return fmt.Errorf("seed: insert restaurant id=%d: %w", r.ID, err)
		}

		for _, m := range r.Menu {
			if _, err := tx.ExecContext(ctx, `
			INSERT INTO restaurant_menu_items (restaurant_id, product_id, availability)
			VALUES ($1, $2, $3)
			ON CONFLICT (restaurant_id, product_id) DO UPDATE
			SET availability = EXCLUDED.availability;
			`, r.ID, m.ProductID, m.Available); err != nil {
				return fmt.Errorf("seed: insert menu item restaurant_id=%d product_id=%d: %w", r.ID, m.ProductID, err)
			}
		}
	}

	for _, o := range data.Orders {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO orders (id, first_name, last_name, phone, address, status, payment, comment, restaurant_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE
		SET first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			phone = EXCLUDED.phone,
			address = EXCLUDED.address,
			status = EXCLUDED.status,
			payment = EXCLUDED.payment,
			comment = EXCLUDED.comment,
			restaurant_id = EXCLUDED.restaurant_id;
		`, o.ID, o.FirstName, o.LastName, o.Phone, domain.NormalizeAddress(o.Address),
			o.statusOrDefault(), o.paymentOrDefault(), o.Comment, o.RestaurantID); err != nil {
			return fmt.Errorf("seed: insert order id=%d: %w", o.ID, err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM order_elements WHERE order_id = $1;`, o.ID); err != nil {
			return fmt.Errorf("seed: clear order elements order_id=%d: %w", o.ID, err)
		}
		for _, l := range o.Lines {
			if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_elements (order_id, product_id, quantity, price_cents)
			VALUES ($1, $2, $3, $4);
			`, o.ID, l.ProductID, l.Quantity, prices[l.ProductID]); err != nil {
				return fmt.Errorf("seed: insert order element order_id=%d product_id=%d: %w", o.ID, l.ProductID, err)
			}
		}
	}

	// Explicit ids leave the serial sequences behind.
	for _, table := range []string{"products", "restaurants", "orders"} {
		q := fmt.Sprintf(
			`SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE(MAX(id), 1)) FROM %s;`,
			table, table,
		)
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("seed: reset %s sequence: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: commit tx: %w", err)
	}

	return nil
}

func (s *Seed) validate() error {
	products := make(map[int64]struct{}, len(s.Products))
	for i, p := range s.Products {
		if p.ID <= 0 {
			return fmt.Errorf("invalid product id at index %d: %d", i+1, p.ID)
		}
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("product id=%d: name cannot be empty", p.ID)
		}
		if p.PriceCents < 0 {
			return fmt.Errorf("product id=%d: price cannot be negative", p.ID)
		}
		products[p.ID] = struct{}{}
	}

	for i, r := range s.Restaurants {
		if r.ID <= 0 {
			return fmt.Errorf("invalid restaurant id at index %d: %d", i+1, r.ID)
		}
		if strings.TrimSpace(r.Name) == "" {
			return fmt.Errorf("restaurant id=%d: name cannot be empty", r.ID)
		}
		for _, m := range r.Menu {
			if _, ok := products[m.ProductID]; !ok {
				return fmt.Errorf("restaurant id=%d: unknown product %d", r.ID, m.ProductID)
			}
		}
	}

	for i, o := range s.Orders {
		if o.ID <= 0 {
			return fmt.Errorf("invalid order id at index %d: %d", i+1, o.ID)
		}
		if domain.NormalizeAddress(o.Address) == "" {
			return fmt.Errorf("order id=%d: address cannot be empty", o.ID)
		}
		if len(o.Lines) == 0 {
			return fmt.Errorf("order id=%d: no lines", o.ID)
		}
		if !domain.PaymentMethod(o.paymentOrDefault()).Valid() {
			return fmt.Errorf("order id=%d: unknown payment %q", o.ID, o.Payment)
		}
		for _, l := range o.Lines {
			if _, ok := products[l.ProductID]; !ok {
				return fmt.Errorf("order id=%d: unknown product %d", o.ID, l.ProductID)
			}
			if l.Quantity < 1 || l.Quantity > 999 {
				return fmt.Errorf("order id=%d: quantity %d out of range", o.ID, l.Quantity)
			}
		}
	}

	return nil
}

func (o OrderSeed) statusOrDefault() string {
	if o.Status == "" {
		return string(domain.StatusUnprocessed)
	}
	return o.Status
}

func (o OrderSeed) paymentOrDefault() string {
	if o.Payment == "" {
		return string(domain.PaymentEpay)
	}
	return o.Payment
}
