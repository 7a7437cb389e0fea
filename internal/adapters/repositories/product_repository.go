package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"order-board-service/internal/domain"
)

// Postgres-backed implementation of the ProductRepository port.
type PostgresProductRepository struct{ DB *sql.DB }

func NewPostgresProductRepository(db *sql.DB) *PostgresProductRepository {
	return &PostgresProductRepository{DB: db}
}

func (s *PostgresProductRepository) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	if s.DB == nil {
		return nil, errors.New("product repository: DB is nil")
	}

	query := `
	SELECT
		id,
		name,
		category,
		price_cents,
		description,
		special
	FROM products
	ORDER BY id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: query products table: %w", err)
	}
	defer rows.Close()

	products := make([]*domain.Product, 0, 64)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.PriceCents, &p.Description, &p.Special); err != nil {
			return nil, fmt.Errorf("list products: scan row: %w", err)
		}
		products = append(products, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list products: row iteration: %w", err)
	}

	return products, nil
}
