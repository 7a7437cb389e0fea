package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"order-board-service/internal/domain"
	"order-board-service/internal/platform/obs"
)

// Postgres-backed implementation of the RestaurantRepository port.
type PostgresRestaurantRepository struct{ DB *sql.DB }

func NewPostgresRestaurantRepository(db *sql.DB) *PostgresRestaurantRepository {
	return &PostgresRestaurantRepository{DB: db}
}

// Return all restaurants ordered by name, each with its menu availability.
func (s *PostgresRestaurantRepository) ListRestaurants(ctx context.Context) (_ []*domain.Restaurant, err error) {
	defer obs.Time(ctx, "restaurants.List")(&err)

	if s.DB == nil {
		return nil, errors.New("restaurant repository: DB is nil")
	}

	query := `
	SELECT
		id,
		name,
		address,
		contact_phone
	FROM restaurants
	ORDER BY name, id;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: query restaurants table: %w", err)
	}
	defer rows.Close()

	restaurants := make([]*domain.Restaurant, 0, 16)
	byID := make(map[int64]*domain.Restaurant)
	for rows.Next() {
		r := &domain.Restaurant{Menu: make(map[int64]bool)}
		if err := rows.Scan(&r.ID, &r.Name, &r.Address, &r.ContactPhone); err != nil {
			return nil, fmt.Errorf("list restaurants: scan row: %w", err)
		}
		restaurants = append(restaurants, r)
		byID[r.ID] = r
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list restaurants: row iteration: %w", err)
	}

	if len(restaurants) == 0 {
		return restaurants, nil
	}

	menuQuery := `
	SELECT
		restaurant_id,
		product_id,
		availability
	FROM restaurant_menu_items;
	`
	menuRows, err := s.DB.QueryContext(ctx, menuQuery)
	if err != nil {
		return nil, fmt.Errorf("list restaurants: query menu items: %w", err)
	}
	defer menuRows.Close()

	for menuRows.Next() {
		var restaurantID, productID int64
		var available bool
		if err := menuRows.Scan(&restaurantID, &productID, &available); err != nil {
			return nil, fmt.Errorf("list restaurants: scan menu item: %w", err)
		}
		if r, ok := byID[restaurantID]; ok {
			r.Menu[productID] = available
		}
	}
	if err := menuRows.Err(); err != nil {
		return nil, fmt.Errorf("list restaurants: menu iteration: %w", err)
	}

	return restaurants, nil
}
