package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"order-board-service/internal/domain"
	"order-board-service/internal/platform/obs"
)

// SQLGeocodeStore persists geocode entries in the geocode_cache table.
// Resolved entries are never overwritten; an absent entry is replaced only
// by a newer one.
type SQLGeocodeStore struct {
	DB *sql.DB
}

func NewSQLGeocodeStore(db *sql.DB) *SQLGeocodeStore {
	return &SQLGeocodeStore{DB: db}
}

// Fetch stored entries for the given normalized addresses.
func (s *SQLGeocodeStore) GetMany(
	ctx context.Context,
	addresses []string,
) (_ map[string]domain.GeocodeEntry, err error) {
	defer obs.Time(ctx, "geocode.store.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("geocode store: db is nil")
	}

	uniq := uniqueKeys(addresses)
	if len(uniq) == 0 {
		return map[string]domain.GeocodeEntry{}, nil
	}

	q := `
	SELECT address, lat, lon, resolved_at
	FROM geocode_cache
	WHERE address = ANY($1::text[]);
	`

	rows, err := s.DB.QueryContext(ctx, q, uniq)
	if err != nil {
		return nil, fmt.Errorf("get geocode store: query geocode_cache table: %w", err)
	}
	defer rows.Close()

	out := make(map[string]domain.GeocodeEntry, len(uniq))
	for rows.Next() {
		var e domain.GeocodeEntry
		var lat, lon sql.NullFloat64
		if err := rows.Scan(&e.Address, &lat, &lon, &e.ResolvedAt); err != nil {
			return nil, fmt.Errorf("get geocode store: scan rows: %w", err)
		}
		if lat.Valid && lon.Valid {
			e.Coords = &domain.Coordinates{Lat: lat.Float64, Lon: lon.Float64}
		}
		out[e.Address] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get geocode store: row iteration: %w", err)
	}

	return out, nil
}

// Store new entries. Conflicting resolved rows are left untouched.
func (s *SQLGeocodeStore) PutMany(ctx context.Context, entries []domain.GeocodeEntry) (err error) {
	defer obs.Time(ctx, "geocode.store.PutMany")(&err)

	if s.DB == nil {
		return errors.New("geocode store: db is nil")
	}

	if len(entries) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert geocode store: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO geocode_cache (address, lat, lon, resolved_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (address) DO UPDATE
	SET lat = EXCLUDED.lat,
		lon = EXCLUDED.lon,
		resolved_at = EXCLUDED.resolved_at
	WHERE geocode_cache.lat IS NULL
		AND EXCLUDED.resolved_at > geocode_cache.resolved_at;
	`)
	if err != nil {
		return fmt.Errorf("insert geocode store: db prepare: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if strings.TrimSpace(e.Address) == "" {
			return errors.New("insert geocode store: empty address key")
		}

		var lat, lon sql.NullFloat64
		if e.Coords != nil {
			lat = sql.NullFloat64{Float64: e.Coords.Lat, Valid: true}
			lon = sql.NullFloat64{Float64: e.Coords.Lon, Valid: true}
		}

		if _, err := stmt.ExecContext(ctx, e.Address, lat, lon, e.ResolvedAt); err != nil {
			return fmt.Errorf("insert geocode store address=%q: %w", e.Address, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert geocode store commit: %w", err)
	}

	return nil
}

func uniqueKeys(addresses []string) []string {
	seen := make(map[string]struct{}, len(addresses))
	uniq := make([]string, 0, len(addresses))
	for _, a := range addresses {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		uniq = append(uniq, a)
	}
	return uniq
}
