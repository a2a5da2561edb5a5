package geocoding

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Querier is the subset of *pgxpool.Pool used to load gazetteer tables.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const (
	postalCodesQuery = `
		SELECT code, name, lat, lon
		FROM gazetteer_postal_codes
		ORDER BY position, code
	`
	placesQuery = `
		SELECT key, name, lat, lon
		FROM gazetteer_places
		ORDER BY position, key
	`
)

// LoadGazetteer reads postal codes and places from PostgreSQL. The position
// column carries the substring-match tie-break order.
func LoadGazetteer(ctx context.Context, db Querier) (*Gazetteer, error) {
	postal, err := loadGazetteerEntries(ctx, db, postalCodesQuery)
	if err != nil {
		return nil, fmt.Errorf("loading postal codes: %w", err)
	}

	places, err := loadGazetteerEntries(ctx, db, placesQuery)
	if err != nil {
		return nil, fmt.Errorf("loading places: %w", err)
	}

	return NewGazetteer(postal, places), nil
}

func loadGazetteerEntries(ctx context.Context, db Querier, query string) ([]GazetteerEntry, error) {
	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []GazetteerEntry
	for rows.Next() {
		var e GazetteerEntry
		if err := rows.Scan(&e.Key, &e.Name, &e.Coordinate.Lat, &e.Coordinate.Lon); err != nil {
			return nil, err
		}
		if err := e.Coordinate.Validate(); err != nil {
			return nil, fmt.Errorf("entry %q: %w", e.Key, err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
