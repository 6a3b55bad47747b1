// internal/catalog/loader.go
//
// Loading the catalog from its external stores.
//
// Two sources, mirroring how the data ships:
//   1. A read-only SQLite database (COUNTRIES_DB) whose `country` table
//      carries one row per territory with name_* columns, a `type`
//      classification, and precomputed centroid lat/lon. One bulk query at
//      load time; Dependency/Lease rows are excluded in SQL.
//   2. An embedded JSON fallback dataset (assets package) so the server runs
//      without any database configured, e.g. in tests and development.
//
// Default() memoizes the load: the expensive query happens at most once per
// process regardless of how many sessions are served (first caller computes,
// everyone else reuses). Failures are wrapped in ErrStoreUnavailable and are
// fatal to startup — a partial catalog is never served.

package catalog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/spatiallit/worldle-server/assets"
)

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the process-wide catalog, loading it on first use.
// Source selection: COUNTRIES_DB env path if set, embedded data otherwise.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		if path := os.Getenv("COUNTRIES_DB"); path != "" {
			defaultCatalog, defaultErr = Open(path)
			if defaultErr == nil {
				log.Info().Str("path", path).Int("records", defaultCatalog.Len()).Msg("catalog loaded from sqlite")
			}
			return
		}
		defaultCatalog, defaultErr = FromJSON(assets.CountriesJSON())
		if defaultErr == nil {
			log.Info().Int("records", defaultCatalog.Len()).Msg("catalog loaded from embedded data")
		}
	})
	return defaultCatalog, defaultErr
}

// Open reads the full catalog from a SQLite database file. The file is
// opened read-only and closed once the rows are in memory.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro&immutable=1")
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrStoreUnavailable, path, err)
	}
	defer db.Close()
	return FromDB(db)
}

// FromDB runs the one bulk catalog query against an open database handle.
// Exposed separately so tests can load from an in-memory database.
func FromDB(db *sql.DB) (*Catalog, error) {
	cols := []string{"fid", "type", "lat", "lon"}
	for _, loc := range Locales {
		cols = append(cols, loc.column())
	}
	query := "SELECT " + strings.Join(cols, ", ") +
		" FROM country WHERE type != '" + KindDependency + "' AND type != '" + KindLease + "'" +
		" ORDER BY name_en"

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: query country table: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r     Record
			names = make([]sql.NullString, len(Locales))
			dest  = make([]any, 0, len(cols))
		)
		dest = append(dest, &r.FID, &r.Kind, &r.Lat, &r.Lon)
		for i := range names {
			dest = append(dest, &names[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("%w: scan country row: %v", ErrStoreUnavailable, err)
		}
		r.Names = make(map[Locale]string, len(Locales))
		for i, loc := range Locales {
			if names[i].Valid {
				r.Names[loc] = names[i].String
			}
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read country rows: %v", ErrStoreUnavailable, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: country table is empty", ErrStoreUnavailable)
	}

	c, err := New(records)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return c, nil
}

// seedRecord is the embedded-dataset row shape.
type seedRecord struct {
	FID   int64             `json:"fid"`
	Type  string            `json:"type"`
	Lat   float64           `json:"lat"`
	Lon   float64           `json:"lon"`
	Names map[string]string `json:"names"`
}

// FromJSON builds a catalog from the embedded JSON dataset, applying the
// same Dependency/Lease exclusion the SQL query does.
func FromJSON(data []byte) (*Catalog, error) {
	var seeds []seedRecord
	if err := json.Unmarshal(data, &seeds); err != nil {
		return nil, fmt.Errorf("%w: parse embedded dataset: %v", ErrStoreUnavailable, err)
	}
	var records []Record
	for _, s := range seeds {
		if s.Type == KindDependency || s.Type == KindLease {
			continue
		}
		names := make(map[Locale]string, len(s.Names))
		for code, n := range s.Names {
			names[Locale(code)] = n
		}
		records = append(records, Record{FID: s.FID, Kind: s.Type, Lat: s.Lat, Lon: s.Lon, Names: names})
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: embedded dataset is empty", ErrStoreUnavailable)
	}
	c, err := New(records)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return c, nil
}
