// internal/catalog/catalog.go
//
// The country catalog: an immutable, ordered collection of country records
// with localized names and precomputed centroids.
//
// Responsibilities:
//   - Record/Catalog types and validation (unique FIDs, English name present).
//   - Canonical ordering: alphabetical by English name, used as the row order
//     for every table derived from the catalog.
//   - Locale-aware name resolution: display-name list per locale, and exact
//     reverse lookup from a display name back to a record FID.
//   - Uniform random selection of a mystery target.
//
// A Catalog is read-only after construction and safe to share across any
// number of concurrent game sessions.

package catalog

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sort"
)

var (
	// ErrStoreUnavailable wraps any failure to reach or read the catalog
	// store. Fatal at startup: no sessions can be served without a catalog.
	ErrStoreUnavailable = errors.New("catalog store unavailable")

	// ErrUnknownName reports a display name that matches no record in the
	// selected locale (a rejected guess, not a fault).
	ErrUnknownName = errors.New("unknown display name")
)

// Kinds excluded from the catalog entirely: they can be neither the mystery
// target nor a guess.
const (
	KindDependency = "Dependency"
	KindLease      = "Lease"
)

// Record is one country or territory, immutable once loaded.
type Record struct {
	FID   int64             // stable catalog key
	Kind  string            // e.g. "Country", "Sovereign country"
	Lat   float64           // centroid latitude, WGS84 decimal degrees
	Lon   float64           // centroid longitude
	Names map[Locale]string // display name per supported locale
}

// Name returns the record's display name in the given locale.
func (r Record) Name(loc Locale) string { return r.Names[NormalizeLocale(string(loc))] }

// Catalog is the ordered, immutable set of selectable records.
type Catalog struct {
	records []Record
	byFID   map[int64]int
	byName  map[Locale]map[string]int64
}

// New validates and indexes records into a Catalog.
//
// Rules applied:
//   - Dependency/Lease records are rejected upstream; New trusts its input.
//   - FIDs must be unique.
//   - Every record needs an English name; other locales are backfilled from
//     English when the store has no translation.
//   - Records are sorted by English name; that order is canonical.
func New(records []Record) (*Catalog, error) {
	c := &Catalog{
		records: make([]Record, 0, len(records)),
		byFID:   make(map[int64]int, len(records)),
		byName:  make(map[Locale]map[string]int64, len(Locales)),
	}

	for _, r := range records {
		en := r.Names[DefaultLocale]
		if en == "" {
			return nil, fmt.Errorf("record %d: missing English name", r.FID)
		}
		names := make(map[Locale]string, len(Locales))
		for _, loc := range Locales {
			if n := r.Names[loc]; n != "" {
				names[loc] = n
			} else {
				names[loc] = en
			}
		}
		r.Names = names
		c.records = append(c.records, r)
	}

	sort.Slice(c.records, func(i, j int) bool {
		return c.records[i].Names[DefaultLocale] < c.records[j].Names[DefaultLocale]
	})

	for i, r := range c.records {
		if _, dup := c.byFID[r.FID]; dup {
			return nil, fmt.Errorf("duplicate record fid %d", r.FID)
		}
		c.byFID[r.FID] = i
	}

	// Reverse lookup per locale. Display names within one locale are assumed
	// unique; the first occurrence in catalog order wins on a collision.
	for _, loc := range Locales {
		idx := make(map[string]int64, len(c.records))
		for _, r := range c.records {
			if _, taken := idx[r.Names[loc]]; !taken {
				idx[r.Names[loc]] = r.FID
			}
		}
		c.byName[loc] = idx
	}
	return c, nil
}

// Len reports the number of records.
func (c *Catalog) Len() int { return len(c.records) }

// Records returns the records in canonical order. Callers must treat the
// slice as read-only.
func (c *Catalog) Records() []Record { return c.records }

// ByFID looks up a record by its catalog key.
func (c *Catalog) ByFID(fid int64) (Record, bool) {
	i, ok := c.byFID[fid]
	if !ok {
		return Record{}, false
	}
	return c.records[i], true
}

// Names returns the display names for a locale in canonical catalog order.
func (c *Catalog) Names(loc Locale) []string {
	loc = NormalizeLocale(string(loc))
	out := make([]string, len(c.records))
	for i, r := range c.records {
		out[i] = r.Names[loc]
	}
	return out
}

// Resolve maps an exact display name in the given locale back to a record
// FID. Matching is case-sensitive, as stored. A miss returns ErrUnknownName.
func (c *Catalog) Resolve(loc Locale, name string) (int64, error) {
	loc = NormalizeLocale(string(loc))
	fid, ok := c.byName[loc][name]
	if !ok {
		return 0, fmt.Errorf("%w: %q (%s)", ErrUnknownName, name, loc)
	}
	return fid, nil
}

// RandomFID picks one record uniformly at random, for use as the mystery
// target of a new session.
func (c *Catalog) RandomFID() int64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(c.records))))
	return c.records[n.Int64()].FID
}
