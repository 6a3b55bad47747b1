// assets/embed.go
//
// Embedded fallback country dataset. A trimmed extract of the World Bank
// boundaries catalog (centroids precomputed), so the server can run and be
// tested without a COUNTRIES_DB configured. Locales missing from a record
// are backfilled from English by the catalog loader.

package assets

import (
	_ "embed"
)

//go:embed countries.json
var countriesJSON []byte

// CountriesJSON returns the embedded fallback dataset.
func CountriesJSON() []byte { return countriesJSON }
