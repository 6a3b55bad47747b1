// internal/catalog/locale.go
//
// Locale codes supported by the country catalog. Each locale selects one
// localized display-name column; guesses are matched against the selected
// column only.

package catalog

// Locale is a two-letter language code selecting a display-name column.
type Locale string

// DefaultLocale is used whenever an unknown or empty code is supplied.
const DefaultLocale Locale = "en"

// Locales is the fixed set of supported locale codes, matching the name_*
// columns of the country table.
var Locales = []Locale{
	"ar", "bn", "de", "el", "en", "es", "fr",
	"hi", "hu", "id", "it", "ja", "ko", "nl",
	"pl", "pt", "ru", "sv", "tr", "vi", "zh",
}

var localeSet = func() map[Locale]struct{} {
	m := make(map[Locale]struct{}, len(Locales))
	for _, l := range Locales {
		m[l] = struct{}{}
	}
	return m
}()

// NormalizeLocale maps an externally supplied code onto the supported set.
// Unknown codes fall back to DefaultLocale rather than erroring.
func NormalizeLocale(code string) Locale {
	if _, ok := localeSet[Locale(code)]; ok {
		return Locale(code)
	}
	return DefaultLocale
}

// column returns the catalog-store column name for the locale.
func (l Locale) column() string { return "name_" + string(l) }
