// internal/arrow/arrow.go
//
// Direction-arrow icon rendering: a pure function from a bearing value to a
// presentational asset. The core game only ever supplies the numeric
// bearing; this package turns it into a 50x50 SVG arrow rotated so that a
// bearing of 0 points up and 90 points right, matching the planar bearing
// frame of the game.

package arrow

import (
	"encoding/base64"
	"fmt"
)

// svgTemplate draws an upward arrow centered in a 50x50 viewbox; the group
// rotation turns it toward the bearing.
const svgTemplate = `<svg xmlns="http://www.w3.org/2000/svg" width="50" height="50" viewBox="0 0 50 50">` +
	`<g transform="rotate(%.2f 25 25)">` +
	`<path d="M25 4 L38 30 L27 30 L27 46 L23 46 L23 30 L12 30 Z" fill="#1f2937"/>` +
	`</g></svg>`

// SVG renders the arrow icon for a bearing in degrees.
func SVG(bearing float64) []byte {
	return []byte(fmt.Sprintf(svgTemplate, bearing))
}

// DataURI renders the arrow as an inline image source, for clients that
// embed the icon directly in markup.
func DataURI(bearing float64) string {
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString(SVG(bearing))
}
