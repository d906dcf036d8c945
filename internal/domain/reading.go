package domain

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// regionRe matches a two-letter province code in parentheses at the end of a
// station name, e.g. "Guadalhorce en Cartama (MA)" -> "MA".
var regionRe = regexp.MustCompile(`\(([A-Z]{2})\)\s*$`)

// Station identifies a gauge station on the summary page. Identity is ID;
// Name and Region are descriptive.
type Station struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Region string `json:"region,omitempty"`
}

// Reading is one station's water level in a snapshot. A nil Level means the
// gauge reported nothing this cycle; it must never be treated as zero.
type Reading struct {
	Station Station  `json:"station"`
	Level   *float64 `json:"level,omitempty"`
}

// Snapshot is the full set of readings parsed from one fetch of the page.
type Snapshot struct {
	Readings []Reading `json:"readings"`
	// SourceUpdated is the page footer's "Datos actualizados a" text, kept
	// verbatim. Empty when the footer is missing.
	SourceUpdated string    `json:"source_updated,omitempty"`
	FetchedAt     time.Time `json:"fetched_at"`
}

// RunToken identifies the page revision this snapshot came from. Snapshots of
// an unchanged page share a token, which keeps event IDs stable across
// re-runs. Falls back to the fetch time when the footer was missing.
func (s Snapshot) RunToken() string {
	if s.SourceUpdated != "" {
		return s.SourceUpdated
	}
	return s.FetchedAt.UTC().Format(time.RFC3339)
}

// RegionFromName extracts the province suffix from a station name, or ""
// when the name carries none.
func RegionFromName(name string) string {
	m := regionRe.FindStringSubmatch(strings.TrimSpace(name))
	if len(m) == 2 {
		return m[1]
	}
	return ""
}

// ParseLevel converts a Spanish-locale level cell to a float. "N/D", empty
// cells, and anything unparseable become absent (nil) so malformed input can
// never masquerade as a crossing or a drop.
func ParseLevel(cell string) *float64 {
	cell = strings.TrimSpace(cell)
	if cell == "" || strings.EqualFold(cell, "n/d") {
		return nil
	}
	// "1.234,56" -> "1234.56"
	cell = strings.ReplaceAll(cell, ".", "")
	cell = strings.ReplaceAll(cell, ",", ".")
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return nil
	}
	return &v
}
