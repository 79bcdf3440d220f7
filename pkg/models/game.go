package models

import "strconv"

// GameRecord is the normalized, internal form of one played game.
//
// All ingest paths (CSV upload, Backloggd scrape, Steam scrape) are mapped
// into this structure first, then the wrapped generator works from this
// representation.
type GameRecord struct {
	Title    string `json:"title"`
	Platform string `json:"platform"`
	// Score is a float64 when the source value parses as a number,
	// otherwise the original string (e.g. "N/A").
	Score any    `json:"score"`
	Notes string `json:"notes"`
}

// ScrapedEntry is one game row collected during a scrape session.
//
// Rating is pre-formatted with one decimal for star-rating sources and left
// empty for playtime-based sources, which fill PlaytimeMinutes instead.
type ScrapedEntry struct {
	Title           string
	Rating          string
	PlaytimeMinutes int
}

// Field returns the CSV cell value for a named column.
func (e ScrapedEntry) Field(name string) string {
	switch name {
	case "Title":
		return e.Title
	case "Rating":
		return e.Rating
	case "PlaytimeMinutes":
		return strconv.Itoa(e.PlaytimeMinutes)
	}
	return ""
}
