package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"gamewrapped/pkg/models"
)

// FormatError reports a CSV whose header row is missing a required column.
type FormatError struct {
	Column string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("csv missing required column %q", e.Column)
}

// ParseError wraps a structural CSV parse failure.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return "csv parse: " + e.Err.Error() }
func (e *ParseError) Unwrap() error { return e.Err }

// placeholderTitle is assigned to rows with a blank title; such rows are
// dropped instead of being carried into the output.
const placeholderTitle = "Untitled"

// ParseCSV parses user-supplied gaming-history CSV text into normalized
// game records.
//
// Headers are matched case-insensitively with whitespace removed, so
// "Review Score" and "reviewscore" are the same column. Title and platform
// headers are required; rows whose title is blank are silently dropped.
func ParseCSV(text string) ([]models.GameRecord, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	if len(rows) == 0 {
		return nil, &ParseError{Err: errors.New("missing header row")}
	}

	header := make(map[string]int, len(rows[0]))
	for idx, name := range rows[0] {
		header[normalizeHeader(name)] = idx
	}
	for _, required := range []string{"title", "platform"} {
		if _, ok := header[required]; !ok {
			return nil, &FormatError{Column: required}
		}
	}

	records := make([]models.GameRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}

		title := valueAt(header, row, "title")
		if title == "" {
			title = placeholderTitle
		}
		if title == placeholderTitle {
			continue
		}

		platform := valueAt(header, row, "platform")
		if platform == "" {
			platform = "Unknown Platform"
		}

		rawScore := valueAt(header, row, "reviewscore")
		if rawScore == "" {
			rawScore = valueAt(header, row, "score")
		}
		var score any = rawScore
		if f, err := strconv.ParseFloat(rawScore, 64); err == nil {
			score = f
		}

		notes := valueAt(header, row, "reviewnotes")
		if notes == "" {
			notes = valueAt(header, row, "notes")
		}

		records = append(records, models.GameRecord{
			Title:    title,
			Platform: platform,
			Score:    score,
			Notes:    notes,
		})
	}

	return records, nil
}

// normalizeHeader lowercases a header cell and strips all whitespace.
func normalizeHeader(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func valueAt(header map[string]int, row []string, key string) string {
	idx, ok := header[key]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
