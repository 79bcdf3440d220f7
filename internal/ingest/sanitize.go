package ingest

import (
	"fmt"
	"strings"
	"unicode"

	"gamewrapped/pkg/models"
)

// SanitizeField quotes one CSV field and neutralizes spreadsheet formula
// triggers. A nil value becomes a quoted empty field. When the first
// visible character (after skipping leading whitespace and control
// characters) is one of = + - @, the original value is prefixed with a tab
// so spreadsheet apps treat it as text while the visible content and any
// leading whitespace stay intact.
func SanitizeField(value any) string {
	if value == nil {
		return `""`
	}

	s := stringify(value)
	trimmed := strings.TrimLeftFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	})
	if trimmed != "" {
		switch trimmed[0] {
		case '=', '+', '-', '@':
			s = "\t" + s
		}
	}

	return QuoteField(s)
}

// QuoteField wraps a field in double quotes, doubling any embedded quotes.
// This is plain RFC 4180 quoting without the formula guard.
func QuoteField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// EntriesToCSV serializes scraped entries into CSV text with the given
// column order. Every field, header cells included, goes through quote.
// Lines are separated by \n.
func EntriesToCSV(entries []models.ScrapedEntry, columns []string, quote func(string) string) string {
	var b strings.Builder

	for i, col := range columns {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(quote(col))
	}
	b.WriteByte('\n')

	for _, e := range entries {
		for i, col := range columns {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(quote(e.Field(col)))
		}
		b.WriteByte('\n')
	}

	return b.String()
}
