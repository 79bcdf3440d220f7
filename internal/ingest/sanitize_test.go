package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gamewrapped/pkg/models"
)

func TestSanitizeField(t *testing.T) {
	cases := []struct {
		name  string
		value any
		want  string
	}{
		{"nil", nil, `""`},
		{"plain", "hello", `"hello"`},
		{"embedded quote", `a"b`, `"a""b"`},
		{"formula equals", "=1+1", "\"\t=1+1\""},
		{"formula after leading spaces", "  =1+1", "\"\t  =1+1\""},
		{"leading spaces no trigger", "  hello", `"  hello"`},
		{"plus", "+441234", "\"\t+441234\""},
		{"minus", "-2", "\"\t-2\""},
		{"at", "@cmd", "\"\t@cmd\""},
		{"number", 42, `"42"`},
		{"empty string", "", `""`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SanitizeField(tc.value))
		})
	}
}

func TestQuoteField(t *testing.T) {
	assert.Equal(t, `"a""b"`, QuoteField(`a"b`))
	assert.Equal(t, `"=1+1"`, QuoteField("=1+1"), "plain quoting has no formula guard")
}

func TestEntriesToCSV(t *testing.T) {
	entries := []models.ScrapedEntry{
		{Title: "Game A", Rating: "4.5"},
		{Title: `He said "hi"`, Rating: "0.0"},
	}

	got := EntriesToCSV(entries, []string{"Title", "Rating"}, QuoteField)
	want := "\"Title\",\"Rating\"\n" +
		"\"Game A\",\"4.5\"\n" +
		"\"He said \"\"hi\"\"\",\"0.0\"\n"
	assert.Equal(t, want, got)
}

func TestEntriesToCSVPlaytimeColumns(t *testing.T) {
	entries := []models.ScrapedEntry{
		{Title: "Game A", PlaytimeMinutes: 90},
	}

	got := EntriesToCSV(entries, []string{"Title", "Rating", "PlaytimeMinutes"}, QuoteField)
	want := "\"Title\",\"Rating\",\"PlaytimeMinutes\"\n" +
		"\"Game A\",\"\",\"90\"\n"
	assert.Equal(t, want, got)
}
