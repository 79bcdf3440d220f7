package scrape

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"gamewrapped/internal/ingest"
	"gamewrapped/pkg/models"
)

const backloggdBase = "https://backloggd.com"

// Backloggd scrapes the paginated games list of a public Backloggd profile.
//
// Each page renders game cards; a card carries the title and, when the user
// rated the game, a star bar whose width is a percentage of five stars.
// Older cards expose a raw 0-10 rating attribute instead.
type Backloggd struct {
	BaseURL string
}

func NewBackloggd() *Backloggd {
	return &Backloggd{BaseURL: backloggdBase}
}

func (b *Backloggd) Name() string { return "backloggd" }

func (b *Backloggd) Columns() []string { return []string{"Title", "Rating"} }

// Quote applies the formula-guarded CSV quoting: titles are arbitrary user
// text and end up opened in spreadsheet apps.
func (b *Backloggd) Quote(field string) string { return ingest.SanitizeField(field) }

func (b *Backloggd) PageURL(username string, page int) string {
	return fmt.Sprintf("%s/u/%s/games/added/?page=%d", b.BaseURL, username, page)
}

func (b *Backloggd) ParsePage(body []byte) ([]models.ScrapedEntry, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("backloggd: parse page: %w", err)
	}

	var entries []models.ScrapedEntry
	seen := make(map[string]struct{}) // page-local dedup

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if hasClass(n, "game-cover") {
			if entry, ok := parseCard(n); ok {
				if _, dup := seen[entry.Title]; !dup {
					seen[entry.Title] = struct{}{}
					entries = append(entries, entry)
				}
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return entries, nil
}

func parseCard(card *html.Node) (models.ScrapedEntry, bool) {
	title := ""
	if t := findByClass(card, "game-text-centered"); t != nil {
		title = strings.TrimSpace(textContent(t))
	}
	if title == "" {
		if img := findByTag(card, "img"); img != nil {
			if alt, ok := attrValue(img, "alt"); ok {
				title = strings.TrimSpace(alt)
			}
		}
	}
	if title == "" {
		return models.ScrapedEntry{}, false
	}

	rating := 0.0
	if width, ok := starWidth(card); ok {
		// the star bar width is a percentage of five stars
		rating = width / 20
	} else if raw := findAttr(card, "data-rating"); raw != "" {
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			rating = n / 2
		}
	}

	return models.ScrapedEntry{
		Title:  title,
		Rating: strconv.FormatFloat(rating, 'f', 1, 64),
	}, true
}

// starWidth extracts the percentage from the star bar's inline style,
// e.g. style="width: 90%".
func starWidth(card *html.Node) (float64, bool) {
	bar := findByClass(card, "stars-top")
	if bar == nil {
		return 0, false
	}
	style, ok := attrValue(bar, "style")
	if !ok {
		return 0, false
	}

	idx := strings.Index(style, "width:")
	if idx < 0 {
		return 0, false
	}
	val := style[idx+len("width:"):]
	if end := strings.IndexByte(val, '%'); end >= 0 {
		val = val[:end]
	} else if end := strings.IndexByte(val, ';'); end >= 0 {
		val = val[:end]
	}

	width, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil {
		return 0, false
	}
	return width, true
}
