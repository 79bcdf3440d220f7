package scrape

import (
	"bytes"
	"encoding/json"
	"fmt"

	"golang.org/x/net/html"

	"gamewrapped/internal/ingest"
	"gamewrapped/pkg/models"
)

const steamCommunityBase = "https://steamcommunity.com"

// Steam scrapes the games list of a public Steam community profile.
//
// The page embeds the full list as JSON in a template attribute, so parsing
// is a tree lookup plus a decode. Steam has no star ratings; entries carry
// playtime instead and the whole list repeats on trailing pages, which the
// engine's duplicate-heavy heuristic terminates on.
type Steam struct {
	BaseURL string
}

func NewSteam() *Steam {
	return &Steam{BaseURL: steamCommunityBase}
}

func (s *Steam) Name() string { return "steam" }

func (s *Steam) Columns() []string { return []string{"Title", "Rating", "PlaytimeMinutes"} }

// Quote uses plain RFC 4180 quoting without the formula guard.
func (s *Steam) Quote(field string) string { return ingest.QuoteField(field) }

func (s *Steam) PageURL(steamID string, page int) string {
	return fmt.Sprintf("%s/profiles/%s/games/?tab=all&page=%d", s.BaseURL, steamID, page)
}

func (s *Steam) ParsePage(body []byte) ([]models.ScrapedEntry, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("steam: parse page: %w", err)
	}

	raw := findAttr(doc, "data-profile-gameslist")
	if raw == "" {
		// private or empty profile renders no games list at all
		return nil, nil
	}

	var payload struct {
		Games []struct {
			AppID           int    `json:"appid"`
			Name            string `json:"name"`
			PlaytimeForever int    `json:"playtime_forever"`
		} `json:"rgGames"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("steam: decode games list: %w", err)
	}

	entries := make([]models.ScrapedEntry, 0, len(payload.Games))
	seen := make(map[string]struct{}) // page-local dedup
	for _, g := range payload.Games {
		if g.Name == "" {
			continue
		}
		if _, dup := seen[g.Name]; dup {
			continue
		}
		seen[g.Name] = struct{}{}
		entries = append(entries, models.ScrapedEntry{
			Title:           g.Name,
			PlaytimeMinutes: g.PlaytimeForever,
		})
	}
	return entries, nil
}
