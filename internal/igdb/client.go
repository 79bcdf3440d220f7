package igdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	apiBaseURL = "https://api.igdb.com/v4"

	// maxTitleLen caps search titles so a pathological upload cannot blow
	// up the query body.
	maxTitleLen = 120

	// topLimitCeiling is the hard cap on the top-of-year limit clause.
	topLimitCeiling = 20

	topCacheTTL = 6 * time.Hour
)

var errNoToken = errors.New("igdb: no app token available")

// GameLink is the canonical IGDB page for a matched game.
type GameLink struct {
	URL  string `json:"url"`
	Slug string `json:"slug"`
}

// TopGame is one entry of a top-of-year ranking. ImageURL is nil when the
// game has no usable cover.
type TopGame struct {
	Title    string  `json:"title"`
	ImageURL *string `json:"imageUrl"`
}

type topKey struct {
	Year int
	// YearMonth is the current UTC year-month, so cached rankings roll
	// over monthly even within the TTL.
	YearMonth string
}

type topEntry struct {
	capturedAt time.Time
	games      []TopGame
}

// Client is a best-effort IGDB metadata resolver. Every public operation
// absorbs upstream failure into a logged zero value: metadata enrichment is
// optional for callers and must never take an API response down with it.
type Client struct {
	BaseURL string
	Client  *http.Client
	Tokens  *TokenCache

	now func() time.Time

	mu  sync.Mutex
	top map[topKey]topEntry
}

func NewClient(tokens *TokenCache) *Client {
	return &Client{
		BaseURL: apiBaseURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
		Tokens:  tokens,
		now:     time.Now,
		top:     make(map[topKey]topEntry),
	}
}

// do posts a raw APIcalypse query and decodes the response into out.
// A 401/403 invalidates the cached token and the request is retried exactly
// once with a fresh one; a second auth failure, or any other non-OK
// response, is terminal.
func (c *Client) do(ctx context.Context, endpoint, query string, out any) error {
	for attempt := 0; attempt < 2; attempt++ {
		token := c.Tokens.Token(ctx)
		if token == "" {
			return errNoToken
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/"+endpoint, strings.NewReader(query))
		if err != nil {
			return fmt.Errorf("igdb: build %s request: %w", endpoint, err)
		}
		req.Header.Set("Client-ID", c.Tokens.ClientID)
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")

		resp, err := c.Client.Do(req)
		if err != nil {
			return fmt.Errorf("igdb: %s request: %w", endpoint, err)
		}

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			resp.Body.Close()
			c.Tokens.Invalidate()
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("igdb: read %s response: %w", endpoint, err)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("igdb: %s: status %d", endpoint, resp.StatusCode)
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("igdb: %s: decode: %w", endpoint, err)
		}
		return nil
	}

	return fmt.Errorf("igdb: %s: still unauthorized after token refresh", endpoint)
}

// sanitizeTitle makes a user-supplied title safe to embed in a quoted
// APIcalypse search clause: newlines flattened, quotes escaped, length
// capped.
func sanitizeTitle(title string) string {
	title = strings.NewReplacer("\r", " ", "\n", " ", `"`, `\"`).Replace(title)
	title = strings.TrimSpace(title)
	if runes := []rune(title); len(runes) > maxTitleLen {
		title = string(runes[:maxTitleLen])
	}
	return title
}

// absoluteImageURL fixes up the scheme-relative image URLs IGDB returns.
func absoluteImageURL(u string) string {
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	return u
}

// SearchCoverByTitle returns a thumb-size cover URL for the best search
// match with a cover, or "" when nothing suitable was found.
func (c *Client) SearchCoverByTitle(ctx context.Context, title string) string {
	query := fmt.Sprintf("fields name, cover.url; search \"%s\"; where cover != null; limit 1;", sanitizeTitle(title))

	var results []struct {
		Name  string `json:"name"`
		Cover struct {
			URL string `json:"url"`
		} `json:"cover"`
	}
	if err := c.do(ctx, "games", query, &results); err != nil {
		log.Printf("[igdb] cover search %q: %v", title, err)
		return ""
	}
	if len(results) == 0 || results[0].Cover.URL == "" {
		return ""
	}
	return absoluteImageURL(results[0].Cover.URL)
}

// SearchGameByTitle returns the canonical IGDB link for the best search
// match, or nil when there is none.
func (c *Client) SearchGameByTitle(ctx context.Context, title string) *GameLink {
	query := fmt.Sprintf("fields name, slug, url; search \"%s\"; limit 1;", sanitizeTitle(title))

	var results []struct {
		Name string `json:"name"`
		Slug string `json:"slug"`
		URL  string `json:"url"`
	}
	if err := c.do(ctx, "games", query, &results); err != nil {
		log.Printf("[igdb] game search %q: %v", title, err)
		return nil
	}
	if len(results) == 0 {
		return nil
	}

	link := &GameLink{URL: results[0].URL, Slug: results[0].Slug}
	if link.URL == "" && link.Slug != "" {
		link.URL = "https://www.igdb.com/games/" + link.Slug
	}
	return link
}

// TopGamesOfYear ranks the year's releases with covers by rating count,
// falling back to raw rating when no release has ratings yet. The limit is
// capped at topLimitCeiling. Results are cached for topCacheTTL; a cached
// entry only serves requests it has enough rows for, otherwise it is
// refetched with the larger limit and overwritten. Returns nil on failure.
func (c *Client) TopGamesOfYear(ctx context.Context, year, limit int) []TopGame {
	if limit <= 0 {
		return nil
	}
	if limit > topLimitCeiling {
		limit = topLimitCeiling
	}

	key := topKey{Year: year, YearMonth: c.now().UTC().Format("2006-01")}

	c.mu.Lock()
	entry, ok := c.top[key]
	c.mu.Unlock()
	if ok && c.now().Sub(entry.capturedAt) < topCacheTTL && len(entry.games) >= limit {
		return entry.games[:limit]
	}

	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).Unix()
	end := time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC).Unix()

	games := c.queryTop(ctx, start, end, limit, "rating_count desc")
	if games == nil {
		return nil
	}
	if len(games) == 0 {
		// early in a year every rating count can still be zero
		games = c.queryTop(ctx, start, end, limit, "rating desc")
		if games == nil {
			return nil
		}
	}

	c.mu.Lock()
	c.top[key] = topEntry{capturedAt: c.now(), games: games}
	c.mu.Unlock()

	if len(games) > limit {
		games = games[:limit]
	}
	return games
}

// queryTop runs one top-of-year query. Returns nil on error and a non-nil
// empty slice when the query succeeded with no rows, so the caller can tell
// "failed" apart from "empty".
func (c *Client) queryTop(ctx context.Context, start, end int64, limit int, sort string) []TopGame {
	query := fmt.Sprintf(
		"fields name, cover.url; where first_release_date >= %d & first_release_date < %d & cover != null; sort %s; limit %d;",
		start, end, sort, limit,
	)

	var results []struct {
		Name  string `json:"name"`
		Cover struct {
			URL string `json:"url"`
		} `json:"cover"`
	}
	if err := c.do(ctx, "games", query, &results); err != nil {
		log.Printf("[igdb] top of year query: %v", err)
		return nil
	}

	games := make([]TopGame, 0, len(results))
	for _, r := range results {
		g := TopGame{Title: r.Name}
		if r.Cover.URL != "" {
			u := absoluteImageURL(r.Cover.URL)
			g.ImageURL = &u
		}
		games = append(games, g)
	}
	return games
}
