package wrapped

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"

	"gamewrapped/pkg/models"
)

// Generator turns a set of normalized game records into slideshow cards.
type Generator interface {
	Generate(ctx context.Context, records []models.GameRecord) ([]models.Card, error)
}

const generateTimeout = 30 * time.Second

// HTTPGenerator ships records to a hosted card-generation endpoint and
// decodes whatever cards come back. It does no prompting of its own.
type HTTPGenerator struct {
	URL    string
	APIKey string
	Client *http.Client
}

func NewHTTPGenerator(url, apiKey string) *HTTPGenerator {
	return &HTTPGenerator{
		URL:    url,
		APIKey: apiKey,
		Client: &http.Client{Timeout: generateTimeout},
	}
}

func (g *HTTPGenerator) Generate(ctx context.Context, records []models.GameRecord) ([]models.Card, error) {
	body, err := json.Marshal(map[string]any{"games": records})
	if err != nil {
		return nil, fmt.Errorf("generator: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("generator: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.APIKey)
	}

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generator: call endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generator: endpoint status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("generator: read response: %w", err)
	}

	var out struct {
		Cards []models.Card `json:"cards"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("generator: decode response: %w", err)
	}
	if len(out.Cards) == 0 {
		return nil, fmt.Errorf("generator: endpoint returned no cards")
	}
	return out.Cards, nil
}

// StatsGenerator builds a deterministic slideshow from the records alone.
// It backs the HTTP generator so wrapped creation works without an AI
// endpoint configured.
type StatsGenerator struct{}

func (StatsGenerator) Generate(_ context.Context, records []models.GameRecord) ([]models.Card, error) {
	cards := []models.Card{
		{
			Type:  "intro",
			Title: "Your Gaming Wrapped",
			Detail: map[string]any{
				"totalGames": len(records),
			},
		},
	}

	if top, score, ok := topRated(records); ok {
		cards = append(cards, models.Card{
			Type:     "top_game",
			Title:    top.Title,
			Subtitle: "Your highest rated game",
			Detail: map[string]any{
				"score":    score,
				"platform": top.Platform,
			},
		})
	}

	if platform, count := topPlatform(records); platform != "" {
		cards = append(cards, models.Card{
			Type:     "platform",
			Title:    platform,
			Subtitle: "Your most played platform",
			Detail: map[string]any{
				"games": count,
			},
		})
	}

	cards = append(cards, models.Card{
		Type:  "outro",
		Title: fmt.Sprintf("%d games this year", len(records)),
	})

	return cards, nil
}

func topRated(records []models.GameRecord) (models.GameRecord, float64, bool) {
	var best models.GameRecord
	bestScore := -1.0
	for _, rec := range records {
		score, ok := numericScore(rec.Score)
		if ok && score > bestScore {
			best = rec
			bestScore = score
		}
	}
	return best, bestScore, bestScore >= 0
}

func topPlatform(records []models.GameRecord) (string, int) {
	counts := make(map[string]int)
	for _, rec := range records {
		counts[rec.Platform]++
	}

	platforms := make([]string, 0, len(counts))
	for p := range counts {
		platforms = append(platforms, p)
	}
	// ties break alphabetically so the slideshow is stable across runs
	sort.Slice(platforms, func(i, j int) bool {
		if counts[platforms[i]] != counts[platforms[j]] {
			return counts[platforms[i]] > counts[platforms[j]]
		}
		return platforms[i] < platforms[j]
	})

	if len(platforms) == 0 {
		return "", 0
	}
	return platforms[0], counts[platforms[0]]
}

func numericScore(score any) (float64, bool) {
	switch v := score.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}
