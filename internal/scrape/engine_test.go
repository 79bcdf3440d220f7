package scrape

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamewrapped/internal/ingest"
	"gamewrapped/pkg/models"
)

// scriptSource fetches JSON entry lists from a test server, so engine
// behavior can be scripted page by page.
type scriptSource struct {
	base string
}

func (s *scriptSource) Name() string { return "script" }

func (s *scriptSource) PageURL(profile string, page int) string {
	return fmt.Sprintf("%s/u/%s?page=%d", s.base, profile, page)
}

func (s *scriptSource) ParsePage(body []byte) ([]models.ScrapedEntry, error) {
	var entries []models.ScrapedEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *scriptSource) Columns() []string { return []string{"Title", "Rating"} }

func (s *scriptSource) Quote(field string) string { return ingest.QuoteField(field) }

func entriesJSON(titles ...string) string {
	entries := make([]models.ScrapedEntry, 0, len(titles))
	for _, title := range titles {
		entries = append(entries, models.ScrapedEntry{Title: title, Rating: "4.0"})
	}
	b, _ := json.Marshal(entries)
	return string(b)
}

func testEngine() *Engine {
	e := NewEngine()
	e.PageDelay = time.Millisecond
	return e
}

// newScriptServer serves each page through respond(page).
func newScriptServer(t *testing.T, respond func(page int, w http.ResponseWriter)) (*scriptSource, *int) {
	t.Helper()

	hits := 0
	var mu sync.Mutex
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		mu.Lock()
		hits++
		mu.Unlock()
		respond(page, w)
	}))
	t.Cleanup(ts.Close)

	return &scriptSource{base: ts.URL}, &hits
}

func titles(entries []models.ScrapedEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Title)
	}
	return out
}

func TestRunCollectsAcrossPages(t *testing.T) {
	src, hits := newScriptServer(t, func(page int, w http.ResponseWriter) {
		switch page {
		case 1:
			fmt.Fprint(w, entriesJSON("Game A", "Game B"))
		case 2:
			fmt.Fprint(w, entriesJSON("Game B", "Game C"))
		default:
			fmt.Fprint(w, "[]")
		}
	})

	result, err := testEngine().Run(context.Background(), src, "player", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Game A", "Game B", "Game C"}, titles(result.Entries))
	assert.Equal(t, 3, *hits, "terminates on the first empty page")
}

func TestRunNoDataOnEmptyFirstPage(t *testing.T) {
	src, hits := newScriptServer(t, func(page int, w http.ResponseWriter) {
		fmt.Fprint(w, "[]")
	})

	_, err := testEngine().Run(context.Background(), src, "player", nil)
	assert.ErrorIs(t, err, ErrNoData)
	assert.Equal(t, 1, *hits)
}

func TestRunStopsAfterTwoDuplicateHeavyPages(t *testing.T) {
	src, hits := newScriptServer(t, func(page int, w http.ResponseWriter) {
		// the site serves the same trailing page forever
		fmt.Fprint(w, entriesJSON("Game A", "Game B"))
	})

	result, err := testEngine().Run(context.Background(), src, "player", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Game A", "Game B"}, titles(result.Entries))
	assert.Equal(t, 3, *hits, "page 1 + two duplicate-heavy pages")
}

func TestRunDuplicateStreakResets(t *testing.T) {
	src, hits := newScriptServer(t, func(page int, w http.ResponseWriter) {
		switch page {
		case 1:
			fmt.Fprint(w, entriesJSON("Game A"))
		case 2:
			fmt.Fprint(w, entriesJSON("Game A"))
		case 3:
			fmt.Fprint(w, entriesJSON("Game B"))
		default:
			fmt.Fprint(w, entriesJSON("Game A", "Game B"))
		}
	})

	result, err := testEngine().Run(context.Background(), src, "player", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Game A", "Game B"}, titles(result.Entries))
	assert.Equal(t, 5, *hits, "one duplicate-heavy page does not terminate")
}

func TestRunRateLimitKeepsPartialData(t *testing.T) {
	src, _ := newScriptServer(t, func(page int, w http.ResponseWriter) {
		if page == 1 {
			fmt.Fprint(w, entriesJSON("Game A"))
			return
		}
		w.WriteHeader(http.StatusTooManyRequests)
	})

	result, err := testEngine().Run(context.Background(), src, "player", nil)
	require.NoError(t, err, "429 with collected data is a successful termination")
	assert.Equal(t, []string{"Game A"}, titles(result.Entries))
}

func TestRunRateLimitWithoutData(t *testing.T) {
	src, _ := newScriptServer(t, func(page int, w http.ResponseWriter) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := testEngine().Run(context.Background(), src, "player", nil)

	var rl *RateLimitError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, 1, rl.Page)
}

func TestRunUpstreamErrorAbortsDespitePartialData(t *testing.T) {
	src, _ := newScriptServer(t, func(page int, w http.ResponseWriter) {
		if page == 1 {
			fmt.Fprint(w, entriesJSON("Game A"))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := testEngine().Run(context.Background(), src, "player", nil)

	// only the 429 path keeps partial data; other HTTP errors may mean a
	// corrupted response rather than exhaustion
	var up *UpstreamError
	require.True(t, errors.As(err, &up))
	assert.Equal(t, http.StatusInternalServerError, up.Status)
	assert.Equal(t, 2, up.Page)
}

func TestRunPageCeiling(t *testing.T) {
	src, hits := newScriptServer(t, func(page int, w http.ResponseWriter) {
		fmt.Fprint(w, entriesJSON(fmt.Sprintf("Game %d", page)))
	})

	e := testEngine()
	e.MaxPages = 3

	result, err := e.Run(context.Background(), src, "player", nil)
	require.NoError(t, err)
	assert.Len(t, result.Entries, 3)
	assert.Equal(t, 3, *hits)
}

func TestRunPageTimeout(t *testing.T) {
	src, _ := newScriptServer(t, func(page int, w http.ResponseWriter) {
		time.Sleep(300 * time.Millisecond)
		fmt.Fprint(w, entriesJSON("Game A"))
	})

	e := testEngine()
	e.PageTimeout = 50 * time.Millisecond

	_, err := e.Run(context.Background(), src, "player", nil)

	var to *TimeoutError
	require.True(t, errors.As(err, &to), "want TimeoutError, got %v", err)
	assert.Equal(t, 1, to.Page)
}

func TestRunProgressEmittedBeforeEachFetch(t *testing.T) {
	var mu sync.Mutex
	var trace []string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		mu.Lock()
		trace = append(trace, "fetch-"+page)
		mu.Unlock()
		if page == "1" {
			fmt.Fprint(w, entriesJSON("Game A"))
			return
		}
		fmt.Fprint(w, "[]")
	}))
	t.Cleanup(ts.Close)
	src := &scriptSource{base: ts.URL}

	_, err := testEngine().Run(context.Background(), src, "player", func(page, total int) {
		mu.Lock()
		trace = append(trace, fmt.Sprintf("progress-%d-%d", page, total))
		mu.Unlock()
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"progress-1-0", "fetch-1", "progress-2-1", "fetch-2"}, trace)
}

func TestStreamEventSequence(t *testing.T) {
	src, _ := newScriptServer(t, func(page int, w http.ResponseWriter) {
		if page == 1 {
			fmt.Fprint(w, entriesJSON("Game A"))
			return
		}
		fmt.Fprint(w, "[]")
	})

	var events []any
	testEngine().Stream(context.Background(), src, "player", func(event any) {
		events = append(events, event)
	})

	require.Len(t, events, 3)
	assert.Equal(t, ProgressEvent{Type: EventProgress, Page: 1, TotalSoFar: 0}, events[0])
	assert.Equal(t, ProgressEvent{Type: EventProgress, Page: 2, TotalSoFar: 1}, events[1])

	complete, ok := events[2].(CompleteEvent)
	require.True(t, ok)
	assert.Equal(t, 1, complete.Total)
	assert.Contains(t, complete.CSV, `"Game A"`)
}

func TestStreamErrorEvent(t *testing.T) {
	src, _ := newScriptServer(t, func(page int, w http.ResponseWriter) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	var events []any
	testEngine().Stream(context.Background(), src, "player", func(event any) {
		events = append(events, event)
	})

	require.Len(t, events, 2)
	errEvent, ok := events[1].(ErrorEvent)
	require.True(t, ok)
	assert.Contains(t, errEvent.Error, "rate limited")
}
