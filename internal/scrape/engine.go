package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"gamewrapped/internal/ingest"
	"gamewrapped/pkg/models"
)

const (
	defaultMaxPages    = 100
	defaultPageDelay   = time.Second
	defaultPageTimeout = 10 * time.Second

	// some profile sites answer bots with an empty shell page
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// Source is implemented by each scrapeable games site. Each source builds
// its own page URLs, parses its own page format into scraped entries
// (deduplicating within the page) and declares the CSV shape of its output.
type Source interface {
	Name() string
	PageURL(profile string, page int) string
	ParsePage(body []byte) ([]models.ScrapedEntry, error)
	Columns() []string
	Quote(field string) string
}

// ErrNoData means the session terminated without collecting any entries.
var ErrNoData = errors.New("scrape: no entries found for profile")

// RateLimitError is a 429 received before any data was collected. A 429
// received mid-session is not an error: the session keeps what it has.
type RateLimitError struct {
	Page int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("scrape: rate limited on page %d", e.Page)
}

// UpstreamError is any other non-OK page response, with the upstream
// status preserved for the caller.
type UpstreamError struct {
	Page   int
	Status int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("scrape: page %d: upstream status %d", e.Page, e.Status)
}

// TimeoutError marks a page fetch that exceeded the per-page timeout.
type TimeoutError struct {
	Page int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("scrape: page %d timed out", e.Page)
}

// Result is the accumulated output of one scrape session.
type Result struct {
	Entries []models.ScrapedEntry
	Pages   int
}

// Engine drives sequential page-by-page fetches for one profile. Pagination
// never overlaps: page N+1 is only fetched after page N resolved, so the
// inter-page delay and the dedup state are evaluated in page order.
type Engine struct {
	Client      *http.Client
	MaxPages    int
	PageDelay   time.Duration
	PageTimeout time.Duration
}

func NewEngine() *Engine {
	return &Engine{
		Client:      &http.Client{},
		MaxPages:    defaultMaxPages,
		PageDelay:   defaultPageDelay,
		PageTimeout: defaultPageTimeout,
	}
}

// Run executes one scrape session and returns everything collected.
//
// onProgress, when non-nil, is invoked exactly once per page, before that
// page's fetch. The session stops on the first empty page, after two
// consecutive pages that contributed no new titles, or at the page ceiling,
// whichever comes first.
func (e *Engine) Run(ctx context.Context, src Source, profile string, onProgress func(page, total int)) (*Result, error) {
	seen := make(map[string]struct{})
	var entries []models.ScrapedEntry
	pages := 0
	dupStreak := 0

	for page := 1; page <= e.MaxPages; page++ {
		if onProgress != nil {
			onProgress(page, len(entries))
		}

		if page > 1 {
			select {
			case <-time.After(e.PageDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		pageEntries, err := e.fetchPage(ctx, src, profile, page)
		if err != nil {
			var rl *RateLimitError
			if errors.As(err, &rl) && len(entries) > 0 {
				// throttled mid-session: the profile is likely
				// exhausted, keep what we have
				log.Printf("[scrape] %s: rate limited on page %d, keeping %d entries", src.Name(), page, len(entries))
				return &Result{Entries: entries, Pages: pages}, nil
			}
			return nil, err
		}
		pages = page

		if len(pageEntries) == 0 {
			break
		}

		added := 0
		for _, entry := range pageEntries {
			if _, dup := seen[entry.Title]; dup {
				continue
			}
			seen[entry.Title] = struct{}{}
			entries = append(entries, entry)
			added++
		}

		if added == 0 {
			dupStreak++
			if dupStreak >= 2 {
				break
			}
		} else {
			dupStreak = 0
		}
	}

	if len(entries) == 0 {
		return nil, ErrNoData
	}
	return &Result{Entries: entries, Pages: pages}, nil
}

func (e *Engine) fetchPage(ctx context.Context, src Source, profile string, page int) ([]models.ScrapedEntry, error) {
	pageCtx, cancel := context.WithTimeout(ctx, e.PageTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(pageCtx, http.MethodGet, src.PageURL(profile, page), nil)
	if err != nil {
		return nil, fmt.Errorf("scrape: build page %d request: %w", page, err)
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := e.Client.Do(req)
	if err != nil {
		if errors.Is(pageCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, &TimeoutError{Page: page}
		}
		return nil, fmt.Errorf("scrape: fetch page %d: %w", page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitError{Page: page}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{Page: page, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("scrape: read page %d: %w", page, err)
	}

	return src.ParsePage(body)
}

// Stream runs a full session and translates it into the three-event
// protocol consumed by the transport adapters (SSE, websocket): one
// progress event per page, then a single complete or error event.
func (e *Engine) Stream(ctx context.Context, src Source, profile string, emit func(event any)) {
	result, err := e.Run(ctx, src, profile, func(page, total int) {
		emit(ProgressEvent{Type: EventProgress, Page: page, TotalSoFar: total})
	})
	if err != nil {
		emit(ErrorEvent{Type: EventError, Error: err.Error()})
		return
	}

	csvText := ingest.EntriesToCSV(result.Entries, src.Columns(), src.Quote)
	emit(CompleteEvent{Type: EventComplete, CSV: csvText, Total: len(result.Entries)})
}
