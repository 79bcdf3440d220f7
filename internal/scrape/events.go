package scrape

// Event type tags streamed to scrape clients.
const (
	EventProgress = "progress"
	EventComplete = "complete"
	EventError    = "error"
)

// ProgressEvent is emitted once per page, before that page is fetched.
type ProgressEvent struct {
	Type       string `json:"type"`
	Page       int    `json:"page"`
	TotalSoFar int    `json:"totalSoFar"`
}

// CompleteEvent carries the final CSV for a finished session.
type CompleteEvent struct {
	Type  string `json:"type"`
	CSV   string `json:"csv"`
	Total int    `json:"total"`
}

// ErrorEvent terminates a stream whose session failed.
type ErrorEvent struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
