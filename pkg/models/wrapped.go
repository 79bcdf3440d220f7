package models

import "time"

// Card is a single slide of a generated wrapped slideshow.
type Card struct {
	Type     string         `json:"type"`
	Title    string         `json:"title"`
	Subtitle string         `json:"subtitle,omitempty"`
	Detail   map[string]any `json:"detail,omitempty"`
}

// Wrapped is the persisted slideshow artifact for one user session,
// addressable by its opaque id.
type Wrapped struct {
	ID        string       `json:"id"`
	Cards     []Card       `json:"cards"`
	Records   []GameRecord `json:"records,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}
