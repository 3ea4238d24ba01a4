package models

import "time"

// CatalogEvent is published after every successful catalog mutation.
type CatalogEvent struct {
	EventType string    `json:"event_type"`
	Kind      Kind      `json:"kind"`
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Timestamp time.Time `json:"timestamp"`
}
