package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types
const (
	UserCreated = "user.created"

	BookCreated = "book.created"
	BookUpdated = "book.updated"
	BookDeleted = "book.deleted"
)

// Stream names
const (
	UserEventsStream = "user.events"
	BookEventsStream = "book.events"
)

// Base event structure
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// DecodeData converts the event payload into dst. After a round trip through
// a stream Data is a generic map, so it is re-encoded first.
func (e Event) DecodeData(dst any) error {
	raw, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("failed to encode event data: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to decode %s event data: %w", e.Type, err)
	}
	return nil
}

// User events. Never carries the password hash.
type UserCreatedEvent struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// Book events
type BookCreatedEvent struct {
	BookID   string  `json:"bookId"`
	UserID   string  `json:"userId"`
	Title    string  `json:"title"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
}

type BookUpdatedEvent struct {
	BookID string   `json:"bookId"`
	Fields []string `json:"fields"`
}

type BookDeletedEvent struct {
	BookID string `json:"bookId"`
	UserID string `json:"userId"`
}
