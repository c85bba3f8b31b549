package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Emitter is what the command services publish through.
type Emitter interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

type Publisher struct {
	client *redis.Client
	maxLen int64
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client, maxLen: 10000}
}

func encode(eventType string, data any, now time.Time) ([]byte, error) {
	event := Event{
		Type:      eventType,
		Timestamp: now.UTC(),
		Data:      data,
	}
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return eventJSON, nil
}

func (p *Publisher) Publish(ctx context.Context, stream, eventType string, data any) error {
	eventJSON, err := encode(eventType, data, time.Now())
	if err != nil {
		return err
	}

	args := &redis.XAddArgs{
		Stream: stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{
			"event": eventJSON,
		},
	}

	if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// NopPublisher drops every event. Used when Redis is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, string, any) error { return nil }
