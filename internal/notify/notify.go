// Package notify fans decision progress out over Redis pub/sub.
// Each application publishes on its own channel so observers can
// subscribe to a single run.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const channelPrefix = "decisions:"

// Event reports a progress step for one application.
type Event struct {
	ApplicationID    uuid.UUID `json:"application_id"`
	ProcessingStatus string    `json:"processing_status"`
	Status           string    `json:"status,omitempty"`
	Progress         string    `json:"progress,omitempty"`
	At               time.Time `json:"at"`
}

// Publisher emits progress events.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Notifier publishes and subscribes to progress events.
type Notifier struct {
	client *redis.Client
	logger *slog.Logger
}

// New creates a Notifier over the given Redis client.
func New(client *redis.Client, logger *slog.Logger) *Notifier {
	return &Notifier{
		client: client,
		logger: logger.With("system", "notify"),
	}
}

// Channel returns the pub/sub channel for an application.
func Channel(id uuid.UUID) string {
	return channelPrefix + id.String()
}

// Publish sends e to the application's channel.
func (n *Notifier) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	if err := n.client.Publish(ctx, Channel(e.ApplicationID), payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Subscribe streams events for id until ctx is cancelled.
// The returned channel is closed when the subscription ends.
// Subscribe returns after the subscription is confirmed, so events
// published afterwards are delivered.
func (n *Notifier) Subscribe(ctx context.Context, id uuid.UUID) (<-chan Event, error) {
	sub := n.client.Subscribe(ctx, Channel(id))
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", id, err)
	}

	events := make(chan Event)

	go func() {
		defer close(events)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				var e Event
				if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
					n.logger.Warn("discarding malformed event", "channel", msg.Channel, "error", err)
					continue
				}

				select {
				case events <- e:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events, nil
}
