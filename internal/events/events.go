// Package events publishes domain events (unlocks, goal completions,
// recorded progress) to NATS. Delivery is fire-and-forget.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	AchievementUnlocked = "achievement.unlocked"
	GoalCompleted       = "goal.completed"
	ProgressRecorded    = "habit.progress_recorded"
	HabitCreated        = "habit.created"
)

// SubjectPrefix is prepended to the event type to form the NATS subject.
const SubjectPrefix = "habits.events."

type Event struct {
	Type       string    `json:"type"`
	UserID     string    `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

type NATSPublisher struct {
	nc *nats.Conn
}

// Connect dials the NATS server at url.
func Connect(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("habit-tracker-api"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSPublisher{nc: nc}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", e.Type, err)
	}
	if err := p.nc.Publish(SubjectPrefix+e.Type, data); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	_ = p.nc.Drain()
}
