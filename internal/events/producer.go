package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	EventLoggedIn        = "user_logged_in"
	EventLoggedOut       = "user_logged_out"
	EventSessionsRevoked = "sessions_revoked"
)

type AuthEvent struct {
	Type      string    `json:"type"`
	AccountID uint      `json:"account_id,omitempty"`
	Username  string    `json:"username,omitempty"`
	At        time.Time `json:"at"`
}

// Producer publishes session-lifecycle events. Publishing is best-effort
// at the call sites; a broker outage never fails a login.
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, key string, event AuthEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("events: marshal: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: data,
	}); err != nil {
		return fmt.Errorf("events: write: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
