package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Publisher sends study events.
type Publisher interface {
	Publish(ctx context.Context, e *Event) error
	Close() error
}

// WatermillPublisher publishes JSON encoded events through any watermill
// publisher.
type WatermillPublisher struct {
	publisher message.Publisher
	logger    *slog.Logger
	topic     string
}

// NewWatermillPublisher wraps p. An empty topic selects DefaultTopic.
func NewWatermillPublisher(p message.Publisher, topic string, logger *slog.Logger) *WatermillPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &WatermillPublisher{publisher: p, logger: logger, topic: topic}
}

// KafkaConfig holds configuration for the Kafka publisher.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	Logger  *slog.Logger
}

// NewKafkaPublisher creates a Kafka-backed publisher.
func NewKafkaPublisher(cfg KafkaConfig) (*WatermillPublisher, error) {
	publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   cfg.Brokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, watermill.NewSlogLogger(cfg.Logger))
	if err != nil {
		return nil, fmt.Errorf("create kafka publisher: %w", err)
	}
	return NewWatermillPublisher(publisher, cfg.Topic, cfg.Logger), nil
}

// Topic returns the topic events are published on.
func (p *WatermillPublisher) Topic() string {
	return p.topic
}

func (p *WatermillPublisher) Publish(ctx context.Context, e *Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", e.Type, err)
	}

	msg := message.NewMessage(e.ID, payload)
	msg.Metadata.Set("event_type", string(e.Type))
	msg.Metadata.Set("source", e.Source)
	msg.Metadata.Set("version", e.Version)
	msg.Metadata.Set("learner_id", e.LearnerID)
	msg.Metadata.Set("timestamp", e.Timestamp.Format(time.RFC3339))
	msg.SetContext(ctx)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		p.logger.Error("publish study event failed", "event_id", e.ID, "event_type", e.Type, "error", err)
		return fmt.Errorf("publish %s event: %w", e.Type, err)
	}
	p.logger.Debug("published study event", "event_id", e.ID, "event_type", e.Type, "topic", p.topic)
	return nil
}

func (p *WatermillPublisher) Close() error {
	return p.publisher.Close()
}

// Fanout publishes every event to each publisher in turn.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, e *Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) Close() error {
	var errs []error
	for _, p := range f {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NopPublisher drops every event. Used when events are disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *Event) error { return nil }
func (NopPublisher) Close() error                          { return nil }

// MemoryPublisher keeps published events in memory.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (m *MemoryPublisher) Publish(_ context.Context, e *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *e)
	return nil
}

func (m *MemoryPublisher) Close() error { return nil }

// Events returns a copy of everything published so far.
func (m *MemoryPublisher) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

// OfType returns published events of type t.
func (m *MemoryPublisher) OfType(t Type) []Event {
	var out []Event
	for _, e := range m.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
