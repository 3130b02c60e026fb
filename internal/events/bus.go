package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/resonman/ai-102-prep/internal/store"
)

// Publisher backends.
const (
	BackendGoChannel = "gochannel"
	BackendKafka     = "kafka"
)

// Config selects how study events are published.
type Config struct {
	Enabled      bool
	Publisher    string // gochannel or kafka
	KafkaBrokers []string
	Topic        string
}

// Bus owns the in-process channel, the history recorder consuming it and
// an optional Kafka publisher.
type Bus struct {
	Publisher Publisher

	channel *gochannel.GoChannel
	done    <-chan struct{}
}

// Open builds the event bus described by cfg. With events disabled the bus
// publishes nowhere. Otherwise every event is queued for an in-process
// channel, recorded into repo when repo is non-nil, and also to Kafka when
// that backend is selected. Publish returns once the event is queued.
func Open(ctx context.Context, cfg Config, repo store.EventRepo, logger *slog.Logger) (*Bus, error) {
	if !cfg.Enabled {
		logger.Debug("study events disabled")
		return &Bus{Publisher: NopPublisher{}}, nil
	}

	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	channel := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            64,
		BlockPublishUntilSubscriberAck: true,
	}, watermill.NewSlogLogger(logger))
	b := &Bus{channel: channel}

	// Subscribe before anything is published; gochannel drops messages
	// without subscribers.
	if repo != nil {
		done, err := Consume(ctx, channel, topic, NewRecorder(repo).Handle, logger)
		if err != nil {
			channel.Close()
			return nil, err
		}
		b.done = done
	}

	local := NewWatermillPublisher(channel, topic, logger)
	switch cfg.Publisher {
	case "", BackendGoChannel:
		b.Publisher = local
	case BackendKafka:
		kp, err := NewKafkaPublisher(KafkaConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   topic,
			Logger:  logger,
		})
		if err != nil {
			b.Publisher = local
			b.Close()
			return nil, err
		}
		b.Publisher = Fanout{local, kp}
	default:
		channel.Close()
		return nil, fmt.Errorf("unknown events publisher %q", cfg.Publisher)
	}

	b.Publisher = NewAsyncPublisher(b.Publisher, logger)

	logger.Debug("study events enabled", "publisher", cfg.Publisher, "topic", topic)
	return b, nil
}

// Publish sends e through the bus.
func (b *Bus) Publish(ctx context.Context, e *Event) error {
	return b.Publisher.Publish(ctx, e)
}

// Close drains queued events, closes the publishers and waits for the
// recorder to finish.
func (b *Bus) Close() error {
	err := b.Publisher.Close()
	if b.done != nil {
		<-b.done
	}
	return err
}
