package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"sense-adaptive-core/internal/models"
)

// ConsumerConfig selects the topics to tail.
type ConsumerConfig struct {
	Brokers []string
	Topic   string
	Since   time.Duration // replay window; zero starts at the newest offset
}

// Handler receives every decoded event.
type Handler func(models.Event)

// Consumer tails one topic from partition 0 without a consumer group.
type Consumer struct {
	reader *kafka.Reader
	topic  string
	since  time.Duration
}

// NewConsumer creates a reader for cfg.Topic.
func NewConsumer(cfg ConsumerConfig) (*Consumer, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		return nil, errors.New("consumer needs brokers and a topic")
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   cfg.Brokers,
		Topic:     cfg.Topic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	return &Consumer{reader: reader, topic: cfg.Topic, since: cfg.Since}, nil
}

// Run reads until ctx is cancelled. Malformed messages are skipped.
func (c *Consumer) Run(ctx context.Context, h Handler) error {
	if c.since > 0 {
		if err := c.reader.SetOffsetAt(ctx, time.Now().Add(-c.since)); err != nil {
			log.Warn().Err(err).Str("topic", c.topic).Msg("Failed to seek, reading from current offset")
		}
	} else if err := c.reader.SetOffset(kafka.LastOffset); err != nil {
		log.Warn().Err(err).Str("topic", c.topic).Msg("Failed to seek to newest offset")
	}

	log.Info().Str("topic", c.topic).Dur("since", c.since).Msg("Consuming events")

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Warn().Err(err).Str("topic", c.topic).Msg("Kafka read error")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		ev, err := Decode(msg.Value)
		if err != nil {
			log.Warn().Err(err).Str("topic", c.topic).Msg("Skipping malformed event")
			continue
		}
		h(ev)
	}
}

// Close releases the reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}

// Decode parses one event payload and checks that its body matches its type.
func Decode(payload []byte) (models.Event, error) {
	var ev models.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return models.Event{}, fmt.Errorf("decode event: %w", err)
	}
	switch ev.EventType {
	case models.EventTypeCommand:
		if ev.Command == nil {
			return models.Event{}, errors.New("command event without command")
		}
	case models.EventTypeAdaptation:
		if ev.Decision == nil {
			return models.Event{}, errors.New("adaptation event without decision")
		}
	default:
		return models.Event{}, fmt.Errorf("unknown event type %q", ev.EventType)
	}
	return ev, nil
}
