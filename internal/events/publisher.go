// Package events publishes classified commands and adaptation decisions to Kafka.
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
	"sense-adaptive-core/internal/observability/metrics"
)

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers          []string
	TopicCommands    string
	TopicAdaptations string
	Principal        string
	Enabled          bool
}

// route is where one event type goes. writer is nil in log-only mode.
type route struct {
	topic  string
	writer *kafka.Writer
}

// Publisher sends each event type to its own topic, keyed by session so one
// session's events stay ordered on one partition.
type Publisher struct {
	principal string
	routes    map[string]route
	enabled   bool
	now       func() time.Time
	metrics   *metrics.Metrics
}

// New creates a publisher. A nil config, a disabled config or one without
// brokers yields a log-only publisher.
func New(cfg *Config) *Publisher {
	p := &Publisher{
		routes:  make(map[string]route, 2),
		now:     time.Now,
		metrics: metrics.DefaultMetrics,
	}
	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return p
	}

	p.principal = cfg.Principal
	p.enabled = cfg.Enabled && len(cfg.Brokers) > 0

	var transport *kafka.Transport
	if p.enabled {
		// Longer dial timeout for DNS resolution in Kubernetes
		dialer := &kafka.Dialer{Timeout: 10 * time.Second, DualStack: true}
		transport = &kafka.Transport{Dial: dialer.DialFunc}
	}
	p.addRoute(models.EventTypeCommand, cfg.TopicCommands, cfg.Brokers, transport)
	p.addRoute(models.EventTypeAdaptation, cfg.TopicAdaptations, cfg.Brokers, transport)

	if !p.enabled {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return p
	}
	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicCommands", cfg.TopicCommands).
		Str("topicAdaptations", cfg.TopicAdaptations).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")
	return p
}

func (p *Publisher) addRoute(eventType, topic string, brokers []string, transport *kafka.Transport) {
	r := route{topic: topic}
	if transport != nil {
		r.writer = &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 10 * time.Second,
			RequiredAcks: kafka.RequireOne,
			Transport:    transport,
		}
	}
	p.routes[eventType] = r
}

// Topic returns the topic an event type is published to.
func (p *Publisher) Topic(eventType string) string {
	return p.routes[eventType].topic
}

// Enabled reports whether events reach Kafka.
func (p *Publisher) Enabled() bool { return p.enabled }

// PublishCommand publishes a classified command keyed by session.
func (p *Publisher) PublishCommand(ctx context.Context, sessionID string, cmd models.Command) error {
	return p.Publish(ctx, models.Event{
		EventType: models.EventTypeCommand,
		SessionID: sessionID,
		Command:   &cmd,
	})
}

// PublishAdaptation publishes an adaptation decision keyed by session.
func (p *Publisher) PublishAdaptation(ctx context.Context, sessionID string, d models.AdaptationDecision) error {
	return p.Publish(ctx, models.Event{
		EventType: models.EventTypeAdaptation,
		SessionID: sessionID,
		Decision:  &d,
	})
}

// Publish stamps ev when it has no timestamp and writes it to its topic.
func (p *Publisher) Publish(ctx context.Context, ev models.Event) error {
	r, ok := p.routes[ev.EventType]
	if !ok {
		return fmt.Errorf("no topic for event type %q", ev.EventType)
	}
	if ev.Timestamp == 0 {
		ev.Timestamp = p.now().UnixMilli()
	}
	return p.write(ctx, r, ev.EventType, ev.SessionID, ev)
}

func (p *Publisher) write(ctx context.Context, r route, eventType, key string, body any) error {
	start := time.Now()

	payload, err := json.Marshal(body)
	if err != nil {
		log.Error().Err(err).Str("topic", r.topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("topic", r.topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	if r.writer == nil {
		p.metrics.RecordKafkaPublish(r.topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	err = r.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	})
	p.metrics.RecordKafkaPublish(r.topic, eventType, err, time.Since(start).Seconds())
	if err != nil {
		log.Error().Err(err).Str("topic", r.topic).Str("key", key).Msg("Failed to write to Kafka")
		return err
	}
	return nil
}

// Close flushes and closes every writer.
func (p *Publisher) Close() error {
	var errs []error
	for _, r := range p.routes {
		if r.writer == nil {
			continue
		}
		if err := r.writer.Close(); err != nil {
			log.Error().Err(err).Str("topic", r.topic).Msg("Error closing Kafka writer")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
