package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"sense-adaptive-core/internal/models"
)

func TestNew_DisabledMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"nil config", nil},
		{"disabled", &Config{Enabled: false, Brokers: []string{"localhost:9092"}}},
		{"no brokers", &Config{Enabled: true, Brokers: []string{}}},
		{"empty brokers", &Config{Enabled: true, Brokers: nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.cfg)
			if p == nil {
				t.Fatal("expected non-nil publisher")
			}
			if p.Enabled() {
				t.Error("expected publisher to be disabled")
			}
			for eventType, r := range p.routes {
				if r.writer != nil {
					t.Errorf("expected no writer for %s when disabled", eventType)
				}
			}
		})
	}
}

func TestNew_ConfigValues(t *testing.T) {
	cfg := &Config{
		Enabled:          false,
		Brokers:          []string{"localhost:9092"},
		TopicCommands:    "test.commands",
		TopicAdaptations: "test.adaptations",
		Principal:        "test-principal",
	}

	p := New(cfg)

	if p.principal != "test-principal" {
		t.Errorf("expected principal 'test-principal', got %s", p.principal)
	}
	if got := p.Topic(models.EventTypeCommand); got != "test.commands" {
		t.Errorf("expected commands topic 'test.commands', got %s", got)
	}
	if got := p.Topic(models.EventTypeAdaptation); got != "test.adaptations" {
		t.Errorf("expected adaptations topic 'test.adaptations', got %s", got)
	}
}

func TestNew_EnabledCreatesWriters(t *testing.T) {
	p := New(&Config{
		Enabled:          true,
		Brokers:          []string{"localhost:9092"},
		TopicCommands:    "test.commands",
		TopicAdaptations: "test.adaptations",
	})
	defer p.Close()

	if !p.Enabled() {
		t.Fatal("expected publisher to be enabled")
	}
	if w := p.routes[models.EventTypeCommand].writer; w == nil || w.Topic != "test.commands" {
		t.Error("expected commands writer on test.commands")
	}
	if w := p.routes[models.EventTypeAdaptation].writer; w == nil || w.Topic != "test.adaptations" {
		t.Error("expected adaptations writer on test.adaptations")
	}
}

func TestPublisher_PublishCommand_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false, TopicCommands: "test.commands"})

	cmd := models.Command{Type: models.CommandNavigation, Route: "/cart", Message: "Opening cart"}
	if err := p.PublishCommand(context.Background(), "s1", cmd); err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
}

func TestPublisher_PublishAdaptation_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false, TopicAdaptations: "test.adaptations"})

	d := models.AdaptationDecision{
		State:       models.AdaptationState{models.FocusMode: true},
		Changed:     []models.AdaptationKey{models.FocusMode},
		StressScore: 5,
		Source:      models.AdaptationSourceStress,
	}
	if err := p.PublishAdaptation(context.Background(), "s1", d); err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
}

func TestPublisher_Publish_InvalidJSON(t *testing.T) {
	p := New(&Config{Enabled: false})

	// Create an unmarshalable value (channel)
	err := p.write(context.Background(), route{topic: "test"}, "test", "key", make(chan int))
	if err == nil {
		t.Error("expected error for unmarshalable event")
	}
}

func TestPublisher_Publish_UnknownType(t *testing.T) {
	p := New(&Config{Enabled: false})

	if err := p.Publish(context.Background(), models.Event{EventType: "sense.other"}); err == nil {
		t.Error("expected an error for an unrouted event type")
	}
}

func TestPublisher_Close_NoWriters(t *testing.T) {
	p := New(&Config{Enabled: false})

	if err := p.Close(); err != nil {
		t.Errorf("expected no error closing disabled publisher, got %v", err)
	}
}

func TestDecode_PublisherEvents(t *testing.T) {
	cmd := models.Command{Type: models.CommandSearch, Route: "/products?search=shoes"}
	valid, _ := json.Marshal(models.Event{
		EventType: models.EventTypeCommand,
		SessionID: "s1",
		Command:   &cmd,
		Timestamp: time.Now().UnixMilli(),
	})
	decision, _ := json.Marshal(models.Event{
		EventType: models.EventTypeAdaptation,
		SessionID: "s1",
		Decision:  &models.AdaptationDecision{Source: models.AdaptationSourceOverride},
	})

	tests := []struct {
		name    string
		payload []byte
		wantErr bool
	}{
		{"command", valid, false},
		{"decision", decision, false},
		{"not json", []byte("{"), true},
		{"unknown type", []byte(`{"eventType":"other"}`), true},
		{"command without body", []byte(`{"eventType":"sense.command"}`), true},
		{"decision without body", []byte(`{"eventType":"sense.adaptation"}`), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := Decode(tt.payload)
			if (err != nil) != tt.wantErr {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if !tt.wantErr && ev.SessionID != "s1" {
				t.Errorf("expected session s1, got %q", ev.SessionID)
			}
		})
	}
}

func TestNewConsumer_RequiresTopic(t *testing.T) {
	if _, err := NewConsumer(ConsumerConfig{Brokers: []string{"localhost:9092"}}); err == nil {
		t.Error("expected an error without a topic")
	}
	if _, err := NewConsumer(ConsumerConfig{Topic: "sense.commands"}); err == nil {
		t.Error("expected an error without brokers")
	}
}
