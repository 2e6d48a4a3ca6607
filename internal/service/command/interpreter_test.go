package command

import (
	"testing"

	"sense-adaptive-core/internal/models"
	"sense-adaptive-core/internal/service/wakeword"
)

func TestInterpreter_ScenarioNavigation(t *testing.T) {
	in := NewInterpreter(nil, nil)

	cmd := in.Process("Hey Sense take me to products", false)
	if cmd.Type != models.CommandNavigation {
		t.Fatalf("expected navigation, got %s", cmd.Type)
	}
	if cmd.Route != "/products" {
		t.Errorf("expected /products, got %q", cmd.Route)
	}
	if cmd.Raw != "Hey Sense take me to products" {
		t.Errorf("expected raw transcript to be preserved, got %q", cmd.Raw)
	}
}

func TestInterpreter_ScenarioCartAdd(t *testing.T) {
	in := NewInterpreter(nil, nil)

	cmd := in.Process("Sense add headphones to cart", false)
	if cmd.Type != models.CommandCart || cmd.Cart == nil {
		t.Fatalf("expected cart, got %s", cmd.Type)
	}
	if cmd.Action != models.CartAdd {
		t.Errorf("expected add, got %s", cmd.Action)
	}
	expected := models.ProductStub{Name: "Wireless Headphones", Price: 79.99, Category: "Electronics"}
	if cmd.Cart.Item == nil || *cmd.Cart.Item != expected {
		t.Errorf("expected %+v, got %+v", expected, cmd.Cart.Item)
	}
}

func TestInterpreter_ScenarioGoodbyeInCommandMode(t *testing.T) {
	in := NewInterpreter(nil, nil)

	cmd := in.Process("thanks, done", true)
	if cmd.Type != models.CommandGeneral || cmd.Action != "goodbye" {
		t.Fatalf("expected general goodbye, got %s %s", cmd.Type, cmd.Action)
	}
	if !cmd.Deactivate {
		t.Error("expected deactivation intent")
	}
}

func TestInterpreter_WakeWordNeeded(t *testing.T) {
	in := NewInterpreter(nil, nil)

	utterances := []string{
		"take me to products",
		"add headphones to cart",
		"goodbye",
		"that makes sense",
		"enable high contrast",
		"",
	}
	for _, text := range utterances {
		t.Run(text, func(t *testing.T) {
			cmd := in.Process(text, false)
			if cmd.Type != models.CommandWakeWordNeeded {
				t.Errorf("expected %s, got %s", models.CommandWakeWordNeeded, cmd.Type)
			}
		})
	}
}

func TestInterpreter_WakePhraseWithKnownCommand(t *testing.T) {
	in := NewInterpreter(nil, nil)

	tests := []struct {
		text     string
		expected models.CommandType
	}{
		{"hey sense go to my cart", models.CommandNavigation},
		{"hi sense search for candles", models.CommandSearch},
		{"okay sense clear my cart", models.CommandCart},
		{"hello sense add two more apples", models.CommandQuantity},
		{"sense sort by price", models.CommandFilter},
		{"hey sense turn on high contrast", models.CommandAccessibility},
		{"hey sense plan a list for a barbecue", models.CommandAssistant},
		{"hey sense help", models.CommandGeneral},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			cmd := in.Process(tt.text, false)
			if cmd.Type != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, cmd.Type)
			}
		})
	}
}

func TestInterpreter_CommandModeSkipsWakeWord(t *testing.T) {
	in := NewInterpreter(nil, nil)

	cmd := in.Process("take me to products", true)
	if cmd.Type != models.CommandNavigation {
		t.Errorf("expected navigation in command mode, got %s", cmd.Type)
	}
}

func TestInterpreter_WakeOnlyFallsBackToOriginal(t *testing.T) {
	in := NewInterpreter(wakeword.New("sense"), New())

	cmd := in.Process("Hey Sense", false)
	if cmd.Type != models.CommandGeneral || cmd.Action != "greeting" {
		t.Errorf("expected greeting for bare wake phrase, got %s %s", cmd.Type, cmd.Action)
	}
}

func TestInterpreter_Context(t *testing.T) {
	in := NewInterpreter(nil, nil)
	product := &models.ProductStub{Name: "Desk Lamp", Price: 34.99, Category: "Home"}

	cmd := in.ProcessInContext("hey sense I'll take it", false, Context{Route: "/products/7", Product: product})
	if cmd.Type != models.CommandCart || cmd.Cart == nil || cmd.Cart.Item == nil {
		t.Fatalf("expected cart add, got %s", cmd.Type)
	}
	if cmd.Cart.Item.Name != "Desk Lamp" {
		t.Errorf("expected Desk Lamp, got %s", cmd.Cart.Item.Name)
	}
}
