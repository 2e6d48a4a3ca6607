package command

import (
	"testing"
	"unicode/utf8"

	"sense-adaptive-core/internal/models"
)

func TestLexicon_Lookup(t *testing.T) {
	l := NewLexicon()

	tests := []struct {
		item     string
		expected string
		found    bool
	}{
		{"headphones", "Wireless Headphones", true},
		{"Headphones", "Wireless Headphones", true},
		{"wireless headphones", "Wireless Headphones", true},
		{"red running shoes", "Running Shoes", true},
		{"laptops", "Laptop", true},
		{"smart watch", "Smart Watch", true},
		{"spaceship", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.item, func(t *testing.T) {
			p, ok := l.Lookup(tt.item)
			if ok != tt.found {
				t.Fatalf("expected found=%v, got %v", tt.found, ok)
			}
			if p.Name != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, p.Name)
			}
		})
	}
}

func TestLexicon_ResolveUnknown(t *testing.T) {
	p := NewLexicon().Resolve("purple hat")

	expected := models.ProductStub{Name: "Purple Hat", Price: DefaultPrice, Category: DefaultCategory}
	if p != expected {
		t.Errorf("expected %+v, got %+v", expected, p)
	}
	if p.Price < 0 {
		t.Error("price must not be negative")
	}
}

func TestTitleCase(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"purple hat", "Purple Hat"},
		{"éclair", "Éclair"},
		{"crème brûlée", "Crème Brûlée"},
		{"  spaced   out ", "Spaced Out"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := titleCase(tt.in)
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
			if !utf8.ValidString(got) {
				t.Errorf("expected valid UTF-8, got %q", got)
			}
		})
	}
}

func TestClassify_NonASCIIItemName(t *testing.T) {
	cmd := New().Classify("add éclair to cart", Context{})

	if cmd.Cart == nil || cmd.Cart.Item == nil {
		t.Fatalf("expected cart item, got %+v", cmd)
	}
	if name := cmd.Cart.Item.Name; name != "Éclair" || !utf8.ValidString(name) {
		t.Errorf("expected item name %q, got %q", "Éclair", name)
	}
}

func TestLexicon_Add(t *testing.T) {
	l := NewLexicon()
	l.Add("Gift Card", models.ProductStub{Name: "Gift Card", Price: 25, Category: "Gifts"})

	p, ok := l.Lookup("a gift card for mum")
	if !ok || p.Category != "Gifts" {
		t.Errorf("expected custom entry, got %+v (found=%v)", p, ok)
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in       string
		expected int
		ok       bool
	}{
		{"3", 3, true},
		{"twelve", 12, true},
		{"a couple of", 2, true},
		{"a dozen", 12, true},
		{"lots", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		n, ok := parseNumber(tt.in)
		if n != tt.expected || ok != tt.ok {
			t.Errorf("parseNumber(%q): expected %d/%v, got %d/%v", tt.in, tt.expected, tt.ok, n, ok)
		}
	}
}
