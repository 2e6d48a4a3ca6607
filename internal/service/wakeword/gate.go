// Package wakeword decides whether a transcript fragment is addressed to the assistant.
package wakeword

import (
	"regexp"
	"strings"
)

// DefaultName is the assistant name used when none is configured.
const DefaultName = "sense"

// greetings precede the assistant name in the built-in wake phrases.
var greetings = []string{"hey", "hi", "hello", "ok", "okay"}

// Gate matches wake phrases case-insensitively.
type Gate struct {
	name    string
	phrases []string
	strip   *regexp.Regexp
	prefix  *regexp.Regexp
}

// New builds a gate for the assistant name plus any extra phrases.
func New(name string, extra ...string) *Gate {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultName
	}

	phrases := make([]string, 0, len(greetings)+len(extra))
	for _, g := range greetings {
		phrases = append(phrases, g+" "+name)
	}
	for _, p := range extra {
		p = normalizeSpace(strings.ToLower(p))
		if p != "" {
			phrases = append(phrases, p)
		}
	}

	alternatives := make([]string, 0, len(phrases))
	for _, p := range phrases {
		words := strings.Fields(p)
		for i := range words {
			words[i] = regexp.QuoteMeta(words[i])
		}
		alternatives = append(alternatives, strings.Join(words, `[\s,]+`))
	}

	return &Gate{
		name:    name,
		phrases: phrases,
		strip:   regexp.MustCompile(`(?i)\b(?:` + strings.Join(alternatives, "|") + `)\b[\s,.!?]*`),
		prefix:  regexp.MustCompile(`(?i)^\s*` + regexp.QuoteMeta(name) + `\b[\s,.!?]*`),
	}
}

// Name returns the assistant name.
func (g *Gate) Name() string {
	return g.name
}

// Phrases returns the wake phrases in match order.
func (g *Gate) Phrases() []string {
	return append([]string(nil), g.phrases...)
}

// Detect reports whether text contains a wake phrase or begins with the
// assistant name. False positives are cheap; false negatives drop commands.
func (g *Gate) Detect(text string) bool {
	lowered := normalizeSpace(strings.ToLower(text))
	if lowered == "" {
		return false
	}
	for _, p := range g.phrases {
		if strings.Contains(lowered, p) {
			return true
		}
	}
	return g.strip.MatchString(text) || g.prefix.MatchString(text)
}

// Strip removes every wake phrase occurrence and a leading assistant name.
// The result may be empty when the utterance was only a wake phrase.
func (g *Gate) Strip(text string) string {
	out := g.strip.ReplaceAllString(text, " ")
	out = g.prefix.ReplaceAllString(out, "")
	out = strings.Trim(normalizeSpace(out), " ,.!?")
	return out
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
