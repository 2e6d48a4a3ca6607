// Package command maps de-waked utterances onto the closed command taxonomy.
package command

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"sense-adaptive-core/internal/models"
)

// DefaultOrder is the category priority. The first category with a matching
// pattern wins, so "add milk to my list" is an assistant request rather than
// a cart add.
var DefaultOrder = []models.CommandType{
	models.CommandAccessibility,
	models.CommandFilter,
	models.CommandQuantity,
	models.CommandAssistant,
	models.CommandCart,
	models.CommandSearch,
	models.CommandNavigation,
	models.CommandGeneral,
}

// Context describes where the consumer currently is. It feeds the contextual
// fallback ("add this" on a product page).
type Context struct {
	Route   string              `json:"route,omitempty"`
	Product *models.ProductStub `json:"product,omitempty"`
}

// Handler builds a command from the submatches of a pattern.
type Handler func(c *Classifier, m []string, cctx Context) models.Command

// Pattern is one entry of a category's ordered pattern list.
type Pattern struct {
	Name    string
	Expr    *regexp.Regexp
	Handler Handler
}

// Category is a command type together with its ordered patterns.
type Category struct {
	Type     models.CommandType
	Patterns []Pattern
}

// Match reports which pattern claimed an utterance.
type Match struct {
	Category models.CommandType
	Pattern  string
	Groups   []string
}

// Classifier is a total function from utterance to Command. It is safe for
// concurrent use once constructed.
type Classifier struct {
	order      []models.CommandType
	categories map[models.CommandType]Category
	lexicon    *Lexicon
	routes     map[string]string
}

// Option customizes a Classifier.
type Option func(*Classifier)

// WithLexicon replaces the product lexicon.
func WithLexicon(l *Lexicon) Option {
	return func(c *Classifier) {
		if l != nil {
			c.lexicon = l
		}
	}
}

// WithRoutes adds or overrides navigation destinations.
func WithRoutes(routes map[string]string) Option {
	return func(c *Classifier) {
		for dest, route := range routes {
			c.routes[strings.ToLower(dest)] = route
		}
	}
}

// WithOrder replaces the category priority. Unknown types are ignored;
// categories left out are never consulted.
func WithOrder(order []models.CommandType) Option {
	return func(c *Classifier) {
		c.order = c.order[:0]
		for _, t := range order {
			if _, ok := c.categories[t]; ok {
				c.order = append(c.order, t)
			}
		}
	}
}

// New builds a classifier with the default taxonomy, lexicon and routes.
func New(opts ...Option) *Classifier {
	c := &Classifier{
		lexicon: NewLexicon(),
		routes:  make(map[string]string, len(defaultRoutes)),
	}
	for dest, route := range defaultRoutes {
		c.routes[dest] = route
	}
	c.categories = make(map[models.CommandType]Category)
	for _, cat := range taxonomy() {
		c.categories[cat.Type] = cat
	}
	c.order = append([]models.CommandType(nil), DefaultOrder...)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Order returns the effective category priority.
func (c *Classifier) Order() []models.CommandType {
	return append([]models.CommandType(nil), c.order...)
}

// Lexicon exposes the product lexicon.
func (c *Classifier) Lexicon() *Lexicon { return c.lexicon }

// Match finds the first pattern, in priority order, matching text.
func (c *Classifier) Match(text string) (Match, bool) {
	norm := Normalize(text)
	if norm == "" {
		return Match{}, false
	}
	for _, t := range c.order {
		for _, p := range c.categories[t].Patterns {
			if m := p.Expr.FindStringSubmatch(norm); m != nil {
				return Match{Category: t, Pattern: p.Name, Groups: m}, true
			}
		}
	}
	return Match{}, false
}

// Classify returns exactly one command for text. Unmatched input yields the
// contextual fallback or an unknown command with a help message.
func (c *Classifier) Classify(text string, cctx Context) (cmd models.Command) {
	defer func() {
		if r := recover(); r != nil {
			cmd = unknownCommand(text)
			cmd.Error = fmt.Sprintf("classifier failure: %v", r)
		}
	}()

	if m, ok := c.Match(text); ok {
		for _, p := range c.categories[m.Category].Patterns {
			if p.Name == m.Pattern {
				cmd = p.Handler(c, m.Groups, cctx)
				break
			}
		}
	} else if fb, ok := c.fallback(Normalize(text), cctx); ok {
		cmd = fb
	} else {
		cmd = unknownCommand(text)
	}
	cmd.Raw = text
	return cmd
}

// Categories returns the types with registered patterns, sorted by name.
func (c *Classifier) Categories() []models.CommandType {
	out := make([]models.CommandType, 0, len(c.categories))
	for t := range c.categories {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

var (
	contextualAdd      = regexp.MustCompile(`\b(?:add|buy|take|want|get|grab|purchase)\b.*\b(?:this|it|that|this one|that one)\b`)
	contextualCheckout = regexp.MustCompile(`\b(?:pay|proceed|finish|check ?out|checkout)\b`)
)

func (c *Classifier) fallback(norm string, cctx Context) (models.Command, bool) {
	if norm == "" {
		return models.Command{}, false
	}
	if cctx.Product != nil && contextualAdd.MatchString(norm) {
		return cartAdd(*cctx.Product, 1), true
	}
	if strings.HasPrefix(cctx.Route, "/cart") && contextualCheckout.MatchString(norm) {
		return c.navigate("checkout"), true
	}
	return models.Command{}, false
}

const helpMessage = `I didn't understand that. Try "take me to products", "search for shoes", "add headphones to cart" or "enable high contrast".`

func unknownCommand(text string) models.Command {
	return models.Command{
		Type:    models.CommandUnknown,
		Message: helpMessage,
		Speak:   "Sorry, I didn't catch that. Say help to hear what I can do.",
		Raw:     text,
	}
}

// Normalize lowercases text and turns punctuation into spaces. Apostrophes,
// dollar signs and decimal points between digits survive.
func Normalize(text string) string {
	runes := []rune(strings.ToLower(text))
	var b strings.Builder
	b.Grow(len(runes))
	for i, r := range runes {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '\'', r == '$':
			b.WriteRune(r)
		case r == '.' && i > 0 && i+1 < len(runes) && unicode.IsDigit(runes[i-1]) && unicode.IsDigit(runes[i+1]):
			b.WriteRune(r)
		case r == '’':
			b.WriteRune('\'')
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// alternation joins phrases into a regexp alternation, longest first so that
// "focus mode" is preferred over "focus".
func alternation(phrases []string) string {
	sorted := append([]string(nil), phrases...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if len(sorted[i]) != len(sorted[j]) {
			return len(sorted[i]) > len(sorted[j])
		}
		return sorted[i] < sorted[j]
	})
	quoted := make([]string, len(sorted))
	for i, p := range sorted {
		quoted[i] = regexp.QuoteMeta(p)
	}
	return "(?:" + strings.Join(quoted, "|") + ")"
}
