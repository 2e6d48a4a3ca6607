package command

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"sense-adaptive-core/internal/models"
)

// Defaults for items the lexicon does not know.
const (
	DefaultPrice    = 9.99
	DefaultCategory = "General"
)

// Lexicon resolves spoken item names to product stubs. It is intentionally
// small; the consumer resolves stubs against the real catalog.
type Lexicon struct {
	entries map[string]models.ProductStub
	aliases []string // longest first
}

var defaultProducts = []struct {
	aliases []string
	product models.ProductStub
}{
	{[]string{"wireless headphones", "headphones", "headphone", "earphones", "earbuds", "headset"},
		models.ProductStub{Name: "Wireless Headphones", Price: 79.99, Category: "Electronics"}},
	{[]string{"laptop", "notebook computer", "computer"},
		models.ProductStub{Name: "Laptop", Price: 999.99, Category: "Electronics"}},
	{[]string{"smartphone", "phone", "mobile phone"},
		models.ProductStub{Name: "Smartphone", Price: 699.99, Category: "Electronics"}},
	{[]string{"smart watch", "smartwatch", "watch"},
		models.ProductStub{Name: "Smart Watch", Price: 199.99, Category: "Electronics"}},
	{[]string{"bluetooth speaker", "speaker", "speakers"},
		models.ProductStub{Name: "Bluetooth Speaker", Price: 49.99, Category: "Electronics"}},
	{[]string{"keyboard", "mechanical keyboard"},
		models.ProductStub{Name: "Mechanical Keyboard", Price: 89.99, Category: "Electronics"}},
	{[]string{"mouse", "wireless mouse"},
		models.ProductStub{Name: "Wireless Mouse", Price: 29.99, Category: "Electronics"}},
	{[]string{"charger", "usb c charger", "phone charger"},
		models.ProductStub{Name: "USB-C Charger", Price: 19.99, Category: "Electronics"}},
	{[]string{"t shirt", "tshirt", "tee", "shirt"},
		models.ProductStub{Name: "Cotton T-Shirt", Price: 19.99, Category: "Clothing"}},
	{[]string{"jeans", "denim jeans"},
		models.ProductStub{Name: "Denim Jeans", Price: 49.99, Category: "Clothing"}},
	{[]string{"jacket", "rain jacket", "coat"},
		models.ProductStub{Name: "Rain Jacket", Price: 89.99, Category: "Clothing"}},
	{[]string{"running shoes", "shoes", "sneakers", "trainers"},
		models.ProductStub{Name: "Running Shoes", Price: 89.99, Category: "Clothing"}},
	{[]string{"backpack", "rucksack"},
		models.ProductStub{Name: "Travel Backpack", Price: 59.99, Category: "Accessories"}},
	{[]string{"water bottle", "bottle"},
		models.ProductStub{Name: "Water Bottle", Price: 14.99, Category: "Sports"}},
	{[]string{"yoga mat", "mat"},
		models.ProductStub{Name: "Yoga Mat", Price: 29.99, Category: "Sports"}},
	{[]string{"book", "books", "novel"},
		models.ProductStub{Name: "Paperback Novel", Price: 12.99, Category: "Books"}},
	{[]string{"coffee", "coffee beans"},
		models.ProductStub{Name: "Ground Coffee", Price: 9.99, Category: "Groceries"}},
	{[]string{"tea", "green tea"},
		models.ProductStub{Name: "Green Tea", Price: 6.99, Category: "Groceries"}},
	{[]string{"milk"},
		models.ProductStub{Name: "Whole Milk", Price: 3.49, Category: "Groceries"}},
	{[]string{"bread", "loaf"},
		models.ProductStub{Name: "Sourdough Bread", Price: 4.99, Category: "Groceries"}},
	{[]string{"apples", "apple"},
		models.ProductStub{Name: "Apples", Price: 3.99, Category: "Groceries"}},
	{[]string{"chocolate", "dark chocolate"},
		models.ProductStub{Name: "Dark Chocolate", Price: 2.99, Category: "Groceries"}},
	{[]string{"candle", "candles"},
		models.ProductStub{Name: "Scented Candle", Price: 12.99, Category: "Home"}},
	{[]string{"lamp", "desk lamp"},
		models.ProductStub{Name: "Desk Lamp", Price: 34.99, Category: "Home"}},
}

// NewLexicon returns the built-in storefront lexicon.
func NewLexicon() *Lexicon {
	l := &Lexicon{entries: make(map[string]models.ProductStub)}
	for _, p := range defaultProducts {
		for _, a := range p.aliases {
			l.Add(a, p.product)
		}
	}
	return l
}

// Add registers alias for product, replacing any previous mapping.
func (l *Lexicon) Add(alias string, product models.ProductStub) {
	alias = strings.ToLower(strings.TrimSpace(alias))
	if alias == "" {
		return
	}
	if _, exists := l.entries[alias]; !exists {
		l.aliases = append(l.aliases, alias)
		sort.SliceStable(l.aliases, func(i, j int) bool {
			return len(l.aliases[i]) > len(l.aliases[j])
		})
	}
	l.entries[alias] = product
}

// Lookup finds a known product named by item: exact alias, then singular
// form, then the longest alias contained as whole words.
func (l *Lexicon) Lookup(item string) (models.ProductStub, bool) {
	item = strings.ToLower(strings.TrimSpace(item))
	if item == "" {
		return models.ProductStub{}, false
	}
	if p, ok := l.entries[item]; ok {
		return p, true
	}
	if strings.HasSuffix(item, "s") {
		if p, ok := l.entries[strings.TrimSuffix(item, "s")]; ok {
			return p, true
		}
	}
	padded := " " + item + " "
	for _, alias := range l.aliases {
		if strings.Contains(padded, " "+alias+" ") {
			return l.entries[alias], true
		}
	}
	return models.ProductStub{}, false
}

// Resolve always returns a stub: the lexicon entry, or a guess built from the
// spoken name with the default price and category.
func (l *Lexicon) Resolve(item string) models.ProductStub {
	if p, ok := l.Lookup(item); ok {
		return p
	}
	return models.ProductStub{
		Name:     titleCase(item),
		Price:    DefaultPrice,
		Category: DefaultCategory,
	}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToTitle(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
