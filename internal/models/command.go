package models

// CommandType is the category tag of a Command.
type CommandType string

const (
	CommandNavigation    CommandType = "navigation"
	CommandSearch        CommandType = "search"
	CommandCart          CommandType = "cart"
	CommandQuantity      CommandType = "quantity"
	CommandFilter        CommandType = "filter"
	CommandAccessibility CommandType = "accessibility"
	CommandAssistant     CommandType = "assistant"
	CommandGeneral       CommandType = "general"
	CommandUnknown       CommandType = "unknown"

	// CommandWakeWordNeeded is returned when an utterance arrives outside
	// command mode without a wake phrase. It is not a category.
	CommandWakeWordNeeded CommandType = "wake_word_needed"
)

// Cart actions.
const (
	CartAdd    = "add"
	CartRemove = "remove"
	CartClear  = "clear"
	CartShow   = "show"
)

// Quantity modes.
const (
	QuantitySet       = "set"
	QuantityIncrement = "increment"
	QuantityDecrement = "decrement"
)

// ProductStub is the classifier's best guess at a purchasable item. The
// consumer resolves it against the real catalog.
type ProductStub struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
}

// Command is the structured result of classifying one utterance. Exactly one
// of the category payloads is set, matching Type.
type Command struct {
	ID         string      `json:"id,omitempty"`
	Type       CommandType `json:"type"`
	Action     string      `json:"action,omitempty"`
	Message    string      `json:"message"`
	Speak      string      `json:"speak,omitempty"`
	Route      string      `json:"route,omitempty"`
	Raw        string      `json:"raw,omitempty"`
	Error      string      `json:"error,omitempty"`
	Deactivate bool        `json:"deactivate,omitempty"`

	Navigation    *NavigationParams    `json:"navigation,omitempty"`
	Search        *SearchParams        `json:"search,omitempty"`
	Cart          *CartParams          `json:"cart,omitempty"`
	Quantity      *QuantityParams      `json:"quantity,omitempty"`
	Filter        *FilterParams        `json:"filter,omitempty"`
	Accessibility *AccessibilityParams `json:"accessibility,omitempty"`
	Assistant     *AssistantParams     `json:"assistant,omitempty"`
}

// NavigationParams names the requested destination.
type NavigationParams struct {
	Destination string `json:"destination"`
}

// SearchParams carries a free-text product query.
type SearchParams struct {
	Query string `json:"query"`
}

// CartParams describes a cart mutation or view.
type CartParams struct {
	Action   string       `json:"action"`
	Item     *ProductStub `json:"item,omitempty"`
	Quantity int          `json:"quantity,omitempty"`
}

// QuantityParams changes the quantity of a named cart line.
type QuantityParams struct {
	Item   string `json:"item"`
	Mode   string `json:"mode"`
	Amount int    `json:"amount"`
}

// FilterParams is either a price bound or a sort key.
type FilterParams struct {
	Kind    string `json:"kind"` // price, sort
	Bound   string `json:"bound,omitempty"`
	Price   int    `json:"price,omitempty"`
	SortKey string `json:"sortKey,omitempty"`
	Order   string `json:"order,omitempty"`
}

// AccessibilityParams toggles one adaptation explicitly.
type AccessibilityParams struct {
	Key     AdaptationKey `json:"key"`
	Enabled bool          `json:"enabled"`
}

// AssistantParams is a list-planning request. List generation itself is done
// by an external collaborator.
type AssistantParams struct {
	Action   string `json:"action"` // plan, add_to_list
	Occasion string `json:"occasion,omitempty"`
	Item     string `json:"item,omitempty"`
}
