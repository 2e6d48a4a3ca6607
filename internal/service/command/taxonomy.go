package command

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"sense-adaptive-core/internal/models"
)

func re(expr string) *regexp.Regexp { return regexp.MustCompile(expr) }

// accessibilityAliases maps spoken toggle names to adaptation keys.
var accessibilityAliases = map[string]models.AdaptationKey{
	"high contrast": models.HighContrast, "contrast": models.HighContrast, "high contrast mode": models.HighContrast,
	"large text": models.LargeText, "larger text": models.LargeText, "big text": models.LargeText,
	"bigger text": models.LargeText, "large font": models.LargeText, "big font": models.LargeText,
	"focus": models.FocusMode, "focus mode": models.FocusMode,
	"calm": models.CalmingMode, "calming": models.CalmingMode, "calm mode": models.CalmingMode, "calming mode": models.CalmingMode,
	"reduced motion": models.ReducedMotion, "reduce motion": models.ReducedMotion, "less motion": models.ReducedMotion,
	"simplified layout": models.SimplifiedLayout, "simple layout": models.SimplifiedLayout,
	"simple view": models.SimplifiedLayout, "simplified view": models.SimplifiedLayout, "simple mode": models.SimplifiedLayout,
	"voice navigation": models.VoiceNavigation, "voice control": models.VoiceNavigation,
	"color blind support": models.ColorBlindSupport, "colour blind support": models.ColorBlindSupport,
	"colorblind support": models.ColorBlindSupport, "color blind mode": models.ColorBlindSupport, "colorblind mode": models.ColorBlindSupport,
	"slow mode": models.SlowMode, "slow": models.SlowMode,
	"distraction free": models.DistractionFree, "distraction free mode": models.DistractionFree,
	"reduced colors": models.ReducedColors, "reduce colors": models.ReducedColors, "muted colors": models.ReducedColors,
	"reduced animations": models.ReducedAnimations, "reduce animations": models.ReducedAnimations, "fewer animations": models.ReducedAnimations,
	"dyslexia font": models.DyslexiaFont, "dyslexic font": models.DyslexiaFont, "dyslexia friendly font": models.DyslexiaFont,
	"increased spacing": models.IncreasedSpacing, "more spacing": models.IncreasedSpacing, "extra spacing": models.IncreasedSpacing,
	"reassurance": models.Reassurance, "reassurance messages": models.Reassurance,
}

var accessibilityLabels = map[models.AdaptationKey]string{
	models.FocusMode:         "Focus mode",
	models.HighContrast:      "High contrast",
	models.LargeText:         "Large text",
	models.CalmingMode:       "Calming mode",
	models.ReducedMotion:     "Reduced motion",
	models.SimplifiedLayout:  "Simplified layout",
	models.VoiceNavigation:   "Voice navigation",
	models.ColorBlindSupport: "Color blind support",
	models.SlowMode:          "Slow mode",
	models.DistractionFree:   "Distraction free mode",
	models.ReducedColors:     "Reduced colors",
	models.ReducedAnimations: "Reduced animations",
	models.DyslexiaFont:      "Dyslexia font",
	models.IncreasedSpacing:  "Increased spacing",
	models.Reassurance:       "Reassurance messages",
}

var (
	toggleAliases = func() string {
		names := make([]string, 0, len(accessibilityAliases))
		for n := range accessibilityAliases {
			names = append(names, n)
		}
		return alternation(names)
	}()

	enableVerbs  = []string{"enable", "turn on", "switch on", "switch to", "activate", "start", "use", "i need", "give me"}
	disableVerbs = []string{"disable", "turn off", "switch off", "deactivate", "stop", "remove", "no more"}
	toggleVerb   = "(" + alternation(append(append([]string(nil), enableVerbs...), disableVerbs...)) + ")"

	cartNoun  = `(?:my\s+|the\s+)?(?:shopping\s+)?(?:cart|basket|bag)`
	listNoun  = `(?:my\s+|the\s+|a\s+)?(?:shopping\s+|grocery\s+|prep\s+)?list`
	article   = `(?:a\s+|an\s+|the\s+|some\s+|my\s+)?`
	pleaseEnd = `(?:\s+please)?$`
)

func taxonomy() []Category {
	return []Category{
		{Type: models.CommandAccessibility, Patterns: []Pattern{
			{"toggle", re(`^(?:please\s+)?` + toggleVerb + `\s+(?:the\s+)?(` + toggleAliases + `)(?:\s+mode)?` + pleaseEnd), handleToggle},
			{"toggle-suffix", re(`^(?:please\s+)?(?:turn|switch|set)\s+(?:the\s+)?(` + toggleAliases + `)(?:\s+mode)?\s+(on|off)` + pleaseEnd), handleToggleSuffix},
			{"text-size", re(`^(?:please\s+)?make\s+(?:the\s+)?(?:text|font|words)\s+(bigger|larger|smaller)` + pleaseEnd), handleTextSize},
			{"bare", re(`^(?:please\s+)?(` + toggleAliases + `)(?:\s+mode)?(?:\s+(on|off))?` + pleaseEnd), handleToggleBare},
			{"more-contrast", re(`^(?:please\s+)?(?:more|increase)\s+(?:the\s+)?contrast` + pleaseEnd), handleMoreContrast},
		}},
		{Type: models.CommandFilter, Patterns: []Pattern{
			{"price-bound", re(`^(?:.*?\s)?(under|below|less than|cheaper than|at most|over|above|more than|at least)\s+\$?(\d+)(?:\.\d+)?(?:\s+(?:dollars|bucks))?$`), handlePriceBound},
			{"sort-by", re(`^(?:sort|order|arrange|rank)\s+(?:(?:the\s+)?(?:items|products|results)\s+)?by\s+(price|rating|ratings|name|popularity|popular|reviews)(?:\s+(ascending|descending|low to high|high to low|lowest first|highest first))?$`), handleSortBy},
			{"superlative", re(`^(?:show\s+(?:me\s+)?)?(?:the\s+)?(cheapest|most expensive|highest rated|best rated|top rated|most popular)(?:\s+(?:items|products|ones|things))?(?:\s+first)?$`), handleSuperlative},
		}},
		{Type: models.CommandQuantity, Patterns: []Pattern{
			{"set-of", re(`^(?:set|change|update|make)\s+(?:the\s+)?quantity\s+(?:of\s+)?(?:the\s+|my\s+)?(.+?)\s+to\s+` + numberPattern + pleaseEnd), handleSetQuantity},
			{"set-item", re(`^(?:set|change|update|make)\s+(?:the\s+|my\s+)?(.+?)\s+quantity\s+to\s+` + numberPattern + pleaseEnd), handleSetQuantity},
			{"add-more", re(`^(?:add|get)\s+` + numberPattern + `\s+more\s+(?:of\s+)?(?:the\s+)?(.+?)` + pleaseEnd), handleAddMore},
			{"add-another", re(`^(?:add|get)\s+another\s+(?:one\s+of\s+(?:the\s+)?)?(.+?)` + pleaseEnd), handleAddAnother},
			{"change-by", re(`^(increase|raise|bump up|increment|decrease|reduce|lower|decrement)\s+(?:the\s+)?(?:quantity\s+of\s+)?(?:the\s+|my\s+)?(.+?)(?:\s+quantity)?\s+by\s+` + numberPattern + pleaseEnd), handleChangeBy},
			{"change-one", re(`^(increase|raise|bump up|increment|decrease|reduce|lower|decrement)\s+(?:the\s+)?(?:quantity\s+of\s+)?(?:the\s+|my\s+)?(.+?)(?:\s+quantity)?` + pleaseEnd), handleChangeOne},
			{"remove-count", re(`^(?:remove|take away)\s+` + numberPattern + `\s+(?:of\s+)?(?:the\s+)?(.+?)(?:\s+(?:from|out of)\s+` + cartNoun + `)?` + pleaseEnd), handleRemoveCount},
		}},
		{Type: models.CommandAssistant, Patterns: []Pattern{
			{"add-to-list", re(`^(?:please\s+)?(?:add|put)\s+(.+?)\s+(?:to|on)\s+` + listNoun + pleaseEnd), handleAddToList},
			{"plan-list", re(`^(?:help me\s+)?(?:plan|prepare|make|create|build|start|generate)\s+(?:me\s+)?` + listNoun + `\s+for\s+(?:a\s+|an\s+|my\s+|the\s+|our\s+)?(.+?)` + pleaseEnd), handlePlan},
			{"plan", re(`^(?:help me\s+)?(?:plan|prepare for|prep for|get ready for|organi[sz]e)\s+(?:a\s+|an\s+|my\s+|the\s+|our\s+)?(.+?)` + pleaseEnd), handlePlan},
			{"what-do-i-need", re(`^what\s+(?:do|should|would)\s+i\s+(?:need|buy|get|bring)\s+for\s+(?:a\s+|an\s+|my\s+|the\s+|our\s+)?(.+?)$`), handlePlan},
		}},
		{Type: models.CommandCart, Patterns: []Pattern{
			{"clear", re(`^(?:please\s+)?(?:clear|empty|reset)\s+(?:out\s+)?` + cartNoun + pleaseEnd), handleCartClear},
			{"remove-all", re(`^(?:remove|delete)\s+(?:everything|all items|all)\s+from\s+` + cartNoun + pleaseEnd), handleCartClear},
			{"show", re(`^(?:please\s+)?(?:show|view|open|check|display|see)\s+(?:me\s+)?` + cartNoun + pleaseEnd), handleCartShow},
			{"whats-in", re(`^what'?s\s+in\s+` + cartNoun + `$`), handleCartShow},
			{"add-context", re(`^(?:add|put)\s+(?:it\s+)?(?:to|in|into)\s+` + cartNoun + pleaseEnd), handleCartAddContext},
			{"remove", re(`^(?:please\s+)?(?:remove|delete|drop)\s+` + article + `(.+?)(?:\s+(?:from|out of)\s+` + cartNoun + `)?` + pleaseEnd), handleCartRemove},
			{"take-out", re(`^take\s+` + article + `(.+?)\s+out(?:\s+of\s+` + cartNoun + `)?` + pleaseEnd), handleCartRemove},
			{"add", re(`^(?:please\s+)?(?:add|put|throw|place|buy|purchase|get me|grab me|i'll take|i will take)\s+(?:` + numberPattern + `\s+)?` + article + `(.+?)(?:\s+(?:to|in|into|on)\s+` + cartNoun + `)?` + pleaseEnd), handleCartAdd},
		}},
		{Type: models.CommandSearch, Patterns: []Pattern{
			{"search", re(`^(?:please\s+)?(?:search|look|hunt)\s+(?:for\s+|up\s+)?(.+?)` + pleaseEnd), handleSearch},
			{"find", re(`^(?:please\s+)?find\s+(?:me\s+)?(?:some\s+|a\s+|an\s+)?(.+?)` + pleaseEnd), handleSearch},
			{"looking-for", re(`^(?:do you have|do you sell|i'm looking for|i am looking for|show me some|where can i find)\s+(?:any\s+|some\s+|a\s+|an\s+)?(.+?)$`), handleSearch},
		}},
		{Type: models.CommandNavigation, Patterns: []Pattern{
			{"back", re(`^(?:go|take me|navigate)\s+back(?:\s+a\s+page)?` + pleaseEnd), handleBack},
			{"go-to", re(`^(?:please\s+)?(?:go|navigate|take me|bring me|head|jump|get me|switch)\s+(?:over\s+|back\s+)?(?:to|into)\s+(.+?)` + pleaseEnd), handleGoTo},
			{"go-home", re(`^(?:go|take me|head)\s+(home)` + pleaseEnd), handleGoTo},
			{"open", re(`^(?:please\s+)?(?:open|show|view|visit|display)\s+(?:me\s+)?(.+?)` + pleaseEnd), handleGoTo},
			{"bare", re(`^(checkout|check out|home|home page|deals|wishlist|help page)$`), handleGoTo},
		}},
		{Type: models.CommandGeneral, Patterns: []Pattern{
			{"goodbye", re(`(?:^|\s)(?:goodbye|good bye|bye|see you|see ya|that's all|that is all|i'm done|i am done|we're done|done|stop listening|dismiss)(?:\s|$)`), handleGoodbye},
			{"cancel", re(`^(?:never mind|nevermind|cancel|forget it)$`), handleCancel},
			{"help", re(`^(?:help|help me|what can you do|what can i say|what do you do|how does this work|commands|show commands|list commands)$`), handleHelp},
			{"greeting", re(`^(?:hi|hello|hey|howdy|good morning|good afternoon|good evening|hey there|hi there|ok|okay)(?:\s+sense)?\b`), handleGreeting},
			{"thanks", re(`^(?:thanks|thank you|thank you very much|thanks a lot|cheers|appreciate it)\b`), handleThanks},
		}},
	}
}

func toggleCommand(key models.AdaptationKey, enabled bool) models.Command {
	label := accessibilityLabels[key]
	state := "enabled"
	if !enabled {
		state = "disabled"
	}
	msg := fmt.Sprintf("%s %s", label, state)
	action := "enable"
	if !enabled {
		action = "disable"
	}
	return models.Command{
		Type:          models.CommandAccessibility,
		Action:        action,
		Message:       msg,
		Speak:         msg,
		Accessibility: &models.AccessibilityParams{Key: key, Enabled: enabled},
	}
}

func isDisableVerb(verb string) bool {
	for _, v := range disableVerbs {
		if v == verb {
			return true
		}
	}
	return false
}

func handleToggle(_ *Classifier, m []string, _ Context) models.Command {
	return toggleCommand(accessibilityAliases[m[2]], !isDisableVerb(m[1]))
}

func handleToggleSuffix(_ *Classifier, m []string, _ Context) models.Command {
	return toggleCommand(accessibilityAliases[m[1]], m[2] == "on")
}

func handleToggleBare(_ *Classifier, m []string, _ Context) models.Command {
	return toggleCommand(accessibilityAliases[m[1]], m[2] != "off")
}

func handleTextSize(_ *Classifier, m []string, _ Context) models.Command {
	return toggleCommand(models.LargeText, m[1] != "smaller")
}

func handleMoreContrast(_ *Classifier, _ []string, _ Context) models.Command {
	return toggleCommand(models.HighContrast, true)
}

func handlePriceBound(_ *Classifier, m []string, _ Context) models.Command {
	bound := "under"
	switch m[1] {
	case "over", "above", "more than", "at least":
		bound = "over"
	}
	price, _ := parseNumber(m[2])
	param := "maxPrice"
	if bound == "over" {
		param = "minPrice"
	}
	msg := fmt.Sprintf("Showing products %s $%d", bound, price)
	return models.Command{
		Type:    models.CommandFilter,
		Action:  "price",
		Message: msg,
		Speak:   msg,
		Route:   fmt.Sprintf("/products?%s=%d", param, price),
		Filter:  &models.FilterParams{Kind: "price", Bound: bound, Price: price},
	}
}

var defaultSortOrder = map[string]string{
	"price":      "asc",
	"name":       "asc",
	"rating":     "desc",
	"popularity": "desc",
}

func sortCommand(key, order string) models.Command {
	if order == "" {
		order = defaultSortOrder[key]
	}
	msg := fmt.Sprintf("Sorting by %s", key)
	return models.Command{
		Type:    models.CommandFilter,
		Action:  "sort",
		Message: msg,
		Speak:   msg,
		Route:   fmt.Sprintf("/products?sort=%s&order=%s", key, order),
		Filter:  &models.FilterParams{Kind: "sort", SortKey: key, Order: order},
	}
}

func handleSortBy(_ *Classifier, m []string, _ Context) models.Command {
	key := m[1]
	switch key {
	case "ratings", "reviews":
		key = "rating"
	case "popular":
		key = "popularity"
	}
	order := ""
	switch m[2] {
	case "ascending", "low to high", "lowest first":
		order = "asc"
	case "descending", "high to low", "highest first":
		order = "desc"
	}
	return sortCommand(key, order)
}

func handleSuperlative(_ *Classifier, m []string, _ Context) models.Command {
	switch m[1] {
	case "cheapest":
		return sortCommand("price", "asc")
	case "most expensive":
		return sortCommand("price", "desc")
	case "most popular":
		return sortCommand("popularity", "desc")
	default:
		return sortCommand("rating", "desc")
	}
}

func quantityCommand(item, mode string, amount int) models.Command {
	item = strings.TrimSpace(item)
	var msg string
	switch mode {
	case models.QuantitySet:
		msg = fmt.Sprintf("Setting %s quantity to %d", item, amount)
	case models.QuantityIncrement:
		msg = fmt.Sprintf("Adding %d more %s", amount, item)
	default:
		msg = fmt.Sprintf("Removing %d %s", amount, item)
	}
	return models.Command{
		Type:     models.CommandQuantity,
		Action:   mode,
		Message:  msg,
		Speak:    msg,
		Route:    "/cart",
		Quantity: &models.QuantityParams{Item: item, Mode: mode, Amount: amount},
	}
}

func handleSetQuantity(_ *Classifier, m []string, _ Context) models.Command {
	n, _ := parseNumber(m[2])
	return quantityCommand(m[1], models.QuantitySet, n)
}

func handleAddMore(_ *Classifier, m []string, _ Context) models.Command {
	n, _ := parseNumber(m[1])
	return quantityCommand(m[2], models.QuantityIncrement, n)
}

func handleAddAnother(_ *Classifier, m []string, _ Context) models.Command {
	return quantityCommand(m[1], models.QuantityIncrement, 1)
}

func changeMode(verb string) string {
	switch verb {
	case "decrease", "reduce", "lower", "decrement":
		return models.QuantityDecrement
	}
	return models.QuantityIncrement
}

func handleChangeBy(_ *Classifier, m []string, _ Context) models.Command {
	n, _ := parseNumber(m[3])
	return quantityCommand(m[2], changeMode(m[1]), n)
}

func handleChangeOne(_ *Classifier, m []string, _ Context) models.Command {
	return quantityCommand(m[2], changeMode(m[1]), 1)
}

func handleRemoveCount(_ *Classifier, m []string, _ Context) models.Command {
	n, _ := parseNumber(m[1])
	return quantityCommand(m[2], models.QuantityDecrement, n)
}

func handleAddToList(_ *Classifier, m []string, _ Context) models.Command {
	item := strings.TrimSpace(m[1])
	msg := fmt.Sprintf("Added %s to your list", item)
	return models.Command{
		Type:      models.CommandAssistant,
		Action:    "add_to_list",
		Message:   msg,
		Speak:     msg,
		Route:     "/preppal",
		Assistant: &models.AssistantParams{Action: "add_to_list", Item: item},
	}
}

func handlePlan(_ *Classifier, m []string, _ Context) models.Command {
	occasion := strings.TrimSpace(m[1])
	msg := fmt.Sprintf("Let's plan a list for %s", occasion)
	return models.Command{
		Type:      models.CommandAssistant,
		Action:    "plan",
		Message:   msg,
		Speak:     msg,
		Route:     "/preppal?occasion=" + url.QueryEscape(occasion),
		Assistant: &models.AssistantParams{Action: "plan", Occasion: occasion},
	}
}

func cartCommand(action, msg string, item *models.ProductStub, qty int) models.Command {
	return models.Command{
		Type:    models.CommandCart,
		Action:  action,
		Message: msg,
		Speak:   msg,
		Route:   "/cart",
		Cart:    &models.CartParams{Action: action, Item: item, Quantity: qty},
	}
}

func cartAdd(item models.ProductStub, qty int) models.Command {
	if qty < 1 {
		qty = 1
	}
	msg := fmt.Sprintf("Added %s to your cart", item.Name)
	if qty > 1 {
		msg = fmt.Sprintf("Added %d %s to your cart", qty, item.Name)
	}
	cmd := cartCommand(models.CartAdd, msg, &item, qty)
	cmd.Route = ""
	return cmd
}

func handleCartClear(_ *Classifier, _ []string, _ Context) models.Command {
	return cartCommand(models.CartClear, "Your cart has been cleared", nil, 0)
}

func handleCartShow(_ *Classifier, _ []string, _ Context) models.Command {
	return cartCommand(models.CartShow, "Here is your cart", nil, 0)
}

var demonstratives = map[string]bool{
	"this": true, "it": true, "that": true, "this one": true, "that one": true,
	"this item": true, "this product": true,
}

func needProduct() models.Command {
	return models.Command{
		Type:    models.CommandUnknown,
		Message: `Which product? Open a product page and say "add this to cart".`,
		Speak:   "Which product would you like?",
	}
}

func handleCartAddContext(_ *Classifier, _ []string, cctx Context) models.Command {
	if cctx.Product == nil {
		return needProduct()
	}
	return cartAdd(*cctx.Product, 1)
}

func handleCartAdd(c *Classifier, m []string, cctx Context) models.Command {
	qty := 1
	if m[1] != "" {
		if n, ok := parseNumber(m[1]); ok {
			qty = n
		}
	}
	item := strings.TrimSpace(m[2])
	if demonstratives[item] {
		if cctx.Product == nil {
			return needProduct()
		}
		return cartAdd(*cctx.Product, qty)
	}
	return cartAdd(c.lexicon.Resolve(item), qty)
}

func handleCartRemove(c *Classifier, m []string, cctx Context) models.Command {
	item := strings.TrimSpace(m[1])
	var product models.ProductStub
	if demonstratives[item] {
		if cctx.Product == nil {
			return needProduct()
		}
		product = *cctx.Product
	} else {
		product = c.lexicon.Resolve(item)
	}
	return cartCommand(models.CartRemove, fmt.Sprintf("Removed %s from your cart", product.Name), &product, 0)
}

func handleSearch(_ *Classifier, m []string, _ Context) models.Command {
	query := strings.TrimSpace(m[1])
	msg := fmt.Sprintf("Searching for %s", query)
	return models.Command{
		Type:    models.CommandSearch,
		Action:  "search",
		Message: msg,
		Speak:   msg,
		Route:   "/products?search=" + url.QueryEscape(query),
		Search:  &models.SearchParams{Query: query},
	}
}

func handleBack(_ *Classifier, _ []string, _ Context) models.Command {
	return models.Command{
		Type:       models.CommandNavigation,
		Action:     "back",
		Message:    "Going back",
		Speak:      "Going back",
		Navigation: &models.NavigationParams{Destination: "back"},
	}
}

func handleGoTo(c *Classifier, m []string, _ Context) models.Command {
	return c.navigate(m[1])
}

// navigate resolves dest against the route table. Unknown destinations
// produce a navigation command carrying an error, never a panic.
func (c *Classifier) navigate(dest string) models.Command {
	dest = cleanDestination(dest)
	route, ok := c.routes[dest]
	if !ok && strings.HasSuffix(dest, "s") {
		route, ok = c.routes[strings.TrimSuffix(dest, "s")]
	}
	if !ok {
		return models.Command{
			Type:       models.CommandNavigation,
			Action:     "navigate",
			Message:    fmt.Sprintf("I don't know where %q is. Try products, cart or checkout.", dest),
			Speak:      "Sorry, I don't know that page.",
			Error:      "unknown destination: " + dest,
			Navigation: &models.NavigationParams{Destination: dest},
		}
	}
	msg := "Going to " + dest
	return models.Command{
		Type:       models.CommandNavigation,
		Action:     "navigate",
		Message:    msg,
		Speak:      msg,
		Route:      route,
		Navigation: &models.NavigationParams{Destination: dest},
	}
}

func handleGoodbye(_ *Classifier, _ []string, _ Context) models.Command {
	return models.Command{
		Type:       models.CommandGeneral,
		Action:     "goodbye",
		Message:    "Goodbye! Voice control is now off.",
		Speak:      "Goodbye!",
		Deactivate: true,
	}
}

func handleCancel(_ *Classifier, _ []string, _ Context) models.Command {
	return models.Command{
		Type:    models.CommandGeneral,
		Action:  "cancel",
		Message: "Okay, cancelled",
		Speak:   "Okay",
	}
}

const helpSummary = `You can say things like "take me to products", "search for shoes", "add headphones to cart", "sort by price", "enable high contrast" or "plan a list for a picnic".`

func handleHelp(_ *Classifier, _ []string, _ Context) models.Command {
	return models.Command{
		Type:    models.CommandGeneral,
		Action:  "help",
		Message: helpSummary,
		Speak:   helpSummary,
	}
}

func handleGreeting(_ *Classifier, _ []string, _ Context) models.Command {
	return models.Command{
		Type:    models.CommandGeneral,
		Action:  "greeting",
		Message: "Hi! How can I help? " + helpSummary,
		Speak:   "Hi! How can I help?",
	}
}

func handleThanks(_ *Classifier, _ []string, _ Context) models.Command {
	return models.Command{
		Type:    models.CommandGeneral,
		Action:  "thanks",
		Message: "You're welcome!",
		Speak:   "You're welcome!",
	}
}
