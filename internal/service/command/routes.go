package command

import "strings"

// defaultRoutes maps spoken destinations to storefront routes.
var defaultRoutes = map[string]string{
	"home": "/", "home page": "/", "homepage": "/", "main page": "/", "start": "/",
	"products": "/products", "product": "/products", "shop": "/products", "store": "/products",
	"catalog": "/products", "catalogue": "/products", "all products": "/products",
	"cart": "/cart", "basket": "/cart", "bag": "/cart", "shopping cart": "/cart",
	"checkout": "/checkout", "check out": "/checkout", "payment": "/checkout",
	"login": "/login", "log in": "/login", "sign in": "/login", "signin": "/login",
	"register": "/register", "signup": "/register", "sign up": "/register", "create account": "/register",
	"account": "/profile", "profile": "/profile", "my account": "/profile",
	"orders": "/orders", "order history": "/orders",
	"wishlist": "/wishlist", "wish list": "/wishlist", "favorites": "/wishlist", "favourites": "/wishlist",
	"deals": "/deals", "offers": "/deals", "sale": "/deals", "sales": "/deals",
	"help": "/help", "support": "/help", "faq": "/help",
	"accessibility": "/accessibility", "accessibility settings": "/accessibility", "settings": "/accessibility",
	"preppal": "/preppal", "prep pal": "/preppal", "planner": "/preppal", "list planner": "/preppal",
	"shopping list": "/preppal",
	"electronics":   "/products?category=Electronics",
	"clothing":      "/products?category=Clothing", "clothes": "/products?category=Clothing",
	"groceries": "/products?category=Groceries", "grocery": "/products?category=Groceries",
	"books":      "/products?category=Books",
	"sports":     "/products?category=Sports",
	"home goods": "/products?category=Home",
}

var destinationFillers = []string{"the ", "my ", "our ", "your "}
var destinationSuffixes = []string{" page", " section", " screen", " tab", " area"}

// cleanDestination drops articles and "page"-style suffixes.
func cleanDestination(dest string) string {
	dest = strings.TrimSpace(dest)
	for _, f := range destinationFillers {
		dest = strings.TrimPrefix(dest, f)
	}
	for _, s := range destinationSuffixes {
		dest = strings.TrimSuffix(dest, s)
	}
	return strings.TrimSpace(dest)
}
