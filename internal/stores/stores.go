// Package stores builds grocery search links for recipe ingredients.
// Everything here is pure string work; no store is ever contacted.
package stores

import (
	"net/url"
	"strings"

	"github.com/mealreel/mealreel/internal/domain"
)

// Store describes one supported storefront.
type Store struct {
	Name           string
	SearchTemplate string // %s receives the URL-escaped search term
}

// AmazonFresh is the default storefront.
var AmazonFresh = Store{
	Name:           "amazon_fresh",
	SearchTemplate: "https://www.amazon.com/s?k=%s&i=amazonfresh",
}

// descriptorWords are preparation and state adjectives stripped from
// ingredient names before searching, so "fresh chopped cilantro"
// searches as "cilantro".
var descriptorWords = map[string]bool{
	"fresh":   true,
	"dried":   true,
	"frozen":  true,
	"canned":  true,
	"chopped": true,
	"diced":   true,
	"sliced":  true,
	"whole":   true,
	"ground":  true,
	"minced":  true,
	"grated":  true,
}

// CleanName strips descriptor words and collapses whitespace. A name
// made up entirely of descriptors is returned unchanged rather than
// emptied.
func CleanName(name string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(name)))
	kept := make([]string, 0, len(fields))
	for _, f := range fields {
		if !descriptorWords[strings.Trim(f, ",")] {
			kept = append(kept, f)
		}
	}
	if len(kept) == 0 {
		return strings.Join(fields, " ")
	}
	return strings.Join(kept, " ")
}

// SearchURL builds the storefront search link for one ingredient.
func SearchURL(store Store, ingredient string) string {
	term := url.QueryEscape(CleanName(ingredient))
	return strings.Replace(store.SearchTemplate, "%s", term, 1)
}

// IngredientLinks returns search links per storefront for an
// ingredient, keyed by store name.
func IngredientLinks(ingredient string) map[string]string {
	if strings.TrimSpace(ingredient) == "" {
		return map[string]string{}
	}
	return map[string]string{
		AmazonFresh.Name: SearchURL(AmazonFresh, ingredient),
	}
}

// BulkSearchURL builds a single search covering several ingredients,
// for one-click shopping list lookups.
func BulkSearchURL(store Store, ingredients []string) string {
	cleaned := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		if c := CleanName(ing); c != "" {
			cleaned = append(cleaned, c)
		}
	}
	term := url.QueryEscape(strings.Join(cleaned, " "))
	return strings.Replace(store.SearchTemplate, "%s", term, 1)
}

// ShoppingItem pairs an ingredient with its search links.
type ShoppingItem struct {
	Name     string            `json:"name"`
	Quantity string            `json:"quantity"`
	Unit     string            `json:"unit"`
	Links    map[string]string `json:"links"`
}

// ShoppingList holds per-ingredient links plus one bulk search URL.
type ShoppingList struct {
	Items   []ShoppingItem `json:"items"`
	BulkURL string         `json:"bulk_url"`
}

// BuildShoppingList assembles a shopping list for the given
// ingredients. Quantity and unit ride along untouched.
func BuildShoppingList(ingredients []domain.IngredientItem) *ShoppingList {
	list := &ShoppingList{Items: make([]ShoppingItem, 0, len(ingredients))}
	names := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		names = append(names, ing.Name)
		list.Items = append(list.Items, ShoppingItem{
			Name:     ing.Name,
			Quantity: ing.Quantity,
			Unit:     ing.Unit,
			Links:    IngredientLinks(ing.Name),
		})
	}
	list.BulkURL = BulkSearchURL(AmazonFresh, names)
	return list
}
