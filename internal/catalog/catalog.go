// Package catalog holds the static menu and FAQ configuration the storefront
// renders, plus the menu page's filter, search and sort views.
package catalog

import (
	"net/url"
	"sort"
	"strings"

	"spicegarden-storefront/internal/domain"
)

const (
	SortName      = "name"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"

	// AllCategories disables category filtering.
	AllCategories = "all"
)

// Restaurant is the contact information used for quick links.
type Restaurant struct {
	Name     string `json:"name"`
	WhatsApp string `json:"whatsapp"`
}

// Catalog is read-only after construction.
type Catalog struct {
	restaurant Restaurant
	categories []string
	items      []domain.MenuItem
	byID       map[int64]int
	faq        map[string]domain.FAQSection
	faqOrder   []string
}

func New(restaurant Restaurant, categories []string, items []domain.MenuItem, faq []domain.FAQSection) *Catalog {
	c := &Catalog{
		restaurant: restaurant,
		categories: append([]string(nil), categories...),
		items:      append([]domain.MenuItem(nil), items...),
		byID:       make(map[int64]int, len(items)),
		faq:        make(map[string]domain.FAQSection, len(faq)),
	}
	for i, it := range c.items {
		c.byID[it.ID] = i
	}
	for _, s := range faq {
		if _, dup := c.faq[s.Key]; !dup {
			c.faqOrder = append(c.faqOrder, s.Key)
		}
		c.faq[s.Key] = s
	}
	return c
}

func (c *Catalog) Restaurant() Restaurant {
	return c.restaurant
}

func (c *Catalog) Categories() []string {
	return append([]string(nil), c.categories...)
}

// Item returns an available menu item.
func (c *Catalog) Item(id int64) (domain.MenuItem, error) {
	i, ok := c.byID[id]
	if !ok || !c.items[i].Available {
		return domain.MenuItem{}, domain.ErrNotFound
	}
	return c.items[i], nil
}

// Query selects what the menu page shows.
type Query struct {
	Category string
	Search   string
	Sort     string
}

// View returns the available items matching q.
func (c *Catalog) View(q Query) []domain.MenuItem {
	category := strings.TrimSpace(q.Category)
	term := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]domain.MenuItem, 0, len(c.items))
	for _, it := range c.items {
		if !it.Available {
			continue
		}
		if category != "" && category != AllCategories && it.Category != category {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(it.Name), term) &&
			!strings.Contains(strings.ToLower(it.Description), term) {
			continue
		}
		out = append(out, it)
	}

	switch q.Sort {
	case SortName:
		sort.SliceStable(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	case SortPriceLow:
		sort.SliceStable(out, func(i, j int) bool { return out[i].PriceCents < out[j].PriceCents })
	case SortPriceHigh:
		sort.SliceStable(out, func(i, j int) bool { return out[i].PriceCents > out[j].PriceCents })
	}
	return out
}

// FAQ returns one FAQ section by key.
func (c *Catalog) FAQ(key string) (domain.FAQSection, error) {
	s, ok := c.faq[key]
	if !ok {
		return domain.FAQSection{}, domain.ErrNotFound
	}
	return s, nil
}

// FAQSections returns every section in file order.
func (c *Catalog) FAQSections() []domain.FAQSection {
	out := make([]domain.FAQSection, 0, len(c.faqOrder))
	for _, k := range c.faqOrder {
		out = append(out, c.faq[k])
	}
	return out
}

// QuickOrderURL is a WhatsApp deep link pre-filled with an order for item.
func (c *Catalog) QuickOrderURL(item domain.MenuItem) string {
	msg := "Hi! I'd like to order " + item.Name + " from " + c.restaurant.Name + "."
	return "https://wa.me/" + c.restaurant.WhatsApp + "?" + url.Values{"text": {msg}}.Encode()
}
