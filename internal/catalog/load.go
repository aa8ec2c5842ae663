package catalog

import (
	"embed"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"sigs.k8s.io/yaml"

	"spicegarden-storefront/internal/domain"
)

//go:embed defaults/*.yaml
var defaultsFS embed.FS

// MenuFile is the YAML shape of the menu configuration.
type MenuFile struct {
	Restaurant Restaurant  `json:"restaurant"`
	Categories []string    `json:"categories"`
	Items      []MenuEntry `json:"items"`
}

// MenuEntry is one item as written by hand, with the price in rupees.
type MenuEntry struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	ImageURL    string  `json:"image_url,omitempty"`
	Available   *bool   `json:"available,omitempty"`
}

type faqFile struct {
	Sections []domain.FAQSection `json:"sections"`
}

// Load reads the menu and FAQ files. An empty path selects the embedded
// default.
func Load(menuPath, faqPath string) (*Catalog, error) {
	menuRaw, err := readConfig(menuPath, "defaults/menu.yaml")
	if err != nil {
		return nil, fmt.Errorf("read menu: %w", err)
	}
	faqRaw, err := readConfig(faqPath, "defaults/faq.yaml")
	if err != nil {
		return nil, fmt.Errorf("read faq: %w", err)
	}

	var menu MenuFile
	if err := yaml.UnmarshalStrict(menuRaw, &menu); err != nil {
		return nil, fmt.Errorf("parse menu: %w", err)
	}
	items, err := menu.menuItems()
	if err != nil {
		return nil, err
	}

	var faq faqFile
	if err := yaml.Unmarshal(faqRaw, &faq); err != nil {
		return nil, fmt.Errorf("parse faq: %w", err)
	}
	return New(menu.Restaurant, menu.Categories, items, faq.Sections), nil
}

// Validate applies the checks Load makes on a menu file.
func (m MenuFile) Validate() error {
	_, err := m.menuItems()
	return err
}

func (m MenuFile) menuItems() ([]domain.MenuItem, error) {
	known := make(map[string]bool, len(m.Categories))
	for _, c := range m.Categories {
		known[c] = true
	}
	seen := make(map[int64]bool, len(m.Items))
	items := make([]domain.MenuItem, 0, len(m.Items))
	for _, e := range m.Items {
		switch {
		case e.ID <= 0:
			return nil, fmt.Errorf("menu item %q: id must be positive", e.Name)
		case seen[e.ID]:
			return nil, fmt.Errorf("menu item %d: duplicate id", e.ID)
		case strings.TrimSpace(e.Name) == "":
			return nil, fmt.Errorf("menu item %d: name required", e.ID)
		case e.Price < 0:
			return nil, fmt.Errorf("menu item %d: price must not be negative", e.ID)
		case len(known) > 0 && !known[e.Category]:
			return nil, fmt.Errorf("menu item %d: unknown category %q", e.ID, e.Category)
		}
		seen[e.ID] = true
		items = append(items, e.toDomain())
	}
	return items, nil
}

func (e MenuEntry) toDomain() domain.MenuItem {
	available := true
	if e.Available != nil {
		available = *e.Available
	}
	return domain.MenuItem{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		PriceCents:  int64(math.Round(e.Price * 100)),
		Category:    e.Category,
		ImageURL:    e.ImageURL,
		Available:   available,
	}
}

func readConfig(path, fallback string) ([]byte, error) {
	if path == "" {
		return defaultsFS.ReadFile(fallback)
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, domain.ErrNotFound)
	}
	return raw, err
}
