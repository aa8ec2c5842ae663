package cart

import (
	"sort"
	"strings"
	"sync"
)

// Line is one catalog item plus its quantity inside a cart.
type Line struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	UnitPriceCents int64  `json:"unitPriceCents"`
	Quantity       int    `json:"quantity"`
}

// TotalCents is the derived line total.
func (l Line) TotalCents() int64 {
	return l.UnitPriceCents * int64(l.Quantity)
}

// Store is the in-memory cart for one visitor. Lines keep insertion order and
// there is at most one line per ID. Totals are never stored.
type Store struct {
	mu    sync.Mutex
	lines []Line
}

const (
	// MaxQuantity bounds a single line so derived totals cannot overflow.
	MaxQuantity       = 999
	// MaxUnitPriceCents is the largest accepted unit price.
	MaxUnitPriceCents = 10_000_000_000
)

func New() *Store {
	return &Store{}
}

// Add merges into an existing line with the same id or appends a new line
// with quantity 1. Prices are clamped to [0, MaxUnitPriceCents] and a line
// stops growing at MaxQuantity.
func (s *Store) Add(id int64, name string, unitPriceCents int64) {
	unitPriceCents = min(max(unitPriceCents, 0), MaxUnitPriceCents)
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(id); i >= 0 {
		if s.lines[i].Quantity < MaxQuantity {
			s.lines[i].Quantity++
		}
		return
	}
	s.lines = append(s.lines, Line{ID: id, Name: name, UnitPriceCents: unitPriceCents, Quantity: 1})
}

// UpdateQuantity sets the quantity of an existing line. A quantity of zero or
// less removes the line; larger than MaxQuantity is capped. Unknown ids are
// ignored.
func (s *Store) UpdateQuantity(id int64, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return
	}
	if quantity <= 0 {
		s.removeAt(i)
		return
	}
	s.lines[i].Quantity = min(quantity, MaxQuantity)
}

func (s *Store) Remove(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(id); i >= 0 {
		s.removeAt(i)
	}
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
}

// Total returns the sum of all line totals in minor units.
func (s *Store) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for _, l := range s.lines {
		total += l.TotalCents()
	}
	return total
}

// ItemCount returns the number of units across all lines.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, l := range s.lines {
		count += l.Quantity
	}
	return count
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// Lines returns a copy of the lines in insertion order.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// Sort orders supported by Sorted.
const (
	SortName      = "name"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
)

// Sorted returns a sorted copy of the lines. The store keeps its insertion
// order. Unknown orders return insertion order.
func (s *Store) Sorted(order string) []Line {
	lines := s.Lines()
	switch order {
	case SortName:
		sort.SliceStable(lines, func(i, j int) bool {
			return strings.ToLower(lines[i].Name) < strings.ToLower(lines[j].Name)
		})
	case SortPriceLow:
		sort.SliceStable(lines, func(i, j int) bool { return lines[i].UnitPriceCents < lines[j].UnitPriceCents })
	case SortPriceHigh:
		sort.SliceStable(lines, func(i, j int) bool { return lines[i].UnitPriceCents > lines[j].UnitPriceCents })
	}
	return lines
}

func (s *Store) indexOf(id int64) int {
	for i := range s.lines {
		if s.lines[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) removeAt(i int) {
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
}
