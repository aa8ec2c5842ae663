package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// SlotKey is the storage slot used to hand the cart from the menu page to the
// reservation form.
const SlotKey = "restaurantCart"

// ErrCorruptSnapshot is returned by Restore when the blob cannot be used.
var ErrCorruptSnapshot = errors.New("corrupt cart snapshot")

// snapshotLine is the handoff wire shape. Price is expressed in major units
// so snapshots written by the browser scripts stay readable.
type snapshotLine struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Serialize encodes all lines in insertion order.
func (s *Store) Serialize() ([]byte, error) {
	lines := s.Lines()
	out := make([]snapshotLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, snapshotLine{
			ID:       l.ID,
			Name:     l.Name,
			Price:    float64(l.UnitPriceCents) / 100,
			Quantity: l.Quantity,
		})
	}
	return json.Marshal(out)
}

// Restore replaces the store contents with the snapshot. Any parse or shape
// problem leaves the store empty; the returned error is for diagnostics only.
func (s *Store) Restore(blob []byte) error {
	lines, err := decodeSnapshot(blob)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lines = nil
		return err
	}
	s.lines = lines
	return nil
}

func decodeSnapshot(blob []byte) ([]Line, error) {
	var raw []snapshotLine
	if err := json.Unmarshal(blob, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	lines := make([]Line, 0, len(raw))
	seen := make(map[int64]struct{}, len(raw))
	for i, r := range raw {
		switch {
		case strings.TrimSpace(r.Name) == "":
			return nil, fmt.Errorf("%w: line %d has no name", ErrCorruptSnapshot, i)
		case r.Quantity <= 0 || r.Quantity > MaxQuantity:
			return nil, fmt.Errorf("%w: line %d has quantity %d", ErrCorruptSnapshot, i, r.Quantity)
		case !(r.Price >= 0 && r.Price*100 <= MaxUnitPriceCents):
			return nil, fmt.Errorf("%w: line %d has invalid price", ErrCorruptSnapshot, i)
		}
		if _, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %d", ErrCorruptSnapshot, r.ID)
		}
		seen[r.ID] = struct{}{}
		lines = append(lines, Line{
			ID:             r.ID,
			Name:           r.Name,
			UnitPriceCents: int64(math.Round(r.Price * 100)),
			Quantity:       r.Quantity,
		})
	}
	return lines, nil
}
