// Package favorites keeps a visitor's favourite menu items in their storage
// profile.
package favorites

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sort"

	"spicegarden-storefront/internal/storage"
)

// SlotKey names the storage slot holding the JSON array of item ids.
const SlotKey = "favorites"

type List struct {
	store  storage.Store
	logger *log.Logger
}

func New(store storage.Store, logger *log.Logger) *List {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &List{store: store, logger: logger}
}

// IDs returns the favourite item ids in ascending order. A corrupt slot reads
// as empty.
func (l *List) IDs(ctx context.Context) ([]int64, error) {
	set, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	return sortedIDs(set), nil
}

func (l *List) Contains(ctx context.Context, id int64) (bool, error) {
	set, err := l.load(ctx)
	if err != nil {
		return false, err
	}
	return set[id], nil
}

// Toggle adds id when absent and removes it otherwise. It reports whether the
// item is a favourite afterwards.
func (l *List) Toggle(ctx context.Context, id int64) (bool, error) {
	set, err := l.load(ctx)
	if err != nil {
		return false, err
	}
	if set[id] {
		delete(set, id)
	} else {
		set[id] = true
	}

	raw, err := json.Marshal(sortedIDs(set))
	if err != nil {
		return false, fmt.Errorf("encode favorites: %w", err)
	}
	if err := l.store.Set(ctx, SlotKey, string(raw)); err != nil {
		return false, fmt.Errorf("save favorites: %w", err)
	}
	return set[id], nil
}

func (l *List) load(ctx context.Context) (map[int64]bool, error) {
	raw, ok, err := l.store.Get(ctx, SlotKey)
	if err != nil {
		return nil, fmt.Errorf("read favorites: %w", err)
	}
	set := map[int64]bool{}
	if !ok {
		return set, nil
	}
	var ids []int64
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		l.logger.Printf("favorites: discarding corrupt slot: %v", err)
		return set, nil
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func sortedIDs(set map[int64]bool) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
