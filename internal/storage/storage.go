// Package storage provides the per-visitor key/value slots used for form
// drafts, the cart handoff and favorites. Writes are last-writer-wins with no
// cross-session locking.
package storage

import "context"

// Store is one visitor's key/value space.
type Store interface {
	// Get returns the value and true, or false when the key is absent.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Scoper hands out the Store for a visitor profile.
type Scoper interface {
	Scope(profileID string) Store
}
