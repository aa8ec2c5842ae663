package session

import (
	"context"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"

	"spicegarden-storefront/internal/form"
	"spicegarden-storefront/internal/storage"
)

const DefaultTTL = 30 * time.Minute

type Config struct {
	// TTL is how long an idle session is kept in memory. Its storage profile
	// outlives it.
	TTL         time.Duration
	// MaxSessions caps the registry; zero means unbounded.
	MaxSessions uint64
	Logger      *log.Logger
	// FormOptions apply to every form controller, e.g. clock and autosave
	// delay.
	FormOptions []form.Option
}

// Registry keeps the live sessions keyed by visitor profile id.
type Registry struct {
	profiles  storage.Scoper
	transport form.Transport
	cfg       Config

	mu      sync.Mutex
	cache   *ttlcache.Cache[string, *Session]
	running bool
}

func NewRegistry(profiles storage.Scoper, transport form.Transport, cfg Config) *Registry {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}

	opts := []ttlcache.Option[string, *Session]{ttlcache.WithTTL[string, *Session](cfg.TTL)}
	if cfg.MaxSessions > 0 {
		opts = append(opts, ttlcache.WithCapacity[string, *Session](cfg.MaxSessions))
	}
	r := &Registry{
		profiles:  profiles,
		transport: transport,
		cfg:       cfg,
		cache:     ttlcache.New[string, *Session](opts...),
	}
	r.cache.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, *Session]) {
		if reason == ttlcache.EvictionReasonDeleted {
			return
		}
		item.Value().Close()
		r.cfg.Logger.Printf("session %s evicted (reason %d)", item.Key(), reason)
	})
	return r
}

// NewProfileID mints an id for a first-time visitor.
func NewProfileID() string {
	return uuid.NewString()
}

// ValidProfileID reports whether id looks like one minted by NewProfileID.
func ValidProfileID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Session returns the live session for profileID, creating it on first use.
func (r *Registry) Session(profileID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item := r.cache.Get(profileID); item != nil {
		return item.Value()
	}
	s := newSession(profileID, r.profiles.Scope(profileID), r.transport, r.cfg.Logger, r.cfg.FormOptions)
	r.cache.Set(profileID, s, ttlcache.DefaultTTL)
	return s
}

func (r *Registry) Len() int {
	return r.cache.Len()
}

// Start runs the expiry loop in the background until Stop.
func (r *Registry) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	r.running = true
	go r.cache.Start()
}

// Stop ends the expiry loop and flushes every live session's drafts.
func (r *Registry) Stop() {
	r.mu.Lock()
	if r.running {
		r.running = false
		r.cache.Stop()
	}
	items := r.cache.Items()
	r.mu.Unlock()

	for _, item := range items {
		item.Value().Close()
	}
}
