// Package session hosts one visitor's page state: the menu cart, favourites
// and the open form controllers, all bound to the visitor's storage profile.
package session

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"

	"spicegarden-storefront/internal/cart"
	"spicegarden-storefront/internal/domain"
	"spicegarden-storefront/internal/favorites"
	"spicegarden-storefront/internal/form"
	"spicegarden-storefront/internal/storage"
)

const (
	FormContact     = "contact"
	FormReservation = "reservation"

	// OrderRedirect is where "proceed to order" sends the visitor.
	OrderRedirect = "/reservations?from=menu"
)

var schemas = map[string]func() form.Schema{
	FormContact:     form.ContactSchema,
	FormReservation: form.ReservationSchema,
}

type Session struct {
	id        string
	store     storage.Store
	transport form.Transport
	formOpts  []form.Option
	logger    *log.Logger

	cart      *cart.Store
	favorites *favorites.List

	mu    sync.Mutex
	forms map[string]*form.Controller
}

func newSession(id string, store storage.Store, transport form.Transport, logger *log.Logger, formOpts []form.Option) *Session {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Session{
		id:        id,
		store:     store,
		transport: transport,
		formOpts:  formOpts,
		logger:    logger,
		cart:      cart.New(),
		favorites: favorites.New(store, logger),
		forms:     map[string]*form.Controller{},
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Cart() *cart.Store {
	return s.cart
}

func (s *Session) Favorites() *favorites.List {
	return s.favorites
}

// OpenMenu is the menu page load. The cart starts empty unless restore is set,
// in which case the saved snapshot is read back.
func (s *Session) OpenMenu(ctx context.Context, restore bool) error {
	s.cart.Clear()
	if !restore {
		return nil
	}
	blob, ok, err := s.store.Get(ctx, cart.SlotKey)
	if err != nil {
		return fmt.Errorf("read cart snapshot: %w", err)
	}
	if !ok {
		return nil
	}
	if err := s.cart.Restore([]byte(blob)); err != nil {
		s.logger.Printf("session %s: discarding cart snapshot: %v", s.id, err)
	}
	return nil
}

// AddItem adds one unit of a menu item to the cart.
func (s *Session) AddItem(item domain.MenuItem) *domain.Notice {
	s.cart.Add(item.ID, item.Name, item.PriceCents)
	return domain.NewNotice(domain.NoticeSuccess, item.Name+" added to cart!")
}

func (s *Session) ClearCart() *domain.Notice {
	s.cart.Clear()
	return domain.NewNotice(domain.NoticeInfo, "Cart cleared!")
}

// ProceedToOrder writes the cart snapshot for the reservation page and returns
// the redirect target. An empty cart yields a warning and no redirect.
func (s *Session) ProceedToOrder(ctx context.Context) (string, *domain.Notice, error) {
	if s.cart.Len() == 0 {
		return "", domain.NewNotice(domain.NoticeWarning, "Your cart is empty!"), nil
	}
	blob, err := s.cart.Serialize()
	if err != nil {
		return "", nil, err
	}
	if err := s.store.Set(ctx, cart.SlotKey, string(blob)); err != nil {
		return "", nil, fmt.Errorf("save cart snapshot: %w", err)
	}
	return OrderRedirect, nil, nil
}

// OpenForm is a form page load: any previous controller for the form is
// closed and a fresh one is initialised from storage.
func (s *Session) OpenForm(ctx context.Context, name string, opts ...form.Option) (*form.Controller, form.Outcome, error) {
	schema, ok := schemas[name]
	if !ok {
		return nil, form.Outcome{}, fmt.Errorf("form %q: %w", name, domain.ErrNotFound)
	}

	all := append(append([]form.Option(nil), s.formOpts...), opts...)
	all = append(all, form.WithHandoffComplete(func() { s.cart.Clear() }))
	ctl := form.New(schema(), s.store, s.transport, all...)

	s.mu.Lock()
	prev := s.forms[name]
	s.forms[name] = ctl
	s.mu.Unlock()

	if prev != nil {
		prev.Close()
	}
	return ctl, ctl.Init(ctx), nil
}

// Form returns the open controller for name, loading the page first when the
// visitor has not opened it yet.
func (s *Session) Form(ctx context.Context, name string) (*form.Controller, error) {
	s.mu.Lock()
	ctl := s.forms[name]
	s.mu.Unlock()
	if ctl != nil {
		return ctl, nil
	}
	ctl, _, err := s.OpenForm(ctx, name)
	return ctl, err
}

// Close flushes pending drafts of every open form.
func (s *Session) Close() {
	s.mu.Lock()
	forms := make([]*form.Controller, 0, len(s.forms))
	for _, ctl := range s.forms {
		forms = append(forms, ctl)
	}
	s.mu.Unlock()

	for _, ctl := range forms {
		ctl.Close()
	}
}
