// Package form manages one form's session: field validation, debounced
// draft autosave and restore, and a submission state machine guarded against
// duplicate submits.
package form

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"strconv"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/benbjohnson/clock"

	"spicegarden-storefront/internal/cart"
	"spicegarden-storefront/internal/domain"
)

// DefaultAutosaveDelay is the quiet period before a draft is written.
const DefaultAutosaveDelay = 2 * time.Second

// ErrUnknownField is returned for events naming a field the schema lacks.
var ErrUnknownField = errors.New("unknown field")

// Storage is the visitor-scoped key/value collaborator.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Transport delivers a submission to the restaurant backend.
type Transport interface {
	Submit(ctx context.Context, endpoint string, payload url.Values) (Result, error)
}

// Result is the backend's reply to a submission.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Counter is the derived character counter display of a field.
type Counter struct {
	Length int    `json:"length"`
	Limit  int    `json:"limit"`
	Level  string `json:"level,omitempty"`
}

// Outcome is what an event produced, for the presentation layer to render.
type Outcome struct {
	State        State              `json:"state"`
	// Trail lists the states entered while handling the event, in order.
	Trail        []State            `json:"trail,omitempty"`
	Errors       []FieldError       `json:"errors"`
	Notice       *domain.Notice     `json:"notice,omitempty"`
	Values       map[string]string  `json:"values"`
	Counters     map[string]Counter `json:"counters,omitempty"`
	Ignored      bool               `json:"ignored,omitempty"`
	DraftCleared bool               `json:"draftCleared,omitempty"`
	CartCleared  bool               `json:"cartCleared,omitempty"`
}

type Option func(*Controller)

func WithClock(c clock.Clock) Option {
	return func(ctl *Controller) { ctl.clock = c }
}

func WithAutosaveDelay(d time.Duration) Option {
	return func(ctl *Controller) { ctl.delay = d }
}

func WithLogger(l *log.Logger) Option {
	return func(ctl *Controller) { ctl.logger = l }
}

// WithCartHandoff signals that the visitor arrived from the menu page, so
// Init reads the cart snapshot slot.
func WithCartHandoff() Option {
	return func(ctl *Controller) { ctl.fromMenu = true }
}

// WithHandoffComplete registers fn to run after a submission carrying the
// handed-off cart succeeds, so the owner of the menu cart can clear it.
func WithHandoffComplete(fn func()) Option {
	return func(ctl *Controller) { ctl.onHandoff = fn }
}

// WithExtra adds a constant field to every submission payload.
func WithExtra(key, value string) Option {
	return func(ctl *Controller) { ctl.extras.Set(key, value) }
}

// Controller owns one form's state. It is safe for concurrent use; the
// transport call runs outside the lock so queries stay responsive while a
// submission is in flight.
type Controller struct {
	schema    Schema
	store     Storage
	transport Transport
	clock     clock.Clock
	delay     time.Duration
	logger    *log.Logger
	fromMenu  bool
	extras    url.Values
	onHandoff func()
	autosave  *debouncer

	mu          sync.Mutex
	initialized bool
	state       State
	values      map[string]string
	errors      map[string]string
	cart        *cart.Store
	cartBlob    string
}

func New(schema Schema, store Storage, transport Transport, opts ...Option) *Controller {
	c := &Controller{
		schema:    schema,
		store:     store,
		transport: transport,
		clock:     clock.New(),
		delay:     DefaultAutosaveDelay,
		logger:    log.New(io.Discard, "", 0),
		extras:    url.Values{},
		values:    emptyValues(schema),
		errors:    map[string]string{},
		cart:      cart.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.autosave = newDebouncer(c.clock, c.delay)
	return c
}

// Init restores the saved draft and, when opened from the menu, the cart
// snapshot. Restored values are not validated. Only the first call reads
// storage.
func (c *Controller) Init(ctx context.Context) Outcome {
	c.mu.Lock()
	if c.initialized {
		defer c.mu.Unlock()
		return c.outcomeLocked()
	}
	c.initialized = true
	c.mu.Unlock()

	draft := c.loadDraft(ctx)
	blob := c.loadCart(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	restored := false
	for name, v := range draft {
		f, ok := c.schema.field(name)
		if !ok || v == "" {
			continue
		}
		c.values[name] = truncate(f, v)
		restored = true
	}
	if blob != "" {
		if err := c.cart.Restore([]byte(blob)); err != nil {
			c.logger.Printf("%s: discarding cart snapshot: %v", c.schema.Name, err)
		} else if c.cart.Len() > 0 {
			c.cartBlob = blob
		}
	}

	out := c.outcomeLocked()
	if restored {
		out.Notice = domain.NewNotice(domain.NoticeInfo, "Draft restored from previous session")
	}
	return out
}

// HandleFieldChange records a new value, re-arms the autosave and clears the
// field's error. An invalid form becomes editable again right away; it is
// not re-validated until the next blur or submit.
func (c *Controller) HandleFieldChange(name, value string) (Outcome, error) {
	f, ok := c.schema.field(name)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownField, name)
	}

	c.mu.Lock()
	value = truncate(f, value)
	var notice *domain.Notice
	if f.OnChange != nil {
		h := &HookContext{Value: value, Now: c.clock.Now(), values: c.values}
		f.OnChange(h)
		value = truncate(f, h.Value)
		notice = h.Notice
	}
	c.values[name] = value
	delete(c.errors, name)

	var trail []State
	if c.state == Invalid {
		c.state = Idle
		trail = []State{Idle}
	}
	out := c.outcomeLocked()
	out.Trail = trail
	out.Notice = notice
	c.mu.Unlock()

	c.autosave.Trigger(c.saveDraft)
	return out, nil
}

// HandleBlur validates a single field.
func (c *Controller) HandleBlur(name string) (Outcome, error) {
	f, ok := c.schema.field(name)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownField, name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if f.Consent {
		return c.outcomeLocked(), nil
	}
	if msg := checkField(f, c.values[name], c.clock.Now()); msg != "" {
		c.errors[name] = msg
	} else {
		delete(c.errors, name)
	}

	if c.state == Submitting {
		return c.outcomeLocked(), nil
	}
	trail := []State{Validating}
	if len(c.errors) > 0 {
		c.state = Invalid
	} else {
		c.state = Idle
	}
	trail = append(trail, c.state)
	out := c.outcomeLocked()
	out.Trail = trail
	return out, nil
}

// HandleSubmit validates the whole form and, when valid, hands the payload to
// the transport exactly once. A submit while another is in flight is ignored.
// There is no local timeout: the call returns when the transport does.
func (c *Controller) HandleSubmit(ctx context.Context) Outcome {
	c.mu.Lock()
	if c.state == Submitting {
		out := c.outcomeLocked()
		out.Ignored = true
		c.mu.Unlock()
		return out
	}

	trail := []State{Validating}
	now := c.clock.Now()
	var notice *domain.Notice
	for _, f := range c.schema.Fields {
		if f.Consent {
			if c.values[f.Name] != checkedValue && notice == nil {
				notice = domain.NewNotice(domain.NoticeError, f.ConsentMessage)
			}
			continue
		}
		if msg := checkField(f, c.values[f.Name], now); msg != "" {
			c.errors[f.Name] = msg
		} else {
			delete(c.errors, f.Name)
		}
	}
	if len(c.errors) > 0 || notice != nil {
		c.state = Invalid
		trail = append(trail, Invalid)
		out := c.outcomeLocked()
		out.Trail = trail
		out.Notice = notice
		c.mu.Unlock()
		return out
	}

	c.state = Submitting
	trail = append(trail, Submitting)
	payload := c.payloadLocked(now)
	c.mu.Unlock()

	res, err := c.transport.Submit(ctx, c.schema.Endpoint, payload)

	if err == nil && res.Success {
		return c.succeed(ctx, trail)
	}

	msg := c.schema.ErrorMessage
	if err != nil {
		c.logger.Printf("%s: submit failed: %v", c.schema.Name, err)
	} else if res.Message != "" {
		msg = res.Message
	} else {
		msg = c.schema.FailureMessage
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Idle
	out := c.outcomeLocked()
	out.Trail = append(trail, Failed, Idle)
	out.Notice = domain.NewNotice(domain.NoticeError, msg)
	return out
}

func (c *Controller) succeed(ctx context.Context, trail []State) Outcome {
	c.mu.Lock()
	c.values = emptyValues(c.schema)
	c.errors = map[string]string{}
	c.state = Idle
	handoff := c.cartBlob != ""
	c.cartBlob = ""
	c.cart.Clear()
	out := c.outcomeLocked()
	c.mu.Unlock()

	c.autosave.Cancel()
	out.DraftCleared = true
	if err := c.store.Delete(ctx, c.schema.DraftKey); err != nil {
		c.logger.Printf("%s: delete draft: %v", c.schema.Name, err)
		out.DraftCleared = false
	}
	if handoff {
		if err := c.store.Delete(ctx, cart.SlotKey); err != nil {
			c.logger.Printf("%s: delete cart snapshot: %v", c.schema.Name, err)
		}
		if c.onHandoff != nil {
			c.onHandoff()
		}
		out.CartCleared = true
	}

	out.Trail = append(trail, Succeeded, Idle)
	out.Notice = domain.NewNotice(domain.NoticeSuccess, c.schema.SuccessMessage)
	return out
}

// Close writes any pending draft immediately and stops the autosave timer.
func (c *Controller) Close() {
	c.autosave.Flush()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Errors returns the current field errors in schema order.
func (c *Controller) Errors() []FieldError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errorsLocked()
}

func (c *Controller) Values() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyValues(c.values)
}

// Counters returns the character counters of fields that show one.
func (c *Controller) Counters() map[string]Counter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcomeLocked().Counters
}

// Snapshot returns the current state without handling an event.
func (c *Controller) Snapshot() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outcomeLocked()
}

// Cart returns the handed-off cart lines and total for the summary display.
func (c *Controller) Cart() ([]cart.Line, int64) {
	return c.cart.Lines(), c.cart.Total()
}

func (c *Controller) loadDraft(ctx context.Context) map[string]string {
	raw, ok, err := c.store.Get(ctx, c.schema.DraftKey)
	if err != nil {
		c.logger.Printf("%s: read draft: %v", c.schema.Name, err)
		return nil
	}
	if !ok {
		return nil
	}
	draft, err := decodeDraft(c.schema, raw)
	if err != nil {
		c.logger.Printf("%s: discarding corrupt draft: %v", c.schema.Name, err)
		return nil
	}
	return draft
}

func (c *Controller) loadCart(ctx context.Context) string {
	if !c.fromMenu || !c.schema.AcceptsCart {
		return ""
	}
	blob, ok, err := c.store.Get(ctx, cart.SlotKey)
	if err != nil {
		c.logger.Printf("%s: read cart snapshot: %v", c.schema.Name, err)
		return ""
	}
	if !ok {
		return ""
	}
	return blob
}

func (c *Controller) saveDraft() {
	c.mu.Lock()
	raw, err := encodeDraft(c.schema, c.values)
	c.mu.Unlock()
	if err != nil {
		c.logger.Printf("%s: encode draft: %v", c.schema.Name, err)
		return
	}
	if err := c.store.Set(context.Background(), c.schema.DraftKey, raw); err != nil {
		c.logger.Printf("%s: save draft: %v", c.schema.Name, err)
	}
}

func (c *Controller) payloadLocked(now time.Time) url.Values {
	payload := url.Values{}
	for _, f := range c.schema.Fields {
		v := c.values[f.Name]
		if (f.Kind == KindCheckbox || f.Kind == KindRadio) && v == "" {
			continue
		}
		payload.Set(f.Name, v)
	}
	if c.schema.Extras != nil {
		for k, vs := range c.schema.Extras(now) {
			payload[k] = vs
		}
	}
	for k, vs := range c.extras {
		payload[k] = vs
	}
	if c.cartBlob != "" {
		payload.Set("cart_items", c.cartBlob)
	}
	return payload
}

func (c *Controller) outcomeLocked() Outcome {
	out := Outcome{
		State:  c.state,
		Errors: c.errorsLocked(),
		Values: copyValues(c.values),
	}
	for _, f := range c.schema.Fields {
		if !f.Counter {
			continue
		}
		if out.Counters == nil {
			out.Counters = map[string]Counter{}
		}
		out.Counters[f.Name] = counterFor(f, c.values[f.Name])
	}
	return out
}

func (c *Controller) errorsLocked() []FieldError {
	errs := []FieldError{}
	for _, f := range c.schema.Fields {
		if msg, ok := c.errors[f.Name]; ok {
			errs = append(errs, FieldError{Field: f.Name, Message: msg})
		}
	}
	return errs
}

func counterFor(f Field, v string) Counter {
	n := utf8.RuneCountInString(v)
	c := Counter{Length: n, Limit: f.MaxLength}
	if f.MaxLength > 0 {
		switch {
		case n > f.MaxLength*4/5:
			c.Level = "danger"
		case n > f.MaxLength*3/5:
			c.Level = "warning"
		}
	}
	return c
}

func truncate(f Field, v string) string {
	if f.MaxLength <= 0 || utf8.RuneCountInString(v) <= f.MaxLength {
		return v
	}
	return string([]rune(v)[:f.MaxLength])
}

func emptyValues(s Schema) map[string]string {
	values := make(map[string]string, len(s.Fields))
	for _, f := range s.Fields {
		values[f.Name] = ""
	}
	return values
}

func copyValues(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Draft is the saved form: field name to string, or bool for checkboxes.
type Draft map[string]any

// encodeDraft writes every field; checkboxes as booleans.
func encodeDraft(s Schema, values map[string]string) (string, error) {
	draft := make(Draft, len(s.Fields))
	for _, f := range s.Fields {
		if f.Kind == KindCheckbox {
			draft[f.Name] = values[f.Name] == checkedValue
			continue
		}
		draft[f.Name] = values[f.Name]
	}
	raw, err := json.Marshal(draft)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// decodeDraft ignores keys the schema no longer has.
func decodeDraft(s Schema, raw string) (map[string]string, error) {
	var draft Draft
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(draft))
	for name, v := range draft {
		f, ok := s.field(name)
		if !ok {
			continue
		}
		switch tv := v.(type) {
		case string:
			if f.Kind == KindCheckbox {
				if tv == checkedValue || tv == "true" {
					out[name] = checkedValue
				}
				continue
			}
			out[name] = tv
		case bool:
			if f.Kind == KindCheckbox && tv {
				out[name] = checkedValue
			}
		case float64:
			out[name] = strconv.FormatFloat(tv, 'f', -1, 64)
		}
	}
	return out, nil
}
