package form

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"spicegarden-storefront/internal/cart"
	"spicegarden-storefront/internal/domain"
)

type stubStorage struct {
	mu      sync.Mutex
	slots   map[string]string
	sets    []string
	deletes []string
	getErr  error
}

func newStubStorage() *stubStorage {
	return &stubStorage{slots: map[string]string{}}
}

func (s *stubStorage) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", false, s.getErr
	}
	v, ok := s.slots[key]
	return v, ok, nil
}

func (s *stubStorage) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[key] = value
	s.sets = append(s.sets, key)
	return nil
}

func (s *stubStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, key)
	s.deletes = append(s.deletes, key)
	return nil
}

func (s *stubStorage) slot(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.slots[key]
	return v, ok
}

func (s *stubStorage) setCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sets)
}

type stubTransport struct {
	mu           sync.Mutex
	result       Result
	err          error
	calls        int
	lastEndpoint string
	lastPayload  url.Values
	started      chan struct{}
	release      chan struct{}
}

func (s *stubTransport) Submit(_ context.Context, endpoint string, payload url.Values) (Result, error) {
	s.mu.Lock()
	s.calls++
	s.lastEndpoint = endpoint
	s.lastPayload = payload
	started, release := s.started, s.release
	s.mu.Unlock()

	if started != nil {
		close(started)
	}
	if release != nil {
		<-release
	}
	return s.result, s.err
}

func (s *stubTransport) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newMockClock() *clock.Mock {
	c := clock.NewMock()
	c.Set(time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC))
	return c
}

func fillContact(t *testing.T, c *Controller) {
	t.Helper()
	values := map[string]string{
		"name":    "Asha Verma",
		"email":   "asha@example.com",
		"subject": "feedback",
		"message": "Loved the paneer tikka last night.",
	}
	for name, v := range values {
		if _, err := c.HandleFieldChange(name, v); err != nil {
			t.Fatalf("change %s: %v", name, err)
		}
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func hasState(trail []State, s State) bool {
	for _, st := range trail {
		if st == s {
			return true
		}
	}
	return false
}

func TestSubmitSuccess(t *testing.T) {
	store := newStubStorage()
	store.slots["contactFormDraft"] = `{"name":"Asha"}`
	tr := &stubTransport{result: Result{Success: true}}
	c := New(ContactSchema(), store, tr, WithClock(newMockClock()), WithExtra("user_agent", "test-agent"))
	c.Init(context.Background())
	fillContact(t, c)

	out := c.HandleSubmit(context.Background())

	want := []State{Validating, Submitting, Succeeded, Idle}
	if len(out.Trail) != len(want) {
		t.Fatalf("unexpected trail %v", out.Trail)
	}
	for i := range want {
		if out.Trail[i] != want[i] {
			t.Fatalf("unexpected trail %v", out.Trail)
		}
	}
	if out.State != Idle || c.State() != Idle {
		t.Fatalf("expected idle after success, got %s", out.State)
	}
	if out.Notice == nil || out.Notice.Kind != domain.NoticeSuccess {
		t.Fatalf("expected success notice, got %+v", out.Notice)
	}
	if !out.DraftCleared {
		t.Fatalf("expected draft cleared")
	}
	if _, ok := store.slot("contactFormDraft"); ok {
		t.Fatalf("draft still in storage")
	}
	for name, v := range c.Values() {
		if v != "" {
			t.Fatalf("field %s not reset: %q", name, v)
		}
	}
	if tr.callCount() != 1 || tr.lastEndpoint != "/contact" {
		t.Fatalf("unexpected transport usage: %d calls to %q", tr.callCount(), tr.lastEndpoint)
	}
	if tr.lastPayload.Get("email") != "asha@example.com" || tr.lastPayload.Get("timestamp") == "" {
		t.Fatalf("unexpected payload %v", tr.lastPayload)
	}
	if tr.lastPayload.Get("user_agent") != "test-agent" {
		t.Fatalf("missing extra field in payload %v", tr.lastPayload)
	}
	if _, ok := tr.lastPayload["priority"]; ok {
		t.Fatalf("empty radio should not be posted")
	}
}

func TestSubmitWhileSubmittingIsIgnored(t *testing.T) {
	tr := &stubTransport{
		result:  Result{Success: true},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	c := New(ContactSchema(), newStubStorage(), tr, WithClock(newMockClock()))
	fillContact(t, c)

	done := make(chan Outcome, 1)
	go func() { done <- c.HandleSubmit(context.Background()) }()
	<-tr.started

	if c.State() != Submitting {
		t.Fatalf("expected submitting, got %s", c.State())
	}
	second := c.HandleSubmit(context.Background())
	if !second.Ignored || second.State != Submitting {
		t.Fatalf("expected ignored submit, got %+v", second)
	}

	close(tr.release)
	first := <-done
	if !hasState(first.Trail, Succeeded) {
		t.Fatalf("first submit did not succeed: %v", first.Trail)
	}
	if tr.callCount() != 1 {
		t.Fatalf("expected one transport call, got %d", tr.callCount())
	}
}

func TestSubmitFailurePreservesValuesAndDraft(t *testing.T) {
	tests := []struct {
		name string
		tr   *stubTransport
		want string
	}{
		{name: "rejected with message", tr: &stubTransport{result: Result{Message: "Kitchen closed for a private event"}}, want: "Kitchen closed for a private event"},
		{name: "rejected without message", tr: &stubTransport{result: Result{}}, want: "Failed to send message. Please try again."},
		{name: "network error", tr: &stubTransport{err: errors.New("connection refused")}, want: "Something went wrong. Please try again or contact us directly."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStubStorage()
			store.slots["contactFormDraft"] = `{"name":"Asha Verma"}`
			c := New(ContactSchema(), store, tt.tr, WithClock(newMockClock()))
			fillContact(t, c)
			before := c.Values()

			out := c.HandleSubmit(context.Background())

			if !hasState(out.Trail, Failed) || out.State != Idle {
				t.Fatalf("expected failed then idle, got %v / %s", out.Trail, out.State)
			}
			if out.Notice == nil || out.Notice.Kind != domain.NoticeError || out.Notice.Message != tt.want {
				t.Fatalf("unexpected notice %+v", out.Notice)
			}
			for name, v := range before {
				if c.Values()[name] != v {
					t.Fatalf("field %s lost its value", name)
				}
			}
			if _, ok := store.slot("contactFormDraft"); !ok {
				t.Fatalf("draft deleted after failure")
			}
			if out.DraftCleared {
				t.Fatalf("draft reported cleared after failure")
			}
		})
	}
}

func TestSubmitInvalidDoesNotCallTransport(t *testing.T) {
	tr := &stubTransport{result: Result{Success: true}}
	c := New(ContactSchema(), newStubStorage(), tr, WithClock(newMockClock()))
	if _, err := c.HandleFieldChange("email", "not-an-email"); err != nil {
		t.Fatalf("change: %v", err)
	}

	out := c.HandleSubmit(context.Background())

	if out.State != Invalid || tr.callCount() != 0 {
		t.Fatalf("expected invalid without transport call, got %s / %d calls", out.State, tr.callCount())
	}
	byField := map[string]string{}
	for _, e := range out.Errors {
		byField[e.Field] = e.Message
	}
	if byField["email"] != msgEmail || byField["name"] != msgRequired || byField["message"] != msgRequired {
		t.Fatalf("unexpected errors %+v", out.Errors)
	}
	if _, ok := byField["phone"]; ok {
		t.Fatalf("blank optional phone should pass")
	}
}

func TestConsentCheckedOnlyAtSubmit(t *testing.T) {
	tr := &stubTransport{result: Result{Success: true}}
	c := New(ReservationSchema(), newStubStorage(), tr, WithClock(newMockClock()))
	fields := map[string]string{
		"name":   "Ravi",
		"email":  "ravi@example.com",
		"phone":  "+91 98765 43210",
		"date":   "2026-10-25",
		"time":   "19:00",
		"guests": "2",
	}
	for k, v := range fields {
		if _, err := c.HandleFieldChange(k, v); err != nil {
			t.Fatalf("change %s: %v", k, err)
		}
	}

	blur, err := c.HandleBlur("terms")
	if err != nil {
		t.Fatalf("blur: %v", err)
	}
	if len(blur.Errors) != 0 {
		t.Fatalf("consent must not be validated on blur: %+v", blur.Errors)
	}

	out := c.HandleSubmit(context.Background())
	if out.State != Invalid || tr.callCount() != 0 {
		t.Fatalf("expected invalid without transport call, got %s", out.State)
	}
	if out.Notice == nil || out.Notice.Message != "Please accept the Terms & Conditions" {
		t.Fatalf("expected consent notice, got %+v", out.Notice)
	}
	if len(out.Errors) != 0 {
		t.Fatalf("consent failure must not be a field error: %+v", out.Errors)
	}

	if _, err := c.HandleFieldChange("terms", "on"); err != nil {
		t.Fatalf("change terms: %v", err)
	}
	out = c.HandleSubmit(context.Background())
	if !hasState(out.Trail, Succeeded) {
		t.Fatalf("expected success once terms accepted, got %v", out.Trail)
	}
	if tr.lastPayload.Get("terms") != "on" {
		t.Fatalf("terms not posted: %v", tr.lastPayload)
	}
}

func TestBlurAndChangeTransitions(t *testing.T) {
	c := New(ContactSchema(), newStubStorage(), &stubTransport{}, WithClock(newMockClock()))
	if _, err := c.HandleFieldChange("email", "nope"); err != nil {
		t.Fatalf("change: %v", err)
	}

	out, err := c.HandleBlur("email")
	if err != nil {
		t.Fatalf("blur: %v", err)
	}
	if out.State != Invalid || len(out.Errors) != 1 || out.Errors[0].Message != msgEmail {
		t.Fatalf("unexpected blur outcome %+v", out)
	}
	if out.Trail[0] != Validating {
		t.Fatalf("expected validating in trail, got %v", out.Trail)
	}
	if errs := c.Errors(); len(errs) != 1 || errs[0] != (FieldError{Field: "email", Message: msgEmail}) {
		t.Fatalf("unexpected error set %+v", errs)
	}

	out, err = c.HandleFieldChange("email", "nope@")
	if err != nil {
		t.Fatalf("change: %v", err)
	}
	if out.State != Idle || len(out.Errors) != 0 {
		t.Fatalf("expected optimistic re-enable, got %+v", out)
	}
	if errs := c.Errors(); len(errs) != 0 {
		t.Fatalf("error set not cleared by change: %+v", errs)
	}

	if _, err := c.HandleBlur("unknown"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if _, err := c.HandleFieldChange("unknown", "x"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
}

func TestAutosaveDebounce(t *testing.T) {
	mock := newMockClock()
	store := newStubStorage()
	c := New(ContactSchema(), store, &stubTransport{}, WithClock(mock))

	if _, err := c.HandleFieldChange("name", "As"); err != nil {
		t.Fatalf("change: %v", err)
	}
	mock.Add(time.Second)
	if _, err := c.HandleFieldChange("name", "Asha"); err != nil {
		t.Fatalf("change: %v", err)
	}
	mock.Add(1500 * time.Millisecond)
	if store.setCount() != 0 {
		t.Fatalf("draft written before quiet period elapsed")
	}

	mock.Add(time.Second)
	waitFor(t, func() bool { return store.setCount() >= 1 })
	time.Sleep(20 * time.Millisecond)
	if got := store.setCount(); got != 1 {
		t.Fatalf("expected exactly one autosave write, got %d", got)
	}

	raw, _ := store.slot("contactFormDraft")
	var draft map[string]any
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		t.Fatalf("draft not json: %v", err)
	}
	if draft["name"] != "Asha" {
		t.Fatalf("draft has stale value %v", draft["name"])
	}
	if len(draft) != len(ContactSchema().Fields) {
		t.Fatalf("draft keys do not match fields: %v", draft)
	}
}

func TestCloseFlushesPendingDraft(t *testing.T) {
	store := newStubStorage()
	c := New(ContactSchema(), store, &stubTransport{}, WithClock(newMockClock()))
	if _, err := c.HandleFieldChange("name", "Asha"); err != nil {
		t.Fatalf("change: %v", err)
	}
	c.Close()
	if store.setCount() != 1 {
		t.Fatalf("expected flush to write once, got %d", store.setCount())
	}
}

func TestInitRestoresDraft(t *testing.T) {
	store := newStubStorage()
	store.slots["contactFormDraft"] = `{"name":"Asha","message":"Short","removedField":"x","priority":"high"}`
	c := New(ContactSchema(), store, &stubTransport{}, WithClock(newMockClock()))

	out := c.Init(context.Background())

	if out.Values["name"] != "Asha" || out.Values["priority"] != "high" {
		t.Fatalf("draft not restored: %+v", out.Values)
	}
	if _, ok := out.Values["removedField"]; ok {
		t.Fatalf("unknown draft key restored")
	}
	if len(out.Errors) != 0 || out.State != Idle {
		t.Fatalf("restore must not validate: %+v", out.Errors)
	}
	if out.Counters["message"].Length != 5 {
		t.Fatalf("counter not recomputed: %+v", out.Counters)
	}
	if out.Notice == nil || out.Notice.Kind != domain.NoticeInfo {
		t.Fatalf("expected restore notice, got %+v", out.Notice)
	}

	store.slots["contactFormDraft"] = `{"name":"Other"}`
	if again := c.Init(context.Background()); again.Values["name"] != "Asha" {
		t.Fatalf("draft consulted twice")
	}
}

func TestInitIgnoresCorruptDraft(t *testing.T) {
	store := newStubStorage()
	store.slots["contactFormDraft"] = `{"name":`
	c := New(ContactSchema(), store, &stubTransport{}, WithClock(newMockClock()))

	out := c.Init(context.Background())
	if out.Notice != nil || out.Values["name"] != "" {
		t.Fatalf("corrupt draft should be treated as absent: %+v", out)
	}

	store = newStubStorage()
	store.getErr = errors.New("db down")
	out = New(ContactSchema(), store, &stubTransport{}).Init(context.Background())
	if out.State != Idle {
		t.Fatalf("storage failure should leave form idle")
	}
}

func TestReservationCartHandoff(t *testing.T) {
	menu := cart.New()
	menu.Add(1, "Paneer Tikka", 25000)
	menu.Add(1, "Paneer Tikka", 25000)
	blob, err := menu.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	store := newStubStorage()
	store.slots[cart.SlotKey] = string(blob)
	tr := &stubTransport{result: Result{Success: true}}
	handedOff := 0
	c := New(ReservationSchema(), store, tr, WithClock(newMockClock()), WithCartHandoff(),
		WithHandoffComplete(func() { handedOff++ }))
	c.Init(context.Background())

	lines, total := c.Cart()
	if len(lines) != 1 || total != 50000 {
		t.Fatalf("unexpected cart preview %+v total %d", lines, total)
	}

	for k, v := range map[string]string{
		"name": "Ravi", "email": "ravi@example.com", "phone": "9876543210",
		"date": "2026-10-21", "time": "19:30", "guests": "4", "terms": "on",
	} {
		if _, err := c.HandleFieldChange(k, v); err != nil {
			t.Fatalf("change %s: %v", k, err)
		}
	}
	out := c.HandleSubmit(context.Background())
	if !hasState(out.Trail, Succeeded) {
		t.Fatalf("expected success, got %v %+v", out.Trail, out.Errors)
	}
	if tr.lastPayload.Get("cart_items") != string(blob) {
		t.Fatalf("cart snapshot not in payload: %v", tr.lastPayload)
	}
	if _, ok := store.slot(cart.SlotKey); ok {
		t.Fatalf("cart slot not deleted after success")
	}
	if lines, _ := c.Cart(); len(lines) != 0 {
		t.Fatalf("cart preview not cleared")
	}
	if !out.CartCleared || handedOff != 1 {
		t.Fatalf("handoff completion not reported: %v / %d calls", out.CartCleared, handedOff)
	}
}

func TestReservationWithoutHandoffSignalIgnoresCart(t *testing.T) {
	store := newStubStorage()
	store.slots[cart.SlotKey] = `[{"id":1,"name":"Tea","price":20,"quantity":1}]`
	c := New(ReservationSchema(), store, &stubTransport{}, WithClock(newMockClock()))
	c.Init(context.Background())

	if lines, _ := c.Cart(); len(lines) != 0 {
		t.Fatalf("cart read without from-menu signal")
	}
}

func TestFieldHooks(t *testing.T) {
	c := New(ContactSchema(), newStubStorage(), &stubTransport{}, WithClock(newMockClock()))

	if _, err := c.HandleFieldChange("subject", "catering"); err != nil {
		t.Fatalf("change: %v", err)
	}
	if got := c.Values()["message"]; got != subjectTemplates["catering"] {
		t.Fatalf("message not prefilled: %q", got)
	}
	if _, err := c.HandleFieldChange("subject", "feedback"); err != nil {
		t.Fatalf("change: %v", err)
	}
	if got := c.Values()["message"]; got != subjectTemplates["catering"] {
		t.Fatalf("prefill overwrote a non-empty message: %q", got)
	}

	long := make([]byte, 600)
	for i := range long {
		long[i] = 'a'
	}
	out, err := c.HandleFieldChange("message", string(long))
	if err != nil {
		t.Fatalf("change: %v", err)
	}
	if got := out.Counters["message"]; got.Length != 500 || got.Level != "danger" {
		t.Fatalf("unexpected counter %+v", got)
	}
	if c.Counters()["message"] != out.Counters["message"] {
		t.Fatalf("counter query disagrees with outcome")
	}

	r := New(ReservationSchema(), newStubStorage(), &stubTransport{}, WithClock(newMockClock()))
	out, err = r.HandleFieldChange("date", "2026-10-19")
	if err != nil {
		t.Fatalf("change: %v", err)
	}
	if out.Values["date"] != "" || out.Notice == nil || out.Notice.Kind != domain.NoticeWarning {
		t.Fatalf("same-day date not rejected: %+v", out)
	}
	out, err = r.HandleFieldChange("guests", "10")
	if err != nil {
		t.Fatalf("change: %v", err)
	}
	if out.Notice == nil || out.Notice.Kind != domain.NoticeInfo {
		t.Fatalf("expected large party notice, got %+v", out.Notice)
	}
}
