package form

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"spicegarden-storefront/internal/domain"
)

// Kind drives which type rule applies to a field.
type Kind string

const (
	KindText     Kind = "text"
	KindEmail    Kind = "email"
	KindTel      Kind = "tel"
	KindDate     Kind = "date"
	KindSelect   Kind = "select"
	KindRadio    Kind = "radio"
	KindTextarea Kind = "textarea"
	KindCheckbox Kind = "checkbox"
)

// checkedValue is how a ticked checkbox is held and posted.
const checkedValue = "on"

// Field describes one input of a form.
type Field struct {
	Name     string
	Kind     Kind
	Required bool

	// MinLength is checked against the trimmed value after the type rule.
	MinLength        int
	MinLengthMessage string
	// MaxLength truncates input on change; zero means unlimited.
	MaxLength        int
	// Counter exposes a character counter for the field.
	Counter          bool

	// Consent fields must be ticked at submit time. The failure is reported
	// as a notice, never as a field error.
	Consent        bool
	ConsentMessage string

	OnChange Hook
}

// Hook runs after a field value changes, under the controller lock.
type Hook func(h *HookContext)

// HookContext gives a hook access to the changed value and its siblings.
type HookContext struct {
	Value  string
	Now    time.Time
	Notice *domain.Notice

	values map[string]string
}

func (h *HookContext) Get(name string) string {
	return h.values[name]
}

// Set updates a sibling field. Unknown names are ignored.
func (h *HookContext) Set(name, value string) {
	if _, ok := h.values[name]; ok {
		h.values[name] = value
	}
}

// Schema is the static description of one form.
type Schema struct {
	Name     string
	Endpoint string
	DraftKey string
	Fields   []Field

	// AcceptsCart folds the menu cart snapshot into the submission when the
	// controller is opened with the from-menu signal.
	AcceptsCart bool

	SuccessMessage string
	// FailureMessage is used when the backend rejects without a message.
	FailureMessage string
	// ErrorMessage is used when the backend cannot be reached.
	ErrorMessage   string

	// Extras adds schema specific payload fields at submit time.
	Extras func(now time.Time) url.Values
}

func (s Schema) field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

var subjectTemplates = map[string]string{
	"reservation":   "I would like to inquire about making a reservation...",
	"catering":      "I am interested in your catering services for...",
	"private_event": "I would like to book a private event for...",
	"feedback":      "I recently dined at your restaurant and wanted to share my feedback...",
	"complaint":     "I had an issue during my recent visit that I would like to address...",
	"job":           "I am interested in career opportunities at Spice Garden Restaurant...",
	"media":         "I am contacting you regarding a media inquiry about...",
}

// ContactSchema is the contact page form.
func ContactSchema() Schema {
	return Schema{
		Name:     "contact",
		Endpoint: "/contact",
		DraftKey: "contactFormDraft",
		Fields: []Field{
			{Name: "name", Kind: KindText, Required: true},
			{Name: "email", Kind: KindEmail, Required: true},
			{Name: "phone", Kind: KindTel},
			{Name: "subject", Kind: KindSelect, Required: true, OnChange: prefillMessage},
			{Name: "priority", Kind: KindRadio},
			{
				Name:             "message",
				Kind:             KindTextarea,
				Required:         true,
				MinLength:        10,
				MinLengthMessage: "Please provide more details (minimum 10 characters)",
				MaxLength:        500,
				Counter:          true,
			},
		},
		SuccessMessage: "Message sent successfully! We will get back to you soon.",
		FailureMessage: "Failed to send message. Please try again.",
		ErrorMessage:   "Something went wrong. Please try again or contact us directly.",
		Extras: func(now time.Time) url.Values {
			return url.Values{"timestamp": {now.UTC().Format(time.RFC3339)}}
		},
	}
}

// ReservationSchema is the table booking form.
func ReservationSchema() Schema {
	return Schema{
		Name:     "reservation",
		Endpoint: "/reservations",
		DraftKey: "reservationFormDraft",
		Fields: []Field{
			{Name: "name", Kind: KindText, Required: true},
			{Name: "email", Kind: KindEmail, Required: true},
			{Name: "phone", Kind: KindTel, Required: true},
			{Name: "date", Kind: KindDate, Required: true, OnChange: rejectSameDay},
			{Name: "time", Kind: KindSelect, Required: true},
			{Name: "guests", Kind: KindSelect, Required: true, OnChange: largePartyNotice},
			{Name: "occasion", Kind: KindSelect},
			{Name: "message", Kind: KindTextarea, MaxLength: 500, Counter: true},
			{Name: "terms", Kind: KindCheckbox, Consent: true, ConsentMessage: "Please accept the Terms & Conditions"},
		},
		AcceptsCart:    true,
		SuccessMessage: "Reservation request submitted! We will confirm shortly.",
		FailureMessage: "Reservation failed. Please try again.",
		ErrorMessage:   "Something went wrong. Please try again or call us directly.",
	}
}

// prefillMessage seeds an empty message with a template for the subject.
func prefillMessage(h *HookContext) {
	tmpl, ok := subjectTemplates[h.Value]
	if ok && h.Get("message") == "" {
		h.Set("message", tmpl)
	}
}

func rejectSameDay(h *HookContext) {
	if h.Value == h.Now.Format(dateLayout) {
		h.Value = ""
		h.Notice = domain.NewNotice(domain.NoticeWarning, "Please select a date at least 1 day in advance.")
	}
}

func largePartyNotice(h *HookContext) {
	n, err := strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(h.Value, "+")))
	if err == nil && n >= 9 {
		h.Notice = domain.NewNotice(domain.NoticeInfo, "For parties of 9 or more, please call us directly to make arrangements.")
	}
}
