package form

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const dateLayout = "2006-01-02"

// Reservations open at most this far ahead.
const maxAdvanceMonths = 3

const (
	msgRequired  = "This field is required"
	msgEmail     = "Please enter a valid email address"
	msgPhone     = "Please enter a valid phone number"
	msgDate      = "Please select a valid future date"
	msgDateRange = "Reservations can be made up to 3 months in advance"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[\d \-()]+$`)
)

// FieldError is a validation failure attached to one field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidEmail reports whether v has a local@domain.tld shape.
func ValidEmail(v string) bool {
	return emailPattern.MatchString(v)
}

// ValidPhone accepts an optional leading +, digits, spaces, dashes and
// parentheses, with at least ten digits.
func ValidPhone(v string) bool {
	if !phonePattern.MatchString(v) {
		return false
	}
	digits := 0
	for _, r := range v {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return digits >= 10
}

// checkField applies the rules for one field in order and returns the first
// failure message, or "" when the value passes.
func checkField(f Field, raw string, now time.Time) string {
	v := strings.TrimSpace(raw)
	if v == "" {
		if f.Required {
			return msgRequired
		}
		return ""
	}

	switch f.Kind {
	case KindEmail:
		if !ValidEmail(v) {
			return msgEmail
		}
	case KindTel:
		if !ValidPhone(v) {
			return msgPhone
		}
	case KindDate:
		if msg := checkDate(v, now); msg != "" {
			return msg
		}
	}

	if f.MinLength > 0 && utf8.RuneCountInString(v) < f.MinLength {
		if f.MinLengthMessage != "" {
			return f.MinLengthMessage
		}
		return fmt.Sprintf("Please enter at least %d characters", f.MinLength)
	}
	return ""
}

// checkDate requires a date strictly after today and no further out than the
// booking window.
func checkDate(v string, now time.Time) string {
	d, err := time.ParseInLocation(dateLayout, v, now.Location())
	if err != nil {
		return msgDate
	}
	today := startOfDay(now)
	if !d.After(today) {
		return msgDate
	}
	if d.After(today.AddDate(0, maxAdvanceMonths, 0)) {
		return msgDateRange
	}
	return ""
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
