package form

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestValidEmail(t *testing.T) {
	tests := map[string]bool{
		"a@b.co":               true,
		"guest@spicegarden.in": true,
		"not-an-email":         false,
		"a@b":                  false,
		"a b@c.de":             false,
		"@b.co":                false,
	}
	for in, want := range tests {
		if got := ValidEmail(in); got != want {
			t.Errorf("ValidEmail(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestValidPhone(t *testing.T) {
	tests := map[string]bool{
		"+91 98765 43210": true,
		"(011) 2345-6789": true,
		"9876543210":      true,
		"12345":           false,
		"+91 98765":       false,
		"98765x43210":     false,
		"++919876543210":  false,
		"98765\t43210":    false,
		"98765\n43210":    false,
	}
	for in, want := range tests {
		if got := ValidPhone(in); got != want {
			t.Errorf("ValidPhone(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestCheckField(t *testing.T) {
	now := time.Date(2026, 10, 19, 15, 30, 0, 0, time.UTC)
	message := ContactSchema().Fields[5]

	tests := []struct {
		name  string
		field Field
		value string
		want  string
	}{
		{name: "required blank", field: Field{Name: "name", Kind: KindText, Required: true}, value: "   ", want: msgRequired},
		{name: "optional blank", field: Field{Name: "phone", Kind: KindTel}, value: "", want: ""},
		{name: "optional invalid phone", field: Field{Name: "phone", Kind: KindTel}, value: "12345", want: msgPhone},
		{name: "email", field: Field{Name: "email", Kind: KindEmail, Required: true}, value: "not-an-email", want: msgEmail},
		{name: "required wins over length", field: message, value: "", want: msgRequired},
		{name: "short message", field: message, value: "  too short ", want: "Please provide more details (minimum 10 characters)"},
		{name: "long enough message", field: message, value: "Table by the window please", want: ""},
		{name: "today is not in the future", field: Field{Name: "date", Kind: KindDate, Required: true}, value: "2026-10-19", want: msgDate},
		{name: "past date", field: Field{Name: "date", Kind: KindDate, Required: true}, value: "2026-10-01", want: msgDate},
		{name: "tomorrow", field: Field{Name: "date", Kind: KindDate, Required: true}, value: "2026-10-20", want: ""},
		{name: "beyond window", field: Field{Name: "date", Kind: KindDate, Required: true}, value: "2027-02-01", want: msgDateRange},
		{name: "unparseable date", field: Field{Name: "date", Kind: KindDate, Required: true}, value: "20/10/2026", want: msgDate},
		{name: "generic min length", field: Field{Name: "x", Kind: KindText, MinLength: 3}, value: "ab", want: "Please enter at least 3 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checkField(tt.field, tt.value, now); got != tt.want {
				t.Fatalf("checkField(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestStateString(t *testing.T) {
	if Submitting.String() != "submitting" || Idle.String() != "idle" {
		t.Fatalf("unexpected names %s %s", Submitting, Idle)
	}
	if State(42).String() != "state(42)" {
		t.Fatalf("unexpected fallback %s", State(42))
	}
}

func TestDecodeDraftNumbers(t *testing.T) {
	got, err := decodeDraft(ReservationSchema(), `{"guests":4,"message":1e21,"terms":true,"legacy":"x"}`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]string{"guests": "4", "message": "1000000000000000000000", "terms": checkedValue}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("draft mismatch (-want +got):\n%s", diff)
	}
}
