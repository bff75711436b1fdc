package spec

import (
	"errors"
	"testing"
)

func testRecord() *Record {
	r := NewRecord(KindPatterns, "acme-tracker")
	r.Fields["name"] = "  Acme Tracker \n"
	r.Fields["blank"] = "   "
	r.Fields["empty"] = ""
	r.Fields["domains"] = "acme.com\ntrack.acme.com\n"
	return r
}

func TestFieldHandle_RequiredString(t *testing.T) {
	r := testRecord()

	tests := []struct {
		name    string
		field   string
		want    string
		wantErr bool
	}{
		{name: "present value is trimmed", field: "name", want: "Acme Tracker"},
		{name: "multi-line value is trimmed", field: "domains", want: "acme.com\ntrack.acme.com"},
		{name: "absent field", field: "category", wantErr: true},
		{name: "empty field", field: "empty", wantErr: true},
		{name: "whitespace-only field", field: "blank", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Field(tt.field).RequiredString()
			if tt.wantErr {
				var missing *MissingFieldError
				if !errors.As(err, &missing) {
					t.Fatalf("RequiredString() error = %v, want *MissingFieldError", err)
				}
				if missing.Field != tt.field {
					t.Errorf("MissingFieldError.Field = %q, want %q", missing.Field, tt.field)
				}
				if missing.ID != "acme-tracker" {
					t.Errorf("MissingFieldError.ID = %q, want %q", missing.ID, "acme-tracker")
				}
				if missing.Kind != KindPatterns {
					t.Errorf("MissingFieldError.Kind = %q, want %q", missing.Kind, KindPatterns)
				}
				return
			}
			if err != nil {
				t.Fatalf("RequiredString() failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("RequiredString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFieldHandle_OptionalString(t *testing.T) {
	r := testRecord()

	if _, ok := r.Field("category").OptionalString(); ok {
		t.Error("OptionalString() on absent field reported present")
	}

	got, ok := r.Field("domains").OptionalString()
	if !ok {
		t.Fatal("OptionalString() on present field reported absent")
	}
	if got != "acme.com\ntrack.acme.com\n" {
		t.Errorf("OptionalString() = %q, want newlines preserved", got)
	}

	got, ok = r.Field("empty").OptionalString()
	if !ok || got != "" {
		t.Errorf("OptionalString() on empty field = (%q, %v), want (\"\", true)", got, ok)
	}
}

func TestFieldHandle_RepeatedReadsAreStable(t *testing.T) {
	r := testRecord()
	h := r.Field("name")

	first, err := h.RequiredString()
	if err != nil {
		t.Fatalf("RequiredString() failed: %v", err)
	}
	second, err := h.RequiredString()
	if err != nil {
		t.Fatalf("RequiredString() failed: %v", err)
	}
	if first != second {
		t.Errorf("RequiredString() not stable: %q then %q", first, second)
	}

	a, _ := h.OptionalString()
	b, _ := h.OptionalString()
	if a != b {
		t.Errorf("OptionalString() not stable: %q then %q", a, b)
	}
}

func TestFieldHandle_OptionalStringOr(t *testing.T) {
	r := testRecord()
	r.Fields["ghostery_id"] = "42"

	if got := r.Field("ghostery_id").OptionalStringOr(""); got != "42" {
		t.Errorf("OptionalStringOr() = %q, want %q", got, "42")
	}
	if got := r.Field("missing").OptionalStringOr("fallback"); got != "fallback" {
		t.Errorf("OptionalStringOr() = %q, want %q", got, "fallback")
	}
	if got := r.Field("empty").OptionalStringOr("fallback"); got != "fallback" {
		t.Errorf("OptionalStringOr() on empty = %q, want %q", got, "fallback")
	}
}

func TestFieldHandle_NilRecordFields(t *testing.T) {
	r := &Record{Kind: KindCategories, ID: "advertising"}

	if _, ok := r.Field("name").OptionalString(); ok {
		t.Error("OptionalString() on nil field map reported present")
	}
	if _, err := r.Field("name").RequiredString(); err == nil {
		t.Error("RequiredString() on nil field map succeeded")
	}
}

func TestMissingFieldError_Message(t *testing.T) {
	err := &MissingFieldError{Kind: KindOrganizations, ID: "acme", Field: "name"}
	want := `organizations "acme": missing required field "name"`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
