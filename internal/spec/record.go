// Package spec provides the record model for hand-authored trackerdb specs.
package spec

import (
	"fmt"
	"strings"
)

// Kind names a collection of spec records. Each kind lives in its own
// directory under the records root.
type Kind string

const (
	// KindCategories holds category records (db/categories/*.eno).
	KindCategories Kind = "categories"
	// KindOrganizations holds organization records (db/organizations/*.eno).
	KindOrganizations Kind = "organizations"
	// KindPatterns holds tracker pattern records (db/patterns/*.eno).
	KindPatterns Kind = "patterns"
)

// Kinds lists every record kind in export order.
var Kinds = []Kind{KindCategories, KindOrganizations, KindPatterns}

// Record is one spec file: a stable identifier plus a mapping from field
// name to its textual value. A field that is not in the map is absent.
type Record struct {
	Kind   Kind
	ID     string
	Path   string
	Fields map[string]string
}

// NewRecord creates an empty record of the given kind.
func NewRecord(kind Kind, id string) *Record {
	return &Record{
		Kind:   kind,
		ID:     id,
		Fields: make(map[string]string),
	}
}

// Field returns a handle bound to the named field. The lookup happens when
// one of the handle's value methods is called.
func (r *Record) Field(name string) FieldHandle {
	return FieldHandle{record: r, name: name}
}

// FieldHandle reads a single field of a Record under either the required or
// the optional access policy.
type FieldHandle struct {
	record *Record
	name   string
}

// Name returns the field name the handle is bound to.
func (h FieldHandle) Name() string {
	return h.name
}

// RequiredString returns the trimmed field value. It fails with a
// *MissingFieldError when the field is absent or blank.
func (h FieldHandle) RequiredString() (string, error) {
	value, ok := h.lookup()
	if ok {
		value = strings.TrimSpace(value)
	}
	if !ok || value == "" {
		return "", &MissingFieldError{
			Kind:  h.record.Kind,
			ID:    h.record.ID,
			Field: h.name,
		}
	}
	return value, nil
}

// OptionalString returns the field value untouched and true, or false when
// the field is absent. Newlines are preserved for multi-line fields.
func (h FieldHandle) OptionalString() (string, bool) {
	return h.lookup()
}

// OptionalStringOr returns the field value, or def when the field is absent
// or empty.
func (h FieldHandle) OptionalStringOr(def string) string {
	if value, ok := h.lookup(); ok && value != "" {
		return value
	}
	return def
}

func (h FieldHandle) lookup() (string, bool) {
	if h.record == nil || h.record.Fields == nil {
		return "", false
	}
	value, ok := h.record.Fields[h.name]
	return value, ok
}

// MissingFieldError reports a required field that is absent or empty.
type MissingFieldError struct {
	Kind  Kind
	ID    string
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s %q: missing required field %q", e.Kind, e.ID, e.Field)
}
