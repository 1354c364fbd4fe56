// Package submission models a single form submission: the fields the form
// declares, the raw answers the user gave, and the best-effort extraction
// of display-ready field values used for composing emails.
package submission

import (
	"fmt"
	"strings"
	"unicode"
)

// Value is a submitted answer. Exactly one of the three cases is set:
// a single string, a multi-value list, or an opaque raw object.
type Value struct {
	kind   valueKind
	single string
	multi  []string
	raw    any
}

type valueKind int

const (
	kindSingle valueKind = iota
	kindList
	kindRaw
)

// StringValue wraps a single string answer.
func StringValue(s string) Value { return Value{kind: kindSingle, single: s} }

// ListValue wraps a multi-value answer (checkbox groups, multi-selects).
func ListValue(vs ...string) Value { return Value{kind: kindList, multi: vs} }

// RawValue wraps an answer of unknown shape. Flatten falls back to its
// default string form.
func RawValue(v any) Value { return Value{kind: kindRaw, raw: v} }

// Flatten renders the answer as a single string. Multi-value answers are
// joined with ", "; a nil raw answer yields the empty string.
func (v Value) Flatten() string {
	switch v.kind {
	case kindList:
		return strings.Join(v.multi, ", ")
	case kindRaw:
		if v.raw == nil {
			return ""
		}
		return fmt.Sprint(v.raw)
	default:
		return v.single
	}
}

// Field is one field the form declares, in form order.
type Field struct {
	// ID is the identifier used to look up the submitted value.
	ID string
	// Alias is the machine name used as a raw token key.
	Alias string
	// Caption is the human label shown to the submitter, optional.
	Caption string
}

// DisplayName prefers the human caption over the machine alias.
func (f Field) DisplayName() string {
	if f.Caption != "" {
		return f.Caption
	}
	return f.Alias
}

// Entry is one raw record entry: field identifier and submitted value,
// in submission order.
type Entry struct {
	Key   string
	Value Value
}

// Record is the read-only view of one submission, owned by the host form
// system. Fields and Value may fail when field metadata is unavailable;
// Entries never fails and backs the fallback paths.
type Record interface {
	// FormName returns the form's display name.
	FormName() string
	// Fields returns the declared fields in form order.
	Fields() ([]Field, error)
	// Value looks up the raw submitted value for a declared field.
	Value(fieldID string) (Value, error)
	// Entries returns the raw record entries in submission order.
	Entries() []Entry
}

// FormField is a display-ready (name, value) pair extracted from a record.
type FormField struct {
	Name  string
	Value string
}

// ExtractFields walks the record's declared fields and resolves each value,
// flattening multi-value answers. Extraction is best effort: a failure on
// one field yields a diagnostic value for that field only, and a failure to
// enumerate the declared fields at all falls back to iterating the raw
// entries, with a diagnostic pseudo-field prepended. An email composed from
// incomplete metadata still has to go out.
func ExtractFields(rec Record) []FormField {
	fields, err := rec.Fields()
	if err != nil {
		out := []FormField{{
			Name:  "Debug Info",
			Value: fmt.Sprintf("Error enumerating form fields: %v", err),
		}}
		for _, e := range rec.Entries() {
			out = append(out, FormField{Name: ReadableName(e.Key), Value: e.Value.Flatten()})
		}
		return out
	}

	out := make([]FormField, 0, len(fields))
	for _, f := range fields {
		var value string
		v, err := rec.Value(f.ID)
		if err != nil {
			value = fmt.Sprintf("Error getting value: %v", err)
		} else {
			value = v.Flatten()
		}
		out = append(out, FormField{Name: f.DisplayName(), Value: value})
	}
	return out
}

// ReadableName derives a human-readable label from a raw field key by
// inserting a space before each interior upper-case letter and
// capitalizing the first letter: "emailAddress" becomes "Email Address".
func ReadableName(key string) string {
	if key == "" {
		return key
	}

	var b strings.Builder
	for i, r := range key {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		if i == 0 {
			r = unicode.ToUpper(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// MemoryRecord is an in-memory Record implementation used by the CLI and
// by hosts that already hold the submission in process.
type MemoryRecord struct {
	Name     string
	Declared []Field
	entries  []Entry
	index    map[string]Value
}

// NewMemoryRecord builds a record from the declared fields and the ordered
// raw entries.
func NewMemoryRecord(name string, declared []Field, entries []Entry) *MemoryRecord {
	index := make(map[string]Value, len(entries))
	for _, e := range entries {
		index[e.Key] = e.Value
	}
	return &MemoryRecord{
		Name:     name,
		Declared: declared,
		entries:  entries,
		index:    index,
	}
}

// FormName returns the form's display name.
func (r *MemoryRecord) FormName() string { return r.Name }

// Fields returns the declared fields in form order.
func (r *MemoryRecord) Fields() ([]Field, error) { return r.Declared, nil }

// Value looks up a raw value by field identifier. A declared field the
// submitter never answered resolves to an empty value, not an error, so
// it is omitted from field tables rather than flagged.
func (r *MemoryRecord) Value(fieldID string) (Value, error) {
	return r.index[fieldID], nil
}

// Entries returns the raw record entries in submission order.
func (r *MemoryRecord) Entries() []Entry { return r.entries }
