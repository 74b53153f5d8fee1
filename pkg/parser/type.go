package parser

import (
	"fmt"
	"regexp"

	"github.com/NotCoffee418/dsmr_telegram/pkg/obis"
)

// Entry binds a line pattern to the parser and field it produces.
type Entry struct {
	Field   obis.Field
	Pattern *regexp.Regexp
	Parser  LineParser
	// Repeatable entries collect every matching line in an ObjectList.
	Repeatable bool
}

// NewEntry uses the default pattern of field. It panics for a field without
// one, so tables fail at startup.
func NewEntry(field obis.Field, p LineParser) Entry {
	if !obis.Known(field) {
		panic(fmt.Sprintf("parser: no default pattern for field %s", field))
	}
	return Entry{Field: field, Pattern: regexp.MustCompile(field.Pattern()), Parser: p}
}

// NewEntryWithPattern binds a custom pattern to field.
func NewEntryWithPattern(field obis.Field, pattern string, p LineParser) (Entry, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Entry{}, fmt.Errorf("compile pattern for %s: %w", field, err)
	}
	return Entry{Field: field, Pattern: re, Parser: p}, nil
}

func (e Entry) AsRepeatable() Entry {
	e.Repeatable = true
	return e
}

// Specification describes one meter variant. Entries are matched in order,
// the first match wins.
//
// Specifications are values. Use With and Without to derive variants
// instead of modifying Entries in place.
type Specification struct {
	Name                string
	ChecksumSupport     bool
	GeneralGlobalCipher bool
	Entries             []Entry
}

// With returns a copy named name. An entry for a field already present
// replaces it in place, other entries are appended.
func (s Specification) With(name string, entries ...Entry) Specification {
	out := s.clone(name)
	for _, e := range entries {
		replaced := false
		for i := range out.Entries {
			if out.Entries[i].Field == e.Field {
				out.Entries[i] = e
				replaced = true
				break
			}
		}
		if !replaced {
			out.Entries = append(out.Entries, e)
		}
	}
	return out
}

// Without returns a copy named name that no longer matches fields.
func (s Specification) Without(name string, fields ...obis.Field) Specification {
	drop := make(map[obis.Field]bool, len(fields))
	for _, f := range fields {
		drop[f] = true
	}
	out := s.clone(name)
	kept := out.Entries[:0]
	for _, e := range out.Entries {
		if !drop[e.Field] {
			kept = append(kept, e)
		}
	}
	out.Entries = kept
	return out
}

func (s Specification) clone(name string) Specification {
	out := s
	out.Name = name
	out.Entries = append([]Entry(nil), s.Entries...)
	return out
}

// Entry returns the entry for field.
func (s Specification) Entry(field obis.Field) (Entry, bool) {
	for _, e := range s.Entries {
		if e.Field == field {
			return e, true
		}
	}
	return Entry{}, false
}

// Match returns the first entry whose pattern matches line.
func (s Specification) Match(line string) (Entry, bool) {
	for _, e := range s.Entries {
		if e.Pattern.MatchString(line) {
			return e, true
		}
	}
	return Entry{}, false
}
