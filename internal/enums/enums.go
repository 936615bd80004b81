// Package enums provides data-driven enum/string codec tables for the
// closed option sets used by keyword argument parsers.
//
// Each set is declared once, at package initialization, as a list of
// (numeric code, identifier, variant) entries. The canonical string form
// of a variant is derived deterministically from its identifier
// (CamelCase -> lower snake_case), and every declared variant must
// round-trip through both the numeric and string mappings.
//
// Lookups return (zero, false) for unknown codes and names rather than
// an error: an unrecognized token is an ordinary parse-time condition
// for callers to report, not an exceptional path.
package enums

import (
	"fmt"
	"strings"
	"unicode"
)

// Entry declares one variant of a closed set.
type Entry[T comparable] struct {
	// Code is the wire-stable numeric value. Never renumbered.
	Code uint8

	// Ident is the variant identifier the canonical name derives from.
	Ident string

	// Variant is the typed enum value.
	Variant T
}

// Set is a frozen bidirectional mapping between variants, their numeric
// codes, and their canonical names. Built once via NewSet and read-only
// thereafter, so lookups are safe from any goroutine.
type Set[T comparable] struct {
	byCode map[uint8]T
	byName map[string]T
	codes  map[T]uint8
	names  map[T]string
}

// NewSet builds a Set from declared entries.
//
// Panics on duplicate codes, duplicate canonical names, or duplicate
// variants: the tables are program constants, and a malformed table is a
// programming error, not a runtime condition.
func NewSet[T comparable](entries ...Entry[T]) *Set[T] {
	s := &Set[T]{
		byCode: make(map[uint8]T, len(entries)),
		byName: make(map[string]T, len(entries)),
		codes:  make(map[T]uint8, len(entries)),
		names:  make(map[T]string, len(entries)),
	}
	for _, e := range entries {
		name := SnakeCase(e.Ident)
		if _, dup := s.byCode[e.Code]; dup {
			panic(fmt.Sprintf("enums: duplicate code %d in set", e.Code))
		}
		if _, dup := s.byName[name]; dup {
			panic(fmt.Sprintf("enums: duplicate name %q in set", name))
		}
		if _, dup := s.codes[e.Variant]; dup {
			panic(fmt.Sprintf("enums: duplicate variant for code %d", e.Code))
		}
		s.byCode[e.Code] = e.Variant
		s.byName[name] = e.Variant
		s.codes[e.Variant] = e.Code
		s.names[e.Variant] = name
	}
	return s
}

// FromCode returns the variant with the given numeric code.
func (s *Set[T]) FromCode(code uint8) (T, bool) {
	v, ok := s.byCode[code]
	return v, ok
}

// Code returns the numeric code of a declared variant.
func (s *Set[T]) Code(v T) uint8 {
	return s.codes[v]
}

// Name returns the canonical name of a declared variant.
func (s *Set[T]) Name(v T) string {
	return s.names[v]
}

// FromName returns the variant whose canonical name matches exactly.
// No case folding, no aliasing.
func (s *Set[T]) FromName(name string) (T, bool) {
	v, ok := s.byName[name]
	return v, ok
}

// Variants returns all declared variants. Order is unspecified.
func (s *Set[T]) Variants() []T {
	out := make([]T, 0, len(s.names))
	for v := range s.names {
		out = append(out, v)
	}
	return out
}

// SnakeCase derives the canonical name from a variant identifier.
// Word boundaries are transitions from lower/digit to upper, and the
// last letter of an all-caps run followed by a lower letter, so
// "BestValueEver" -> "best_value_ever" and "DCE" -> "dce".
func SnakeCase(ident string) string {
	var b strings.Builder
	runes := []rune(ident)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			prevLower := i > 0 && !unicode.IsUpper(runes[i-1]) && runes[i-1] != '_'
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if i > 0 && (prevLower || (unicode.IsUpper(runes[i-1]) && nextLower)) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
