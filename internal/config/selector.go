package config

import (
	"strconv"
	"strings"

	"github.com/mdickers47/mux-media/internal/langs"
)

// Selector is one key in the "k:V[,k:V...]" syntax --defaults/--forceds/
// --names/--langs accept: an absolute stream index, an n-m range of
// indexes, or a language code.
type Selector struct {
	IsRange          bool
	IsLang           bool
	Index            int
	RangeLo, RangeHi int
	Lang             string
}

// ParseSelector parses a single "k" token.
func ParseSelector(s string) (Selector, error) {
	s = strings.TrimSpace(s)
	if lo, hi, ok := strings.Cut(s, "-"); ok && isAllDigits(lo) && isAllDigits(hi) {
		l, err1 := strconv.Atoi(lo)
		h, err2 := strconv.Atoi(hi)
		if err1 == nil && err2 == nil {
			return Selector{IsRange: true, RangeLo: l, RangeHi: h}, nil
		}
	}
	if isAllDigits(s) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return Selector{}, err
		}
		return Selector{Index: n}, nil
	}
	return Selector{IsLang: true, Lang: langs.Normalize(s)}, nil
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Matches reports whether the selector matches a stream's resolved index
// and/or its effective language.
func (s Selector) Matches(index int, lang string) bool {
	switch {
	case s.IsRange:
		return index >= s.RangeLo && index <= s.RangeHi
	case s.IsLang:
		return langs.Normalize(lang) == s.Lang
	default:
		return index == s.Index
	}
}

// KV is a small ordered map from Selector to a value of type T, backing
// the --names/--langs/--defaults/--forceds "k:V,k:V" syntax. First match
// wins, so entries keep their parse order.
type KV[T any] struct {
	Entries []KVEntry[T]
}

// KVEntry is one parsed "k:V" pair.
type KVEntry[T any] struct {
	Sel Selector
	Val T
}

// Lookup returns the first entry whose selector matches (index, lang).
func (kv *KV[T]) Lookup(index int, lang string) (T, bool) {
	var zero T
	if kv == nil {
		return zero, false
	}
	for _, e := range kv.Entries {
		if e.Sel.Matches(index, lang) {
			return e.Val, true
		}
	}
	return zero, false
}

// StreamFilterMode is which shape a per-type stream filter takes.
type StreamFilterMode int

const (
	FilterKeepAll StreamFilterMode = iota // absence: keep everything
	FilterInclude                          // explicit include set (possibly inverted)
	FilterDropAll                          // "no-<type>"
)

// StreamsFilter is the boolean-per-stream "save" decision: either an
// explicit include set or a "no-<type>" drop, with an optional leading
// "!" inverting membership.
type StreamsFilter struct {
	Mode      StreamFilterMode
	Invert    bool
	Selectors []Selector
}

// ParseStreamsFilter parses the value of --streams/--audio/--subs/etc.
// (comma-separated indexes, ranges, or language codes; an optional leading
// "!" inverts). value == "" with drop=true represents --no-streams /
// --no-audio etc.
func ParseStreamsFilter(value string, drop bool) (StreamsFilter, error) {
	if drop {
		return StreamsFilter{Mode: FilterDropAll}, nil
	}
	f := StreamsFilter{Mode: FilterInclude}
	if strings.HasPrefix(value, "!") {
		f.Invert = true
		value = value[1:]
	}
	for _, tok := range strings.Split(value, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		sel, err := ParseSelector(tok)
		if err != nil {
			return f, err
		}
		f.Selectors = append(f.Selectors, sel)
	}
	return f, nil
}

// Save computes the boolean "save" decision for a stream with the given
// resolved index and language.
func (f *StreamsFilter) Save(index int, lang string) bool {
	if f == nil || f.Mode == FilterKeepAll {
		return true
	}
	if f.Mode == FilterDropAll {
		return false
	}
	matched := false
	for _, sel := range f.Selectors {
		if sel.Matches(index, lang) {
			matched = true
			break
		}
	}
	if f.Invert {
		return !matched
	}
	return matched
}

// DispositionSpec is the per-target override for one disposition
// (default/forced): explicit per-index/range/language overrides, plus a
// cap on how many streams auto-logic may mark true.
type DispositionSpec struct {
	// Bool, when non-nil, is the single-boolean form ("on"/"off"/...)
	// applying uniformly to every stream of the type.
	Bool *bool
	Overrides KV[bool]
	MaxInAuto *int
}

// Resolve returns the explicit override for (index, lang) if one was
// given, else the uniform Bool form if that was given, else reports no
// override at all (auto-logic decides).
func (d *DispositionSpec) Resolve(index int, lang string) (bool, bool) {
	if d == nil {
		return false, false
	}
	if v, ok := d.Overrides.Lookup(index, lang); ok {
		return v, true
	}
	if d.Bool != nil {
		return *d.Bool, true
	}
	return false, false
}

// Cap returns the configured max_in_auto, or def if unset.
func (d *DispositionSpec) Cap(def int) int {
	if d == nil || d.MaxInAuto == nil {
		return def
	}
	return *d.MaxInAuto
}

// ParseBool parses the single-boolean disposition syntax: on|off|1|0|true|false,
// plus yes|no.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "on", "1", "true", "yes":
		return true, true
	case "off", "0", "false", "no":
		return false, true
	default:
		return false, false
	}
}
