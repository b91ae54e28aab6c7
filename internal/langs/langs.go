// Package langs is the language code registry: it parses ISO 639 codes via
// golang.org/x/text/language and github.com/barbashov/iso639-3, ranks
// languages by a fixed locale-priority set, and backs --list-langs.
package langs

import (
	"sort"
	"strings"

	iso6393 "github.com/barbashov/iso639-3"
	"golang.org/x/text/language"
)

// Und is the "undetermined" language code used when a stream carries no
// usable language tag.
const Und = "und"

// PriorityLanguages is the fixed set of "priority languages": a tiebreaker
// rank below the configured locale but above everything else.
var PriorityLanguages = []string{"zho", "eng", "jpn", "rus", "spa"}

var priorityIndex = func() map[string]int {
	m := make(map[string]int, len(PriorityLanguages))
	for i, l := range PriorityLanguages {
		m[l] = i
	}
	return m
}()

// Normalize resolves an arbitrary language string (two-letter, three-letter,
// or a BCP-47 tag like "en-US") to its ISO 639-2/3 code. Unparseable input
// and the empty string both normalize to Und.
func Normalize(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return Und
	}
	low := strings.ToLower(code)
	if low == Und || low == "unknown" {
		return Und
	}

	// Three-letter codes that are already valid ISO 639-3 pass straight
	// through; this also covers values mkvmerge/ffprobe already emit.
	if len(low) == 3 {
		if l := iso6393.FromPart3Code(low); l != nil {
			return l.Part3
		}
	}

	tag, err := language.Parse(code)
	if err != nil {
		return Und
	}
	base, conf := tag.Base()
	if conf == language.No {
		return Und
	}
	if l := iso6393.FromPart1Code(base.String()); l != nil {
		return l.Part3
	}
	return strings.ToLower(base.String())
}

// TwoLetter returns the two-letter (ISO 639-1) form of code if one exists,
// and whether it does. Used by the auto-language heuristic, which only
// accepts a candidate code that normalizes to a two-letter form.
func TwoLetter(code string) (string, bool) {
	l := iso6393.FromPart3Code(strings.ToLower(code))
	if l == nil || l.Part1 == "" {
		return "", false
	}
	return l.Part1, true
}

// Rank computes a stream's lang_rank: 0 for the configured locale, 1 for
// any other priority language, 2 otherwise; ties are broken by the
// language code's own lexicographic order by the caller.
func Rank(code, locale string) int {
	code = Normalize(code)
	locale = Normalize(locale)
	if code == locale {
		return 0
	}
	if _, ok := priorityIndex[code]; ok {
		return 1
	}
	return 2
}

// NameOf returns a human-readable English display name for code, used by
// --list-langs-full.
func NameOf(code string) string {
	if l := iso6393.FromPart3Code(strings.ToLower(code)); l != nil {
		return l.Name
	}
	return "unknown"
}

// ListEntry is one row of --list-langs / --list-langs-full output.
type ListEntry struct {
	Code     string
	TwoCode  string
	Name     string
	Priority bool
}

// List returns every ISO 639-3 code the registry knows about, sorted by
// code, for the --list-langs family of CLI listings.
func List() []ListEntry {
	all := iso6393.All()
	out := make([]ListEntry, 0, len(all))
	for _, l := range all {
		_, pri := priorityIndex[l.Part3]
		out = append(out, ListEntry{
			Code:     l.Part3,
			TwoCode:  l.Part1,
			Name:     l.Name,
			Priority: pri,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
