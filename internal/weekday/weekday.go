// Package weekday maps the many spellings of weekdays and parts of day found in
// stored habits (Italian or English, abbreviated or full, accented or not) to
// canonical values.
package weekday

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// PartOfDay is the canonical time-of-day bucket of a habit.
type PartOfDay string

const (
	Morning   PartOfDay = "morning"
	Afternoon PartOfDay = "afternoon"
)

// Indexed by time.Weekday.
var (
	italianShort = [7]string{"dom", "lun", "mar", "mer", "gio", "ven", "sab"}
	italianFull  = [7]string{"domenica", "lunedi", "martedi", "mercoledi", "giovedi", "venerdi", "sabato"}
	englishShort = [7]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}
	englishFull  = [7]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}
)

// NormalizeText lowercases, trims and strips diacritics ("Lunedì" -> "lunedi").
func NormalizeText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// Matches reports whether field names the weekday of day.
func Matches(field string, day time.Time) bool {
	return matchesWeekday(NormalizeText(field), day.Weekday())
}

func matchesWeekday(v string, wd time.Weekday) bool {
	if v == "" {
		return false
	}
	return v == italianShort[wd] ||
		v == italianFull[wd] ||
		strings.HasPrefix(v, italianFull[wd][:3]) ||
		v == englishShort[wd] ||
		v == englishFull[wd]
}

// MatchesAny is the legacy days-array test: day matches if any entry names it.
func MatchesAny(days []string, day time.Time) bool {
	for _, d := range days {
		if Matches(d, day) {
			return true
		}
	}
	return false
}

// Parse resolves a weekday reference to its canonical value.
func Parse(field string) (time.Weekday, bool) {
	v := NormalizeText(field)
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if matchesWeekday(v, wd) {
			return wd, true
		}
	}
	return 0, false
}

// ShortName is the English three-letter abbreviation used when writing documents.
func ShortName(wd time.Weekday) string {
	if wd < time.Sunday || wd > time.Saturday {
		return ""
	}
	s := englishShort[wd]
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParsePartOfDay maps free text to a part of day. Unknown values pass through
// normalized; empty input means morning.
func ParsePartOfDay(raw string) PartOfDay {
	v := NormalizeText(raw)
	switch v {
	case "", "mattina", "am", "morning":
		return Morning
	case "pomeriggio", "pm", "afternoon":
		return Afternoon
	default:
		return PartOfDay(v)
	}
}

// ParsePartOfDayStrict is used by commands that accept user input and must refuse
// anything that is not a known part of day.
func ParsePartOfDayStrict(raw string) (PartOfDay, error) {
	p := ParsePartOfDay(raw)
	if p != Morning && p != Afternoon {
		return "", fmt.Errorf("unknown part of day %q (use morning or afternoon)", raw)
	}
	return p, nil
}
