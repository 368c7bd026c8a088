// Package dates parses the Bulgarian date and date-range expressions emitted
// by municipal disruption sources and evaluates their relevance against a
// reference day.
package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ParseError reports text that matched no supported grammar or produced an
// invalid calendar date.
type ParseError struct {
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unparsable date text %q: %s", e.Text, e.Reason)
}

// Range is an inclusive calendar-day interval. Start and End are midnight
// values in the reference timezone; Start <= End always holds.
type Range struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether the reference instant falls inside the range.
// Only the calendar day is compared; both boundaries are inclusive.
func (r Range) Contains(reference time.Time) bool {
	day := midnight(reference)

	return !day.Before(midnight(r.Start)) && !day.After(midnight(r.End))
}

var (
	locationOnce sync.Once
	location     *time.Location
)

// Location returns the reference timezone for all day-granularity
// comparisons. Sources publish wall-clock dates in Bulgarian local time.
func Location() *time.Location {
	locationOnce.Do(func() {
		loc, err := time.LoadLocation("Europe/Sofia")
		if err != nil {
			loc = time.FixedZone("EET", 2*60*60)
		}
		location = loc
	})

	return location
}

var monthNumbers = map[string]time.Month{
	"януари":    time.January,
	"февруари":  time.February,
	"март":      time.March,
	"април":     time.April,
	"май":       time.May,
	"юни":       time.June,
	"юли":       time.July,
	"август":    time.August,
	"септември": time.September,
	"октомври":  time.October,
	"ноември":   time.November,
	"декември":  time.December,
}

var (
	reCrossMonthRange = regexp.MustCompile(`(\d{1,2})\.(\d{1,2})\s*-\s*(\d{1,2})\.(\d{1,2})\.(\d{2,4})`)
	reSameMonthRange  = regexp.MustCompile(`(\d{1,2})\s*-\s*(\d{1,2})\.(\d{1,2})\.(\d{2,4})`)
	reNumericSingle   = regexp.MustCompile(`(\d{1,2})\.(\d{1,2})\.(\d{2,4})`)
	reMonthName       = regexp.MustCompile(`(\d{1,2})\s+([а-я]+)\s+(\d{4})`)

	reParenthetical = regexp.MustCompile(`\([^)]*\)`)
	reWhitespace    = regexp.MustCompile(`\s+`)
)

// matcher attempts one grammar against normalized text. ok is false when the
// grammar does not apply at all; err reports text that matched the grammar
// but produced an invalid calendar date.
type matcher func(text string) (r Range, ok bool, err error)

// Grammar priority is fixed: ranges before single dates, numeric before month
// names. Trying the short numeric pattern first would swallow the range
// forms.
var matchers = []matcher{
	matchCrossMonthRange,
	matchSameMonthRange,
	matchNumericSingle,
	matchMonthName,
}

// ParseRange parses a Bulgarian date or date-range expression.
//
// Supported forms:
//
//	27.01.2026
//	15-19.03.2026
//	15.02-19.03.2026
//	27 януари 2026
//	27 януари (сряда) 2026
func ParseRange(text string) (Range, error) {
	normalized := normalize(text)

	for _, match := range matchers {
		r, ok, err := match(normalized)
		if err != nil {
			return Range{}, err
		}
		if ok {
			return r, nil
		}
	}

	return Range{}, &ParseError{Text: text, Reason: "no supported grammar matched"}
}

func normalize(text string) string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	// Some sources write numeric dates with slashes.
	normalized = strings.ReplaceAll(normalized, "/", ".")
	normalized = reParenthetical.ReplaceAllString(normalized, " ")
	normalized = reWhitespace.ReplaceAllString(normalized, " ")

	return normalized
}

func matchCrossMonthRange(text string) (Range, bool, error) {
	m := reCrossMonthRange.FindStringSubmatch(text)
	if m == nil {
		return Range{}, false, nil
	}

	year := expandYear(m[5])
	start, err := buildDate(year, atoi(m[2]), atoi(m[1]))
	if err != nil {
		return Range{}, false, err
	}
	end, err := buildDate(year, atoi(m[4]), atoi(m[3]))
	if err != nil {
		return Range{}, false, err
	}

	return Range{Start: start, End: end}, true, nil
}

func matchSameMonthRange(text string) (Range, bool, error) {
	m := reSameMonthRange.FindStringSubmatch(text)
	if m == nil {
		return Range{}, false, nil
	}

	year := expandYear(m[4])
	month := atoi(m[3])
	start, err := buildDate(year, month, atoi(m[1]))
	if err != nil {
		return Range{}, false, err
	}
	end, err := buildDate(year, month, atoi(m[2]))
	if err != nil {
		return Range{}, false, err
	}

	return Range{Start: start, End: end}, true, nil
}

func matchNumericSingle(text string) (Range, bool, error) {
	m := reNumericSingle.FindStringSubmatch(text)
	if m == nil {
		return Range{}, false, nil
	}

	date, err := buildDate(expandYear(m[3]), atoi(m[2]), atoi(m[1]))
	if err != nil {
		return Range{}, false, err
	}

	return Range{Start: date, End: date}, true, nil
}

func matchMonthName(text string) (Range, bool, error) {
	m := reMonthName.FindStringSubmatch(text)
	if m == nil {
		return Range{}, false, nil
	}

	month, known := monthNumbers[m[2]]
	if !known {
		return Range{}, false, &ParseError{Text: text, Reason: "unknown month name " + m[2]}
	}

	date, err := buildDate(atoi(m[3]), int(month), atoi(m[1]))
	if err != nil {
		return Range{}, false, err
	}

	return Range{Start: date, End: date}, true, nil
}

// buildDate constructs a midnight date and rejects components that do not
// roundtrip (time.Date silently normalizes 31.02 into 02-03.03).
func buildDate(year, month, day int) (time.Time, error) {
	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, Location())

	if date.Year() != year || date.Month() != time.Month(month) || date.Day() != day {
		return time.Time{}, &ParseError{
			Text:   fmt.Sprintf("%02d.%02d.%d", day, month, year),
			Reason: "calendar date out of range",
		}
	}

	return date, nil
}

func expandYear(raw string) int {
	year := atoi(raw)
	if len(raw) == 2 {
		year += 2000
	}

	return year
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)

	return n
}

func midnight(t time.Time) time.Time {
	local := t.In(Location())

	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, Location())
}
