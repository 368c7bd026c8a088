package dates

import (
	"regexp"
	"strings"
	"time"
)

// Legacy single-date helpers used by the crawlers. These intentionally fall
// back to the current time instead of failing: a garbled publication date
// must not abort a whole crawl run. The range-based ParseRange entry point
// used for relevance filtering reports a typed error instead.

var reDateTime = regexp.MustCompile(`^(\d{2})\.(\d{2})\.(\d{4})\s+(\d{2}):(\d{2})$`)

// ParseDate parses "DD.MM.YYYY", "DD/MM/YYYY" or "DD.MM.YY" into a midnight
// timestamp. On failure it returns the current time; ok is false so callers
// can log the fallback.
func ParseDate(text string) (t time.Time, ok bool) {
	normalized := strings.ReplaceAll(strings.TrimSpace(text), "/", ".")
	parts := strings.Split(normalized, ".")
	if len(parts) != 3 {
		return time.Now().In(Location()), false
	}

	date, err := buildDate(expandYear(parts[2]), atoi(parts[1]), atoi(parts[0]))
	if err != nil {
		return time.Now().In(Location()), false
	}

	return date, true
}

// ParseDateTime parses the strict "DD.MM.YYYY HH:MM" form used for
// publication timestamps. Unlike ParseDate it returns an error: callers use
// it where a missing timestamp means the source markup changed.
func ParseDateTime(text string) (time.Time, error) {
	m := reDateTime.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return time.Time{}, &ParseError{Text: text, Reason: `expected "DD.MM.YYYY HH:MM"`}
	}

	hour, minute := atoi(m[4]), atoi(m[5])
	if hour > 23 || minute > 59 {
		return time.Time{}, &ParseError{Text: text, Reason: "time of day out of range"}
	}

	date, err := buildDate(atoi(m[3]), atoi(m[2]), atoi(m[1]))
	if err != nil {
		return time.Time{}, err
	}

	return date.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute), nil
}

// ParseShortDateTime parses "DD.MM.YY" with an optional "HH:MM" time part.
// Falls back to the current time on failure.
func ParseShortDateTime(dateText, timeText string) (t time.Time, ok bool) {
	date, ok := ParseDate(dateText)
	if !ok {
		return date, false
	}

	if timeText == "" {
		return date, true
	}

	parts := strings.Split(strings.TrimSpace(timeText), ":")
	if len(parts) != 2 {
		return date, true
	}
	hour, minute := atoi(parts[0]), atoi(parts[1])
	if hour > 23 || minute > 59 {
		return date, true
	}

	return date.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute), true
}

// ParseMonthNameDate parses "DD <месец> YYYY" (e.g. "20 октомври 2025").
// Falls back to the current time on failure.
func ParseMonthNameDate(text string) (t time.Time, ok bool) {
	r, matched, err := matchMonthName(normalize(text))
	if err != nil || !matched {
		return time.Now().In(Location()), false
	}

	return r.Start, true
}

// FormatDateTime renders a timestamp in the display form used across the
// sources, "DD.MM.YYYY HH:MM".
func FormatDateTime(t time.Time) string {
	return t.In(Location()).Format("02.01.2006 15:04")
}
