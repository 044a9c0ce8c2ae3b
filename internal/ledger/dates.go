package ledger

import (
	"strings"
	"time"
)

var dateLayouts = []string{
	"1/2/2006",
	"2006-01-02",
}

var isoFallbackLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// ParseDate accepts M/D/YYYY and YYYY-MM-DD, then ISO date-time forms. The
// result is a calendar date at UTC midnight.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, true
		}
	}
	for _, layout := range isoFallbackLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			y, m, d := parsed.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// FormatSheetDate renders a date the way the ledger stores it (1/12/2025).
func FormatSheetDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("1/2/2006")
}

// FormatISODate renders a date as YYYY-MM-DD.
func FormatISODate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}
