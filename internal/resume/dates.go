package resume

import (
	"strings"
	"time"
)

// CanonicalDateLayout is the persisted representation of every date field.
const CanonicalDateLayout = "2006-01-02"

// MonthYearLayout is how every template prints a date ("Mar 2021").
const MonthYearLayout = "Jan 2006"

var dateLayouts = []string{
	CanonicalDateLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04:05",
	"2006-01",
	"2006/01/02",
	"01/2006",
	"Jan 2006",
	"January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006",
}

// ParseDate accepts the date shapes produced by the form widgets and older stored documents.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// CanonicalDate rewrites a date-like string to CanonicalDateLayout.
// Blank input yields "" (absent); ok is false only for non-blank text that is not a date.
func CanonicalDate(value string) (string, bool) {
	if strings.TrimSpace(value) == "" {
		return "", true
	}
	t, ok := ParseDate(value)
	if !ok {
		return value, false
	}
	// 保留输入自带的时区偏移，日期按书写的那一天计
	return t.Format(CanonicalDateLayout), true
}

// FormatMonthYear renders a stored date as "Mar 2021". Text that does not parse is returned trimmed.
func FormatMonthYear(value string) string {
	t, ok := ParseDate(value)
	if !ok {
		return strings.TrimSpace(value)
	}
	return t.Format(MonthYearLayout)
}
