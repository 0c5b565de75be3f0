// Package dateutils parses the booking dates found in import files.
package dateutils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Date layouts accepted in ENTRY_DATE columns.
const (
	DateLayoutISO      = "2006-01-02"
	DateLayoutGerman   = "02.01.2006"
	DateLayoutCompact  = "20060102"
	DateLayoutFull     = "2006-01-02 15:04:05"
	DateLayoutRFC3339  = time.RFC3339
	DateLayoutShortDot = "02.01.06"
)

// EntryDateFormats is tried in order by ParseDate.
var EntryDateFormats = []string{
	DateLayoutISO,
	DateLayoutGerman,
	DateLayoutFull,
	DateLayoutRFC3339,
	DateLayoutCompact,
	DateLayoutShortDot,
	"2006/01/02",
}

var whitespace = regexp.MustCompile(`\s+`)

// ParseDate parses dateStr using the first matching layout and returns the
// date truncated to midnight UTC together with the layout used.
func ParseDate(dateStr string) (time.Time, string, error) {
	dateStr = CleanDateString(dateStr)
	if dateStr == "" {
		return time.Time{}, "", fmt.Errorf("unable to parse date: empty value")
	}

	for _, format := range EntryDateFormats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return StartOfDay(t), format, nil
		}
	}

	return time.Time{}, "", fmt.Errorf("unable to parse date: %s", dateStr)
}

// ParseEntryDate parses an ENTRY_DATE value. Blank values yield the zero
// time and no error.
func ParseEntryDate(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, nil
	}
	t, _, err := ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("ENTRY_DATE %s is not a valid date", strings.TrimSpace(value))
	}
	return t, nil
}

// StartOfDay drops the time of day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ToISODate formats a time.Time value as YYYY-MM-DD.
func ToISODate(date time.Time) string {
	return date.Format(DateLayoutISO)
}

// CleanDateString trims and collapses whitespace.
func CleanDateString(dateStr string) string {
	return whitespace.ReplaceAllString(strings.TrimSpace(dateStr), " ")
}
