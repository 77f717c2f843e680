package filter

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// excelEpoch is day zero of spreadsheet serial dates.
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

var (
	serialPattern = regexp.MustCompile(`^\d{3,5}$`)
	rawPattern    = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
)

// dateLayouts are tried in order; day-first wins over month-first.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"02.01.2006",
	"02/01/06",
}

// ParseDate reads the date formats found in uploaded spreadsheets:
// ISO dates and datetimes, day-first dd/mm/yyyy and dd-mm-yyyy,
// spreadsheet serial days (3 to 5 digit day part, fraction ignored) and raw
// ddmmyyyy or yyyymmdd numbers.
// Values without a zone are read as UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	switch strings.ToLower(s) {
	case "nan", "none", "null", "nat":
		return time.Time{}, false
	}

	if rawPattern.MatchString(s) {
		// A fraction is the time of day; only the day part counts.
		digits, _, _ := strings.Cut(s, ".")
		if serialPattern.MatchString(digits) {
			if n, err := strconv.Atoi(digits); err == nil {
				return excelEpoch.AddDate(0, 0, n), true
			}
		}
		if len(digits) <= 8 {
			digits = strings.Repeat("0", 8-len(digits)) + digits
			for _, layout := range []string{"02012006", "20060102"} {
				if t, err := time.Parse(layout, digits); err == nil {
					return t, true
				}
			}
		}
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// startOfDay truncates t to midnight of its calendar day.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// endOfDay returns the last millisecond of t's calendar day.
func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Millisecond)
}
