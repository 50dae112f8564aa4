package util

import (
	"errors"
	"strings"
	"time"
)

var errDateFormat = errors.New("invalid date format (use YYYY-MM-DD or RFC3339)")

// ParseDateRange turns optional start/end query values into a half-open
// interval. A date-only end includes that whole day. Reversed bounds are
// swapped.
func ParseDateRange(startStr, endStr *string) (start time.Time, hasStart bool, endExclusive time.Time, hasEnd bool, err error) {
	start, hasStart, _, err = parseDateBound(startStr)
	if err != nil {
		return time.Time{}, false, time.Time{}, false, err
	}
	end, hasEnd, endDateOnly, err := parseDateBound(endStr)
	if err != nil {
		return time.Time{}, false, time.Time{}, false, err
	}

	if hasStart && hasEnd && end.Before(start) {
		start, end = end, start
	}
	if hasEnd {
		endExclusive = end
		if endDateOnly {
			endExclusive = end.AddDate(0, 0, 1)
		}
	}
	return start, hasStart, endExclusive, hasEnd, nil
}

func parseDateBound(s *string) (t time.Time, ok bool, dateOnly bool, err error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return time.Time{}, false, false, nil
	}
	v := strings.TrimSpace(*s)
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, true, false, nil
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, true, true, nil
	}
	return time.Time{}, false, false, errDateFormat
}
