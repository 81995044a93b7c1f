package util

import (
	"strconv"
	"time"
)

// ParseTime tries RFC3339, RFC3339Nano, "2006-01-02 15:04:05" (exchange-local wall clock,
// interpreted in loc) and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string, loc *time.Location) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation(time.DateTime, s, loc); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation(time.DateOnly, s, loc); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0).UTC(), true
	}
	return time.Time{}, false
}

// ParseFloatDefault parses a decimal string, tolerating a trailing percent sign.
func ParseFloatDefault(s string, def float64) float64 {
	if s == "" {
		return def
	}
	if s[len(s)-1] == '%' {
		s = s[:len(s)-1]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}
