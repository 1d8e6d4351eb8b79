package helpers

import (
	"strconv"
	"strings"
	"time"
)

func StringToInt(s string) (int, error) {
	return strconv.Atoi(s)
}

// ParseUint parses a non-negative integer form value. Empty input yields def.
func ParseUint(s string, def uint64) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	return strconv.ParseUint(s, 10, 64)
}

// ParseFloat parses an optional decimal form value. Empty input yields 0.
func ParseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// ParseTime accepts RFC 3339 timestamps and the "2006-01-02T15:04" form sent
// by datetime-local inputs (read as UTC).
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02T15:04", s, time.UTC)
}

// ParseBool treats "true", "1", "yes" and "on" as true.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

// Pagination normalizes page and page size query values.
func Pagination(pageStr, sizeStr string, defSize, maxSize int) (page, size int) {
	page, err := StringToInt(pageStr)
	if err != nil || page < 1 {
		page = 1
	}
	size, err = StringToInt(sizeStr)
	if err != nil || size < 1 {
		size = defSize
	}
	if size > maxSize {
		size = maxSize
	}
	return page, size
}
