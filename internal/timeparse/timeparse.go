// Package timeparse turns human date expressions from flags and config
// into concrete instants in a given location.
package timeparse

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseDateTime parses keywords (today, tomorrow, yesterday, now),
// relative offsets (+3d, -2w), and common date/datetime layouts.
func ParseDateTime(input string, now time.Time, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(strings.ToLower(input))
	if s == "" {
		return time.Time{}, fmt.Errorf("empty time")
	}

	switch s {
	case "now":
		return now.In(loc), nil
	case "today":
		return Midnight(now, loc), nil
	case "tomorrow":
		return Midnight(now, loc).AddDate(0, 0, 1), nil
	case "yesterday":
		return Midnight(now, loc).AddDate(0, 0, -1), nil
	}

	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		sign := 1
		if strings.HasPrefix(s, "-") {
			sign = -1
		}
		raw := strings.TrimLeft(s, "+-")
		unit := 0
		switch {
		case strings.HasSuffix(raw, "d"):
			unit = 1
		case strings.HasSuffix(raw, "w"):
			unit = 7
		}
		if unit != 0 {
			n, err := strconv.Atoi(raw[:len(raw)-1])
			if err != nil {
				return time.Time{}, fmt.Errorf("invalid relative date: %s", input)
			}
			return Midnight(now, loc).AddDate(0, 0, sign*n*unit), nil
		}
	}

	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04",
		"2006-01-02 15:04",
		"2006-01-02",
		"2006/01/02",
		"01/02/2006",
	}
	for _, layout := range layouts {
		if ts, err := time.ParseInLocation(layout, strings.TrimSpace(input), loc); err == nil {
			return ts, nil
		}
	}

	return time.Time{}, fmt.Errorf("unsupported date format: %s", input)
}

// Midnight returns the local midnight of now's calendar day in loc.
func Midnight(now time.Time, loc *time.Location) time.Time {
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// ParseMonth accepts YYYY-MM as well as everything ParseDateTime does.
func ParseMonth(input string, now time.Time, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		s = "today"
	}
	if ts, err := time.ParseInLocation("2006-01", s, loc); err == nil {
		return ts, nil
	}
	return ParseDateTime(s, now, loc)
}
