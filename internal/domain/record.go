package domain

import (
	"fmt"
	"strings"
	"time"
)

var (
	// dayFirstLayouts are tried in order for the date column. Single-digit
	// layout elements also accept two-digit input, so "5/3/2024" and
	// "05/03/2024" both parse as 5 March 2024.
	dayFirstLayouts = []string{
		"2/1/2006",
		"2.1.2006",
		"2-1-2006",
		"2006-01-02",
		"2/1/2006 15:04:05",
		"2/1/2006 15:04",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}

	// timestampLayouts are tried in order for the timestamp column. Fractional
	// seconds are accepted after the seconds field without a layout of their own.
	timestampLayouts = []string{
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		time.RFC3339,
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02T15:04",
		"2006-01-02 15:04",
		"2/1/2006 15:04:05",
		"2/1/2006 15:04",
		"2006-01-02",
	}
)

// ParseRecord builds an EventRecord from one row keyed by column name.
// The date column is read day-first and the hour is derived from the timestamp.
func ParseRecord(schema Schema, fields map[string]string) (EventRecord, error) {
	date, err := ParseDayFirstDate(fields[schema.DateField])
	if err != nil {
		return EventRecord{}, fmt.Errorf("%s: %w", schema.DateField, err)
	}

	rawTime := strings.TrimSpace(fields[schema.DateTimeField])
	ts, err := ParseTimestamp(rawTime)
	if err != nil {
		return EventRecord{}, fmt.Errorf("%s: %w", schema.DateTimeField, err)
	}

	return EventRecord{
		City:    strings.TrimSpace(fields[schema.CityField]),
		Date:    date,
		Time:    ts,
		Hour:    ts.Hour(),
		RawTime: rawTime,
	}, nil
}

// ParseDayFirstDate parses a calendar date using the day-first convention and
// returns midnight UTC of that date.
func ParseDayFirstDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty date", ErrMalformedRecord)
	}
	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return CalendarDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparseable date %q", ErrMalformedRecord, value)
}

// ParseTimestamp parses an alert timestamp. Values without a zone are read as
// UTC; values with an offset keep it, so the derived hour is the local hour
// written in the file.
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty timestamp", ErrMalformedRecord)
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparseable timestamp %q", ErrMalformedRecord, value)
}
