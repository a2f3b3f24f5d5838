package domain

import (
	"errors"
	"time"
)

var (
	// ErrCityNotFound is returned when no data file exists for a city.
	ErrCityNotFound = errors.New("city not found")

	// ErrInvalidCity is returned for city names that cannot name a data file.
	ErrInvalidCity = errors.New("invalid city name")

	// ErrMissingColumn is returned when a data file lacks a schema column.
	ErrMissingColumn = errors.New("missing column")

	// ErrMalformedRecord is returned when a date or timestamp cannot be parsed.
	// A single malformed row fails the whole load.
	ErrMalformedRecord = errors.New("malformed record")
)

// Schema names the columns of a per-city data file.
type Schema struct {
	CityField     string
	DateField     string
	DateTimeField string
}

// DefaultSchema returns the column names used by the published city files.
func DefaultSchema() Schema {
	return Schema{
		CityField:     "NAME_HE",
		DateField:     "date",
		DateTimeField: "alertDate",
	}
}

// Columns lists the required column names in schema order.
func (s Schema) Columns() []string {
	return []string{s.CityField, s.DateField, s.DateTimeField}
}

// EventRecord is one historical alert occurrence.
type EventRecord struct {
	City string    `json:"city"`
	Date time.Time `json:"date"` // midnight UTC of the calendar date
	Time time.Time `json:"time"`
	Hour int       `json:"hour"`

	// RawTime is the timestamp exactly as it appeared in the source file.
	RawTime string `json:"-"`
}

// EventTable holds every record loaded for a single city. It is not modified
// after load.
type EventTable struct {
	City    string
	Records []EventRecord
}

// Len returns the number of records in the table.
func (t *EventTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// DateRange is an inclusive pair of calendar dates. Start after End is valid
// and selects nothing.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewDateRange normalizes both ends to calendar dates.
func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: CalendarDate(start), End: CalendarDate(end)}
}

// Contains reports whether d falls within the range, inclusive on both ends.
// Times of day on either end are ignored.
func (r DateRange) Contains(d time.Time) bool {
	d = CalendarDate(d)
	return !d.Before(CalendarDate(r.Start)) && !d.After(CalendarDate(r.End))
}

// Days returns End minus Start in whole days. It is zero when both ends are the
// same date and negative for reversed ranges.
func (r DateRange) Days() int {
	// Unix seconds rather than time.Duration, which saturates near 292 years.
	return int((CalendarDate(r.End).Unix() - CalendarDate(r.Start).Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60

// DateCount is the number of records on one calendar date.
type DateCount struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

// HourCount is the number of records in one hour of day.
type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// CalendarDate truncates t to midnight UTC of its own calendar date.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
