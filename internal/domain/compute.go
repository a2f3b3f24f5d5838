package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidQuery is returned for dashboard queries that cannot be evaluated.
var ErrInvalidQuery = errors.New("invalid query")

// Query is one dashboard selection.
type Query struct {
	City       string    `json:"city"`
	Range      DateRange `json:"range"`
	TargetHour int       `json:"target_hour"`
}

// Validate checks the fields a caller can get wrong. A reversed range is valid.
func (q Query) Validate() error {
	if strings.TrimSpace(q.City) == "" {
		return fmt.Errorf("%w: city is required", ErrInvalidQuery)
	}
	if q.TargetHour < 0 || q.TargetHour >= HoursPerDay {
		return fmt.Errorf("%w: target hour %d outside 0-23", ErrInvalidQuery, q.TargetHour)
	}
	return nil
}

// Outputs are the four dashboard results for a Query.
type Outputs struct {
	Query              Query       `json:"query"`
	AlertCount         int         `json:"alert_count"`
	ByDate             []DateCount `json:"by_date"`
	ByHour             []HourCount `json:"by_hour"`
	Days               int         `json:"days"`
	Probability        float64     `json:"probability"`
	ProbabilityPercent float64     `json:"probability_percent"`
}

// ComputeOutputs runs the full dashboard pipeline over a loaded city table.
// Counts and groupings use the table filtered by city and range; the
// probability uses the unfiltered table normalized by the range length.
// It has no side effects.
func ComputeOutputs(table *EventTable, q Query, est Estimator) Outputs {
	filtered := Filter(table, q.City, q.Range)
	days := q.Range.Days()
	p := est.Probability(table, q.TargetHour, days)

	return Outputs{
		Query:              q,
		AlertCount:         len(filtered),
		ByDate:             CountByDate(filtered),
		ByHour:             CountByHour(filtered),
		Days:               days,
		Probability:        p,
		ProbabilityPercent: p * 100,
	}
}
