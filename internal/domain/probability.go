package domain

import "time"

// DefaultSlotsPerHour treats each hour as six ten-minute slots.
const DefaultSlotsPerHour = 6

// Estimator computes the empirical probability of an alert in a given hour of
// day.
type Estimator struct {
	// SlotsPerHour sets the denominator granularity. Values <= 0 fall back to
	// DefaultSlotsPerHour.
	SlotsPerHour int
}

// Denominator returns the number of slots spanned by days.
func (e Estimator) Denominator(days int) int {
	return days * HoursPerDay * e.slots()
}

// Probability returns the number of distinct alert timestamps in the full table
// whose hour equals targetHour, divided by Denominator(days). The table is not
// restricted by date. The result is 0 when the table is empty or the
// denominator is not positive, and is never clamped to 1.
func (e Estimator) Probability(table *EventTable, targetHour, days int) float64 {
	if table.Len() == 0 {
		return 0
	}
	denominator := e.Denominator(days)
	if denominator <= 0 {
		return 0
	}

	seen := make(map[time.Time]struct{}, len(table.Records))
	matches := 0
	for _, rec := range table.Records {
		key := rec.Time.UTC()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if rec.Time.Hour() == targetHour {
			matches++
		}
	}
	return float64(matches) / float64(denominator)
}

func (e Estimator) slots() int {
	if e.SlotsPerHour <= 0 {
		return DefaultSlotsPerHour
	}
	return e.SlotsPerHour
}
