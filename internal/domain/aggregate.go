package domain

import (
	"sort"
	"time"
)

// HoursPerDay is the number of hour-of-day buckets.
const HoursPerDay = 24

// Filter returns the records of table whose city equals city and whose date
// falls within r. The city check is applied even though a loaded table holds a
// single city.
func Filter(table *EventTable, city string, r DateRange) []EventRecord {
	r = NewDateRange(r.Start, r.End)
	if table.Len() == 0 || r.Start.After(r.End) {
		return nil
	}

	out := make([]EventRecord, 0, len(table.Records))
	for _, rec := range table.Records {
		if rec.City != city || !r.Contains(rec.Date) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// CountByDate groups records by calendar date, ascending. Dates without
// records are omitted.
func CountByDate(records []EventRecord) []DateCount {
	counts := make(map[time.Time]int)
	for _, rec := range records {
		counts[CalendarDate(rec.Date)]++
	}

	out := make([]DateCount, 0, len(counts))
	for d, n := range counts {
		out = append(out, DateCount{Date: d, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// CountByHour groups records by hour of day, ascending. Hours without records
// are omitted; use BackfillHours for a dense series.
func CountByHour(records []EventRecord) []HourCount {
	var counts [HoursPerDay]int
	for _, rec := range records {
		if rec.Hour >= 0 && rec.Hour < HoursPerDay {
			counts[rec.Hour]++
		}
	}

	out := make([]HourCount, 0, HoursPerDay)
	for h, n := range counts {
		if n > 0 {
			out = append(out, HourCount{Hour: h, Count: n})
		}
	}
	return out
}

// BackfillHours expands a sparse hour series to all 24 hours, filling gaps
// with zero.
func BackfillHours(series []HourCount) []HourCount {
	out := make([]HourCount, HoursPerDay)
	for h := range out {
		out[h].Hour = h
	}
	for _, hc := range series {
		if hc.Hour >= 0 && hc.Hour < HoursPerDay {
			out[hc.Hour].Count += hc.Count
		}
	}
	return out
}
