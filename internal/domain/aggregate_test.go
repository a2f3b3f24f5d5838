package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func record(city string, ts time.Time) EventRecord {
	return EventRecord{
		City:    city,
		Date:    CalendarDate(ts),
		Time:    ts,
		Hour:    ts.Hour(),
		RawTime: ts.Format("2006-01-02T15:04:05"),
	}
}

func telAvivTable() *EventTable {
	return &EventTable{
		City: testCity,
		Records: []EventRecord{
			record(testCity, time.Date(2024, 10, 5, 14, 0, 0, 0, time.UTC)),
			record(testCity, time.Date(2024, 10, 6, 14, 10, 0, 0, time.UTC)),
			record(testCity, time.Date(2024, 10, 6, 9, 0, 0, 0, time.UTC)),
		},
	}
}

func TestFilter(t *testing.T) {
	table := telAvivTable()

	t.Run("range covering all rows", func(t *testing.T) {
		got := Filter(table, testCity, NewDateRange(day(2024, 10, 1), day(2024, 11, 24)))
		assert.Len(t, got, 3)
	})

	t.Run("inclusive on both ends", func(t *testing.T) {
		got := Filter(table, testCity, NewDateRange(day(2024, 10, 5), day(2024, 10, 6)))
		assert.Len(t, got, 3)

		got = Filter(table, testCity, NewDateRange(day(2024, 10, 6), day(2024, 10, 6)))
		assert.Len(t, got, 2)
	})

	t.Run("reversed range is empty", func(t *testing.T) {
		got := Filter(table, testCity, NewDateRange(day(2024, 11, 24), day(2024, 10, 1)))
		assert.Empty(t, got)
	})

	t.Run("city predicate applied", func(t *testing.T) {
		mixed := &EventTable{City: testCity, Records: append([]EventRecord{
			record("Haifa", time.Date(2024, 10, 5, 1, 0, 0, 0, time.UTC)),
		}, table.Records...)}

		got := Filter(mixed, testCity, NewDateRange(day(2024, 10, 1), day(2024, 11, 24)))
		assert.Len(t, got, 3)
		for _, rec := range got {
			assert.Equal(t, testCity, rec.City)
		}

		assert.Empty(t, Filter(mixed, "Eilat", NewDateRange(day(2024, 10, 1), day(2024, 11, 24))))
	})

	t.Run("nil table", func(t *testing.T) {
		assert.Empty(t, Filter(nil, testCity, NewDateRange(day(2024, 10, 1), day(2024, 11, 24))))
	})

	t.Run("preserves order", func(t *testing.T) {
		got := Filter(table, testCity, NewDateRange(day(2024, 10, 1), day(2024, 11, 24)))
		require.Len(t, got, 3)
		assert.Equal(t, table.Records, got)
	})
}

func TestCountByDate(t *testing.T) {
	filtered := Filter(telAvivTable(), testCity, NewDateRange(day(2024, 10, 1), day(2024, 11, 24)))

	got := CountByDate(filtered)

	want := []DateCount{
		{Date: day(2024, 10, 5), Count: 1},
		{Date: day(2024, 10, 6), Count: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("by-date mismatch (-want +got):\n%s", diff)
	}
}

func TestCountByDate_SortsUnorderedInput(t *testing.T) {
	records := []EventRecord{
		record(testCity, time.Date(2024, 11, 2, 3, 0, 0, 0, time.UTC)),
		record(testCity, time.Date(2024, 10, 2, 3, 0, 0, 0, time.UTC)),
		record(testCity, time.Date(2024, 10, 20, 3, 0, 0, 0, time.UTC)),
	}

	got := CountByDate(records)
	require.Len(t, got, 3)
	assert.Equal(t, day(2024, 10, 2), got[0].Date)
	assert.Equal(t, day(2024, 10, 20), got[1].Date)
	assert.Equal(t, day(2024, 11, 2), got[2].Date)
}

func TestCountByHour(t *testing.T) {
	filtered := Filter(telAvivTable(), testCity, NewDateRange(day(2024, 10, 1), day(2024, 11, 24)))

	got := CountByHour(filtered)

	want := []HourCount{{Hour: 9, Count: 1}, {Hour: 14, Count: 2}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("by-hour mismatch (-want +got):\n%s", diff)
	}
}

func TestCountsSumToFilteredLength(t *testing.T) {
	table := telAvivTable()
	ranges := []DateRange{
		NewDateRange(day(2024, 10, 1), day(2024, 11, 24)),
		NewDateRange(day(2024, 10, 6), day(2024, 10, 6)),
		NewDateRange(day(2024, 10, 7), day(2024, 10, 1)),
		NewDateRange(day(2023, 1, 1), day(2023, 1, 2)),
	}

	for _, r := range ranges {
		filtered := Filter(table, testCity, r)

		byDate, byHour := 0, 0
		for _, dc := range CountByDate(filtered) {
			byDate += dc.Count
		}
		for _, hc := range CountByHour(filtered) {
			byHour += hc.Count
		}
		assert.Equal(t, len(filtered), byDate)
		assert.Equal(t, len(filtered), byHour)
	}
}

func TestCountsOnEmptyInput(t *testing.T) {
	assert.Empty(t, CountByDate(nil))
	assert.Empty(t, CountByHour(nil))
	assert.NotNil(t, CountByDate(nil))
	assert.NotNil(t, CountByHour(nil))
}

func TestFilter_RangeWithTimeOfDay(t *testing.T) {
	r := DateRange{
		Start: time.Date(2024, 10, 5, 20, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 10, 5, 8, 0, 0, 0, time.UTC),
	}

	got := Filter(telAvivTable(), testCity, r)
	require.Len(t, got, 1)
	assert.Equal(t, day(2024, 10, 5), got[0].Date)
}

func TestBackfillHours(t *testing.T) {
	got := BackfillHours([]HourCount{{Hour: 9, Count: 1}, {Hour: 14, Count: 2}})

	require.Len(t, got, HoursPerDay)
	for h, hc := range got {
		assert.Equal(t, h, hc.Hour)
	}
	assert.Equal(t, 1, got[9].Count)
	assert.Equal(t, 2, got[14].Count)
	assert.Equal(t, 0, got[0].Count)
	assert.Equal(t, 0, got[23].Count)
}
