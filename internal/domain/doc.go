// Package domain models per-city historical alert logs and the statistics the
// dashboard derives from them.
//
// # Data Source
//
// Each city has a pre-built CSV file under the cities directory named
// "<city>.csv". Files are static; nothing in this service writes them. A
// separate plain-text city list holds one city name per line and populates the
// selectable set of cities.
//
// # Column Conventions
//
// The default [Schema] matches the published files:
//
//	NAME_HE    city name, identical for every row of a file
//	date       calendar date of the alert, day-first ("05/03/2024" is 5 March 2024)
//	alertDate  full alert timestamp, e.g. "2024-03-05T14:10:00" or "2024-03-05 14:10:00"
//
// The day-first convention is fixed for the whole file. ISO dates ("2024-03-05")
// are also accepted and are always read year-month-day. The hour of day is
// derived once from the timestamp at load time and reused by every grouping.
//
// # Statistics
//
// For a selected city, inclusive date range, and target hour the dashboard shows:
//
//	alert count      rows of the filtered table
//	by-date counts   filtered rows grouped by calendar date, ascending
//	by-hour counts   filtered rows grouped by hour of day 0-23, ascending
//	probability      distinct alert timestamps in the target hour across the
//	                 whole city history, divided by days*24*slotsPerHour
//
// Groupings are sparse: keys with no rows are omitted. The probability is not
// clamped and can exceed 1 for short ranges. It is 0 when the range spans zero
// or negative days, or when the city has no history at all.
//
// # Slot Granularity
//
// The probability denominator treats each hour as [DefaultSlotsPerHour]
// ten-minute slots. This is an assumption about the resolution of the source
// data, not something the files guarantee, so the slot count is configurable on
// [Estimator].
package domain
