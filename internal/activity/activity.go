// chrisrodz.io - Personal Site, Blog, and Coffee Tracker Backend
// Copyright 2026 Christian Rodriguez (chrisrodz)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/chrisrodz/chrisrodz.io

// Package activity turns sparse time-stamped event logs (coffee brews, GitHub
// contributions) into dense daily series for calendar heatmaps, and computes
// streak and insight metrics over them.
//
// Timezone handling is deliberately asymmetric: coffee brews are normalized
// in a fixed UTC-4 zone matching the wall-clock intent of the logs, while
// GitHub contribution dates are already UTC calendar dates and are used
// verbatim. See the Coffee* and GitHub* entry points.
package activity

import (
	"sort"
	"time"
)

// dateLayout is the calendar-day encoding used throughout the package.
const dateLayout = "2006-01-02"

// Day is one calendar day of activity with a display intensity level.
type Day struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
	Level int    `json:"level"`
}

// DatedCount is a pre-aggregated day from an external source such as the
// GitHub contribution calendar.
type DatedCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// LevelScale maps counts to intensity buckets. Each entry is the minimum
// count for the next level: a count reaches level i+1 once it is >= scale[i].
type LevelScale []int

// Stock scales. HeatmapScale is the 4-level coffee calendar variant
// (0, 1, 2, >=3); VolumeScale is the 5-level contribution variant
// (0, <3, <6, <10, >=10).
var (
	HeatmapScale = LevelScale{1, 2, 3}
	VolumeScale  = LevelScale{1, 3, 6, 10}
)

// Level buckets a count using the scale's thresholds.
func (s LevelScale) Level(count int) int {
	level := 0
	for _, min := range s {
		if count >= min {
			level++
		}
	}
	return level
}

// BuildSeries normalizes event timestamps to calendar days in loc, counts
// events per day, and returns exactly windowDays entries in ascending order
// ending at today's date in loc. Days without events carry a zero count.
func BuildSeries(events []time.Time, windowDays int, scale LevelScale, loc *time.Location, today time.Time) []Day {
	if windowDays <= 0 {
		return []Day{}
	}

	counts := make(map[string]int, len(events))
	for _, ev := range events {
		counts[ev.In(loc).Format(dateLayout)]++
	}

	anchor := today.In(loc)
	start := anchor.AddDate(0, 0, -(windowDays - 1))

	days := make([]Day, 0, windowDays)
	for i := 0; i < windowDays; i++ {
		date := start.AddDate(0, 0, i).Format(dateLayout)
		count := counts[date]
		days = append(days, Day{
			Date:  date,
			Count: count,
			Level: scale.Level(count),
		})
	}
	return days
}

// SeriesFromCounts converts pre-aggregated per-day counts to a leveled
// series. Dates are used verbatim with no timezone conversion; the input is
// sorted ascending and deduplicated last-write-wins.
func SeriesFromCounts(counts []DatedCount, scale LevelScale) []Day {
	days := make([]Day, 0, len(counts))
	for _, c := range counts {
		days = append(days, Day{
			Date:  c.Date,
			Count: c.Count,
			Level: scale.Level(c.Count),
		})
	}
	return normalize(days)
}

// normalize sorts a series ascending by date and drops duplicate dates,
// keeping the last occurrence.
func normalize(days []Day) []Day {
	if len(days) == 0 {
		return days
	}

	out := make([]Day, len(days))
	copy(out, days)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })

	deduped := out[:0]
	for _, d := range out {
		if n := len(deduped); n > 0 && deduped[n-1].Date == d.Date {
			deduped[n-1] = d
			continue
		}
		deduped = append(deduped, d)
	}
	return deduped
}

// parseDay parses a calendar-day string as a UTC instant.
func parseDay(date string) (time.Time, error) {
	return time.Parse(dateLayout, date)
}

// weekdayOf returns the UTC day-of-week (0=Sunday..6=Saturday) for a
// calendar-day string, and false when the date does not parse.
func weekdayOf(date string) (int, bool) {
	t, err := parseDay(date)
	if err != nil {
		return 0, false
	}
	return int(t.Weekday()), true
}
