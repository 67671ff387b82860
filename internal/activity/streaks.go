// chrisrodz.io - Personal Site, Blog, and Coffee Tracker Backend
// Copyright 2026 Christian Rodriguez (chrisrodz)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/chrisrodz/chrisrodz.io

package activity

import (
	"math"
)

// Week is the best 7-day sliding window found in a series.
type Week struct {
	StartDate string `json:"startDate"`
	Total     int    `json:"total"`
}

// Recent summarizes the trailing 30 days of a series.
type Recent struct {
	Days       int `json:"days"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// Metrics are the derived streak and insight values for a series. They are
// recomputed on demand and never persisted.
type Metrics struct {
	CurrentStreak  int    `json:"currentStreak"`
	LongestStreak  int    `json:"longestStreak"`
	MostActiveDay  string `json:"mostActiveDay"`
	BestWeek       Week   `json:"bestWeek"`
	RecentActivity Recent `json:"recentActivity"`
}

// CurrentStreak walks backward from the most recent day in the series,
// counting consecutive days with activity. A zero count on the most recent
// day means the streak is 0, regardless of earlier activity. Days beyond the
// data window are simply absent, not gaps.
func CurrentStreak(days []Day) int {
	sorted := normalize(days)

	streak := 0
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].Count == 0 {
			break
		}
		streak++
	}
	return streak
}

// LongestStreak finds the longest run of consecutive nonzero-count days in a
// single forward pass.
func LongestStreak(days []Day) int {
	sorted := normalize(days)

	longest, run := 0, 0
	for _, d := range sorted {
		if d.Count == 0 {
			run = 0
			continue
		}
		run++
		if run > longest {
			longest = run
		}
	}
	return longest
}

// mostActiveWeekday buckets days by UTC weekday (0=Sunday..6=Saturday) and
// returns the weekday with the highest mean count. Ties break toward the
// higher total count. Returns false for an empty series.
func mostActiveWeekday(days []Day) (int, bool) {
	var totals, buckets [7]int
	seen := false

	for _, d := range normalize(days) {
		wd, ok := weekdayOf(d.Date)
		if !ok {
			continue
		}
		totals[wd] += d.Count
		buckets[wd]++
		seen = true
	}
	if !seen {
		return 0, false
	}

	best := -1
	var bestMean float64
	for wd := 0; wd < 7; wd++ {
		if buckets[wd] == 0 {
			continue
		}
		mean := float64(totals[wd]) / float64(buckets[wd])
		switch {
		case best == -1, mean > bestMean:
			best, bestMean = wd, mean
		case mean == bestMean && totals[wd] > totals[best]:
			best = wd
		}
	}
	return best, true
}

// BestWeek slides a 7-day window (by series position, not calendar-week
// aligned) across the chronologically sorted series and returns the window
// with the maximum total. An empty series yields a zero total.
func BestWeek(days []Day) Week {
	sorted := normalize(days)
	if len(sorted) == 0 {
		return Week{}
	}

	best := Week{StartDate: sorted[0].Date}
	for i := range sorted {
		total := 0
		for j := i; j < len(sorted) && j < i+7; j++ {
			total += sorted[j].Count
		}
		if total > best.Total {
			best = Week{StartDate: sorted[i].Date, Total: total}
		}
	}
	return best
}

// RecentWindow summarizes the trailing windowDays ending at today (a
// calendar-day string, inclusive): active-day count, summed total, and the
// active percentage rounded to a whole number. Degenerate inputs produce
// zeros rather than NaN or infinities.
func RecentWindow(days []Day, today string, windowDays int) Recent {
	if windowDays <= 0 {
		return Recent{}
	}

	start, ok := shiftDate(today, -(windowDays - 1))
	if !ok {
		return Recent{}
	}

	recent := Recent{}
	for _, d := range normalize(days) {
		if d.Date < start || d.Date > today {
			continue
		}
		recent.Total += d.Count
		if d.Count > 0 {
			recent.Days++
		}
	}

	pct := math.Round(float64(recent.Days) / float64(windowDays) * 100)
	if !math.IsNaN(pct) && !math.IsInf(pct, 0) {
		recent.Percentage = int(pct)
	}
	return recent
}

// shiftDate moves a calendar-day string by n days.
func shiftDate(date string, n int) (string, bool) {
	t, err := parseDay(date)
	if err != nil {
		return "", false
	}
	return t.AddDate(0, 0, n).Format(dateLayout), true
}
