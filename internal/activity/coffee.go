// chrisrodz.io - Personal Site, Blog, and Coffee Tracker Backend
// Copyright 2026 Christian Rodriguez (chrisrodz)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/chrisrodz/chrisrodz.io

package activity

import "time"

// CoffeeZone anchors brew day boundaries. Puerto Rico is UTC-4 year round
// (no DST), so a fixed offset keeps server and client views consistent.
var CoffeeZone = time.FixedZone("AST", -4*60*60)

// weekdayNames are the capitalized three-letter labels the coffee dashboard
// renders, indexed by UTC weekday.
var weekdayNames = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// CoffeeSeries builds the brew calendar: brew timestamps normalized to the
// coffee zone, a dense window of windowDays ending today, heatmap levels.
func CoffeeSeries(brews []time.Time, windowDays int, now time.Time) []Day {
	return BuildSeries(brews, windowDays, HeatmapScale, CoffeeZone, now)
}

// CoffeeInsights computes streak and insight metrics for a brew series.
// The most-active day is a capitalized three-letter name ("Mon"); an empty
// series yields an empty string.
func CoffeeInsights(days []Day, now time.Time) Metrics {
	today := now.In(CoffeeZone).Format(dateLayout)

	mostActive := ""
	if wd, ok := mostActiveWeekday(days); ok {
		mostActive = weekdayNames[wd]
	}

	return Metrics{
		CurrentStreak:  CurrentStreak(days),
		LongestStreak:  LongestStreak(days),
		MostActiveDay:  mostActive,
		BestWeek:       BestWeek(days),
		RecentActivity: RecentWindow(days, today, 30),
	}
}
