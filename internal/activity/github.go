// chrisrodz.io - Personal Site, Blog, and Coffee Tracker Backend
// Copyright 2026 Christian Rodriguez (chrisrodz)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/chrisrodz/chrisrodz.io

package activity

import "time"

// weekdayKeys are the lowercase three-letter keys the contribution heatmap
// uses, indexed by UTC weekday.
var weekdayKeys = [7]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

// GitHubSeries converts contribution-calendar days to a leveled series.
// GitHub already reports UTC calendar dates, so no timezone conversion is
// applied; this asymmetry with the coffee aggregator is intentional.
func GitHubSeries(contributions []DatedCount) []Day {
	return SeriesFromCounts(contributions, VolumeScale)
}

// GitHubInsights computes streak and insight metrics for a contribution
// series. The most-active day is a lowercase three-letter key ("mon"); an
// empty series yields "sun". This encoding intentionally differs from
// CoffeeInsights: the two call sites render the value differently, and
// unifying them would silently change caller-visible formatting.
func GitHubInsights(days []Day, now time.Time) Metrics {
	today := now.UTC().Format(dateLayout)

	mostActive := "sun"
	if wd, ok := mostActiveWeekday(days); ok {
		mostActive = weekdayKeys[wd]
	}

	return Metrics{
		CurrentStreak:  CurrentStreak(days),
		LongestStreak:  LongestStreak(days),
		MostActiveDay:  mostActive,
		BestWeek:       BestWeek(days),
		RecentActivity: RecentWindow(days, today, 30),
	}
}
