// chrisrodz.io - Personal Site, Blog, and Coffee Tracker Backend
// Copyright 2026 Christian Rodriguez (chrisrodz)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/chrisrodz/chrisrodz.io

package activity

import (
	"testing"
	"time"
)

func TestLevelScales(t *testing.T) {
	heatmap := []struct{ count, level int }{
		{0, 0}, {1, 1}, {2, 2}, {3, 3}, {7, 3},
	}
	for _, tt := range heatmap {
		if got := HeatmapScale.Level(tt.count); got != tt.level {
			t.Errorf("HeatmapScale.Level(%d) = %d, want %d", tt.count, got, tt.level)
		}
	}

	volume := []struct{ count, level int }{
		{0, 0}, {1, 1}, {2, 1}, {3, 2}, {5, 2}, {6, 3}, {9, 3}, {10, 4}, {40, 4},
	}
	for _, tt := range volume {
		if got := VolumeScale.Level(tt.count); got != tt.level {
			t.Errorf("VolumeScale.Level(%d) = %d, want %d", tt.count, got, tt.level)
		}
	}
}

func TestBuildSeriesGapFilling(t *testing.T) {
	// 1 event on D-3 and 2 events on D-1 inside a 4-day window ending D.
	today := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	events := []time.Time{
		time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 27, 7, 30, 0, 0, time.UTC),
		time.Date(2026, 8, 27, 15, 45, 0, 0, time.UTC),
	}

	days := BuildSeries(events, 4, HeatmapScale, time.UTC, today)

	if len(days) != 4 {
		t.Fatalf("got %d entries, want 4", len(days))
	}
	wantDates := []string{"2026-08-25", "2026-08-26", "2026-08-27", "2026-08-28"}
	wantCounts := []int{1, 0, 2, 0}
	for i := range days {
		if days[i].Date != wantDates[i] {
			t.Errorf("day %d date = %q, want %q", i, days[i].Date, wantDates[i])
		}
		if days[i].Count != wantCounts[i] {
			t.Errorf("day %d count = %d, want %d", i, days[i].Count, wantCounts[i])
		}
		if days[i].Level != HeatmapScale.Level(wantCounts[i]) {
			t.Errorf("day %d level = %d, want %d", i, days[i].Level, HeatmapScale.Level(wantCounts[i]))
		}
	}
}

func TestBuildSeriesTimezoneBoundary(t *testing.T) {
	// 01:30 UTC is still the previous day in UTC-4.
	today := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	events := []time.Time{
		time.Date(2026, 8, 28, 1, 30, 0, 0, time.UTC),
	}

	days := BuildSeries(events, 2, HeatmapScale, CoffeeZone, today)
	if len(days) != 2 {
		t.Fatalf("got %d entries, want 2", len(days))
	}
	if days[0].Date != "2026-08-27" || days[0].Count != 1 {
		t.Errorf("event should land on 2026-08-27 in UTC-4, got %+v", days[0])
	}
	if days[1].Count != 0 {
		t.Errorf("2026-08-28 should be empty, got %+v", days[1])
	}
}

func TestBuildSeriesEmptyWindow(t *testing.T) {
	days := BuildSeries(nil, 0, HeatmapScale, time.UTC, time.Now())
	if len(days) != 0 {
		t.Errorf("zero window should yield an empty series, got %d entries", len(days))
	}

	days = BuildSeries(nil, 3, HeatmapScale, time.UTC, time.Now())
	if len(days) != 3 {
		t.Fatalf("empty events should still gap-fill, got %d entries", len(days))
	}
	for _, d := range days {
		if d.Count != 0 || d.Level != 0 {
			t.Errorf("expected zero day, got %+v", d)
		}
	}
}

func TestSeriesFromCountsSortsAndDedupes(t *testing.T) {
	days := SeriesFromCounts([]DatedCount{
		{Date: "2026-08-27", Count: 2},
		{Date: "2026-08-25", Count: 1},
		{Date: "2026-08-27", Count: 5}, // duplicate: last write wins
	}, VolumeScale)

	if len(days) != 2 {
		t.Fatalf("got %d entries, want 2", len(days))
	}
	if days[0].Date != "2026-08-25" || days[1].Date != "2026-08-27" {
		t.Errorf("series not sorted ascending: %+v", days)
	}
	if days[1].Count != 5 {
		t.Errorf("duplicate date should keep the last count, got %d", days[1].Count)
	}
	if days[1].Level != VolumeScale.Level(5) {
		t.Errorf("level = %d, want %d", days[1].Level, VolumeScale.Level(5))
	}
}
