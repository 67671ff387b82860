// chrisrodz.io - Personal Site, Blog, and Coffee Tracker Backend
// Copyright 2026 Christian Rodriguez (chrisrodz)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/chrisrodz/chrisrodz.io

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordLoginAttempt(t *testing.T) {
	before := testutil.ToFloat64(LoginAttempts.WithLabelValues("success"))

	RecordLoginAttempt("success")
	RecordLoginAttempt("success")

	after := testutil.ToFloat64(LoginAttempts.WithLabelValues("success"))
	if after-before != 2 {
		t.Errorf("success counter delta = %v, want 2", after-before)
	}

	// Outcomes are independent label values.
	failBefore := testutil.ToFloat64(LoginAttempts.WithLabelValues("failure"))
	RecordLoginAttempt("failure")
	failAfter := testutil.ToFloat64(LoginAttempts.WithLabelValues("failure"))
	if failAfter-failBefore != 1 {
		t.Errorf("failure counter delta = %v, want 1", failAfter-failBefore)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsInFlight)

	TrackActiveRequest(true)
	if got := testutil.ToFloat64(HTTPRequestsInFlight); got != before+1 {
		t.Errorf("in-flight gauge = %v, want %v", got, before+1)
	}

	TrackActiveRequest(false)
	if got := testutil.ToFloat64(HTTPRequestsInFlight); got != before {
		t.Errorf("in-flight gauge after release = %v, want %v", got, before)
	}
}

func TestRecordSessionStoreError(t *testing.T) {
	before := testutil.ToFloat64(SessionStoreErrors.WithLabelValues("insert"))

	RecordSessionStoreError("insert")

	after := testutil.ToFloat64(SessionStoreErrors.WithLabelValues("insert"))
	if after-before != 1 {
		t.Errorf("insert error counter delta = %v, want 1", after-before)
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	RecordHTTPRequest("GET", "/api/v1/health", "200", 12*time.Millisecond)

	// The labeled series must exist after recording.
	if count := testutil.CollectAndCount(HTTPRequestDuration); count == 0 {
		t.Error("expected at least one recorded request duration series")
	}
}
