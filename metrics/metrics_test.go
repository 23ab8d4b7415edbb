// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "GET /forum", "200"))

	RecordHTTPRequest("GET", "GET /forum", 200, 15*time.Millisecond)
	RecordHTTPRequest("GET", "GET /forum", 200, 5*time.Millisecond)

	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "GET /forum", "200"))
	if after-before != 2 {
		t.Errorf("Expected counter to grow by 2, grew by %v", after-before)
	}

	if n := testutil.CollectAndCount(HTTPRequestDuration); n == 0 {
		t.Error("Expected duration histogram to have samples")
	}
}

func TestRecordHTTPRequest_CollapsesUnknownMethods(t *testing.T) {
	tests := []struct {
		method string
		want   string
	}{
		{"GET", "GET"},
		{"OPTIONS", "OPTIONS"},
		{"PROPFIND", "other"},
		{"get", "other"},
		{"X-RANDOM-1234", "other"},
	}
	for _, tt := range tests {
		if got := MethodLabel(tt.method); got != tt.want {
			t.Errorf("MethodLabel(%q) = %q, want %q", tt.method, got, tt.want)
		}
	}

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("other", "unmatched", "405"))
	RecordHTTPRequest("BREW", "unmatched", 405, time.Millisecond)
	RecordHTTPRequest("PROPFIND", "unmatched", 405, time.Millisecond)
	if got := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("other", "unmatched", "405")) - before; got != 2 {
		t.Errorf("Expected both unknown methods under \"other\", got %v", got)
	}
}

func TestChatCollectors(t *testing.T) {
	ChatClients.Set(0)
	ChatClients.Inc()
	ChatClients.Inc()
	ChatClients.Dec()

	if got := testutil.ToFloat64(ChatClients); got != 1 {
		t.Errorf("Expected 1 chat client, got %v", got)
	}
}
