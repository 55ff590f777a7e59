package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/kilianp07/haulplan/core/metrics"
	"github.com/kilianp07/haulplan/core/model"
)

func TestPromSinkRecordSearch(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	_ = sink.RecordSearch(coremetrics.SearchEvent{Service: model.Launch, Slots: 3, Forced: true, Duration: 20 * time.Millisecond})
	_ = sink.RecordSearch(coremetrics.SearchEvent{Service: model.Launch, Conflict: true})
	_ = sink.RecordSearch(coremetrics.SearchEvent{Service: model.Haul})

	expected := `
# HELP haulplan_searches_total Slot searches by service and outcome
# TYPE haulplan_searches_total counter
haulplan_searches_total{outcome="conflict",service="Launch"} 1
haulplan_searches_total{outcome="empty",service="Haul"} 1
haulplan_searches_total{outcome="found",service="Launch"} 1
`
	if err := testutil.CollectAndCompare(sink.searches, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
	if v := testutil.ToFloat64(sink.slots.WithLabelValues("Launch", "fallback")); v != 3 {
		t.Errorf("slots = %v, want 3", v)
	}
	if c := testutil.CollectAndCount(sink.latency); c != 2 {
		t.Errorf("latency series = %d, want 2", c)
	}
}

func TestPromSinkCommitsAndGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	_ = sink.RecordCommit(coremetrics.CommitEvent{Service: model.Launch, CraneTruckID: 17, Outcome: coremetrics.OutcomeCommitted})
	_ = sink.RecordCommit(coremetrics.CommitEvent{Service: model.Launch, Outcome: coremetrics.OutcomeSlotTaken})
	_ = sink.RecordIdealDays(11, 42)
	_ = sink.RecordJobState(coremetrics.JobStateEvent{JobID: 1, Status: model.StatusParked})

	if v := testutil.ToFloat64(sink.commits.WithLabelValues("Launch", "true", "committed")); v != 1 {
		t.Errorf("committed = %v", v)
	}
	if v := testutil.ToFloat64(sink.commits.WithLabelValues("Launch", "false", "slot_taken")); v != 1 {
		t.Errorf("slot_taken = %v", v)
	}
	if v := testutil.ToFloat64(sink.idealDays.WithLabelValues("11")); v != 42 {
		t.Errorf("ideal days = %v", v)
	}
	if v := testutil.ToFloat64(sink.jobStates.WithLabelValues("Parked")); v != 1 {
		t.Errorf("parked = %v", v)
	}
}

func TestPromSinkReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	second, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("second sink: %v", err)
	}
	_ = first.RecordIdealDays(1, 5)
	if v := testutil.ToFloat64(second.idealDays.WithLabelValues("1")); v != 5 {
		t.Errorf("collectors not shared, got %v", v)
	}
}
