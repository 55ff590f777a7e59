package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/haulplan/core/metrics"
)

// PromSink records engine events in Prometheus metrics.
type PromSink struct {
	searches  *prometheus.CounterVec
	slots     *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	commits   *prometheus.CounterVec
	idealDays *prometheus.GaugeVec
	jobStates *prometheus.CounterVec
}

// NewPromSink registers engine metrics on the default Prometheus registerer.
// The Prometheus server is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "haulplan_searches_total",
			Help: "Slot searches by service and outcome",
		}, []string{"service", "outcome"}),
		slots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "haulplan_slots_offered_total",
			Help: "Slots offered by service and search phase",
		}, []string{"service", "phase"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "haulplan_search_duration_seconds",
			Help:    "Time spent searching for slots",
			Buckets: prometheus.DefBuckets,
		}, []string{"service"}),
		commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "haulplan_commits_total",
			Help: "Commit attempts by service, crane use and outcome",
		}, []string{"service", "crane", "outcome"}),
		idealDays: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "haulplan_ideal_days",
			Help: "Ideal crane days in the current season per ramp",
		}, []string{"ramp_id"}),
		jobStates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "haulplan_job_transitions_total",
			Help: "Job lifecycle transitions by resulting status",
		}, []string{"status"}),
	}
	var err error
	if s.searches, err = register(reg, s.searches); err != nil {
		return nil, err
	}
	if s.slots, err = register(reg, s.slots); err != nil {
		return nil, err
	}
	if s.latency, err = register(reg, s.latency); err != nil {
		return nil, err
	}
	if s.commits, err = register(reg, s.commits); err != nil {
		return nil, err
	}
	if s.idealDays, err = register(reg, s.idealDays); err != nil {
		return nil, err
	}
	if s.jobStates, err = register(reg, s.jobStates); err != nil {
		return nil, err
	}
	return s, nil
}

// register adds c to reg, reusing an already registered collector of the same type.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordSearch counts the search and its offered slots.
func (s *PromSink) RecordSearch(ev coremetrics.SearchEvent) error {
	svc := string(ev.Service)
	s.searches.WithLabelValues(svc, searchOutcome(ev)).Inc()
	if ev.Slots > 0 {
		phase := "piggyback"
		if ev.Forced {
			phase = "fallback"
		}
		s.slots.WithLabelValues(svc, phase).Add(float64(ev.Slots))
	}
	s.latency.WithLabelValues(svc).Observe(ev.Duration.Seconds())
	return nil
}

// RecordCommit counts the commit attempt.
func (s *PromSink) RecordCommit(ev coremetrics.CommitEvent) error {
	s.commits.WithLabelValues(string(ev.Service), strconv.FormatBool(ev.CraneTruckID != 0), ev.Outcome).Inc()
	return nil
}

// RecordIdealDays sets the ideal-day gauge of a ramp.
func (s *PromSink) RecordIdealDays(rampID int64, days int) error {
	s.idealDays.WithLabelValues(strconv.FormatInt(rampID, 10)).Set(float64(days))
	return nil
}

// RecordJobState counts a lifecycle transition.
func (s *PromSink) RecordJobState(ev coremetrics.JobStateEvent) error {
	s.jobStates.WithLabelValues(string(ev.Status)).Inc()
	return nil
}

func searchOutcome(ev coremetrics.SearchEvent) string {
	switch {
	case ev.Conflict:
		return "conflict"
	case ev.Slots == 0:
		return "empty"
	default:
		return "found"
	}
}
