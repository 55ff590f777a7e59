package metrics

import (
	"context"

	"github.com/kilianp07/haulplan/core/events"
	coremetrics "github.com/kilianp07/haulplan/core/metrics"
	"github.com/kilianp07/haulplan/core/model"
	"github.com/kilianp07/haulplan/internal/eventbus"
)

// StartEventCollector subscribes to the job bus and records lifecycle
// transitions on sinks implementing JobStateRecorder. It stops when the
// context is canceled and returns a channel closed on exit.
func StartEventCollector(ctx context.Context, bus *eventbus.Bus[events.JobEvent], sink coremetrics.MetricsSink) <-chan struct{} {
	rec, ok := sink.(coremetrics.JobStateRecorder)
	if bus == nil || !ok {
		done := make(chan struct{})
		close(done)
		return done
	}
	return bus.Consume(ctx, func(ev events.JobEvent) {
		status, ok := statusFor(ev.Kind)
		if !ok {
			return
		}
		_ = rec.RecordJobState(coremetrics.JobStateEvent{JobID: ev.Job.ID, Status: status, Time: ev.Time})
	})
}

func statusFor(k events.Kind) (model.JobStatus, bool) {
	switch k {
	case events.KindCommitted:
		return model.StatusScheduled, true
	case events.KindParked:
		return model.StatusParked, true
	case events.KindCancelled:
		return model.StatusCancelled, true
	}
	return "", false
}
