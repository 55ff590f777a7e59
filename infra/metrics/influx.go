package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/haulplan/core/metrics"
	"github.com/kilianp07/haulplan/infra/logger"
)

// InfluxSink writes engine events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a NopSink
// when the health check fails.
func NewInfluxSinkWithFallback(cfg coremetrics.Config) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }

// RecordSearch writes a slot_search point.
func (s *InfluxSink) RecordSearch(ev coremetrics.SearchEvent) error {
	p := write.NewPointWithMeasurement("slot_search").
		AddTag("service", string(ev.Service)).
		AddTag("ramp_id", strconv.FormatInt(ev.RampID, 10)).
		AddTag("forced", strconv.FormatBool(ev.Forced)).
		AddTag("conflict", strconv.FormatBool(ev.Conflict)).
		AddField("request_id", ev.RequestID).
		AddField("boat_id", ev.BoatID).
		AddField("slots", ev.Slots).
		AddField("duration_ms", ev.Duration.Milliseconds()).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordCommit writes a job_commit point.
func (s *InfluxSink) RecordCommit(ev coremetrics.CommitEvent) error {
	p := write.NewPointWithMeasurement("job_commit").
		AddTag("service", string(ev.Service)).
		AddTag("outcome", ev.Outcome).
		AddTag("truck_id", strconv.FormatInt(ev.TruckID, 10)).
		AddField("job_id", ev.JobID).
		AddField("crane_truck_id", ev.CraneTruckID).
		AddField("start", ev.Start.UTC().Format(time.RFC3339)).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordIdealDays writes an ideal_days point.
func (s *InfluxSink) RecordIdealDays(rampID int64, days int) error {
	p := write.NewPointWithMeasurement("ideal_days").
		AddTag("ramp_id", strconv.FormatInt(rampID, 10)).
		AddField("days", days).
		SetTime(time.Now())
	return s.write(p)
}

// RecordJobState writes a job_state point.
func (s *InfluxSink) RecordJobState(ev coremetrics.JobStateEvent) error {
	p := write.NewPointWithMeasurement("job_state").
		AddTag("status", string(ev.Status)).
		AddField("job_id", ev.JobID).
		SetTime(ev.Time)
	return s.write(p)
}

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}
