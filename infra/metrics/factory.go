package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/haulplan/core/metrics"
	"github.com/kilianp07/haulplan/infra/logger"
)

// NewSink builds the configured sinks. With nothing enabled it returns a NopSink.
func NewSink(cfg coremetrics.Config, reg prometheus.Registerer, log logger.Logger) (coremetrics.MetricsSink, error) {
	if log == nil {
		log = logger.NopLogger{}
	}
	var sinks []coremetrics.MetricsSink
	if cfg.PrometheusEnabled {
		ps, err := NewPromSinkWithRegistry(reg)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, ps)
	}
	if cfg.InfluxEnabled {
		sinks = append(sinks, NewInfluxSinkWithFallback(cfg))
	}
	switch len(sinks) {
	case 0:
		log.Debugf("metrics disabled")
		return coremetrics.NopSink{}, nil
	case 1:
		return sinks[0], nil
	}
	return coremetrics.NewMultiSink(sinks...), nil
}
