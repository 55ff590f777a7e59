package metrics

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSearch forwards the event to all sinks, returning the first error encountered.
func (m *MultiSink) RecordSearch(ev SearchEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordSearch(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordCommit forwards the event to all sinks, returning the first error encountered.
func (m *MultiSink) RecordCommit(ev CommitEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordCommit(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordIdealDays forwards to sinks implementing IdealDaysRecorder.
func (m *MultiSink) RecordIdealDays(rampID int64, days int) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(IdealDaysRecorder); ok {
			if err := rec.RecordIdealDays(rampID, days); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordJobState forwards to sinks implementing JobStateRecorder.
func (m *MultiSink) RecordJobState(ev JobStateEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(JobStateRecorder); ok {
			if err := rec.RecordJobState(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close closes every sink that holds resources.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		if c, ok := s.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
