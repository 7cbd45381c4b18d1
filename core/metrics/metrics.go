package metrics

import "time"

// Sink records scheduling run outcomes for observability purposes.
type Sink interface {
	// RecordRun reports one solver run: its final status, the number of
	// search nodes explored and the wall time spent.
	RecordRun(status string, nodes int64, elapsed time.Duration)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) RecordRun(string, int64, time.Duration) {}

// MultiSink forwards every event to all wrapped sinks.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink combines several sinks into one.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) RecordRun(status string, nodes int64, elapsed time.Duration) {
	for _, s := range m.sinks {
		s.RecordRun(status, nodes, elapsed)
	}
}
