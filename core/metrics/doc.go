package metrics

// Package metrics defines the sink interface used to observe scheduling
// runs. Sinks like PromSink record run outcomes and solver effort and can be
// combined with NewMultiSink. The factory helpers return a MultiSink
// automatically when multiple sinks are configured.
