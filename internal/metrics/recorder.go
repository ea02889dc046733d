// Package metrics defines the observability hooks of the compile service and
// a Prometheus-backed implementation.
package metrics

import "time"

// Outcome labels for compile metrics.
const (
	OutcomeSuccess = "success"
)

// Recorder receives compile and queue observations. NoopRecorder is used when
// metrics are disabled so callers never nil-check.
type Recorder interface {
	ObserveCompile(engine, outcome string, d time.Duration)
	SetQueueDepth(n int)
	SetInFlight(n int)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveCompile(string, string, time.Duration) {}
func (NoopRecorder) SetQueueDepth(int)                            {}
func (NoopRecorder) SetInFlight(int)                              {}

// OrNoop returns r, or NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
