package metrics

import "time"

// ResultLabel enumerates run outcomes for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
)

// Recorder defines observability hooks for benchmark runs.
type Recorder interface {
	ObserveRunDuration(bench, which string, d time.Duration)
	IncRunOutcome(bench, which string, result ResultLabel)
	ObserveSample(bench, which string, n int, seconds float64, memoryBytes int64)
	SetBaseline(bench, which string, seconds float64, memoryBytes int64)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveRunDuration(string, string, time.Duration)  {}
func (NoopRecorder) IncRunOutcome(string, string, ResultLabel)         {}
func (NoopRecorder) ObserveSample(string, string, int, float64, int64) {}
func (NoopRecorder) SetBaseline(string, string, float64, int64)        {}
