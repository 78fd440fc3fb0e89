package metrics

import (
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	ferrors "github.com/quincunx271/nickeltools/internal/foundation/errors"
)

const namespace = "nickeltools"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg            *prom.Registry
	runDuration    *prom.HistogramVec
	runOutcome     *prom.CounterVec
	sampleSeconds  *prom.GaugeVec
	sampleMemory   *prom.GaugeVec
	baselineSecs   *prom.GaugeVec
	baselineMemory *prom.GaugeVec
}

// NewPrometheusRecorder constructs and registers the benchmark metrics on reg
// (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		runDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "bench_run_duration_seconds",
			Help:      "Wall time of a complete benchmark configuration run",
			Buckets:   prom.ExponentialBuckets(1, 2, 12),
		}, []string{"bench", "which"}),
		runOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "bench_runs_total",
			Help:      "Benchmark configuration runs by outcome",
		}, []string{"bench", "which", "result"}),
		sampleSeconds: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "bench_compile_seconds",
			Help:      "Compile time per repetition of the last measured sample",
		}, []string{"bench", "which", "n"}),
		sampleMemory: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "bench_memory_bytes",
			Help:      "Peak compiler memory per repetition of the last measured sample",
		}, []string{"bench", "which", "n"}),
		baselineSecs: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "bench_baseline_seconds",
			Help:      "Baseline compile time of the empty variant",
		}, []string{"bench", "which"}),
		baselineMemory: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "bench_baseline_memory_bytes",
			Help:      "Baseline peak memory of the empty variant",
		}, []string{"bench", "which"}),
	}
	reg.MustRegister(pr.runDuration, pr.runOutcome, pr.sampleSeconds, pr.sampleMemory, pr.baselineSecs, pr.baselineMemory)
	return pr
}

func (p *PrometheusRecorder) ObserveRunDuration(bench, which string, d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.WithLabelValues(bench, which).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRunOutcome(bench, which string, result ResultLabel) {
	if p == nil {
		return
	}
	p.runOutcome.WithLabelValues(bench, which, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveSample(bench, which string, n int, seconds float64, memoryBytes int64) {
	if p == nil {
		return
	}
	label := strconv.Itoa(n)
	p.sampleSeconds.WithLabelValues(bench, which, label).Set(seconds)
	p.sampleMemory.WithLabelValues(bench, which, label).Set(float64(memoryBytes))
}

func (p *PrometheusRecorder) SetBaseline(bench, which string, seconds float64, memoryBytes int64) {
	if p == nil {
		return
	}
	p.baselineSecs.WithLabelValues(bench, which).Set(seconds)
	p.baselineMemory.WithLabelValues(bench, which).Set(float64(memoryBytes))
}

// WriteTextfile writes every registered metric to path in the text exposition format.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := prom.WriteToTextfile(path, p.reg); err != nil {
		return ferrors.FileSystemError("failed to write metrics textfile").WithCause(err).
			Fatal().WithContext("path", path).Build()
	}
	return nil
}
