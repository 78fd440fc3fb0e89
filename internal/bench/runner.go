package bench

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/aclements/go-moremath/stats"
	"github.com/google/uuid"

	"github.com/quincunx271/nickeltools/internal/config"
	ferrors "github.com/quincunx271/nickeltools/internal/foundation/errors"
	"github.com/quincunx271/nickeltools/internal/logfields"
	"github.com/quincunx271/nickeltools/internal/metrics"
	"github.com/quincunx271/nickeltools/internal/procmeasure"
	"github.com/quincunx271/nickeltools/internal/toolchain"
)

// Settings are the repetition-estimation knobs of the runner.
type Settings struct {
	MaxEstimateSeconds  float64
	EstimateRepetitions int
	MinRepetitions      int
	MaxRepetitions      int
	BaselineRepetitions int
	BaselineSamples     int
}

// SettingsFromConfig copies the runner knobs out of the bench configuration.
func SettingsFromConfig(c config.BenchConfig) Settings {
	return Settings{
		MaxEstimateSeconds:  c.MaxEstimateSeconds,
		EstimateRepetitions: c.EstimateRepetitions,
		MinRepetitions:      c.MinRepetitions,
		MaxRepetitions:      c.MaxRepetitions,
		BaselineRepetitions: c.BaselineRepetitions,
		BaselineSamples:     c.BaselineSamples,
	}
}

// DefaultSettings returns the built-in runner knobs.
func DefaultSettings() Settings {
	return SettingsFromConfig(config.Default().Bench)
}

// Repetitions picks M so that one measurement takes about MaxEstimateSeconds,
// given the per-repetition time est, clamped to [MinRepetitions, MaxRepetitions].
func (s Settings) Repetitions(est float64) int {
	if est <= 0 {
		return s.MaxRepetitions
	}
	m := s.MaxEstimateSeconds / est
	if m > float64(s.MaxRepetitions) {
		return s.MaxRepetitions
	}
	return max(s.MinRepetitions, int(m))
}

// Spec describes one `bench run` invocation.
type Spec struct {
	Bench          string
	Which          string
	BenchFile      string
	Ns             []int
	CMake          string
	CMakeBinaryDir string
	WorkingDir     string
	GeneratedFile  string
	BuildTarget    string
	CleanTarget    string
	Timeout        time.Duration
	KeepTemps      bool
}

// SpecFromJob converts a scheduled job into a Spec.
func SpecFromJob(j config.BenchJob, timeout time.Duration) Spec {
	return Spec{
		Bench:          j.Bench,
		Which:          j.Which,
		BenchFile:      j.BenchFile,
		Ns:             j.Ns,
		CMake:          j.CMake,
		CMakeBinaryDir: j.CMakeBinaryDir,
		WorkingDir:     j.WorkingDir,
		GeneratedFile:  j.GeneratedFile,
		BuildTarget:    j.BuildTarget,
		CleanTarget:    j.CleanTarget,
		Timeout:        timeout,
	}
}

func (s Spec) validate() error {
	missing := []string{}
	for name, v := range map[string]string{
		"bench": s.Bench, "which": s.Which, "benchfile": s.BenchFile,
		"cmake-binary-dir": s.CMakeBinaryDir, "workingdir": s.WorkingDir,
		"generated-file": s.GeneratedFile, "build-target": s.BuildTarget, "clean-target": s.CleanTarget,
	} {
		if v == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return ferrors.ValidationError("missing benchmark run settings").WithContext("missing", missing).Build()
	}
	if len(s.Ns) == 0 {
		return ferrors.ValidationError("at least one N value is required").Build()
	}
	return nil
}

// Store persists finished result sets.
type Store interface {
	Put(ctx context.Context, set ResultSet) error
}

// Publisher announces finished result sets.
type Publisher interface {
	Publish(ctx context.Context, set ResultSet) error
}

// Runner measures benchmark configurations.
type Runner struct {
	Settings  Settings
	Measurer  procmeasure.Measurer
	Toolchain toolchain.Runner
	Store     Store
	Publisher Publisher
	Recorder  metrics.Recorder
	// Out receives the JSON result set; Log receives build output.
	Out io.Writer
	Log io.Writer

	now   func() time.Time
	newID func() string
}

// NewRunner returns a Runner with process measurement and the default knobs.
func NewRunner(store Store) *Runner {
	return &Runner{
		Settings:  DefaultSettings(),
		Measurer:  procmeasure.Rusage{},
		Toolchain: toolchain.ExecRunner{},
		Store:     store,
		Recorder:  metrics.NoopRecorder{},
		Out:       os.Stdout,
		Log:       os.Stderr,
	}
}

func (r *Runner) recorder() metrics.Recorder {
	if r.Recorder == nil {
		return metrics.NoopRecorder{}
	}
	return r.Recorder
}

func (r *Runner) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now()
}

func (r *Runner) runID() string {
	if r.newID != nil {
		return r.newID()
	}
	return uuid.NewString()
}

// Run measures every N of spec plus a baseline, stores and publishes the result
// set and writes it as JSON to Out.
func (r *Runner) Run(ctx context.Context, spec Spec) (ResultSet, error) {
	if err := spec.validate(); err != nil {
		return ResultSet{}, err
	}
	start := time.Now()
	set, err := r.run(ctx, spec)
	r.recorder().ObserveRunDuration(spec.Bench, spec.Which, time.Since(start))
	if err != nil {
		r.recorder().IncRunOutcome(spec.Bench, spec.Which, metrics.ResultFailed)
		return ResultSet{}, err
	}
	r.recorder().IncRunOutcome(spec.Bench, spec.Which, metrics.ResultSuccess)
	return set, nil
}

func (r *Runner) run(ctx context.Context, spec Spec) (ResultSet, error) {
	if err := os.MkdirAll(spec.WorkingDir, 0o755); err != nil {
		return ResultSet{}, ferrors.FileSystemError("failed to create working directory").WithCause(err).
			Fatal().WithContext("path", spec.WorkingDir).Build()
	}

	set := ResultSet{
		Name:       spec.Bench,
		Which:      spec.Which,
		Results:    make([]Sample, 0, len(spec.Ns)),
		RunID:      r.runID(),
		RecordedAt: r.clock().UTC(),
	}
	log := slog.With(logfields.Benchmark(spec.Bench), logfields.Which(spec.Which), logfields.RunID(set.RunID))
	log.Info("Running benchmark", slog.Any("ns", spec.Ns))

	for _, n := range spec.Ns {
		est, err := r.variant(ctx, spec, r.Settings.EstimateRepetitions, n)
		if err != nil {
			return ResultSet{}, err
		}
		m := r.Settings.Repetitions(est.Time)
		log.Debug("Estimated repetitions", logfields.N(n), logfields.M(m), slog.Float64("estimate_seconds", est.Time))

		sample, err := r.variant(ctx, spec, m, n)
		if err != nil {
			return ResultSet{}, err
		}
		set.Results = append(set.Results, sample)
		r.recorder().ObserveSample(spec.Bench, spec.Which, n, sample.Time, sample.Memory)
		log.Info("Measured", logfields.N(n), logfields.M(m),
			slog.Float64("seconds", sample.Time), slog.Int64("memory_bytes", sample.Memory))
	}

	baseline, err := r.baseline(ctx, spec)
	if err != nil {
		return ResultSet{}, err
	}
	set.Baseline = &baseline
	r.recorder().SetBaseline(spec.Bench, spec.Which, baseline.Time, baseline.Memory)
	log.Info("Measured baseline", slog.Float64("seconds", baseline.Time), slog.Int64("memory_bytes", baseline.Memory))

	if r.Store != nil {
		if err := r.Store.Put(ctx, set); err != nil {
			return ResultSet{}, err
		}
	}
	if err := r.writeJSON(set); err != nil {
		return ResultSet{}, err
	}
	if r.Publisher != nil {
		if err := r.Publisher.Publish(ctx, set); err != nil {
			log.Warn("Failed to publish result set", logfields.Error(err))
		}
	}
	return set, nil
}

// baseline measures the empty variant BaselineSamples times and keeps the
// smallest time and memory, normalised to a single repetition.
func (r *Runner) baseline(ctx context.Context, spec Spec) (Sample, error) {
	m := r.Settings.BaselineRepetitions
	if err := r.render(spec, m, 0); err != nil {
		return Sample{}, err
	}
	times := make([]float64, 0, r.Settings.BaselineSamples)
	mems := make([]float64, 0, r.Settings.BaselineSamples)
	for range r.Settings.BaselineSamples {
		s, err := r.Measure(ctx, spec, m, 0)
		if err != nil {
			return Sample{}, err
		}
		times = append(times, s.Time)
		mems = append(mems, float64(s.Memory))
	}
	minTime, _ := stats.Bounds(times)
	minMem, _ := stats.Bounds(mems)
	return Sample{M: 1, N: 0, Time: minTime, Memory: int64(minMem)}, nil
}

// variant renders the template with m repetitions at size n and measures it.
func (r *Runner) variant(ctx context.Context, spec Spec, m, n int) (Sample, error) {
	if err := r.render(spec, m, n); err != nil {
		return Sample{}, err
	}
	return r.Measure(ctx, spec, m, n)
}

func (r *Runner) render(spec Spec, m, n int) error {
	if err := RenderFile(spec.BenchFile, spec.GeneratedFile, spec.Which, m, n); err != nil {
		return err
	}
	if !spec.KeepTemps {
		return nil
	}
	data, err := os.ReadFile(spec.GeneratedFile)
	if err != nil {
		return ferrors.FileSystemError("failed to read generated benchmark").WithCause(err).Fatal().Build()
	}
	keep := filepath.Join(spec.WorkingDir, fmt.Sprintf("%s-%s-n%d-m%d%s", spec.Bench, spec.Which, n, m, filepath.Ext(spec.GeneratedFile)))
	if err := os.WriteFile(keep, data, 0o644); err != nil {
		return ferrors.FileSystemError("failed to keep generated benchmark").WithCause(err).
			Fatal().WithContext("path", keep).Build()
	}
	return nil
}

// Measure builds the build target under measurement, then cleans. The usage is
// divided by m to give per-repetition numbers.
func (r *Runner) Measure(ctx context.Context, spec Spec, m, n int) (Sample, error) {
	cmake := toolchain.CMake{Binary: spec.CMake, Runner: r.Toolchain}
	usage, err := r.Measurer.Measure(ctx, procmeasure.Request{
		Args:    cmake.BuildArgs(toolchain.BuildOptions{BinaryDir: spec.CMakeBinaryDir, Target: spec.BuildTarget}),
		Timeout: spec.Timeout,
		Stdout:  r.Log,
		Stderr:  r.Log,
	})
	if err != nil {
		return Sample{}, err
	}
	if err := cmake.Build(ctx, toolchain.BuildOptions{BinaryDir: spec.CMakeBinaryDir, Target: spec.CleanTarget}, io.Discard, r.Log); err != nil {
		return Sample{}, err
	}
	return Sample{
		M:      m,
		N:      n,
		Time:   usage.Seconds() / float64(m),
		Memory: int64(math.Round(float64(usage.MaxRSS) / float64(m))),
	}, nil
}

func (r *Runner) writeJSON(set ResultSet) error {
	if r.Out == nil {
		return nil
	}
	data, err := json.MarshalIndent(set, "", "    ")
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to encode result set").Fatal().Build()
	}
	if _, err := r.Out.Write(append(data, '\n')); err != nil {
		return ferrors.FileSystemError("failed to write result set").WithCause(err).Fatal().Build()
	}
	return nil
}
