package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/quincunx271/nickeltools/internal/bench"
	"github.com/quincunx271/nickeltools/internal/config"
	ferrors "github.com/quincunx271/nickeltools/internal/foundation/errors"
	"github.com/quincunx271/nickeltools/internal/logfields"
	"github.com/quincunx271/nickeltools/internal/metrics"
	"github.com/quincunx271/nickeltools/internal/notify"
	"github.com/quincunx271/nickeltools/internal/procmeasure"
	"github.com/quincunx271/nickeltools/internal/resultstore"
	"github.com/quincunx271/nickeltools/internal/schedule"
	"github.com/quincunx271/nickeltools/internal/visualize"
	"github.com/quincunx271/nickeltools/internal/watch"
)

// BenchCmd groups the compile-time benchmark commands.
type BenchCmd struct {
	Generate   BenchGenerateCmd   `cmd:"" help:"Generate CMake add_benchmark calls for every .bench file in a directory"`
	Run        BenchRunCmd        `cmd:"" help:"Measure one benchmark configuration and record the result"`
	Measure    BenchMeasureCmd    `cmd:"" help:"Run a command and print its CPU time and peak memory as JSON"`
	RunTargets BenchRunTargetsCmd `cmd:"" name:"run-targets" help:"Run a build command once per target of a ;-separated list"`
	Visualize  BenchVisualizeCmd  `cmd:"" help:"Render stored results as charts, Markdown, HTML or Go benchmark format"`
	Schedule   BenchScheduleCmd   `cmd:"" help:"Run the configured benchmark jobs periodically until interrupted"`
}

// BenchGenerateCmd implements 'bench generate'.
type BenchGenerateCmd struct {
	Dir        string `arg:"" help:"Directory containing .bench files" type:"existingdir"`
	Output     string `short:"o" required:"" help:"CMake file to write" type:"path"`
	Executable string `help:"nickeltools binary the generated targets call (defaults to this executable)" type:"path"`
	Watch      bool   `help:"Regenerate whenever a .bench file changes"`
}

func (b *BenchGenerateCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	opts := bench.GenerateOptions{Executable: b.Executable, Timeout: cfg.Bench.Timeout}
	if opts.Executable == "" {
		if opts.Executable, err = os.Executable(); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to locate the nickeltools executable").Build()
		}
	}

	if err := b.write(opts); err != nil {
		return err
	}
	if !b.Watch {
		return nil
	}

	w, err := watch.New(b.Dir, bench.BenchExtension, watch.DefaultDebounce, func(context.Context) error {
		return b.write(opts)
	})
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	return w.Run(ctx)
}

func (b *BenchGenerateCmd) write(opts bench.GenerateOptions) error {
	var buf bytes.Buffer
	if err := bench.Generate(b.Dir, &buf, opts); err != nil {
		return err
	}
	if err := os.WriteFile(b.Output, buf.Bytes(), 0o644); err != nil {
		return ferrors.FileSystemError("failed to write generated CMake file").WithCause(err).
			WithContext("path", b.Output).Build()
	}
	return nil
}

// BenchRunCmd implements 'bench run'.
type BenchRunCmd struct {
	Bench     string `arg:"" help:"Benchmark name"`
	Which     string `arg:"" help:"Configuration to measure"`
	BenchFile string `arg:"" help:"The .bench template" type:"existingfile"`

	Ns             string `required:"" help:"Comma-separated N values"`
	CMake          string `name:"cmake" help:"CMake executable" default:"cmake"`
	CMakeBinaryDir string `name:"cmake-binary-dir" required:"" help:"CMake binary directory" type:"path"`
	WorkingDir     string `name:"workingdir" required:"" help:"Directory for the result store and kept sources" type:"path"`
	GeneratedFile  string `name:"generated-file" required:"" help:"Source file the build target compiles" type:"path"`
	BuildTarget    string `name:"build-target" required:"" help:"Target that compiles the generated file"`
	CleanTarget    string `name:"clean-target" required:"" help:"Target that removes the compiled output"`
	Timeout        int    `help:"Timeout in seconds for each measured build (defaults to bench.timeout)"`
	Output         string `short:"o" help:"Write the result set JSON here instead of stdout" type:"path"`
	KeepTemps      bool   `name:"keep-temps" help:"Keep a copy of every rendered variant in the working directory"`
}

func (b *BenchRunCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	ns, err := bench.ParseNs(b.Ns)
	if err != nil {
		return err
	}
	timeout := b.Timeout
	if timeout == 0 {
		timeout = cfg.Bench.Timeout
	}

	out, closeOut, err := outputWriter(b.Output, g.Stdout)
	if err != nil {
		return ferrors.FileSystemError("failed to open output file").WithCause(err).
			WithContext("path", b.Output).Build()
	}
	defer func() { _ = closeOut() }()

	env := newBenchEnv(g, cfg)
	defer env.close()

	spec := bench.Spec{
		Bench:          b.Bench,
		Which:          b.Which,
		BenchFile:      b.BenchFile,
		Ns:             ns,
		CMake:          b.CMake,
		CMakeBinaryDir: b.CMakeBinaryDir,
		WorkingDir:     b.WorkingDir,
		GeneratedFile:  b.GeneratedFile,
		BuildTarget:    b.BuildTarget,
		CleanTarget:    b.CleanTarget,
		Timeout:        time.Duration(timeout) * time.Second,
		KeepTemps:      b.KeepTemps,
	}
	ctx, cancel := signalContext()
	defer cancel()
	if err := env.run(ctx, spec, out); err != nil {
		return err
	}
	return closeOut()
}

// benchEnv holds what every runner of one command invocation shares.
type benchEnv struct {
	g         *Global
	cfg       *config.Config
	recorder  *metrics.PrometheusRecorder
	publisher *notify.Publisher
}

func newBenchEnv(g *Global, cfg *config.Config) *benchEnv {
	env := &benchEnv{g: g, cfg: cfg}
	if cfg.Bench.MetricsFile != "" {
		env.recorder = metrics.NewPrometheusRecorder(prom.NewRegistry())
	}
	if cfg.Notify.Enabled() {
		p, err := notify.NewPublisher(cfg.Notify)
		if err != nil {
			g.Logger.Warn("Result notifications disabled", logfields.Error(err))
		} else {
			env.publisher = p
		}
	}
	return env
}

// run measures spec with a store opened in its working directory.
func (e *benchEnv) run(ctx context.Context, spec bench.Spec, out io.Writer) error {
	if err := os.MkdirAll(spec.WorkingDir, 0o755); err != nil {
		return ferrors.FileSystemError("failed to create working directory").WithCause(err).
			WithContext("path", spec.WorkingDir).Build()
	}
	store, err := resultstore.Open(e.cfg.Bench.Store, spec.WorkingDir, e.cfg.Bench.ResultsFile)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			e.g.Logger.Warn("Failed to close result store", logfields.Error(err))
		}
	}()

	r := bench.NewRunner(store)
	r.Settings = bench.SettingsFromConfig(e.cfg.Bench)
	r.Measurer = measurer
	r.Toolchain = toolchainRunner
	r.Out = out
	r.Log = e.g.Stderr
	if e.recorder != nil {
		r.Recorder = e.recorder
	}
	if e.publisher != nil {
		r.Publisher = e.publisher
	}

	_, runErr := r.Run(ctx, spec)
	if e.recorder != nil {
		if err := e.recorder.WriteTextfile(e.cfg.Bench.MetricsFile); err != nil {
			e.g.Logger.Warn("Failed to write metrics", logfields.Error(err))
		}
	}
	return runErr
}

func (e *benchEnv) close() {
	if e.publisher != nil {
		e.publisher.Close()
	}
}

// BenchMeasureCmd implements 'bench measure'.
type BenchMeasureCmd struct {
	Timeout int      `required:"" help:"Timeout in seconds"`
	Cmd     []string `arg:"" passthrough:"" help:"Command to run, after --"`
}

// measurement is the JSON printed by 'bench measure'.
type measurement struct {
	Time   float64 `json:"time"`
	Memory int64   `json:"memory"`
}

func (b *BenchMeasureCmd) Run(g *Global, root *CLI) error {
	if _, err := root.LoadConfig(g); err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	// stdout is reserved for the JSON result.
	usage, err := measurer.Measure(ctx, procmeasure.Request{
		Args:    passthrough(b.Cmd),
		Timeout: time.Duration(b.Timeout) * time.Second,
		Stdout:  g.Stderr,
		Stderr:  g.Stderr,
	})
	if err != nil {
		return err
	}
	return json.NewEncoder(g.Stdout).Encode(measurement{Time: usage.Seconds(), Memory: usage.MaxRSS})
}

// BenchRunTargetsCmd implements 'bench run-targets'.
type BenchRunTargetsCmd struct {
	Targets string   `arg:"" help:"Targets separated by ;"`
	Cmd     []string `arg:"" passthrough:"" help:"Build command; each target is appended to it"`
}

func (b *BenchRunTargetsCmd) Run(g *Global, _ *CLI) error {
	ctx, cancel := signalContext()
	defer cancel()
	return bench.RunTargets(ctx, toolchainRunner, bench.SplitTargets(b.Targets), passthrough(b.Cmd), g.Stdout, g.Stderr)
}

// passthrough drops the "--" separating a passed-through command from the flags.
func passthrough(args []string) []string {
	if len(args) > 0 && args[0] == "--" {
		return args[1:]
	}
	return args
}

// BenchVisualizeCmd implements 'bench visualize'.
type BenchVisualizeCmd struct {
	Results string `arg:"" help:"Result store (.json, or .db/.sqlite for the SQLite store)" type:"existingfile"`
	Format  string `help:"Output format" enum:"${formats}" default:"chart"`
	Output  string `short:"o" help:"Write here instead of stdout" type:"path"`
	Serve   string `help:"Serve the charts over HTTP on this address instead of writing them"`
}

func (b *BenchVisualizeCmd) Run(g *Global, root *CLI) error {
	if _, err := root.LoadConfig(g); err != nil {
		return err
	}
	load := func(ctx context.Context) (bench.Results, error) {
		store, err := resultstore.Open(storeKind(b.Results), filepath.Dir(b.Results), filepath.Base(b.Results))
		if err != nil {
			return nil, err
		}
		defer func() { _ = store.Close() }()
		return store.Load(ctx)
	}

	ctx, cancel := signalContext()
	defer cancel()
	if b.Serve != "" {
		return visualize.Serve(ctx, b.Serve, visualize.Handler(load))
	}

	results, err := load(ctx)
	if err != nil {
		return err
	}
	out, closeOut, err := outputWriter(b.Output, g.Stdout)
	if err != nil {
		return ferrors.FileSystemError("failed to open output file").WithCause(err).
			WithContext("path", b.Output).Build()
	}
	defer func() { _ = closeOut() }()
	if err := visualize.Render(out, visualize.Format(b.Format), results); err != nil {
		return err
	}
	return closeOut()
}

// storeKind infers the result store backend from the file extension.
func storeKind(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return resultstore.KindSQLite
	default:
		return resultstore.KindFile
	}
}

// BenchScheduleCmd implements 'bench schedule'.
type BenchScheduleCmd struct {
	Once bool `help:"Run every configured job once and exit"`
}

func (b *BenchScheduleCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	env := newBenchEnv(g, cfg)
	defer env.close()

	timeout := time.Duration(cfg.Bench.Timeout) * time.Second
	job := func(ctx context.Context, j config.BenchJob) error {
		return env.run(ctx, bench.SpecFromJob(j, timeout), io.Discard)
	}

	ctx, cancel := signalContext()
	defer cancel()
	if b.Once {
		if len(cfg.Schedule.Jobs) == 0 {
			return ferrors.ConfigError("no scheduled benchmark jobs configured").Build()
		}
		if failed := schedule.RunJobs(ctx, cfg.Schedule.Jobs, job); failed > 0 {
			return ferrors.ToolchainError(fmt.Sprintf("%d of %d benchmark jobs failed", failed, len(cfg.Schedule.Jobs))).Build()
		}
		return nil
	}

	s, err := schedule.NewScheduler()
	if err != nil {
		return err
	}
	if _, err := s.Install(ctx, cfg.Schedule, job); err != nil {
		return err
	}
	s.Start()
	<-ctx.Done()
	return s.Stop()
}
