package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/require"

	"github.com/quincunx271/nickeltools/internal/bench"
	ferrors "github.com/quincunx271/nickeltools/internal/foundation/errors"
	"github.com/quincunx271/nickeltools/internal/procmeasure"
	"github.com/quincunx271/nickeltools/internal/resultstore"
	"github.com/quincunx271/nickeltools/internal/toolchain"
	"github.com/quincunx271/nickeltools/internal/toolchain/toolchaintest"
)

type cliResult struct {
	stdout string
	stderr string
}

// runCLI parses args against a fresh CLI whose config file does not exist.
func runCLI(t *testing.T, args ...string) (cliResult, error) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("nickeltools"),
		kong.Exit(func(int) { t.Fatal("unexpected exit") }),
		Vars(),
	)
	require.NoError(t, err)

	full := append([]string{"--config", filepath.Join(t.TempDir(), "nickeltools.yaml")}, args...)
	ctx, err := parser.Parse(full)
	require.NoError(t, err)

	var stdout, stderr bytes.Buffer
	g := &Global{Logger: slog.New(slog.NewTextHandler(io.Discard, nil)), Stdout: &stdout, Stderr: &stderr}
	err = ctx.Run(g, &cli)
	return cliResult{stdout: stdout.String(), stderr: stderr.String()}, err
}

func useRecorder(t *testing.T, rec *toolchaintest.Recorder) {
	t.Helper()
	prev := toolchainRunner
	toolchainRunner = rec
	t.Cleanup(func() { toolchainRunner = prev })
}

type fixedMeasurer struct {
	usage    procmeasure.Usage
	requests []procmeasure.Request
}

func (f *fixedMeasurer) Measure(_ context.Context, req procmeasure.Request) (procmeasure.Usage, error) {
	f.requests = append(f.requests, req)
	return f.usage, nil
}

func useMeasurer(t *testing.T, m procmeasure.Measurer) {
	t.Helper()
	prev := measurer
	measurer = m
	t.Cleanup(func() { measurer = prev })
}

func TestInitWritesConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nickeltools.yaml")
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("nickeltools"), Vars())
	require.NoError(t, err)
	ctx, err := parser.Parse([]string{"--config", path, "init"})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, ctx.Run(&Global{Logger: slog.Default(), Stdout: &out, Stderr: io.Discard}, &cli))
	require.FileExists(t, path)
	require.Contains(t, out.String(), "initialized successfully")

	err = ctx.Run(&Global{Logger: slog.Default(), Stdout: &out, Stderr: io.Discard}, &cli)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
}

func TestCompileErrorCommand(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bad.test.cpp")
	require.NoError(t, os.WriteFile(src, []byte("// ERROR_MATCHES: static assertion\nint x = ;\n"), 0o644))

	rec := &toolchaintest.Recorder{Match: func(toolchain.Command) (toolchaintest.Response, bool) {
		return toolchaintest.Response{Stderr: "error: static assertion failed\n", ExitCode: 2}, true
	}}
	useRecorder(t, rec)

	_, err := runCLI(t, "compile-error",
		"--cmake", "cmake", "--build-config", "Debug", "--binary-dir", "build",
		"--target", "bad", "--file", src)
	require.NoError(t, err)
	require.Equal(t, [][]string{{"cmake", "--build", "build", "--config", "Debug", "--target", "bad"}}, rec.Argvs())
}

func TestPackageCI(t *testing.T) {
	t.Setenv("CONAN_USERNAME", "quincunx271")
	t.Setenv("CONAN_VERSION", "0.1.0")
	t.Setenv("CONAN_CHANNEL", "testing")
	rec := &toolchaintest.Recorder{}
	useRecorder(t, rec)

	_, err := runCLI(t, "package", "ci", "--source-dir", t.TempDir())
	require.NoError(t, err)
	argvs := rec.Argvs()
	require.NotEmpty(t, argvs)
	require.Equal(t, []string{"conan", "create"}, argvs[0][:2])
	require.Contains(t, argvs[0], "nickel/0.1.0@quincunx271/testing")
}

func TestBenchGenerate(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kwargs.bench"),
		[]byte("// kwargs: nickel, baseline\n// 1, 2\nint main() {}\n"), 0o644))
	out := filepath.Join(t.TempDir(), "benchmarks.cmake")

	_, err := runCLI(t, "bench", "generate", dir, "-o", out, "--executable", "/opt/bin/nickeltools")
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Contains(t, string(data), `"/opt/bin/nickeltools" bench run`)
	require.Contains(t, string(data), `add_benchmark(kwargs "`+filepath.Join(dir, "kwargs.bench")+`" "nickel;baseline" "1,2")`)
}

func TestBenchRun(t *testing.T) {
	dir := t.TempDir()
	benchFile := filepath.Join(dir, "kwargs.bench")
	require.NoError(t, os.WriteFile(benchFile, []byte("// kwargs: nickel\n// 1\nint main() {}\n"), 0o644))
	wd := filepath.Join(dir, "work")

	m := &fixedMeasurer{usage: procmeasure.Usage{UserTime: 300 * time.Millisecond, MaxRSS: 3000}}
	useMeasurer(t, m)
	useRecorder(t, &toolchaintest.Recorder{})

	res, err := runCLI(t, "bench", "run", "kwargs", "nickel", benchFile,
		"--ns", "1",
		"--cmake-binary-dir", filepath.Join(dir, "build"),
		"--workingdir", wd,
		"--generated-file", filepath.Join(dir, "bench.cpp"),
		"--build-target", "bench_compile",
		"--clean-target", "bench_clean",
		"--timeout", "5")
	require.NoError(t, err)

	var set bench.ResultSet
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &set))
	require.Equal(t, "kwargs", set.Name)
	require.Len(t, set.Results, 1)
	require.Equal(t, 20, set.Results[0].M)
	require.NotNil(t, set.Baseline)
	require.Equal(t, 5*time.Second, m.requests[0].Timeout)
	require.FileExists(t, filepath.Join(wd, resultstore.DefaultFileName))
}

func TestBenchMeasure(t *testing.T) {
	m := &fixedMeasurer{usage: procmeasure.Usage{UserTime: 1500 * time.Millisecond, MaxRSS: 2048}}
	useMeasurer(t, m)

	res, err := runCLI(t, "bench", "measure", "--timeout", "7", "--", "c++", "-c", "x.cpp")
	require.NoError(t, err)
	require.JSONEq(t, `{"time": 1.5, "memory": 2048}`, res.stdout)
	require.Len(t, m.requests, 1)
	require.Equal(t, []string{"c++", "-c", "x.cpp"}, m.requests[0].Args)
	require.Equal(t, 7*time.Second, m.requests[0].Timeout)
}

func TestBenchRunTargets(t *testing.T) {
	rec := &toolchaintest.Recorder{}
	useRecorder(t, rec)

	_, err := runCLI(t, "bench", "run-targets", "buildbench-a-x;buildbench-a-y",
		"--", "cmake", "--build", "build", "--target")
	require.NoError(t, err)
	require.Equal(t, [][]string{
		{"cmake", "--build", "build", "--target", "buildbench-a-x"},
		{"cmake", "--build", "build", "--target", "buildbench-a-y"},
	}, rec.Argvs())
}

func TestBenchVisualize(t *testing.T) {
	dir := t.TempDir()
	store, err := resultstore.Open(resultstore.KindFile, dir, "")
	require.NoError(t, err)
	require.NoError(t, store.Put(context.Background(), bench.ResultSet{
		Name:     "kwargs",
		Which:    "nickel",
		Results:  []bench.Sample{{M: 10, N: 1, Time: 0.5, Memory: 4096}},
		Baseline: &bench.Sample{M: 1, Time: 0.25, Memory: 1024},
	}))
	require.NoError(t, store.Close())
	path := resultstore.Path(resultstore.KindFile, dir, "")

	res, err := runCLI(t, "bench", "visualize", path, "--format", "markdown")
	require.NoError(t, err)
	require.Contains(t, res.stdout, "| 1 | 250.000 | 3.0 |")

	res, err = runCLI(t, "bench", "visualize", path, "--format", "benchfmt")
	require.NoError(t, err)
	require.Contains(t, res.stdout, "Benchmarkkwargs/nickel/n=1 10 0.5 sec/op 4096 B/op")
	require.Contains(t, res.stdout, "Benchmarkkwargs/nickel/n=baseline 1 0.25 sec/op 1024 B/op")
}

func TestStoreKind(t *testing.T) {
	require.Equal(t, resultstore.KindSQLite, storeKind("results.db"))
	require.Equal(t, resultstore.KindSQLite, storeKind("results.SQLITE"))
	require.Equal(t, resultstore.KindFile, storeKind("bench.results.json"))
}

func TestPassthrough(t *testing.T) {
	require.Equal(t, []string{"ls"}, passthrough([]string{"--", "ls"}))
	require.Equal(t, []string{"ls"}, passthrough([]string{"ls"}))
	require.Empty(t, passthrough(nil))
}

func TestVisualizeFormatEnum(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("nickeltools"), Vars())
	require.NoError(t, err)
	results := filepath.Join(t.TempDir(), "bench.results.json")
	require.NoError(t, os.WriteFile(results, []byte("{}"), 0o644))

	_, err = parser.Parse([]string{"bench", "visualize", results, "--format", "pickle"})
	require.Error(t, err)
	_, err = parser.Parse([]string{"bench", "visualize", results, "--format", "benchfmt"})
	require.NoError(t, err)
}

func TestOutputWriterCloseTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	w, closeOut, err := outputWriter(path, io.Discard)
	require.NoError(t, err)
	_, err = io.WriteString(w, "{}")
	require.NoError(t, err)

	require.NoError(t, closeOut())
	require.NoError(t, closeOut())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "{}", string(data))
}
