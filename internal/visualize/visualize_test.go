package visualize

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quincunx271/nickeltools/internal/bench"
	ferrors "github.com/quincunx271/nickeltools/internal/foundation/errors"
)

func sampleResults() bench.Results {
	res := bench.Results{}
	res.Put(bench.ResultSet{
		Name:     "named_args",
		Which:    "nickel",
		RunID:    "r1",
		Baseline: &bench.Sample{M: 1, Time: 0.125, Memory: 1024},
		Results: []bench.Sample{
			{M: 16, N: 1, Time: 0.25, Memory: 2048},
			{M: 10, N: 5, Time: 0.5, Memory: 3072},
		},
	})
	res.Put(bench.ResultSet{
		Name:     "named_args",
		Which:    "std",
		RunID:    "r2",
		Baseline: &bench.Sample{M: 1, Time: 0.125, Memory: 1024},
		Results:  []bench.Sample{{M: 20, N: 1, Time: 0.375, Memory: 1536}},
	})
	return res
}

func TestPrepare(t *testing.T) {
	benchmarks, err := Prepare(sampleResults())
	require.NoError(t, err)
	require.Len(t, benchmarks, 1)
	b := benchmarks[0]
	require.Equal(t, "named_args", b.Name)
	require.Len(t, b.Series, 2)
	require.Equal(t, "nickel", b.Series[0].Which)
	require.InDelta(t, 125.0, b.Series[0].Points[0].TimeMs, 1e-9)
	require.Equal(t, int64(1024), b.Series[0].Points[0].Memory)
	require.Equal(t, []int{1, 5}, b.xValues())
}

func TestPrepareRequiresBaseline(t *testing.T) {
	res := sampleResults()
	res.Put(bench.ResultSet{Name: "overloads", Which: "nickel", Results: []bench.Sample{{M: 10, N: 1}}})

	_, err := Prepare(res)
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))

	var buf bytes.Buffer
	require.Error(t, Render(&buf, FormatChart, res))
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatMarkdown, sampleResults()))
	require.Equal(t, `# Benchmark results

## Named Args

| N | nickel time (ms) | nickel memory (KiB) | std time (ms) | std memory (KiB) |
|---:|---:|---:|---:|---:|
| 1 | 125.000 | 1.0 | 250.000 | 0.5 |
| 5 | 375.000 | 2.0 | - | - |
| mean | 250.000 | 1.5 | 250.000 | 0.5 |
`, buf.String())
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatReport, sampleResults()))
	html := buf.String()
	require.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	require.Contains(t, html, "<h2>Named Args</h2>")
	require.Contains(t, html, "<table>")
	require.Contains(t, html, "375.000")
}

func TestWriteChart(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatChart, sampleResults()))
	html := buf.String()
	require.Contains(t, html, "named_args compile time")
	require.Contains(t, html, "named_args memory")
	require.Contains(t, html, "echarts")
}

func TestWriteBenchfmt(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatBenchfmt, sampleResults()))
	out := buf.String()
	require.Contains(t, out, "pkg: nickel\n")
	require.Contains(t, out, "run: r1\n")
	require.Contains(t, out, "Benchmarknamed_args/nickel/n=1 16 0.25 sec/op 2048 B/op\n")
	require.Contains(t, out, "Benchmarknamed_args/nickel/n=baseline 1 0.125 sec/op 1024 B/op\n")
	require.Contains(t, out, "Benchmarknamed_args/std/n=1 20 0.375 sec/op 1536 B/op\n")
}

func TestRenderUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, Format("svg"), sampleResults())
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
}

func TestHeading(t *testing.T) {
	require.Equal(t, "Named Args", Heading("named_args"))
	require.Equal(t, "Overloads", Heading("overloads"))
}

func TestHandler(t *testing.T) {
	srv := httptest.NewServer(Handler(func(context.Context) (bench.Results, error) {
		return sampleResults(), nil
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	resp2, err := http.Get(srv.URL + "/markdown")
	require.NoError(t, err)
	defer func() { _ = resp2.Body.Close() }()
	require.Equal(t, http.StatusOK, resp2.StatusCode)
}

func TestHandlerMissingBaseline(t *testing.T) {
	srv := httptest.NewServer(Handler(func(context.Context) (bench.Results, error) {
		res := bench.Results{}
		res.Put(bench.ResultSet{Name: "a", Which: "b"})
		return res, nil
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}
