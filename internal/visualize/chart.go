package visualize

import (
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	ferrors "github.com/quincunx271/nickeltools/internal/foundation/errors"
)

// NewPage builds a page with a time chart and a memory chart per benchmark.
func NewPage(benchmarks []Benchmark) *components.Page {
	page := components.NewPage()
	page.PageTitle = "nickel benchmarks"
	for _, b := range benchmarks {
		page.AddCharts(
			lineChart(b, b.Name+" compile time", "Time (ms)", func(p Point) float64 { return p.TimeMs }),
			lineChart(b, b.Name+" memory", "Memory (bytes)", func(p Point) float64 { return float64(p.Memory) }),
		)
	}
	return page
}

func lineChart(b Benchmark, title, yName string, value func(Point) float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Name: "N"}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName}),
		charts.WithLegendOpts(opts.Legend{Show: true}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
	)

	ns := b.xValues()
	labels := make([]string, len(ns))
	index := make(map[int]int, len(ns))
	for i, n := range ns {
		labels[i] = strconv.Itoa(n)
		index[n] = i
	}
	line.SetXAxis(labels)

	for _, s := range b.Series {
		data := make([]opts.LineData, len(ns))
		for i := range data {
			data[i] = opts.LineData{Value: "-"}
		}
		for _, p := range s.Points {
			data[index[p.N]] = opts.LineData{Value: value(p)}
		}
		line.AddSeries(s.Which, data)
	}
	return line
}

// WriteChart renders the chart page as HTML.
func WriteChart(w io.Writer, benchmarks []Benchmark) error {
	if err := NewPage(benchmarks).Render(w); err != nil {
		return ferrors.FileSystemError("failed to render chart page").WithCause(err).Fatal().Build()
	}
	return nil
}
