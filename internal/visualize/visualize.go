// Package visualize turns stored benchmark results into charts, tables and
// Go benchmark format output.
package visualize

import (
	"io"
	"sort"

	"github.com/quincunx271/nickeltools/internal/bench"
	ferrors "github.com/quincunx271/nickeltools/internal/foundation/errors"
)

// Format selects the output of Render.
type Format string

const (
	FormatChart    Format = "chart"
	FormatMarkdown Format = "markdown"
	FormatReport   Format = "report"
	FormatBenchfmt Format = "benchfmt"
)

// Formats lists every supported format.
var Formats = []Format{FormatChart, FormatMarkdown, FormatReport, FormatBenchfmt}

// Point is one sample relative to its configuration's baseline.
type Point struct {
	N      int
	TimeMs float64 // (time - baseline.time) * 1e3
	Memory int64   // memory - baseline.memory, bytes
	Sample bench.Sample
}

// Series is the points of one configuration, in recorded order.
type Series struct {
	Which  string
	Points []Point
}

// Benchmark groups the series of one benchmark by configuration.
type Benchmark struct {
	Name   string
	Series []Series
}

// Prepare subtracts each result set's baseline from its samples. Every result
// set must carry a baseline.
func Prepare(results bench.Results) ([]Benchmark, error) {
	var out []Benchmark
	for _, name := range results.Names() {
		b := Benchmark{Name: name}
		for _, which := range results.Whichs(name) {
			set, _ := results.Get(name, which)
			if set.Baseline == nil {
				return nil, ferrors.ValidationError("result set has no baseline").
					WithContext("benchmark", name).WithContext("which", which).Build()
			}
			s := Series{Which: which}
			for _, sample := range set.Results {
				s.Points = append(s.Points, Point{
					N:      sample.N,
					TimeMs: (sample.Time - set.Baseline.Time) * 1e3,
					Memory: sample.Memory - set.Baseline.Memory,
					Sample: sample,
				})
			}
			b.Series = append(b.Series, s)
		}
		out = append(out, b)
	}
	return out, nil
}

// Render writes results to w in the given format.
func Render(w io.Writer, format Format, results bench.Results) error {
	benchmarks, err := Prepare(results)
	if err != nil {
		return err
	}
	switch format {
	case FormatChart, "":
		return WriteChart(w, benchmarks)
	case FormatMarkdown:
		return WriteMarkdown(w, benchmarks)
	case FormatReport:
		return WriteReport(w, benchmarks)
	case FormatBenchfmt:
		return WriteBenchfmt(w, results)
	default:
		return ferrors.ValidationError("unknown output format").WithContext("format", string(format)).Build()
	}
}

// xValues returns the sorted union of N across every series of b.
func (b Benchmark) xValues() []int {
	seen := map[int]bool{}
	var ns []int
	for _, s := range b.Series {
		for _, p := range s.Points {
			if !seen[p.N] {
				seen[p.N] = true
				ns = append(ns, p.N)
			}
		}
	}
	sort.Ints(ns)
	return ns
}
