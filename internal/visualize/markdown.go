package visualize

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/aclements/go-moremath/stats"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	ferrors "github.com/quincunx271/nickeltools/internal/foundation/errors"
)

var titler = cases.Title(language.English)

// Heading turns a benchmark name such as "named_args" into "Named Args".
func Heading(name string) string {
	return titler.String(strings.ReplaceAll(name, "_", " "))
}

// WriteMarkdown writes one table per benchmark: a row per N and, per
// configuration, the baseline-subtracted time and memory. The last row holds
// the mean over every N.
func WriteMarkdown(w io.Writer, benchmarks []Benchmark) error {
	var buf bytes.Buffer
	buf.WriteString("# Benchmark results\n")
	for _, b := range benchmarks {
		fmt.Fprintf(&buf, "\n## %s\n\n", Heading(b.Name))

		buf.WriteString("| N |")
		for _, s := range b.Series {
			fmt.Fprintf(&buf, " %s time (ms) | %s memory (KiB) |", s.Which, s.Which)
		}
		buf.WriteString("\n|---:|")
		for range b.Series {
			buf.WriteString("---:|---:|")
		}
		buf.WriteString("\n")

		for _, n := range b.xValues() {
			fmt.Fprintf(&buf, "| %d |", n)
			for _, s := range b.Series {
				p, ok := s.point(n)
				if !ok {
					buf.WriteString(" - | - |")
					continue
				}
				fmt.Fprintf(&buf, " %.3f | %.1f |", p.TimeMs, float64(p.Memory)/1024)
			}
			buf.WriteString("\n")
		}

		buf.WriteString("| mean |")
		for _, s := range b.Series {
			times, mems := s.values()
			if len(times) == 0 {
				buf.WriteString(" - | - |")
				continue
			}
			fmt.Fprintf(&buf, " %.3f | %.1f |", stats.Mean(times), stats.Mean(mems)/1024)
		}
		buf.WriteString("\n")
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return ferrors.FileSystemError("failed to write markdown").WithCause(err).Fatal().Build()
	}
	return nil
}

// WriteReport renders the Markdown tables to a standalone HTML document.
func WriteReport(w io.Writer, benchmarks []Benchmark) error {
	var md bytes.Buffer
	if err := WriteMarkdown(&md, benchmarks); err != nil {
		return err
	}
	var body bytes.Buffer
	gm := goldmark.New(goldmark.WithExtensions(extension.Table))
	if err := gm.Convert(md.Bytes(), &body); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to render report").Fatal().Build()
	}
	_, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html>\n<head><meta charset=\"utf-8\"><title>nickel benchmarks</title></head>\n<body>\n%s</body>\n</html>\n", body.String())
	if err != nil {
		return ferrors.FileSystemError("failed to write report").WithCause(err).Fatal().Build()
	}
	return nil
}

func (s Series) point(n int) (Point, bool) {
	for _, p := range s.Points {
		if p.N == n {
			return p, true
		}
	}
	return Point{}, false
}

func (s Series) values() (times, mems []float64) {
	for _, p := range s.Points {
		times = append(times, p.TimeMs)
		mems = append(mems, float64(p.Memory))
	}
	return times, mems
}
