package visualize

import (
	"fmt"
	"io"

	"golang.org/x/perf/benchfmt"

	"github.com/quincunx271/nickeltools/internal/bench"
	ferrors "github.com/quincunx271/nickeltools/internal/foundation/errors"
)

// WriteBenchfmt writes every sample in the Go benchmark format so that runs
// can be compared with benchstat. Values are per repetition and not
// baseline-subtracted; the baseline itself is emitted as n=baseline.
func WriteBenchfmt(w io.Writer, results bench.Results) error {
	bw := benchfmt.NewWriter(w)
	for _, name := range results.Names() {
		for _, which := range results.Whichs(name) {
			set, _ := results.Get(name, which)
			write := func(label string, s bench.Sample) error {
				res := &benchfmt.Result{
					Config: []benchfmt.Config{{Key: "pkg", Value: []byte("nickel"), File: true}},
					Name:   benchfmt.Name(fmt.Sprintf("%s/%s/n=%s", name, which, label)),
					Iters:  s.M,
					Values: []benchfmt.Value{
						{Value: s.Time, Unit: "sec/op"},
						{Value: float64(s.Memory), Unit: "B/op"},
					},
				}
				if set.RunID != "" {
					res.Config = append(res.Config, benchfmt.Config{Key: "run", Value: []byte(set.RunID), File: true})
				}
				return bw.Write(res)
			}
			for _, s := range set.Results {
				if err := write(fmt.Sprint(s.N), s); err != nil {
					return ferrors.FileSystemError("failed to write benchmark line").WithCause(err).Fatal().Build()
				}
			}
			if set.Baseline != nil {
				if err := write("baseline", *set.Baseline); err != nil {
					return ferrors.FileSystemError("failed to write benchmark line").WithCause(err).Fatal().Build()
				}
			}
		}
	}
	return nil
}
