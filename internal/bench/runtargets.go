package bench

import (
	"context"
	"io"
	"log/slog"
	"strings"

	ferrors "github.com/quincunx271/nickeltools/internal/foundation/errors"
	"github.com/quincunx271/nickeltools/internal/logfields"
	"github.com/quincunx271/nickeltools/internal/toolchain"
)

// SplitTargets splits a CMake list ("a;b;c") into its non-empty elements.
func SplitTargets(list string) []string {
	var targets []string
	for _, t := range strings.Split(list, ";") {
		if t = strings.TrimSpace(t); t != "" {
			targets = append(targets, t)
		}
	}
	return targets
}

// RunTargets runs `prefix... <target>` for every target in order, stopping at
// the first failure.
func RunTargets(ctx context.Context, r toolchain.Runner, targets, prefix []string, stdout, stderr io.Writer) error {
	if len(prefix) == 0 {
		return ferrors.ValidationError("a build command is required").Build()
	}
	for _, t := range targets {
		args := append(append([]string(nil), prefix...), t)
		slog.Info("Building benchmark target", logfields.Target(t))
		if err := r.Run(ctx, toolchain.Command{Args: args, Stdout: stdout, Stderr: stderr}); err != nil {
			return err
		}
	}
	return nil
}
