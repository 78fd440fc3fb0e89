//go:build unix

// Package procmeasure runs a process to completion and reports the CPU time and
// peak memory it (and every descendant it waited for) consumed.
package procmeasure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"syscall"
	"time"

	ferrors "github.com/quincunx271/nickeltools/internal/foundation/errors"
	"github.com/quincunx271/nickeltools/internal/logfields"
	"github.com/quincunx271/nickeltools/internal/toolchain"
)

// Usage is the resource accounting of one finished process tree.
type Usage struct {
	UserTime time.Duration
	MaxRSS   int64 // bytes
	Wall     time.Duration
}

// Seconds returns the user CPU time in seconds.
func (u Usage) Seconds() float64 { return u.UserTime.Seconds() }

// Request describes a measured invocation.
type Request struct {
	Args    []string
	Dir     string
	Timeout time.Duration // zero disables the timeout
	Stdout  io.Writer
	Stderr  io.Writer
}

// Measurer measures a process run.
type Measurer interface {
	Measure(ctx context.Context, req Request) (Usage, error)
}

// Rusage measures through wait4 accounting.
type Rusage struct{}

// Measure runs req and returns its usage. On timeout the whole process group
// is killed and a timeout error is returned.
func (Rusage) Measure(ctx context.Context, req Request) (Usage, error) {
	if len(req.Args) == 0 {
		return Usage{}, ferrors.InternalError("empty command").Build()
	}
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, req.Args[0], req.Args[1:]...)
	cmd.Dir = req.Dir
	cmd.Stdout = req.Stdout
	cmd.Stderr = req.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		// Negative pid signals the whole group, so compiler children die too.
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}

	start := time.Now()
	err := cmd.Run()
	wall := time.Since(start)

	if ctx.Err() != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return Usage{}, ferrors.TimeoutError("command timed out").
			WithContext("command", toolchain.Command{Args: req.Args}.String()).
			WithContext("timeout", req.Timeout.String()).
			Build()
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			err = &toolchain.ExitError{Args: req.Args, Code: exitErr.ExitCode()}
		}
		return Usage{}, ferrors.WrapError(err, ferrors.CategoryToolchain, "measured command failed").
			Fatal().
			WithContext("command", toolchain.Command{Args: req.Args}.String()).
			Build()
	}

	usage := Usage{Wall: wall}
	if ru, ok := cmd.ProcessState.SysUsage().(*syscall.Rusage); ok {
		usage.UserTime = time.Duration(ru.Utime.Nano())
		usage.MaxRSS = int64(ru.Maxrss) * maxRSSUnit
	}
	slog.Debug("Measured command",
		logfields.Command(req.Args),
		logfields.Duration(wall),
		slog.Float64("user_seconds", usage.Seconds()),
		slog.Int64("max_rss_bytes", usage.MaxRSS))
	return usage, nil
}
