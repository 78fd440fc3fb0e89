// Package toolchaintest provides a scripted toolchain.Runner for tests.
package toolchaintest

import (
	"context"
	"io"
	"sync"

	"github.com/quincunx271/nickeltools/internal/toolchain"
)

// Response scripts the outcome of one command.
type Response struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Err      error // returned as-is when set, before ExitCode is considered
}

// Recorder records every command and replies with scripted responses.
// Responses are matched by Match in order; unmatched commands succeed silently.
type Recorder struct {
	mu       sync.Mutex
	Commands []toolchain.Command
	Match    func(cmd toolchain.Command) (Response, bool)
}

// Run implements toolchain.Runner.
func (r *Recorder) Run(_ context.Context, cmd toolchain.Command) error {
	r.mu.Lock()
	r.Commands = append(r.Commands, cmd)
	r.mu.Unlock()

	var resp Response
	if r.Match != nil {
		resp, _ = r.Match(cmd)
	}
	if resp.Stdout != "" && cmd.Stdout != nil {
		_, _ = io.WriteString(cmd.Stdout, resp.Stdout)
	}
	if resp.Stderr != "" && cmd.Stderr != nil {
		_, _ = io.WriteString(cmd.Stderr, resp.Stderr)
	}
	if resp.Err != nil {
		return resp.Err
	}
	if resp.ExitCode != 0 {
		return &toolchain.ExitError{Args: cmd.Args, Code: resp.ExitCode}
	}
	return nil
}

// Argvs returns the recorded argument vectors.
func (r *Recorder) Argvs() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]string, len(r.Commands))
	for i, c := range r.Commands {
		out[i] = c.Args
	}
	return out
}
