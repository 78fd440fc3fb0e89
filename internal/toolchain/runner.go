package toolchain

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"

	ferrors "github.com/quincunx271/nickeltools/internal/foundation/errors"
	"github.com/quincunx271/nickeltools/internal/logfields"
)

// Command is a single external process invocation.
type Command struct {
	Args   []string // Args[0] is the program
	Dir    string
	Env    []string // appended to the current environment
	Stdout io.Writer
	Stderr io.Writer
}

// String renders the command the way the helpers echo it: each part single-quoted.
func (c Command) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = "'" + a + "'"
	}
	return strings.Join(parts, " ")
}

// Runner executes commands. A non-zero exit is reported as an error for which
// ExitCode returns the status.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, c Command) error {
	if len(c.Args) == 0 {
		return ferrors.InternalError("empty command").Build()
	}
	cmd := exec.CommandContext(ctx, c.Args[0], c.Args[1:]...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(cmd.Environ(), c.Env...)
	}
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr

	slog.Debug("Running external command", logfields.Command(c.Args), logfields.Path(c.Dir))
	if err := cmd.Run(); err != nil {
		return commandError(c, err)
	}
	return nil
}

// ExitError carries the exit status of a command that ran but failed.
type ExitError struct {
	Args []string
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Args[0], e.Code)
}

func commandError(c Command, err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		err = &ExitError{Args: c.Args, Code: exitErr.ExitCode()}
	}
	return ferrors.WrapError(err, ferrors.CategoryToolchain, "external command failed").
		Fatal().
		WithContext("command", c.String()).
		Build()
}

// ExitCode extracts the exit status from an error returned by a Runner.
// ok is false when the command never produced an exit status.
func ExitCode(err error) (code int, ok bool) {
	if err == nil {
		return 0, true
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return -1, false
}
