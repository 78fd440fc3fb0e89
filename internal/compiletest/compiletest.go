// Package compiletest checks that a build target fails to compile the way a
// source file says it should.
//
// Expectations live in the source file as line comments:
//
//	// ERROR_MATCHES: do_something
//	// ERROR_NOT_MATCHES: ambiguous
//
// Every ERROR_MATCHES regex must match the combined build output and no
// ERROR_NOT_MATCHES regex may. A file without expectations only requires the
// build to fail.
package compiletest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"

	ferrors "github.com/quincunx271/nickeltools/internal/foundation/errors"
	"github.com/quincunx271/nickeltools/internal/logfields"
	"github.com/quincunx271/nickeltools/internal/toolchain"
)

var (
	matchesRe    = regexp.MustCompile(`(?m)// ERROR_MATCHES: (.*)$`)
	notMatchesRe = regexp.MustCompile(`(?m)// ERROR_NOT_MATCHES: (.*)$`)
)

// Expectations are the regexes embedded in a source file.
type Expectations struct {
	Matches    []*regexp.Regexp
	NotMatches []*regexp.Regexp
}

// Empty reports whether the file declared no expectations at all.
func (e Expectations) Empty() bool {
	return len(e.Matches) == 0 && len(e.NotMatches) == 0
}

// ParseExpectations extracts ERROR_MATCHES / ERROR_NOT_MATCHES regexes from source.
func ParseExpectations(source string) (Expectations, error) {
	var exp Expectations
	var err error
	if exp.Matches, err = compileAll(matchesRe, source); err != nil {
		return Expectations{}, err
	}
	if exp.NotMatches, err = compileAll(notMatchesRe, source); err != nil {
		return Expectations{}, err
	}
	return exp, nil
}

func compileAll(marker *regexp.Regexp, source string) ([]*regexp.Regexp, error) {
	var out []*regexp.Regexp
	for _, m := range marker.FindAllStringSubmatch(source, -1) {
		expr := m[1]
		if len(expr) > 0 && expr[len(expr)-1] == '\r' {
			expr = expr[:len(expr)-1]
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryValidation, "invalid expectation regex").
				Fatal().WithContext("regex", fmt.Sprintf("%q", expr)).Build()
		}
		out = append(out, re)
	}
	return out, nil
}

// Options names the target to build and the file holding the expectations.
type Options struct {
	CMake     string
	Config    string
	BinaryDir string
	Target    string
	File      string
}

// Checker runs the build and evaluates the expectations.
type Checker struct {
	Runner toolchain.Runner
	Stdout io.Writer // receives the echoed command line
	Stderr io.Writer // receives diagnostics on failure
}

// NewChecker returns a Checker writing to the process streams.
func NewChecker(r toolchain.Runner) *Checker {
	if r == nil {
		r = toolchain.ExecRunner{}
	}
	return &Checker{Runner: r, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Check builds the target and fails with a test_failure error when the output
// does not meet the expectations in opts.File.
func (c *Checker) Check(ctx context.Context, opts Options) error {
	source, err := os.ReadFile(opts.File)
	if err != nil {
		return ferrors.NotFoundError("failed to read source file").WithCause(err).
			WithContext("path", opts.File).Build()
	}
	exp, err := ParseExpectations(string(source))
	if err != nil {
		return err
	}

	cmake := toolchain.CMake{Binary: opts.CMake}
	cmd := toolchain.Command{Args: cmake.BuildArgs(toolchain.BuildOptions{
		BinaryDir: opts.BinaryDir,
		Config:    opts.Config,
		Target:    opts.Target,
	})}
	fmt.Fprintln(c.Stdout, cmd.String())

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	runErr := c.Runner.Run(ctx, cmd)
	exitCode, exited := toolchain.ExitCode(runErr)
	if !exited {
		// The build tool never ran; that is not a compile failure.
		return runErr
	}
	out := output.String()
	slog.Debug("Compile-error build finished", logfields.Target(opts.Target), slog.Int("exit_code", exitCode))

	for _, re := range exp.Matches {
		if !re.MatchString(out) {
			fmt.Fprintf(c.Stderr, "Output did not match when it should have.\nRegular Expression: %s\nStderr:\n%s", re, out)
			return ferrors.TestFailure("output did not match expected regex").
				WithContext("regex", re.String()).WithContext("file", opts.File).Build()
		}
	}
	for _, re := range exp.NotMatches {
		if loc := re.FindStringIndex(out); loc != nil {
			m := out[loc[0]:loc[1]]
			fmt.Fprintf(c.Stderr, "Output matched when it should NOT have.\nRegular Expression: %s\nMatch: %s\nStderr:\n%s", re, m, out)
			return ferrors.TestFailure("output matched forbidden regex").
				WithContext("regex", re.String()).WithContext("match", m).WithContext("file", opts.File).Build()
		}
	}

	if exp.Empty() && exitCode == 0 {
		fmt.Fprintln(c.Stderr, "Expected compile failure, but compile succeeded.")
		return ferrors.TestFailure("Expected compile failure, but compile succeeded").
			WithContext("target", opts.Target).Build()
	}
	return nil
}
