package toolchain

import (
	"context"
	"io"
	"sort"
	"strconv"
)

// CMake builds cmake command lines. Binary defaults to "cmake".
type CMake struct {
	Binary string
	Runner Runner
}

func (c CMake) binary() string {
	if c.Binary == "" {
		return "cmake"
	}
	return c.Binary
}

func (c CMake) runner() Runner {
	if c.Runner == nil {
		return ExecRunner{}
	}
	return c.Runner
}

// BuildOptions selects what `cmake --build` builds.
type BuildOptions struct {
	BinaryDir string
	Target    string
	Config    string
	Jobs      int
}

// BuildArgs returns the argv for `cmake --build`.
func (c CMake) BuildArgs(opts BuildOptions) []string {
	args := []string{c.binary(), "--build", opts.BinaryDir}
	if opts.Config != "" {
		args = append(args, "--config", opts.Config)
	}
	if opts.Jobs > 0 {
		args = append(args, "-j", strconv.Itoa(opts.Jobs))
	}
	if opts.Target != "" {
		args = append(args, "--target", opts.Target)
	}
	return args
}

// Build runs `cmake --build`.
func (c CMake) Build(ctx context.Context, opts BuildOptions, stdout, stderr io.Writer) error {
	return c.runner().Run(ctx, Command{Args: c.BuildArgs(opts), Stdout: stdout, Stderr: stderr})
}

// ConfigureArgs returns the argv for a configure step with sorted -D definitions.
func (c CMake) ConfigureArgs(sourceDir, buildDir string, defs map[string]string) []string {
	args := []string{c.binary(), "-S", sourceDir, "-B", buildDir}
	keys := make([]string, 0, len(defs))
	for k := range defs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-D"+k+"="+defs[k])
	}
	return args
}

// Configure runs the configure step.
func (c CMake) Configure(ctx context.Context, sourceDir, buildDir string, defs map[string]string, stdout, stderr io.Writer) error {
	return c.runner().Run(ctx, Command{Args: c.ConfigureArgs(sourceDir, buildDir, defs), Stdout: stdout, Stderr: stderr})
}

// Install runs `cmake --install`.
func (c CMake) Install(ctx context.Context, buildDir, prefix string, stdout, stderr io.Writer) error {
	args := []string{c.binary(), "--install", buildDir}
	if prefix != "" {
		args = append(args, "--prefix", prefix)
	}
	return c.runner().Run(ctx, Command{Args: args, Stdout: stdout, Stderr: stderr})
}
