package commands

import (
	"context"

	"github.com/quincunx271/nickeltools/internal/compiletest"
)

// CompileErrorCmd implements the 'compile-error' command, invoked by CTest for
// every tests/compile_error/*.test.cpp case.
type CompileErrorCmd struct {
	CMake       string `name:"cmake" required:"" help:"CMake executable (CMAKE_COMMAND)"`
	BuildConfig string `name:"build-config" required:"" help:"The build configuration (Debug, Release, ...)"`
	BinaryDir   string `name:"binary-dir" aliases:"binary_dir" required:"" help:"Top-level build directory (CMAKE_BINARY_DIR)"`
	Target      string `name:"target" required:"" help:"The CMake target to build"`
	File        string `name:"file" required:"" help:"The source file holding the expectations" type:"existingfile"`
}

func (c *CompileErrorCmd) Run(g *Global, _ *CLI) error {
	checker := compiletest.NewChecker(toolchainRunner)
	checker.Stdout = g.Stdout
	checker.Stderr = g.Stderr
	return checker.Check(context.Background(), compiletest.Options{
		CMake:     c.CMake,
		Config:    c.BuildConfig,
		BinaryDir: c.BinaryDir,
		Target:    c.Target,
		File:      c.File,
	})
}
