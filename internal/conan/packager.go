package conan

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	ferrors "github.com/quincunx271/nickeltools/internal/foundation/errors"
	"github.com/quincunx271/nickeltools/internal/logfields"
	"github.com/quincunx271/nickeltools/internal/toolchain"
	"github.com/quincunx271/nickeltools/internal/workspace"
)

// Dirs are the directories a package build works with.
type Dirs struct {
	Source  string
	Build   string
	Package string
}

// Packager performs the recipe's build, package and test steps with CMake.
type Packager struct {
	CMake  toolchain.CMake
	Runner toolchain.Runner
	Stdout io.Writer
	Stderr io.Writer
}

// NewPackager returns a Packager using the process streams.
func NewPackager(cmakeBinary string, r toolchain.Runner) *Packager {
	if r == nil {
		r = toolchain.ExecRunner{}
	}
	return &Packager{
		CMake:  toolchain.CMake{Binary: cmakeBinary, Runner: r},
		Runner: r,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

func (p *Packager) configure(ctx context.Context, d Dirs) error {
	defs := map[string]string{"BUILD_TESTING": "OFF"}
	if d.Package != "" {
		defs["CMAKE_INSTALL_PREFIX"] = d.Package
	}
	return p.CMake.Configure(ctx, d.Source, d.Build, defs, p.Stdout, p.Stderr)
}

// Build configures without tests and builds.
func (p *Packager) Build(ctx context.Context, d Dirs) error {
	slog.Info("Building package", logfields.Path(d.Source), slog.String("build_dir", d.Build))
	if err := p.configure(ctx, d); err != nil {
		return err
	}
	return p.CMake.Build(ctx, toolchain.BuildOptions{BinaryDir: d.Build}, p.Stdout, p.Stderr)
}

// Package installs into d.Package and copies the license to licenses/.
func (p *Packager) Package(ctx context.Context, d Dirs) error {
	if d.Package == "" {
		return ferrors.ValidationError("package directory is required").Build()
	}
	slog.Info("Packaging", slog.String("package_dir", d.Package))
	if err := p.configure(ctx, d); err != nil {
		return err
	}
	if err := p.CMake.Install(ctx, d.Build, d.Package, p.Stdout, p.Stderr); err != nil {
		return err
	}
	return copyLicense(d.Source, d.Package)
}

func copyLicense(sourceDir, packageDir string) error {
	src := filepath.Join(sourceDir, "LICENSE.txt")
	data, err := os.ReadFile(src)
	if err != nil {
		return ferrors.NotFoundError("failed to read license").WithCause(err).
			WithContext("path", src).Build()
	}
	licenses := filepath.Join(packageDir, "licenses")
	if err := os.MkdirAll(licenses, 0o755); err != nil {
		return ferrors.FileSystemError("failed to create licenses directory").WithCause(err).Fatal().Build()
	}
	dst := filepath.Join(licenses, "LICENSE.txt")
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return ferrors.FileSystemError("failed to copy license").WithCause(err).
			Fatal().WithContext("path", dst).Build()
	}
	return nil
}

// Test builds the consumer project in testDir and runs ./test_package. An
// empty buildDir uses a temporary workspace that is removed afterwards.
func (p *Packager) Test(ctx context.Context, testDir, buildDir string, defs map[string]string) error {
	ws := workspace.NewManager("", "test_package")
	if buildDir != "" {
		ws = workspace.NewPersistentManager(buildDir)
	}
	if err := ws.Create(); err != nil {
		return ferrors.FileSystemError("failed to create test build directory").WithCause(err).Fatal().Build()
	}
	defer func() {
		if err := ws.Cleanup(); err != nil {
			slog.Warn("Failed to cleanup workspace", logfields.Error(err))
		}
	}()

	dir := ws.Path()
	if err := p.CMake.Configure(ctx, testDir, dir, defs, p.Stdout, p.Stderr); err != nil {
		return err
	}
	if err := p.CMake.Build(ctx, toolchain.BuildOptions{BinaryDir: dir}, p.Stdout, p.Stderr); err != nil {
		return err
	}
	return p.Runner.Run(ctx, toolchain.Command{
		Args:   []string{"./test_package"},
		Dir:    dir,
		Stdout: p.Stdout,
		Stderr: p.Stderr,
	})
}
