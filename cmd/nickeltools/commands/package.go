package commands

import (
	"context"
	"encoding/json"

	"github.com/quincunx271/nickeltools/internal/conan"
	"github.com/quincunx271/nickeltools/internal/config"
	"github.com/quincunx271/nickeltools/internal/logfields"
)

// PackageCmd groups the Conan recipe steps.
type PackageCmd struct {
	Info  PackageInfoCmd  `cmd:"" help:"Print the recipe metadata derived from CMakeLists.txt"`
	Build PackageBuildCmd `cmd:"" help:"Configure and build without tests, then install into the package directory"`
	Test  PackageTestCmd  `cmd:"" help:"Build and run the consumer test package"`
	CI    PackageCICmd    `cmd:"" name:"ci" help:"Create and optionally upload the package, configured through CONAN_* variables"`
}

// PackageInfoCmd implements 'package info'.
type PackageInfoCmd struct {
	SourceDir string `name:"source-dir" help:"Project root" default:"." type:"existingdir"`
}

func (p *PackageInfoCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	recipe, err := conan.LoadRecipe(p.SourceDir, cfg.Package)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(g.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(recipe)
}

// PackageBuildCmd implements 'package build'.
type PackageBuildCmd struct {
	CMake      string `name:"cmake" help:"CMake executable" default:"cmake"`
	SourceDir  string `name:"source-dir" help:"Project root" default:"." type:"existingdir"`
	BuildDir   string `name:"build-dir" help:"Build directory" default:"build" type:"path"`
	PackageDir string `name:"package-dir" help:"Install prefix; when empty only the build step runs" type:"path"`
}

func (p *PackageBuildCmd) Run(g *Global, root *CLI) error {
	if _, err := root.LoadConfig(g); err != nil {
		return err
	}
	packager := conan.NewPackager(p.CMake, toolchainRunner)
	packager.Stdout, packager.Stderr = g.Stdout, g.Stderr

	dirs := conan.Dirs{Source: p.SourceDir, Build: p.BuildDir, Package: p.PackageDir}
	ctx, cancel := signalContext()
	defer cancel()
	if err := packager.Build(ctx, dirs); err != nil {
		return err
	}
	if p.PackageDir == "" {
		return nil
	}
	return packager.Package(ctx, dirs)
}

// PackageTestCmd implements 'package test'.
type PackageTestCmd struct {
	CMake    string            `name:"cmake" help:"CMake executable" default:"cmake"`
	TestDir  string            `name:"test-dir" help:"Consumer test project (defaults to package.test_folder)" type:"path"`
	BuildDir string            `name:"build-dir" help:"Build directory to keep; a temporary one is used when empty" type:"path"`
	Define   map[string]string `short:"D" help:"CMake cache entries for the test project, e.g. -D CMAKE_PREFIX_PATH=/pkg"`
}

func (p *PackageTestCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	testDir := p.TestDir
	if testDir == "" {
		testDir = cfg.Package.TestFolder
	}
	packager := conan.NewPackager(p.CMake, toolchainRunner)
	packager.Stdout, packager.Stderr = g.Stdout, g.Stderr

	ctx, cancel := signalContext()
	defer cancel()
	return packager.Test(ctx, testDir, p.BuildDir, p.Define)
}

// PackageCICmd implements 'package ci'.
type PackageCICmd struct {
	Conan     string `name:"conan" help:"Conan executable" default:"conan"`
	SourceDir string `name:"source-dir" help:"Project root" default:"." type:"existingdir"`
}

func (p *PackageCICmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	settings, err := conan.CIFromEnv(config.Environ(), cfg.Package)
	if err != nil {
		return err
	}
	g.Logger.Info("Packaging for CI", logfields.Reference(settings.Reference()))

	ci := conan.NewCI(p.Conan, toolchainRunner)
	ci.Stdout, ci.Stderr = g.Stdout, g.Stderr
	return ci.Run(context.Background(), p.SourceDir, settings)
}
