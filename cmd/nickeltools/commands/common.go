package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/quincunx271/nickeltools/internal/config"
	"github.com/quincunx271/nickeltools/internal/procmeasure"
	"github.com/quincunx271/nickeltools/internal/toolchain"
	"github.com/quincunx271/nickeltools/internal/version"
	"github.com/quincunx271/nickeltools/internal/visualize"
)

// External processes are started through these; tests replace them.
var (
	toolchainRunner toolchain.Runner     = toolchain.ExecRunner{}
	measurer        procmeasure.Measurer = procmeasure.Rusage{}
)

// Vars are the values interpolated into the CLI struct tags.
func Vars() kong.Vars {
	formats := make([]string, len(visualize.Formats))
	for i, f := range visualize.Formats {
		formats[i] = string(f)
	}
	return kong.Vars{
		"version": version.String(),
		"formats": strings.Join(formats, ","),
	}
}

// Global carries process-wide state shared by every command.
type Global struct {
	Logger *slog.Logger
	Stdout io.Writer
	Stderr io.Writer
}

// NewGlobal returns a Global bound to the process streams.
func NewGlobal() *Global {
	return &Global{Logger: slog.Default(), Stdout: os.Stdout, Stderr: os.Stderr}
}

// CLI definition & global flags.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path" default:"nickeltools.yaml" type:"path"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" help:"Log output format (text, json); overrides the config file" enum:",text,json" default:""`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Init         InitCmd         `cmd:"" help:"Write an example configuration file"`
	Versions     VersionsCmd     `cmd:"" help:"Regenerate the documentation version selector and root redirect"`
	CompileError CompileErrorCmd `cmd:"" name:"compile-error" help:"Build a target that must fail to compile and check its diagnostics"`
	Package      PackageCmd      `cmd:"" help:"Conan packaging steps"`
	Bench        BenchCmd        `cmd:"" help:"Compile-time benchmarks"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	c.installLogger(config.LoggingConfig{})
	return nil
}

func (c *CLI) installLogger(lc config.LoggingConfig) {
	if c.LogFormat != "" {
		lc.Format = config.NormalizeLogFormat(c.LogFormat)
	}
	slog.SetDefault(lc.NewLogger(os.Stderr, c.Verbose))
}

// LoadConfig loads the configuration file and applies its logging section.
func (c *CLI) LoadConfig(g *Global) (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	c.installLogger(cfg.Logging)
	g.Logger = slog.Default()
	return cfg, nil
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// outputWriter returns path opened for writing, or fallback when path is empty.
// The returned close func may be called more than once.
func outputWriter(path string, fallback io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return fallback, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, sync.OnceValue(f.Close), nil
}
