package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"github.com/quincunx271/nickeltools/cmd/nickeltools/commands"
	ferrors "github.com/quincunx271/nickeltools/internal/foundation/errors"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("nickeltools"),
		kong.Description("Tooling for the nickel C++ library: docs versions, packaging, compile-error tests and compile-time benchmarks."),
		kong.UsageOnError(),
		commands.Vars(),
	)
	if err := parser.Run(commands.NewGlobal(), cli); err != nil {
		ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
