package bench

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	ferrors "github.com/quincunx271/nickeltools/internal/foundation/errors"
	"github.com/quincunx271/nickeltools/internal/logfields"
)

// BenchExtension is the file extension of benchmark descriptors.
const BenchExtension = ".bench"

// GenerateOptions configures the generated CMake code.
type GenerateOptions struct {
	// Executable is the nickeltools binary the custom targets invoke.
	Executable string
	// Timeout is passed to every `bench run` invocation when non-zero.
	Timeout int
}

// The prologue defines add_benchmark(name benchf WHICHS NS). Every which gets a
// buildbench-<name>-<which> target running `bench run`; buildbench-<name> runs
// them all one by one through `bench run-targets`.
var prologue = template.Must(template.New("prologue").Parse(`function(add_benchmark name benchf WHICHS NS)
    add_custom_target(buildbench-${name}
        COMMAND
            "{{.Executable}}" bench run-targets
            "$<TARGET_PROPERTY:buildbench-${name},BUILDBENCH_BENCHMARKS>"
            -- ${CMAKE_COMMAND} --build ${CMAKE_BINARY_DIR} -j1 --target
        COMMENT "Running ${name}"
        VERBATIM
        USES_TERMINAL
    )

    foreach(which IN LISTS WHICHS)
        add_custom_target(buildbench-${name}-${which}
            COMMAND "{{.Executable}}" bench run
                ${name} ${which} ${benchf}
                --ns "${NS}"
                --cmake ${CMAKE_COMMAND}
                --cmake-binary-dir ${CMAKE_BINARY_DIR}
                --workingdir ${CMAKE_CURRENT_BINARY_DIR}/buildbench
                --generated-file ${BenchGeneratedFile}
                --build-target ${BenchCompileTarget}
                --clean-target ${BenchCleanTarget}{{if .Timeout}}
                --timeout {{.Timeout}}{{end}}
            DEPENDS
                "{{.Executable}}"
                "${benchf}"
            COMMENT "Running benchmark ${name}-${which}"
            USES_TERMINAL
        )
        set_property(TARGET buildbench-${name} APPEND PROPERTY BUILDBENCH_BENCHMARKS buildbench-${name}-${which})
    endforeach()

    set_property(TARGET buildbench APPEND PROPERTY BUILDBENCH_BENCHMARKS buildbench-${name})
    set_property(DIRECTORY APPEND PROPERTY CMAKE_CONFIGURE_DEPENDS ${benchf})
endfunction()
`))

// Discover returns the .bench files directly inside dir, sorted.
func Discover(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*"+BenchExtension))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryValidation, "invalid benchmark directory").
			WithContext("path", dir).Build()
	}
	sort.Strings(files)
	return files, nil
}

// Generate writes the add_benchmark prologue followed by one add_benchmark call
// per .bench file in dir.
func Generate(dir string, w io.Writer, opts GenerateOptions) error {
	if opts.Executable == "" {
		return ferrors.ValidationError("executable path is required").Build()
	}
	files, err := Discover(dir)
	if err != nil {
		return err
	}

	var descs []*Descriptor
	for _, f := range files {
		d, err := ParseDescriptor(f)
		if err != nil {
			return err
		}
		descs = append(descs, d)
	}

	if err := prologue.Execute(w, opts); err != nil {
		return ferrors.FileSystemError("failed to write CMake prologue").WithCause(err).Fatal().Build()
	}
	for _, d := range descs {
		if _, err := fmt.Fprintf(w, "add_benchmark(%s \"%s\" \"%s\" \"%s\")\n",
			d.Name, filepath.ToSlash(d.Path), strings.Join(d.Whichs, ";"), d.NsList()); err != nil {
			return ferrors.FileSystemError("failed to write benchmark").WithCause(err).Fatal().Build()
		}
		slog.Debug("Generated benchmark", logfields.Benchmark(d.Name), logfields.File(d.Path))
	}
	slog.Info("Generated benchmark targets", logfields.Path(dir), slog.Int("benchmarks", len(descs)))
	return nil
}
