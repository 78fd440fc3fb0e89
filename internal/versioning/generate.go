package versioning

import (
	"log/slog"
	"os"
	"path/filepath"

	ferrors "github.com/quincunx271/nickeltools/internal/foundation/errors"
	"github.com/quincunx271/nickeltools/internal/logfields"
)

// GenerateOptions configures a selector regeneration.
type GenerateOptions struct {
	Dir              string // root of the published documentation (gh-pages checkout)
	SelectorTemplate string
	IndexTemplate    string
	OutDir           string // defaults to Dir
	Scan             ScanOptions
}

// GenerateResult reports what was written.
type GenerateResult struct {
	Entries      []Entry
	SelectorPath string
	IndexPath    string
}

// Generate scans the published versions and renders the selector script and
// the redirect page.
func Generate(opts GenerateOptions) (*GenerateResult, error) {
	outDir := opts.OutDir
	if outDir == "" {
		outDir = opts.Dir
	}

	published, err := Scan(opts.Dir, opts.Scan)
	if err != nil {
		return nil, err
	}
	entries := Order(published)
	slog.Info("Discovered published documentation versions", slog.Int("count", len(published)), logfields.Path(opts.Dir))

	selectorTmpl, err := readTemplate(opts.SelectorTemplate)
	if err != nil {
		return nil, err
	}
	indexTmpl, err := readTemplate(opts.IndexTemplate)
	if err != nil {
		return nil, err
	}

	selector, err := RenderSelector(selectorTmpl, entries)
	if err != nil {
		return nil, err
	}
	index, err := RenderIndex(indexTmpl, entries)
	if err != nil {
		return nil, err
	}

	res := &GenerateResult{
		Entries:      entries,
		SelectorPath: filepath.Join(outDir, SelectorFile),
		IndexPath:    filepath.Join(outDir, IndexFile),
	}
	if err := writeFile(res.SelectorPath, selector); err != nil {
		return nil, err
	}
	if err := writeFile(res.IndexPath, index); err != nil {
		return nil, err
	}
	latest, _ := Latest(entries)
	slog.Info("Version selector generated", logfields.File(res.SelectorPath), logfields.Version(latest))
	return res, nil
}

func readTemplate(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", ferrors.NotFoundError("failed to read template").WithCause(err).
			WithContext("path", path).Build()
	}
	return string(data), nil
}

func writeFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return ferrors.FileSystemError("failed to write output").WithCause(err).
			Fatal().WithContext("path", path).Build()
	}
	return nil
}
