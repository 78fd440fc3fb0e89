package commands

import (
	"fmt"

	"github.com/quincunx271/nickeltools/internal/versioning"
)

// VersionsCmd implements the 'versions' command. It is run from the root of
// the gh-pages checkout, one directory per published version.
type VersionsCmd struct {
	Dir              string `arg:"" optional:"" help:"Published documentation root" default:"." type:"existingdir"`
	SelectorTemplate string `name:"selector-template" required:"" help:"version-selector.js template containing 'const versions = []'" type:"existingfile"`
	IndexTemplate    string `name:"index-template" required:"" help:"index.html template containing {{latest_version}}" type:"existingfile"`
	OutDir           string `name:"out-dir" help:"Where to write the generated files (defaults to the documentation root)" type:"path"`
	SkipInvalid      bool   `name:"skip-invalid" help:"Warn about and skip directories that are not semantic versions"`
}

func (v *VersionsCmd) Run(g *Global, root *CLI) error {
	if _, err := root.LoadConfig(g); err != nil {
		return err
	}
	res, err := versioning.Generate(versioning.GenerateOptions{
		Dir:              v.Dir,
		SelectorTemplate: v.SelectorTemplate,
		IndexTemplate:    v.IndexTemplate,
		OutDir:           v.OutDir,
		Scan:             versioning.ScanOptions{SkipInvalid: v.SkipInvalid},
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(g.Stdout, "%s\n%s\n", res.SelectorPath, res.IndexPath)
	return nil
}
