package conan

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/quincunx271/nickeltools/internal/config"
	ferrors "github.com/quincunx271/nickeltools/internal/foundation/errors"
	"github.com/quincunx271/nickeltools/internal/git"
	"github.com/quincunx271/nickeltools/internal/logfields"
)

var (
	// Quoted arguments may contain parentheses.
	projectRe     = regexp.MustCompile(`(?s)project\s*\(((?:"[^"]*"|[^)"])*)\)`)
	versionRe     = regexp.MustCompile(`\bVERSION\s+(\S+)`)
	descriptionRe = regexp.MustCompile(`\bDESCRIPTION\s+"([^"]*?)"`)
)

// Recipe is the package metadata the Conan recipe exposes.
type Recipe struct {
	Name           string            `json:"name"`
	Version        string            `json:"version"`
	Description    string            `json:"description"`
	URL            string            `json:"url"`
	License        string            `json:"license"`
	BuildRequires  []string          `json:"build_requires"`
	DefaultOptions map[string]string `json:"default_options"`
	ExportsSources []string          `json:"exports_sources"`
}

// Build requirements and exported sources of the nickel recipe.
var (
	DefaultBuildRequires  = []string{"Catch2/2.5.0@catchorg/stable", "boost/1.74.0"}
	DefaultOptions        = map[string]string{"boost:header_only": "True"}
	DefaultExportsSources = []string{"pmm.cmake", "cmake/*", "include/*", "CMakeLists.txt", "LICENSE.txt"}
)

// ParseCMakeLists extracts VERSION and DESCRIPTION from the project() call.
// Missing values are returned empty.
func ParseCMakeLists(text string) (version, description string) {
	m := projectRe.FindStringSubmatch(text)
	if m == nil {
		return "", ""
	}
	args := m[1]
	if v := versionRe.FindStringSubmatch(args); v != nil {
		version = strings.TrimSpace(v[1])
	}
	if d := descriptionRe.FindStringSubmatch(args); d != nil {
		description = strings.TrimSpace(d[1])
	}
	return version, description
}

// LoadRecipe reads sourceDir/CMakeLists.txt. When the project declares no
// VERSION, the newest semantic-version git tag is used instead.
func LoadRecipe(sourceDir string, pkg config.PackageConfig) (*Recipe, error) {
	path := filepath.Join(sourceDir, "CMakeLists.txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ferrors.NotFoundError("failed to read CMakeLists.txt").WithCause(err).
			WithContext("path", path).Build()
	}

	version, description := ParseCMakeLists(string(data))
	if version == "" {
		tagVersion, err := git.LatestVersionTag(sourceDir)
		switch {
		case err == nil:
			version = tagVersion
		case errors.Is(err, git.ErrNoVersionTag):
			slog.Warn("Project has no VERSION and no version tag", logfields.Path(sourceDir))
		default:
			slog.Warn("Could not read git tags", logfields.Path(sourceDir), logfields.Error(err))
		}
	}

	return &Recipe{
		Name:           pkg.Name,
		Version:        version,
		Description:    description,
		URL:            pkg.URL,
		License:        pkg.License,
		BuildRequires:  append([]string(nil), DefaultBuildRequires...),
		DefaultOptions: DefaultOptions,
		ExportsSources: append([]string(nil), DefaultExportsSources...),
	}, nil
}
