// Package git reads version information from the project repository.
package git

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/quincunx271/nickeltools/internal/logfields"
)

// ErrNoVersionTag is returned when a repository has no semantic-version tag.
var ErrNoVersionTag = errors.New("no semantic version tag found")

// LatestVersionTag returns the highest semantic version among the tags of the
// repository containing dir, without a leading "v". Parent directories are
// searched for the .git directory.
func LatestVersionTag(dir string) (string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", err
	}

	tags, err := repo.Tags()
	if err != nil {
		return "", err
	}
	defer tags.Close()

	var best *semver.Version
	var bestName string
	err = tags.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		v, err := semver.StrictNewVersion(strings.TrimPrefix(name, "v"))
		if err != nil {
			return nil
		}
		if best == nil || v.GreaterThan(best) {
			best, bestName = v, name
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if best == nil {
		return "", ErrNoVersionTag
	}
	slog.Debug("Resolved version from git tag", slog.String("tag", bestName), logfields.Version(best.String()))
	return best.String(), nil
}
