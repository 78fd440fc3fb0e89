package conan

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/quincunx271/nickeltools/internal/config"
	ferrors "github.com/quincunx271/nickeltools/internal/foundation/errors"
	"github.com/quincunx271/nickeltools/internal/logfields"
	"github.com/quincunx271/nickeltools/internal/toolchain"
)

// Environment variables read by the CI packager.
const (
	EnvUsername      = "CONAN_USERNAME"
	EnvLoginUsername = "CONAN_LOGIN_USERNAME"
	EnvPassword      = "CONAN_PASSWORD"
	EnvVersion       = "CONAN_VERSION"
	EnvChannel       = "CONAN_CHANNEL"
	EnvUpload        = "CONAN_UPLOAD"
	EnvShouldUpload  = "SHOULD_UPLOAD_CONAN"
)

// UploadRemote is the remote name registered for uploads.
const UploadRemote = "upload_repo"

// CISettings is the packaging configuration a CI job provides through the environment.
type CISettings struct {
	Name          string
	Username      string
	LoginUsername string
	Password      string
	Version       string
	Channel       string
	UploadURL     string
	Upload        bool
	TestFolder    string
}

// Reference is the full Conan reference, name/version@user/channel.
func (s CISettings) Reference() string {
	return fmt.Sprintf("%s/%s@%s/%s", s.Name, s.Version, s.Username, s.Channel)
}

// CIFromEnv reads CISettings from env. CONAN_USERNAME, CONAN_VERSION and
// CONAN_CHANNEL are required; the mere presence of SHOULD_UPLOAD_CONAN enables upload.
func CIFromEnv(env map[string]string, pkg config.PackageConfig) (CISettings, error) {
	s := CISettings{
		Name:       pkg.Name,
		UploadURL:  pkg.UploadURL,
		TestFolder: pkg.TestFolder,
	}
	var missing []string
	required := func(key string) string {
		v, ok := env[key]
		if !ok || v == "" {
			missing = append(missing, key)
		}
		return v
	}
	s.Username = required(EnvUsername)
	s.Version = required(EnvVersion)
	s.Channel = required(EnvChannel)
	if len(missing) > 0 {
		return CISettings{}, ferrors.ConfigError("missing required environment variables").
			WithContext("variables", missing).Build()
	}

	s.LoginUsername = s.Username
	if v, ok := env[EnvLoginUsername]; ok && v != "" {
		s.LoginUsername = v
	}
	if v, ok := env[EnvUpload]; ok && v != "" {
		s.UploadURL = v
	}
	s.Password = env[EnvPassword]
	_, s.Upload = env[EnvShouldUpload]
	return s, nil
}

// CI drives the conan client the way a multi-package CI build does: create the
// package (which runs the test package), then optionally upload it.
type CI struct {
	Conan  string
	Runner toolchain.Runner
	Stdout io.Writer
	Stderr io.Writer
}

// NewCI returns a CI driver using the process streams.
func NewCI(conanBinary string, r toolchain.Runner) *CI {
	if conanBinary == "" {
		conanBinary = "conan"
	}
	if r == nil {
		r = toolchain.ExecRunner{}
	}
	return &CI{Conan: conanBinary, Runner: r, Stdout: os.Stdout, Stderr: os.Stderr}
}

func (c *CI) run(ctx context.Context, args ...string) error {
	return c.Runner.Run(ctx, toolchain.Command{
		Args:   append([]string{c.Conan}, args...),
		Stdout: c.Stdout,
		Stderr: c.Stderr,
	})
}

// Run creates the package from sourceDir and uploads it when s.Upload is set.
func (c *CI) Run(ctx context.Context, sourceDir string, s CISettings) error {
	ref := s.Reference()
	slog.Info("Creating Conan package", logfields.Reference(ref), slog.Bool("upload", s.Upload))

	if err := c.run(ctx, "create", sourceDir, ref, "--test-folder", s.TestFolder); err != nil {
		return err
	}
	if !s.Upload {
		return nil
	}

	if err := c.run(ctx, "remote", "add", UploadRemote, s.UploadURL, "--force"); err != nil {
		return err
	}
	if s.Password != "" {
		if err := c.run(ctx, "user", "-p", s.Password, "-r", UploadRemote, s.LoginUsername); err != nil {
			return err
		}
	}
	if err := c.run(ctx, "upload", ref, "-r", UploadRemote, "--all", "--confirm"); err != nil {
		return err
	}
	slog.Info("Uploaded Conan package", logfields.Reference(ref), slog.String("remote", s.UploadURL))
	return nil
}
