package config

import (
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// envFiles are loaded in order. A variable set by an earlier file is not
// replaced by a later one, so .env.local takes precedence over .env.
var envFiles = []string{".env.local", ".env"}

// loadEnvFile loads KEY=VALUE pairs from every env file that exists. Variables
// already present in the process environment are not overwritten, so CI
// settings such as CONAN_VERSION always take precedence over a checked-in file.
func loadEnvFile() error {
	var found []string
	for _, envPath := range envFiles {
		if _, err := os.Stat(envPath); err == nil {
			found = append(found, envPath)
		}
	}
	if len(found) == 0 {
		return errors.New("no .env file found")
	}
	if err := godotenv.Load(found...); err != nil {
		return err
	}
	slog.Debug("Loaded environment variables", slog.Any("paths", found))
	return nil
}

// Environ returns the process environment as a map, after .env loading.
func Environ() map[string]string {
	if err := loadEnvFile(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			env[k] = v
		}
	}
	return env
}
